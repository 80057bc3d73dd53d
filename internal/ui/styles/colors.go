// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// All colours are AdaptiveColor pairs. The active side is picked by
// ApplyTheme, which pins lipgloss's background detection to the user's
// theme setting.

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Ocean - Primary accent, selections, the brand
var Ocean = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}

// Lagoon - Secondary accent for the assistant
var Lagoon = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// Hibiscus - Errors and destructive actions
var Hibiscus = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}

// Sunset - Warnings and the pending spinner
var Sunset = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FDBA74"}

// Palm - Success states
var Palm = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#111827"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#1F2937"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}
var SelectionBg = lipgloss.AdaptiveColor{Light: "#E0F2FE", Dark: "#0C4A6E"}

// =============================================================================
// TEXT COLORS
// =============================================================================

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F3F4F6"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#D1D5DB"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#111827"}

// =============================================================================
// MESSAGE COLORS
// =============================================================================

var UserAccent = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
var AssistantAccent = Lagoon
var SystemAccent = Sunset
var ThinkingFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

// StatusIndicators are shape cues shown next to coloured status text.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Active  string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Active:  "[*]",
}
