// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// TYPES
// =============================================================================

// Family is one model family and the tags it is published under.
type Family struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

// Catalog is the on-disk user catalogue.
type Catalog struct {
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Families  []Family  `json:"families"`
}

// Builtin returns a copy of the catalogue shipped with the binary.
func Builtin() []Family {
	out := make([]Family, len(builtin))
	for i, f := range builtin {
		out[i] = Family{Name: f.Name, Variants: append([]string(nil), f.Variants...)}
	}
	return out
}

// =============================================================================
// RECOMMENDED / AVAILABLE
// =============================================================================

// Recommended flattens families into "family:variant" names, preserving
// order. A family without variants contributes nothing.
func Recommended(families []Family) []string {
	var names []string
	for _, f := range families {
		for _, v := range f.Variants {
			names = append(names, f.Name+":"+v)
		}
	}
	return names
}

// Available returns the recommended names that are not installed and that
// contain search (case-insensitively), sorted by name.
func Available(recommended, installed []string, search string) []string {
	have := make(map[string]bool, len(installed))
	for _, name := range installed {
		have[name] = true
	}

	search = strings.TrimSpace(search)
	var out []string
	for _, name := range recommended {
		if have[name] {
			continue
		}
		if search != "" && !util.ContainsFold(name, search) {
			continue
		}
		out = append(out, name)
	}

	collate.New(language.Und).SortStrings(out)
	return out
}

// =============================================================================
// USER CATALOGUE
// =============================================================================

// Load reads the user catalogue at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	return &c, nil
}

// Save writes c to path atomically.
func Save(path string, c *Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0600)
}

// Families returns the user catalogue at path when it exists and lists at
// least one family, and the built-in catalogue otherwise. A corrupt user
// file is reported alongside the built-in fallback.
func Families(path string) ([]Family, error) {
	if path == "" {
		return Builtin(), nil
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Builtin(), nil
	}
	if err != nil {
		return Builtin(), err
	}
	if len(c.Families) == 0 {
		return Builtin(), nil
	}
	return c.Families, nil
}
