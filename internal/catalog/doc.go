// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog lists the models offered for installation.
//
// A built-in list ships with the binary; `aloha catalog update` scrapes the
// public Ollama library into a user catalogue that takes its place.
//
//	families, _ := catalog.Families(path)
//	names := catalog.Available(catalog.Recommended(families), installed, "llama")
package catalog
