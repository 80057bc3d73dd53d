// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRecommended(t *testing.T) {
	families := []Family{
		{Name: "deepseek-r1", Variants: []string{"1.5b", "7b"}},
		{Name: "openhermes", Variants: []string{}},
		{Name: "llama3.2", Variants: []string{"tools", "1b"}},
	}
	got := Recommended(families)
	want := []string{"deepseek-r1:1.5b", "deepseek-r1:7b", "llama3.2:tools", "llama3.2:1b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recommended() = %v, want %v", got, want)
	}
}

func TestRecommended_Builtin(t *testing.T) {
	names := Recommended(Builtin())
	if len(names) == 0 {
		t.Fatal("built-in catalogue should not be empty")
	}
	if names[0] != "deepseek-r1:1.5b" {
		t.Errorf("first recommended = %q, want deepseek-r1:1.5b", names[0])
	}
	for _, n := range names {
		if strings.HasPrefix(n, "openhermes:") {
			t.Error("a family without variants should contribute nothing")
		}
	}
}

func TestBuiltin_ReturnsCopy(t *testing.T) {
	a := Builtin()
	a[0].Variants[0] = "mutated"
	if Builtin()[0].Variants[0] == "mutated" {
		t.Error("Builtin() should return an independent copy")
	}
}

func TestAvailable(t *testing.T) {
	recommended := []string{"phi:2.7b", "llama2:7b", "gemma:2b", "llama3.2:1b", "Llama3.3:70b"}
	installed := []string{"llama2:7b", "mistral:latest"}

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"no search", "", []string{"gemma:2b", "llama3.2:1b", "Llama3.3:70b", "phi:2.7b"}},
		{"case-insensitive", "LLAMA", []string{"llama3.2:1b", "Llama3.3:70b"}},
		{"blank search", "   ", []string{"gemma:2b", "llama3.2:1b", "Llama3.3:70b", "phi:2.7b"}},
		{"no match", "qwen", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Available(recommended, installed, tc.search)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Available(%q) = %v, want %v", tc.search, got, tc.want)
			}
		})
	}
}

func TestFamilies_UserCatalogue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	got, err := Families(path)
	if err != nil {
		t.Fatalf("Families() error = %v", err)
	}
	if len(got) != len(builtin) {
		t.Error("missing user catalogue should give the built-in list")
	}

	user := &Catalog{
		Source:    DefaultLibraryURL,
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Families:  []Family{{Name: "gemma3", Variants: []string{"1b", "4b"}}},
	}
	if err := Save(path, user); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err = Families(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, user.Families) {
		t.Errorf("Families() = %v, want user catalogue", got)
	}

	os.WriteFile(path, []byte("{not json"), 0600)
	got, err = Families(path)
	if err == nil {
		t.Error("corrupt catalogue should report an error")
	}
	if len(got) != len(builtin) {
		t.Error("corrupt catalogue should fall back to built-in")
	}
}

const libraryPage = `<!doctype html>
<html><body><ul>
<li x-test-model>
  <a href="/library/gemma3"><div x-test-model-title title="gemma3"><h2>gemma3</h2></div></a>
  <span x-test-capability>vision</span>
  <span x-test-size>1b</span><span x-test-size> 4b </span><span x-test-size>27b</span>
</li>
<li x-test-model>
  <div x-test-model-title title="nomic-embed-text"></div>
  <span x-test-capability>embedding</span>
</li>
<li x-test-model>
  <div x-test-model-title title=""></div>
  <span x-test-size>7b</span>
</li>
<li x-test-model>
  <div x-test-model-title title="openhermes"></div>
</li>
<li class="ad">not a model</li>
</ul></body></html>`

func TestParseLibrary(t *testing.T) {
	got, err := ParseLibrary(strings.NewReader(libraryPage))
	if err != nil {
		t.Fatalf("ParseLibrary() error = %v", err)
	}
	want := []Family{
		{Name: "gemma3", Variants: []string{"1b", "4b", "27b"}},
		{Name: "nomic-embed-text", Variants: []string{"embedding"}},
		{Name: "openhermes", Variants: []string{}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLibrary() = %+v\nwant %+v", got, want)
	}
}

func TestScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(libraryPage))
	}))
	defer server.Close()

	families, err := Scrape(context.Background(), server.Client(), server.URL+"/library")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if len(families) != 3 {
		t.Errorf("len(families) = %d, want 3", len(families))
	}

	if _, err := Scrape(context.Background(), server.Client(), server.URL+"/missing"); err == nil {
		t.Error("expected error for a 404 page")
	}
}
