// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// DefaultLibraryURL is the public Ollama model library.
const DefaultLibraryURL = "https://ollama.com/library"

// maxPageBytes bounds the library page read.
const maxPageBytes = 16 << 20

// Scrape fetches the library page at url and extracts its model families.
func Scrape(ctx context.Context, client *http.Client, url string) ([]Family, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	return ParseLibrary(io.LimitReader(resp.Body, maxPageBytes))
}

// ParseLibrary reads model families from library page HTML. Each
// li[x-test-model] element is one family: its name is the title attribute of
// the [x-test-model-title] descendant, its variants the texts of
// [x-test-size] elements, or of [x-test-capability] elements when there are
// no sizes. Elements without a name are skipped; a repeated name replaces
// the earlier variants in place.
func ParseLibrary(r io.Reader) ([]Family, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse library page: %w", err)
	}

	var (
		families []Family
		index    = map[string]int{}
	)
	for _, li := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "li" && hasAttr(n, "x-test-model")
	}) {
		name := ""
		if title := findFirst(li, func(n *html.Node) bool { return hasAttr(n, "x-test-model-title") }); title != nil {
			name = strings.TrimSpace(attr(title, "title"))
		}
		if name == "" {
			continue
		}

		variants := texts(li, "x-test-size")
		if len(variants) == 0 {
			variants = texts(li, "x-test-capability")
		}
		if variants == nil {
			variants = []string{}
		}

		if i, ok := index[name]; ok {
			families[i].Variants = variants
			continue
		}
		index[name] = len(families)
		families = append(families, Family{Name: name, Variants: variants})
	}
	return families, nil
}

// =============================================================================
// NODE HELPERS
// =============================================================================

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func texts(root *html.Node, marker string) []string {
	var out []string
	for _, n := range findAll(root, func(n *html.Node) bool { return hasAttr(n, marker) }) {
		if n == root {
			continue
		}
		if t := strings.TrimSpace(textContent(n)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
