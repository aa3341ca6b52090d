// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdown converts with GitHub tables so the tool trace renders as a table.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// HTML converts Markdown to an HTML fragment. Raw HTML in the input is
// omitted by goldmark's default renderer.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
