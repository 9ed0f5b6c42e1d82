// Package render converts AsciiDoc sources into the HTML pushed to a blog.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"

	"github.com/bytesparadise/libasciidoc"
	"github.com/bytesparadise/libasciidoc/pkg/configuration"
)

// Renderer converts AsciiDoc source to HTML given a set of document
// attributes. Implementations must be deterministic.
type Renderer interface {
	Render(source string, attrs map[string]interface{}) (string, error)
}

// Asciidoc renders with libasciidoc, producing the document body only.
type Asciidoc struct{}

// NewAsciidoc returns a libasciidoc-backed Renderer.
func NewAsciidoc() *Asciidoc {
	return &Asciidoc{}
}

// Render implements Renderer.
func (a *Asciidoc) Render(source string, attrs map[string]interface{}) (string, error) {
	config := configuration.NewConfiguration(
		configuration.WithBackEnd("html5"),
		configuration.WithHeaderFooter(false),
		configuration.WithAttributes(copyAttributes(attrs)),
	)

	var out bytes.Buffer
	if _, err := libasciidoc.Convert(strings.NewReader(source), &out, config); err != nil {
		return "", fmt.Errorf("failed to render asciidoc: %w", err)
	}
	return out.String(), nil
}

// AppendSource appends a hidden block carrying the raw AsciiDoc source after
// the rendered HTML, so the source travels with the post. attrs are the
// attributes of the wrapping div; an empty value disables the block.
func AppendSource(rendered, attrs, raw string) string {
	attrs = strings.TrimSpace(attrs)
	if attrs == "" {
		return rendered
	}
	return fmt.Sprintf("%s<div %s>%s</div>", rendered, attrs, html.EscapeString(raw))
}

// Digest returns the hex SHA-256 of the rendered HTML. It is a change
// marker only.
func Digest(rendered string) string {
	sum := sha256.Sum256([]byte(rendered))
	return hex.EncodeToString(sum[:])
}

func copyAttributes(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
