// Package content cleans stored HTML and renders it for terminals.
package content

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips scripts, event handlers and javascript: URLs from HTML
// while keeping ordinary formatting. Safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer built on the UGC policy. Placeholder
// braces are plain text, so templates survive sanitization unchanged.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// Renderer converts stored HTML to Markdown.
type Renderer struct {
	sanitizer *Sanitizer
	converter *md.Converter
}

func NewRenderer() *Renderer {
	return &Renderer{
		sanitizer: NewSanitizer(),
		converter: md.NewConverter("", true, nil),
	}
}

// ToMarkdown sanitizes html and converts it to Markdown.
func (r *Renderer) ToMarkdown(html string) (string, error) {
	out, err := r.converter.ConvertString(r.sanitizer.Sanitize(html))
	if err != nil {
		return "", fmt.Errorf("converting html to markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}
