package content

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScripts(t *testing.T) {
	s := NewSanitizer()

	got := s.Sanitize(`<p onclick="steal()">Hello</p><script>alert(1)</script>`)
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("Sanitize left dangerous markup: %q", got)
	}
	if !strings.Contains(got, "<p>Hello</p>") {
		t.Errorf("Sanitize dropped safe markup: %q", got)
	}
}

func TestSanitizeKeepsPlaceholders(t *testing.T) {
	s := NewSanitizer()

	in := "<p>Dear {{ client }}, pay {{amount}}.</p>"
	if got := s.Sanitize(in); got != in {
		t.Errorf("Sanitize = %q, want %q", got, in)
	}
}

func TestToMarkdown(t *testing.T) {
	r := NewRenderer()

	got, err := r.ToMarkdown("<h1>Lease</h1><p>Signed by <strong>Acme</strong></p>")
	if err != nil {
		t.Fatalf("ToMarkdown: %v", err)
	}
	if !strings.Contains(got, "# Lease") {
		t.Errorf("markdown missing heading: %q", got)
	}
	if !strings.Contains(got, "**Acme**") {
		t.Errorf("markdown missing bold text: %q", got)
	}
}
