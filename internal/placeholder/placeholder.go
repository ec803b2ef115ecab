// Package placeholder finds and fills {{field}} merge fields in template content.
package placeholder

import (
	"regexp"
	"strings"
)

// pattern matches a double-brace placeholder whose inner text contains no '}'.
var pattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ExtractFields returns the trimmed placeholder names in content, de-duplicated
// in order of first appearance. Names that are blank after trimming are skipped.
// The result is never nil.
func ExtractFields(content string) []string {
	fields := []string{}
	seen := make(map[string]struct{})
	for _, m := range pattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	return fields
}

// SubstituteFields replaces each placeholder with values[trimmed name].
// Blank placeholders and those without a non-empty value are left verbatim.
func SubstituteFields(content string, values map[string]string) string {
	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if v := values[name]; name != "" && v != "" {
			return v
		}
		return match
	})
}

// MissingFields lists the fields of content that SubstituteFields would leave unresolved.
func MissingFields(content string, values map[string]string) []string {
	missing := []string{}
	for _, f := range ExtractFields(content) {
		if values[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
