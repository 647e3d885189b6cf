// Package prompt turns a template prompt and form values into the message
// sent for generation.
package prompt

import (
	"regexp"
	"strings"

	"github.com/joestump/joe-writer/internal/form"
)

var placeholderRE = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Interpolate substitutes form values into tmpl. Entries are applied in
// insertion order and each replaces only the first "{name}" in the string as
// it stands after the previous substitutions. Repeated placeholders past the
// first, and placeholders with no value, are left as written.
func Interpolate(tmpl string, data form.Data) string {
	out := tmpl
	for _, e := range data.Entries() {
		out = strings.Replace(out, "{"+e.Name+"}", e.Value, 1)
	}
	return out
}

// Placeholders returns the distinct placeholder names in tmpl in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRE.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
