// Package text formats the help text of chainctl commands.
package text

import (
	"strings"
)

// Indentation prefixes every example line.
const Indentation = `  `

// LongDesc trims the surrounding whitespace of a long description.
func LongDesc(s string) string {
	return strings.TrimSpace(s)
}

// Examples trims an example block and indents each of its lines, dropping the source
// indentation of raw string literals.
func Examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = Indentation + strings.TrimSpace(line)
	}

	return strings.Join(lines, "\n")
}
