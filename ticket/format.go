// Package ticket renders orders into fixed-width register-tape receipts and
// keeps a process-local history of the tickets produced.
package ticket

import (
	"strings"
	"unicode/utf8"
)

// Width is the column count of a receipt line.
const Width = 32

var (
	border    = strings.Repeat("=", Width)
	separator = strings.Repeat("-", Width)
)

// Format lays out a receipt: border, centered name, headers, separator,
// body, separator, footers, border. Lines are returned verbatim; callers
// truncate anything that must fit the tape.
func Format(name string, headers, body, footers []string) string {
	lines := make([]string, 0, len(headers)+len(body)+len(footers)+5)
	lines = append(lines, border)
	if name != "" {
		lines = append(lines, center(name))
	}
	lines = append(lines, headers...)
	lines = append(lines, separator)
	lines = append(lines, body...)
	lines = append(lines, separator)
	lines = append(lines, footers...)
	lines = append(lines, border)
	return strings.Join(lines, "\n")
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= Width {
		return s
	}
	return strings.Repeat(" ", (Width-n)/2) + s
}
