// internal/app/system/normalize/normalize.go
//
// Package normalize canonicalizes user-entered identity fields before
// they are stored or used in lookups.
package normalize

import "strings"

// Email trims whitespace and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims whitespace; case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips spaces, dashes, dots, and parentheses. A leading + is
// kept so E.164 numbers survive.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
