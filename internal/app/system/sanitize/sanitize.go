// internal/app/system/sanitize/sanitize.go
//
// Package sanitize strips markup from user-authored text before it is
// persisted. Names, descriptions, and comment content are plain text in
// this product; anything that looks like HTML is hostile input.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
