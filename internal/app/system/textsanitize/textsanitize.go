// Package textsanitize strips markup from user-entered text such as list
// names and item text before it is written to the document store.
package textsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain removes every HTML tag from s, unescapes the entities bluemonday
// produces, and trims surrounding whitespace. Text that parses as a tag is
// removed even when the user meant it literally: "a<b and c>d" becomes
// "ad". A "<" not followed by a letter, "/" or "!" is kept, so "2 < 3" and
// "I <3 milk" survive.
func Plain(s string) string {
	if s == "" {
		return ""
	}
	out := strict.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(out))
}
