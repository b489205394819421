package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// Each pass peels one layer of entity encoding, so this bounds how deeply
// encoded markup can be before we give up and keep the escaped form.
const maxSanitizePasses = 8

// sanitize removes all html from user input. Responses are JSON, so escaped
// entities are turned back into the characters the user typed, and the result
// is stripped again until decoding uncovers no more markup.
func sanitize(s string) string {
	for range maxSanitizePasses {
		out := html.UnescapeString(stripPolicy.Sanitize(s))
		if out == s {
			return out
		}
		s = out
	}

	return stripPolicy.Sanitize(s)
}

// sanitizeName also folds runs of whitespace, newlines included, into one space.
func sanitizeName(s string) string {
	return strings.Join(strings.Fields(sanitize(s)), " ")
}
