package utils

import "github.com/microcosm-cc/bluemonday"

var namePolicy = bluemonday.StrictPolicy()

// SanitizeName strips all markup from display names. Post and comment
// content is plain text stored verbatim and must round-trip unchanged, so it
// never passes through here.
func SanitizeName(input string) string {
	return namePolicy.Sanitize(input)
}
