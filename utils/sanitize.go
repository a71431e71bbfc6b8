package utils

import "github.com/microcosm-cc/bluemonday"

// sanitizer keeps the narrow rich-text allow-list for comment bodies:
// links (href/title only), inline code, italics and bold. Everything else is
// stripped to prevent XSS.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowElements("code", "i", "strong")
	p.RequireNoFollowOnLinks(true)
	return p
}()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
