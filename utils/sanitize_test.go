package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeAllowList(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"keeps strong", "<strong>bold</strong>", "<strong>bold</strong>"},
		{"keeps code", "<code>x := 1</code>", "<code>x := 1</code>"},
		{"keeps italics", "<i>soft</i>", "<i>soft</i>"},
		{"strips script", "<script>alert(1)</script>hi", "hi"},
		{"strips disallowed tags", "<em>nope</em>", "nope"},
		{"strips onclick", `<strong onclick="x()">bold</strong>`, "<strong>bold</strong>"},
		{"strips img", `<img src="x.png">text`, "text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitizeLinkAttributes(t *testing.T) {
	got := Sanitize(`<a href="https://example.com" title="t" target="_blank">link</a>`)
	assert.Contains(t, got, `href="https://example.com"`)
	assert.Contains(t, got, `title="t"`)
	assert.NotContains(t, got, "target")
	// Links always carry rel=nofollow.
	assert.Contains(t, got, "nofollow")
}
