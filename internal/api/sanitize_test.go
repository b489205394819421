package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"<b>bold</b> move", "bold move"},
		{"fish & chips", "fish & chips"},
		{"i <3 go", "i <3 go"},
		{`<a href="javascript:alert(1)">click</a>`, "click"},
		{"line one\nline two", "line one\nline two"},
		{"&lt;b&gt;bold&lt;/b&gt; move", "bold move"},
		{"&amp;lt;b&amp;gt;twice&amp;lt;/b&amp;gt;", "twice"},
		{"&lt;img src=x onerror=alert(1)&gt;", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize(tt.in))
		})
	}
}

func TestSanitize_DecodedMarkupIsStripped(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&#60;script&#62;alert(1)&#60;/script&#62;",
		"&amp;lt;iframe src=x&amp;gt;",
		strings.Repeat("&amp;", 20) + "lt;b&gt;deep",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out := sanitize(in)
			assert.NotContains(t, out, "<script")
			assert.NotContains(t, out, "<iframe")
			assert.NotContains(t, out, "<b")
		})
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", sanitizeName("  <em>Ada</em>\n\tLovelace  "))
	assert.Equal(t, "", sanitizeName("&lt;img src=x onerror=alert(1)&gt;"))
}
