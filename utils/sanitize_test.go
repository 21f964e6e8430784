package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTextStripsAllMarkup(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeText("<b>hello</b> world"))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "click", SanitizeText(`<a href="https://x.test" onclick="evil()">click</a>`))
}

func TestSanitizeKeepsUGCTagsDropsScripts(t *testing.T) {
	assert.Equal(t, "<b>bold</b>", Sanitize("<b>bold</b>"))
	assert.Equal(t, "safe", Sanitize("<script>alert(1)</script>safe"))
	assert.NotContains(t, Sanitize(`<img src=x onerror="evil()">`), "onerror")
}
