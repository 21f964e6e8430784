package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks while keeping the
// user-generated-content tag set (links, emphasis, lists).
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeText strips all markup. Post and comment bodies are plain text.
func SanitizeText(input string) string {
	return strictPolicy.Sanitize(input)
}
