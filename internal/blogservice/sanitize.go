package blogservice

import "regexp"

var scriptTagPattern = regexp.MustCompile(`(?i)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

// sanitizeText strips script tags from user supplied post and comment text.
func sanitizeText(text string) string {
	return scriptTagPattern.ReplaceAllString(text, "")
}
