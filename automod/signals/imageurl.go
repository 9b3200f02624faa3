package signals

import (
	"regexp"
	"strings"
)

var (
	directImagePattern = regexp.MustCompile(`https?://[^\s\[\]]+\.(?:jpg|jpeg|png|gif)(?:\s|\[|\]|$)`)
	anyURLPattern      = regexp.MustCompile(`https?://\S+`)
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// ExtractImageURL finds the first direct image link embedded in body text,
// or "" when there is none.
func ExtractImageURL(text string) string {
	if m := directImagePattern.FindString(text); m != "" {
		return strings.TrimRight(m, " \t\n[]")
	}
	// fall back to any URL that happens to carry an image extension somewhere
	if m := anyURLPattern.FindString(text); m != "" {
		lower := strings.ToLower(m)
		for _, ext := range imageExtensions {
			if strings.Contains(lower, ext) {
				return m
			}
		}
	}
	return ""
}

// IsImageURL reports whether a link URL points directly at an image.
func IsImageURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
