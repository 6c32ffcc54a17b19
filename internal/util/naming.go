package util

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTitleLength = 80

var (
	forbiddenChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a video title into a safe filename component:
// filesystem-hostile characters are stripped, whitespace runs collapse
// to a single underscore, and the result is capped at 80 characters.
func SanitizeTitle(title string) string {
	safe := forbiddenChars.ReplaceAllString(title, "")
	safe = whitespaceRuns.ReplaceAllString(safe, "_")
	if runes := []rune(safe); len(runes) > maxTitleLength {
		safe = string(runes[:maxTitleLength])
	}
	return safe
}

// VideoFilename builds the final on-disk name for a downloaded video.
func VideoFilename(title, quality string) string {
	return fmt.Sprintf("%s_%s.mp4", SanitizeTitle(title), quality)
}

// AbsoluteURL rewrites a relative site link to an absolute one.
func AbsoluteURL(base, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return base + ref
	}
	return base + "/" + ref
}
