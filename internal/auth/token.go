package auth

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/pkg/errors"
)

// tokenFieldNames are the input names checked for a CSRF token, in
// priority order.
var tokenFieldNames = []string{"_token", "csrf_token", "token"}

var scriptTokenPattern = regexp.MustCompile(`["'](_token|csrf_token|token)["']:\s*["']([^"']+)["']`)

const snippetLength = 500

// ResolveToken extracts the anti-forgery token from login page markup.
// Strategies, first match wins: a named input field, a csrf-token meta
// tag, then a `"name": "value"` pair inside an inline script. When all
// fail, the returned TokenNotFoundError carries the leading part of
// the page for diagnostics.
func ResolveToken(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse login page")
	}

	for _, name := range tokenFieldNames {
		if value, ok := doc.Find(`input[name="` + name + `"]`).First().Attr("value"); ok && value != "" {
			return value, nil
		}
	}
	if content, ok := doc.Find(`meta[name="csrf-token"]`).First().Attr("content"); ok && content != "" {
		return content, nil
	}

	var token string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()
		if !strings.Contains(strings.ToLower(body), "token") {
			return true
		}
		if m := scriptTokenPattern.FindStringSubmatch(body); m != nil {
			token = m[2]
			return false
		}
		return true
	})
	if token != "" {
		return token, nil
	}

	snippet := markup
	if runes := []rune(snippet); len(runes) > snippetLength {
		snippet = string(runes[:snippetLength])
	}
	return "", &errs.TokenNotFoundError{Snippet: snippet}
}
