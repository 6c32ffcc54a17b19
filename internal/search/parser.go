package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/Walendziak1912/CDA/internal/util"
)

// The site rewrites its listing markup regularly. Each field below is
// resolved through an ordered rule list, first non-empty result wins;
// keeping the rules declarative keeps the drift policy auditable.

const (
	loginWallSelector = ".login-premium-requied"
	itemSelector      = "div.video-clip-wrapper, div.video-clip, div.video-cover"
)

type fieldRule struct {
	selector string
	extract  func(*goquery.Selection) string
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

func href(s *goquery.Selection) string {
	v, _ := s.Attr("href")
	return v
}

var titleRules = []fieldRule{
	{"a.link-title", text},
	{"span.title", text},
	{"div.text-container h3", text},
}

var urlRules = []fieldRule{
	{"a.link-title", href},
	{"a.thumbnail", href},
	{"a.link", href},
}

func firstMatch(item *goquery.Selection, rules []fieldRule) string {
	for _, rule := range rules {
		sel := item.Find(rule.selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v := rule.extract(sel); v != "" {
			return v
		}
	}
	return ""
}

// ParseListing turns a results page into listing records. A malformed
// entry is skipped, never fatal; a login wall fails the whole page
// with AuthRequiredError.
func ParseListing(doc *goquery.Document, baseURL string) ([]models.ListingRecord, error) {
	if doc.Find(loginWallSelector).Length() > 0 {
		return nil, &errs.AuthRequiredError{Reason: "premium login required to view these results"}
	}

	var records []models.ListingRecord
	doc.Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		title := firstMatch(item, titleRules)
		rawURL := firstMatch(item, urlRules)
		if title == "" || rawURL == "" {
			util.Debugf("Skipping listing entry %d: no resolvable title/url", i)
			return
		}

		record := models.ListingRecord{
			Title:   title,
			URL:     util.AbsoluteURL(baseURL, rawURL),
			Premium: item.Find(".premium-icon, .label-premium").Length() > 0,
		}

		if img := item.Find("img").First(); img.Length() > 0 {
			if src, ok := img.Attr("src"); ok && src != "" {
				record.Thumbnail = src
			} else if src, ok := img.Attr("data-src"); ok {
				record.Thumbnail = src
			}
		}
		record.Duration = text(item.Find(".duration").First())
		record.Author = text(item.Find(".user-name").First())
		record.Views = text(item.Find(".views").First())

		records = append(records, record)
	})

	return records, nil
}
