// Package video resolves a CDA video page into a descriptor with its
// quality -> direct URL mapping.
package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/pkg/errors"
)

// untitledPlaceholder is used when a video page carries no title.
const untitledPlaceholder = "film_bez_tytulu"

var (
	// Video URL path shapes, in order: /video/<id>, then /<user>/<id>.
	videoIDPatterns = []struct {
		re    *regexp.Regexp
		group int
	}{
		{regexp.MustCompile(`^/video/(\w+)`), 1},
		{regexp.MustCompile(`^/(\w+)/(\w+)`), 2},
	}

	playerDataPattern = regexp.MustCompile(`(?s)player_data\s*=\s*(.*?)(?:;|</script>|$)`)
	digitsPattern     = regexp.MustCompile(`\d+(?:\s*\d+)*`)
	nonDigits         = regexp.MustCompile(`\D`)
)

// playerData mirrors the JSON object CDA embeds in the player script.
type playerData struct {
	Video struct {
		Qualities map[string]struct {
			URL string `json:"url"`
		} `json:"qualities"`
	} `json:"video"`
}

// Resolver extracts video descriptors from video pages.
type Resolver struct {
	sess *session.Session
	cfg  *config.Config
}

// NewResolver creates a resolver over the shared session.
func NewResolver(sess *session.Session, cfg *config.Config) *Resolver {
	return &Resolver{sess: sess, cfg: cfg}
}

// Resolve fetches the video page and builds its descriptor. It fails
// with AuthRequiredError on a premium login wall and VideoInfoError
// when no download links can be found by either strategy.
func (r *Resolver) Resolve(ctx context.Context, videoURL string) (*models.VideoDescriptor, error) {
	util.Infof("Resolving video: %s", videoURL)

	resp, err := r.sess.Get(ctx, videoURL)
	if err != nil {
		return nil, &errs.VideoInfoError{URL: videoURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.VideoInfoError{URL: videoURL, Err: errors.Errorf("server returned: %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &errs.VideoInfoError{URL: videoURL, Err: errors.Wrap(err, "failed to parse video page")}
	}

	if wall := doc.Find(".premium-info"); wall.Length() > 0 &&
		strings.Contains(strings.ToLower(wall.Text()), "zaloguj") {
		return nil, &errs.AuthRequiredError{Reason: "premium video requires a logged-in account"}
	}

	id, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	desc := &models.VideoDescriptor{
		ID:    id,
		Title: untitledPlaceholder,
	}
	if title := strings.TrimSpace(doc.Find("h1.title").First().Text()); title != "" {
		desc.Title = title
	}
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		desc.Thumbnail = content
	}
	desc.Description = strings.TrimSpace(doc.Find(".description").First().Text())
	desc.Author = strings.TrimSpace(doc.Find(".user-name").First().Text())
	desc.Duration = strings.TrimSpace(doc.Find(".duration").First().Text())
	if viewsText := doc.Find(".views").First().Text(); viewsText != "" {
		if m := digitsPattern.FindString(viewsText); m != "" {
			desc.Views, _ = strconv.Atoi(nonDigits.ReplaceAllString(m, ""))
		}
	}

	desc.Qualities = r.extractQualities(ctx, doc)
	if len(desc.Qualities) == 0 {
		return nil, &errs.VideoInfoError{
			URL:    videoURL,
			Reason: "no download links found - the video may be restricted or protected",
		}
	}

	return desc, nil
}

// ExtractVideoID pulls the stable video identifier out of a CDA URL.
func ExtractVideoID(videoURL string) (string, error) {
	parsed, err := url.Parse(videoURL)
	if err != nil {
		return "", &errs.VideoInfoError{URL: videoURL, Reason: "cannot extract video id from url", Err: err}
	}
	for _, p := range videoIDPatterns {
		if m := p.re.FindStringSubmatch(parsed.Path); m != nil {
			return m[p.group], nil
		}
	}
	return "", &errs.VideoInfoError{URL: videoURL, Reason: "cannot extract video id from url"}
}

// extractQualities tries the inline player_data JSON first and only
// escalates to the secondary download page when that yields nothing.
func (r *Resolver) extractQualities(ctx context.Context, doc *goquery.Document) map[string]string {
	qualities := qualitiesFromScripts(doc)
	if len(qualities) > 0 {
		return qualities
	}
	return r.qualitiesFromDownloadPage(ctx, doc)
}

func qualitiesFromScripts(doc *goquery.Document) map[string]string {
	qualities := make(map[string]string)
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := s.Text()
		if !strings.Contains(body, "player_data") {
			return
		}
		span := ExtractScriptVar(body, playerDataPattern)
		if span == "" {
			return
		}
		var data playerData
		if err := json.Unmarshal([]byte(span), &data); err != nil {
			util.Debugf("player_data decode failed: %v", err)
			return
		}
		for label, q := range data.Video.Qualities {
			if q.URL != "" {
				qualities[label] = q.URL
			}
		}
	})
	return qualities
}

func (r *Resolver) qualitiesFromDownloadPage(ctx context.Context, doc *goquery.Document) map[string]string {
	downloadURL, ok := doc.Find("a.downloadBtn").First().Attr("href")
	if !ok || downloadURL == "" {
		return nil
	}
	downloadURL = util.AbsoluteURL(r.cfg.BaseURL, downloadURL)

	util.Debugf("Falling back to download page: %s", downloadURL)
	resp, err := r.sess.Get(ctx, downloadURL)
	if err != nil {
		util.Warnf("Download page fetch failed: %v", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		util.Warnf("Download page returned: %s", resp.Status)
		return nil
	}
	downloadDoc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		util.Warnf("Download page parse failed: %v", err)
		return nil
	}

	qualities := make(map[string]string)
	downloadDoc.Find("a.quality-btn").Each(func(_ int, link *goquery.Selection) {
		label := strings.TrimSpace(link.Text())
		if u, ok := link.Attr("href"); ok && label != "" && u != "" {
			qualities[label] = u
		}
	})
	return qualities
}

// ExtractScriptVar captures the textual span of a named assignment
// inside a script body. The pattern must have the value as its first
// capture group.
func ExtractScriptVar(script string, pattern *regexp.Regexp) string {
	if m := pattern.FindStringSubmatch(script); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
