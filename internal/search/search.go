// Package search fetches and parses CDA listing pages: full-text
// search results and folder contents.
package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/pkg/errors"
)

// Service fetches listing pages over the shared session.
type Service struct {
	sess *session.Session
	cfg  *config.Config
}

// NewService creates a search service.
func NewService(sess *session.Session, cfg *config.Config) *Service {
	return &Service{sess: sess, cfg: cfg}
}

// Search queries the site's full-text search. With premiumOnly the
// site-side premium filter is applied.
func (s *Service) Search(ctx context.Context, query string, premiumOnly bool, page int) ([]models.ListingRecord, error) {
	util.Infof("Searching for %q (premium only: %v, page %d)", query, premiumOnly, page)

	params := url.Values{
		"q":    {query},
		"page": {strconv.Itoa(page)},
	}
	if premiumOnly {
		params.Set("s", "premium")
	}
	return s.fetchListing(ctx, s.cfg.BaseURL+"/video/szukaj", params, page)
}

// Folder lists one page of a CDA folder.
func (s *Service) Folder(ctx context.Context, folderID string, page int) ([]models.ListingRecord, error) {
	util.Infof("Listing folder %s, page %d", folderID, page)

	params := url.Values{}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	return s.fetchListing(ctx, s.cfg.BaseURL+"/folder/"+folderID, params, page)
}

func (s *Service) fetchListing(ctx context.Context, listingURL string, params url.Values, page int) ([]models.ListingRecord, error) {
	resp, err := s.sess.GetWithParams(ctx, listingURL, params)
	if err != nil {
		return nil, &errs.SearchError{Page: page, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.SearchError{Page: page, Err: errors.Errorf("server returned: %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &errs.SearchError{Page: page, Err: errors.Wrap(err, "failed to parse listing page")}
	}

	records, err := ParseListing(doc, s.cfg.BaseURL)
	if err != nil {
		// AuthRequiredError from a login-walled page propagates as-is.
		return nil, err
	}
	util.Infof("Found %d results", len(records))
	return records, nil
}
