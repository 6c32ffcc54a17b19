// Package session wraps a cookie-jar HTTP client shared by every
// component that talks to the site. CDA authentication is cookie
// based, so all requests must flow through the same jar.
package session

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/pkg/errors"
)

// Session is the shared HTTP context. It is created once at startup
// and passed by reference to the authenticator, the search service,
// the video resolver and the downloader. Access is sequential by
// design; no internal locking.
type Session struct {
	client  *http.Client
	headers map[string]string
}

// New creates a session with a fresh cookie jar and the site's
// default headers.
func New(cfg *config.Config) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}
	return &Session{
		client: &http.Client{
			Transport: util.NewTransport(),
			Jar:       jar,
			Timeout:   30 * time.Second,
		},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "pl,en-US;q=0.7,en;q=0.3",
			"Referer":         cfg.BaseURL + "/",
			"Origin":          cfg.BaseURL,
		},
	}, nil
}

// Get issues a GET request through the session.
func (s *Session) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	return s.do(req)
}

// GetWithParams issues a GET request with query parameters appended.
func (s *Session) GetWithParams(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	return s.Get(ctx, rawURL)
}

// PostForm submits a urlencoded form through the session, following
// redirects the way a browser login flow does.
func (s *Session) PostForm(ctx context.Context, rawURL string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// Stream issues a GET request with no client timeout, for long-running
// media transfers. The caller owns the response body.
func (s *Session) Stream(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	s.applyHeaders(req)
	streamClient := &http.Client{
		Transport: s.client.Transport,
		Jar:       s.client.Jar,
	}
	return streamClient.Do(req)
}

// FetchDocument gets a page and returns its full body.
func (s *Session) FetchDocument(ctx context.Context, rawURL string) (string, error) {
	resp, err := s.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("server returned: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}
	return string(body), nil
}

func (s *Session) do(req *http.Request) (*http.Response, error) {
	s.applyHeaders(req)
	return s.client.Do(req)
}

func (s *Session) applyHeaders(req *http.Request) {
	for k, v := range s.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
}
