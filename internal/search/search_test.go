package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
	<div class="video-clip">
		<a class="link-title" href="/video/abc">Wynik</a>
	</div>
</body></html>`

func newService(t *testing.T, serverURL string) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = serverURL
	sess, err := session.New(cfg)
	require.NoError(t, err)
	return NewService(sess, cfg)
}

func TestSearchQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/video/szukaj", r.URL.Path)
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "koty", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "premium", r.URL.Query().Get("s"))
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	records, err := newService(t, srv.URL).Search(context.Background(), "koty", true, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, srv.URL+"/video/abc", records[0].URL)
	assert.NotEmpty(t, gotQuery)
}

func TestSearchWithoutPremiumFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasFilter := r.URL.Query()["s"]
		assert.False(t, hasFilter)
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL).Search(context.Background(), "koty", false, 1)
	require.NoError(t, err)
}

func TestFolderFirstPageOmitsPageParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/folder/moj-folder", r.URL.Path)
		_, hasPage := r.URL.Query()["page"]
		assert.False(t, hasPage)
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	records, err := newService(t, srv.URL).Folder(context.Background(), "moj-folder", 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFolderLaterPageCarriesPageParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL).Folder(context.Background(), "moj-folder", 3)
	require.NoError(t, err)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL).Search(context.Background(), "koty", false, 4)
	var searchErr *errs.SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.Equal(t, 4, searchErr.Page)
}

func TestSearchLoginWallPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="login-premium-requied"></div></body></html>`))
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL).Search(context.Background(), "koty", true, 1)
	var required *errs.AuthRequiredError
	require.ErrorAs(t, err, &required)
}
