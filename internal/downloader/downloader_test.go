package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/Walendziak1912/CDA/internal/video"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDownloader(t *testing.T, serverURL string, chunkSize int) *Downloader {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = serverURL
	cfg.DownloadDir = t.TempDir()
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	}
	sess, err := session.New(cfg)
	require.NoError(t, err)
	return New(sess, video.NewResolver(sess, cfg), cfg)
}

func TestRetrieveChunkedProgress(t *testing.T) {
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	d := newDownloader(t, srv.URL, 64)
	dest := filepath.Join(t.TempDir(), "out.mp4")

	var calls []int64
	var lastTotal int64
	written, err := d.Retrieve(context.Background(), srv.URL+"/file", dest, func(w, total int64) {
		calls = append(calls, w)
		lastTotal = total
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), written)

	// Several intermediate reports, monotonically increasing, and a
	// final one carrying the full byte count.
	require.NotEmpty(t, calls)
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i], calls[i-1])
	}
	assert.Equal(t, int64(1000), calls[len(calls)-1])
	assert.Equal(t, int64(1000), lastTotal)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRetrieveNilProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("dane"))
	}))
	defer srv.Close()

	d := newDownloader(t, srv.URL, 0)
	dest := filepath.Join(t.TempDir(), "out.mp4")
	written, err := d.Retrieve(context.Background(), srv.URL+"/file", dest, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), written)
}

func TestRetrieveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := newDownloader(t, srv.URL, 0)
	dest := filepath.Join(t.TempDir(), "out.mp4")
	_, err := d.Retrieve(context.Background(), srv.URL+"/file", dest, nil)
	var transferErr *errs.TransferError
	require.ErrorAs(t, err, &transferErr)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFinishFileSurfacesCloseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// A second close fails; the failure must map to a storage fault
	// instead of vanishing.
	err = finishFile(f, path)
	var storageErr *errs.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, path, storageErr.Path)
}

func TestRetrieveBadDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("dane"))
	}))
	defer srv.Close()

	d := newDownloader(t, srv.URL, 0)
	dest := filepath.Join(t.TempDir(), "missing-subdir", "out.mp4")
	_, err := d.Retrieve(context.Background(), srv.URL+"/file", dest, nil)
	var storageErr *errs.StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestDownloadEndToEnd(t *testing.T) {
	payload := []byte("zawartość filmu")
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/video/abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<h1 class="title">Mój Film</h1>
			<script>var player_data = {"video":{"qualities":{"480p":{"url":"` + srv.URL + `/media/480.mp4"},"1080p":{"url":"` + srv.URL + `/media/1080.mp4"}}}};</script>
		</body></html>`))
	})
	mux.HandleFunc("/media/1080.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := newDownloader(t, srv.URL, 0)
	path, err := d.Download(context.Background(), srv.URL+"/video/abc", "", nil)
	require.NoError(t, err)

	// No preference selects the highest quality.
	assert.Equal(t, "Mój_Film_1080p.mp4", filepath.Base(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadPreferredQuality(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/video/abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<h1 class="title">Film</h1>
			<script>var player_data = {"video":{"qualities":{"480p":{"url":"` + srv.URL + `/media/480.mp4"},"1080p":{"url":"` + srv.URL + `/media/1080.mp4"}}}};</script>
		</body></html>`))
	})
	mux.HandleFunc("/media/480.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("sd"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	d := newDownloader(t, srv.URL, 0)
	path, err := d.Download(context.Background(), srv.URL+"/video/abc", "480p", nil)
	require.NoError(t, err)
	assert.Equal(t, "Film_480p.mp4", filepath.Base(path))
}

func TestWithDirRestores(t *testing.T) {
	d := newDownloader(t, "http://unused", 0)
	original := d.Dir()
	override := t.TempDir()

	err := d.WithDir(override, func() error {
		assert.Equal(t, override, d.Dir())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, original, d.Dir())
}

func TestWithDirRestoresOnError(t *testing.T) {
	d := newDownloader(t, "http://unused", 0)
	original := d.Dir()

	sentinel := errors.New("boom")
	err := d.WithDir(t.TempDir(), func() error { return sentinel })
	assert.Equal(t, sentinel, err)
	assert.Equal(t, original, d.Dir())
}

func TestWithDirEmptyKeepsCurrent(t *testing.T) {
	d := newDownloader(t, "http://unused", 0)
	original := d.Dir()

	err := d.WithDir("", func() error {
		assert.Equal(t, original, d.Dir())
		return nil
	})
	require.NoError(t, err)
}
