// Package downloader streams selected media to local storage.
package downloader

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/Walendziak1912/CDA/internal/quality"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/Walendziak1912/CDA/internal/tracking"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/Walendziak1912/CDA/internal/video"
	"github.com/pkg/errors"
)

// ProgressFunc receives (bytesWritten, totalSize) after every chunk.
// totalSize is 0 when the server declares no content length.
type ProgressFunc func(written, total int64)

// Downloader ties the resolver, the quality selector and the stream
// retriever together for one video at a time.
type Downloader struct {
	sess     *session.Session
	resolver *video.Resolver
	cfg      *config.Config
	dir      string
	history  *tracking.History
}

// New creates a downloader writing into the configured directory.
func New(sess *session.Session, resolver *video.Resolver, cfg *config.Config) *Downloader {
	return &Downloader{
		sess:     sess,
		resolver: resolver,
		cfg:      cfg,
		dir:      cfg.DownloadDir,
	}
}

// SetHistory attaches an optional download-history log. Recording is
// best-effort and never fails a download.
func (d *Downloader) SetHistory(h *tracking.History) { d.history = h }

// Dir returns the current download directory.
func (d *Downloader) Dir() string { return d.dir }

// WithDir runs fn with the download directory temporarily overridden.
// The previous directory is restored on every exit path, so a batch
// override can never leak into later operations.
func (d *Downloader) WithDir(dir string, fn func() error) error {
	if dir == "" {
		return fn()
	}
	previous := d.dir
	d.dir = dir
	defer func() { d.dir = previous }()
	return fn()
}

// Download resolves the video, picks a quality and streams the file.
// It returns the final path.
func (d *Downloader) Download(ctx context.Context, videoURL, preferredQuality string, progress ProgressFunc) (string, error) {
	desc, err := d.resolver.Resolve(ctx, videoURL)
	if err != nil {
		return "", err
	}

	label, directURL, err := quality.Select(desc.Qualities, preferredQuality)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.dir, 0700); err != nil {
		return "", &errs.StorageError{Path: d.dir, Err: err}
	}
	dest := filepath.Join(d.dir, util.VideoFilename(desc.Title, label))

	util.Infof("Downloading %q at %s", desc.Title, label)
	util.Infof("Saving to %s", dest)

	written, err := d.Retrieve(ctx, directURL, dest, progress)
	if err != nil {
		return "", err
	}

	if d.history != nil {
		if err := d.history.Record(tracking.Entry{
			VideoID: desc.ID,
			Title:   desc.Title,
			Quality: label,
			Path:    dest,
			Bytes:   written,
		}); err != nil {
			util.Warnf("Failed to record download history: %v", err)
		}
	}

	util.Infof("Download finished: %s", dest)
	return dest, nil
}

// Retrieve streams url into dest in fixed-size chunks, reporting
// progress after each one. The destination file is closed on every
// exit path; a partial file is left in place after a failure.
func (d *Downloader) Retrieve(ctx context.Context, url, dest string, progress ProgressFunc) (int64, error) {
	resp, err := d.sess.Stream(ctx, url)
	if err != nil {
		return 0, &errs.TransferError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, &errs.TransferError{URL: url, Err: errors.Errorf("server returned: %s", resp.Status)}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	target := models.DownloadTarget{URL: url, Path: dest, TotalSize: total}

	out, err := os.OpenFile(target.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return 0, &errs.StorageError{Path: target.Path, Err: err}
	}
	defer func() { _ = out.Close() }()

	var written int64
	buf := make([]byte, d.cfg.ChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return written, &errs.StorageError{Path: target.Path, Err: writeErr}
			}
			written += int64(n)
			if progress != nil {
				progress(written, target.TotalSize)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, &errs.TransferError{URL: url, Err: readErr}
		}
	}

	if err := finishFile(out, target.Path); err != nil {
		return written, err
	}

	if progress != nil {
		progress(written, target.TotalSize)
	}
	return written, nil
}

// finishFile closes the destination, surfacing write-back failures
// that only show up at close time. Reporting success on a failed close
// would hand the caller a byte count the filesystem never kept.
func finishFile(out *os.File, path string) error {
	if err := out.Close(); err != nil {
		return &errs.StorageError{Path: path, Err: err}
	}
	return nil
}
