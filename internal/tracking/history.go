// Package tracking keeps a local sqlite history of completed
// downloads. Only finished files are recorded; resolved media URLs are
// never stored.
package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	defaultCacheSize = -20000 // 20MB
	busyTimeout      = 5000   // milliseconds
)

// Entry is one completed download.
type Entry struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Quality      string    `json:"quality"`
	Path         string    `json:"path"`
	Bytes        int64     `json:"bytes"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// History is the sqlite-backed download log.
type History struct {
	db       *sql.DB
	insertPS *sql.Stmt
	listPS   *sql.Stmt
}

// Open creates (or opens) the history database at dbPath.
func Open(dbPath string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	// Windows paths need forward slashes inside the sqlite URI.
	path := dbPath
	if runtime.GOOS == "windows" {
		path = strings.ReplaceAll(path, "\\", "/")
	}
	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_cache_size=%d",
		path, busyTimeout, defaultCacheSize,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS downloads (
			video_id      TEXT NOT NULL,
			title         TEXT NOT NULL,
			quality       TEXT NOT NULL,
			path          TEXT NOT NULL,
			bytes         INTEGER NOT NULL,
			downloaded_at TIMESTAMP NOT NULL,
			PRIMARY KEY (video_id, quality)
		)`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create downloads table")
	}

	insertPS, err := db.Prepare(`
		INSERT INTO downloads (video_id, title, quality, path, bytes, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id, quality) DO UPDATE SET
			title = excluded.title,
			path = excluded.path,
			bytes = excluded.bytes,
			downloaded_at = excluded.downloaded_at`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to prepare insert")
	}

	listPS, err := db.Prepare(`
		SELECT video_id, title, quality, path, bytes, downloaded_at
		FROM downloads ORDER BY downloaded_at DESC`)
	if err != nil {
		_ = insertPS.Close()
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to prepare list")
	}

	return &History{db: db, insertPS: insertPS, listPS: listPS}, nil
}

// Record upserts one completed download.
func (h *History) Record(e Entry) error {
	if e.DownloadedAt.IsZero() {
		e.DownloadedAt = time.Now()
	}
	_, err := h.insertPS.Exec(e.VideoID, e.Title, e.Quality, e.Path, e.Bytes, e.DownloadedAt)
	return errors.Wrap(err, "failed to record download")
}

// All returns the history, most recent first.
func (h *History) All() ([]Entry, error) {
	rows, err := h.listPS.Query()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query history")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.VideoID, &e.Title, &e.Quality, &e.Path, &e.Bytes, &e.DownloadedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan history row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the prepared statements and the database handle.
func (h *History) Close() error {
	_ = h.insertPS.Close()
	_ = h.listPS.Close()
	return h.db.Close()
}
