// Package config holds runtime configuration for the CDA downloader.
package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// BaseURL is the origin every relative link is resolved against.
	BaseURL  = "https://www.cda.pl"
	LoginURL = BaseURL + "/login"

	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config carries the knobs shared across the download pipeline.
type Config struct {
	BaseURL   string
	LoginURL  string
	UserAgent string

	// DownloadDir is where finished files land. Batch operations may
	// override it temporarily through Downloader.WithDir.
	DownloadDir string

	// ChunkSize is the read/write unit for streaming downloads.
	ChunkSize int

	// ItemDelay and PageDelay bound the request rate against the site.
	// Fixed delays on purpose: CDA gives no rate-limit signal to adapt to.
	ItemDelay time.Duration
	PageDelay time.Duration
}

// Default returns the configuration matching the production site.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		BaseURL:     BaseURL,
		LoginURL:    LoginURL,
		UserAgent:   UserAgent,
		DownloadDir: filepath.Join(cwd, "pobrane_filmy"),
		ChunkSize:   1024 * 1024,
		ItemDelay:   time.Second,
		PageDelay:   2 * time.Second,
	}
}
