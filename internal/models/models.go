// Package models contains the data structures shared across the
// downloader pipeline.
package models

// ListingRecord is one parsed entry from a search or folder results
// page. Everything beyond Title and URL is best-effort.
type ListingRecord struct {
	Title     string
	URL       string
	Thumbnail string
	Duration  string
	Author    string
	Views     string
	Premium   bool
}

// VideoDescriptor is the fully resolved metadata for one video,
// including the quality label to direct URL mapping. A descriptor with
// an empty Qualities map is unusable.
type VideoDescriptor struct {
	Title       string
	ID          string
	Qualities   map[string]string
	Thumbnail   string
	Description string
	Author      string
	Duration    string
	Views       int
}

// DownloadTarget describes a single transfer in flight.
type DownloadTarget struct {
	URL       string
	Path      string
	TotalSize int64
}

// CrawlTotals accumulates the outcome of a multi-page crawl.
type CrawlTotals struct {
	Downloaded int
	Skipped    int
}
