// Package crawler walks paginated folder listings and downloads every
// item, isolating per-item failures from the crawl itself.
package crawler

import (
	"context"
	"time"

	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/downloader"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/Walendziak1912/CDA/internal/search"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/pkg/errors"
)

// Options bound one folder crawl.
type Options struct {
	FolderID    string
	Quality     string
	StartPage   int
	EndPage     int // 0 means crawl until an empty page
	PremiumOnly bool
	Dir         string // optional download-directory override for this crawl
}

// Crawler drives the search service and the downloader across result
// pages. Items are processed strictly in listing order, pages in
// strictly increasing order; nothing runs concurrently.
type Crawler struct {
	search *search.Service
	dl     *downloader.Downloader

	// Pacing between requests. Fixed, not adaptive: the site offers
	// no rate-limit signal to react to.
	itemDelay time.Duration
	pageDelay time.Duration
}

// New creates a crawler with the configured pacing delays.
func New(svc *search.Service, dl *downloader.Downloader, cfg *config.Config) *Crawler {
	return &Crawler{
		search:    svc,
		dl:        dl,
		itemDelay: cfg.ItemDelay,
		pageDelay: cfg.PageDelay,
	}
}

// DownloadFolder downloads every video in a folder, page by page. A
// page fetch failure aborts the crawl and returns the totals gathered
// so far; a single item's failure only increments Skipped.
func (c *Crawler) DownloadFolder(ctx context.Context, opts Options) (models.CrawlTotals, error) {
	if opts.StartPage < 1 {
		opts.StartPage = 1
	}

	var totals models.CrawlTotals
	err := c.dl.WithDir(opts.Dir, func() error {
		page := opts.StartPage
		for {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "crawl interrupted")
			}

			util.Infof("Fetching folder %s, page %d", opts.FolderID, page)
			records, err := c.search.Folder(ctx, opts.FolderID, page)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				util.Infof("No videos on page %d, crawl finished", page)
				return nil
			}

			if opts.PremiumOnly {
				var premium []models.ListingRecord
				for _, r := range records {
					if r.Premium {
						premium = append(premium, r)
					}
				}
				if dropped := len(records) - len(premium); dropped > 0 {
					util.Infof("Skipping %d non-premium videos on page %d", dropped, page)
					totals.Skipped += dropped
				}
				records = premium
			}

			downloaded, skipped, err := c.downloadAll(ctx, records, opts.Quality)
			totals.Downloaded += downloaded
			totals.Skipped += skipped
			if err != nil {
				return err
			}

			page++
			if opts.EndPage > 0 && page > opts.EndPage {
				util.Infof("Reached end page %d, crawl finished", opts.EndPage)
				return nil
			}
			c.sleep(ctx, c.pageDelay)
		}
	})

	util.Infof("Folder %s done: %d downloaded, %d skipped", opts.FolderID, totals.Downloaded, totals.Skipped)
	return totals, err
}

// DownloadAll downloads all listed records into the current download
// directory and reports (downloaded, skipped). A non-nil error means
// the batch was aborted by an authentication or unexpected failure.
func (c *Crawler) DownloadAll(ctx context.Context, records []models.ListingRecord, preferredQuality string) (int, int, error) {
	return c.downloadAll(ctx, records, preferredQuality)
}

func (c *Crawler) downloadAll(ctx context.Context, records []models.ListingRecord, preferredQuality string) (downloaded, skipped int, err error) {
	for i, record := range records {
		if ctx.Err() != nil {
			return downloaded, skipped, errors.Wrap(ctx.Err(), "batch interrupted")
		}

		util.Infof("Downloading %d/%d: %s", i+1, len(records), record.Title)
		if _, dlErr := c.dl.Download(ctx, record.URL, preferredQuality, nil); dlErr != nil {
			if !isItemFault(dlErr) {
				// Authentication failures are not "just this item";
				// they abort the whole crawl.
				return downloaded, skipped, dlErr
			}
			util.Errorf("Failed to download %q: %v", record.Title, dlErr)
			skipped++
		} else {
			downloaded++
		}

		if i < len(records)-1 {
			c.sleep(ctx, c.itemDelay)
		}
	}
	return downloaded, skipped, nil
}

// isItemFault reports whether the error is a per-item resolution or
// transfer failure, as opposed to one that should end the crawl.
func isItemFault(err error) bool {
	var infoErr *errs.VideoInfoError
	var transferErr *errs.TransferError
	var storageErr *errs.StorageError
	return errors.As(err, &infoErr) || errors.As(err, &transferErr) || errors.As(err, &storageErr)
}

func (c *Crawler) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
