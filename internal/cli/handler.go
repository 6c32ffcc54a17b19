// Package cli is the command/menu collaborator around the downloader
// core. It supplies credentials and targets, renders progress, and
// maps core faults onto process exit codes.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Walendziak1912/CDA/internal/auth"
	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/crawler"
	"github.com/Walendziak1912/CDA/internal/downloader"
	"github.com/Walendziak1912/CDA/internal/files"
	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/Walendziak1912/CDA/internal/search"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/Walendziak1912/CDA/internal/tracking"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/Walendziak1912/CDA/internal/video"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh/spinner"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Flags carries everything the command line can supply.
type Flags struct {
	Login       string
	Password    string
	URL         string
	Query       string
	FolderID    string
	Quality     string
	Dir         string
	Page        int
	StartPage   int
	EndPage     int
	PremiumOnly bool
}

// Handler wires the core services together and executes one command.
type Handler struct {
	cfg     *config.Config
	auth    *auth.Authenticator
	search  *search.Service
	dl      *downloader.Downloader
	crawler *crawler.Crawler
	history *tracking.History
}

// NewHandler builds the full pipeline over a single shared session.
func NewHandler(cfg *config.Config) (*Handler, error) {
	sess, err := session.New(cfg)
	if err != nil {
		return nil, err
	}

	resolver := video.NewResolver(sess, cfg)
	dl := downloader.New(sess, resolver, cfg)
	svc := search.NewService(sess, cfg)

	h := &Handler{
		cfg:     cfg,
		auth:    auth.New(sess, cfg),
		search:  svc,
		dl:      dl,
		crawler: crawler.New(svc, dl, cfg),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		history, histErr := tracking.Open(filepath.Join(home, ".local", "cda", "history.db"))
		if histErr != nil {
			util.Warnf("Download history unavailable: %v", histErr)
		} else {
			h.history = history
			dl.SetHistory(history)
		}
	}

	return h, nil
}

// Auth exposes the authenticator for the top-level deferred logout.
func (h *Handler) Auth() *auth.Authenticator { return h.auth }

// Close releases the handler's resources.
func (h *Handler) Close() {
	if h.history != nil {
		_ = h.history.Close()
	}
}

// Run executes one command. Every returned error is a core fault or a
// user abort; main maps them to exit codes.
func (h *Handler) Run(ctx context.Context, command string, fl Flags) error {
	switch command {
	case "download":
		return h.handleDownload(ctx, fl)
	case "search":
		return h.handleSearch(ctx, fl)
	case "folder":
		return h.handleFolder(ctx, fl)
	case "folder-download":
		return h.handleFolderDownload(ctx, fl)
	case "files":
		return h.handleFiles(fl)
	case "history":
		return h.handleHistory()
	default:
		return errors.Errorf("unknown command: %s", command)
	}
}

func (h *Handler) login(ctx context.Context, fl Flags) error {
	login, password, err := promptCredentials(fl.Login, fl.Password)
	if err != nil {
		return err
	}
	ok, err := h.auth.Login(ctx, login, password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("login failed, check your credentials")
	}
	return nil
}

func (h *Handler) handleDownload(ctx context.Context, fl Flags) error {
	if fl.URL == "" {
		return errors.New("video url is required")
	}
	if err := h.login(ctx, fl); err != nil {
		return err
	}

	return h.dl.WithDir(fl.Dir, func() error {
		path, err := h.downloadWithProgress(ctx, fl.URL, fl.Quality)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Saved to: " + path))
		return nil
	})
}

func (h *Handler) handleSearch(ctx context.Context, fl Flags) error {
	if fl.Query == "" {
		return errors.New("search query is required")
	}
	if err := h.login(ctx, fl); err != nil {
		return err
	}

	page := fl.Page
	if page < 1 {
		page = 1
	}

	var records []models.ListingRecord
	var searchErr error
	_ = spinner.New().
		Title("Searching...").
		Type(spinner.Dots).
		Action(func() {
			records, searchErr = h.search.Search(ctx, fl.Query, fl.PremiumOnly, page)
		}).
		Run()
	if searchErr != nil {
		return searchErr
	}
	if len(records) == 0 {
		fmt.Println("No results.")
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Results for %q (page %d):", fl.Query, page)))
	printRecords(records)

	return h.dispatchSelection(ctx, records, fl)
}

func (h *Handler) handleFolder(ctx context.Context, fl Flags) error {
	if fl.FolderID == "" {
		return errors.New("folder id is required")
	}
	if err := h.login(ctx, fl); err != nil {
		return err
	}

	page := fl.Page
	if page < 1 {
		page = 1
	}
	records, err := h.search.Folder(ctx, fl.FolderID, page)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("Folder page is empty.")
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Folder %s (page %d):", fl.FolderID, page)))
	printRecords(records)

	return h.dispatchSelection(ctx, records, fl)
}

// dispatchSelection lets the user download one record or the whole
// listing.
func (h *Handler) dispatchSelection(ctx context.Context, records []models.ListingRecord, fl Flags) error {
	all, err := confirmDownloadAll()
	if err != nil {
		if errors.Is(err, errAborted) {
			return nil
		}
		return err
	}

	if all {
		return h.dl.WithDir(fl.Dir, func() error {
			downloaded, skipped, err := h.crawler.DownloadAll(ctx, records, fl.Quality)
			fmt.Printf("Downloaded %d, skipped %d\n", downloaded, skipped)
			return err
		})
	}

	record, err := selectRecord(records)
	if err != nil {
		return err
	}
	return h.dl.WithDir(fl.Dir, func() error {
		path, err := h.downloadWithProgress(ctx, record.URL, fl.Quality)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Saved to: " + path))
		return nil
	})
}

func (h *Handler) handleFolderDownload(ctx context.Context, fl Flags) error {
	if fl.FolderID == "" {
		return errors.New("folder id is required")
	}
	if err := h.login(ctx, fl); err != nil {
		return err
	}

	totals, err := h.crawler.DownloadFolder(ctx, crawler.Options{
		FolderID:    fl.FolderID,
		Quality:     fl.Quality,
		StartPage:   fl.StartPage,
		EndPage:     fl.EndPage,
		PremiumOnly: fl.PremiumOnly,
		Dir:         fl.Dir,
	})
	fmt.Printf("Folder done: %d downloaded, %d skipped\n", totals.Downloaded, totals.Skipped)
	return err
}

func (h *Handler) handleFiles(fl Flags) error {
	dir := fl.Dir
	if dir == "" {
		dir = h.cfg.DownloadDir
	}
	manager, err := files.NewManager(dir)
	if err != nil {
		return err
	}
	list, err := manager.List("")
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No downloaded files.")
		return nil
	}
	fmt.Println(titleStyle.Render("Downloaded files in " + dir + ":"))
	for _, f := range list {
		fmt.Printf("  %-60s %10s  %s\n", f.Name, humanize.Bytes(uint64(f.Size)), f.Modified.Format("2006-01-02 15:04"))
	}
	return nil
}

func (h *Handler) handleHistory() error {
	if h.history == nil {
		return errors.New("download history is unavailable")
	}
	entries, err := h.history.All()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No downloads recorded yet.")
		return nil
	}
	fmt.Println(titleStyle.Render("Download history:"))
	for _, e := range entries {
		fmt.Printf("  %s  %-50s %-8s %10s\n",
			e.DownloadedAt.Format("2006-01-02 15:04"), e.Title, e.Quality, humanize.Bytes(uint64(e.Bytes)))
	}
	return nil
}

// downloadWithProgress runs one download under a bubbletea progress
// bar. The transfer happens in a goroutine; the callback feeds the
// model through program messages.
func (h *Handler) downloadWithProgress(ctx context.Context, videoURL, preferredQuality string) (string, error) {
	m := newProgressModel()
	p := tea.NewProgram(m)

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		path, err := h.dl.Download(ctx, videoURL, preferredQuality, func(written, total int64) {
			p.Send(progressMsg{received: written, totalBytes: total})
		})

		if err == nil {
			p.Send(statusMsg("Download completed!"))
			time.Sleep(500 * time.Millisecond)
		} else {
			p.Send(statusMsg(errorStyle.Render(fmt.Sprintf("Download failed: %v", err))))
			time.Sleep(200 * time.Millisecond)
		}

		m.mu.Lock()
		m.done = true
		m.mu.Unlock()
		p.Quit()
		done <- result{path: path, err: err}
	}()

	if _, err := p.Run(); err != nil {
		return "", errors.Wrap(err, "progress display error")
	}

	res := <-done
	return res.path, res.err
}
