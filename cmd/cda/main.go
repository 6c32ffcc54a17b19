package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Walendziak1912/CDA/internal/cli"
	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/Walendziak1912/CDA/internal/version"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitInterrupt = 130
)

func usage() {
	fmt.Fprintf(os.Stderr, `CDA Downloader v%s

Usage: cda [flags] <command>

Commands:
  download         download one video (-url)
  search           search for videos (-q)
  folder           list one folder page (-folder)
  folder-download  download a whole folder (-folder)
  files            list downloaded files
  history          show download history
  version          show version

Flags:
`, version.Version)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	var fl cli.Flags
	flag.StringVar(&fl.Login, "login", "", "CDA Premium login")
	flag.StringVar(&fl.Password, "password", "", "CDA Premium password")
	flag.StringVar(&fl.URL, "url", "", "video URL to download")
	flag.StringVar(&fl.Query, "q", "", "search query")
	flag.StringVar(&fl.FolderID, "folder", "", "folder id")
	flag.StringVar(&fl.Quality, "quality", "", "preferred quality (e.g. 1080, 720)")
	flag.StringVar(&fl.Dir, "dir", "", "destination directory override")
	flag.IntVar(&fl.Page, "page", 1, "result page")
	flag.IntVar(&fl.StartPage, "start-page", 1, "first folder page to download")
	flag.IntVar(&fl.EndPage, "end-page", 0, "last folder page to download (0 = all)")
	flag.BoolVar(&fl.PremiumOnly, "premium-only", false, "only premium videos")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Usage = usage
	flag.Parse()

	if *versionFlag || version.HasVersionArg() {
		version.ShowVersion()
		return exitOK
	}

	util.SetDebugMode(*debugFlag)
	util.InitLogger()

	command := flag.Arg(0)
	if command == "" {
		usage()
		return exitFailure
	}
	if command == "version" {
		version.ShowVersion()
		return exitOK
	}

	handler, err := cli.NewHandler(config.Default())
	if err != nil {
		util.Errorf("Startup failed: %v", err)
		return exitFailure
	}
	defer handler.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// An interrupted session is abandoned, never rolled back; the
	// logout below is best-effort and runs on a fresh context.
	defer func() {
		if handler.Auth().IsAuthenticated() {
			logoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := handler.Auth().Logout(logoutCtx); err != nil {
				util.Warnf("Logout failed: %v", err)
			}
		}
	}()

	if err := handler.Run(ctx, command, fl); err != nil {
		if ctx.Err() != nil {
			util.Warn("Cancelled by user")
			return exitInterrupt
		}
		if errs.IsFault(err) {
			util.Errorf("Error: %v", err)
		} else {
			util.Errorf("Unexpected error: %v", err)
		}
		return exitFailure
	}
	return exitOK
}
