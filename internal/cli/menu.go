package cli

import (
	"fmt"

	"github.com/Walendziak1912/CDA/internal/models"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	premiumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)
)

// promptCredentials asks for the login and password interactively when
// they were not supplied as flags.
func promptCredentials(login, password string) (string, string, error) {
	if login != "" && password != "" {
		return login, password, nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CDA Premium login").
				Value(&login).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("login cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password cannot be empty")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", "", errors.Wrap(err, "credential prompt aborted")
	}
	return login, password, nil
}

// selectRecord lets the user pick one listing record.
func selectRecord(records []models.ListingRecord) (*models.ListingRecord, error) {
	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string {
			label := records[i].Title
			if records[i].Premium {
				label += " [PREMIUM]"
			}
			return label
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 {
				return ""
			}
			r := records[i]
			return fmt.Sprintf("%s\n\nAuthor: %s\nDuration: %s\nViews: %s\n%s",
				r.Title, r.Author, r.Duration, r.Views, r.URL)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "selection aborted")
	}
	return &records[idx], nil
}

// confirmDownloadAll asks whether the whole listing should be
// downloaded or just one selected entry.
func confirmDownloadAll() (bool, error) {
	prompt := promptui.Select{
		Label: "What next",
		Items: []string{"Download one video", "Download all listed videos", "Nothing"},
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return false, errors.Wrap(err, "menu aborted")
	}
	if idx == 2 {
		return false, errAborted
	}
	return idx == 1, nil
}

var errAborted = errors.New("aborted by user")

func printRecords(records []models.ListingRecord) {
	for i, r := range records {
		tag := ""
		if r.Premium {
			tag = " " + premiumStyle.Render("[PREMIUM]")
		}
		fmt.Printf("%2d. %s%s\n", i+1, r.Title, tag)
	}
}
