// Package errs defines the error taxonomy of the downloader core.
//
// Every failure the pipeline can produce is one of the types below.
// They all satisfy Fault, so the CLI layer can distinguish "a known
// downloader condition" from a programming error with a single check.
package errs

import (
	"errors"
	"fmt"
)

// Fault is the common category for all downloader errors.
type Fault interface {
	error
	fault()
}

type baseFault struct{}

func (baseFault) fault() {}

// IsFault reports whether err (or anything it wraps) belongs to the
// downloader taxonomy.
func IsFault(err error) bool {
	var f Fault
	return errors.As(err, &f)
}

// TokenNotFoundError means no CSRF token could be located on the login
// page. Snippet carries the leading part of the markup for diagnostics.
type TokenNotFoundError struct {
	baseFault
	Snippet string
}

func (e *TokenNotFoundError) Error() string {
	return "csrf token not found on login page"
}

// AuthError is a transport failure or unexpected server response during
// login or logout.
type AuthError struct {
	baseFault
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication %s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthRequiredError means the requested content is gated behind a
// premium login and the session is anonymous.
type AuthRequiredError struct {
	baseFault
	Reason string
}

func (e *AuthRequiredError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Reason
}

// VideoInfoError means metadata or download links for a single video
// could not be resolved.
type VideoInfoError struct {
	baseFault
	URL    string
	Reason string
	Err    error
}

func (e *VideoInfoError) Error() string {
	msg := "video info"
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VideoInfoError) Unwrap() error { return e.Err }

// TransferError is a network failure while streaming the media file.
type TransferError struct {
	baseFault
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer from %s failed: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// StorageError is a local filesystem failure while writing or managing
// downloaded files.
type StorageError struct {
	baseFault
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error at %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SearchError means a whole listing page could not be fetched or
// parsed. Unlike per-item errors it aborts the surrounding crawl.
type SearchError struct {
	baseFault
	Page int
	Err  error
}

func (e *SearchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("search page %d failed: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("search failed: %v", e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
