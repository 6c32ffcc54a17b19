// Package files provides the filesystem bookkeeping collaborator:
// listing, renaming, moving and deleting already-downloaded files.
package files

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/util"
	"github.com/pkg/errors"
)

// Details describes one file in the download directory.
type Details struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}

// Manager operates on the download directory.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir, creating it if missing.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, &errs.StorageError{Path: dir, Err: err}
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the managed directory.
func (m *Manager) Dir() string { return m.dir }

// List returns the files in the download directory, sorted by name.
// With a non-empty glob pattern only matching names are returned.
func (m *Manager) List(pattern string) ([]Details, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, &errs.StorageError{Path: m.dir, Err: err}
	}

	var files []Details
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern != "" {
			ok, err := filepath.Match(pattern, entry.Name())
			if err != nil {
				return nil, &errs.StorageError{Path: m.dir, Err: errors.Wrap(err, "bad pattern")}
			}
			if !ok {
				continue
			}
		}
		info, err := entry.Info()
		if err != nil {
			util.Warnf("Skipping %s: %v", entry.Name(), err)
			continue
		}
		files = append(files, Details{
			Name:     entry.Name(),
			Path:     filepath.Join(m.dir, entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Delete removes a file from the download directory.
func (m *Manager) Delete(name string) error {
	path := filepath.Join(m.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return &errs.StorageError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &errs.StorageError{Path: path, Err: errors.New("not a file")}
	}
	if err := os.Remove(path); err != nil {
		return &errs.StorageError{Path: path, Err: err}
	}
	util.Infof("Deleted %s", path)
	return nil
}

// Rename changes a file's name within the download directory.
func (m *Manager) Rename(name, newName string) (string, error) {
	oldPath := filepath.Join(m.dir, name)
	newPath := filepath.Join(m.dir, newName)
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", &errs.StorageError{Path: oldPath, Err: err}
	}
	util.Infof("Renamed %s -> %s", oldPath, newPath)
	return newPath, nil
}

// Move relocates a file to an arbitrary destination path, creating the
// destination directory when needed.
func (m *Manager) Move(name, destPath string) (string, error) {
	srcPath := filepath.Join(m.dir, name)
	if err := os.MkdirAll(filepath.Dir(destPath), 0700); err != nil {
		return "", &errs.StorageError{Path: destPath, Err: err}
	}
	if err := os.Rename(srcPath, destPath); err != nil {
		return "", &errs.StorageError{Path: srcPath, Err: err}
	}
	util.Infof("Moved %s -> %s", srcPath, destPath)
	return destPath, nil
}

// Stat returns details for a single file by name.
func (m *Manager) Stat(name string) (Details, error) {
	path := filepath.Join(m.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return Details{}, &errs.StorageError{Path: path, Err: err}
	}
	if info.IsDir() {
		return Details{}, &errs.StorageError{Path: path, Err: errors.New("not a file")}
	}
	return Details{
		Name:     info.Name(),
		Path:     path,
		Size:     info.Size(),
		Modified: info.ModTime(),
	}, nil
}
