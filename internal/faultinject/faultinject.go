// Package faultinject takes a storefront route down by moving its page file
// aside, and brings it back by moving the file back.
package faultinject

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BackupSuffix is appended to a page file while it is taken down.
const BackupSuffix = ".bak"

var (
	ErrBackupExists = errors.New("backup already exists")
	ErrNoBackup     = errors.New("no backup to restore")
	ErrPageMissing  = errors.New("page file not found")
	ErrInvalidPage  = errors.New("page must be a file name inside the pages directory")
)

// Fault is one page of a pages directory.
type Fault struct {
	Dir  string
	Page string
}

func New(dir, page string) (Fault, error) {
	if page == "" || page != filepath.Base(page) || strings.HasSuffix(page, BackupSuffix) {
		return Fault{}, fmt.Errorf("%w: %q", ErrInvalidPage, page)
	}
	return Fault{Dir: dir, Page: page}, nil
}

func (f Fault) Path() string { return filepath.Join(f.Dir, f.Page) }

func (f Fault) BackupPath() string { return f.Path() + BackupSuffix }

// Inject renames the page to its backup name. It refuses to overwrite an
// existing backup, which would lose the original page.
func (f Fault) Inject() error {
	if _, err := os.Stat(f.BackupPath()); err == nil {
		return fmt.Errorf("%w: %s", ErrBackupExists, f.BackupPath())
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check backup: %w", err)
	}
	if _, err := os.Stat(f.Path()); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrPageMissing, f.Path())
	} else if err != nil {
		return fmt.Errorf("failed to check page: %w", err)
	}
	if err := os.Rename(f.Path(), f.BackupPath()); err != nil {
		return fmt.Errorf("failed to move page aside: %w", err)
	}
	return nil
}

// Restore moves the backup back into place.
func (f Fault) Restore() error {
	if _, err := os.Stat(f.BackupPath()); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoBackup, f.BackupPath())
	} else if err != nil {
		return fmt.Errorf("failed to check backup: %w", err)
	}
	if err := os.Rename(f.BackupPath(), f.Path()); err != nil {
		return fmt.Errorf("failed to restore page: %w", err)
	}
	return nil
}

// Injected reports whether the page is currently taken down.
func (f Fault) Injected() (bool, error) {
	_, err := os.Stat(f.BackupPath())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check backup: %w", err)
	}
}
