// Package filestore keeps on-disk copies of attachment files. Attaching a
// file copies it under the store root, so the record stays readable even if
// the user later moves or deletes the original.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Subdirectories per parent event kind.
const (
	KindExams         = "exams"
	KindInterventions = "interventions"
)

// ErrSourceMissing is returned by Add when the file to attach does not exist.
var ErrSourceMissing = errors.New("source file does not exist")

// Store copies attachment files into a fixed hierarchy:
// {root}/{exams|interventions}/{patient key}/{event date}/{file name}.
type Store struct {
	root string
}

// New returns a store rooted at root (default "attachments").
func New(root string) *Store {
	if root == "" {
		root = "attachments"
	}
	return &Store{root: root}
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// Add copies the file at srcPath into the hierarchy for the given event kind,
// patient key (patient code, or the numeric id when no code is set) and event
// date, and returns the path of the stored copy. Name collisions within the
// target directory resolve by appending _1, _2, ... before the extension.
// The copy goes through a temporary file, so a failed copy leaves nothing
// behind.
func (s *Store) Add(kind, patientKey, eventDate, srcPath string) (string, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, srcPath)
		}
		return "", fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %s is a directory", srcPath)
	}

	if patientKey == "" {
		patientKey = "unknown"
	}
	if eventDate == "" {
		eventDate = "unknown_date"
	}

	dir := filepath.Join(s.root, kind, patientKey, eventDate)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}

	dest := uniquePath(dir, filepath.Base(srcPath))
	if err := copyFile(srcPath, dest); err != nil {
		return "", fmt.Errorf("copy attachment: %w", err)
	}
	return dest, nil
}

// Remove deletes a stored attachment copy. A file that is already gone is
// not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func uniquePath(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	dest := filepath.Join(dir, name)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}
}

// copyFile streams src to a temporary file next to dest, then renames it into
// place.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := filepath.Join(filepath.Dir(dest), ".tmp-"+uuid.NewString())
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
