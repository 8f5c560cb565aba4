package board

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/deskmate/task"
	"github.com/natefinch/atomic"
)

// File is the board document on disk. Every mutation re-reads the file,
// applies the change to the parsed structure and writes the whole board
// back, so edits made between calls are never overwritten with stale data
// from an earlier read.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile returns a File for the board at path.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Path returns the board file location.
func (f *File) Path() string { return f.path }

// Bootstrap writes an empty board with the default columns when the file
// does not exist yet. It is safe to call repeatedly.
func (f *File) Bootstrap() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat board: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}
	f.logger.Info("creating board", slog.String("path", f.path))
	return f.Save(New())
}

// Load parses the board file. A missing file yields an empty default board.
func (f *File) Load() (*Board, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read board: %w", err)
	}
	return Parse(string(data)), nil
}

// Save serializes and atomically writes b.
func (f *File) Save(b *Board) error {
	if err := atomic.WriteFile(f.path, strings.NewReader(b.Serialize())); err != nil {
		return fmt.Errorf("write board: %w", err)
	}
	return nil
}

// Text returns the raw board file contents.
func (f *File) Text() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("read board: %w", err)
	}
	return string(data), nil
}

// update runs a load, mutate, save cycle. The board is only written when
// mutate reports a change.
func (f *File) update(mutate func(b *Board) bool) (bool, error) {
	b, err := f.Load()
	if err != nil {
		return false, err
	}
	if !mutate(b) {
		return false, nil
	}
	if err := f.Save(b); err != nil {
		return false, err
	}
	return true, nil
}

// AddItem adds title to the column of status unless that column already
// holds it. It reports whether an item was added.
func (f *File) AddItem(title string, status task.Status, date string) (bool, error) {
	return f.update(func(b *Board) bool {
		return b.Add(title, status, date)
	})
}

// RemoveItem removes the first item titled title from whichever column holds it.
func (f *File) RemoveItem(title string) (bool, error) {
	return f.update(func(b *Board) bool {
		return b.Remove(title)
	})
}

// MoveItem removes the item and appends it to the column of status.
func (f *File) MoveItem(title string, status task.Status, date string) error {
	_, err := f.update(func(b *Board) bool {
		b.Move(title, status, date)
		return true
	})
	return err
}

// RenameItem changes an item title in place.
func (f *File) RenameItem(oldTitle, newTitle string) (bool, error) {
	return f.update(func(b *Board) bool {
		return b.Rename(oldTitle, newTitle)
	})
}

// RetagItem replaces the date tag of an item in place.
func (f *File) RetagItem(title, date string) (bool, error) {
	return f.update(func(b *Board) bool {
		return b.Retag(title, date)
	})
}
