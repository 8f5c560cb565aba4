package task

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// FileStore persists tasks as markdown files in a directory. Archived tasks
// are moved into a separate archive directory.
//
// There is no cache: every call reads the directory again, so a read always
// observes the previous write.
type FileStore struct {
	dir        string
	archiveDir string
	logger     *slog.Logger

	// Now returns the current time. Tests replace it for deterministic timestamps.
	Now func() time.Time
}

// NewFileStore returns a store over dir, archiving into archiveDir.
func NewFileStore(dir, archiveDir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		dir:        dir,
		archiveDir: archiveDir,
		logger:     logger,
		Now:        time.Now,
	}
}

// Dir returns the active task directory.
func (s *FileStore) Dir() string { return s.dir }

// ArchiveDir returns the archive directory.
func (s *FileStore) ArchiveDir() string { return s.archiveDir }

// Init creates the task and archive directories if they are missing.
func (s *FileStore) Init() error {
	for _, d := range []string{s.dir, s.archiveDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

func (s *FileStore) now() time.Time {
	return s.Now().UTC().Truncate(time.Second)
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Create writes a new task. Unset fields take their defaults: backlog, me, medium.
func (s *FileStore) Create(title string, f Fields) (*Task, error) {
	name, err := SanitizeTitle(title)
	if err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat task %s: %w", name, err)
	}

	t := &Task{
		Title:     name,
		Status:    StatusBacklog,
		Assignee:  AssigneeMe,
		Priority:  PriorityMedium,
		CreatedAt: s.now(),
	}
	f.apply(t)
	t.Body = strings.TrimSpace(t.Body)
	if t.Status == StatusDone {
		done := t.CreatedAt
		t.CompletedAt = &done
	}
	if err := s.write(t); err != nil {
		return nil, err
	}
	s.logger.Debug("task created", slog.String("title", t.Title), slog.String("status", string(t.Status)))
	return t, nil
}

// Get resolves id to a task: first by exact file name, then by
// case-insensitive title.
func (s *FileStore) Get(id string) (*Task, error) {
	name, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return s.read(name)
}

// List returns active tasks matching the filter, newest first.
func (s *FileStore) List(filter Filter) ([]*Task, error) {
	all, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(filter.Search)
	var out []*Task
	for _, t := range all {
		if filter.Assignee != "" && filter.Assignee != "all" && string(t.Assignee) != filter.Assignee {
			continue
		}
		switch filter.Status {
		case "", "all":
		case "active":
			if !IsActive(t.Status) {
				continue
			}
		default:
			if string(t.Status) != filter.Status {
				continue
			}
		}
		if filter.Project != "" && t.Project != filter.Project {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Body), search) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// All returns every task file in the active directory, unfiltered and unsorted.
func (s *FileStore) All() ([]*Task, error) {
	return s.loadAll()
}

// Update applies the non-nil fields to the task identified by id.
// A title change renames the file. Reaching done records completed_at once.
func (s *FileStore) Update(id string, f Fields) (*Task, Change, error) {
	if err := f.validate(); err != nil {
		return nil, Change{}, err
	}
	name, err := s.resolve(id)
	if err != nil {
		return nil, Change{}, err
	}
	t, err := s.read(name)
	if err != nil {
		return nil, Change{}, err
	}
	change := Change{OldTitle: t.Title, OldStatus: t.Status, OldDue: t.DueDate}

	if f.Title != nil {
		newName, err := SanitizeTitle(*f.Title)
		if err != nil {
			return nil, Change{}, err
		}
		if newName != name {
			if err := s.checkRename(name, newName); err != nil {
				return nil, Change{}, err
			}
			t.Title = newName
		}
	}
	f.apply(t)
	t.Body = strings.TrimSpace(t.Body)
	if t.Status == StatusDone && t.CompletedAt == nil {
		done := s.now()
		t.CompletedAt = &done
	}

	if err := s.write(t); err != nil {
		return nil, Change{}, err
	}
	// A case-only rename on a case-insensitive filesystem wrote over the
	// same file, so there is nothing left to remove.
	if t.Title != name && !s.samePath(name, t.Title) {
		if err := os.Remove(s.path(name)); err != nil {
			return nil, Change{}, fmt.Errorf("remove old task file: %w", err)
		}
	}
	s.logger.Debug("task updated", slog.String("title", t.Title), slog.String("status", string(t.Status)))
	return t, change, nil
}

// checkRename fails when newName already names another task file. Only a
// path that resolves to the old file itself, as a case-only rename does on a
// case-insensitive filesystem, is allowed through.
func (s *FileStore) checkRename(name, newName string) error {
	if _, err := os.Stat(s.path(newName)); err != nil {
		return nil
	}
	if s.samePath(name, newName) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAlreadyExists, newName)
}

func (s *FileStore) samePath(a, b string) bool {
	ai, err := os.Stat(s.path(a))
	if err != nil {
		return false
	}
	bi, err := os.Stat(s.path(b))
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// Complete marks the task done.
func (s *FileStore) Complete(id string) (*Task, Change, error) {
	done := StatusDone
	return s.Update(id, Fields{Status: &done})
}

// Archive sets the status to archived and moves the file into the archive
// directory. The returned task carries the archived status.
func (s *FileStore) Archive(id string) (*Task, error) {
	name, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	t, err := s.read(name)
	if err != nil {
		return nil, err
	}
	t.Status = StatusArchived
	data, err := Encode(t)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	dst := filepath.Join(s.archiveDir, name+fileExt)
	if err := atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write archived task: %w", err)
	}
	if err := os.Remove(s.path(name)); err != nil {
		return nil, fmt.Errorf("remove archived task source: %w", err)
	}
	s.logger.Debug("task archived", slog.String("title", name), slog.String("path", dst))
	return t, nil
}

// Delete permanently removes the task file and returns its resolved title.
func (s *FileStore) Delete(id string) (string, error) {
	name, err := s.resolve(id)
	if err != nil {
		return "", err
	}
	if err := os.Remove(s.path(name)); err != nil {
		return "", fmt.Errorf("delete task %s: %w", name, err)
	}
	s.logger.Debug("task deleted", slog.String("title", name))
	return name, nil
}

// Archived returns the tasks in the archive directory.
func (s *FileStore) Archived() ([]*Task, error) {
	return loadDir(s.archiveDir, s.logger)
}

func (s *FileStore) write(t *Task) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(s.path(t.Title), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write task %s: %w", t.Title, err)
	}
	return nil
}

func (s *FileStore) read(name string) (*Task, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read task %s: %w", name, err)
	}
	t, err := Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("decode task %s: %w", name, err)
	}
	return t, nil
}

// resolve maps a task id to an existing file name.
func (s *FileStore) resolve(id string) (string, error) {
	if name, err := SanitizeTitle(id); err == nil {
		if _, err := os.Stat(s.path(name)); err == nil {
			return name, nil
		}
	}
	names, err := s.names()
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if strings.EqualFold(name, strings.TrimSpace(id)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *FileStore) names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	return names, nil
}

func (s *FileStore) loadAll() ([]*Task, error) {
	return loadDir(s.dir, s.logger)
}

// loadDir decodes every task file in dir. Files that fail to decode are
// skipped with a warning so one bad file does not hide the rest.
func loadDir(dir string, logger *slog.Logger) ([]*Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task dir: %w", err)
	}
	var tasks []*Task
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileExt)
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read task %s: %w", name, err)
		}
		t, err := Decode(name, data)
		if err != nil {
			logger.Warn("skipping unreadable task file", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
