// Package project stores lightweight project notes that tasks refer to by name.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/natefinch/atomic"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Status is the state of a project.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusDone   Status = "done"
)

var (
	ErrNotFound      = errors.New("project not found")
	ErrAlreadyExists = errors.New("project already exists")
	ErrInvalidName   = errors.New("invalid project name")
)

// Project is a named grouping of tasks.
type Project struct {
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type frontMatter struct {
	Name      string    `yaml:"name"`
	Status    Status    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Slug derives the file name for a project name: accents are folded,
// letters lower-cased and every other run of characters becomes one dash.
func Slug(name string) (string, error) {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", name, err)
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return slug, nil
}

// Store keeps one markdown file per project in a directory.
type Store struct {
	dir    string
	logger *slog.Logger
	Now    func() time.Time
}

// NewStore returns a project store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger, Now: time.Now}
}

// Create writes a new active project.
func (s *Store) Create(name, description string) (*Project, error) {
	name = strings.TrimSpace(name)
	slug, err := Slug(name)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, slug+".md")
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, slug)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	p := &Project{
		Name:        name,
		Slug:        slug,
		Status:      StatusActive,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.Now().UTC().Truncate(time.Second),
	}
	meta, err := yaml.Marshal(&frontMatter{Name: p.Name, Status: p.Status, CreatedAt: p.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n# ")
	buf.WriteString(p.Name)
	buf.WriteString("\n")
	if p.Description != "" {
		buf.WriteString("\n")
		buf.WriteString(p.Description)
		buf.WriteString("\n")
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return nil, fmt.Errorf("write project: %w", err)
	}
	s.logger.Debug("project created", slog.String("slug", slug))
	return p, nil
}

// List returns all projects sorted by name. Status filters when non-empty
// and not "all".
func (s *Store) List(status string) ([]*Project, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read project dir: %w", err)
	}
	var out []*Project
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		p, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable project", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		if status != "" && status != "all" && string(p.Status) != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Get loads a project by name or slug.
func (s *Store) Get(name string) (*Project, error) {
	slug, err := Slug(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	p, err := s.read(filepath.Join(s.dir, slug+".md"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, err
}

func (s *Store) read(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	slug := strings.TrimSuffix(filepath.Base(path), ".md")
	p := &Project{Slug: slug, Name: slug, Status: StatusActive}
	text := string(data)
	if strings.HasPrefix(text, "---\n") {
		rest := text[len("---\n"):]
		end := strings.Index(rest, "\n---")
		if end < 0 {
			return nil, fmt.Errorf("unterminated front matter in %s", path)
		}
		var fm frontMatter
		if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
			return nil, fmt.Errorf("parse project %s: %w", path, err)
		}
		if fm.Name != "" {
			p.Name = fm.Name
		}
		if fm.Status != "" {
			p.Status = fm.Status
		}
		p.CreatedAt = fm.CreatedAt
		text = rest[end+len("\n---"):]
	}
	p.Description = description(text, p.Name)
	return p, nil
}

// description drops the title heading written by Create.
func description(body, name string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "# "+name)
	return strings.TrimSpace(body)
}
