package task

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

const fileExt = ".md"

// SanitizeTitle turns a title into the string used as its file name.
// Path-unsafe characters are stripped and whitespace runs collapse to one space.
func SanitizeTitle(title string) (string, error) {
	title = norm.NFC.String(title)
	var b strings.Builder
	for _, r := range title {
		switch {
		case strings.ContainsRune(`\/:*?"<>|#^[]`, r):
			continue
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	clean := strings.Join(strings.Fields(b.String()), " ")
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	}
	return clean, nil
}

// frontMatter is the on-disk metadata header of a task file.
type frontMatter struct {
	Status       Status     `yaml:"status"`
	Assignee     Assignee   `yaml:"assignee"`
	Priority     Priority   `yaml:"priority"`
	Project      string     `yaml:"project,omitempty"`
	DueDate      string     `yaml:"due_date,omitempty"`
	BlockedBy    string     `yaml:"blocked_by,omitempty"`
	FollowUpDate string     `yaml:"follow_up_date,omitempty"`
	CreatedAt    time.Time  `yaml:"created_at"`
	CompletedAt  *time.Time `yaml:"completed_at,omitempty"`
	Tags         []string   `yaml:"tags,omitempty"`
}

// Encode renders a task as front matter followed by its body.
func Encode(t *Task) ([]byte, error) {
	fm := frontMatter{
		Status:       t.Status,
		Assignee:     t.Assignee,
		Priority:     t.Priority,
		Project:      t.Project,
		DueDate:      t.DueDate,
		BlockedBy:    t.BlockedBy,
		FollowUpDate: t.FollowUpDate,
		CreatedAt:    t.CreatedAt.UTC(),
		Tags:         t.Tags,
	}
	if t.CompletedAt != nil {
		c := t.CompletedAt.UTC()
		fm.CompletedAt = &c
	}
	meta, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n")
	if body := strings.TrimSpace(t.Body); body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// Decode parses a task file. The title comes from the file name, not the content.
func Decode(title string, data []byte) (*Task, error) {
	meta, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, err
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	t := &Task{
		Title:        title,
		Status:       fm.Status,
		Assignee:     fm.Assignee,
		Priority:     fm.Priority,
		Project:      fm.Project,
		DueDate:      fm.DueDate,
		BlockedBy:    fm.BlockedBy,
		FollowUpDate: fm.FollowUpDate,
		CreatedAt:    fm.CreatedAt,
		CompletedAt:  fm.CompletedAt,
		Tags:         fm.Tags,
		Body:         strings.TrimSpace(body),
	}
	if t.Status == "" {
		t.Status = StatusBacklog
	}
	if t.Assignee == "" {
		t.Assignee = AssigneeMe
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return t, nil
}

// splitFrontMatter separates the YAML header from the body. A file without a
// header is treated as all body.
func splitFrontMatter(content string) (string, string, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}
	rest := strings.TrimPrefix(content, "---")
	rest = strings.TrimLeft(rest, "\r")
	if !strings.HasPrefix(rest, "\n") {
		return "", content, nil
	}
	rest = rest[1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		if strings.HasPrefix(rest, "---") {
			return "", strings.TrimPrefix(rest, "---"), nil
		}
		return "", "", fmt.Errorf("unterminated front matter")
	}
	meta := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return meta, body, nil
}
