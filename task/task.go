// Package task defines the task model and its markdown file persistence.
//
// Each task lives in its own file named after its sanitized title. The file
// starts with a YAML front matter block holding the metadata and is followed
// by a free-form body.
package task

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusBacklog  Status = "backlog"
	StatusNext     Status = "next"
	StatusWorking  Status = "working"
	StatusBlocked  Status = "blocked"
	StatusDone     Status = "done"
	StatusArchived Status = "archived"
)

// Assignee identifies who is expected to act on a task.
type Assignee string

const (
	AssigneeMe        Assignee = "me"
	AssigneeAssistant Assignee = "assistant"
)

// Priority determines how urgently a task should be worked.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DateLayout is the layout used for due and follow-up dates.
const DateLayout = "2006-01-02"

var (
	ErrNotFound      = errors.New("task not found")
	ErrAlreadyExists = errors.New("task already exists")
	ErrInvalidTitle  = errors.New("invalid task title")
	ErrInvalidField  = errors.New("invalid task field")
)

// Task is a single unit of work stored as a markdown file.
type Task struct {
	Title        string     `json:"title"`
	Status       Status     `json:"status"`
	Assignee     Assignee   `json:"assignee"`
	Priority     Priority   `json:"priority"`
	Project      string     `json:"project,omitempty"`
	DueDate      string     `json:"due_date,omitempty"`
	BlockedBy    string     `json:"blocked_by,omitempty"`
	FollowUpDate string     `json:"follow_up_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Body         string     `json:"body,omitempty"`
}

// Fields is a partial set of task attributes. Nil fields are left unchanged
// on update and take their defaults on create.
type Fields struct {
	Title        *string
	Status       *Status
	Assignee     *Assignee
	Priority     *Priority
	Project      *string
	DueDate      *string
	BlockedBy    *string
	FollowUpDate *string
	Tags         []string
	Body         *string
}

// Filter controls which tasks are returned by List.
type Filter struct {
	// Assignee is an exact assignee or "all" / empty for any.
	Assignee string
	// Status is an exact status, "active" for working/next/blocked, or "all" / empty.
	Status  string
	Project string
	// Search is a case-insensitive substring matched against title and body.
	Search string
	Limit  int
}

// Change describes what an update did, so callers can mirror it elsewhere.
type Change struct {
	OldTitle  string
	OldStatus Status
	OldDue    string
}

// Renamed reports whether the update changed the task title.
func (c Change) Renamed(t *Task) bool { return c.OldTitle != t.Title }

// StatusChanged reports whether the update changed the task status.
func (c Change) StatusChanged(t *Task) bool { return c.OldStatus != t.Status }

// DueChanged reports whether the update changed the due date.
func (c Change) DueChanged(t *Task) bool { return c.OldDue != t.DueDate }

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusBacklog, StatusNext, StatusWorking, StatusBlocked, StatusDone, StatusArchived:
		return true
	}
	return false
}

// IsActive reports whether s belongs to the "active" filter group.
func IsActive(s Status) bool {
	return s == StatusWorking || s == StatusNext || s == StatusBlocked
}

// ValidAssignee reports whether a is a known assignee.
func ValidAssignee(a Assignee) bool {
	return a == AssigneeMe || a == AssigneeAssistant
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func validDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidField, s)
	}
	return nil
}

func (f Fields) validate() error {
	if f.Status != nil && !ValidStatus(*f.Status) {
		return fmt.Errorf("%w: status %q", ErrInvalidField, *f.Status)
	}
	if f.Status != nil && *f.Status == StatusArchived {
		return fmt.Errorf("%w: status archived is only set by archiving the task", ErrInvalidField)
	}
	if f.Assignee != nil && !ValidAssignee(*f.Assignee) {
		return fmt.Errorf("%w: assignee %q", ErrInvalidField, *f.Assignee)
	}
	if f.Priority != nil && !ValidPriority(*f.Priority) {
		return fmt.Errorf("%w: priority %q", ErrInvalidField, *f.Priority)
	}
	for _, d := range []*string{f.DueDate, f.FollowUpDate} {
		if d != nil {
			if err := validDate(*d); err != nil {
				return err
			}
		}
	}
	return nil
}

// apply copies every non-nil field onto t. Title is handled by the store.
func (f Fields) apply(t *Task) {
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.Assignee != nil {
		t.Assignee = *f.Assignee
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.Project != nil {
		t.Project = *f.Project
	}
	if f.DueDate != nil {
		t.DueDate = *f.DueDate
	}
	if f.BlockedBy != nil {
		t.BlockedBy = *f.BlockedBy
	}
	if f.FollowUpDate != nil {
		t.FollowUpDate = *f.FollowUpDate
	}
	if f.Tags != nil {
		t.Tags = dedupe(f.Tags)
	}
	if f.Body != nil {
		t.Body = *f.Body
	}
}

// dedupe keeps the first occurrence of every non-empty tag.
func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
