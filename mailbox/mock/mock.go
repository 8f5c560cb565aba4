// Package mock provides an in-memory Mailbox for tests and dry runs.
package mock

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/GoCodeAlone/deskmate/mailbox"
)

// Mailbox holds messages in memory. Search understands the query terms
// produced by the mailbox package: label:, -label:, in:inbox and is:unread.
type Mailbox struct {
	mu       sync.Mutex
	messages map[string]*mailbox.Message
	labels   map[string]bool
	Drafts   []mailbox.DraftParams
	Searches []string
}

// New returns a mailbox seeded with msgs.
func New(msgs ...mailbox.Message) *Mailbox {
	m := &Mailbox{
		messages: make(map[string]*mailbox.Message),
		labels:   map[string]bool{mailbox.LabelInbox: true, mailbox.LabelUnread: true},
	}
	for _, msg := range msgs {
		m.Add(msg)
	}
	return m
}

// Add stores a copy of msg.
func (m *Mailbox) Add(msg mailbox.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := msg
	cp.Labels = slices.Clone(msg.Labels)
	m.messages[msg.ID] = &cp
}

// Labels returns the labels currently on message id.
func (m *Mailbox) Labels(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok {
		return slices.Clone(msg.Labels)
	}
	return nil
}

func (m *Mailbox) Search(_ context.Context, query string, limit int) ([]mailbox.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)
	var out []mailbox.Message
	for _, msg := range m.messages {
		if matches(msg, query) {
			cp := *msg
			cp.Body = ""
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(msg *mailbox.Message, query string) bool {
	has := func(name string) bool {
		for _, l := range msg.Labels {
			if mailbox.QueryName(l) == name {
				return true
			}
		}
		return false
	}
	for _, term := range strings.Fields(query) {
		switch {
		case term == "in:inbox":
			if !has("inbox") {
				return false
			}
		case term == "is:unread":
			if !has("unread") {
				return false
			}
		case strings.HasPrefix(term, "-label:"):
			if has(strings.TrimPrefix(term, "-label:")) {
				return false
			}
		case strings.HasPrefix(term, "label:"):
			if !has(strings.TrimPrefix(term, "label:")) {
				return false
			}
		}
	}
	return true
}

func (m *Mailbox) Read(_ context.Context, id string) (*mailbox.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", mailbox.ErrNotFound, id)
	}
	cp := *msg
	cp.Labels = slices.Clone(msg.Labels)
	return &cp, nil
}

func (m *Mailbox) ApplyLabel(_ context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.labels[label] {
		return fmt.Errorf("%w: %s", mailbox.ErrUnknownLabel, label)
	}
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("%w: %s", mailbox.ErrNotFound, id)
	}
	if !slices.Contains(msg.Labels, label) {
		msg.Labels = append(msg.Labels, label)
	}
	return nil
}

func (m *Mailbox) RemoveLabel(_ context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("%w: %s", mailbox.ErrNotFound, id)
	}
	msg.Labels = slices.DeleteFunc(msg.Labels, func(l string) bool { return l == label })
	return nil
}

func (m *Mailbox) CreateDraft(_ context.Context, p mailbox.DraftParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Drafts = append(m.Drafts, p)
	return fmt.Sprintf("draft-%d", len(m.Drafts)), nil
}

func (m *Mailbox) EnsureLabels(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range mailbox.Labels {
		m.labels[l] = true
	}
	return nil
}
