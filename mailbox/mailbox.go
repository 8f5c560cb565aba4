// Package mailbox defines the mail collaborator used by follow-up tracking
// and inbox triage, plus the label taxonomy the agent maintains.
package mailbox

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Labels applied by the agent. Gmail shows the slash as nesting under "Agent".
const (
	LabelNeedsReply    = "Agent/Needs Reply"
	LabelAwaitingReply = "Agent/Awaiting Reply"
	LabelNeedsAction   = "Agent/Needs Action"
	LabelFYI           = "Agent/FYI"
	LabelTriaged       = "Agent/Triaged"
)

// System labels.
const (
	LabelInbox  = "INBOX"
	LabelUnread = "UNREAD"
)

// Labels is the full agent taxonomy, in display order.
var Labels = []string{LabelNeedsReply, LabelAwaitingReply, LabelNeedsAction, LabelFYI, LabelTriaged}

// ErrUnknownLabel is returned when a label name cannot be resolved.
var ErrUnknownLabel = errors.New("unknown label")

// ErrNotFound is returned by Read for a message id the mailbox does not hold.
var ErrNotFound = errors.New("message not found")

// Message is a mail message as seen by the agent.
type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Snippet  string    `json:"snippet,omitempty"`
	Body     string    `json:"body,omitempty"`
	Date     time.Time `json:"date"`
	Labels   []string  `json:"labels,omitempty"`
	// MessageIDHeader is the RFC 5322 Message-ID, used to thread replies.
	MessageIDHeader string `json:"message_id_header,omitempty"`
}

// DraftParams describes a reply draft. Drafts are never sent by the agent.
type DraftParams struct {
	To        string
	Subject   string
	Body      string
	ThreadID  string
	InReplyTo string
}

// Mailbox is the remote mail store. Search returns messages with headers
// populated; Read also fills in the body.
type Mailbox interface {
	Search(ctx context.Context, query string, limit int) ([]Message, error)
	Read(ctx context.Context, id string) (*Message, error)
	ApplyLabel(ctx context.Context, id, label string) error
	RemoveLabel(ctx context.Context, id, label string) error
	CreateDraft(ctx context.Context, p DraftParams) (string, error)
	EnsureLabels(ctx context.Context) error
}

// LabelQuery returns the search query matching messages that carry label.
// Gmail spells user label names in queries lower-cased with spaces and
// slashes turned into dashes.
func LabelQuery(label string) string {
	return "label:" + QueryName(label)
}

// QueryName is the search spelling of a label name.
func QueryName(label string) string {
	r := strings.NewReplacer(" ", "-", "/", "-")
	return strings.ToLower(r.Replace(label))
}

// UntriagedQuery matches unread inbox mail the agent has not triaged yet.
func UntriagedQuery() string {
	return "in:inbox is:unread -" + LabelQuery(LabelTriaged)
}

// ReplySubject prefixes subject with "Re: " unless it already has one.
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}
