package triage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GoCodeAlone/deskmate/mailbox"
)

// Category is the triage outcome for one message.
type Category string

const (
	CategoryNeedsReply  Category = "needs_reply"
	CategoryNeedsAction Category = "needs_action"
	CategoryFYI         Category = "fyi"
)

// Label returns the mailbox label for c.
func (c Category) Label() string {
	switch c {
	case CategoryNeedsReply:
		return mailbox.LabelNeedsReply
	case CategoryNeedsAction:
		return mailbox.LabelNeedsAction
	default:
		return mailbox.LabelFYI
	}
}

func normalizeCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryNeedsReply, CategoryNeedsAction, CategoryFYI:
		return c
	default:
		return CategoryFYI
	}
}

// Categorization is one classifier verdict.
type Categorization struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	Summary        string   `json:"summary,omitempty"`
	SuggestedReply string   `json:"suggested_reply,omitempty"`
}

type rawCategorization struct {
	ID             string `json:"id"`
	MessageID      string `json:"message_id"`
	Category       string `json:"category"`
	Summary        string `json:"summary"`
	SuggestedReply string `json:"suggested_reply"`
}

// ParseCategorizations extracts verdicts from classifier output. It takes
// the text between the first '[' and the last ']' as a JSON array. Entries
// that do not decode or name an id outside known are dropped; unknown
// categories become fyi. A nil known accepts any non-empty id. It never
// fails: unusable output yields an empty result.
func ParseCategorizations(raw string, known map[string]bool) []Categorization {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil
	}
	var out []Categorization
	seen := make(map[string]bool)
	for _, item := range items {
		var rc rawCategorization
		if err := json.Unmarshal(item, &rc); err != nil {
			continue
		}
		id := strings.TrimSpace(rc.ID)
		if id == "" {
			id = strings.TrimSpace(rc.MessageID)
		}
		if id == "" || seen[id] || (known != nil && !known[id]) {
			continue
		}
		seen[id] = true
		out = append(out, Categorization{
			ID:             id,
			Category:       normalizeCategory(rc.Category),
			Summary:        strings.TrimSpace(rc.Summary),
			SuggestedReply: strings.TrimSpace(rc.SuggestedReply),
		})
	}
	return out
}

const maxBodyBytes = 4000

var markerRe = regexp.MustCompile(`(?i)<\s*(/?)\s*untrusted_email`)

// neutralize defuses anything in s that looks like an untrusted_email tag so
// message content cannot close the wrapper early.
func neutralize(s string) string {
	return markerRe.ReplaceAllString(s, "&lt;${1}untrusted_email")
}

// WrapUntrusted renders a message for the classifier inside an explicit
// untrusted-content block.
func WrapUntrusted(m *mailbox.Message) string {
	body := m.Body
	if len(body) > maxBodyBytes {
		cut := maxBodyBytes
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "\n[truncated]"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<untrusted_email id=%q>\n", m.ID)
	fmt.Fprintf(&sb, "From: %s\n", neutralize(m.From))
	fmt.Fprintf(&sb, "To: %s\n", neutralize(m.To))
	fmt.Fprintf(&sb, "Subject: %s\n", neutralize(m.Subject))
	if !m.Date.IsZero() {
		fmt.Fprintf(&sb, "Date: %s\n", m.Date.Format("2006-01-02 15:04 MST"))
	}
	sb.WriteString("\n")
	sb.WriteString(neutralize(strings.TrimSpace(body)))
	sb.WriteString("\n</untrusted_email>")
	return sb.String()
}
