// Package followup derives the follow-up tracking file from mailbox labels.
//
// The file is a snapshot: every refresh recomputes it from the label queries
// and overwrites it whole. Check-offs and edits made in the file are lost on
// the next refresh.
package followup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/GoCodeAlone/deskmate/mailbox"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Type classifies a follow-up.
type Type string

const (
	NeedsReply    Type = "needs_reply"
	AwaitingReply Type = "awaiting_reply"
	NeedsAction   Type = "needs_action"
)

// Types in rendering order.
var Types = []Type{NeedsReply, AwaitingReply, NeedsAction}

// Threshold is the age in days after which a follow-up of the type is overdue.
func Threshold(t Type) int {
	switch t {
	case NeedsReply:
		return 1
	case AwaitingReply:
		return 3
	default:
		return 2
	}
}

// Heading is the section title for a type.
func Heading(t Type) string {
	switch t {
	case NeedsReply:
		return "Needs Reply"
	case AwaitingReply:
		return "Awaiting Reply"
	default:
		return "Needs Action"
	}
}

// OverdueMarker is appended to overdue lines and counted by ParseSummary.
const OverdueMarker = "**OVERDUE**"

// Record is one derived follow-up.
type Record struct {
	Type         Type      `json:"type"`
	Subject      string    `json:"subject"`
	Counterparty string    `json:"counterparty"`
	MessageID    string    `json:"message_id"`
	ThreadID     string    `json:"thread_id"`
	Date         time.Time `json:"date"`
	DaysAge      int       `json:"days_age"`
	Overdue      bool      `json:"overdue"`
}

// DaysAge is the number of whole days between date and now, never negative.
func DaysAge(date, now time.Time) int {
	d := now.Sub(date)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// NewRecord derives a record from a message. The counterparty is the
// recipient for awaiting replies and the sender otherwise.
func NewRecord(typ Type, m mailbox.Message, now time.Time) Record {
	who := m.From
	if typ == AwaitingReply {
		who = m.To
	}
	days := DaysAge(m.Date, now)
	return Record{
		Type:         typ,
		Subject:      m.Subject,
		Counterparty: who,
		MessageID:    m.ID,
		ThreadID:     m.ThreadID,
		Date:         m.Date,
		DaysAge:      days,
		Overdue:      days > Threshold(typ),
	}
}

// Deriver refreshes the tracking file from the mailbox.
type Deriver struct {
	mb     mailbox.Mailbox
	path   string
	logger *slog.Logger

	// Limit caps each label query.
	Limit int
	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// NewDeriver returns a deriver writing to path.
func NewDeriver(mb mailbox.Mailbox, path string, logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deriver{mb: mb, path: path, logger: logger, Limit: 50, Now: time.Now}
}

// Path returns the tracking file location.
func (d *Deriver) Path() string { return d.path }

// Refresh queries the needs-reply and awaiting-reply labels one after the
// other, rewrites the tracking file and returns the records.
func (d *Deriver) Refresh(ctx context.Context) ([]Record, error) {
	now := d.Now().UTC()
	var records []Record
	for _, q := range []struct {
		typ   Type
		label string
	}{
		{NeedsReply, mailbox.LabelNeedsReply},
		{AwaitingReply, mailbox.LabelAwaitingReply},
	} {
		msgs, err := d.mb.Search(ctx, mailbox.LabelQuery(q.label), d.Limit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", q.label, err)
		}
		for _, m := range msgs {
			records = append(records, NewRecord(q.typ, m, now))
		}
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return nil, fmt.Errorf("create follow-ups dir: %w", err)
	}
	if err := atomic.WriteFile(d.path, strings.NewReader(Render(records, now))); err != nil {
		return nil, fmt.Errorf("write follow-ups: %w", err)
	}
	overdue := 0
	for _, r := range records {
		if r.Overdue {
			overdue++
		}
	}
	d.logger.Info("follow-ups refreshed", slog.Int("records", len(records)), slog.Int("overdue", overdue))
	return records, nil
}

type header struct {
	Updated time.Time `yaml:"updated"`
}

// Render produces the tracking file: an updated timestamp header, then the
// three sections in fixed order, oldest message first within each.
func Render(records []Record, now time.Time) string {
	var sb strings.Builder
	// header holds a single time.Time, which always marshals.
	meta, _ := yaml.Marshal(header{Updated: now.UTC().Truncate(time.Second)})
	sb.WriteString("---\n")
	sb.Write(meta)
	sb.WriteString("---\n")

	byType := make(map[Type][]Record)
	for _, r := range records {
		byType[r.Type] = append(byType[r.Type], r)
	}
	for _, typ := range Types {
		sb.WriteString("\n## " + Heading(typ) + "\n\n")
		rs := byType[typ]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Date.Before(rs[j].Date) })
		for _, r := range rs {
			sb.WriteString(formatLine(r))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// oneLine collapses runs of whitespace, line breaks included, to one space.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func formatLine(r Record) string {
	subject := oneLine(r.Subject)
	if subject == "" {
		subject = "(no subject)"
	}
	prep := "from"
	if r.Type == AwaitingReply {
		prep = "to"
	}
	line := "- [ ] " + subject + " (" + prep + " " + oneLine(r.Counterparty) + ", " + strconv.Itoa(r.DaysAge) + "d)"
	if r.Overdue {
		line += " " + OverdueMarker
	}
	return line
}
