package followup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoCodeAlone/deskmate/mailbox"
	"github.com/GoCodeAlone/deskmate/mailbox/mock"
)

var now = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * 24 * time.Hour) }

func TestNewRecord_Thresholds(t *testing.T) {
	cases := []struct {
		typ     Type
		days    int
		overdue bool
	}{
		{NeedsReply, 0, false},
		{NeedsReply, 1, false},
		{NeedsReply, 2, true},
		{AwaitingReply, 3, false},
		{AwaitingReply, 4, true},
		{NeedsAction, 2, false},
		{NeedsAction, 3, true},
	}
	for _, c := range cases {
		r := NewRecord(c.typ, mailbox.Message{Date: daysAgo(c.days)}, now)
		if r.DaysAge != c.days {
			t.Errorf("%s %dd: DaysAge = %d", c.typ, c.days, r.DaysAge)
		}
		if r.Overdue != c.overdue {
			t.Errorf("%s %dd: Overdue = %v, want %v", c.typ, c.days, r.Overdue, c.overdue)
		}
	}
}

func TestDaysAge_Floors(t *testing.T) {
	if got := DaysAge(now.Add(-47*time.Hour), now); got != 1 {
		t.Errorf("DaysAge(47h) = %d, want 1", got)
	}
	if got := DaysAge(now.Add(time.Hour), now); got != 0 {
		t.Errorf("DaysAge(future) = %d, want 0", got)
	}
}

func TestNewRecord_Counterparty(t *testing.T) {
	m := mailbox.Message{From: "ana@example.com", To: "me@example.com", Date: now}
	if got := NewRecord(NeedsReply, m, now).Counterparty; got != "ana@example.com" {
		t.Errorf("needs_reply counterparty = %q", got)
	}
	if got := NewRecord(AwaitingReply, m, now).Counterparty; got != "me@example.com" {
		t.Errorf("awaiting_reply counterparty = %q", got)
	}
}

func TestRender_SectionsAndSummary(t *testing.T) {
	records := []Record{
		{Type: NeedsReply, Subject: "Contract", Counterparty: "Ana", DaysAge: 2, Overdue: true, Date: daysAgo(2)},
		{Type: NeedsReply, Subject: "Lunch?", Counterparty: "Bo", DaysAge: 0, Date: now},
		{Type: AwaitingReply, Subject: "Invoice", Counterparty: "Acme", DaysAge: 1, Date: daysAgo(1)},
	}
	text := Render(records, now)

	iReply := strings.Index(text, "## Needs Reply")
	iAwait := strings.Index(text, "## Awaiting Reply")
	iAction := strings.Index(text, "## Needs Action")
	if iReply < 0 || iAwait < iReply || iAction < iAwait {
		t.Fatalf("sections out of order:\n%s", text)
	}
	if !strings.Contains(text, "- [ ] Contract (from Ana, 2d) **OVERDUE**") {
		t.Errorf("missing overdue line:\n%s", text)
	}
	if !strings.Contains(text, "- [ ] Invoice (to Acme, 1d)\n") {
		t.Errorf("missing awaiting line:\n%s", text)
	}

	s := ParseSummary(text)
	if s.NeedsReply != 2 || s.AwaitingReply != 1 || s.NeedsAction != 0 || s.Overdue != 1 {
		t.Errorf("ParseSummary = %+v, want 2/1/0 with 1 overdue", s)
	}
	if !s.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", s.UpdatedAt, now)
	}
}

func TestRender_FlattensLineBreaks(t *testing.T) {
	records := []Record{
		{Type: NeedsReply, Subject: "Hello\n## Needs Action\n- [ ] injected", Counterparty: "Eve\r\n- [ ] x", DaysAge: 1, Date: daysAgo(1)},
	}
	text := Render(records, now)
	if !strings.Contains(text, "- [ ] Hello ## Needs Action - [ ] injected (from Eve - [ ] x, 1d)\n") {
		t.Errorf("record not kept on one line:\n%s", text)
	}
	s := ParseSummary(text)
	if s.NeedsReply != 1 || s.AwaitingReply != 0 || s.NeedsAction != 0 {
		t.Errorf("ParseSummary = %+v, want 1/0/0", s)
	}
}

func TestParseSummary_OverdueMarkerOnly(t *testing.T) {
	records := []Record{
		{Type: NeedsReply, Subject: "Invoice OVERDUE", Counterparty: "Acme", DaysAge: 0, Date: now},
		{Type: AwaitingReply, Subject: "Quote", Counterparty: "Bo", DaysAge: 5, Overdue: true, Date: daysAgo(5)},
	}
	s := ParseSummary(Render(records, now))
	if s.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", s.Overdue)
	}
}

func TestReadSummary_MissingFile(t *testing.T) {
	s, err := ReadSummary(filepath.Join(t.TempDir(), "Follow-ups.md"))
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if s.Total() != 0 || s.Overdue != 0 {
		t.Errorf("ReadSummary = %+v, want zero", s)
	}
}

func TestDeriver_Refresh(t *testing.T) {
	mb := mock.New(
		mailbox.Message{ID: "1", ThreadID: "t1", From: "Ana", Subject: "Contract", Date: daysAgo(2),
			Labels: []string{mailbox.LabelInbox, mailbox.LabelNeedsReply}},
		mailbox.Message{ID: "2", ThreadID: "t2", To: "Acme", Subject: "Invoice", Date: daysAgo(5),
			Labels: []string{mailbox.LabelAwaitingReply}},
		mailbox.Message{ID: "3", Subject: "Newsletter", Date: daysAgo(9),
			Labels: []string{mailbox.LabelInbox}},
	)
	path := filepath.Join(t.TempDir(), "vault", "Follow-ups.md")
	d := NewDeriver(mb, path, nil)
	d.Now = func() time.Time { return now }

	records, err := d.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v, want 2", records)
	}
	if records[0].Type != NeedsReply || records[1].Type != AwaitingReply {
		t.Errorf("records out of query order: %+v", records)
	}
	if len(mb.Searches) != 2 || mb.Searches[0] != mailbox.LabelQuery(mailbox.LabelNeedsReply) {
		t.Errorf("searches = %v", mb.Searches)
	}

	s, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if s.NeedsReply != 1 || s.AwaitingReply != 1 || s.Overdue != 2 {
		t.Errorf("summary = %+v", s)
	}

	// A refresh overwrites manual edits.
	if err := os.WriteFile(path, []byte("scribbles\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "scribbles") {
		t.Error("refresh kept manual content")
	}
}
