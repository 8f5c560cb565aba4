package task

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Draft proposal", "Draft proposal"},
		{"  Fix:  login / signup?  ", "Fix login signup"},
		{"Q3 [[plan]] #draft", "Q3 plan draft"},
		{"tab\tand\nnewline", "tab and newline"},
		{"Café", "Café"},
	}
	for _, tc := range cases {
		got, err := SanitizeTitle(tc.in)
		if err != nil {
			t.Errorf("SanitizeTitle(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := SanitizeTitle(" ?*: "); err == nil {
		t.Error("expected error for title with no usable characters")
	}
}

func TestEncodeDecode(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	completed := created.Add(48 * time.Hour)
	in := &Task{
		Title:        "Draft proposal",
		Status:       StatusDone,
		Assignee:     AssigneeAssistant,
		Priority:     PriorityHigh,
		Project:      "Website",
		DueDate:      "2026-02-20",
		BlockedBy:    "design review",
		FollowUpDate: "2026-02-25",
		CreatedAt:    created,
		CompletedAt:  &completed,
		Tags:         []string{"writing"},
		Body:         "First paragraph.\n\nSecond paragraph.",
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("encoded task does not start with front matter:\n%s", data)
	}
	out, err := Decode(in.Title, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Status != in.Status || out.Assignee != in.Assignee || out.Priority != in.Priority {
		t.Errorf("enums = %q/%q/%q", out.Status, out.Assignee, out.Priority)
	}
	if out.Project != in.Project || out.DueDate != in.DueDate || out.BlockedBy != in.BlockedBy || out.FollowUpDate != in.FollowUpDate {
		t.Errorf("optional fields = %+v", out)
	}
	if !out.CreatedAt.Equal(created) || out.CompletedAt == nil || !out.CompletedAt.Equal(completed) {
		t.Errorf("timestamps = %v / %v", out.CreatedAt, out.CompletedAt)
	}
	if out.Body != in.Body {
		t.Errorf("Body = %q, want %q", out.Body, in.Body)
	}
}

func TestDecode_WithoutFrontMatter(t *testing.T) {
	got, err := Decode("Loose note", []byte("just some text\n"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Status != StatusBacklog || got.Assignee != AssigneeMe || got.Priority != PriorityMedium {
		t.Errorf("defaults = %q/%q/%q", got.Status, got.Assignee, got.Priority)
	}
	if got.Body != "just some text" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestDecode_Unterminated(t *testing.T) {
	if _, err := Decode("x", []byte("---\nstatus: next\n")); err == nil {
		t.Error("expected error for unterminated front matter")
	}
}
