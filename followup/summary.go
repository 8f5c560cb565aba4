package followup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Summary holds the counts recovered from a rendered tracking file.
type Summary struct {
	NeedsReply    int       `json:"needs_reply"`
	AwaitingReply int       `json:"awaiting_reply"`
	NeedsAction   int       `json:"needs_action"`
	Overdue       int       `json:"overdue"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Total is the number of open follow-ups.
func (s Summary) Total() int { return s.NeedsReply + s.AwaitingReply + s.NeedsAction }

// ReadSummary parses the tracking file at path. A missing file is an empty
// summary.
func ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("read follow-ups: %w", err)
	}
	return ParseSummary(string(data)), nil
}

// ParseSummary counts checkbox lines under each section heading and lines
// carrying the overdue marker. Only counts survive; records do not.
func ParseSummary(text string) Summary {
	var s Summary
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if rest, ok := strings.CutPrefix(text, "---\n"); ok {
		if meta, body, ok := strings.Cut(rest, "\n---"); ok {
			var h header
			if yaml.Unmarshal([]byte(meta), &h) == nil {
				s.UpdatedAt = h.Updated
			}
			text = body
		}
	}

	var section *int
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(trimmed, "## "); ok {
			switch strings.TrimSpace(name) {
			case Heading(NeedsReply):
				section = &s.NeedsReply
			case Heading(AwaitingReply):
				section = &s.AwaitingReply
			case Heading(NeedsAction):
				section = &s.NeedsAction
			default:
				section = nil
			}
			continue
		}
		if strings.Contains(line, OverdueMarker) {
			s.Overdue++
		}
		if section != nil && (strings.HasPrefix(trimmed, "- [ ]") || strings.HasPrefix(trimmed, "- [x]")) {
			*section++
		}
	}
	return s
}
