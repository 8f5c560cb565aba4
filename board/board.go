// Package board reads and writes the Kanban board file.
//
// The board is a markdown document understood by the Obsidian Kanban plugin:
// a front matter header, one "## Column" heading per column, and one
// "- [ ] [[Title]] @{date}" checkbox line per item.
//
// Parsing is structural. Inside a column, any line that is not an item is
// dropped, so hand-written notes between items do not survive a rewrite.
// Column order, item order, completion flags and date tags do.
package board

import (
	"regexp"
	"strings"

	"github.com/GoCodeAlone/deskmate/task"
)

// Column names in their canonical order.
const (
	ColumnBacklog = "Backlog"
	ColumnNext    = "Next"
	ColumnWorking = "Working"
	ColumnBlocked = "Blocked"
	ColumnDone    = "Done"
)

// DefaultColumns is the column layout of a freshly created board.
var DefaultColumns = []string{ColumnBacklog, ColumnNext, ColumnWorking, ColumnBlocked, ColumnDone}

// Header is written at the top of every board file.
const Header = "---\n\nkanban-plugin: basic\n\n---\n"

// CompleteMarker follows the items of the Done column. The Kanban plugin
// uses it to render the column as the completed lane.
const CompleteMarker = "**Complete**"

var (
	columnRe = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	itemRe   = regexp.MustCompile(`^\s*[-*]\s+\[([ xX])\]\s+\[\[(.+?)\]\](?:\s+@\{([^}]*)\})?\s*$`)
)

// Item is a single card on the board.
type Item struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Date      string `json:"date,omitempty"`
}

// Column is a named, ordered list of items.
type Column struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Board is the parsed board document.
type Board struct {
	Columns []Column `json:"columns"`
}

// ColumnFor maps a task status to the column that displays it.
func ColumnFor(s task.Status) string {
	switch s {
	case task.StatusNext:
		return ColumnNext
	case task.StatusWorking:
		return ColumnWorking
	case task.StatusBlocked:
		return ColumnBlocked
	case task.StatusDone, task.StatusArchived:
		return ColumnDone
	default:
		return ColumnBacklog
	}
}

// New returns an empty board with the default columns.
func New() *Board {
	b := &Board{}
	for _, name := range DefaultColumns {
		b.Columns = append(b.Columns, Column{Name: name})
	}
	return b
}

// Parse reads board text. Lines before the first column heading and lines
// that match neither grammar are ignored.
func Parse(text string) *Board {
	b := &Board{}
	var cur *Column
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := columnRe.FindStringSubmatch(line); m != nil {
			b.Columns = append(b.Columns, Column{Name: m[1]})
			cur = &b.Columns[len(b.Columns)-1]
			continue
		}
		if cur == nil {
			continue
		}
		if m := itemRe.FindStringSubmatch(line); m != nil {
			cur.Items = append(cur.Items, Item{
				Title:     strings.TrimSpace(m[2]),
				Completed: m[1] != " ",
				Date:      strings.TrimSpace(m[3]),
			})
		}
	}
	return b
}

// Serialize renders the board deterministically.
func (b *Board) Serialize() string {
	var sb strings.Builder
	sb.WriteString(Header)
	for _, col := range b.Columns {
		sb.WriteString("\n## ")
		sb.WriteString(col.Name)
		sb.WriteString("\n\n")
		for _, it := range col.Items {
			sb.WriteString(formatItem(it))
			sb.WriteString("\n")
		}
		if col.Name == ColumnDone {
			if len(col.Items) > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(CompleteMarker)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatItem(it Item) string {
	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	line := "- " + box + " [[" + it.Title + "]]"
	if it.Date != "" {
		line += " @{" + it.Date + "}"
	}
	return line
}

// Find returns the column and item index of the first item titled title.
func (b *Board) Find(title string) (col, idx int, ok bool) {
	for ci, c := range b.Columns {
		for ii, it := range c.Items {
			if it.Title == title {
				return ci, ii, true
			}
		}
	}
	return -1, -1, false
}

// Locate returns the names of every column holding an item titled title, in
// board order. A healthy board yields at most one.
func (b *Board) Locate(title string) []string {
	var cols []string
	for _, c := range b.Columns {
		for _, it := range c.Items {
			if it.Title == title {
				cols = append(cols, c.Name)
			}
		}
	}
	return cols
}

// Titles returns the set of item titles on the board.
func (b *Board) Titles() map[string]bool {
	out := make(map[string]bool)
	for _, c := range b.Columns {
		for _, it := range c.Items {
			out[it.Title] = true
		}
	}
	return out
}

// Column returns the named column, or nil.
func (b *Board) Column(name string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i]
		}
	}
	return nil
}

// column returns the named column, appending it when absent.
func (b *Board) column(name string) *Column {
	if c := b.Column(name); c != nil {
		return c
	}
	b.Columns = append(b.Columns, Column{Name: name})
	return &b.Columns[len(b.Columns)-1]
}

// Add appends an item for title to the column of status. It reports false
// when the column already holds an item with that exact title.
func (b *Board) Add(title string, status task.Status, date string) bool {
	name := ColumnFor(status)
	col := b.column(name)
	for _, it := range col.Items {
		if it.Title == title {
			return false
		}
	}
	col.Items = append(col.Items, Item{
		Title:     title,
		Completed: name == ColumnDone,
		Date:      date,
	})
	return true
}

// Remove deletes the first item titled title and reports whether one existed.
func (b *Board) Remove(title string) bool {
	ci, ii, ok := b.Find(title)
	if !ok {
		return false
	}
	items := b.Columns[ci].Items
	b.Columns[ci].Items = append(items[:ii:ii], items[ii+1:]...)
	return true
}

// RemoveAll deletes every item titled title and returns how many were removed.
func (b *Board) RemoveAll(title string) int {
	n := 0
	for b.Remove(title) {
		n++
	}
	return n
}

// Move removes the item and appends it to the column of status. The item
// always lands at the end of the destination column.
func (b *Board) Move(title string, status task.Status, date string) {
	b.Remove(title)
	b.Add(title, status, date)
}

// Rename changes an item title in place, keeping its column, position and
// completion flag.
func (b *Board) Rename(oldTitle, newTitle string) bool {
	ci, ii, ok := b.Find(oldTitle)
	if !ok {
		return false
	}
	b.Columns[ci].Items[ii].Title = newTitle
	return true
}

// Retag replaces the date tag of an item in place.
func (b *Board) Retag(title, date string) bool {
	ci, ii, ok := b.Find(title)
	if !ok {
		return false
	}
	b.Columns[ci].Items[ii].Date = date
	return true
}
