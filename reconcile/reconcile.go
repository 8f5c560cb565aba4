// Package reconcile brings the board in line with the task files.
//
// Task files decide which tasks exist and what status they have; the board
// is a projection of them. A sync adds missing items, moves misplaced ones
// and prunes items that no longer match an active task. There is no path in
// which the board overrides a task file.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/GoCodeAlone/deskmate/board"
	"github.com/GoCodeAlone/deskmate/task"
)

// Result counts the board mutations a sync performed.
type Result struct {
	Added   int `json:"added"`
	Moved   int `json:"moved"`
	Removed int `json:"removed"`
}

// Changed reports whether the sync touched the board.
func (r Result) Changed() bool { return r.Added+r.Moved+r.Removed > 0 }

// Engine reconciles a task store with a board file.
type Engine struct {
	tasks  *task.FileStore
	board  *board.File
	logger *slog.Logger
}

// New returns an engine over the given task store and board file.
func New(tasks *task.FileStore, b *board.File, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tasks: tasks, board: b, logger: logger}
}

// Sync performs one full reconciliation pass.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	var res Result
	if err := e.tasks.Init(); err != nil {
		return res, err
	}
	if err := e.board.Bootstrap(); err != nil {
		return res, err
	}

	all, err := e.tasks.All()
	if err != nil {
		return res, fmt.Errorf("load tasks: %w", err)
	}
	active := make([]*task.Task, 0, len(all))
	for _, t := range all {
		if t.Status != task.StatusArchived {
			active = append(active, t)
		}
	}
	// Oldest first so newly added items land in creation order.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})

	for _, t := range active {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		// Re-read before every decision: the previous iteration may have
		// rewritten the board.
		b, err := e.board.Load()
		if err != nil {
			return res, err
		}
		want := board.ColumnFor(t.Status)
		cols := b.Locate(t.Title)
		switch {
		case len(cols) == 0:
			if _, err := e.board.AddItem(t.Title, t.Status, t.DueDate); err != nil {
				return res, err
			}
			res.Added++
			e.logger.Debug("sync added item", slog.String("title", t.Title), slog.String("column", want))
		case len(cols) > 1 || cols[0] != want:
			if err := e.collapse(t, len(cols)); err != nil {
				return res, err
			}
			res.Moved++
			e.logger.Debug("sync moved item", slog.String("title", t.Title), slog.Any("from", cols), slog.String("to", want))
		}
	}

	removed, err := e.prune(active)
	if err != nil {
		return res, err
	}
	res.Removed = removed

	if res.Changed() {
		e.logger.Info("board synced",
			slog.Int("added", res.Added),
			slog.Int("moved", res.Moved),
			slog.Int("removed", res.Removed),
		)
	}
	return res, nil
}

// collapse removes every copy of the task's item and adds one back in the
// column matching its status.
func (e *Engine) collapse(t *task.Task, copies int) error {
	if copies == 1 {
		return e.board.MoveItem(t.Title, t.Status, t.DueDate)
	}
	b, err := e.board.Load()
	if err != nil {
		return err
	}
	b.RemoveAll(t.Title)
	b.Add(t.Title, t.Status, t.DueDate)
	return e.board.Save(b)
}

// prune drops items whose title matches no active task.
func (e *Engine) prune(active []*task.Task) (int, error) {
	keep := make(map[string]bool, len(active))
	for _, t := range active {
		keep[t.Title] = true
	}
	b, err := e.board.Load()
	if err != nil {
		return 0, err
	}
	removed := 0
	for ci := range b.Columns {
		items := b.Columns[ci].Items[:0:0]
		for _, it := range b.Columns[ci].Items {
			if keep[it.Title] {
				items = append(items, it)
				continue
			}
			removed++
			e.logger.Debug("sync pruned orphan", slog.String("title", it.Title), slog.String("column", b.Columns[ci].Name))
		}
		b.Columns[ci].Items = items
	}
	if removed == 0 {
		return 0, nil
	}
	if err := e.board.Save(b); err != nil {
		return 0, err
	}
	return removed, nil
}
