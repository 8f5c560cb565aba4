// Package vault ties the task store, project store and board together. Every
// task mutation goes to the task file first and is then mirrored onto the
// board.
package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoCodeAlone/deskmate/board"
	"github.com/GoCodeAlone/deskmate/config"
	"github.com/GoCodeAlone/deskmate/project"
	"github.com/GoCodeAlone/deskmate/reconcile"
	"github.com/GoCodeAlone/deskmate/task"
)

// Vault is the folder holding task files, project notes and the board.
type Vault struct {
	Tasks    *task.FileStore
	Projects *project.Store
	Board    *board.File

	engine *reconcile.Engine
	logger *slog.Logger
}

// Paths locates the vault parts on disk.
type Paths struct {
	Tasks    string
	Archive  string
	Projects string
	Board    string
}

// New returns a vault over the given paths.
func New(p Paths, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	tasks := task.NewFileStore(p.Tasks, p.Archive, logger.With("component", "tasks"))
	b := board.NewFile(p.Board, logger.With("component", "board"))
	return &Vault{
		Tasks:    tasks,
		Projects: project.NewStore(p.Projects, logger.With("component", "projects")),
		Board:    b,
		engine:   reconcile.New(tasks, b, logger.With("component", "sync")),
		logger:   logger,
	}
}

// Open builds a vault from configuration. It fails with config.ErrMissing
// when no vault path is set.
func Open(cfg *config.Config, logger *slog.Logger) (*Vault, error) {
	if err := cfg.RequireVault(); err != nil {
		return nil, err
	}
	return New(Paths{
		Tasks:    cfg.TasksPath(),
		Archive:  cfg.ArchivePath(),
		Projects: cfg.ProjectsPath(),
		Board:    cfg.BoardPath(),
	}, logger), nil
}

// Bootstrap creates the task folders and an empty board when missing.
func (v *Vault) Bootstrap() error {
	if err := v.Tasks.Init(); err != nil {
		return err
	}
	return v.Board.Bootstrap()
}

// CreateTask writes a new task file and adds it to the board.
func (v *Vault) CreateTask(title string, f task.Fields) (*task.Task, error) {
	t, err := v.Tasks.Create(title, f)
	if err != nil {
		return nil, err
	}
	if err := v.Board.Bootstrap(); err != nil {
		return t, err
	}
	if _, err := v.Board.AddItem(t.Title, t.Status, t.DueDate); err != nil {
		return t, fmt.Errorf("add board item: %w", err)
	}
	v.logger.Info("task created", slog.String("title", t.Title), slog.String("status", string(t.Status)))
	return t, nil
}

// ListTasks returns tasks matching filter, newest first.
func (v *Vault) ListTasks(filter task.Filter) ([]*task.Task, error) {
	return v.Tasks.List(filter)
}

// GetTask resolves a task by file name or title.
func (v *Vault) GetTask(id string) (*task.Task, error) {
	return v.Tasks.Get(id)
}

// UpdateTask applies f and mirrors the change onto the board: a rename keeps
// the item in place, a status change moves it, and a due date change alone
// refreshes its date tag.
func (v *Vault) UpdateTask(id string, f task.Fields) (*task.Task, error) {
	t, change, err := v.Tasks.Update(id, f)
	if err != nil {
		return nil, err
	}
	if err := v.mirror(t, change); err != nil {
		return t, err
	}
	v.logger.Info("task updated", slog.String("title", t.Title), slog.String("status", string(t.Status)))
	return t, nil
}

// CompleteTask marks a task done and moves it to the Done column.
func (v *Vault) CompleteTask(id string) (*task.Task, error) {
	t, change, err := v.Tasks.Complete(id)
	if err != nil {
		return nil, err
	}
	if err := v.mirror(t, change); err != nil {
		return t, err
	}
	v.logger.Info("task completed", slog.String("title", t.Title))
	return t, nil
}

func (v *Vault) mirror(t *task.Task, change task.Change) error {
	if change.Renamed(t) {
		renamed, err := v.Board.RenameItem(change.OldTitle, t.Title)
		if err != nil {
			return fmt.Errorf("rename board item: %w", err)
		}
		if !renamed {
			// Not on the board yet; the add below places it.
			if _, err := v.Board.AddItem(t.Title, t.Status, t.DueDate); err != nil {
				return fmt.Errorf("add board item: %w", err)
			}
			return nil
		}
	}
	switch {
	case change.StatusChanged(t):
		if err := v.Board.MoveItem(t.Title, t.Status, t.DueDate); err != nil {
			return fmt.Errorf("move board item: %w", err)
		}
	case change.DueChanged(t):
		if _, err := v.Board.RetagItem(t.Title, t.DueDate); err != nil {
			return fmt.Errorf("retag board item: %w", err)
		}
	}
	return nil
}

// ArchiveTask moves the task file into the archive folder and removes its
// board item.
func (v *Vault) ArchiveTask(id string) (*task.Task, error) {
	t, err := v.Tasks.Archive(id)
	if err != nil {
		return nil, err
	}
	if _, err := v.Board.RemoveItem(t.Title); err != nil {
		return t, fmt.Errorf("remove board item: %w", err)
	}
	v.logger.Info("task archived", slog.String("title", t.Title))
	return t, nil
}

// DeleteTask permanently removes the task file and its board item. It
// returns the resolved title.
func (v *Vault) DeleteTask(id string) (string, error) {
	title, err := v.Tasks.Delete(id)
	if err != nil {
		return "", err
	}
	if _, err := v.Board.RemoveItem(title); err != nil {
		return title, fmt.Errorf("remove board item: %w", err)
	}
	v.logger.Info("task deleted", slog.String("title", title))
	return title, nil
}

// Sync reconciles the board with the task files.
func (v *Vault) Sync(ctx context.Context) (reconcile.Result, error) {
	return v.engine.Sync(ctx)
}

// ProjectSummary is a project with the number of its open tasks.
type ProjectSummary struct {
	*project.Project
	OpenTasks int `json:"open_tasks"`
}

// ListProjects returns projects filtered by status, each with a count of
// tasks that are not done.
func (v *Vault) ListProjects(status string) ([]ProjectSummary, error) {
	projects, err := v.Projects.List(status)
	if err != nil {
		return nil, err
	}
	tasks, err := v.Tasks.All()
	if err != nil {
		return nil, err
	}
	open := make(map[string]int)
	for _, t := range tasks {
		if t.Project != "" && t.Status != task.StatusDone && t.Status != task.StatusArchived {
			open[t.Project]++
		}
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectSummary{Project: p, OpenTasks: open[p.Name]})
	}
	return out, nil
}

// CreateProject writes a new project note.
func (v *Vault) CreateProject(name, description string) (*project.Project, error) {
	p, err := v.Projects.Create(name, description)
	if err != nil {
		return nil, err
	}
	v.logger.Info("project created", slog.String("name", p.Name), slog.String("slug", p.Slug))
	return p, nil
}

// BoardText returns the raw board markdown, bootstrapping the board first.
func (v *Vault) BoardText() (string, error) {
	if err := v.Board.Bootstrap(); err != nil {
		return "", err
	}
	return v.Board.Text()
}
