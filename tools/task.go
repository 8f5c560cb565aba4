package tools

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/deskmate/provider"
	"github.com/GoCodeAlone/deskmate/task"
	"github.com/GoCodeAlone/deskmate/vault"
)

// VaultSource opens the vault on demand.
type VaultSource interface {
	Vault() (*vault.Vault, error)
}

func idProperty() map[string]any {
	return map[string]any{"type": "string", "description": "Task title or file name (case-insensitive)"}
}

// TaskCreateTool creates a task file and its board item.
type TaskCreateTool struct {
	Vaults VaultSource
}

func (t *TaskCreateTool) Name() string        { return "task_create" }
func (t *TaskCreateTool) Description() string { return "Create a task and add it to the board" }
func (t *TaskCreateTool) Definition() provider.ToolDef {
	props := taskProperties()
	props["title"] = map[string]any{"type": "string", "description": "Task title, also its file name"}
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []string{"title"},
		},
	}
}
func (t *TaskCreateTool) Execute(_ context.Context, args map[string]any) (any, error) {
	title, err := requiredString(args, "title")
	if err != nil {
		return nil, err
	}
	f, err := taskFields(args)
	if err != nil {
		return nil, err
	}
	f.Title = nil
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	created, err := v.CreateTask(title, f)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": created}, nil
}

// TaskListTool lists tasks with filters.
type TaskListTool struct {
	Vaults VaultSource
}

func (t *TaskListTool) Name() string        { return "task_list" }
func (t *TaskListTool) Description() string { return "List tasks, newest first" }
func (t *TaskListTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"assignee": map[string]any{"type": "string", "description": "me, assistant or all"},
				"status":   map[string]any{"type": "string", "description": "A status, active (working/next/blocked) or all"},
				"project":  map[string]any{"type": "string"},
				"search":   map[string]any{"type": "string", "description": "Case-insensitive text in title or body"},
				"limit":    map[string]any{"type": "integer"},
			},
		},
	}
}
func (t *TaskListTool) Execute(_ context.Context, args map[string]any) (any, error) {
	var filter task.Filter
	for key, dst := range map[string]*string{
		"assignee": &filter.Assignee,
		"status":   &filter.Status,
		"project":  &filter.Project,
		"search":   &filter.Search,
	} {
		s, err := optionalString(args, key)
		if err != nil {
			return nil, err
		}
		*dst = s
	}
	limit, err := intArg(args, "limit", 0)
	if err != nil {
		return nil, err
	}
	filter.Limit = limit
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	list, err := v.ListTasks(filter)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*task.Task{}
	}
	return map[string]any{"tasks": list, "count": len(list)}, nil
}

// TaskUpdateTool changes task attributes.
type TaskUpdateTool struct {
	Vaults VaultSource
}

func (t *TaskUpdateTool) Name() string { return "task_update" }
func (t *TaskUpdateTool) Description() string {
	return "Update a task; omitted fields are kept, a new title renames the file"
}
func (t *TaskUpdateTool) Definition() provider.ToolDef {
	props := taskProperties()
	props["id"] = idProperty()
	props["title"] = map[string]any{"type": "string", "description": "New title"}
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []string{"id"},
		},
	}
}
func (t *TaskUpdateTool) Execute(_ context.Context, args map[string]any) (any, error) {
	id, err := requiredString(args, "id")
	if err != nil {
		return nil, err
	}
	f, err := taskFields(args)
	if err != nil {
		return nil, err
	}
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	updated, err := v.UpdateTask(id, f)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": updated}, nil
}

// idOnly is the schema of tools that take just a task id.
func idOnly(name, description string) provider.ToolDef {
	return provider.ToolDef{
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"id": idProperty()},
			"required":   []string{"id"},
		},
	}
}

// TaskCompleteTool marks a task done.
type TaskCompleteTool struct {
	Vaults VaultSource
}

func (t *TaskCompleteTool) Name() string                 { return "task_complete" }
func (t *TaskCompleteTool) Description() string          { return "Mark a task done" }
func (t *TaskCompleteTool) Definition() provider.ToolDef { return idOnly(t.Name(), t.Description()) }
func (t *TaskCompleteTool) Execute(_ context.Context, args map[string]any) (any, error) {
	id, err := requiredString(args, "id")
	if err != nil {
		return nil, err
	}
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	done, err := v.CompleteTask(id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": done}, nil
}

// TaskArchiveTool moves a task to the archive and off the board.
type TaskArchiveTool struct {
	Vaults VaultSource
}

func (t *TaskArchiveTool) Name() string { return "task_archive" }
func (t *TaskArchiveTool) Description() string {
	return "Archive a task: move its file to the archive and remove it from the board"
}
func (t *TaskArchiveTool) Definition() provider.ToolDef { return idOnly(t.Name(), t.Description()) }
func (t *TaskArchiveTool) Execute(_ context.Context, args map[string]any) (any, error) {
	id, err := requiredString(args, "id")
	if err != nil {
		return nil, err
	}
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	archived, err := v.ArchiveTask(id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"archived": archived.Title, "task": archived}, nil
}

// TaskDeleteTool permanently deletes a task.
type TaskDeleteTool struct {
	Vaults VaultSource
}

func (t *TaskDeleteTool) Name() string { return "task_delete" }
func (t *TaskDeleteTool) Description() string {
	return "Permanently delete a task file and its board item"
}
func (t *TaskDeleteTool) Definition() provider.ToolDef { return idOnly(t.Name(), t.Description()) }
func (t *TaskDeleteTool) Execute(_ context.Context, args map[string]any) (any, error) {
	id, err := requiredString(args, "id")
	if err != nil {
		return nil, err
	}
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	title, err := v.DeleteTask(id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": title}, nil
}

// BoardSyncTool forces a board reconciliation.
type BoardSyncTool struct {
	Vaults VaultSource
}

func (t *BoardSyncTool) Name() string { return "board_sync" }
func (t *BoardSyncTool) Description() string {
	return "Reconcile the Kanban board with the task files"
}
func (t *BoardSyncTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}
func (t *BoardSyncTool) Execute(ctx context.Context, _ map[string]any) (any, error) {
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	res, err := v.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("board sync: %w", err)
	}
	return res, nil
}

// ProjectListTool lists projects with open task counts.
type ProjectListTool struct {
	Vaults VaultSource
}

func (t *ProjectListTool) Name() string        { return "project_list" }
func (t *ProjectListTool) Description() string { return "List projects with their open task counts" }
func (t *ProjectListTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "description": "active, paused, done or all"},
			},
		},
	}
}
func (t *ProjectListTool) Execute(_ context.Context, args map[string]any) (any, error) {
	status, err := optionalString(args, "status")
	if err != nil {
		return nil, err
	}
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	list, err := v.ListProjects(status)
	if err != nil {
		return nil, err
	}
	return map[string]any{"projects": list, "count": len(list)}, nil
}

// ProjectCreateTool creates a project note.
type ProjectCreateTool struct {
	Vaults VaultSource
}

func (t *ProjectCreateTool) Name() string        { return "project_create" }
func (t *ProjectCreateTool) Description() string { return "Create a project" }
func (t *ProjectCreateTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":        map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"name"},
		},
	}
}
func (t *ProjectCreateTool) Execute(_ context.Context, args map[string]any) (any, error) {
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	desc, err := optionalString(args, "description")
	if err != nil {
		return nil, err
	}
	v, err := t.Vaults.Vault()
	if err != nil {
		return nil, err
	}
	p, err := v.CreateProject(name, desc)
	if err != nil {
		return nil, err
	}
	return map[string]any{"project": p}, nil
}
