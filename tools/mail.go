package tools

import (
	"context"

	"github.com/GoCodeAlone/deskmate/followup"
	"github.com/GoCodeAlone/deskmate/ledger"
	"github.com/GoCodeAlone/deskmate/provider"
	"github.com/GoCodeAlone/deskmate/triage"
)

// Services supplies the components the tools act on. *app.App implements it.
type Services interface {
	VaultSource
	FollowUps(ctx context.Context) (*followup.Deriver, error)
	FollowUpsPath() (string, error)
	Triager(ctx context.Context) (*triage.Triager, error)
	Ledger() (*ledger.SQLiteStore, error)
}

func noParams(name, description string) provider.ToolDef {
	return provider.ToolDef{
		Name:        name,
		Description: description,
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

// FollowUpsRefreshTool rebuilds the follow-up tracking file from mail labels.
type FollowUpsRefreshTool struct {
	S Services
}

func (t *FollowUpsRefreshTool) Name() string { return "followups_refresh" }
func (t *FollowUpsRefreshTool) Description() string {
	return "Rebuild the follow-up tracking note from the mailbox labels"
}
func (t *FollowUpsRefreshTool) Definition() provider.ToolDef {
	return noParams(t.Name(), t.Description())
}
func (t *FollowUpsRefreshTool) Execute(ctx context.Context, _ map[string]any) (any, error) {
	d, err := t.S.FollowUps(ctx)
	if err != nil {
		return nil, err
	}
	records, err := d.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	overdue := 0
	for _, r := range records {
		if r.Overdue {
			overdue++
		}
	}
	if records == nil {
		records = []followup.Record{}
	}
	return map[string]any{
		"records": records,
		"count":   len(records),
		"overdue": overdue,
		"path":    d.Path(),
	}, nil
}

// FollowUpsReadTool summarizes the tracking file without touching mail.
type FollowUpsReadTool struct {
	S Services
}

func (t *FollowUpsReadTool) Name() string { return "followups_read" }
func (t *FollowUpsReadTool) Description() string {
	return "Count open and overdue follow-ups in the tracking note"
}
func (t *FollowUpsReadTool) Definition() provider.ToolDef {
	return noParams(t.Name(), t.Description())
}
func (t *FollowUpsReadTool) Execute(_ context.Context, _ map[string]any) (any, error) {
	path, err := t.S.FollowUpsPath()
	if err != nil {
		return nil, err
	}
	s, err := followup.ReadSummary(path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"summary": s, "total": s.Total()}, nil
}

// InboxTriageTool classifies unread inbox mail.
type InboxTriageTool struct {
	S Services
}

func (t *InboxTriageTool) Name() string { return "inbox_triage" }
func (t *InboxTriageTool) Description() string {
	return "Classify unread inbox mail, label it and draft suggested replies"
}
func (t *InboxTriageTool) Definition() provider.ToolDef {
	return noParams(t.Name(), t.Description())
}
func (t *InboxTriageTool) Execute(ctx context.Context, _ map[string]any) (any, error) {
	tr, err := t.S.Triager(ctx)
	if err != nil {
		return nil, err
	}
	return tr.Run(ctx)
}

// TriageHistoryTool lists recent ledger entries.
type TriageHistoryTool struct {
	S Services
}

func (t *TriageHistoryTool) Name() string        { return "triage_history" }
func (t *TriageHistoryTool) Description() string { return "List recently triaged messages" }
func (t *TriageHistoryTool) Definition() provider.ToolDef {
	return provider.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Maximum entries, default 20"},
			},
		},
	}
}
func (t *TriageHistoryTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	limit, err := intArg(args, "limit", 20)
	if err != nil {
		return nil, err
	}
	l, err := t.S.Ledger()
	if err != nil {
		return nil, err
	}
	entries, err := l.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	return map[string]any{"entries": entries, "count": len(entries)}, nil
}

// Default returns a registry holding every deskmate tool.
func Default(s Services) *Registry {
	r := NewRegistry()
	r.Register(&TaskCreateTool{Vaults: s})
	r.Register(&TaskListTool{Vaults: s})
	r.Register(&TaskUpdateTool{Vaults: s})
	r.Register(&TaskCompleteTool{Vaults: s})
	r.Register(&TaskArchiveTool{Vaults: s})
	r.Register(&TaskDeleteTool{Vaults: s})
	r.Register(&ProjectListTool{Vaults: s})
	r.Register(&ProjectCreateTool{Vaults: s})
	r.Register(&BoardSyncTool{Vaults: s})
	r.Register(&FollowUpsRefreshTool{S: s})
	r.Register(&FollowUpsReadTool{S: s})
	r.Register(&InboxTriageTool{S: s})
	r.Register(&TriageHistoryTool{S: s})
	return r
}
