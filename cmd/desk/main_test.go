package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/GoCodeAlone/deskmate/task"
)

func TestChangedFields(t *testing.T) {
	cmd := updateTaskCmd
	if f := changedFields(cmd); f.Status != nil || f.Title != nil || f.Tags != nil {
		t.Fatalf("untouched flags produced fields: %+v", f)
	}
	for name, val := range map[string]string{"status": "working", "title": "Renamed", "tag": "a,b"} {
		if err := cmd.Flags().Set(name, val); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	f := changedFields(cmd)
	if f.Status == nil || *f.Status != task.StatusWorking {
		t.Errorf("Status = %v, want working", f.Status)
	}
	if f.Title == nil || *f.Title != "Renamed" {
		t.Errorf("Title = %v, want Renamed", f.Title)
	}
	if len(f.Tags) != 2 || f.Tags[0] != "a" || f.Tags[1] != "b" {
		t.Errorf("Tags = %v, want [a b]", f.Tags)
	}
	if f.Priority != nil || f.DueDate != nil {
		t.Errorf("unset flags leaked: %+v", f)
	}
}

func TestNewLogger_Level(t *testing.T) {
	cases := []struct {
		level string
		debug bool
		info  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"error", false, false},
		{"nonsense", false, true},
	}
	ctx := context.Background()
	for _, c := range cases {
		l := newLogger(c.level)
		if got := l.Enabled(ctx, slog.LevelDebug); got != c.debug {
			t.Errorf("%s: debug enabled = %v, want %v", c.level, got, c.debug)
		}
		if got := l.Enabled(ctx, slog.LevelInfo); got != c.info {
			t.Errorf("%s: info enabled = %v, want %v", c.level, got, c.info)
		}
	}
}

func TestRootCommands(t *testing.T) {
	want := map[string]bool{
		"task": true, "project": true, "board": true, "followups": true,
		"triage": true, "auth": true, "serve": true, "version": true,
	}
	for _, c := range rootCmd.Commands() {
		delete(want, c.Name())
	}
	if len(want) != 0 {
		t.Errorf("missing commands: %v", want)
	}
}
