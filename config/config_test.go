package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DESK_VAULT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BoardFile != "Board.md" || cfg.Triage.BatchSize != 20 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.RequireVault(); !errors.Is(err, ErrMissing) {
		t.Errorf("RequireVault err = %v, want ErrMissing", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "vault: /notes\nboard_file: Kanban.md\nclassifier:\n  provider: mock\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DESK_VAULT", "/override")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault != "/override" {
		t.Errorf("Vault = %q, want /override", cfg.Vault)
	}
	if got, want := cfg.BoardPath(), filepath.Join("/override", "Kanban.md"); got != want {
		t.Errorf("BoardPath = %q, want %q", got, want)
	}
	if cfg.TasksDir != "Tasks" {
		t.Errorf("TasksDir = %q, want default Tasks", cfg.TasksDir)
	}
	if cfg.Classifier.APIKey != "sk-test" {
		t.Errorf("APIKey not taken from env")
	}
	if err := cfg.RequireClassifier(); err != nil {
		t.Errorf("RequireClassifier: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vault: [\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRequireClassifier(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.RequireClassifier(); !errors.Is(err, ErrMissing) {
		t.Errorf("err = %v, want ErrMissing", err)
	}
	cfg.Classifier.Provider = "other"
	if err := cfg.RequireClassifier(); err == nil || errors.Is(err, ErrMissing) {
		t.Errorf("unknown provider err = %v", err)
	}
}

func TestRequireMailbox(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Mailbox.CredentialsFile = filepath.Join(dir, "credentials.json")
	cfg.Mailbox.TokenFile = filepath.Join(dir, "token.json")
	if err := cfg.RequireMailbox(); !errors.Is(err, ErrMissing) {
		t.Fatalf("err = %v, want ErrMissing", err)
	}
	for _, p := range []string{cfg.Mailbox.CredentialsFile, cfg.Mailbox.TokenFile} {
		if err := os.WriteFile(p, []byte("{}"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	if err := cfg.RequireMailbox(); err != nil {
		t.Errorf("RequireMailbox: %v", err)
	}
}
