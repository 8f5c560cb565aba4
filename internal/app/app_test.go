package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoCodeAlone/deskmate/config"
	"github.com/GoCodeAlone/deskmate/mailbox"
	mbmock "github.com/GoCodeAlone/deskmate/mailbox/mock"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.Mailbox.CredentialsFile = filepath.Join(dir, "credentials.json")
	cfg.Mailbox.TokenFile = filepath.Join(dir, "token.json")
	return cfg
}

func TestApp_MissingConfiguration(t *testing.T) {
	a := New(testConfig(t), nil)
	defer a.Close()
	ctx := context.Background()

	if _, err := a.Vault(); !errors.Is(err, config.ErrMissing) {
		t.Errorf("Vault err = %v, want config.ErrMissing", err)
	}
	if _, err := a.FollowUpsPath(); !errors.Is(err, config.ErrMissing) {
		t.Errorf("FollowUpsPath err = %v, want config.ErrMissing", err)
	}
	if _, err := a.Mailbox(ctx); !errors.Is(err, config.ErrMissing) {
		t.Errorf("Mailbox err = %v, want config.ErrMissing", err)
	}
	if _, err := a.Triager(ctx); !errors.Is(err, config.ErrMissing) {
		t.Errorf("Triager err = %v, want config.ErrMissing", err)
	}
}

func TestApp_LazyComponents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vault = filepath.Join(t.TempDir(), "vault")
	cfg.Classifier.Provider = "mock"
	cfg.Triage.BatchSize = 5
	cfg.Mailbox.SearchLimit = 7

	a := New(cfg, nil)
	defer a.Close()
	opened := 0
	a.OpenMailbox = func(context.Context) (mailbox.Mailbox, error) {
		opened++
		return mbmock.New(), nil
	}
	ctx := context.Background()

	v1, err := a.Vault()
	if err != nil {
		t.Fatalf("Vault: %v", err)
	}
	v2, _ := a.Vault()
	if v1 != v2 {
		t.Error("Vault not cached")
	}

	tr, err := a.Triager(ctx)
	if err != nil {
		t.Fatalf("Triager: %v", err)
	}
	if tr.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", tr.BatchSize)
	}
	if _, err := os.Stat(cfg.LedgerPath()); err != nil {
		t.Errorf("ledger not created: %v", err)
	}

	d, err := a.FollowUps(ctx)
	if err != nil {
		t.Fatalf("FollowUps: %v", err)
	}
	if d.Limit != 7 {
		t.Errorf("Limit = %d, want 7", d.Limit)
	}
	if d.Path() != cfg.FollowUpsPath() {
		t.Errorf("Path = %q, want %q", d.Path(), cfg.FollowUpsPath())
	}
	if opened != 1 {
		t.Errorf("mailbox opened %d times, want 1", opened)
	}
}
