// Package app assembles deskmate's components from configuration. Each
// component is built on first use, so a missing setting only fails the
// operations that need it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoCodeAlone/deskmate/config"
	"github.com/GoCodeAlone/deskmate/followup"
	"github.com/GoCodeAlone/deskmate/ledger"
	"github.com/GoCodeAlone/deskmate/mailbox"
	"github.com/GoCodeAlone/deskmate/triage"
	"github.com/GoCodeAlone/deskmate/vault"
)

// App owns the lazily opened components.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// OpenMailbox and OpenClassifier override how those collaborators are
	// built. Nil means Gmail and the configured classifier.
	OpenMailbox    func(ctx context.Context) (mailbox.Mailbox, error)
	OpenClassifier func() (triage.Classifier, error)

	mu      sync.Mutex
	vault   *vault.Vault
	mailbox mailbox.Mailbox
	ledger  *ledger.SQLiteStore
}

// New returns an App for cfg.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{Config: cfg, Logger: logger}
}

// Vault returns the configured vault.
func (a *App) Vault() (*vault.Vault, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.vault != nil {
		return a.vault, nil
	}
	v, err := vault.Open(a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	a.vault = v
	return v, nil
}

// Mailbox returns the mail collaborator.
func (a *App) Mailbox(ctx context.Context) (mailbox.Mailbox, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mailbox != nil {
		return a.mailbox, nil
	}
	var (
		mb  mailbox.Mailbox
		err error
	)
	if a.OpenMailbox != nil {
		mb, err = a.OpenMailbox(ctx)
	} else {
		if err := a.Config.RequireMailbox(); err != nil {
			return nil, err
		}
		mb, err = mailbox.Open(ctx, a.Config.Mailbox, a.Logger.With("component", "gmail"))
	}
	if err != nil {
		return nil, err
	}
	a.mailbox = mb
	return mb, nil
}

// Ledger returns the triage ledger, creating the data directory if needed.
func (a *App) Ledger() (*ledger.SQLiteStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ledger != nil {
		return a.ledger, nil
	}
	if err := os.MkdirAll(a.Config.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	l, err := ledger.Open(a.Config.LedgerPath())
	if err != nil {
		return nil, err
	}
	a.ledger = l
	return l, nil
}

// FollowUpsPath returns the tracking file location inside the vault.
func (a *App) FollowUpsPath() (string, error) {
	if err := a.Config.RequireVault(); err != nil {
		return "", err
	}
	return a.Config.FollowUpsPath(), nil
}

// FollowUps returns a deriver writing into the vault.
func (a *App) FollowUps(ctx context.Context) (*followup.Deriver, error) {
	path, err := a.FollowUpsPath()
	if err != nil {
		return nil, err
	}
	mb, err := a.Mailbox(ctx)
	if err != nil {
		return nil, err
	}
	d := followup.NewDeriver(mb, path, a.Logger.With("component", "followups"))
	if n := a.Config.Mailbox.SearchLimit; n > 0 {
		d.Limit = n
	}
	return d, nil
}

// Triager returns an inbox triager.
func (a *App) Triager(ctx context.Context) (*triage.Triager, error) {
	var (
		cls triage.Classifier
		err error
	)
	if a.OpenClassifier != nil {
		cls, err = a.OpenClassifier()
	} else {
		cls, err = triage.NewClassifier(a.Config)
	}
	if err != nil {
		return nil, err
	}
	mb, err := a.Mailbox(ctx)
	if err != nil {
		return nil, err
	}
	l, err := a.Ledger()
	if err != nil {
		return nil, err
	}
	t := triage.New(mb, cls, l, a.Logger.With("component", "triage"))
	if n := a.Config.Triage.BatchSize; n > 0 {
		t.BatchSize = n
	}
	return t, nil
}

// Close releases the ledger database.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ledger == nil {
		return nil
	}
	err := a.ledger.Close()
	a.ledger = nil
	return err
}
