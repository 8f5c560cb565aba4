// Package config defines the deskmate application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissing reports that a required setting was not configured. It is
// returned at the point the setting is first needed.
var ErrMissing = errors.New("configuration missing")

// Config is the top-level deskmate configuration.
type Config struct {
	Vault         string           `json:"vault" yaml:"vault"`
	TasksDir      string           `json:"tasks_dir" yaml:"tasks_dir"`
	ArchiveDir    string           `json:"archive_dir" yaml:"archive_dir"`
	ProjectsDir   string           `json:"projects_dir" yaml:"projects_dir"`
	BoardFile     string           `json:"board_file" yaml:"board_file"`
	FollowUpsFile string           `json:"followups_file" yaml:"followups_file"`
	DataDir       string           `json:"data_dir" yaml:"data_dir"`
	LogLevel      string           `json:"log_level" yaml:"log_level"`
	Mailbox       MailboxConfig    `json:"mailbox" yaml:"mailbox"`
	Classifier    ClassifierConfig `json:"classifier" yaml:"classifier"`
	Triage        TriageConfig     `json:"triage" yaml:"triage"`
}

// MailboxConfig points at the Gmail OAuth client and token files.
type MailboxConfig struct {
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	TokenFile       string `json:"token_file" yaml:"token_file"`
	User            string `json:"user" yaml:"user"` // "me" for the authorized account
	SearchLimit     int    `json:"search_limit" yaml:"search_limit"`
}

// ClassifierConfig selects the language model used for triage.
type ClassifierConfig struct {
	Provider  string `json:"provider" yaml:"provider"` // "anthropic" or "mock"
	APIKey    string `json:"-" yaml:"api_key"`
	Model     string `json:"model,omitempty" yaml:"model"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url"`
	MaxTokens int    `json:"max_tokens,omitempty" yaml:"max_tokens"`
}

// TriageConfig controls inbox triage batches.
type TriageConfig struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// DefaultConfig returns a config with sensible defaults. Vault is left empty
// on purpose: there is no safe default location for user notes.
func DefaultConfig() *Config {
	return &Config{
		TasksDir:      "Tasks",
		ArchiveDir:    filepath.Join("Tasks", "Archive"),
		ProjectsDir:   "Projects",
		BoardFile:     "Board.md",
		FollowUpsFile: "Follow-ups.md",
		DataDir:       "~/.config/deskmate",
		LogLevel:      "info",
		Mailbox: MailboxConfig{
			CredentialsFile: "~/.config/deskmate/credentials.json",
			TokenFile:       "~/.config/deskmate/token.json",
			User:            "me",
			SearchLimit:     50,
		},
		Classifier: ClassifierConfig{
			Provider:  "anthropic",
			MaxTokens: 2048,
		},
		Triage: TriageConfig{
			BatchSize: 20,
		},
	}
}

// DefaultPath returns the config file location: $DESK_CONFIG, or
// deskmate/config.yaml under the user config directory.
func DefaultPath() (string, error) {
	if p := os.Getenv("DESK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, "deskmate", "config.yaml"), nil
}

// Load reads a YAML config file over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.expand()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"DESK_VAULT", &c.Vault},
		{"DESK_LOG_LEVEL", &c.LogLevel},
		{"DESK_GMAIL_CREDENTIALS", &c.Mailbox.CredentialsFile},
		{"DESK_GMAIL_TOKEN", &c.Mailbox.TokenFile},
		{"ANTHROPIC_API_KEY", &c.Classifier.APIKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) expand() {
	for _, p := range []*string{&c.Vault, &c.DataDir, &c.Mailbox.CredentialsFile, &c.Mailbox.TokenFile} {
		*p = expandHome(*p)
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// resolve joins a vault-relative path onto the vault root.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Vault, p)
}

// RequireVault returns ErrMissing when no vault is configured.
func (c *Config) RequireVault() error {
	if c.Vault == "" {
		return fmt.Errorf("%w: vault path (set vault in config or DESK_VAULT)", ErrMissing)
	}
	return nil
}

// TasksPath is the absolute task directory.
func (c *Config) TasksPath() string { return c.resolve(c.TasksDir) }

// ArchivePath is the absolute archive directory.
func (c *Config) ArchivePath() string { return c.resolve(c.ArchiveDir) }

// ProjectsPath is the absolute project directory.
func (c *Config) ProjectsPath() string { return c.resolve(c.ProjectsDir) }

// BoardPath is the absolute board file path.
func (c *Config) BoardPath() string { return c.resolve(c.BoardFile) }

// FollowUpsPath is the absolute follow-up tracking file path.
func (c *Config) FollowUpsPath() string { return c.resolve(c.FollowUpsFile) }

// LedgerPath is the triage ledger database location.
func (c *Config) LedgerPath() string { return filepath.Join(c.DataDir, "triage.db") }

// RequireMailbox checks that Gmail client credentials and token exist.
func (c *Config) RequireMailbox() error {
	for _, f := range []struct{ name, path string }{
		{"mailbox credentials_file", c.Mailbox.CredentialsFile},
		{"mailbox token_file", c.Mailbox.TokenFile},
	} {
		if f.path == "" {
			return fmt.Errorf("%w: %s", ErrMissing, f.name)
		}
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrMissing, f.name, f.path, err)
		}
	}
	return nil
}

// RequireClassifier checks that the configured classifier can be built.
func (c *Config) RequireClassifier() error {
	switch c.Classifier.Provider {
	case "mock":
		return nil
	case "anthropic", "":
		if c.Classifier.APIKey == "" {
			return fmt.Errorf("%w: classifier api_key (or ANTHROPIC_API_KEY)", ErrMissing)
		}
		return nil
	default:
		return fmt.Errorf("unknown classifier provider %q", c.Classifier.Provider)
	}
}
