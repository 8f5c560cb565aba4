// Command desk is the deskmate CLI: tasks and the Kanban board in an Obsidian
// vault, Gmail follow-ups and inbox triage, and an MCP server over the same
// operations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/deskmate/config"
	"github.com/GoCodeAlone/deskmate/internal/app"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool

	desk *app.App
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "desk",
	Short:         "Personal assistant for an Obsidian vault and a Gmail inbox",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger := newLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		logger.Debug("config loaded", slog.String("path", path), slog.String("vault", cfg.Vault))
		desk = app.New(cfg, logger)
		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if desk == nil {
			return nil
		}
		return desk.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $DESK_CONFIG or ~/.config/deskmate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(taskCmd, projectCmd, boardCmd, followupsCmd, triageCmd, authCmd, serveCmd, versionCmd)
}

// newLogger builds the process logger. Output goes to stderr so stdout stays
// free for results and the MCP transport.
func newLogger(level string) *slog.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "desk",
	})
	return slog.New(handler)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		if desk != nil {
			_ = desk.Close()
		}
		stop()
		os.Exit(1)
	}
}
