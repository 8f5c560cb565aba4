package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/deskmate/internal/version"
	"github.com/GoCodeAlone/deskmate/mailbox"
	"github.com/GoCodeAlone/deskmate/mcpserver"
	"github.com/GoCodeAlone/deskmate/tools"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail access and store the token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		mb := desk.Config.Mailbox
		oc, err := mailbox.OAuthConfig(mb.CredentialsFile)
		if err != nil {
			return err
		}
		state := uuid.NewString()
		fmt.Printf("Open this URL, approve access and paste the code:\n\n  %s\n\ncode: ", mailbox.AuthCodeURL(oc, state))
		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read code: %w", err)
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return errors.New("no authorization code given")
		}
		if _, err := mailbox.Exchange(cmd.Context(), oc, code, mb.TokenFile); err != nil {
			return err
		}
		fmt.Printf("%s token saved to %s\n", okMark("✓"), mb.TokenFile)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deskmate tools over MCP on stdio",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg := tools.Default(desk)
		s, err := mcpserver.New(reg, version.Version, desk.Logger)
		if err != nil {
			return err
		}
		desk.Logger.Info("mcp server starting", slog.String("version", version.Version), slog.Int("tools", len(reg.Names())))
		return mcpserver.Serve(s)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("desk " + version.String())
	},
}
