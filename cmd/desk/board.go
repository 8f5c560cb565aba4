package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var rawOutput bool

var boardCmd = &cobra.Command{
	Use:     "board",
	Short:   "Inspect and repair the Kanban board",
	Aliases: []string{"b"},
}

var syncBoardCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the board with the task files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		res, err := v.Sync(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		if !res.Changed() {
			fmt.Printf("%s board already in sync\n", okMark("✓"))
			return nil
		}
		fmt.Printf("%s board synced: %d added, %d moved, %d removed\n", okMark("✓"), res.Added, res.Moved, res.Removed)
		return nil
	},
}

var showBoardCmd = &cobra.Command{
	Use:   "show",
	Short: "Render the board",
	RunE: func(_ *cobra.Command, _ []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		md, err := v.BoardText()
		if err != nil {
			return err
		}
		return renderMarkdown(md)
	},
}

// renderMarkdown prints md through glamour unless --raw is set.
func renderMarkdown(md string) error {
	if rawOutput {
		fmt.Print(md)
		return nil
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}

func init() {
	showBoardCmd.Flags().BoolVar(&rawOutput, "raw", false, "print the markdown source")
	boardCmd.AddCommand(syncBoardCmd, showBoardCmd)
}
