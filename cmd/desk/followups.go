package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/deskmate/followup"
)

var followupsCmd = &cobra.Command{
	Use:     "followups",
	Short:   "Track mail awaiting replies",
	Aliases: []string{"fu"},
}

var refreshFollowupsCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the follow-up note from mailbox labels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := desk.FollowUps(cmd.Context())
		if err != nil {
			return err
		}
		records, err := d.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(records)
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Type", "Subject", "With", "Age"})
		for _, r := range records {
			age := fmt.Sprintf("%dd", r.DaysAge)
			if r.Overdue {
				age = text.FgHiRed.Sprint(age + " overdue")
			}
			t.AppendRow(table.Row{followup.Heading(r.Type), r.Subject, r.Counterparty, age})
		}
		t.Render()
		fmt.Printf("%s wrote %s\n", okMark("✓"), d.Path())
		return nil
	},
}

var showFollowupsCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the follow-up note and its counts",
	RunE: func(_ *cobra.Command, _ []string) error {
		path, err := desk.FollowUpsPath()
		if err != nil {
			return err
		}
		s, err := followup.ReadSummary(path)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(s)
		}
		data, err := os.ReadFile(path)
		if err == nil {
			if err := renderMarkdown(string(data)); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("read follow-ups: %w", err)
		}
		line := fmt.Sprintf("%d open (%d need reply, %d awaiting, %d action), %d overdue",
			s.Total(), s.NeedsReply, s.AwaitingReply, s.NeedsAction, s.Overdue)
		if s.Overdue > 0 {
			fmt.Println(warnMark(line))
		} else {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	showFollowupsCmd.Flags().BoolVar(&rawOutput, "raw", false, "print the markdown source")
	followupsCmd.AddCommand(refreshFollowupsCmd, showFollowupsCmd)
}
