package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Classify unread inbox mail",
}

var runTriageCmd = &cobra.Command{
	Use:   "run",
	Short: "Label unread mail and draft suggested replies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tr, err := desk.Triager(cmd.Context())
		if err != nil {
			return err
		}
		rep, err := tr.Run(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(rep)
		}
		fmt.Printf("%s fetched %d, skipped %d, processed %d, unclassified %d, drafts %d\n",
			okMark("✓"), rep.Fetched, rep.Skipped, rep.Processed, rep.Unclassified, rep.Drafts)
		if len(rep.Categories) == 0 {
			return nil
		}
		cats := make([]string, 0, len(rep.Categories))
		for c := range rep.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Category", "Messages"})
		for _, c := range cats {
			t.AppendRow(table.Row{c, rep.Categories[c]})
		}
		t.Render()
		return nil
	},
}

var historyTriageCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently triaged messages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := desk.Ledger()
		if err != nil {
			return err
		}
		entries, err := l.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"When", "From", "Subject", "Category", "Draft"})
		for _, e := range entries {
			draft := ""
			if e.DraftID != "" {
				draft = "yes"
			}
			t.AppendRow(table.Row{e.ProcessedAt.Local().Format("2006-01-02 15:04"), e.From, e.Subject, e.Category, draft})
		}
		t.Render()
		return nil
	},
}

func init() {
	historyTriageCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries")
	triageCmd.AddCommand(runTriageCmd, historyTriageCmd)
}
