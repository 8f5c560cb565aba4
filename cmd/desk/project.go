package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	projectStatus      string
	projectDescription string
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Short:   "Manage projects",
	Aliases: []string{"p"},
}

var listProjectCmd = &cobra.Command{
	Use:     "list",
	Short:   "List projects with open task counts",
	Aliases: []string{"ls"},
	RunE: func(_ *cobra.Command, _ []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		list, err := v.ListProjects(projectStatus)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(list)
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Project", "Status", "Open", "Description"})
		for _, p := range list {
			t.AppendRow(table.Row{p.Name, p.Status, p.OpenTasks, p.Description})
		}
		t.Render()
		return nil
	},
}

var newProjectCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		p, err := v.CreateProject(args[0], projectDescription)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(p)
		}
		fmt.Printf("%s created project %q (%s.md)\n", okMark("✓"), p.Name, p.Slug)
		return nil
	},
}

func init() {
	listProjectCmd.Flags().StringVarP(&projectStatus, "status", "s", "", "active, paused, done or all")
	newProjectCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "one-line description")
	projectCmd.AddCommand(listProjectCmd, newProjectCmd)
}
