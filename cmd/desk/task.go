package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/deskmate/task"
)

var (
	taskStatus       string
	taskAssignee     string
	taskPriority     string
	taskProject      string
	taskDue          string
	taskBlockedBy    string
	taskFollowUp     string
	taskTags         []string
	taskBody         string
	taskNewTitle     string
	taskSearch       string
	taskLimit        int
	taskListAssignee string
	taskListStatus   string
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Short:   "Manage tasks",
	Aliases: []string{"t"},
}

var newTaskCmd = &cobra.Command{
	Use:     "new <title>",
	Short:   "Create a task and add it to the board",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"n"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		t, err := v.CreateTask(args[0], changedFields(cmd))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(t)
		}
		fmt.Printf("%s created %q (%s)\n", okMark("✓"), t.Title, t.Status)
		return nil
	},
}

var listTaskCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks, newest first",
	Aliases: []string{"ls"},
	RunE: func(_ *cobra.Command, _ []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		list, err := v.ListTasks(task.Filter{
			Assignee: taskListAssignee,
			Status:   taskListStatus,
			Project:  taskProject,
			Search:   taskSearch,
			Limit:    taskLimit,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(list)
		}
		renderTasks(list)
		return nil
	},
}

var updateTaskCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		t, err := v.UpdateTask(args[0], changedFields(cmd))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(t)
		}
		fmt.Printf("%s updated %q (%s)\n", okMark("✓"), t.Title, t.Status)
		return nil
	},
}

var doneTaskCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		t, err := v.CompleteTask(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(t)
		}
		fmt.Printf("%s done %q\n", okMark("✓"), t.Title)
		return nil
	},
}

var archiveTaskCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move a task to the archive and off the board",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		t, err := v.ArchiveTask(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(t)
		}
		fmt.Printf("%s archived %q\n", okMark("✓"), t.Title)
		return nil
	},
}

var deleteTaskCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Permanently delete a task",
	Args:    cobra.ExactArgs(1),
	Aliases: []string{"delete"},
	RunE: func(_ *cobra.Command, args []string) error {
		v, err := desk.Vault()
		if err != nil {
			return err
		}
		title, err := v.DeleteTask(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]string{"deleted": title})
		}
		fmt.Printf("%s deleted %q\n", warnMark("✗"), title)
		return nil
	},
}

// changedFields returns the task attributes whose flags were set.
func changedFields(cmd *cobra.Command) task.Fields {
	var f task.Fields
	flags := cmd.Flags()
	if flags.Changed("title") {
		f.Title = &taskNewTitle
	}
	if flags.Changed("status") {
		s := task.Status(taskStatus)
		f.Status = &s
	}
	if flags.Changed("assignee") {
		a := task.Assignee(taskAssignee)
		f.Assignee = &a
	}
	if flags.Changed("priority") {
		p := task.Priority(taskPriority)
		f.Priority = &p
	}
	if flags.Changed("project") {
		f.Project = &taskProject
	}
	if flags.Changed("due") {
		f.DueDate = &taskDue
	}
	if flags.Changed("blocked-by") {
		f.BlockedBy = &taskBlockedBy
	}
	if flags.Changed("follow-up") {
		f.FollowUpDate = &taskFollowUp
	}
	if flags.Changed("tag") {
		f.Tags = append([]string{}, taskTags...)
	}
	if flags.Changed("body") {
		f.Body = &taskBody
	}
	return f
}

func statusColor(s task.Status) string {
	switch s {
	case task.StatusWorking:
		return text.FgHiYellow.Sprint(s)
	case task.StatusNext:
		return text.FgHiBlue.Sprint(s)
	case task.StatusBlocked:
		return text.FgHiRed.Sprint(s)
	case task.StatusDone:
		return text.FgHiGreen.Sprint(s)
	default:
		return string(s)
	}
}

func renderTasks(list []*task.Task) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Title", "Status", "Assignee", "Priority", "Project", "Due"})
	for _, tk := range list {
		t.AppendRow(table.Row{tk.Title, statusColor(tk.Status), tk.Assignee, tk.Priority, tk.Project, tk.DueDate})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d tasks", len(list))})
	t.Render()
}

func addFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&taskStatus, "status", "s", "", "backlog, next, working, blocked or done")
	f.StringVarP(&taskAssignee, "assignee", "a", "", "me or assistant")
	f.StringVarP(&taskPriority, "priority", "p", "", "low, medium or high")
	f.StringVar(&taskProject, "project", "", "project name")
	f.StringVar(&taskDue, "due", "", "due date, YYYY-MM-DD")
	f.StringVar(&taskBlockedBy, "blocked-by", "", "what the task waits on")
	f.StringVar(&taskFollowUp, "follow-up", "", "follow-up date, YYYY-MM-DD")
	f.StringSliceVarP(&taskTags, "tag", "t", nil, "tags (repeatable)")
	f.StringVar(&taskBody, "body", "", "notes")
}

func init() {
	addFieldFlags(newTaskCmd)
	addFieldFlags(updateTaskCmd)
	updateTaskCmd.Flags().StringVar(&taskNewTitle, "title", "", "new title (renames the file)")

	lf := listTaskCmd.Flags()
	lf.StringVarP(&taskListAssignee, "assignee", "a", "", "me, assistant or all")
	lf.StringVarP(&taskListStatus, "status", "s", "", "a status, active or all")
	lf.StringVar(&taskProject, "project", "", "project name")
	lf.StringVarP(&taskSearch, "search", "q", "", "text in title or body")
	lf.IntVarP(&taskLimit, "limit", "n", 0, "maximum tasks")

	taskCmd.AddCommand(newTaskCmd, listTaskCmd, updateTaskCmd, doneTaskCmd, archiveTaskCmd, deleteTaskCmd)
}
