package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmcleod/deskhand/client"
	"github.com/jmcleod/deskhand/store"
)

var taskNotes string

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.tasks.Refresh(cmd.Context()); err != nil {
			return describeFailure(err)
		}
		entries := s.tasks.Snapshot()
		if len(entries) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		printTasks(entries)
		return nil
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		title := strings.Join(args, " ")
		fields := client.TaskFields{Title: &title}
		if taskNotes != "" {
			fields.Notes = &taskNotes
		}
		entry, err := s.tasks.Create(cmd.Context(), fields)
		if err != nil {
			return describeFailure(err)
		}
		fmt.Printf("Added %q (%s).\n", entry.Task.Title, entry.Task.ID)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetCompleted(true),
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Mark a completed task as open again",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetCompleted(false),
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveTask(cmd, s, args[0])
		if err != nil {
			return err
		}
		if err := s.tasks.Delete(cmd.Context(), id); err != nil {
			return describeFailure(err)
		}
		fmt.Printf("Deleted %s.\n", id)
		return nil
	},
}

func runSetCompleted(completed bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveTask(cmd, s, args[0])
		if err != nil {
			return err
		}
		entry, err := s.tasks.Update(cmd.Context(), id, client.TaskFields{Completed: &completed})
		if err != nil {
			return describeFailure(err)
		}
		state := "open"
		if entry.Task.Completed {
			state = "done"
		}
		fmt.Printf("%q is now %s.\n", entry.Task.Title, state)
		return nil
	}
}

// resolveTask refreshes the snapshot and accepts either a full task id
// or an unambiguous prefix of one.
func resolveTask(cmd *cobra.Command, s *sdk, ref string) (string, error) {
	if err := s.tasks.Refresh(cmd.Context()); err != nil {
		return "", describeFailure(err)
	}
	if _, ok := s.tasks.Get(ref); ok {
		return ref, nil
	}
	var match string
	for _, e := range s.tasks.Snapshot() {
		if strings.HasPrefix(e.Task.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", ref)
			}
			match = e.Task.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no task matches %q", ref)
	}
	return match, nil
}

func printTasks(entries []store.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tTITLE\tNOTES")
	for _, e := range entries {
		state := "open"
		switch {
		case e.Pending:
			state = "pending"
		case e.Task.Completed:
			state = "done"
		}
		id := e.Task.ID
		if id == "" {
			id = "-"
		} else if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, state, e.Task.Title, e.Task.Notes)
	}
	w.Flush()
}

func init() {
	taskAddCmd.Flags().StringVar(&taskNotes, "notes", "", "free-form notes for the task")
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskReopenCmd)
	taskCmd.AddCommand(taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
