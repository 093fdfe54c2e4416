// ABOUTME: Task CLI commands
// ABOUTME: Commands for adding, listing, completing, and deleting tasks
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/agentcrm/models"
)

// AddTaskCommand adds a task.
func AddTaskCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-task", flag.ContinueOnError)
	name := fs.String("name", "", "Task name (required)")
	description := fs.String("description", "", "Description")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	at := fs.String("at", "", "Due time (HH:MM)")
	priority := fs.String("priority", models.TaskPriorityMedium, "Priority (Alta, Média, Baixa)")
	assignee := fs.String("assignee", "", "Person responsible")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if !models.IsValidTaskPriority(*priority) {
		return fmt.Errorf("invalid --priority %q (use Alta, Média or Baixa)", *priority)
	}
	if *due != "" {
		if _, err := time.Parse(models.DateLayout, *due); err != nil {
			return fmt.Errorf("invalid --due (use YYYY-MM-DD): %w", err)
		}
	}
	if *at != "" {
		if _, err := time.Parse("15:04", *at); err != nil {
			return fmt.Errorf("invalid --at (use HH:MM): %w", err)
		}
	}

	task, err := app.Store.AddTask(models.Task{
		Name:        *name,
		Description: *description,
		DueDate:     *due,
		DueTime:     *at,
		Priority:    *priority,
		AssignedTo:  *assignee,
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Task created: %s (ID: %s)\n", task.Name, task.ID)
	return nil
}

// ListTasksCommand lists tasks.
func ListTasksCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-tasks", flag.ContinueOnError)
	pending := fs.Bool("pending", false, "Only show tasks that are not done")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var tasks []models.Task
	for _, t := range app.Store.Tasks() {
		if *pending && !t.IsPending() {
			continue
		}
		tasks = append(tasks, t)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(app.Out, "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPRIORITY\tSTATUS\tDUE\tASSIGNEE\tID")
	_, _ = fmt.Fprintln(w, "----\t--------\t------\t---\t--------\t--")
	for _, t := range tasks {
		due := t.DueDate
		if due != "" && t.DueTime != "" {
			due += " " + t.DueTime
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Name, t.Priority, t.Status, dash(due), dash(t.AssignedTo), t.ID)
	}
	return w.Flush()
}

// CompleteTaskCommand marks a task as done.
func CompleteTaskCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("complete-task", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("task ID required")
	}

	task, err := app.Store.Task(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("task not found: %w", err)
	}
	task.Status = models.TaskStatusDone
	if _, err := app.Store.UpdateTask(task); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	fmt.Fprintf(app.Out, "✓ Task completed: %s\n", task.Name)
	return nil
}

// DeleteTaskCommand deletes a task.
func DeleteTaskCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-task", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("task ID required")
	}

	deleted, err := app.Store.DeleteTask(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return fmt.Errorf("task not found: %s", fs.Arg(0))
	}

	fmt.Fprintf(app.Out, "✓ Task deleted: %s\n", fs.Arg(0))
	return nil
}
