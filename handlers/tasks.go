// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements add_task, list_tasks, and complete_task tools
package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TaskHandlers struct {
	store *db.EntityStore
}

func NewTaskHandlers(store *db.EntityStore) *TaskHandlers {
	return &TaskHandlers{store: store}
}

type AddTaskInput struct {
	Name        string `json:"name" jsonschema:"Task name (required)"`
	Description string `json:"description,omitempty" jsonschema:"Task description"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Due date (YYYY-MM-DD)"`
	DueTime     string `json:"due_time,omitempty" jsonschema:"Due time (HH:MM)"`
	Priority    string `json:"priority,omitempty" jsonschema:"Alta, Média or Baixa (default Média)"`
	AssignedTo  string `json:"assigned_to,omitempty" jsonschema:"Person responsible"`
}

type TaskOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	DueTime     string `json:"due_time,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (h *TaskHandlers) AddTask(_ context.Context, request *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.Name == "" {
		return nil, TaskOutput{}, fmt.Errorf("name is required")
	}
	if input.Priority != "" && !models.IsValidTaskPriority(input.Priority) {
		return nil, TaskOutput{}, fmt.Errorf("invalid priority: %s (valid: Alta, Média, Baixa)", input.Priority)
	}
	if input.DueDate != "" {
		if _, err := time.Parse(models.DateLayout, input.DueDate); err != nil {
			return nil, TaskOutput{}, fmt.Errorf("invalid due_date (use YYYY-MM-DD): %w", err)
		}
	}
	if input.DueTime != "" {
		if _, err := time.Parse("15:04", input.DueTime); err != nil {
			return nil, TaskOutput{}, fmt.Errorf("invalid due_time (use HH:MM): %w", err)
		}
	}

	task, err := h.store.AddTask(models.Task{
		Name:        input.Name,
		Description: input.Description,
		DueDate:     input.DueDate,
		DueTime:     input.DueTime,
		Priority:    input.Priority,
		AssignedTo:  input.AssignedTo,
	})
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to create task: %w", err)
	}
	return nil, taskToOutput(task), nil
}

type ListTasksInput struct {
	PendingOnly bool `json:"pending_only,omitempty" jsonschema:"Only return tasks that are not Concluída"`
}

type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
}

// ListTasks returns tasks ordered by due date; tasks without one come last.
func (h *TaskHandlers) ListTasks(_ context.Context, request *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	tasks := h.store.Tasks()
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a+tasks[i].DueTime < b+tasks[j].DueTime
	})

	result := []TaskOutput{}
	for _, t := range tasks {
		if input.PendingOnly && !t.IsPending() {
			continue
		}
		result = append(result, taskToOutput(t))
	}
	return nil, ListTasksOutput{Tasks: result}, nil
}

type CompleteTaskInput struct {
	ID string `json:"id" jsonschema:"Task ID (required)"`
}

func (h *TaskHandlers) CompleteTask(_ context.Context, request *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ID == "" {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}

	task, err := h.store.Task(input.ID)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to fetch task: %w", err)
	}
	task.Status = models.TaskStatusDone
	if _, err := h.store.UpdateTask(task); err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to complete task: %w", err)
	}
	return nil, taskToOutput(task), nil
}

func taskToOutput(t models.Task) TaskOutput {
	return TaskOutput{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		Priority:    t.Priority,
		Status:      t.Status,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   formatTime(t.CreatedAt),
	}
}
