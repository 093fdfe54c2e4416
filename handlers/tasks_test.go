// ABOUTME: Tests for task MCP tool handlers
// ABOUTME: Covers task validation, due-date ordering, and completion
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTaskHandler(t *testing.T) {
	e := newEnv(t)
	h := NewTaskHandlers(e.store)

	_, out, err := h.AddTask(context.Background(), nil, AddTaskInput{
		Name:    "Ligar para Ana",
		DueDate: "2024-05-02",
		DueTime: "14:30",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, models.TaskPriorityMedium, out.Priority)
	assert.Equal(t, models.TaskStatusPending, out.Status)
	assert.NotEmpty(t, out.CreatedAt)
}

func TestAddTaskHandlerValidation(t *testing.T) {
	e := newEnv(t)
	h := NewTaskHandlers(e.store)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AddTaskInput
	}{
		{"missing name", AddTaskInput{}},
		{"bad priority", AddTaskInput{Name: "X", Priority: "Urgente"}},
		{"bad date", AddTaskInput{Name: "X", DueDate: "02/05/2024"}},
		{"bad time", AddTaskInput{Name: "X", DueTime: "25:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.AddTask(ctx, nil, tt.input)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, e.store.Tasks())
}

func TestListTasksHandlerOrdering(t *testing.T) {
	e := newEnv(t)
	h := NewTaskHandlers(e.store)
	ctx := context.Background()

	for _, in := range []AddTaskInput{
		{Name: "sem data"},
		{Name: "tarde", DueDate: "2024-05-02", DueTime: "16:00"},
		{Name: "cedo", DueDate: "2024-05-02", DueTime: "09:00"},
		{Name: "antes", DueDate: "2024-04-30"},
	} {
		_, _, err := h.AddTask(ctx, nil, in)
		require.NoError(t, err)
	}

	_, out, err := h.ListTasks(ctx, nil, ListTasksInput{})
	require.NoError(t, err)
	require.Len(t, out.Tasks, 4)

	names := make([]string, len(out.Tasks))
	for i, task := range out.Tasks {
		names[i] = task.Name
	}
	assert.Equal(t, []string{"antes", "cedo", "tarde", "sem data"}, names)
}

func TestCompleteTaskHandler(t *testing.T) {
	e := newEnv(t)
	h := NewTaskHandlers(e.store)
	ctx := context.Background()

	_, task, err := h.AddTask(ctx, nil, AddTaskInput{Name: "Enviar proposta"})
	require.NoError(t, err)
	_, _, err = h.AddTask(ctx, nil, AddTaskInput{Name: "Revisar contrato"})
	require.NoError(t, err)

	_, done, err := h.CompleteTask(ctx, nil, CompleteTaskInput{ID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, done.Status)

	stored, err := e.store.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, stored.Status)

	_, pending, err := h.ListTasks(ctx, nil, ListTasksInput{PendingOnly: true})
	require.NoError(t, err)
	require.Len(t, pending.Tasks, 1)
	assert.Equal(t, "Revisar contrato", pending.Tasks[0].Name)

	_, _, err = h.CompleteTask(ctx, nil, CompleteTaskInput{ID: "missing"})
	assert.Error(t, err)
}
