// ABOUTME: Tests for client MCP tool handlers
// ABOUTME: Validates tool input/output and error handling
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddClientHandler(t *testing.T) {
	e := newEnv(t)
	h := NewClientHandlers(e.store)

	_, out, err := h.AddClient(context.Background(), nil, AddClientInput{
		FullName:       "Ana Silva",
		Email:          "ana@example.com",
		PotentialValue: 1500,
		City:           "Campinas",
		State:          "SP",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Ana Silva", out.FullName)
	assert.Equal(t, models.ClientStatusNew, out.Status)
	assert.NotEmpty(t, out.CreatedAt)

	stored, err := e.store.Client(out.ID)
	require.NoError(t, err)
	assert.Equal(t, "mcp", stored.CreatedBy)
	assert.Equal(t, "SP", stored.State)
}

func TestAddClientHandlerValidation(t *testing.T) {
	e := newEnv(t)
	h := NewClientHandlers(e.store)

	_, _, err := h.AddClient(context.Background(), nil, AddClientInput{})
	assert.Error(t, err)

	_, _, err = h.AddClient(context.Background(), nil, AddClientInput{FullName: "X", PotentialValue: -1})
	assert.Error(t, err)
	assert.Empty(t, e.store.Clients())
}

func TestFindClientsHandler(t *testing.T) {
	e := newEnv(t)
	h := NewClientHandlers(e.store)
	ctx := context.Background()

	for _, name := range []string{"Ana Silva", "Bruno Costa", "Ana Paula"} {
		_, _, err := h.AddClient(ctx, nil, AddClientInput{FullName: name})
		require.NoError(t, err)
	}
	_, _, err := h.AddClient(ctx, nil, AddClientInput{FullName: "Anabela Reis", Status: models.ClientStatusQualified})
	require.NoError(t, err)

	_, out, err := h.FindClients(ctx, nil, FindClientsInput{Query: "ana"})
	require.NoError(t, err)
	names := make([]string, len(out.Clients))
	for i, c := range out.Clients {
		names[i] = c.FullName
	}
	assert.ElementsMatch(t, []string{"Ana Silva", "Ana Paula", "Anabela Reis"}, names)

	_, out, err = h.FindClients(ctx, nil, FindClientsInput{Query: "ana", Status: models.ClientStatusQualified})
	require.NoError(t, err)
	require.Len(t, out.Clients, 1)
	assert.Equal(t, "Anabela Reis", out.Clients[0].FullName)

	_, out, err = h.FindClients(ctx, nil, FindClientsInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Clients, 2)

	_, out, err = h.FindClients(ctx, nil, FindClientsInput{Query: "zzz"})
	require.NoError(t, err)
	assert.NotNil(t, out.Clients)
	assert.Empty(t, out.Clients)
}

func TestUpdateClientHandler(t *testing.T) {
	e := newEnv(t)
	h := NewClientHandlers(e.store)
	ctx := context.Background()

	_, created, err := h.AddClient(ctx, nil, AddClientInput{FullName: "Ana Silva", PotentialValue: 100})
	require.NoError(t, err)

	zero := 0.0
	_, out, err := h.UpdateClient(ctx, nil, UpdateClientInput{
		ID:             created.ID,
		Status:         models.ClientStatusContacted,
		PotentialValue: &zero,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClientStatusContacted, out.Status)
	assert.Equal(t, 0.0, out.PotentialValue)
	assert.Equal(t, "Ana Silva", out.FullName)

	stored, err := e.store.Client(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClientStatusContacted, stored.Status)

	_, _, err = h.UpdateClient(ctx, nil, UpdateClientInput{ID: "missing", Status: "x"})
	assert.Error(t, err)

	_, _, err = h.UpdateClient(ctx, nil, UpdateClientInput{})
	assert.Error(t, err)
}

func TestDeleteClientHandler(t *testing.T) {
	e := newEnv(t)
	h := NewClientHandlers(e.store)
	ctx := context.Background()

	_, created, err := h.AddClient(ctx, nil, AddClientInput{FullName: "Ana Silva"})
	require.NoError(t, err)

	_, out, err := h.DeleteClient(ctx, nil, DeleteClientInput{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.Empty(t, e.store.Clients())

	_, out, err = h.DeleteClient(ctx, nil, DeleteClientInput{ID: created.ID})
	require.NoError(t, err)
	assert.False(t, out.Deleted)
}
