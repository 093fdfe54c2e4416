// ABOUTME: Tests for the universal query tool handler
// ABOUTME: Covers filtering clients, opportunities, and tasks
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueryData(t *testing.T, e *env) models.Client {
	t.Helper()
	ana, err := e.store.AddClient(models.Client{FullName: "Ana Silva", Email: "ana@example.com", State: "SP", PotentialValue: 5000})
	require.NoError(t, err)
	_, err = e.store.AddClient(models.Client{FullName: "Bruno Costa", State: "RJ", PotentialValue: 800, Status: models.ClientStatusQualified})
	require.NoError(t, err)

	for _, o := range []models.Opportunity{
		{Name: "Site", ClientID: ana.ID, ClientName: ana.FullName, Value: 3000},
		{Name: "App", ClientName: "Ana Silva", Value: 12000, Stage: models.StageProposal},
		{Name: "Consultoria", ClientName: "Bruno Costa", Value: 900},
	} {
		_, err := e.store.AddOpportunity(o)
		require.NoError(t, err)
	}

	_, err = e.store.AddTask(models.Task{Name: "Ligar", Description: "retorno da proposta"})
	require.NoError(t, err)
	_, err = e.store.AddTask(models.Task{Name: "Reunião", Status: models.TaskStatusDone})
	require.NoError(t, err)
	return ana
}

func TestQueryCRMClients(t *testing.T) {
	e := newEnv(t)
	seedQueryData(t, e)
	h := NewQueryHandlers(e.store)
	ctx := context.Background()

	_, out, err := h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "client", Query: "EXAMPLE"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Ana Silva", out.Results[0].(ClientOutput).FullName)

	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "client", State: "rj"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	minValue := 1000.0
	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "client", MinValue: &minValue})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "client", Status: models.ClientStatusQualified})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Bruno Costa", out.Results[0].(ClientOutput).FullName)
}

func TestQueryCRMOpportunities(t *testing.T) {
	e := newEnv(t)
	ana := seedQueryData(t, e)
	h := NewQueryHandlers(e.store)
	ctx := context.Background()

	_, out, err := h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "opportunity", ClientID: ana.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)

	maxValue := 1000.0
	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "opportunity", MaxValue: &maxValue})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Consultoria", out.Results[0].(OpportunityOutput).Name)

	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "opportunity", Status: models.StageProposal})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "opportunity", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
}

func TestQueryCRMTasks(t *testing.T) {
	e := newEnv(t)
	seedQueryData(t, e)
	h := NewQueryHandlers(e.store)
	ctx := context.Background()

	_, out, err := h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "task", Query: "proposta"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Ligar", out.Results[0].(TaskOutput).Name)

	_, out, err = h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "task", Status: models.TaskStatusDone})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
}

func TestQueryCRMErrorsAndEmpty(t *testing.T) {
	e := newEnv(t)
	h := NewQueryHandlers(e.store)
	ctx := context.Background()

	_, _, err := h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "deal"})
	assert.Error(t, err)

	_, out, err := h.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "client"})
	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.Equal(t, 0, out.Count)
}
