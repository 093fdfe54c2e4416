// ABOUTME: Tests for dashboard and graph MCP handlers
// ABOUTME: Checks the stats payload and DOT generation with and without client nodes
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDashboardStatsHandler(t *testing.T) {
	e := newEnv(t)
	h := NewVizHandlers(e.store, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := e.store.AddClient(models.Client{FullName: "Ana Silva", State: "SP", City: "Campinas"})
	require.NoError(t, err)
	_, err = e.store.AddOpportunity(models.Opportunity{Name: "Site", Value: 1500.5, Stage: models.StageClosedWon})
	require.NoError(t, err)
	_, err = e.store.AddOpportunity(models.Opportunity{Name: "App", Value: 900})
	require.NoError(t, err)

	_, out, err := h.DashboardStats(ctx, nil, DashboardStatsInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, out.TotalClients)
	assert.Equal(t, 1, out.NewClients)
	assert.Equal(t, 2, out.TotalOpportunities)
	assert.Equal(t, 1, out.WonCount)
	assert.Equal(t, 50, out.ConversionRate)
	assert.Equal(t, "R$1.500,50", out.TotalRevenueBRL)
	assert.Len(t, out.MonthlySales, 12)
	assert.Len(t, out.Pipeline, 7)
	require.NotNil(t, out.LastClient)
	assert.Equal(t, "Ana Silva", out.LastClient.FullName)
}

func TestDashboardStatsHandlerEmpty(t *testing.T) {
	e := newEnv(t)
	h := NewVizHandlers(e.store, nil)

	_, out, err := h.DashboardStats(context.Background(), nil, DashboardStatsInput{Year: 2023})
	require.NoError(t, err)
	assert.Equal(t, 2023, out.Year)
	assert.Equal(t, 0, out.ConversionRate)
	assert.Nil(t, out.LastClient)
	assert.NotNil(t, out.ClientsByState)
}

func TestPipelineGraphHandler(t *testing.T) {
	e := newEnv(t)
	h := NewVizHandlers(e.store, zaptest.NewLogger(t))
	ctx := context.Background()

	client, err := e.store.AddClient(models.Client{FullName: "Ana Silva"})
	require.NoError(t, err)
	opp, err := e.store.AddOpportunity(models.Opportunity{Name: "Site", ClientID: client.ID, Value: 1000})
	require.NoError(t, err)

	_, plain, err := h.PipelineGraph(ctx, nil, PipelineGraphInput{})
	require.NoError(t, err)
	assert.Contains(t, plain.DOTSource, "digraph")
	assert.Contains(t, plain.DOTSource, "opp_"+opp.ID)
	assert.NotContains(t, plain.DOTSource, "client_"+client.ID)
	assert.Positive(t, plain.EdgeCount)

	_, linked, err := h.PipelineGraph(ctx, nil, PipelineGraphInput{IncludeClients: true})
	require.NoError(t, err)
	assert.Contains(t, linked.DOTSource, "client_"+client.ID)
	assert.Greater(t, linked.EdgeCount, plain.EdgeCount)
	assert.Greater(t, linked.NodeCount, plain.NodeCount)
}
