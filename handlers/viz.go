// ABOUTME: Dashboard and GraphViz MCP handlers
// ABOUTME: Provides dashboard_stats and pipeline_graph tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type VizHandlers struct {
	store  *db.EntityStore
	logger *zap.Logger
}

func NewVizHandlers(store *db.EntityStore, logger *zap.Logger) *VizHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VizHandlers{store: store, logger: logger}
}

type DashboardStatsInput struct {
	Year int `json:"year,omitempty" jsonschema:"Year for the monthly sales series (default current year)"`
}

type StageStatsOutput struct {
	Stage string  `json:"stage"`
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type BucketOutput struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type DashboardStatsOutput struct {
	Year               int                `json:"year"`
	NewClients         int                `json:"new_clients"`
	TotalClients       int                `json:"total_clients"`
	TotalOpportunities int                `json:"total_opportunities"`
	PendingTasks       int                `json:"pending_tasks"`
	WonCount           int                `json:"won_count"`
	ConversionRate     int                `json:"conversion_rate"`
	TotalRevenue       float64            `json:"total_revenue"`
	TotalRevenueBRL    string             `json:"total_revenue_brl"`
	LastClient         *ClientOutput      `json:"last_client,omitempty"`
	MonthlySales       []float64          `json:"monthly_sales"`
	Pipeline           []StageStatsOutput `json:"pipeline"`
	ClientsByState     []BucketOutput     `json:"clients_by_state"`
	ClientsByCityState []BucketOutput     `json:"clients_by_city_state"`
}

func (h *VizHandlers) DashboardStats(_ context.Context, request *mcp.CallToolRequest, input DashboardStatsInput) (*mcp.CallToolResult, DashboardStatsOutput, error) {
	year := input.Year
	if year == 0 {
		year = viz.CurrentYear()
	}

	stats := viz.GenerateDashboardStats(h.store.Clients(), h.store.Opportunities(), h.store.Tasks(), year)

	out := DashboardStatsOutput{
		Year:               stats.Year,
		NewClients:         stats.NewClients,
		TotalClients:       stats.TotalClients,
		TotalOpportunities: stats.TotalOpportunities,
		PendingTasks:       stats.PendingTasks,
		WonCount:           stats.WonCount,
		ConversionRate:     stats.ConversionRate,
		TotalRevenue:       stats.TotalRevenue,
		TotalRevenueBRL:    viz.FormatBRL(stats.TotalRevenue),
		MonthlySales:       stats.MonthlySales[:],
		Pipeline:           make([]StageStatsOutput, len(stats.Pipeline)),
		ClientsByState:     bucketsToOutput(stats.ClientsByState),
		ClientsByCityState: bucketsToOutput(stats.ClientsByCityState),
	}
	if stats.LastClient != nil {
		last := clientToOutput(*stats.LastClient)
		out.LastClient = &last
	}
	for i, p := range stats.Pipeline {
		out.Pipeline[i] = StageStatsOutput{Stage: p.Stage, Name: p.Name, Count: p.Count, Value: p.Value}
	}

	return nil, out, nil
}

func bucketsToOutput(buckets []viz.Bucket) []BucketOutput {
	out := make([]BucketOutput, len(buckets))
	for i, b := range buckets {
		out[i] = BucketOutput{Key: b.Key, Count: b.Count}
	}
	return out
}

type PipelineGraphInput struct {
	IncludeClients bool `json:"include_clients,omitempty" jsonschema:"Add client nodes linked to their opportunities"`
}

type PipelineGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) PipelineGraph(ctx context.Context, request *mcp.CallToolRequest, input PipelineGraphInput) (*mcp.CallToolResult, PipelineGraphOutput, error) {
	clients := h.store.Clients()
	if !input.IncludeClients {
		clients = nil
	}

	generator := viz.NewGraphGenerator(h.logger)
	out, err := generator.GeneratePipelineGraph(ctx, h.store.Opportunities(), clients, graphviz.XDOT)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	dot := string(out)
	return nil, PipelineGraphOutput{
		DOTSource: dot,
		NodeCount: strings.Count(dot, "label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
