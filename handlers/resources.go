// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to clients, opportunities, the pipeline, and agent chats via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ResourceHandlers struct {
	store   *db.EntityStore
	engine  *pipeline.Engine
	agents  *db.AgentDirectory
	history *chat.Manager
}

func NewResourceHandlers(store *db.EntityStore, engine *pipeline.Engine, agents *db.AgentDirectory, history *chat.Manager) *ResourceHandlers {
	return &ResourceHandlers{store: store, engine: engine, agents: agents, history: history}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "crm://"), "/")

	switch parts[0] {
	case "clients":
		if len(parts) == 1 {
			return h.readAllClients(uri)
		}
		return h.readClient(uri, parts[1])

	case "opportunities":
		return h.readAllOpportunities(uri)

	case "pipeline":
		return h.readPipeline(uri)

	case "agents":
		if len(parts) == 1 {
			return h.readAllAgents(uri)
		}
		if len(parts) == 3 && parts[2] == "history" {
			return h.readAgentHistory(uri, parts[1])
		}
		return nil, mcp.ResourceNotFoundError(uri)

	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func (h *ResourceHandlers) readAllClients(uri string) (*mcp.ReadResourceResult, error) {
	clients := h.store.Clients()
	out := make([]ClientOutput, len(clients))
	for i, c := range clients {
		out[i] = clientToOutput(c)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readClient(uri, id string) (*mcp.ReadResourceResult, error) {
	client, err := h.store.Client(id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	opps := h.store.OpportunitiesForClient(id)
	clientData := struct {
		ClientOutput
		Opportunities []OpportunityOutput `json:"opportunities"`
	}{
		ClientOutput:  clientToOutput(client),
		Opportunities: make([]OpportunityOutput, len(opps)),
	}
	for i, o := range opps {
		clientData.Opportunities[i] = opportunityToOutput(o)
	}

	return jsonResource(uri, clientData)
}

func (h *ResourceHandlers) readAllOpportunities(uri string) (*mcp.ReadResourceResult, error) {
	opps := h.store.Opportunities()
	out := make([]OpportunityOutput, len(opps))
	for i, o := range opps {
		out[i] = opportunityToOutput(o)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readPipeline(uri string) (*mcp.ReadResourceResult, error) {
	type stageSummary struct {
		Stage string  `json:"stage"`
		Name  string  `json:"name"`
		Count int     `json:"count"`
		Total float64 `json:"total_value"`
	}

	board := h.engine.Board()
	out := make([]stageSummary, len(board))
	for i, col := range board {
		out[i] = stageSummary{Stage: col.Stage, Name: col.Name, Count: len(col.Opportunities), Total: col.Total}
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readAllAgents(uri string) (*mcp.ReadResourceResult, error) {
	agents := h.agents.List()
	out := make([]AgentOutput, len(agents))
	for i, a := range agents {
		out[i] = agentToOutput(a)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readAgentHistory(uri, agentID string) (*mcp.ReadResourceResult, error) {
	if _, err := h.agents.Get(agentID); err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	messages := h.history.History(agentID)
	out := make([]MessageOutput, len(messages))
	for i, m := range messages {
		out[i] = messageToOutput(m)
	}
	return jsonResource(uri, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
