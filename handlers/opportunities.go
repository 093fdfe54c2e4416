// ABOUTME: Opportunity MCP tool handlers
// ABOUTME: Implements add_opportunity, update_opportunity, move_opportunity, and pipeline_board tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"github.com/harperreed/agentcrm/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type OpportunityHandlers struct {
	store  *db.EntityStore
	engine *pipeline.Engine
}

func NewOpportunityHandlers(store *db.EntityStore, engine *pipeline.Engine) *OpportunityHandlers {
	return &OpportunityHandlers{store: store, engine: engine}
}

type AddOpportunityInput struct {
	Name              string  `json:"name" jsonschema:"Opportunity name (required)"`
	ClientID          string  `json:"client_id,omitempty" jsonschema:"ID of the client this opportunity belongs to"`
	ClientName        string  `json:"client_name,omitempty" jsonschema:"Client full name, used when client_id is not given"`
	Value             float64 `json:"value,omitempty" jsonschema:"Deal value in BRL"`
	Stage             string  `json:"stage,omitempty" jsonschema:"Initial stage (novo-lead, contato-inicial, qualificacao, proposta, negociacao, fechado-ganhou, fechado-perdeu)"`
	NextAction        string  `json:"next_action,omitempty" jsonschema:"Next action to take"`
	Description       string  `json:"description,omitempty" jsonschema:"Description"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema:"Expected close date (YYYY-MM-DD)"`
}

type OpportunityOutput struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	ClientID          string  `json:"client_id,omitempty"`
	ClientName        string  `json:"client_name,omitempty"`
	Value             float64 `json:"value"`
	Stage             string  `json:"stage"`
	StageName         string  `json:"stage_name"`
	NextAction        string  `json:"next_action,omitempty"`
	Description       string  `json:"description,omitempty"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func (h *OpportunityHandlers) AddOpportunity(_ context.Context, request *mcp.CallToolRequest, input AddOpportunityInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	if input.Name == "" {
		return nil, OpportunityOutput{}, fmt.Errorf("name is required")
	}
	if input.ExpectedCloseDate != "" {
		if _, err := time.Parse(models.DateLayout, input.ExpectedCloseDate); err != nil {
			return nil, OpportunityOutput{}, fmt.Errorf("invalid expected_close_date (use YYYY-MM-DD): %w", err)
		}
	}

	opp := models.Opportunity{
		Name:              input.Name,
		ClientName:        input.ClientName,
		Value:             input.Value,
		Stage:             input.Stage,
		NextAction:        input.NextAction,
		Description:       input.Description,
		ExpectedCloseDate: input.ExpectedCloseDate,
	}

	// Link by id when given so later renames don't break the won cascade
	if input.ClientID != "" {
		client, err := h.store.Client(input.ClientID)
		if err != nil {
			return nil, OpportunityOutput{}, fmt.Errorf("failed to lookup client: %w", err)
		}
		opp.ClientID = client.ID
		opp.ClientName = client.FullName
	}

	created, err := h.store.AddOpportunity(opp)
	if err != nil {
		return nil, OpportunityOutput{}, fmt.Errorf("failed to create opportunity: %w", err)
	}

	return nil, opportunityToOutput(created), nil
}

type UpdateOpportunityInput struct {
	ID                string   `json:"id" jsonschema:"Opportunity ID (required)"`
	Name              string   `json:"name,omitempty" jsonschema:"New name"`
	ClientID          string   `json:"client_id,omitempty" jsonschema:"Relink to this client ID"`
	ClientName        string   `json:"client_name,omitempty" jsonschema:"Relink to this client name (ignored when client_id is given)"`
	Value             *float64 `json:"value,omitempty" jsonschema:"New deal value in BRL"`
	NextAction        string   `json:"next_action,omitempty" jsonschema:"New next action"`
	Description       string   `json:"description,omitempty" jsonschema:"New description"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty" jsonschema:"New expected close date (YYYY-MM-DD)"`
}

// UpdateOpportunity edits everything but the stage, which only moves through
// move_opportunity so the won cascade always runs.
func (h *OpportunityHandlers) UpdateOpportunity(_ context.Context, request *mcp.CallToolRequest, input UpdateOpportunityInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	if input.ID == "" {
		return nil, OpportunityOutput{}, fmt.Errorf("id is required")
	}
	if input.Value != nil && *input.Value < 0 {
		return nil, OpportunityOutput{}, fmt.Errorf("value must not be negative")
	}
	if input.ExpectedCloseDate != "" {
		if _, err := time.Parse(models.DateLayout, input.ExpectedCloseDate); err != nil {
			return nil, OpportunityOutput{}, fmt.Errorf("invalid expected_close_date (use YYYY-MM-DD): %w", err)
		}
	}

	opp, err := h.store.Opportunity(input.ID)
	if err != nil {
		return nil, OpportunityOutput{}, fmt.Errorf("opportunity not found: %s", input.ID)
	}

	if input.Name != "" {
		opp.Name = input.Name
	}
	switch {
	case input.ClientID != "":
		client, err := h.store.Client(input.ClientID)
		if err != nil {
			return nil, OpportunityOutput{}, fmt.Errorf("failed to lookup client: %w", err)
		}
		opp.ClientID = client.ID
		opp.ClientName = client.FullName
	case input.ClientName != "":
		opp.ClientID = ""
		opp.ClientName = input.ClientName
	}
	if input.Value != nil {
		opp.Value = *input.Value
	}
	if input.NextAction != "" {
		opp.NextAction = input.NextAction
	}
	if input.Description != "" {
		opp.Description = input.Description
	}
	if input.ExpectedCloseDate != "" {
		opp.ExpectedCloseDate = input.ExpectedCloseDate
	}

	ok, err := h.store.UpdateOpportunity(opp)
	if err != nil {
		return nil, OpportunityOutput{}, fmt.Errorf("failed to update opportunity: %w", err)
	}
	if !ok {
		return nil, OpportunityOutput{}, fmt.Errorf("opportunity not found: %s", input.ID)
	}

	return nil, opportunityToOutput(opp), nil
}

type MoveOpportunityInput struct {
	ID    string `json:"id" jsonschema:"Opportunity ID (required)"`
	Stage string `json:"stage" jsonschema:"Target stage id (required)"`
}

type MoveOpportunityOutput struct {
	Opportunity OpportunityOutput `json:"opportunity"`
	ClientWon   *ClientOutput     `json:"client_won,omitempty"`
}

func (h *OpportunityHandlers) MoveOpportunity(_ context.Context, request *mcp.CallToolRequest, input MoveOpportunityInput) (*mcp.CallToolResult, MoveOpportunityOutput, error) {
	if input.ID == "" {
		return nil, MoveOpportunityOutput{}, fmt.Errorf("id is required")
	}
	if input.Stage == "" {
		return nil, MoveOpportunityOutput{}, fmt.Errorf("stage is required")
	}

	opp, err := h.engine.MoveToStage(input.ID, input.Stage)
	if err != nil {
		return nil, MoveOpportunityOutput{}, fmt.Errorf("failed to move opportunity: %w", err)
	}

	out := MoveOpportunityOutput{Opportunity: opportunityToOutput(opp)}
	if opp.Stage == models.StageClosedWon {
		out.ClientWon = h.wonClient(opp)
	}
	return nil, out, nil
}

// wonClient reports the client the cascade updated, if any.
func (h *OpportunityHandlers) wonClient(opp models.Opportunity) *ClientOutput {
	client, ok := h.engine.ClientFor(opp)
	if !ok || client.Status != models.ClientStatusClosedWon {
		return nil
	}
	out := clientToOutput(client)
	return &out
}

type PipelineBoardInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Only return this column"`
}

type ColumnOutput struct {
	Stage         string              `json:"stage"`
	Name          string              `json:"name"`
	Count         int                 `json:"count"`
	Total         float64             `json:"total"`
	Opportunities []OpportunityOutput `json:"opportunities"`
}

type PipelineBoardOutput struct {
	Columns []ColumnOutput `json:"columns"`
}

func (h *OpportunityHandlers) PipelineBoard(_ context.Context, request *mcp.CallToolRequest, input PipelineBoardInput) (*mcp.CallToolResult, PipelineBoardOutput, error) {
	stage := strings.TrimSpace(input.Stage)
	if stage != "" && !models.IsValidStage(stage) {
		return nil, PipelineBoardOutput{}, fmt.Errorf("unknown stage: %s", stage)
	}

	columns := []ColumnOutput{}
	for _, col := range h.engine.Board() {
		if stage != "" && col.Stage != stage {
			continue
		}
		opps := make([]OpportunityOutput, len(col.Opportunities))
		for i, o := range col.Opportunities {
			opps[i] = opportunityToOutput(o)
		}
		columns = append(columns, ColumnOutput{
			Stage:         col.Stage,
			Name:          col.Name,
			Count:         len(opps),
			Total:         col.Total,
			Opportunities: opps,
		})
	}

	return nil, PipelineBoardOutput{Columns: columns}, nil
}

func opportunityToOutput(o models.Opportunity) OpportunityOutput {
	return OpportunityOutput{
		ID:                o.ID,
		Name:              o.Name,
		ClientID:          o.ClientID,
		ClientName:        o.ClientName,
		Value:             o.Value,
		Stage:             o.Stage,
		StageName:         models.StageName(o.Stage),
		NextAction:        o.NextAction,
		Description:       o.Description,
		ExpectedCloseDate: o.ExpectedCloseDate,
		CreatedAt:         formatTime(o.CreatedAt),
	}
}
