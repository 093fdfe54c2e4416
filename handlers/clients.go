// ABOUTME: Client MCP tool handlers
// ABOUTME: Implements add_client, find_clients, update_client, and delete_client tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ClientHandlers struct {
	store *db.EntityStore
}

func NewClientHandlers(store *db.EntityStore) *ClientHandlers {
	return &ClientHandlers{store: store}
}

type AddClientInput struct {
	FullName       string  `json:"full_name" jsonschema:"Client full name (required)"`
	Email          string  `json:"email,omitempty" jsonschema:"Client email address"`
	Phone          string  `json:"phone,omitempty" jsonschema:"Client phone number"`
	Source         string  `json:"source,omitempty" jsonschema:"Where the lead came from (Indicação, Site, ...)"`
	Status         string  `json:"status,omitempty" jsonschema:"Client status (default Novo)"`
	PotentialValue float64 `json:"potential_value,omitempty" jsonschema:"Potential deal value in BRL"`
	Notes          string  `json:"notes,omitempty" jsonschema:"Free-form notes"`
	City           string  `json:"city,omitempty" jsonschema:"City"`
	State          string  `json:"state,omitempty" jsonschema:"Two-letter state code (UF)"`
}

type ClientOutput struct {
	ID             string  `json:"id"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Source         string  `json:"source,omitempty"`
	Status         string  `json:"status"`
	PotentialValue float64 `json:"potential_value"`
	Notes          string  `json:"notes,omitempty"`
	City           string  `json:"city,omitempty"`
	State          string  `json:"state,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func (h *ClientHandlers) AddClient(_ context.Context, request *mcp.CallToolRequest, input AddClientInput) (*mcp.CallToolResult, ClientOutput, error) {
	if input.FullName == "" {
		return nil, ClientOutput{}, fmt.Errorf("full_name is required")
	}

	client, err := h.store.AddClient(models.Client{
		FullName:       input.FullName,
		Email:          input.Email,
		Phone:          input.Phone,
		Source:         input.Source,
		Status:         input.Status,
		PotentialValue: input.PotentialValue,
		Notes:          input.Notes,
		City:           input.City,
		State:          input.State,
		CreatedBy:      "mcp",
	})
	if err != nil {
		return nil, ClientOutput{}, fmt.Errorf("failed to create client: %w", err)
	}

	return nil, clientToOutput(client), nil
}

type FindClientsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Fuzzy search over name and email"`
	Status string `json:"status,omitempty" jsonschema:"Filter by exact status"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindClientsOutput struct {
	Clients []ClientOutput `json:"clients"`
}

func (h *ClientHandlers) FindClients(_ context.Context, request *mcp.CallToolRequest, input FindClientsInput) (*mcp.CallToolResult, FindClientsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	result := []ClientOutput{}
	for _, c := range h.store.FindClients(input.Query, 0) {
		if input.Status != "" && c.Status != input.Status {
			continue
		}
		result = append(result, clientToOutput(c))
		if len(result) == limit {
			break
		}
	}

	return nil, FindClientsOutput{Clients: result}, nil
}

type UpdateClientInput struct {
	ID             string   `json:"id" jsonschema:"Client ID (required)"`
	FullName       string   `json:"full_name,omitempty" jsonschema:"Updated full name"`
	Email          string   `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone          string   `json:"phone,omitempty" jsonschema:"Updated phone number"`
	Status         string   `json:"status,omitempty" jsonschema:"Updated status"`
	PotentialValue *float64 `json:"potential_value,omitempty" jsonschema:"Updated potential value"`
	Notes          string   `json:"notes,omitempty" jsonschema:"Updated notes"`
	City           string   `json:"city,omitempty" jsonschema:"Updated city"`
	State          string   `json:"state,omitempty" jsonschema:"Updated state code"`
}

func (h *ClientHandlers) UpdateClient(_ context.Context, request *mcp.CallToolRequest, input UpdateClientInput) (*mcp.CallToolResult, ClientOutput, error) {
	if input.ID == "" {
		return nil, ClientOutput{}, fmt.Errorf("id is required")
	}

	client, err := h.store.Client(input.ID)
	if err != nil {
		return nil, ClientOutput{}, fmt.Errorf("failed to fetch client: %w", err)
	}

	if input.FullName != "" {
		client.FullName = input.FullName
	}
	if input.Email != "" {
		client.Email = input.Email
	}
	if input.Phone != "" {
		client.Phone = input.Phone
	}
	if input.Status != "" {
		client.Status = input.Status
	}
	if input.PotentialValue != nil {
		if *input.PotentialValue < 0 {
			return nil, ClientOutput{}, fmt.Errorf("potential_value must not be negative")
		}
		client.PotentialValue = *input.PotentialValue
	}
	if input.Notes != "" {
		client.Notes = input.Notes
	}
	if input.City != "" {
		client.City = input.City
	}
	if input.State != "" {
		client.State = input.State
	}

	if _, err := h.store.UpdateClient(client); err != nil {
		return nil, ClientOutput{}, fmt.Errorf("failed to update client: %w", err)
	}

	return nil, clientToOutput(client), nil
}

type DeleteClientInput struct {
	ID string `json:"id" jsonschema:"Client ID (required)"`
}

type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *ClientHandlers) DeleteClient(_ context.Context, request *mcp.CallToolRequest, input DeleteClientInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}

	deleted, err := h.store.DeleteClient(input.ID)
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete client: %w", err)
	}

	return nil, DeleteOutput{ID: input.ID, Deleted: deleted}, nil
}

func clientToOutput(c models.Client) ClientOutput {
	return ClientOutput{
		ID:             c.ID,
		FullName:       c.FullName,
		Email:          c.Email,
		Phone:          c.Phone,
		Source:         c.Source,
		Status:         c.Status,
		PotentialValue: c.PotentialValue,
		Notes:          c.Notes,
		City:           c.City,
		State:          c.State,
		CreatedAt:      formatTime(c.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
