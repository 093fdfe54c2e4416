// ABOUTME: Universal query tool handler
// ABOUTME: Implements flexible filtering across clients, opportunities, and tasks
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/agentcrm/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type QueryHandlers struct {
	store *db.EntityStore
}

func NewQueryHandlers(store *db.EntityStore) *QueryHandlers {
	return &QueryHandlers{store: store}
}

type QueryCRMInput struct {
	EntityType string   `json:"entity_type" jsonschema:"Type of entity to query (client, opportunity, task)"`
	Query      string   `json:"query,omitempty" jsonschema:"Case-insensitive text search (client name/email, opportunity or task name)"`
	Status     string   `json:"status,omitempty" jsonschema:"Exact client status, opportunity stage id, or task status"`
	State      string   `json:"state,omitempty" jsonschema:"Client state code (clients only)"`
	ClientID   string   `json:"client_id,omitempty" jsonschema:"Opportunities linked to this client"`
	MinValue   *float64 `json:"min_value,omitempty" jsonschema:"Minimum value (clients: potential value, opportunities: value)"`
	MaxValue   *float64 `json:"max_value,omitempty" jsonschema:"Maximum value"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryCRMOutput struct {
	EntityType string        `json:"entity_type"`
	Results    []interface{} `json:"results"`
	Count      int           `json:"count"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, req *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	if input.Limit == 0 {
		input.Limit = 10
	}

	var results []interface{}
	switch input.EntityType {
	case "client":
		results = h.queryClients(input)
	case "opportunity":
		results = h.queryOpportunities(input)
	case "task":
		results = h.queryTasks(input)
	default:
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: client, opportunity, task)", input.EntityType)
	}

	if results == nil {
		results = []interface{}{}
	}
	return nil, QueryCRMOutput{
		EntityType: input.EntityType,
		Results:    results,
		Count:      len(results),
	}, nil
}

func (h *QueryHandlers) queryClients(input QueryCRMInput) []interface{} {
	var results []interface{}
	for _, c := range h.store.Clients() {
		if !contains(c.FullName+" "+c.Email, input.Query) {
			continue
		}
		if input.Status != "" && c.Status != input.Status {
			continue
		}
		if input.State != "" && !strings.EqualFold(c.State, input.State) {
			continue
		}
		if !inRange(c.PotentialValue, input.MinValue, input.MaxValue) {
			continue
		}
		results = append(results, clientToOutput(c))
		if len(results) == input.Limit {
			break
		}
	}
	return results
}

func (h *QueryHandlers) queryOpportunities(input QueryCRMInput) []interface{} {
	opps := h.store.Opportunities()
	if input.ClientID != "" {
		opps = h.store.OpportunitiesForClient(input.ClientID)
	}

	var results []interface{}
	for _, o := range opps {
		if !contains(o.Name+" "+o.ClientName, input.Query) {
			continue
		}
		if input.Status != "" && o.Stage != input.Status {
			continue
		}
		if !inRange(o.Value, input.MinValue, input.MaxValue) {
			continue
		}
		results = append(results, opportunityToOutput(o))
		if len(results) == input.Limit {
			break
		}
	}
	return results
}

func (h *QueryHandlers) queryTasks(input QueryCRMInput) []interface{} {
	var results []interface{}
	for _, t := range h.store.Tasks() {
		if !contains(t.Name+" "+t.Description, input.Query) {
			continue
		}
		if input.Status != "" && t.Status != input.Status {
			continue
		}
		results = append(results, taskToOutput(t))
		if len(results) == input.Limit {
			break
		}
	}
	return results
}

func contains(haystack, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(query))
}

func inRange(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

