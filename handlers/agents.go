// ABOUTME: AI agent MCP tool handlers
// ABOUTME: Implements agent CRUD and update plus send_agent_message, agent_history, and clear_agent_history
package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AgentHandlers struct {
	agents *db.AgentDirectory
	chat   *chat.Service

	mu       sync.Mutex
	sessions map[string]*chat.Session
}

func NewAgentHandlers(agents *db.AgentDirectory, service *chat.Service) *AgentHandlers {
	return &AgentHandlers{
		agents:   agents,
		chat:     service,
		sessions: make(map[string]*chat.Session),
	}
}

type AddAgentInput struct {
	Name          string   `json:"name" jsonschema:"Agent name (required)"`
	Description   string   `json:"description,omitempty" jsonschema:"What the agent knows about; sent as conversation context"`
	SystemPrompt  string   `json:"system_prompt,omitempty" jsonschema:"Personality and instructions for the agent"`
	Model         string   `json:"model,omitempty" jsonschema:"Gemini model id (default gemini-2.0-flash)"`
	Temperature   float64  `json:"temperature,omitempty" jsonschema:"Sampling temperature (default 0.7)"`
	MaxTokens     int      `json:"max_tokens,omitempty" jsonschema:"Maximum reply tokens (default 1024)"`
	TriggerEvents []string `json:"trigger_events,omitempty" jsonschema:"Event tags this agent reacts to"`
}

type AgentOutput struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	SystemPrompt  string   `json:"system_prompt,omitempty"`
	Model         string   `json:"model"`
	Temperature   float64  `json:"temperature"`
	MaxTokens     int      `json:"max_tokens"`
	IsActive      bool     `json:"is_active"`
	TriggerEvents []string `json:"trigger_events"`
	CreatedAt     string   `json:"created_at"`
	LastUsed      string   `json:"last_used,omitempty"`
}

func (h *AgentHandlers) AddAgent(_ context.Context, request *mcp.CallToolRequest, input AddAgentInput) (*mcp.CallToolResult, AgentOutput, error) {
	if input.Name == "" {
		return nil, AgentOutput{}, fmt.Errorf("name is required")
	}
	if input.Temperature < 0 || input.Temperature > 2 {
		return nil, AgentOutput{}, fmt.Errorf("temperature must be between 0 and 2")
	}
	if input.MaxTokens < 0 {
		return nil, AgentOutput{}, fmt.Errorf("max_tokens must not be negative")
	}

	agent, err := h.agents.Add(models.AiAgent{
		Name:          input.Name,
		Description:   input.Description,
		SystemPrompt:  input.SystemPrompt,
		Model:         input.Model,
		Temperature:   input.Temperature,
		MaxTokens:     input.MaxTokens,
		TriggerEvents: input.TriggerEvents,
	})
	if err != nil {
		return nil, AgentOutput{}, fmt.Errorf("failed to create agent: %w", err)
	}

	return nil, agentToOutput(agent), nil
}

type ListAgentsInput struct {
	ActiveOnly bool `json:"active_only,omitempty" jsonschema:"Only return active agents"`
}

type ListAgentsOutput struct {
	Agents []AgentOutput `json:"agents"`
}

func (h *AgentHandlers) ListAgents(_ context.Context, request *mcp.CallToolRequest, input ListAgentsInput) (*mcp.CallToolResult, ListAgentsOutput, error) {
	result := []AgentOutput{}
	for _, a := range h.agents.List() {
		if input.ActiveOnly && !a.IsActive {
			continue
		}
		result = append(result, agentToOutput(a))
	}
	return nil, ListAgentsOutput{Agents: result}, nil
}

type AgentIDInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent ID (required)"`
}

func (h *AgentHandlers) ToggleAgent(_ context.Context, request *mcp.CallToolRequest, input AgentIDInput) (*mcp.CallToolResult, AgentOutput, error) {
	if input.AgentID == "" {
		return nil, AgentOutput{}, fmt.Errorf("agent_id is required")
	}

	ok, err := h.agents.ToggleActive(input.AgentID)
	if err != nil {
		return nil, AgentOutput{}, fmt.Errorf("failed to toggle agent: %w", err)
	}
	if !ok {
		return nil, AgentOutput{}, fmt.Errorf("agent not found: %s", input.AgentID)
	}

	agent, err := h.agents.Get(input.AgentID)
	if err != nil {
		return nil, AgentOutput{}, fmt.Errorf("failed to fetch agent: %w", err)
	}
	return nil, agentToOutput(agent), nil
}

type UpdateAgentInput struct {
	AgentID       string   `json:"agent_id" jsonschema:"Agent ID (required)"`
	Name          string   `json:"name,omitempty" jsonschema:"New name"`
	Description   string   `json:"description,omitempty" jsonschema:"New description"`
	SystemPrompt  string   `json:"system_prompt,omitempty" jsonschema:"New personality and instructions"`
	Model         string   `json:"model,omitempty" jsonschema:"New Gemini model id"`
	Temperature   *float64 `json:"temperature,omitempty" jsonschema:"New sampling temperature (0 to 2)"`
	MaxTokens     *int     `json:"max_tokens,omitempty" jsonschema:"New maximum reply tokens"`
	TriggerEvents []string `json:"trigger_events,omitempty" jsonschema:"Replacement list of event tags"`
}

func (h *AgentHandlers) UpdateAgent(_ context.Context, request *mcp.CallToolRequest, input UpdateAgentInput) (*mcp.CallToolResult, AgentOutput, error) {
	if input.AgentID == "" {
		return nil, AgentOutput{}, fmt.Errorf("agent_id is required")
	}
	if input.Temperature != nil && (*input.Temperature < 0 || *input.Temperature > 2) {
		return nil, AgentOutput{}, fmt.Errorf("temperature must be between 0 and 2")
	}
	if input.MaxTokens != nil && *input.MaxTokens <= 0 {
		return nil, AgentOutput{}, fmt.Errorf("max_tokens must be positive")
	}

	agent, err := h.agents.Get(input.AgentID)
	if err != nil {
		return nil, AgentOutput{}, fmt.Errorf("agent not found: %s", input.AgentID)
	}

	if input.Name != "" {
		agent.Name = input.Name
	}
	if input.Description != "" {
		agent.Description = input.Description
	}
	if input.SystemPrompt != "" {
		agent.SystemPrompt = input.SystemPrompt
	}
	if input.Model != "" {
		agent.Model = input.Model
	}
	if input.Temperature != nil {
		agent.Temperature = *input.Temperature
	}
	if input.MaxTokens != nil {
		agent.MaxTokens = *input.MaxTokens
	}
	if input.TriggerEvents != nil {
		agent.TriggerEvents = input.TriggerEvents
	}

	ok, err := h.agents.Update(agent)
	if err != nil {
		return nil, AgentOutput{}, fmt.Errorf("failed to update agent: %w", err)
	}
	if !ok {
		return nil, AgentOutput{}, fmt.Errorf("agent not found: %s", input.AgentID)
	}

	updated, err := h.agents.Get(input.AgentID)
	if err != nil {
		return nil, AgentOutput{}, fmt.Errorf("failed to fetch agent: %w", err)
	}
	return nil, agentToOutput(updated), nil
}

type SendAgentMessageInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent ID (required)"`
	Message string `json:"message" jsonschema:"Message to send (required)"`
}

type SendAgentMessageOutput struct {
	AgentID   string        `json:"agent_id"`
	Reply     MessageOutput `json:"reply"`
	Connected bool          `json:"connected"`
}

type MessageOutput struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (h *AgentHandlers) SendAgentMessage(ctx context.Context, request *mcp.CallToolRequest, input SendAgentMessageInput) (*mcp.CallToolResult, SendAgentMessageOutput, error) {
	if input.AgentID == "" {
		return nil, SendAgentMessageOutput{}, fmt.Errorf("agent_id is required")
	}

	sess, err := h.session(ctx, input.AgentID)
	if err != nil {
		return nil, SendAgentMessageOutput{}, err
	}

	reply, err := sess.Send(ctx, input.Message)
	if err != nil {
		return nil, SendAgentMessageOutput{}, fmt.Errorf("failed to send message: %w", err)
	}

	return nil, SendAgentMessageOutput{
		AgentID:   input.AgentID,
		Reply:     messageToOutput(reply),
		Connected: sess.Connected(),
	}, nil
}

// session returns the cached session for agentID, opening one on first use and
// re-probing the gateway when the cached one is disconnected. h.mu only guards
// the map; gateway probes run without it.
func (h *AgentHandlers) session(ctx context.Context, agentID string) (*chat.Session, error) {
	if _, err := h.agents.Get(agentID); err != nil {
		h.mu.Lock()
		delete(h.sessions, agentID)
		h.mu.Unlock()
		return nil, fmt.Errorf("failed to open chat: agent %s: %w", agentID, err)
	}

	h.mu.Lock()
	sess, ok := h.sessions[agentID]
	h.mu.Unlock()
	if ok {
		if !sess.Connected() {
			sess.Reconnect(ctx)
		}
		return sess, nil
	}

	opened, err := h.chat.Open(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.sessions[agentID]; ok {
		return existing, nil
	}
	h.sessions[agentID] = opened
	return opened, nil
}

type AgentHistoryInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent ID (required)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Only return the newest N messages"`
}

type AgentHistoryOutput struct {
	AgentID  string          `json:"agent_id"`
	Messages []MessageOutput `json:"messages"`
	Total    int             `json:"total"`
	User     int             `json:"user"`
	Agent    int             `json:"agent"`
}

func (h *AgentHandlers) AgentHistory(_ context.Context, request *mcp.CallToolRequest, input AgentHistoryInput) (*mcp.CallToolResult, AgentHistoryOutput, error) {
	if input.AgentID == "" {
		return nil, AgentHistoryOutput{}, fmt.Errorf("agent_id is required")
	}

	history := h.chat.History()
	messages := history.History(input.AgentID)
	if input.Limit > 0 && len(messages) > input.Limit {
		messages = messages[len(messages)-input.Limit:]
	}

	result := make([]MessageOutput, len(messages))
	for i, m := range messages {
		result[i] = messageToOutput(m)
	}

	stats := history.Stats(input.AgentID)
	return nil, AgentHistoryOutput{
		AgentID:  input.AgentID,
		Messages: result,
		Total:    stats.Total,
		User:     stats.User,
		Agent:    stats.Agent,
	}, nil
}

type ClearAgentHistoryOutput struct {
	AgentID string `json:"agent_id"`
	Cleared bool   `json:"cleared"`
}

func (h *AgentHandlers) ClearAgentHistory(_ context.Context, request *mcp.CallToolRequest, input AgentIDInput) (*mcp.CallToolResult, ClearAgentHistoryOutput, error) {
	if input.AgentID == "" {
		return nil, ClearAgentHistoryOutput{}, fmt.Errorf("agent_id is required")
	}

	if err := h.chat.History().Clear(input.AgentID); err != nil {
		return nil, ClearAgentHistoryOutput{}, fmt.Errorf("failed to clear history: %w", err)
	}
	return nil, ClearAgentHistoryOutput{AgentID: input.AgentID, Cleared: true}, nil
}

func agentToOutput(a models.AiAgent) AgentOutput {
	out := AgentOutput{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.Description,
		SystemPrompt:  a.SystemPrompt,
		Model:         a.Model,
		Temperature:   a.Temperature,
		MaxTokens:     a.MaxTokens,
		IsActive:      a.IsActive,
		TriggerEvents: a.TriggerEvents,
		CreatedAt:     formatTime(a.CreatedAt),
	}
	if out.TriggerEvents == nil {
		out.TriggerEvents = []string{}
	}
	if a.LastUsed != nil {
		out.LastUsed = formatTime(*a.LastUsed)
	}
	return out
}

func messageToOutput(m models.ChatMessage) MessageOutput {
	return MessageOutput{
		ID:        m.ID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: formatTime(m.Timestamp),
	}
}
