// ABOUTME: Tests for AI agent MCP tool handlers
// ABOUTME: Covers agent CRUD, sending messages through cached sessions, and history tools
package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addAgent(t *testing.T, h *AgentHandlers) AgentOutput {
	t.Helper()
	_, out, err := h.AddAgent(context.Background(), nil, AddAgentInput{
		Name:         "Consultor",
		Description:  "Vendas B2B",
		SystemPrompt: "Seja objetivo",
	})
	require.NoError(t, err)
	return out
}

func TestAddAgentHandler(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)

	out := addAgent(t, h)
	assert.NotEmpty(t, out.ID)
	assert.True(t, out.IsActive)
	assert.Equal(t, db.DefaultAgentModel, out.Model)
	assert.Equal(t, db.DefaultAgentTemperature, out.Temperature)
	assert.Equal(t, db.DefaultAgentMaxTokens, out.MaxTokens)
	assert.NotNil(t, out.TriggerEvents)
	assert.Empty(t, out.LastUsed)

	_, _, err := h.AddAgent(context.Background(), nil, AddAgentInput{})
	assert.Error(t, err)
	_, _, err = h.AddAgent(context.Background(), nil, AddAgentInput{Name: "X", Temperature: 3})
	assert.Error(t, err)
}

func TestListAndToggleAgentHandlers(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()

	first := addAgent(t, h)
	addAgent(t, h)

	_, toggled, err := h.ToggleAgent(ctx, nil, AgentIDInput{AgentID: first.ID})
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, all, err := h.ListAgents(ctx, nil, ListAgentsInput{})
	require.NoError(t, err)
	assert.Len(t, all.Agents, 2)

	_, active, err := h.ListAgents(ctx, nil, ListAgentsInput{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active.Agents, 1)

	_, _, err = h.ToggleAgent(ctx, nil, AgentIDInput{AgentID: "missing"})
	assert.Error(t, err)
}

func TestSendAgentMessageHandler(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	_, out, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi"})
	require.NoError(t, err)
	assert.True(t, out.Connected)
	assert.Equal(t, models.SenderAgent, out.Reply.Sender)
	assert.Equal(t, "Olá!", out.Reply.Content)

	_, _, err = h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Tudo bem?"})
	require.NoError(t, err)

	// the session is cached, so the gateway is probed once
	assert.Equal(t, 1, e.gateway.probes)
	require.Len(t, e.gateway.requests, 2)
	assert.Len(t, e.gateway.requests[1].History, 2)

	stored, err := e.agents.Get(agent.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsed)
}

func TestSendAgentMessageHandlerApology(t *testing.T) {
	e := newEnv(t)
	e.gateway.err = &gateway.Error{Kind: gateway.KindQuota, Err: errors.New("429")}
	h := NewAgentHandlers(e.agents, e.chat)
	agent := addAgent(t, h)

	_, out, err := h.SendAgentMessage(context.Background(), nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi"})
	require.NoError(t, err)
	assert.Equal(t, gateway.ApologyQuota, out.Reply.Content)
	assert.Len(t, e.history.History(agent.ID), 2)
}

func TestSendAgentMessageHandlerDisconnectedRetriesProbe(t *testing.T) {
	e := newEnv(t)
	e.gateway.available = false
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	_, out, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi"})
	require.NoError(t, err)
	assert.False(t, out.Connected)
	assert.Equal(t, gateway.ApologyOffline, out.Reply.Content)

	e.gateway.mu.Lock()
	e.gateway.available = true
	e.gateway.mu.Unlock()

	_, out, err = h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi de novo"})
	require.NoError(t, err)
	assert.True(t, out.Connected)
	assert.Equal(t, "Olá!", out.Reply.Content)
}

func TestSendAgentMessageHandlerErrors(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	_, _, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: "missing", Message: "Oi"})
	assert.Error(t, err)

	_, _, err = h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "   "})
	assert.Error(t, err)
	assert.Empty(t, e.history.History(agent.ID))

	// deleted agents drop their cached session
	_, _, err = h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi"})
	require.NoError(t, err)
	_, err = e.agents.Delete(agent.ID)
	require.NoError(t, err)
	_, _, err = h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi"})
	assert.Error(t, err)
}

func TestAgentHistoryAndClearHandlers(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	for _, msg := range []string{"um", "dois", "três"} {
		_, _, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: msg})
		require.NoError(t, err)
	}

	_, hist, err := h.AgentHistory(ctx, nil, AgentHistoryInput{AgentID: agent.ID})
	require.NoError(t, err)
	assert.Equal(t, 6, hist.Total)
	assert.Equal(t, 3, hist.User)
	assert.Equal(t, 3, hist.Agent)
	require.Len(t, hist.Messages, 6)
	assert.Equal(t, "um", hist.Messages[0].Content)

	_, hist, err = h.AgentHistory(ctx, nil, AgentHistoryInput{AgentID: agent.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, "três", hist.Messages[0].Content)

	_, cleared, err := h.ClearAgentHistory(ctx, nil, AgentIDInput{AgentID: agent.ID})
	require.NoError(t, err)
	assert.True(t, cleared.Cleared)

	_, hist, err = h.AgentHistory(ctx, nil, AgentHistoryInput{AgentID: agent.ID})
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
	assert.NotNil(t, hist.Messages)
}

func TestUpdateAgentHandler(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	temp := 1.5
	tokens := 256
	_, out, err := h.UpdateAgent(ctx, nil, UpdateAgentInput{
		AgentID:       agent.ID,
		SystemPrompt:  "Seja detalhista",
		Model:         "gemini-1.5-pro",
		Temperature:   &temp,
		MaxTokens:     &tokens,
		TriggerEvents: []string{"novo-cliente"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Consultor", out.Name, "empty fields are left unchanged")
	assert.Equal(t, "Vendas B2B", out.Description)
	assert.Equal(t, "Seja detalhista", out.SystemPrompt)
	assert.Equal(t, "gemini-1.5-pro", out.Model)
	assert.Equal(t, 1.5, out.Temperature)
	assert.Equal(t, 256, out.MaxTokens)
	assert.Equal(t, []string{"novo-cliente"}, out.TriggerEvents)
	assert.Equal(t, agent.IsActive, out.IsActive)

	zero := 0.0
	_, out, err = h.UpdateAgent(ctx, nil, UpdateAgentInput{AgentID: agent.ID, Name: "Closer", Temperature: &zero})
	require.NoError(t, err)
	assert.Equal(t, "Closer", out.Name)
	assert.Equal(t, 0.0, out.Temperature)
	assert.Equal(t, []string{"novo-cliente"}, out.TriggerEvents, "omitted triggers are kept")

	stored, err := e.agents.Get(agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Closer", stored.Name)
	assert.Equal(t, "Seja detalhista", stored.SystemPrompt)
}

func TestUpdateAgentHandlerValidation(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	hot := 2.5
	negative := -1
	cases := []UpdateAgentInput{
		{},
		{AgentID: "missing", Name: "X"},
		{AgentID: agent.ID, Temperature: &hot},
		{AgentID: agent.ID, MaxTokens: &negative},
	}
	for _, input := range cases {
		_, _, err := h.UpdateAgent(ctx, nil, input)
		assert.Error(t, err, "%+v", input)
	}

	stored, err := e.agents.Get(agent.ID)
	require.NoError(t, err)
	assert.Equal(t, db.DefaultAgentTemperature, stored.Temperature)
	assert.Equal(t, db.DefaultAgentMaxTokens, stored.MaxTokens)
}

func TestUpdateAgentHandlerReachesCachedSession(t *testing.T) {
	e := newEnv(t)
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	agent := addAgent(t, h)

	_, _, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "Oi"})
	require.NoError(t, err)
	assert.Equal(t, "Seja objetivo", e.gateway.lastRequest().Persona)

	_, _, err = h.UpdateAgent(ctx, nil, UpdateAgentInput{AgentID: agent.ID, SystemPrompt: "Fale como um pirata"})
	require.NoError(t, err)

	_, _, err = h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: agent.ID, Message: "E agora?"})
	require.NoError(t, err)
	assert.Equal(t, "Fale como um pirata", e.gateway.lastRequest().Persona)
	assert.Equal(t, 1, e.gateway.probes, "the cached session is reused")
}

func TestSessionAvailabilityCheckDoesNotBlockOtherAgents(t *testing.T) {
	e := newEnv(t)
	e.gateway.hold = make(chan struct{})
	e.gateway.held = make(chan struct{})
	h := NewAgentHandlers(e.agents, e.chat)
	ctx := context.Background()
	slow := addAgent(t, h)
	fast := addAgent(t, h)

	slowDone := make(chan error, 1)
	go func() {
		_, _, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: slow.ID, Message: "Oi"})
		slowDone <- err
	}()
	<-e.gateway.held

	fastDone := make(chan error, 1)
	go func() {
		_, _, err := h.SendAgentMessage(ctx, nil, SendAgentMessageInput{AgentID: fast.ID, Message: "Oi"})
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second agent waited on the first agent's gateway probe")
	}

	close(e.gateway.hold)
	require.NoError(t, <-slowDone)
	assert.Len(t, e.history.History(slow.ID), 2)
	assert.Len(t, e.history.History(fast.ID), 2)
}
