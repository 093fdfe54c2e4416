// ABOUTME: Agent directory persisting AI agent personas
// ABOUTME: Same snapshot-per-mutation pattern as the entity store, over crm_ai_agents
package db

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/agentcrm/models"
	"go.uber.org/zap"
)

// Defaults applied to agents created without model parameters.
const (
	DefaultAgentModel       = "gemini-2.0-flash"
	DefaultAgentTemperature = 0.7
	DefaultAgentMaxTokens   = 1024
)

type AgentDirectory struct {
	mu      sync.RWMutex
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
	agents  []models.AiAgent
}

func NewAgentDirectory(storage Storage, logger *zap.Logger) *AgentDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentDirectory{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		agents:  []models.AiAgent{},
	}
}

func (d *AgentDirectory) Load() {
	agents := LoadSnapshot[models.AiAgent](d.storage, KeyAgents, d.logger)
	d.mu.Lock()
	d.agents = agents
	d.mu.Unlock()
}

// Add stores a new agent. New agents start active.
func (d *AgentDirectory) Add(a models.AiAgent) (models.AiAgent, error) {
	if strings.TrimSpace(a.Name) == "" {
		return models.AiAgent{}, fmt.Errorf("%w: agent name is required", ErrInvalid)
	}
	if a.Model == "" {
		a.Model = DefaultAgentModel
	}
	if a.Temperature == 0 {
		a.Temperature = DefaultAgentTemperature
	}
	if a.MaxTokens == 0 {
		a.MaxTokens = DefaultAgentMaxTokens
	}
	a = cloneAgent(a)
	if a.TriggerEvents == nil {
		a.TriggerEvents = []string{}
	}
	a.ID = models.NewID()
	a.CreatedAt = d.now()
	a.IsActive = true
	a.LastUsed = nil

	d.mu.Lock()
	defer d.mu.Unlock()

	next := append(cloneSlice(d.agents), a)
	if err := SaveSnapshot(d.storage, KeyAgents, next); err != nil {
		return models.AiAgent{}, err
	}
	d.agents = next
	return cloneAgent(a), nil
}

// Update replaces the stored agent with the same ID.
func (d *AgentDirectory) Update(a models.AiAgent) (bool, error) {
	if strings.TrimSpace(a.Name) == "" {
		return false, fmt.Errorf("%w: agent name is required", ErrInvalid)
	}
	a = cloneAgent(a)
	if a.TriggerEvents == nil {
		a.TriggerEvents = []string{}
	}
	return d.mutate(a.ID, func(*models.AiAgent) models.AiAgent { return a })
}

func (d *AgentDirectory) Delete(id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, ok := without(d.agents, func(x models.AiAgent) bool { return x.ID == id })
	if !ok {
		return false, nil
	}
	if err := SaveSnapshot(d.storage, KeyAgents, next); err != nil {
		return false, err
	}
	d.agents = next
	return true, nil
}

// ToggleActive flips the agent's active flag.
func (d *AgentDirectory) ToggleActive(id string) (bool, error) {
	return d.mutate(id, func(a *models.AiAgent) models.AiAgent {
		out := *a
		out.IsActive = !out.IsActive
		return out
	})
}

// TouchLastUsed stamps the agent as used now.
func (d *AgentDirectory) TouchLastUsed(id string) (bool, error) {
	now := d.now()
	return d.mutate(id, func(a *models.AiAgent) models.AiAgent {
		out := *a
		out.LastUsed = &now
		return out
	})
}

func (d *AgentDirectory) Get(id string) (models.AiAgent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	idx := indexOf(d.agents, func(x models.AiAgent) bool { return x.ID == id })
	if idx < 0 {
		return models.AiAgent{}, ErrNotFound
	}
	return cloneAgent(d.agents[idx]), nil
}

func (d *AgentDirectory) List() []models.AiAgent {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.AiAgent, len(d.agents))
	for i, a := range d.agents {
		out[i] = cloneAgent(a)
	}
	return out
}

func (d *AgentDirectory) mutate(id string, fn func(*models.AiAgent) models.AiAgent) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := indexOf(d.agents, func(x models.AiAgent) bool { return x.ID == id })
	if idx < 0 {
		return false, nil
	}
	next := cloneSlice(d.agents)
	next[idx] = fn(&next[idx])
	if err := SaveSnapshot(d.storage, KeyAgents, next); err != nil {
		return false, err
	}
	d.agents = next
	return true, nil
}

// cloneAgent copies the slice and pointer fields so callers never share
// memory with the directory.
func cloneAgent(a models.AiAgent) models.AiAgent {
	if a.TriggerEvents != nil {
		a.TriggerEvents = append([]string{}, a.TriggerEvents...)
	}
	if a.LastUsed != nil {
		t := *a.LastUsed
		a.LastUsed = &t
	}
	return a
}
