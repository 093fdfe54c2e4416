// ABOUTME: Chat sessions binding an agent, its history and the completion gateway
// ABOUTME: Send appends the user turn, calls the gateway once and records the reply or an apology
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/models"
	"go.uber.org/zap"
)

var (
	ErrBusy         = errors.New("a message is already being sent")
	ErrEmptyMessage = errors.New("message is empty")
)

// Service opens chat sessions.
type Service struct {
	agents  *db.AgentDirectory
	history *Manager
	gateway gateway.Completer
	logger  *zap.Logger
}

func NewService(agents *db.AgentDirectory, history *Manager, gw gateway.Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{agents: agents, history: history, gateway: gw, logger: logger}
}

// History exposes the underlying manager.
func (s *Service) History() *Manager {
	return s.history
}

// Open starts a session with agentID: stamps it as used and probes the gateway.
func (s *Service) Open(ctx context.Context, agentID string) (*Session, error) {
	agent, err := s.agents.Get(agentID)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, err)
	}
	if _, err := s.agents.TouchLastUsed(agentID); err != nil {
		s.logger.Warn("failed to stamp agent last used", zap.String("agent_id", agentID), zap.Error(err))
	} else if touched, err := s.agents.Get(agentID); err == nil {
		agent = touched
	}

	sess := &Session{svc: s, id: agent.ID, agent: agent}
	sess.Reconnect(ctx)
	return sess, nil
}

// Session is one open chat with an agent.
type Session struct {
	svc       *Service
	id        string
	connected atomic.Bool
	busy      atomic.Bool

	mu    sync.RWMutex
	agent models.AiAgent
}

// Agent returns the agent as of the last Open or Send.
func (s *Session) Agent() models.AiAgent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agent
}

// refresh reloads the agent so edits made after Open reach the gateway.
// A deleted agent keeps its last known settings.
func (s *Session) refresh() models.AiAgent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if agent, err := s.svc.agents.Get(s.id); err == nil {
		s.agent = agent
	}
	return s.agent
}

// Connected reports the result of the last availability probe.
func (s *Session) Connected() bool { return s.connected.Load() }

// Busy reports whether a Send is in flight.
func (s *Session) Busy() bool { return s.busy.Load() }

// Reconnect re-runs the availability probe.
func (s *Session) Reconnect(ctx context.Context) bool {
	ok := s.svc.gateway.CheckAvailable(ctx)
	s.connected.Store(ok)
	s.svc.logger.Debug("gateway probe", zap.String("agent_id", s.id), zap.Bool("connected", ok))
	return ok
}

func (s *Session) History() []models.ChatMessage {
	return s.svc.history.History(s.id)
}

// Send records text as a user message and returns the agent's reply message.
// Gateway failures become an apology message, never an error.
func (s *Session) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return models.ChatMessage{}, ErrBusy
	}
	defer s.busy.Store(false)

	h := s.svc.history
	if _, err := h.Append(s.id, text, models.SenderUser); err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to save message: %w", err)
	}

	reply := s.complete(ctx, s.refresh(), text)

	msg, err := h.Append(s.id, reply, models.SenderAgent)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to save reply: %w", err)
	}
	return msg, nil
}

func (s *Session) complete(ctx context.Context, agent models.AiAgent, text string) string {
	if !s.Connected() {
		if !s.svc.gateway.Configured() {
			return gateway.ApologyNotConfigured
		}
		return gateway.ApologyOffline
	}

	reply, err := s.svc.gateway.Complete(ctx, gateway.Request{
		Message:     text,
		Context:     agent.Description,
		Persona:     agent.SystemPrompt,
		History:     s.svc.history.ContextWindow(s.id),
		Model:       agent.Model,
		Temperature: agent.Temperature,
		MaxTokens:   agent.MaxTokens,
	})
	if err != nil {
		kind := gateway.KindOf(err)
		s.svc.logger.Warn("completion failed",
			zap.String("agent_id", s.id),
			zap.Stringer("kind", kind),
			zap.Error(err))
		return gateway.Apology(kind)
	}
	return reply
}

// Clear removes this agent's history.
func (s *Session) Clear() error {
	return s.svc.history.Clear(s.id)
}
