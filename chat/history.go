// ABOUTME: Per-agent chat history with retention trimming and context windowing
// ABOUTME: Re-reads the persisted history map on every call so other writers are seen
package chat

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	// MaxMessages is how many messages each agent keeps; older ones are dropped first.
	MaxMessages = 100
	// ContextSize is how many trailing messages the context window looks at.
	ContextSize = 20
)

// Stats summarises one agent's history.
type Stats struct {
	Total int       `json:"total"`
	User  int       `json:"user"`
	Agent int       `json:"agent"`
	First time.Time `json:"first,omitempty"`
	Last  time.Time `json:"last,omitempty"`
}

// Manager owns the crm_agent_chat_history key.
type Manager struct {
	mu      sync.Mutex
	storage db.Storage
	logger  *zap.Logger
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

func NewManager(storage db.Storage, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (m *Manager) load() []models.ChatHistory {
	return db.LoadSnapshot[models.ChatHistory](m.storage, db.KeyChatHistory, m.logger)
}

func (m *Manager) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), m.entropy).String()
}

// Append stores a message for agentID and returns it.
func (m *Manager) Append(agentID, content, sender string) (models.ChatMessage, error) {
	if !models.IsValidSender(sender) {
		return models.ChatMessage{}, fmt.Errorf("%w: sender %q", db.ErrInvalid, sender)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	msg := models.ChatMessage{
		ID:        m.newID(now),
		AgentID:   agentID,
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	}

	histories := m.load()
	idx := -1
	for i := range histories {
		if histories[i].AgentID == agentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		histories = append(histories, models.ChatHistory{AgentID: agentID, Messages: []models.ChatMessage{}})
		idx = len(histories) - 1
	}

	h := &histories[idx]
	h.Messages = append(h.Messages, msg)
	if len(h.Messages) > MaxMessages {
		h.Messages = h.Messages[len(h.Messages)-MaxMessages:]
	}
	h.LastUpdated = now

	if err := db.SaveSnapshot(m.storage, db.KeyChatHistory, histories); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// History returns the agent's messages oldest first. Unknown agents have none.
func (m *Manager) History(agentID string) []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.load() {
		if h.AgentID == agentID {
			if h.Messages == nil {
				return []models.ChatMessage{}
			}
			return h.Messages
		}
	}
	return []models.ChatMessage{}
}

// Clear drops one agent's history and leaves the others alone.
func (m *Manager) Clear(agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	histories := m.load()
	kept := histories[:0]
	for _, h := range histories {
		if h.AgentID != agentID {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(histories) {
		return nil
	}
	return db.SaveSnapshot(m.storage, db.KeyChatHistory, kept)
}

// ClearAll erases every agent's history.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.storage.Delete(db.KeyChatHistory); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

// ContextWindow returns up to ContextSize-1 messages preceding the newest one,
// in gateway roles. The newest message is left for the caller to send itself.
func (m *Manager) ContextWindow(agentID string) []gateway.Turn {
	messages := m.History(agentID)
	n := len(messages)
	if n == 0 {
		return []gateway.Turn{}
	}
	start := n - ContextSize
	if start < 0 {
		start = 0
	}

	window := messages[start : n-1]
	turns := make([]gateway.Turn, 0, len(window))
	for _, msg := range window {
		role := gateway.RoleUser
		if msg.Sender == models.SenderAgent {
			role = gateway.RoleModel
		}
		turns = append(turns, gateway.Turn{Role: role, Text: msg.Content})
	}
	return turns
}

// Stats counts an agent's messages by sender.
func (m *Manager) Stats(agentID string) Stats {
	messages := m.History(agentID)
	var s Stats
	s.Total = len(messages)
	for _, msg := range messages {
		switch msg.Sender {
		case models.SenderUser:
			s.User++
		case models.SenderAgent:
			s.Agent++
		}
	}
	if s.Total > 0 {
		s.First = messages[0].Timestamp
		s.Last = messages[s.Total-1].Timestamp
	}
	return s
}
