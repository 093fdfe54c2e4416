// ABOUTME: Tests for the chat history manager
// ABOUTME: Retention cap, context window sizes, clear isolation and soft reads
package chat

import (
	"fmt"
	"testing"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/models"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestManager(t *testing.T) (*Manager, *db.MemoryStorage) {
	t.Helper()
	storage := db.NewMemoryStorage()
	return NewManager(storage, zaptest.NewLogger(t)), storage
}

func appendN(t *testing.T, m *Manager, agentID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		sender := models.SenderUser
		if i%2 == 1 {
			sender = models.SenderAgent
		}
		_, err := m.Append(agentID, fmt.Sprintf("msg %d", i), sender)
		require.NoError(t, err)
	}
}

func TestAppendKeepsNewestHundredInOrder(t *testing.T) {
	m, _ := newTestManager(t)
	appendN(t, m, "agent-1", 150)

	history := m.History("agent-1")
	require.Len(t, history, 100)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("msg %d", i+50), msg.Content)
	}
}

func TestAppendAssignsULIDAndTimestamps(t *testing.T) {
	m, storage := newTestManager(t)

	first, err := m.Append("agent-1", "oi", models.SenderUser)
	require.NoError(t, err)
	second, err := m.Append("agent-1", "olá", models.SenderAgent)
	require.NoError(t, err)

	_, err = ulid.ParseStrict(first.ID)
	require.NoError(t, err)
	assert.Less(t, first.ID, second.ID)
	assert.Equal(t, "agent-1", first.AgentID)
	assert.False(t, first.Timestamp.IsZero())

	histories := db.LoadSnapshot[models.ChatHistory](storage, db.KeyChatHistory, zaptest.NewLogger(t))
	require.Len(t, histories, 1)
	assert.Equal(t, second.Timestamp, histories[0].LastUpdated)
}

func TestAppendRejectsUnknownSender(t *testing.T) {
	m, storage := newTestManager(t)

	_, err := m.Append("agent-1", "oi", "system")
	assert.ErrorIs(t, err, db.ErrInvalid)

	v, _ := storage.Get(db.KeyChatHistory)
	assert.Nil(t, v)
}

func TestHistoryOfUnknownAgentIsEmpty(t *testing.T) {
	m, _ := newTestManager(t)
	history := m.History("nobody")
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestContextWindowSizes(t *testing.T) {
	cases := []struct{ n, want int }{
		{0, 0}, {1, 0}, {2, 1}, {10, 9}, {20, 19}, {21, 19}, {50, 19}, {150, 19},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d", tc.n), func(t *testing.T) {
			m, _ := newTestManager(t)
			appendN(t, m, "agent", tc.n)
			assert.Len(t, m.ContextWindow("agent"), tc.want)
		})
	}
}

func TestContextWindowExcludesNewestAndMapsRoles(t *testing.T) {
	m, _ := newTestManager(t)
	appendN(t, m, "agent", 25)

	window := m.ContextWindow("agent")
	require.Len(t, window, 19)
	assert.Equal(t, "msg 5", window[0].Text)
	assert.Equal(t, "msg 23", window[18].Text)

	// even indexes were user messages, odd ones agent messages
	assert.Equal(t, gateway.RoleModel, window[0].Role)
	assert.Equal(t, gateway.RoleUser, window[1].Role)
}

func TestClearOnlyTouchesOneAgent(t *testing.T) {
	m, _ := newTestManager(t)
	appendN(t, m, "a", 3)
	appendN(t, m, "b", 4)
	before := m.History("b")

	require.NoError(t, m.Clear("a"))

	assert.Empty(t, m.History("a"))
	assert.Equal(t, before, m.History("b"))

	require.NoError(t, m.Clear("missing"))
	assert.Len(t, m.History("b"), 4)
}

func TestClearAll(t *testing.T) {
	m, storage := newTestManager(t)
	appendN(t, m, "a", 2)
	appendN(t, m, "b", 2)

	require.NoError(t, m.ClearAll())

	v, err := storage.Get(db.KeyChatHistory)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Empty(t, m.History("a"))
}

func TestCorruptHistoryReadsAsEmpty(t *testing.T) {
	m, storage := newTestManager(t)
	require.NoError(t, storage.Set(db.KeyChatHistory, []byte(`[{"agentId":`)))

	assert.Empty(t, m.History("a"))

	_, err := m.Append("a", "oi", models.SenderUser)
	require.NoError(t, err)
	assert.Len(t, m.History("a"), 1)
}

func TestManagerSeesOtherWriters(t *testing.T) {
	storage := db.NewMemoryStorage()
	one := NewManager(storage, zaptest.NewLogger(t))
	two := NewManager(storage, zaptest.NewLogger(t))

	_, err := one.Append("a", "from one", models.SenderUser)
	require.NoError(t, err)
	_, err = two.Append("a", "from two", models.SenderAgent)
	require.NoError(t, err)

	assert.Len(t, one.History("a"), 2)
}

func TestReadsBrowserHistoryShape(t *testing.T) {
	m, storage := newTestManager(t)
	raw := `[{"agentId":"1700000000000","lastUpdated":"2024-04-02T10:00:05.000Z","messages":[
		{"id":"1712052000000abc","agentId":"1700000000000","content":"Oi","sender":"user","timestamp":"2024-04-02T10:00:00.000Z"},
		{"id":"1712052005000def","agentId":"1700000000000","content":"Olá!","sender":"agent","timestamp":"2024-04-02T10:00:05.000Z"}]}]`
	require.NoError(t, storage.Set(db.KeyChatHistory, []byte(raw)))

	history := m.History("1700000000000")
	require.Len(t, history, 2)
	assert.Equal(t, "Olá!", history[1].Content)
	assert.Equal(t, 5, history[1].Timestamp.Second())
}

func TestStats(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Equal(t, Stats{}, m.Stats("a"))

	appendN(t, m, "a", 5)
	s := m.Stats("a")
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.User)
	assert.Equal(t, 2, s.Agent)
	assert.False(t, s.First.After(s.Last))
}
