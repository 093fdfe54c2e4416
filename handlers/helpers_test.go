// ABOUTME: Shared fixtures for MCP handler tests
// ABOUTME: Builds stores over memory storage and a scripted completion gateway
package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/pipeline"
	"go.uber.org/zap/zaptest"
)

type scriptedGateway struct {
	mu         sync.Mutex
	configured bool
	available  bool
	reply      string
	err        error
	probes     int
	requests   []gateway.Request

	// hold blocks the first availability check until closed; held closes once it starts
	hold chan struct{}
	held chan struct{}
}

func (g *scriptedGateway) Complete(_ context.Context, req gateway.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.reply, g.err
}

func (g *scriptedGateway) CheckAvailable(context.Context) bool {
	g.mu.Lock()
	g.probes++
	first := g.probes == 1
	hold, held := g.hold, g.held
	ok := g.configured && g.available
	g.mu.Unlock()

	if first && hold != nil {
		close(held)
		<-hold
	}
	return ok
}

func (g *scriptedGateway) lastRequest() gateway.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return gateway.Request{}
	}
	return g.requests[len(g.requests)-1]
}

func (g *scriptedGateway) Configured() bool { return g.configured }

type env struct {
	storage *db.MemoryStorage
	store   *db.EntityStore
	engine  *pipeline.Engine
	agents  *db.AgentDirectory
	history *chat.Manager
	chat    *chat.Service
	gateway *scriptedGateway
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zaptest.NewLogger(t)
	storage := db.NewMemoryStorage()

	store := db.NewEntityStore(storage, logger)
	store.Load()
	agents := db.NewAgentDirectory(storage, logger)
	agents.Load()
	history := chat.NewManager(storage, logger)
	gw := &scriptedGateway{configured: true, available: true, reply: "Olá!"}

	return &env{
		storage: storage,
		store:   store,
		engine:  pipeline.NewEngine(store, logger),
		agents:  agents,
		history: history,
		chat:    chat.NewService(agents, history, gw, logger),
		gateway: gw,
	}
}
