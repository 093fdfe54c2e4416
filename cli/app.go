// ABOUTME: Shared dependencies for CLI, TUI, and MCP commands
// ABOUTME: Wires storage, stores, the pipeline engine, and the chat service together
package cli

import (
	"io"
	"os"

	"github.com/harperreed/agentcrm/chat"
	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/gateway"
	"github.com/harperreed/agentcrm/pipeline"
	"go.uber.org/zap"
)

// App bundles everything a command needs.
type App struct {
	Storage db.Storage
	Store   *db.EntityStore
	Engine  *pipeline.Engine
	Agents  *db.AgentDirectory
	History *chat.Manager
	Chat    *chat.Service
	Gateway gateway.Completer
	Logger  *zap.Logger

	Out io.Writer
	In  io.Reader
}

// NewApp loads every collection from storage.
func NewApp(storage db.Storage, gw gateway.Completer, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := db.NewEntityStore(storage, logger)
	store.Load()
	agents := db.NewAgentDirectory(storage, logger)
	agents.Load()
	history := chat.NewManager(storage, logger)

	return &App{
		Storage: storage,
		Store:   store,
		Engine:  pipeline.NewEngine(store, logger),
		Agents:  agents,
		History: history,
		Chat:    chat.NewService(agents, history, gw, logger),
		Gateway: gw,
		Logger:  logger,
		Out:     os.Stdout,
		In:      os.Stdin,
	}
}
