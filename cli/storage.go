// ABOUTME: Opens the configured storage backend
// ABOUTME: Shared by the main binary and the localStorage importer
package cli

import (
	"fmt"

	"github.com/harperreed/agentcrm/charm"
	"github.com/harperreed/agentcrm/config"
	"github.com/harperreed/agentcrm/db"
	"go.uber.org/zap"
)

// OpenStorage opens the backend named by cfg. The returned func closes it.
func OpenStorage(cfg *config.Config, logger *zap.Logger) (db.Storage, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendCharm:
		charmCfg, err := charm.LoadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		if err := charm.InitClient(charmCfg.WithOverrides(cfg.CharmHost, cfg.AutoSync), logger); err != nil {
			return nil, nil, fmt.Errorf("failed to open charm storage: %w", err)
		}
		client, err := charm.GetClient()
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil

	case config.BackendSQLite:
		path := cfg.DBPath
		if path == "" {
			path = config.DefaultDBPath()
		}
		storage, err := db.OpenSQLiteStorage(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database %s: %w", path, err)
		}
		logger.Debug("using sqlite storage", zap.String("path", path))
		return storage, func() { _ = storage.Close() }, nil

	case config.BackendMemory:
		logger.Warn("using in-memory storage, nothing will be saved")
		return db.NewMemoryStorage(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
