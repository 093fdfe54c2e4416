// ABOUTME: Tests for backend selection
// ABOUTME: Covers the sqlite, memory and unknown backends
package cli

import (
	"path/filepath"
	"testing"

	"github.com/harperreed/agentcrm/config"
	"github.com/harperreed/agentcrm/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenStorageSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "crm.db")
	cfg := &config.Config{Backend: config.BackendSQLite, DBPath: path}

	storage, closeFn, err := OpenStorage(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer closeFn()

	require.IsType(t, &db.SQLiteStorage{}, storage)
	require.NoError(t, storage.Set(db.KeyClients, []byte("[]")))
	value, err := storage.Get(db.KeyClients)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
	assert.FileExists(t, path)
}

func TestOpenStorageMemory(t *testing.T) {
	storage, closeFn, err := OpenStorage(&config.Config{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &db.MemoryStorage{}, storage)
}

func TestOpenStorageUnknown(t *testing.T) {
	_, _, err := OpenStorage(&config.Config{Backend: "redis"}, nil)
	assert.Error(t, err)
}
