// ABOUTME: Charm KV client wrapper implementing the CRM storage interface
// ABOUTME: Syncs snapshots through the charm server and treats missing keys as empty

package charm

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// store is the slice of charm/kv.KV the client reads and writes through.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Client wraps charm KV with config and sync helpers. It satisfies db.Storage.
type Client struct {
	store  store
	remote *kv.KV // nil for a local-only client
	config *Config
	logger *zap.Logger
	mu     sync.RWMutex
}

// InitClient initializes the global charm client (thread-safe, only runs once).
func InitClient(cfg *Config, logger *zap.Logger) error {
	clientOnce.Do(func() {
		if cfg == nil {
			loaded, err := LoadConfig()
			if err != nil {
				clientErr = fmt.Errorf("failed to load config: %w", err)
				return
			}
			cfg = loaded
		}
		globalClient, clientErr = NewClient(cfg, logger)
	})
	return clientErr
}

// GetClient returns the global client, initializing it from the saved config if needed.
func GetClient() (*Client, error) {
	if err := InitClient(nil, nil); err != nil {
		return nil, err
	}
	if globalClient == nil {
		return nil, fmt.Errorf("client not initialized")
	}
	return globalClient, nil
}

// NewClient opens the charm KV database for this app.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set charm host before opening KV
	_ = os.Setenv("CHARM_HOST", cfg.Host)

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		store:  db,
		remote: db,
		config: cfg,
		logger: logger,
	}

	// Sync on startup to pull remote changes
	if cfg.AutoSync {
		if err := db.Sync(); err != nil {
			logger.Warn("initial charm sync failed", zap.String("host", cfg.Host), zap.Error(err))
		}
	}

	return c, nil
}

// Close releases the local database.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return nil
	}
	return c.remote.Close()
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// IsConnected reports whether a charm user ID can be obtained.
func (c *Client) IsConnected() bool {
	if c.remote == nil {
		return false
	}
	_, err := c.ID()
	return err == nil
}

// Sync performs a manual sync with the charm server. Local-only clients have
// nothing to sync.
func (c *Client) Sync() error {
	if c.remote == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote.Sync()
}

// Get retrieves a value by key. A missing key returns nil, nil.
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.RLock()
	value, err := c.store.Get([]byte(key))
	c.mu.RUnlock()
	if errors.Is(err, kv.ErrMissingKey) || errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set([]byte(key), value); err != nil {
		return err
	}
	c.syncAfterWrite(key)
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete([]byte(key)); err != nil {
		return err
	}
	c.syncAfterWrite(key)
	return nil
}

// syncAfterWrite pushes local writes while the caller holds c.mu. A failed
// push is retried on the next write.
func (c *Client) syncAfterWrite(key string) {
	if c.remote == nil || !c.config.AutoSync {
		return
	}
	if err := c.remote.Sync(); err != nil {
		c.logger.Warn("charm sync after write failed", zap.String("key", key), zap.Error(err))
	}
}

// Reset deletes every CRM collection. Deletes sync like any other write, so
// linked devices lose the data too.
func (c *Client) Reset() error {
	for _, key := range CollectionKeys {
		if err := c.Delete(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
