// ABOUTME: Local-only charm client for tests, backed by BadgerDB in a temp dir
// ABOUTME: Serves Get/Set/Delete without a charm account or server

package charm

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap/zaptest"
)

// badgerStore keeps values in a private BadgerDB. Missing keys surface as
// badger.ErrKeyNotFound, which Client.Get maps to nil.
type badgerStore struct {
	db *badger.DB
}

func (s badgerStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (s badgerStore) Set(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (s badgerStore) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

// NewTestClient returns a local-only Client with auto-sync off. The database
// lives under t.TempDir and is closed by the returned cleanup.
func NewTestClient(t *testing.T) (*Client, func()) {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}

	c := &Client{
		store:  badgerStore{db: db},
		config: &Config{Host: "localhost"},
		logger: zaptest.NewLogger(t),
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	}
	return c, cleanup
}
