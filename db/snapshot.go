// ABOUTME: Helpers for reading and writing full-collection JSON snapshots
// ABOUTME: Reads fail soft to an empty collection, writes return their error
package db

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// LoadSnapshot decodes the collection stored at key. Missing or corrupt data
// yields an empty slice and a log line.
func LoadSnapshot[T any](storage Storage, key string, logger *zap.Logger) []T {
	data, err := storage.Get(key)
	if err != nil {
		logger.Warn("failed to read snapshot", zap.String("key", key), zap.Error(err))
		return []T{}
	}
	if len(data) == 0 {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("discarding corrupt snapshot", zap.String("key", key), zap.Error(err))
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

// SaveSnapshot overwrites key with the whole collection.
func SaveSnapshot[T any](storage Storage, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := storage.Set(key, data); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

func cloneSlice[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
