// Package legacy imports data from the flat key-value store the app used
// before the relational schema existed. The store is a single JSON file
// mapping string keys to raw JSON blobs, mirroring the mobile client's
// key-value storage namespace.
package legacy

import (
	"encoding/json"
	"fmt"
	"os"
)

// Keys of the legacy namespace consumed by the importer.
const (
	KeyHabits            = "@habits"
	KeyHabitLogs         = "@habit_logs"
	KeyGratitudeEntries  = "@gratitude_entries"
	KeyMigrationComplete = "@migration_complete"
)

// KVStore reads and writes the legacy key-value file. A missing file reads
// as an empty namespace, so running the importer with nothing to import is
// harmless.
type KVStore struct {
	path string
}

// NewKVStore creates a KVStore for the file at path.
func NewKVStore(path string) *KVStore {
	return &KVStore{path: path}
}

func (s *KVStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("read legacy store: %w", err)
	}

	kv := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("parse legacy store: %w", err)
	}
	return kv, nil
}

// Get returns the raw blob for key and whether it was present.
func (s *KVStore) Get(key string) (json.RawMessage, bool, error) {
	kv, err := s.load()
	if err != nil {
		return nil, false, err
	}

	blob, ok := kv[key]
	return blob, ok, nil
}

// Set writes the blob for key, creating the file if needed.
func (s *KVStore) Set(key string, value json.RawMessage) error {
	kv, err := s.load()
	if err != nil {
		return err
	}
	kv[key] = value

	data, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode legacy store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write legacy store: %w", err)
	}
	return nil
}
