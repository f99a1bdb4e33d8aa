package kvstore

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	fileStoreName   = "state.yaml"
	sqliteStoreName = "state.db"
)

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Batcher is implemented by stores that can apply several writes as one
// atomic operation.
type Batcher interface {
	Apply(set map[string]string, remove []string) error
}

// Apply writes set and removes remove on s, atomically when s implements
// Batcher and one key at a time otherwise.
func Apply(s Store, set map[string]string, remove []string) error {
	if b, ok := s.(Batcher); ok {
		return b.Apply(set, remove)
	}
	for k, v := range set {
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	for _, k := range remove {
		if err := s.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

// Open returns the store for backend, keeping its files under dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFile(filepath.Join(dir, fileStoreName)), nil
	case BackendSQLite:
		return NewSQLite(filepath.Join(dir, sqliteStoreName))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Close releases resources held by s, if any.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
