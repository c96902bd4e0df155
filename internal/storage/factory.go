package storage

import "fmt"

// NewStore builds the requested backend. The empty kind selects the
// default for this build: memory, or sqlite when compiled with the
// sqlite tag.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "":
		return NewStore(DefaultStoreKind(), path)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes backends that hold external resources; the
// memory backend has none and is a no-op.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
