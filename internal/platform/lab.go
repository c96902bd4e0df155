package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ternion/internal/matrix"
	"ternion/internal/model"
	"ternion/internal/storage"
)

type Config struct {
	Store storage.Store
}

// Lab owns the store and the registry of loaded matrices, and runs
// attractor surveys and significance campaigns against them. The
// registered matrices are immutable and freely shared across campaign
// workers.
type Lab struct {
	store storage.Store

	mu       sync.RWMutex
	matrices map[string]*matrix.Store
	started  bool
}

func NewLab(cfg Config) *Lab {
	return &Lab{
		store:    cfg.Store,
		matrices: make(map[string]*matrix.Store),
	}
}

func (l *Lab) Init(ctx context.Context) error {
	if l.store == nil {
		return fmt.Errorf("store is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	if err := l.store.Init(ctx); err != nil {
		return err
	}
	l.started = true
	return nil
}

func (l *Lab) Reset(ctx context.Context) error {
	l.mu.Lock()
	l.matrices = make(map[string]*matrix.Store)
	l.started = false
	l.mu.Unlock()

	if resetter, ok := l.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return l.Init(ctx)
}

func (l *Lab) Started() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.started
}

// RegisterMatrix validates, registers, and persists a named matrix.
func (l *Lab) RegisterMatrix(ctx context.Context, m model.Matrix) error {
	if m.Name == "" {
		return fmt.Errorf("matrix name is required")
	}
	store, err := matrix.NewStore(m)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return fmt.Errorf("lab is not initialized")
	}
	l.matrices[m.Name] = store
	l.mu.Unlock()

	m.VersionedRecord = storage.Stamp()
	return l.store.SaveMatrix(ctx, m)
}

// GetMatrix returns a registered matrix, fetching it from the store on a
// registry miss.
func (l *Lab) GetMatrix(ctx context.Context, name string) (*matrix.Store, bool, error) {
	l.mu.RLock()
	store, ok := l.matrices[name]
	started := l.started
	l.mu.RUnlock()
	if ok {
		return store, true, nil
	}
	if !started {
		return nil, false, fmt.Errorf("lab is not initialized")
	}

	m, found, err := l.store.GetMatrix(ctx, name)
	if err != nil || !found {
		return nil, false, err
	}
	loaded, err := matrix.NewStore(m)
	if err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	l.matrices[name] = loaded
	l.mu.Unlock()
	return loaded, true, nil
}

func (l *Lab) RegisteredMatrices() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.matrices))
	for name := range l.matrices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Lab) Store() storage.Store {
	return l.store
}
