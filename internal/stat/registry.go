package stat

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"ternion/internal/model"
)

var (
	ErrStatisticExists   = errors.New("statistic already registered")
	ErrStatisticNotFound = errors.New("statistic not found")
)

// Func computes one scalar statistic over a matrix. Implementations must
// be pure: campaigns call them concurrently on independent matrices.
type Func func(m model.Matrix) (float64, error)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Func
}{
	m: make(map[string]Func),
}

func init() {
	initializeBuiltInStatistics()
}

func Register(name string, fn Func) error {
	if name == "" {
		return errors.New("statistic name is required")
	}
	if fn == nil {
		return errors.New("statistic function is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrStatisticExists, name)
	}
	registry.m[name] = fn
	return nil
}

func MustRegister(name string, fn Func) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

func Get(name string) (Func, error) {
	registry.mu.RLock()
	fn, ok := registry.m[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStatisticNotFound, name)
	}
	return fn, nil
}

func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
