//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(_ string) (Store, error) {
	return nil, fmt.Errorf("sqlite backend not compiled in; build with -tags sqlite")
}

// DefaultStoreKind reports the backend used when none is requested.
func DefaultStoreKind() string {
	return "memory"
}
