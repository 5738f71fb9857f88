package repositories

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// OpenStore opens the Badger database backing the posts API. An empty path
// opens an in-memory database.
func OpenStore(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %q: %w", path, err)
	}
	return db, nil
}
