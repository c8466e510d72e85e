// Package store provides access to the persistent document store backing
// message records and the three identity partitions.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

var (
	// ErrUnavailable indicates the underlying store could not be reached or
	// a read/write against it failed.
	ErrUnavailable = errors.New("store unavailable")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID indicates an identifier that cannot be stored, such as one
	// containing the index key separator.
	ErrInvalidID = errors.New("invalid identifier")
)

// Store wraps the Badger database. All message and identity access goes
// through it.
type Store struct {
	db     *badger.DB
	logger *logger.Logger
}

// Open opens (or creates) the document store at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrUnavailable, path, err)
	}
	return &Store{db: db, logger: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Healthy reports whether the store can currently serve reads.
func (s *Store) Healthy() bool {
	return s.db != nil && !s.db.IsClosed()
}
