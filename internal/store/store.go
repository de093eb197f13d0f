// Package store persists JSON records in named collections. Records are only
// ever replaced whole: callers read a record, mutate a copy and put it back.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names a keyed record set.
type Collection string

const (
	Events    Collection = "events"
	Festivals Collection = "festivals"
)

// Unversioned makes Put replace a record regardless of its stored version.
const Unversioned int64 = -1

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record version conflict")
	ErrInvalidRecord   = errors.New("invalid record")
)

// Record is one stored document. Version is 0 for a record that has never been
// written and increases by one on every successful Put.
type Record struct {
	ID      string
	Version int64
	Data    json.RawMessage
}

// Store is implemented by the memory, SQLite and Postgres backends.
type Store interface {
	// List returns every record of c in insertion order.
	List(ctx context.Context, c Collection) ([]Record, error)
	// Get returns ErrNotFound when id is absent.
	Get(ctx context.Context, c Collection, id string) (Record, error)
	// Put replaces the record with the same id in place or appends it. A
	// non-Unversioned rec.Version must equal the stored version (0 when the
	// record is new), otherwise ErrVersionConflict is returned.
	Put(ctx context.Context, c Collection, rec Record) (Record, error)
	// Init writes seed into c when c has never been initialized and reports
	// whether it did so.
	Init(ctx context.Context, c Collection, seed []Record) (bool, error)
	Close() error
}

func validate(c Collection, rec Record) error {
	if c == "" {
		return errors.Join(ErrInvalidRecord, errors.New("collection is required"))
	}
	if rec.ID == "" {
		return errors.Join(ErrInvalidRecord, errors.New("id is required"))
	}
	if !json.Valid(rec.Data) {
		return errors.Join(ErrInvalidRecord, errors.New("data is not valid JSON"))
	}
	return nil
}

// checkVersion decides whether a write of want over a stored version is allowed.
// exists reports whether the record is already stored.
func checkVersion(want, stored int64, exists bool) error {
	if want == Unversioned {
		return nil
	}
	if !exists {
		if want != 0 {
			return ErrVersionConflict
		}
		return nil
	}
	if want != stored {
		return ErrVersionConflict
	}
	return nil
}
