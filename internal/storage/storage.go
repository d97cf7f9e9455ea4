package storage

import (
	"context"
	"errors"

	"sheets/internal/grid"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrEmptyID       = errors.New("sheet id required")
)

// Store keeps sheet snapshots by id. Save overwrites any previous snapshot.
// Implementations copy the data on the way in and out, so callers may keep
// mutating their own maps.
// Lister is implemented by stores that can enumerate their sheets.
type Lister interface {
	IDs() ([]string, error)
}

type Store interface {
	Save(ctx context.Context, id string, data grid.Snapshot) error
	Load(ctx context.Context, id string) (grid.Snapshot, error)
}
