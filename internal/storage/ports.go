package storage

import "context"

// Repository persists the serialized ledger as one opaque blob.
// There is no partial persistence: Save always replaces the whole document.
type Repository interface {
	// Load returns the stored blob, or nil with no error when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	// Clear removes the stored blob.
	Clear(ctx context.Context) error
	Close() error
}
