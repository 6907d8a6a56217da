package backend

import (
	"context"

	"miadmin/internal/services"
	"miadmin/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the ledger repository, the optional event publisher
// and the cleanup that releases both.
type BackendResult struct {
	Repository storage.Repository
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// EngineOptions returns the engine options implied by the backend.
func (r *BackendResult) EngineOptions() []services.Option {
	if r.Publisher == nil {
		return nil
	}
	return []services.Option{services.WithPublisher(r.Publisher)}
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	LedgerFile string

	// SQLite specific
	SQLiteDBPath string

	// Event publishing, any backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
