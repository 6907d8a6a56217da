package backend

import (
	"context"
	"errors"
	"fmt"

	"miadmin/internal/amqp"
	"miadmin/internal/log"
	"miadmin/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the repository for config.Type and, when an AMQP URL
// is configured, a publisher. A broker that cannot be reached is logged and
// skipped; the ledger works without it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.Repository
		err  error
	)
	switch config.Type {
	case FileBackend:
		repo, err = f.createFileRepository(config)
	case SQLiteBackend:
		repo, err = f.createSQLiteRepository(config)
	case MemoryBackend:
		repo = storage.NewMemoryRepository()
		f.logger.InfoContext(ctx, "Initialized memory backend, nothing will be persisted")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Repository: repo}
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, repo.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createFileRepository(config Config) (storage.Repository, error) {
	repo, err := storage.NewFileRepository(config.LedgerFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file repository: %w", err)
	}
	f.logger.Info("Initialized file backend", "path", config.LedgerFile)
	return repo, nil
}

func (f *DefaultFactory) createSQLiteRepository(config Config) (storage.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}
