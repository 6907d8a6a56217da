package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileRepository stores the ledger as a single JSON file.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.DebugContext(ctx, "Ledger file not found, starting empty", "path", r.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over the
// ledger so a crash never leaves a truncated document behind.
func (r *FileRepository) Save(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}

	slog.DebugContext(ctx, "Ledger saved to file", "path", r.path, "bytes", len(data))
	return nil
}

func (r *FileRepository) Clear(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove ledger file: %w", err)
	}
	return nil
}

func (r *FileRepository) Close() error { return nil }
