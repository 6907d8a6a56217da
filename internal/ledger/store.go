// Package ledger owns the canonical state collections and their
// whole-document persistence lifecycle.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"miadmin/internal/core"
	"miadmin/internal/storage"
)

// maxImportBytes bounds the size of an imported document.
const maxImportBytes = 16 << 20

// Store holds the in-memory state and writes it through a Repository.
// It does no locking; callers serialize access (see services.Engine).
type Store struct {
	repo  storage.Repository
	state *core.State
}

func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo, state: core.NewState()}
}

// State returns the live state. Mutations through it are not persisted
// until Save is called.
func (s *Store) State() *core.State { return s.state }

// Replace swaps the live state without persisting it.
func (s *Store) Replace(st *core.State) { s.state = st }

// Load reads and decodes the persisted document. A missing document yields
// the empty default state.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	st, err := core.DecodeState(data)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	s.state = st
	return nil
}

// Save serializes the entire state and writes it synchronously.
func (s *Store) Save(ctx context.Context) error {
	data, err := core.EncodeState(s.state)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.repo.Save(ctx, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// Reset restores the empty default state and clears persisted storage.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	s.state = core.NewState()
	return nil
}

// Export writes the full state as an indented JSON document.
func (s *Store) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.state); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	return nil
}

// ExportFileName names a backup taken on the given day.
func ExportFileName(now time.Time) string {
	return "mi_admin_backup_" + now.Format("2006-01-02") + ".json"
}

// ParseImport validates a backup document and decodes it. The document must
// be an object carrying a non-empty pin, an accounts collection and a
// movements collection.
func ParseImport(r io.Reader) (*core.State, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptImport, err)
	}
	if len(data) > maxImportBytes {
		return nil, fmt.Errorf("%w: document larger than %d bytes", core.ErrCorruptImport, maxImportBytes)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptImport, err)
	}

	var pin *string
	if err := json.Unmarshal(doc["pin"], &pin); err != nil || pin == nil || *pin == "" {
		return nil, fmt.Errorf("%w: missing pin", core.ErrCorruptImport)
	}

	accounts, ok := doc["cuentas"]
	if !ok {
		// Backups written by an older UI used an English key.
		if accounts, ok = doc["accounts"]; ok {
			doc["cuentas"] = accounts
			delete(doc, "accounts")
		}
	}
	if !ok || !isArray(accounts) {
		return nil, fmt.Errorf("%w: missing accounts collection", core.ErrCorruptImport)
	}
	if mv, ok := doc["movimientos"]; !ok || !isArray(mv) {
		return nil, fmt.Errorf("%w: missing movements collection", core.ErrCorruptImport)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptImport, err)
	}
	st, err := core.DecodeState(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptImport, err)
	}
	return st, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
