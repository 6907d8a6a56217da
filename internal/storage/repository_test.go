package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	data, err := repo.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("empty load: data=%q err=%v", data, err)
	}

	if err := repo.Save(ctx, []byte(`{"pin":null}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, []byte(`{"pin":"1234"}`)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	data, err = repo.Load(ctx)
	if err != nil || string(data) != `{"pin":"1234"}` {
		t.Fatalf("load after save: data=%q err=%v", data, err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	data, err = repo.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("load after clear: data=%q err=%v", data, err)
	}
	// Clearing twice is fine.
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestFileRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseRepository(t, repo)
}

func TestFileRepositoryLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(filepath.Join(dir, "ledger.json"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := repo.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "ledger.json" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents: %v", names)
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := repo.Save(context.Background(), []byte(`{"theme":"dark"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	repo.Close()

	// Migrations must be idempotent on an existing database.
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	data, err := repo.Load(context.Background())
	if err != nil || string(data) != `{"theme":"dark"}` {
		t.Fatalf("load after reopen: data=%q err=%v", data, err)
	}
}
