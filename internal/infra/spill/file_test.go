package spill

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hawkly/errwatch/internal/core/domain"
)

func TestFileStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	store := NewFileStore(path)
	ctx := context.Background()

	reports := []*domain.Report{
		{Message: "first", URL: "svc://a", UserAgent: "ua", Timestamp: time.Now().UTC().Truncate(time.Second)},
		{Message: "second", URL: "svc://b", UserAgent: "ua", Timestamp: time.Now().UTC().Truncate(time.Second)},
	}

	if err := store.Save(ctx, reports); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d reports, want 2", len(loaded))
	}
	if loaded[0].Message != "first" || loaded[1].Message != "second" {
		t.Errorf("order not preserved: %q, %q", loaded[0].Message, loaded[1].Message)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected empty store after Clear, got %d reports", len(loaded))
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load of missing file should not error: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil, got %v", loaded)
	}
}

func TestFileStore_ClearMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear of missing file should not error: %v", err)
	}
}

func TestFileStore_SaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, []*domain.Report{{Message: "old"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, []*domain.Report{{Message: "new"}}); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].Message != "new" {
		t.Errorf("Save must replace the stored set, got %+v", loaded)
	}
}
