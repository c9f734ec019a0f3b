package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := ApplyMigrations(ctx, db, SQLite); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewSQLStore(db, SQLite)
}

func TestSQLStoreInsertAndListKeepsInsertionOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	titles := []string{"Buy milk", "Walk dog", "Line one\nLine two  "}
	ids := make(map[string]struct{})
	for _, title := range titles {
		item, err := s.InsertTodo(ctx, title)
		if err != nil {
			t.Fatalf("InsertTodo(%q): %v", title, err)
		}
		if item.ID == "" {
			t.Fatalf("expected generated id")
		}
		if item.Title != title {
			t.Fatalf("expected title %q, got %q", title, item.Title)
		}
		ids[item.ID] = struct{}{}
	}
	if len(ids) != len(titles) {
		t.Fatalf("expected %d distinct ids, got %d", len(titles), len(ids))
	}

	items, err := s.ListTodos(ctx)
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(items) != len(titles) {
		t.Fatalf("expected %d items, got %d", len(titles), len(items))
	}
	for i, item := range items {
		if item.Title != titles[i] {
			t.Fatalf("item %d: expected %q, got %q", i, titles[i], item.Title)
		}
	}
}

func TestSQLStoreUpdateOnlyTouchesTarget(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	first, _ := s.InsertTodo(ctx, "first")
	second, _ := s.InsertTodo(ctx, "second")

	updated, err := s.UpdateTodo(ctx, first.ID, "Updated\nwith newline")
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if !updated {
		t.Fatalf("expected existing row to be updated")
	}

	items, _ := s.ListTodos(ctx)
	if items[0].ID != first.ID || items[0].Title != "Updated\nwith newline" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].ID != second.ID || items[1].Title != "second" {
		t.Fatalf("second item changed: %+v", items[1])
	}
}

func TestSQLStoreUpdateMissingIsNoop(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	updated, err := s.UpdateTodo(ctx, "missing", "title")
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if updated {
		t.Fatalf("expected no row to match")
	}
	items, _ := s.ListTodos(ctx)
	if len(items) != 0 {
		t.Fatalf("expected update of missing id to insert nothing, got %d items", len(items))
	}
}

func TestSQLStoreDeleteIsIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	item, _ := s.InsertTodo(ctx, "to delete")
	keep, _ := s.InsertTodo(ctx, "keep")

	for i := 0; i < 3; i++ {
		if err := s.DeleteTodo(ctx, item.ID); err != nil {
			t.Fatalf("DeleteTodo attempt %d: %v", i+1, err)
		}
	}

	items, _ := s.ListTodos(ctx)
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Fatalf("expected only %q to remain, got %+v", keep.ID, items)
	}
}

func TestSQLStoreRejectsEmptyTitle(t *testing.T) {
	s := newSQLiteStore(t)
	if _, err := s.InsertTodo(context.Background(), ""); err == nil {
		t.Fatalf("expected CHECK constraint to reject empty title")
	}
}

func TestSQLStoreSearchEscapesWildcards(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, _ = s.InsertTodo(ctx, "Buy MILK")
	_, _ = s.InsertTodo(ctx, "100% done")
	_, _ = s.InsertTodo(ctx, "walk dog")

	items, err := s.SearchTodos(ctx, "milk", 10)
	if err != nil {
		t.Fatalf("SearchTodos: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Buy MILK" {
		t.Fatalf("expected case-insensitive match, got %+v", items)
	}

	items, err = s.SearchTodos(ctx, "%", 10)
	if err != nil {
		t.Fatalf("SearchTodos: %v", err)
	}
	if len(items) != 1 || items[0].Title != "100% done" {
		t.Fatalf("expected literal percent match, got %+v", items)
	}
}

func TestApplyMigrationsIsRepeatable(t *testing.T) {
	s := newSQLiteStore(t)
	if err := ApplyMigrations(context.Background(), s.DB(), SQLite); err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", count)
	}
}
