package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"
	"time"
)

func openTestPostgres(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TODO_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TODO_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	return db
}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	db := openTestPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := ApplyMigrations(ctx, db, Postgres); err != nil {
		t.Fatalf("apply up migrations (pass 1): %v", err)
	}
	if err := applyDownMigrations(ctx, db, Postgres); err != nil {
		t.Fatalf("apply down migrations: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		t.Fatalf("clear schema_migrations: %v", err)
	}
	if err := ApplyMigrations(ctx, db, Postgres); err != nil {
		t.Fatalf("apply up migrations (pass 2): %v", err)
	}
}

func TestPostgresStoreCRUD(t *testing.T) {
	db := openTestPostgres(t)
	ctx := context.Background()
	if err := ApplyMigrations(ctx, db, Postgres); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	s := NewSQLStore(db, Postgres)

	first, err := s.InsertTodo(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("InsertTodo: %v", err)
	}
	second, _ := s.InsertTodo(ctx, "Walk dog")

	if ok, err := s.UpdateTodo(ctx, first.ID, "Updated"); err != nil || !ok {
		t.Fatalf("UpdateTodo = %v, %v", ok, err)
	}
	if err := s.DeleteTodo(ctx, second.ID); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}

	items, err := s.ListTodos(ctx)
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Updated" {
		t.Fatalf("unexpected items %+v", items)
	}

	found, err := s.SearchTodos(ctx, "UPD", 5)
	if err != nil {
		t.Fatalf("SearchTodos: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected ILIKE match, got %+v", found)
	}
}

func applyDownMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	files, err := migrationFiles(migrationFS, dialect.migrationsRoot, ".down.sql")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	for _, file := range files {
		contents, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("execute %s: %w", file, err)
		}
	}
	return nil
}
