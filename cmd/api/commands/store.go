package commands

import (
	"context"
	"fmt"

	"todo/api/internal/config"
	"todo/api/internal/store"
)

type todoStore interface {
	ListTodos(ctx context.Context) ([]store.Todo, error)
	InsertTodo(ctx context.Context, title string) (store.Todo, error)
	UpdateTodo(ctx context.Context, id, title string) (bool, error)
	DeleteTodo(ctx context.Context, id string) error
	SearchTodos(ctx context.Context, query string, limit int) ([]store.Todo, error)
	Ping(ctx context.Context) error
	Close() error
}

// openSQL opens the configured SQL database and applies pending migrations.
func openSQL(ctx context.Context, cfg config.Config) (*store.SQLStore, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := store.ApplyMigrations(ctx, db, store.Postgres); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewSQLStore(db, store.Postgres), nil
	case config.StoreSQLite:
		db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := store.ApplyMigrations(ctx, db, store.SQLite); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewSQLStore(db, store.SQLite), nil
	default:
		return nil, fmt.Errorf("store %q has no SQL schema", cfg.Store)
	}
}

func openStore(ctx context.Context, cfg config.Config) (todoStore, error) {
	if cfg.Store == config.StoreRedis {
		redisStore, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return redisStore, nil
	}
	return openSQL(ctx, cfg)
}
