package store

import (
	"context"
	"database/sql"
	"fmt"

	"todo/api/internal/util"
)

// SQLStore keeps todo items in the single `todo` table of a Postgres or
// SQLite database. Every operation is one statement, so no explicit
// transactions are needed.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) ListTodos(ctx context.Context) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, title
		FROM todo
		ORDER BY %s
	`, s.dialect.orderColumn))
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return scanTodos(rows)
}

func (s *SQLStore) InsertTodo(ctx context.Context, title string) (Todo, error) {
	item := Todo{ID: util.NewID(), Title: title}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`INSERT INTO todo (id, title) VALUES (?, ?)`), item.ID, item.Title)
	if err != nil {
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return item, nil
}

// UpdateTodo reports whether a row with the id existed.
func (s *SQLStore) UpdateTodo(ctx context.Context, id, title string) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE todo SET title=? WHERE id=?`), title, id)
	if err != nil {
		return false, fmt.Errorf("update todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update todo rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLStore) DeleteTodo(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM todo WHERE id=?`), id); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// SearchTodos does a case-insensitive substring match on titles.
func (s *SQLStore) SearchTodos(ctx context.Context, query string, limit int) ([]Todo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(fmt.Sprintf(`
		SELECT id, title
		FROM todo
		WHERE title %s ? ESCAPE '\'
		ORDER BY %s
		LIMIT ?
	`, s.dialect.likeOperator, s.dialect.orderColumn)), "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search todos: %w", err)
	}
	return scanTodos(rows)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func scanTodos(rows *sql.Rows) ([]Todo, error) {
	defer rows.Close()

	items := make([]Todo, 0)
	for rows.Next() {
		var item Todo
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return items, nil
}
