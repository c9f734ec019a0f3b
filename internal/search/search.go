// Package search finds todo items by title, through Meilisearch when it is
// configured and healthy, and through the store otherwise.
package search

import (
	"context"

	"todo/api/internal/store"
)

const defaultLimit = 20

// Query describes a search request.
type Query struct {
	Text  string
	Limit int
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	return q.Limit
}

// Record is the document we index for an item.
type Record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func recordFor(item store.Todo) Record {
	return Record{ID: item.ID, Title: item.Title}
}

// Source is the store behind the index. It answers searches when no index is
// available and lists every item when the index is rebuilt.
type Source interface {
	ListTodos(ctx context.Context) ([]store.Todo, error)
	SearchTodos(ctx context.Context, query string, limit int) ([]store.Todo, error)
}
