package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"todo/api/internal/search"
	"todo/api/internal/store"
	"todo/api/internal/validate"
)

type dataStore interface {
	ListTodos(ctx context.Context) ([]store.Todo, error)
	InsertTodo(ctx context.Context, title string) (store.Todo, error)
	UpdateTodo(ctx context.Context, id, title string) (bool, error)
	DeleteTodo(ctx context.Context, id string) error
	SearchTodos(ctx context.Context, query string, limit int) ([]store.Todo, error)
	Ping(ctx context.Context) error
}

type searchIndex interface {
	Search(ctx context.Context, q search.Query) ([]store.Todo, error)
	Index(item store.Todo)
	Delete(id string)
	Resync()
	Enabled() bool
	Healthy() bool
}

type Service struct {
	store  dataStore
	search searchIndex
	logger *log.Logger
}

// New wires the service. A nil searchService searches through the store only.
func New(dataStore dataStore, searchService *search.Service, logger *log.Logger) *Service {
	if searchService == nil {
		searchService = search.NewService(nil, dataStore, logger)
	}
	return &Service{store: dataStore, search: searchService, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]store.Todo, error) {
	items, err := s.store.ListTodos(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, title string) (store.Todo, error) {
	if err := validateTitle(title); err != nil {
		return store.Todo{}, err
	}
	item, err := s.store.InsertTodo(ctx, title)
	if err != nil {
		return store.Todo{}, storageError(err)
	}
	s.search.Index(item)
	return item, nil
}

// Update replaces the title of id. Updating an id that does not exist is a
// successful no-op.
func (s *Service) Update(ctx context.Context, id, title string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	found, err := s.store.UpdateTodo(ctx, id, title)
	if err != nil {
		return storageError(err)
	}
	if !found {
		s.logger.Debug("update of unknown todo ignored", "id", id)
		return nil
	}
	s.search.Index(store.Todo{ID: id, Title: title})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTodo(ctx, id); err != nil {
		return storageError(err)
	}
	s.search.Delete(id)
	return nil
}

// Search returns items whose title contains query. A blank query lists everything.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.Todo, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx)
	}
	items, err := s.search.Search(ctx, search.Query{Text: query, Limit: limit})
	if err != nil {
		return nil, storageError(err)
	}
	return items, nil
}

// Reindex queues a rebuild of the search index from the store.
func (s *Service) Reindex() {
	if s.search.Enabled() {
		s.search.Resync()
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SearchEnabled() bool {
	return s.search.Enabled()
}

func (s *Service) SearchHealthy() bool {
	return s.search.Healthy()
}

func validateTitle(title string) error {
	return validate.Payload(map[string]any{"title": title})
}
