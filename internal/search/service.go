package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"todo/api/internal/store"
)

const (
	queueSize     = 256
	resyncTimeout = 30 * time.Second
)

type opKind int

const (
	opIndex opKind = iota
	opDelete
	opResync
)

type indexOp struct {
	kind opKind
	item store.Todo
}

// Service tries Meilisearch first and falls back to the store. Index writes go
// through one worker so they reach Meilisearch in the order they were made.
type Service struct {
	meili  *Meili
	source Source
	logger *log.Logger

	ops   chan indexOp
	dirty atomic.Bool
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, source Source, logger *log.Logger) *Service {
	s := &Service{
		meili:  meili,
		source: source,
		logger: logger,
		ops:    make(chan indexOp, queueSize),
		done:   make(chan struct{}),
	}
	if meili != nil {
		meili.OnRecover(s.Resync)
		s.wg.Add(1)
		go s.run()
	}
	return s
}

func (s *Service) indexAvailable() bool {
	return s.meili != nil && s.meili.Healthy()
}

func (s *Service) Search(ctx context.Context, q Query) ([]store.Todo, error) {
	if s.indexAvailable() {
		items, err := s.meili.Search(q)
		if err == nil {
			return items, nil
		}
		s.logger.Warn("search: meilisearch error, falling back to store", "err", err)
	}
	return s.source.SearchTodos(ctx, q.Text, q.limit())
}

// Index queues an item for indexing.
func (s *Service) Index(item store.Todo) {
	s.enqueue(indexOp{kind: opIndex, item: item})
}

// Delete queues an item's removal from the index.
func (s *Service) Delete(id string) {
	s.enqueue(indexOp{kind: opDelete, item: store.Todo{ID: id}})
}

// Resync queues a full rebuild of the index from the store. It runs at
// startup and whenever Meilisearch recovers from an outage.
func (s *Service) Resync() {
	s.enqueue(indexOp{kind: opResync})
}

func (s *Service) enqueue(op indexOp) {
	if s.meili == nil {
		return
	}
	select {
	case <-s.done:
	case s.ops <- op:
	default:
		// Queue full: drop the write and rebuild once the queue drains.
		s.dirty.Store(true)
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case op := <-s.ops:
			s.apply(op)
		}
		if len(s.ops) == 0 && s.dirty.Load() && s.meili.Healthy() {
			s.resync()
		}
	}
}

func (s *Service) apply(op indexOp) {
	if !s.meili.Healthy() {
		// Missed writes are recovered by the resync that follows recovery.
		s.dirty.Store(true)
		return
	}

	var err error
	switch op.kind {
	case opIndex:
		err = s.meili.IndexRecords([]Record{recordFor(op.item)})
	case opDelete:
		err = s.meili.DeleteRecord(op.item.ID)
	case opResync:
		s.resync()
		return
	}
	if err != nil {
		s.dirty.Store(true)
		s.logger.Warn("search: index write failed", "id", op.item.ID, "err", err)
	}
}

func (s *Service) resync() {
	s.dirty.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()
	items, err := s.source.ListTodos(ctx)
	if err != nil {
		s.dirty.Store(true)
		s.logger.Warn("search: list todos for resync", "err", err)
		return
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, recordFor(item))
	}
	if err := s.meili.ReplaceAll(records); err != nil {
		s.dirty.Store(true)
		s.logger.Warn("search: resync index", "count", len(records), "err", err)
		return
	}
	s.logger.Info("search: index resynced", "count", len(records))
}

// Healthy reports whether searches are served by the index. The store
// fallback is always available, so this is informational only.
func (s *Service) Healthy() bool {
	return s.indexAvailable()
}

// Enabled reports whether an index was configured at all.
func (s *Service) Enabled() bool {
	return s.meili != nil
}

// Close stops the index worker and the health monitor.
func (s *Service) Close() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.meili != nil {
			s.meili.Close()
		}
	})
}
