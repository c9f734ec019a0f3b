package search

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	meili "github.com/meilisearch/meilisearch-go"

	"todo/api/internal/store"
)

const (
	idxTodos            = "todos"
	defaultHealthPeriod = 10 * time.Second
)

// Meili indexes and searches todo titles in Meilisearch.
type Meili struct {
	client    meili.ServiceManager
	logger    *log.Logger
	healthy   atomic.Bool
	onRecover atomic.Pointer[func()]
	done      chan struct{}
	period    time.Duration
}

// NewMeili creates a Meilisearch client and configures the index. The client
// is returned even when the server is unreachable; Healthy reports that.
func NewMeili(url, apiKey string, logger *log.Logger) *Meili {
	return newMeili(url, apiKey, logger, defaultHealthPeriod)
}

func newMeili(url, apiKey string, logger *log.Logger, period time.Duration) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		logger: logger,
		done:   make(chan struct{}),
		period: period,
	}

	if _, err := m.client.Health(); err != nil {
		logger.Warn("search: meilisearch unavailable", "url", url, "err", err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

// OnRecover registers fn to run each time Meilisearch becomes reachable
// again after an outage.
func (m *Meili) OnRecover(fn func()) {
	m.onRecover.Store(&fn)
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxTodos,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("search: create index (may already exist)", "index", idxTodos, "err", err)
	}

	searchable := []string{"title"}
	if _, err := m.client.Index(idxTodos).UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("search: update searchable attrs", "index", idxTodos, "err", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
				if fn := m.onRecover.Load(); fn != nil {
					(*fn)()
				}
			} else if err != nil && wasHealthy {
				m.logger.Warn("search: meilisearch unavailable", "err", err)
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Search(q Query) ([]store.Todo, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	// A failed query leaves health to the health loop; an index being
	// rebuilt answers with an error too.
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxTodos,
			Query:    q.Text,
			Limit:    int64(q.limit()),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	items := make([]store.Todo, 0)
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			item := store.Todo{ID: decodeString(hit, "id"), Title: decodeString(hit, "title")}
			if item.ID == "" {
				continue
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// IndexRecords adds or replaces records in the index.
func (m *Meili) IndexRecords(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxTodos).AddDocuments(records, nil)
	return err
}

// DeleteRecord removes a record from the index.
func (m *Meili) DeleteRecord(id string) error {
	_, err := m.client.Index(idxTodos).DeleteDocument(id, nil)
	return err
}

// ReplaceAll drops the index and rebuilds it from records. Meilisearch runs
// tasks for one index in enqueue order, so the rebuild never interleaves with
// writes enqueued after it.
func (m *Meili) ReplaceAll(records []Record) error {
	if _, err := m.client.DeleteIndex(idxTodos); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	m.configureIndex()
	if err := m.IndexRecords(records); err != nil {
		return fmt.Errorf("index records: %w", err)
	}
	return nil
}
