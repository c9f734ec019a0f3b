package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"todo/api/internal/util"
)

// updateIfExists only writes the title when the id is already present, so an
// update racing a delete never resurrects the item.
var updateIfExists = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// RedisStore keeps titles in a hash keyed by id and insertion order in a list.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "todo:",
	}
}

func (s *RedisStore) titlesKey() string {
	return s.prefix + "titles"
}

func (s *RedisStore) orderKey() string {
	return s.prefix + "order"
}

func (s *RedisStore) ListTodos(ctx context.Context) ([]Todo, error) {
	ids, err := s.client.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list todo ids: %w", err)
	}
	items := make([]Todo, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	titles, err := s.client.HMGet(ctx, s.titlesKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("list todo titles: %w", err)
	}
	for i, raw := range titles {
		// A nil entry is an id whose delete landed between the two reads.
		title, ok := raw.(string)
		if !ok {
			continue
		}
		items = append(items, Todo{ID: ids[i], Title: title})
	}
	return items, nil
}

func (s *RedisStore) InsertTodo(ctx context.Context, title string) (Todo, error) {
	item := Todo{ID: util.NewID(), Title: title}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.titlesKey(), item.ID, item.Title)
		pipe.RPush(ctx, s.orderKey(), item.ID)
		return nil
	})
	if err != nil {
		return Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return item, nil
}

func (s *RedisStore) UpdateTodo(ctx context.Context, id, title string) (bool, error) {
	updated, err := updateIfExists.Run(ctx, s.client, []string{s.titlesKey()}, id, title).Int()
	if err != nil {
		return false, fmt.Errorf("update todo: %w", err)
	}
	return updated == 1, nil
}

func (s *RedisStore) DeleteTodo(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.titlesKey(), id)
		pipe.LRem(ctx, s.orderKey(), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}

// SearchTodos filters the full list in memory; the list is small by nature.
func (s *RedisStore) SearchTodos(ctx context.Context, query string, limit int) ([]Todo, error) {
	if limit <= 0 {
		limit = 20
	}
	items, err := s.ListTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("search todos: %w", err)
	}
	needle := strings.ToLower(query)
	matches := make([]Todo, 0)
	for _, item := range items {
		if len(matches) == limit {
			break
		}
		if strings.Contains(strings.ToLower(item.Title), needle) {
			matches = append(matches, item)
		}
	}
	return matches, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
