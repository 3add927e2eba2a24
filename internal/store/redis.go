package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-redis/redis/v8"

	"github.com/vyrodovalexey/todolist/internal/model"
)

// updateIfExists sets the text field only when the item hash exists, so a
// concurrent delete cannot resurrect the item.
var updateIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("HSET", KEYS[1], "text", ARGV[1])
	return 1
end
return 0
`)

// RedisStore keeps each item in a hash and the insertion order in a
// sorted set scored by a monotonically increasing sequence.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new RedisStore. Keys are namespaced by prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "todos"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) itemKey(id string) string { return fmt.Sprintf("%s:item:%s", s.prefix, id) }
func (s *RedisStore) orderKey() string         { return s.prefix + ":order" }
func (s *RedisStore) seqKey() string           { return s.prefix + ":seq" }

// Find returns matching items in insertion order.
func (s *RedisStore) Find(ctx context.Context, filter Filter, w Window) ([]model.Item, error) {
	if filter.Text == "" {
		// A negative start would count from the tail.
		start := max(int64(w.Skip), 0)
		stop := int64(-1)
		if w.Limit > 0 {
			stop = start + int64(w.Limit) - 1
			if stop < start {
				stop = math.MaxInt64
			}
		}
		ids, err := s.client.ZRange(ctx, s.orderKey(), start, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("find items: %w", err)
		}
		return s.load(ctx, ids)
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Item, 0, len(all))
	for _, item := range all {
		if filter.Match(item.Text) {
			matched = append(matched, item)
		}
	}
	return window(matched, w), nil
}

// Count returns the number of matching items.
func (s *RedisStore) Count(ctx context.Context, filter Filter) (int64, error) {
	if filter.Text == "" {
		n, err := s.client.ZCard(ctx, s.orderKey()).Result()
		if err != nil {
			return 0, fmt.Errorf("count items: %w", err)
		}
		return n, nil
	}

	all, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, item := range all {
		if filter.Match(item.Text) {
			n++
		}
	}
	return n, nil
}

// Insert stores a new item and appends it to the order index.
func (s *RedisStore) Insert(ctx context.Context, text string) (*model.Item, error) {
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	item := model.Item{ID: newID(), Text: text}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.itemKey(item.ID), "text", item.Text)
		pipe.ZAdd(ctx, s.orderKey(), &redis.Z{Score: float64(seq), Member: item.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &item, nil
}

// UpdateByID replaces the text of an existing item.
func (s *RedisStore) UpdateByID(ctx context.Context, id, text string) (*model.Item, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	updated, err := updateIfExists.Run(ctx, s.client, []string{s.itemKey(id)}, text).Int()
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if updated == 0 {
		return nil, nil
	}
	return &model.Item{ID: id, Text: text}, nil
}

// DeleteByID removes the item and its order entry.
func (s *RedisStore) DeleteByID(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.itemKey(id))
		pipe.ZRem(ctx, s.orderKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// all loads every item in order.
func (s *RedisStore) all(ctx context.Context) ([]model.Item, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	return s.load(ctx, ids)
}

// load fetches the texts for ids in one pipeline. IDs whose hash vanished
// between the range read and the fetch are skipped.
func (s *RedisStore) load(ctx context.Context, ids []string) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGet(ctx, s.itemKey(id), "text")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load items: %w", err)
	}

	items := make([]model.Item, 0, len(ids))
	for i, cmd := range cmds {
		text, err := cmd.Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("load item %s: %w", ids[i], err)
		}
		items = append(items, model.Item{ID: ids[i], Text: text})
	}
	return items, nil
}
