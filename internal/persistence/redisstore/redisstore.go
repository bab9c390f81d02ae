package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/items-backend/internal/items/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	itemKeyPrefix = "todo:item:" // Item data: todo:item:{id}
	itemIndexKey  = "todo:items" // Sorted set of item IDs scored by insertion sequence
	itemSeqKey    = "todo:seq"   // Insertion sequence counter
)

type Options struct {
	Addr     string
	Password string
	DB       int
	PingTO   time.Duration
}

// Store keeps items in Redis: one JSON value per item plus an ordered index.
type Store struct {
	opt Options

	mu     sync.RWMutex
	client *redis.Client
}

func New(opt Options) *Store {
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}
	return &Store{opt: opt}
}

// Init connects and pings. Calling it again on an initialized store reuses the
// existing client rather than replacing it.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, s.opt.PingTO)
	defer cancel()

	if s.client != nil {
		if err := s.client.Ping(pctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     s.opt.Addr,
		Password: s.opt.Password,
		DB:       s.opt.DB,
	})

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping: %w", err)
	}

	s.client = client
	return nil
}

func (s *Store) Teardown(context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	client, err := s.rdb()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	client, err := s.rdb()
	if err != nil {
		return nil, err
	}

	ids, err := client.ZRange(ctx, itemIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list item ids: %w", err)
	}

	out := make([]domain.Item, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// deleted between ZRANGE and MGET
			continue
		}
		var it domain.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	client, err := s.rdb()
	if err != nil {
		return nil, err
	}

	data, err := client.Get(ctx, itemKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var it domain.Item
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &it, nil
}

func (s *Store) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	client, err := s.rdb()
	if err != nil {
		return nil, err
	}

	// The sequence is allocated before anything is written so a failure here
	// leaves no item behind; a gap in the sequence is harmless.
	seq, err := client.Incr(ctx, itemSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	for i := 0; i < 5; i++ {
		it := domain.Item{ID: uuid.New().String(), Name: in.Name, Completed: false}

		data, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal item: %w", err)
		}

		ok, err := client.SetNX(ctx, itemKey(it.ID), data, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to create item: %w", err)
		}
		if !ok {
			continue
		}

		if err := client.ZAdd(ctx, itemIndexKey, redis.Z{Score: float64(seq), Member: it.ID}).Err(); err != nil {
			// An unindexed item is invisible to ListItems; remove it.
			_ = client.Del(context.WithoutCancel(ctx), itemKey(it.ID)).Err()
			return nil, fmt.Errorf("failed to index item: %w", err)
		}
		return &it, nil
	}

	return nil, fmt.Errorf("failed to generate unique item id")
}

func (s *Store) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error) {
	client, err := s.rdb()
	if err != nil {
		return nil, err
	}

	it := domain.Item{ID: id, Name: in.Name, Completed: in.Completed}
	data, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	ok, err := client.SetXX(ctx, itemKey(id), data, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &it, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	client, err := s.rdb()
	if err != nil {
		return err
	}

	pipe := client.TxPipeline()
	pipe.Del(ctx, itemKey(id))
	pipe.ZRem(ctx, itemIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *Store) rdb() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, domain.ErrNotInitialized
	}
	return s.client, nil
}

func itemKey(id string) string {
	return itemKeyPrefix + id
}
