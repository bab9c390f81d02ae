package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/items-backend/internal/items/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
create table if not exists todo_items (
	seq       bigint generated always as identity,
	id        varchar(36) primary key,
	name      varchar(255) not null default '',
	completed boolean not null default false
);
`

type Options struct {
	DSN       string
	MaxConns  int
	MinConns  int
	ConnectTO time.Duration
	PingTO    time.Duration
}

// Store keeps items in PostgreSQL through a pgx connection pool.
type Store struct {
	opt Options

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

func New(opt Options) *Store {
	if opt.ConnectTO == 0 {
		opt.ConnectTO = 5 * time.Second
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}
	return &Store{opt: opt}
}

// Init opens the pool, pings it, and creates the items table if needed.
func (s *Store) Init(ctx context.Context) error {
	if s.opt.DSN == "" {
		return fmt.Errorf("DB_DSN is not set")
	}

	cfg, err := pgxpool.ParseConfig(s.opt.DSN)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	if s.opt.MaxConns > 0 {
		cfg.MaxConns = int32(s.opt.MaxConns)
	}
	if s.opt.MinConns > 0 {
		cfg.MinConns = int32(s.opt.MinConns)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	cctx, cancel := context.WithTimeout(ctx, s.opt.ConnectTO)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(cctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}

	// Fail fast
	pctx, pcancel := context.WithTimeout(ctx, s.opt.PingTO)
	defer pcancel()

	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping: %w", err)
	}

	if _, err := pool.Exec(cctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()

	return nil
}

// Teardown closes the pool. Calling it more than once, or before Init, is a no-op.
func (s *Store) Teardown(context.Context) error {
	s.mu.Lock()
	pool := s.pool
	s.pool = nil
	s.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.db()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	pool, err := s.db()
	if err != nil {
		return nil, err
	}

	const q = `
select id, name, completed
from todo_items
order by seq;
`
	rows, err := pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Item, 0, 16)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Completed); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	pool, err := s.db()
	if err != nil {
		return nil, err
	}

	const q = `select id, name, completed from todo_items where id = $1;`

	var it domain.Item
	err = pool.QueryRow(ctx, q, id).Scan(&it.ID, &it.Name, &it.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

func (s *Store) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	pool, err := s.db()
	if err != nil {
		return nil, err
	}

	const q = `
insert into todo_items (id, name, completed)
values ($1, $2, false)
returning id, name, completed;
`
	for i := 0; i < 5; i++ {
		var it domain.Item
		err = pool.QueryRow(ctx, q, uuid.New().String(), in.Name).
			Scan(&it.ID, &it.Name, &it.Completed)
		if err == nil {
			return &it, nil
		}

		// unique violation on id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, fmt.Errorf("create item: %w", err)
	}

	return nil, fmt.Errorf("failed to generate unique item id")
}

func (s *Store) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error) {
	pool, err := s.db()
	if err != nil {
		return nil, err
	}

	const q = `
update todo_items
set name = $2, completed = $3
where id = $1
returning id, name, completed;
`
	var it domain.Item
	err = pool.QueryRow(ctx, q, id, in.Name, in.Completed).Scan(&it.ID, &it.Name, &it.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return &it, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	pool, err := s.db()
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `delete from todo_items where id = $1;`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *Store) db() (*pgxpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pool == nil {
		return nil, domain.ErrNotInitialized
	}
	return s.pool, nil
}
