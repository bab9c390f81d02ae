package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/items-backend/internal/items/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const schema = `
create table if not exists todo_items (
	seq       bigserial,
	id        varchar(36) primary key,
	name      varchar(255) not null default '',
	completed boolean not null default false
)`

type Options struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	PingTO       time.Duration
}

// Store keeps items in PostgreSQL through database/sql and the lib/pq driver.
type Store struct {
	opt Options

	mu sync.RWMutex
	db *sql.DB
}

func New(opt Options) *Store {
	if opt.MaxOpenConns == 0 {
		opt.MaxOpenConns = 25
	}
	if opt.MaxIdleConns == 0 {
		opt.MaxIdleConns = 5
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}
	return &Store{opt: opt}
}

// NewWithDB uses an already opened handle; Init still pings it and creates the schema.
func NewWithDB(db *sql.DB) *Store {
	s := New(Options{})
	s.db = db
	return s
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db
	if db == nil {
		if s.opt.DSN == "" {
			return fmt.Errorf("DB_DSN is not set")
		}

		var err error
		db, err = sql.Open("postgres", s.opt.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(s.opt.MaxOpenConns)
		db.SetMaxIdleConns(s.opt.MaxIdleConns)
	}

	pctx, cancel := context.WithTimeout(ctx, s.opt.PingTO)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		s.db = nil
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		s.db = nil
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db
	return nil
}

func (s *Store) Teardown(context.Context) error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, name, completed FROM todo_items ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Item, 0, 16)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var it domain.Item
	err = db.QueryRowContext(ctx, `SELECT id, name, completed FROM todo_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Name, &it.Completed)
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &it, nil
}

func (s *Store) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO todo_items (id, name, completed)
		VALUES ($1, $2, false)
		RETURNING id, name, completed
	`

	for i := 0; i < 5; i++ {
		var it domain.Item
		err = db.QueryRowContext(ctx, query, uuid.New().String(), in.Name).
			Scan(&it.ID, &it.Name, &it.Completed)
		if err == nil {
			return &it, nil
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			continue
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return nil, fmt.Errorf("failed to generate unique item id")
}

func (s *Store) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE todo_items
		SET name = $2, completed = $3
		WHERE id = $1
		RETURNING id, name, completed
	`

	var it domain.Item
	err = db.QueryRowContext(ctx, query, id, in.Name, in.Completed).
		Scan(&it.ID, &it.Name, &it.Completed)
	if err == sql.ErrNoRows {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return &it, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM todo_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, domain.ErrNotInitialized
	}
	return s.db, nil
}
