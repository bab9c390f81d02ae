// Package persistence defines the storage contract used by the items service
// and selects a backend from configuration.
package persistence

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/items-backend/config"
	"github.com/GoSim-25-26J-441/items-backend/internal/items/domain"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence/postgres"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence/redisstore"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence/sqldb"
)

// Lifecycle is the connection half of a store.
// Teardown must be safe to call more than once and before Init.
type Lifecycle interface {
	Init(ctx context.Context) error
	Teardown(ctx context.Context) error
	Ping(ctx context.Context) error
}

// ItemRepository is the data half of a store.
type ItemRepository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
}

type Store interface {
	Lifecycle
	ItemRepository
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqldb.Store)(nil)
	_ Store = (*redisstore.Store)(nil)
)

// Open builds the store named by cfg.Persistence.Driver. It does not connect; call Init.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Persistence.Driver {
	case config.DriverPostgres:
		return postgres.New(postgres.Options{
			DSN:       cfg.Database.ConnString(),
			MaxConns:  cfg.Database.MaxConns,
			MinConns:  cfg.Database.MinConns,
			ConnectTO: cfg.Database.ConnectTimeout,
		}), nil
	case config.DriverSQL:
		return sqldb.New(sqldb.Options{
			DSN:          cfg.Database.ConnString(),
			MaxOpenConns: cfg.Database.MaxConns,
		}), nil
	case config.DriverRedis:
		return redisstore.New(redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported persistence driver %q", cfg.Persistence.Driver)
	}
}
