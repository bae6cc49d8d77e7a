// Package store opens the chat.Store backend selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/config"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/mongo"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/postgres"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/redis"
	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/store/sqlite"
)

// Open connects to the configured backend.
func Open(ctx context.Context, cfg config.StoreConfig) (chat.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return chat.NewMemoryStore(), nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.URL)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL)
	case config.DriverRedis:
		return redis.Open(ctx, cfg.URL, cfg.RedisPrefix)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.URL, cfg.Database)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
