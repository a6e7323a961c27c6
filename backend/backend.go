// Package backend opens the store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"budgetd/config"
	"budgetd/logging"
	"budgetd/store"
	"budgetd/store/memory"
	"budgetd/store/postgres"
)

// Open returns the configured store, running migrations first when the
// postgres backend has auto-migrate enabled. Callers Close the store.
func Open(ctx context.Context, cfg *config.Config, log *logging.Logger) (store.Store, error) {
	log = log.WithComponent(logging.ComponentStorage)
	switch cfg.StorageBackend {
	case config.BackendMemory:
		log.Warn("using in-memory storage; data is lost on restart", logging.FieldBackend, cfg.StorageBackend)
		return memory.New(), nil
	case config.BackendPostgres:
		if cfg.AutoMigrate {
			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				return nil, err
			}
			log.Info("schema migrations applied", logging.FieldOperation, logging.OpMigrate)
		}
		s, err := OpenPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres",
			logging.FieldBackend, cfg.StorageBackend,
			"max_open_conns", cfg.DBMaxOpenConns,
			"timeout", cfg.DBTimeout.String(),
		)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// OpenPostgres connects without migrating. Used by the operator tools.
func OpenPostgres(ctx context.Context, cfg *config.Config, log *logging.Logger) (*postgres.Store, error) {
	return postgres.Open(ctx, postgres.Options{
		DSN:             cfg.DatabaseURL,
		Timeout:         cfg.DBTimeout,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		Logger:          log.Logger,
	})
}
