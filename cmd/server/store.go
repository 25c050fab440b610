package main

import (
	"alcyxob/workout-tracker/internal/config"
	"alcyxob/workout-tracker/internal/repository"
	"alcyxob/workout-tracker/internal/repository/mongo"
	"alcyxob/workout-tracker/internal/repository/sqlstore"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ledgerStore is the set of repositories backing the services, whichever
// database driver is configured.
type ledgerStore struct {
	tx        repository.Transactor
	users     repository.UserRepository
	templates repository.TemplateRepository
	sessions  repository.SessionRepository
	history   repository.HistoryRepository
	close     func() error
}

// openStore connects to the configured database and prepares its schema:
// goose migrations for sqlite, indexes for mongo.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*ledgerStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := sqlstore.Ping(ctx, db); err != nil {
			_ = sqlstore.Close(db)
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		if err := sqlstore.RunMigrations(ctx, db); err != nil {
			_ = sqlstore.Close(db)
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return &ledgerStore{
			tx:        sqlstore.NewTransactor(db),
			users:     sqlstore.NewUserRepository(db),
			templates: sqlstore.NewTemplateRepository(db),
			sessions:  sqlstore.NewSessionRepository(db),
			history:   sqlstore.NewHistoryRepository(db),
			close:     func() error { return sqlstore.Close(db) },
		}, nil

	case config.DriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.Name)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = mongo.DisconnectDB(client)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		if !cfg.Transactions {
			log.Warn().Msg("mongo transactions disabled; multi-step writes are not atomic")
		}
		log.Info().Str("database", cfg.Name).Msg("mongo store ready")
		return &ledgerStore{
			tx:        mongo.NewTransactor(client, cfg.Transactions),
			users:     mongo.NewMongoUserRepository(db),
			templates: mongo.NewMongoTemplateRepository(db),
			sessions:  mongo.NewMongoSessionRepository(db),
			history:   mongo.NewMongoHistoryRepository(db),
			close:     func() error { return mongo.DisconnectDB(client) },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
