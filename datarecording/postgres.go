package datarecording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig describes how to reach a Postgres server.
type PostgresConfig struct {
	URL          string
	PingTimeout  time.Duration
	MaxOpenConns int
}

// Validate checks that the configuration can be used.
func (c PostgresConfig) Validate() error {
	if c.URL == "" {
		return errors.New("postgres URL is required")
	}

	if c.PingTimeout <= 0 {
		return errors.New("postgres ping timeout must be positive")
	}

	if c.MaxOpenConns < 1 {
		return errors.New("postgres max open connections must be >= 1")
	}

	return nil
}

// OpenPostgres connects to a Postgres server and checks that it answers.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}
