package datarecording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Registers the clickhouse database/sql driver.
	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseConfig describes how to reach a ClickHouse server, for example
// DSN "clickhouse://default:@localhost:9000/retention".
type ClickHouseConfig struct {
	DSN         string
	PingTimeout time.Duration
}

// Validate checks that the configuration can be used.
func (c ClickHouseConfig) Validate() error {
	if c.DSN == "" {
		return errors.New("clickhouse DSN is required")
	}

	if c.PingTimeout <= 0 {
		return errors.New("clickhouse ping timeout must be positive")
	}

	return nil
}

// OpenClickHouse connects to a ClickHouse server and checks that it answers.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("clickhouse", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}

// NewClickHouseReader creates a DataReader on an open ClickHouse database.
func NewClickHouseReader(db *sql.DB) DataReader {
	return newReader(db, clickhouseDialect{})
}
