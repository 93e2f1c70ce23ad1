// Package postgres wraps database/sql with lib/pq for the snapshot archive.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mediatrack/recostats/pkg/config"

	_ "github.com/lib/pq"
)

// Client is a pooled PostgreSQL connection.
type Client struct {
	DB *sql.DB
}

// New opens a connection pool and verifies it with a ping before returning.
func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db}, nil
}

// Ping checks the connection, for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.DB.Close()
}
