// Package mysql implements the lookup store on MySQL/MariaDB through
// database/sql and go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"rsidbuild/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN      string
	ReadOnly bool // every session starts with transaction_read_only=ON
}

// Repository is a MySQL-backed storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.ReadOnly {
		if mc.Params == nil {
			mc.Params = map[string]string{}
		}
		mc.Params["transaction_read_only"] = "1"
	}
	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() storage.Dialect { return storage.MySQL }

// Query implements storage.Repository.
func (r *Repository) Query(ctx context.Context, query string, args ...any) (*storage.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: query: %w", err)
	}
	res, err := storage.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return res, nil
}
