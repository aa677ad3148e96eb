// Package mssql implements the lookup store on Microsoft SQL Server using
// go-mssqldb through database/sql.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"rsidbuild/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN      string
	ReadOnly bool // sends ApplicationIntent=ReadOnly
}

// Repository is an MSSQL-backed storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	params, err := msdsn.Parse(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	params.ReadOnlyIntent = params.ReadOnlyIntent || cfg.ReadOnly

	db := sql.OpenDB(mssql.NewConnectorConfig(params))
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() storage.Dialect { return storage.MSSQL }

// Query implements storage.Repository. Arguments bind to @p1..@pN.
func (r *Repository) Query(ctx context.Context, query string, args ...any) (*storage.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mssql: query: %w", err)
	}
	res, err := storage.ScanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("mssql: %w", err)
	}
	return res, nil
}
