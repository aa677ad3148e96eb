// Package lookuptest builds small SQLite lookup databases for tests.
package lookuptest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"rsidbuild/internal/lookup"
	"rsidbuild/internal/storage"
	"rsidbuild/internal/storage/sqlite"
)

// Variant is one lookup table row. Empty strings are stored as NULL.
type Variant struct {
	RSID, ChrPos37, ChrPos38, Ref, Alt string
}

// Columns is the fixture table layout.
var Columns = []string{
	lookup.ColumnRSID,
	lookup.ColumnChrPos37,
	lookup.ColumnChrPos38,
	lookup.ColumnRef,
	lookup.ColumnAlt,
}

// Default is a handful of real-looking variants used across tests.
var Default = []Variant{
	{"rs123", "7_123445", "7_123999", "A", "G"},
	{"rs456", "1_4346456", "1_4400000", "C", "T"},
	{"rs789", "16_23434", "16_23500", "G", "A"},
	{"rs1000", "X_500", "X_600", "T", ""},
}

// NewDB writes rows to a fresh SQLite file under t.TempDir and returns its
// path.
func NewDB(t testing.TB, rows []Variant) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "GTEx_v10.db")
	if err := Write(context.Background(), path, rows); err != nil {
		t.Fatalf("lookuptest: %v", err)
	}
	return path
}

// Write creates the lookup table at path and inserts rows.
func Write(ctx context.Context, path string, rows []Variant) error {
	repo, closeFn, err := sqlite.NewRepository(ctx, sqlite.Config{DSN: path})
	if err != nil {
		return err
	}
	defer closeFn()

	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = storage.SQLite.QuoteIdent(c) + " TEXT"
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", storage.SQLite.QuoteIdent(lookup.Table), strings.Join(cols, ", "))
	if err := repo.Exec(ctx, ddl); err != nil {
		return err
	}

	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{null(r.RSID), null(r.ChrPos37), null(r.ChrPos38), null(r.Ref), null(r.Alt)}
	}
	_, err = repo.CopyFrom(ctx, lookup.Table, Columns, vals)
	return err
}

func null(s string) any {
	if s == "" {
		return nil
	}
	return s
}
