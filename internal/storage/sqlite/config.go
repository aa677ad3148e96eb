package sqlite

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is either a plain file path ("GTEx_v10.db") or a driver connection
	// string ("file:lookup.db?cache=shared").
	DSN string

	// ReadOnly opens plain paths with mode=ro and requires the file to exist.
	ReadOnly bool
}

// dataSource turns cfg into the string handed to database/sql.
func (cfg Config) dataSource() (string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return "", fmt.Errorf("sqlite: DSN must not be empty")
	}
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" || !cfg.ReadOnly {
		return dsn, nil
	}

	abs, err := filepath.Abs(dsn)
	if err != nil {
		return "", fmt.Errorf("sqlite: resolve %s: %w", dsn, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("sqlite: lookup database: %w", err)
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: "mode=ro"}
	return u.String(), nil
}
