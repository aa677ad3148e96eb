package storage

import (
	"strconv"
	"strings"
)

// Dialect names a SQL flavour. It controls bind placeholders and identifier
// quoting; values are always bound, never formatted into the statement.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
	MySQL    Dialect = "mysql"
)

// MaxParams is the largest number of bind parameters one statement may
// carry on this engine.
func (d Dialect) MaxParams() int {
	switch d {
	case MSSQL:
		return 2100
	case Postgres, MySQL:
		return 65535
	default:
		return 32766
	}
}

// Placeholder returns the bind marker for the i-th (1-based) argument.
func (d Dialect) Placeholder(i int) string {
	switch d {
	case Postgres:
		return "$" + strconv.Itoa(i)
	case MSSQL:
		return "@p" + strconv.Itoa(i)
	default:
		return "?"
	}
}

// Placeholders returns n comma-separated bind markers starting at 1.
func (d Dialect) Placeholders(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		b.WriteString(d.Placeholder(i))
	}
	return b.String()
}

// QuoteIdent quotes a single identifier segment, escaping the quote
// character by doubling it.
func (d Dialect) QuoteIdent(id string) string {
	switch d {
	case MSSQL:
		return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]`
	case MySQL:
		return "`" + strings.ReplaceAll(id, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
	}
}
