// Package lookup runs the batched, parameterised queries against the GTEx
// lookup table. Table and column names are checked against a fixed
// allow-list before any SQL is composed; key values are only ever bound.
package lookup

// Lookup table layout.
const (
	Table = "GTEx_lookup"

	ColumnRSID     = "rsid_dbSNP155"
	ColumnChrPos37 = "chrpos37"
	ColumnChrPos38 = "chrpos38"
	ColumnRef      = "ref"
	ColumnAlt      = "alt"
)

// DefaultBatchSize bounds the number of bound parameters per statement.
const DefaultBatchSize = 10000

var (
	allowedTables = map[string]struct{}{
		Table: {},
	}
	allowedColumns = map[string]struct{}{
		ColumnRSID:     {},
		ColumnChrPos37: {},
		ColumnChrPos38: {},
	}
)

// CheckTarget returns *InvalidQueryTargetError unless table and column are
// both on the allow-list.
func CheckTarget(table, column string) error {
	if _, ok := allowedTables[table]; !ok {
		return &InvalidQueryTargetError{Kind: "table", Name: table}
	}
	if _, ok := allowedColumns[column]; !ok {
		return &InvalidQueryTargetError{Kind: "column", Name: column}
	}
	return nil
}
