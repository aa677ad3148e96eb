// Package variant knows what variant identifiers look like: which lookup
// mode reads which input columns, how rsIDs and chromosome/position pairs
// are recognised, and how lookup keys are derived from input rows.
package variant

import (
	"fmt"

	"rsidbuild/internal/lookup"
)

// Mode selects the identifier form carried by the input and therefore the
// lookup table column that is queried.
type Mode string

const (
	ByRSID     Mode = "rsid"
	ByChrPos37 Mode = "chrpos37"
	ByChrPos38 Mode = "chrpos38"
)

// Modes lists every supported mode in CLI order.
var Modes = []Mode{ByRSID, ByChrPos37, ByChrPos38}

// ParseMode accepts the subcommand spelling of a mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown lookup mode %q (want one of %v)", s, Modes)
}

// LookupColumn is the lookup table column matched against the input keys.
func (m Mode) LookupColumn() string {
	switch m {
	case ByChrPos37:
		return lookup.ColumnChrPos37
	case ByChrPos38:
		return lookup.ColumnChrPos38
	default:
		return lookup.ColumnRSID
	}
}

// Paired reports whether the mode builds composite chr_pos keys from two
// input columns.
func (m Mode) Paired() bool { return m == ByChrPos37 || m == ByChrPos38 }

// BatchSize is the number of keys bound per statement. The build-37 column
// is queried in smaller batches.
func (m Mode) BatchSize() int {
	if m == ByChrPos37 {
		return 500
	}
	return lookup.DefaultBatchSize
}
