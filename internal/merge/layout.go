package merge

import "rsidbuild/internal/lookup"

// Split names a composite "chr_pos" result column and the two columns it is
// split into.
type Split struct {
	Composite string
	Chr, Pos  string
}

var (
	split37 = Split{Composite: lookup.ColumnChrPos37, Chr: "chr37", Pos: "pos37"}
	split38 = Split{Composite: lookup.ColumnChrPos38, Chr: "chr38", Pos: "pos38"}
)

// Layout describes how the lookup result is reshaped for one lookup column:
// which composites are split and which result columns reach the output.
type Layout struct {
	LookupColumn string
	Splits       []Split
}

// LayoutFor returns the reshape layout used when column was queried. The
// queried build is not split; it is matched against the input and dropped.
func LayoutFor(column string) Layout {
	switch column {
	case lookup.ColumnChrPos37:
		return Layout{LookupColumn: column, Splits: []Split{split38}}
	case lookup.ColumnChrPos38:
		return Layout{LookupColumn: column, Splits: []Split{split37}}
	default:
		return Layout{LookupColumn: lookup.ColumnRSID, Splits: []Split{split37, split38}}
	}
}

// columns lists the result columns kept after reshaping, lookup column first.
// Splits whose composite was absent are skipped.
func (l Layout) columns(present map[string]bool, excludeRefAlt bool) []string {
	out := []string{l.LookupColumn}
	if l.LookupColumn != lookup.ColumnRSID {
		out = append(out, lookup.ColumnRSID)
	}
	for _, s := range l.Splits {
		if present[s.Composite] {
			out = append(out, s.Chr, s.Pos)
		}
	}
	if !excludeRefAlt {
		out = append(out, lookup.ColumnRef, lookup.ColumnAlt)
	}
	return out
}
