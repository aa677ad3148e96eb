package variant

import (
	"fmt"
	"strings"

	"rsidbuild/internal/table"
)

// CompositeColumn is the derived input column holding chr_pos keys.
const CompositeColumn = "new_ids"

// Columns names the input columns a mode reads. RSID is used by ByRSID;
// Chr and Pos by the paired modes.
type Columns struct {
	RSID string
	Chr  string
	Pos  string
}

// Required returns the input columns m needs from c.
func (c Columns) Required(m Mode) []string {
	if m.Paired() {
		return []string{c.Chr, c.Pos}
	}
	return []string{c.RSID}
}

// CompositeKey joins a chromosome and a position into "<token>_<pos>". The
// result is null when either part is null or malformed.
func CompositeKey(chr, pos table.Cell) table.Cell {
	if !chr.Valid || !pos.Valid {
		return table.Null()
	}
	tok, ok := ChromToken(chr.String)
	p := strings.TrimSpace(pos.String)
	if !ok || !posPattern.MatchString(p) {
		return table.Null()
	}
	return table.Value(tok + "_" + p)
}

// BuildKeys returns one lookup key per input row, in row order, and the name
// of the input column holding them. For paired modes the keys are also
// appended to t as CompositeColumn.
func BuildKeys(t *table.Table, m Mode, cols Columns) ([]table.Cell, string, error) {
	if !m.Paired() {
		keys, err := t.Column(cols.RSID)
		if err != nil {
			return nil, "", &ValidationError{Columns: []string{cols.RSID}, Reason: "column not found"}
		}
		return keys, cols.RSID, nil
	}

	chrs, err := t.Column(cols.Chr)
	if err != nil {
		return nil, "", &ValidationError{Columns: []string{cols.Chr}, Reason: "column not found"}
	}
	poss, err := t.Column(cols.Pos)
	if err != nil {
		return nil, "", &ValidationError{Columns: []string{cols.Pos}, Reason: "column not found"}
	}
	if t.Has(CompositeColumn) {
		return nil, "", &ValidationError{Columns: []string{CompositeColumn}, Reason: "reserved column name"}
	}
	keys := make([]table.Cell, len(chrs))
	for i := range chrs {
		keys[i] = CompositeKey(chrs[i], poss[i])
	}
	if err := t.AddColumn(CompositeColumn, keys); err != nil {
		return nil, "", fmt.Errorf("add %s: %w", CompositeColumn, err)
	}
	return keys, CompositeColumn, nil
}
