// Package merge reshapes lookup results and left-joins them back onto the
// input rows. Every input row appears exactly once, in input order; rows
// without a match get null enrichment fields.
package merge

import (
	"fmt"
	"log/slog"
	"strings"

	"rsidbuild/internal/logging"
	"rsidbuild/internal/table"
	"rsidbuild/internal/variant"
)

// Request bundles the inputs of Merge.
type Request struct {
	Input  *table.Table
	Result *table.Table

	// JoinColumn is the input column holding the lookup keys.
	JoinColumn string

	// LookupColumn is the result column the keys were matched against.
	LookupColumn string

	ExcludeRefAlt bool
}

// Stats describes a finished join.
type Stats struct {
	Rows          int
	Matched       int
	Unmatched     int
	DuplicateKeys int
}

// Reshape splits the composite columns named by l into chromosome and
// position columns and selects the kept result columns. A missing composite
// is skipped with a warning. result itself is left unchanged.
func Reshape(result *table.Table, l Layout, excludeRefAlt bool, logger *slog.Logger) (*table.Table, error) {
	logger = logging.Default(logger)

	work, err := result.Select(result.Columns...)
	if err != nil {
		return nil, &MergeError{Op: "copy result", Err: err}
	}
	present := make(map[string]bool, len(l.Splits))
	for _, s := range l.Splits {
		cells, err := work.Column(s.Composite)
		if err != nil {
			logger.Warn("composite column missing from lookup result; not split", "column", s.Composite)
			continue
		}
		chrs := make([]table.Cell, len(cells))
		poss := make([]table.Cell, len(cells))
		for i, c := range cells {
			chrs[i], poss[i] = SplitComposite(c)
		}
		if err := work.AddColumn(s.Chr, chrs); err != nil {
			return nil, &MergeError{Op: "split " + s.Composite, Err: err}
		}
		if err := work.AddColumn(s.Pos, poss); err != nil {
			return nil, &MergeError{Op: "split " + s.Composite, Err: err}
		}
		present[s.Composite] = true
	}

	out, err := work.Select(l.columns(present, excludeRefAlt)...)
	if err != nil {
		return nil, &MergeError{Op: "select result columns", Err: err}
	}
	return out, nil
}

// SplitComposite splits "7_123445" on the first underscore. A value without
// an underscore yields a null position.
func SplitComposite(c table.Cell) (chr, pos table.Cell) {
	if !c.Valid {
		return table.Null(), table.Null()
	}
	before, after, found := strings.Cut(c.String, "_")
	if !found {
		return table.Value(before), table.Null()
	}
	return table.Value(before), table.Value(after)
}

// Merge reshapes req.Result and left-joins it onto req.Input. The lookup
// column and, for composite keys, the derived key column are dropped from the
// output. When a key occurs more than once in the result the first row wins.
func Merge(req Request, logger *slog.Logger) (*table.Table, Stats, error) {
	logger = logging.Default(logger).With("component", "merge")

	if req.Input == nil || req.Result == nil {
		return nil, Stats{}, &MergeError{Op: "join", Err: fmt.Errorf("nil table")}
	}
	joinIdx, ok := req.Input.Index(req.JoinColumn)
	if !ok {
		return nil, Stats{}, &MergeError{Op: "join", Err: fmt.Errorf("input has no column %q", req.JoinColumn)}
	}

	right, err := Reshape(req.Result, LayoutFor(req.LookupColumn), req.ExcludeRefAlt, logger)
	if err != nil {
		return nil, Stats{}, err
	}

	index := make(map[string]int, right.Len())
	var st Stats
	for i, row := range right.Rows {
		k := row[0] // lookup column is selected first
		if !k.Valid {
			continue
		}
		if _, dup := index[k.String]; dup {
			st.DuplicateKeys++
			continue
		}
		index[k.String] = i
	}
	if st.DuplicateKeys > 0 {
		logger.Warn("lookup result has repeated keys; first match kept", "duplicates", st.DuplicateKeys)
	}

	// Input columns kept, in order.
	var leftKeep []int
	for i, c := range req.Input.Columns {
		if c == req.JoinColumn && c == variant.CompositeColumn {
			continue
		}
		leftKeep = append(leftKeep, i)
	}
	// Result columns added; the lookup column (position 0) is dropped.
	rightAdd := make([]int, 0, len(right.Columns)-1)
	for i := 1; i < len(right.Columns); i++ {
		rightAdd = append(rightAdd, i)
	}

	cols := outputColumns(req.Input.Columns, leftKeep, right.Columns, rightAdd)
	out, err := table.New(cols...)
	if err != nil {
		return nil, Stats{}, &MergeError{Op: "join", Err: err}
	}

	out.Rows = make([]table.Row, 0, req.Input.Len())
	for _, in := range req.Input.Rows {
		row := make(table.Row, 0, len(cols))
		for _, i := range leftKeep {
			row = append(row, in[i])
		}
		k := in[joinIdx]
		if ri, hit := index[k.String]; k.Valid && hit {
			for _, i := range rightAdd {
				row = append(row, right.Rows[ri][i])
			}
			st.Matched++
		} else {
			for range rightAdd {
				row = append(row, table.Null())
			}
			st.Unmatched++
		}
		if err := out.Append(row); err != nil {
			return nil, Stats{}, &MergeError{Op: "join", Err: err}
		}
	}
	st.Rows = out.Len()

	logger.Info("merge finished", "rows", st.Rows, "matched", st.Matched, "unmatched", st.Unmatched)
	return out, st, nil
}

// outputColumns names the joined columns. Names present on both sides get
// _x (input) and _y (result) suffixes.
func outputColumns(left []string, leftKeep []int, right []string, rightAdd []int) []string {
	onLeft := make(map[string]bool, len(leftKeep))
	for _, i := range leftKeep {
		onLeft[left[i]] = true
	}
	onRight := make(map[string]bool, len(rightAdd))
	for _, i := range rightAdd {
		onRight[right[i]] = true
	}

	cols := make([]string, 0, len(leftKeep)+len(rightAdd))
	for _, i := range leftKeep {
		name := left[i]
		if onRight[name] {
			name += "_x"
		}
		cols = append(cols, name)
	}
	for _, i := range rightAdd {
		name := right[i]
		if onLeft[name] {
			name += "_y"
		}
		cols = append(cols, name)
	}
	return cols
}
