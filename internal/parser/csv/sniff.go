package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dialect describes how a line of input is split into fields.
type Dialect struct {
	// Name is used in logs ("tab", "comma", "whitespace").
	Name string

	// Comma is the field delimiter for quoted, delimited input.
	Comma rune

	// Whitespace splits on runs of blanks instead of a single delimiter.
	// Quoting is not interpreted in this mode.
	Whitespace bool
}

var (
	Tab        = Dialect{Name: "tab", Comma: '\t'}
	Comma      = Dialect{Name: "comma", Comma: ','}
	Whitespace = Dialect{Name: "whitespace", Whitespace: true}
)

// DefaultCandidates is the order in which dialects are tried.
var DefaultCandidates = []Dialect{Tab, Comma, Whitespace}

// errInconsistent marks a dialect that produced rows of differing widths.
var errInconsistent = errors.New("inconsistent column count")

// Sniff tries each candidate in order and returns the first one that splits
// every record into the same number of fields. A candidate that yields more
// than one column is preferred over one that yields a single column, so a
// comma-separated file is not mistaken for single-column tab input.
//
// The returned records include the header as records[0].
func Sniff(data []byte, candidates []Dialect) (Dialect, [][]string, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	var (
		single     Dialect
		singleRecs [][]string
		haveSingle bool
		lastErr    error
	)
	for _, d := range candidates {
		recs, err := split(data, d)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", d.Name, err)
			continue
		}
		if len(recs) == 0 {
			return d, nil, nil
		}
		if len(recs[0]) > 1 {
			return d, recs, nil
		}
		if !haveSingle {
			single, singleRecs, haveSingle = d, recs, true
		}
	}
	if haveSingle {
		return single, singleRecs, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no delimiter candidates")
	}
	return Dialect{}, nil, fmt.Errorf("detect delimiter: %w", lastErr)
}

// split parses data with d and enforces a constant field count.
func split(data []byte, d Dialect) ([][]string, error) {
	if d.Whitespace {
		return splitWhitespace(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = d.Comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = 0 // width of the header is enforced on every row

	var out [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				return nil, errInconsistent
			}
			return nil, err
		}
		out = append(out, rec)
	}
}

func splitWhitespace(data []byte) ([][]string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out [][]string
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(out) > 0 && len(fields) != len(out[0]) {
			return nil, errInconsistent
		}
		out = append(out, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
