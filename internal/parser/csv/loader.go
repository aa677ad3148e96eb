// Package csv loads delimited text input (tab, comma or whitespace separated)
// into a table.Table. The delimiter is detected from the content, the header
// row is sanitised, and empty fields become null cells.
package csv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"rsidbuild/internal/datasource/file"
	"rsidbuild/internal/logging"
	"rsidbuild/internal/table"
)

// Options configures Load. The zero value is ready to use.
type Options struct {
	// Candidates overrides the delimiter sniffing order.
	Candidates []Dialect

	Logger *slog.Logger
}

// headerCleaner matches every character not allowed in a column name.
var headerCleaner = regexp.MustCompile(`[^A-Za-z0-9_ ]`)

// SanitizeColumn drops any character outside [A-Za-z0-9_ ].
func SanitizeColumn(s string) string {
	return headerCleaner.ReplaceAllString(s, "")
}

// Load reads the file at path into a table.
//
// Errors:
//   - *FileReadError when the file cannot be opened, decoded or split into a
//     consistent column layout by any candidate dialect.
//   - *EmptyInputError when the file has a header but no data rows (or is
//     empty altogether).
func Load(ctx context.Context, path string, opt Options) (*table.Table, Dialect, error) {
	logger := logging.Default(opt.Logger).With("component", "loader")

	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, Dialect{}, &FileReadError{Path: path, Err: err}
	}
	defer rc.Close()

	t, d, err := parse(rc, opt.Candidates)
	if err != nil {
		return nil, Dialect{}, &FileReadError{Path: path, Err: err}
	}
	if t == nil || t.Len() == 0 {
		logger.Error("input file is empty", "path", path)
		return nil, d, &EmptyInputError{Path: path}
	}

	logger.Info("input file read",
		"path", path,
		"rows", t.Len(),
		"columns", len(t.Columns),
		"delimiter", d.Name)
	return t, d, nil
}

// Parse decodes r and builds a table using the default sniffing order. A nil
// table is returned for input without a header row.
func Parse(r io.Reader) (*table.Table, Dialect, error) {
	return parse(r, nil)
}

func parse(r io.Reader, candidates []Dialect) (*table.Table, Dialect, error) {
	data, err := io.ReadAll(decodeInput(r))
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("decode: %w", err)
	}

	d, recs, err := Sniff(data, candidates)
	if err != nil {
		return nil, Dialect{}, err
	}
	if len(recs) == 0 {
		return nil, d, nil
	}

	t, err := table.New(headerNames(recs[0])...)
	if err != nil {
		return nil, d, err
	}
	t.Rows = make([]table.Row, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		row := make(table.Row, len(rec))
		for i, v := range rec {
			row[i] = emptyToNull(v)
		}
		if err := t.Append(row); err != nil {
			return nil, d, err
		}
	}
	return t, d, nil
}

// headerNames sanitises raw header cells. Blank names become "Unnamed N"
// and repeated names get a numeric suffix so every column stays addressable.
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := SanitizeColumn(h)
		if name == "" {
			name = "Unnamed " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name += strconv.Itoa(n + 1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// emptyToNull converts an empty field to a null cell.
func emptyToNull(s string) table.Cell {
	if s == "" {
		return table.Null()
	}
	return table.Value(s)
}
