// Package output writes the merged table as delimited text. The delimiter is
// chosen by the file extension and the file appears atomically: either the
// complete table is written or no file is left behind.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"rsidbuild/internal/datasource/file"
	"rsidbuild/internal/logging"
	"rsidbuild/internal/table"
)

// Result describes a written file.
type Result struct {
	Path      string
	Rows      int
	Delimiter rune

	// Digest is the xxh3-64 hash of the file contents, hex encoded.
	Digest string
}

// previewRows is how many rows are logged at debug level after a write.
const previewRows = 5

// DelimiterFor maps an output path to its field delimiter: tab for .txt and
// .tsv, comma for .csv. Extensions are matched case-insensitively.
func DelimiterFor(path string) (rune, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".tsv":
		return '\t', nil
	case ".csv":
		return ',', nil
	default:
		return 0, &UnsupportedFormatError{Path: path, Ext: ext}
	}
}

// Encode writes t to w with the given delimiter: a header line followed by
// one line per row. Null cells are written as empty fields.
func Encode(w io.Writer, t *table.Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			if c.Valid {
				rec[i] = c.String
			} else {
				rec[i] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write stores t at path. Missing parent directories are created and the
// file is committed atomically.
func Write(path string, t *table.Table, logger *slog.Logger) (Result, error) {
	logger = logging.Default(logger).With("component", "output")

	comma, err := DelimiterFor(path)
	if err != nil {
		logger.Error("unsupported output format", "path", path, "err", err)
		return Result{}, err
	}

	h := xxh3.New()
	err = file.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(io.MultiWriter(w, h), t, comma)
	})
	if err != nil {
		logger.Error("output write failed", "path", path, "err", err)
		return Result{}, fmt.Errorf("write output: %w", err)
	}

	res := Result{
		Path:      path,
		Rows:      t.Len(),
		Delimiter: comma,
		Digest:    fmt.Sprintf("%016x", h.Sum64()),
	}
	logger.Info("output written",
		"path", path,
		"rows", res.Rows,
		"delimiter", strconv.QuoteRune(comma),
		"xxh3", res.Digest)
	logPreview(logger, t)
	return res, nil
}

func logPreview(logger *slog.Logger, t *table.Table) {
	n := min(previewRows, t.Len())
	for i := 0; i < n; i++ {
		vals := make([]string, len(t.Rows[i]))
		for j, c := range t.Rows[i] {
			vals[j] = c.String
		}
		logger.Debug("preview", "row", i, "values", vals)
	}
}
