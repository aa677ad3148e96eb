package variant

import (
	"log/slog"
	"regexp"
	"strings"

	"rsidbuild/internal/logging"
	"rsidbuild/internal/table"
)

var (
	rsidPattern  = regexp.MustCompile(`^rs[0-9]+$`)
	chromPattern = regexp.MustCompile(`(?i)^(?:chr)?(1[0-9]?|2[0-2]?|[1-9]|X|Y)$`)
	posPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// maxSamples bounds Report.Samples.
const maxSamples = 5

// Report summarises a validation pass.
type Report struct {
	Total   int
	Valid   int
	Invalid int

	// Padded counts valid rsIDs with surrounding whitespace. They are looked
	// up verbatim and will not match.
	Padded int

	// Samples holds up to five offending values, nulls rendered as "<null>".
	Samples []string
}

// Partial reports whether some but not all rows were valid.
func (r Report) Partial() bool { return r.Valid > 0 && r.Invalid > 0 }

func (r *Report) reject(v table.Cell) {
	r.Invalid++
	if len(r.Samples) < maxSamples {
		if v.Valid {
			r.Samples = append(r.Samples, v.String)
		} else {
			r.Samples = append(r.Samples, "<null>")
		}
	}
}

// IsRSID reports whether s (after trimming) is rs followed by digits.
func IsRSID(s string) bool {
	return rsidPattern.MatchString(strings.TrimSpace(s))
}

// ChromToken returns the bare chromosome token for s: "chr7", "Chr7" and
// " 7" all give "7"; "chrx" gives "X". ok is false for anything outside
// 1-22, X and Y.
func ChromToken(s string) (token string, ok bool) {
	m := chromPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// IsPosition reports whether s (after trimming) is all digits.
func IsPosition(s string) bool {
	return posPattern.MatchString(strings.TrimSpace(s))
}

// ValidateRSID checks that col exists, is not empty and holds at least one
// rsID. Invalid rows are counted and logged, not removed.
func ValidateRSID(t *table.Table, col string, logger *slog.Logger) (Report, error) {
	logger = logging.Default(logger).With("component", "validator")

	cells, err := requireColumn(t, col)
	if err != nil {
		logger.Error("identifier column unusable", "column", col, "err", err)
		return Report{}, err
	}

	r := Report{Total: len(cells)}
	for _, c := range cells {
		if c.Valid && IsRSID(c.String) {
			r.Valid++
			if c.String != strings.TrimSpace(c.String) {
				r.Padded++
			}
			continue
		}
		r.reject(c)
	}
	if r.Padded > 0 {
		logger.Warn("rsIDs with surrounding whitespace are looked up as written and will not match",
			"column", col, "padded", r.Padded, "total", r.Total)
	}
	return r, finish(logger, r, []string{col}, "no value matches rs<digits>")
}

// ValidateChromPos checks the chromosome and position columns jointly: a row
// counts as valid only when both of its values are well formed.
func ValidateChromPos(t *table.Table, chrCol, posCol string, logger *slog.Logger) (Report, error) {
	logger = logging.Default(logger).With("component", "validator")

	chrs, err := requireColumn(t, chrCol)
	if err != nil {
		logger.Error("chromosome column unusable", "column", chrCol, "err", err)
		return Report{}, err
	}
	poss, err := requireColumn(t, posCol)
	if err != nil {
		logger.Error("position column unusable", "column", posCol, "err", err)
		return Report{}, err
	}

	r := Report{Total: len(chrs)}
	for i := range chrs {
		c, p := chrs[i], poss[i]
		if c.Valid && p.Valid {
			if _, ok := ChromToken(c.String); ok && IsPosition(p.String) {
				r.Valid++
				continue
			}
		}
		if c.Valid && p.Valid {
			r.reject(table.Value(c.String + ":" + p.String))
		} else {
			r.reject(table.Null())
		}
	}
	return r, finish(logger, r, []string{chrCol, posCol}, "no row has both a valid chromosome (1-22, X, Y) and a numeric position")
}

func requireColumn(t *table.Table, col string) ([]table.Cell, error) {
	if t == nil || !t.Has(col) {
		return nil, &ValidationError{Columns: []string{col}, Reason: "column not found"}
	}
	cells, _ := t.Column(col)
	for _, c := range cells {
		if c.Valid && strings.TrimSpace(c.String) != "" {
			return cells, nil
		}
	}
	return nil, &ValidationError{Columns: []string{col}, Reason: "column is empty"}
}

func finish(logger *slog.Logger, r Report, cols []string, reason string) error {
	if r.Valid == 0 {
		logger.Error("identifier validation failed", "columns", cols, "total", r.Total, "samples", r.Samples)
		return &ValidationError{Columns: cols, Reason: reason}
	}
	if r.Partial() {
		logger.Warn("some identifiers are malformed and will not match",
			"columns", cols,
			"invalid", r.Invalid,
			"total", r.Total,
			"samples", r.Samples)
		return nil
	}
	logger.Info("identifiers validated", "columns", cols, "rows", r.Total)
	return nil
}
