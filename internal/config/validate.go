package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"rsidbuild/internal/lookup"
	"rsidbuild/internal/output"
	"rsidbuild/internal/storage"
	"rsidbuild/internal/variant"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "run.rsid_column",
// "lookup.batch_size"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var knownStorage = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
	"mysql":    {},
}

// Validate lints the lookup and metrics blocks. It is what validate-config
// checks for a file that does not describe a run.
func Validate(c Config) []Issue {
	var issues []Issue
	issues = append(issues, validateLookup(c.Lookup)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

// ValidateRun lints a complete run configuration. It does not look at the
// input file; column presence and content are checked when it is loaded.
func ValidateRun(c Config) []Issue {
	issues := validateRun(c.Run)
	return append(issues, Validate(c)...)
}

func validateRun(r Run) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	mode, err := variant.ParseMode(r.Mode)
	if err != nil {
		add(SeverityError, "run.mode", "%v", err)
	}

	if strings.TrimSpace(r.Input) == "" {
		add(SeverityError, "run.input", "input file must not be empty")
	}
	if strings.TrimSpace(r.Output) == "" {
		add(SeverityError, "run.output", "output file must not be empty")
	} else if _, err := output.DelimiterFor(r.Output); err != nil {
		add(SeverityError, "run.output", "%v", err)
	}
	if r.Input != "" && r.Output != "" && filepath.Clean(r.Input) == filepath.Clean(r.Output) {
		add(SeverityError, "run.output", "output must not overwrite the input file")
	}

	if mode == "" {
		return issues
	}
	if mode.Paired() {
		if strings.TrimSpace(r.ChrColumn) == "" {
			add(SeverityError, "run.chr_column", "%s mode requires a chromosome column", mode)
		}
		if strings.TrimSpace(r.PosColumn) == "" {
			add(SeverityError, "run.pos_column", "%s mode requires a position column", mode)
		}
		if r.RSIDColumn != "" {
			add(SeverityWarning, "run.rsid_column", "ignored in %s mode", mode)
		}
		if r.ChrColumn != "" && r.ChrColumn == r.PosColumn {
			add(SeverityWarning, "run.pos_column", "chromosome and position read the same column %q", r.ChrColumn)
		}
		return issues
	}
	if strings.TrimSpace(r.RSIDColumn) == "" {
		add(SeverityError, "run.rsid_column", "rsid mode requires an rsID column")
	}
	if r.ChrColumn != "" || r.PosColumn != "" {
		add(SeverityWarning, "run.chr_column", "chromosome/position columns are ignored in rsid mode")
	}
	return issues
}

func validateLookup(l Lookup) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if _, ok := knownStorage[l.Storage]; !ok {
		add(SeverityError, "lookup.storage", "unknown storage %q (want sqlite, postgres, mssql or mysql)", l.Storage)
	}
	if strings.TrimSpace(l.DSN) == "" {
		add(SeverityError, "lookup.dsn", "lookup database location must not be empty")
	}
	if err := lookup.CheckTarget(l.Table, lookup.ColumnRSID); err != nil {
		add(SeverityError, "lookup.table", "%v", err)
	}
	if l.BatchSize < 0 {
		add(SeverityError, "lookup.batch_size", "batch size must be positive, got %d", l.BatchSize)
	}
	if _, ok := knownStorage[l.Storage]; ok {
		if limit := storage.Dialect(l.Storage).MaxParams(); l.BatchSize > limit {
			add(SeverityWarning, "lookup.batch_size", "%d exceeds the %s limit of %d parameters per statement; batches are capped at %d",
				l.BatchSize, l.Storage, limit, limit)
		}
	}

	if l.AutoFetch {
		if l.Storage != "sqlite" {
			add(SeverityWarning, "lookup.auto_fetch", "only applies to sqlite storage; ignored for %q", l.Storage)
		} else if strings.TrimSpace(l.URL) == "" {
			add(SeverityError, "lookup.url", "auto_fetch requires a download URL")
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", MetricsNone:
	case MetricsPrometheus:
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires a Pushgateway URL",
			})
		}
	case MetricsDatadog:
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none, prometheus or datadog)", m.Backend),
		})
	}
	if m.Backend != "" && m.Backend != MetricsNone && strings.TrimSpace(m.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.job",
			Message:  "job is empty; metrics will be grouped under the default job",
		})
	}
	return issues
}
