// Package pipeline runs one translation: load the input table, validate the
// identifier columns, build lookup keys, query the variant database in
// batches, merge the results back onto the input and write the output file.
//
// Stages run sequentially. The lookup store is opened only after the input
// validated and is closed as soon as the query phase ends. On any failure no
// output file is left behind.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rsidbuild/internal/logging"
	"rsidbuild/internal/lookup"
	"rsidbuild/internal/merge"
	"rsidbuild/internal/metrics"
	"rsidbuild/internal/output"
	"rsidbuild/internal/parser/csv"
	"rsidbuild/internal/storage"
	"rsidbuild/internal/table"
	"rsidbuild/internal/variant"
)

// Step names used in logs and metrics.
const (
	StepLoad     = "load"
	StepValidate = "validate"
	StepKeys     = "keys"
	StepQuery    = "query"
	StepMerge    = "merge"
	StepWrite    = "write"
)

// Request describes one run.
type Request struct {
	Mode    variant.Mode
	Input   string
	Output  string
	Columns variant.Columns

	ExcludeRefAlt bool

	// Store locates the lookup database. It is always opened read-only.
	Store storage.Config

	// Table defaults to lookup.Table.
	Table string

	// BatchSize overrides Mode.BatchSize when > 0.
	BatchSize int

	// Job labels metrics; defaults to the mode.
	Job string
}

// Opener opens the lookup store. storage.New satisfies it.
type Opener func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

// Summary describes a finished run.
type Summary struct {
	Mode       variant.Mode
	Dialect    string
	Validation variant.Report
	Keys       int
	Merge      merge.Stats
	Output     output.Result
	Elapsed    time.Duration
}

// Run executes req. open is called at most once, after validation passed.
//
// Errors keep their stage type (*csv.FileReadError, *variant.ValidationError,
// *lookup.QueryExecutionError, *merge.MergeError, *output.UnsupportedFormatError
// and so on) so callers can inspect them with errors.As.
func Run(ctx context.Context, req Request, open Opener, logger *slog.Logger) (Summary, error) {
	logger = logging.Default(logger).With("component", "pipeline", "mode", string(req.Mode))
	start := time.Now()
	sum := Summary{Mode: req.Mode}

	if _, err := variant.ParseMode(string(req.Mode)); err != nil {
		return sum, err
	}
	job := req.Job
	if job == "" {
		job = string(req.Mode)
	}
	tableName := req.Table
	if tableName == "" {
		tableName = lookup.Table
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = req.Mode.BatchSize()
	}

	// Catch an unusable output path before any work is done.
	if _, err := output.DelimiterFor(req.Output); err != nil {
		logger.Error("unsupported output format", "path", req.Output, "err", err)
		return sum, err
	}

	run := func(name string, fn func() error) error {
		t0 := time.Now()
		err := fn()
		metrics.RecordStep(job, name, err, time.Since(t0))
		if err != nil {
			logger.Error("step failed", "step", name, "err", err)
		}
		return err
	}

	var in *table.Table
	if err := run(StepLoad, func() error {
		var (
			d   csv.Dialect
			err error
		)
		in, d, err = csv.Load(ctx, req.Input, csv.Options{Logger: logger})
		sum.Dialect = d.Name
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRow(job, metrics.RowsInput, int64(in.Len()))

	if err := run(StepValidate, func() error {
		var err error
		if req.Mode.Paired() {
			sum.Validation, err = variant.ValidateChromPos(in, req.Columns.Chr, req.Columns.Pos, logger)
		} else {
			sum.Validation, err = variant.ValidateRSID(in, req.Columns.RSID, logger)
		}
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRow(job, metrics.RowsInvalid, int64(sum.Validation.Invalid))

	var (
		keys    []table.Cell
		joinCol string
	)
	if err := run(StepKeys, func() error {
		var err error
		keys, joinCol, err = variant.BuildKeys(in, req.Mode, req.Columns)
		return err
	}); err != nil {
		return sum, err
	}
	sum.Keys = len(keys)

	var result *table.Table
	if err := run(StepQuery, func() error {
		var err error
		result, err = query(ctx, req, open, tableName, keys, lookup.Options{
			BatchSize: batchSize,
			Job:       job,
			Logger:    logger,
		})
		return err
	}); err != nil {
		return sum, err
	}

	var merged *table.Table
	if err := run(StepMerge, func() error {
		var err error
		merged, sum.Merge, err = merge.Merge(merge.Request{
			Input:         in,
			Result:        result,
			JoinColumn:    joinCol,
			LookupColumn:  req.Mode.LookupColumn(),
			ExcludeRefAlt: req.ExcludeRefAlt,
		}, logger)
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRow(job, metrics.RowsMatched, int64(sum.Merge.Matched))
	metrics.RecordRow(job, metrics.RowsUnmatched, int64(sum.Merge.Unmatched))

	if err := run(StepWrite, func() error {
		var err error
		sum.Output, err = output.Write(req.Output, merged, logger)
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRow(job, metrics.RowsWritten, int64(sum.Output.Rows))

	sum.Elapsed = time.Since(start)
	logger.Info("translation finished",
		"input", req.Input,
		"output", req.Output,
		"rows", sum.Output.Rows,
		"matched", sum.Merge.Matched,
		"unmatched", sum.Merge.Unmatched,
		"elapsed", sum.Elapsed.Round(time.Millisecond))
	return sum, nil
}

// query holds the store open for exactly the lookup phase.
func query(ctx context.Context, req Request, open Opener, tableName string, keys []table.Cell, opt lookup.Options) (*table.Table, error) {
	cfg := req.Store
	cfg.ReadOnly = true

	repo, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open lookup store (%s): %w", cfg.Kind, err)
	}
	defer repo.Close()

	return lookup.Query(ctx, repo, tableName, req.Mode.LookupColumn(), keys, opt)
}
