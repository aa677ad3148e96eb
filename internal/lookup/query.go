package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"rsidbuild/internal/logging"
	"rsidbuild/internal/metrics"
	"rsidbuild/internal/storage"
	"rsidbuild/internal/table"
)

// Querier is the part of storage.Repository the engine needs.
type Querier interface {
	Dialect() storage.Dialect
	Query(ctx context.Context, query string, args ...any) (*storage.Result, error)
}

// BuildQuery returns
//
//	SELECT * FROM <table> WHERE <column> IN (<n placeholders>)
//
// for dialect d. table and column must pass CheckTarget.
func BuildQuery(d storage.Dialect, table, column string, n int) (string, error) {
	if err := CheckTarget(table, column); err != nil {
		return "", err
	}
	if n <= 0 {
		return "", fmt.Errorf("lookup: batch must hold at least one key, got %d", n)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s)",
		d.QuoteIdent(table), d.QuoteIdent(column), d.Placeholders(n)), nil
}

// Options tunes Query.
type Options struct {
	// BatchSize caps keys per statement; <= 0 means DefaultBatchSize. It is
	// lowered to the dialect's MaxParams when larger.
	BatchSize int

	// Job labels metrics.
	Job string

	Logger *slog.Logger
}

// Query looks up keys in column of tableName, batchSize keys at a time, and
// returns every returned row in one table. Batches run sequentially and
// results keep batch order. Null keys are bound as NULL and never match.
//
// Any batch failure aborts the run with *QueryExecutionError; an allow-list
// violation returns *InvalidQueryTargetError before the first statement.
func Query(ctx context.Context, q Querier, tableName, column string, keys []table.Cell, opt Options) (*table.Table, error) {
	logger := logging.Default(opt.Logger).With("component", "lookup")

	if err := CheckTarget(tableName, column); err != nil {
		return nil, err
	}
	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if limit := q.Dialect().MaxParams(); batchSize > limit {
		logger.Info("batch size clamped to engine parameter limit",
			"dialect", q.Dialect(), "requested", batchSize, "limit", limit)
		batchSize = limit
	}

	var (
		out     *table.Table
		batches int64
		start   = time.Now()
	)
	for from := 0; from < len(keys); from += batchSize {
		to := min(from+batchSize, len(keys))
		if err := ctx.Err(); err != nil {
			return nil, &QueryExecutionError{From: from, To: to, Err: err}
		}

		stmt, err := BuildQuery(q.Dialect(), tableName, column, to-from)
		if err != nil {
			return nil, err
		}
		args := make([]any, 0, to-from)
		for _, k := range keys[from:to] {
			if k.Valid {
				args = append(args, k.String)
			} else {
				args = append(args, nil)
			}
		}

		res, err := q.Query(ctx, stmt, args...)
		if err != nil {
			logger.Error("lookup batch failed", "from", from, "to", to, "err", err)
			return nil, &QueryExecutionError{From: from, To: to, Err: err}
		}
		if out == nil {
			if out, err = table.New(res.Columns...); err != nil {
				return nil, &QueryExecutionError{From: from, To: to, Err: err}
			}
		} else if !slices.Equal(out.Columns, res.Columns) {
			return nil, &QueryExecutionError{From: from, To: to,
				Err: fmt.Errorf("result columns changed from %v to %v", out.Columns, res.Columns)}
		}
		for _, r := range res.Rows {
			if err := out.Append(table.Row(r)); err != nil {
				return nil, &QueryExecutionError{From: from, To: to, Err: err}
			}
		}
		batches++
		logger.Info(fmt.Sprintf("processed entries %d to %d", from, to-1),
			"rows", len(res.Rows),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
	metrics.RecordBatches(opt.Job, batches)

	if out == nil {
		// No keys, no statement; the caller still needs the lookup columns.
		out = table.MustNew(ColumnRSID, ColumnChrPos37, ColumnChrPos38, ColumnRef, ColumnAlt)
	}
	logger.Info("lookup finished", "keys", len(keys), "rows", out.Len(), "batches", batches)
	return out, nil
}
