package lookup_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsidbuild/internal/lookup"
	"rsidbuild/internal/lookup/lookuptest"
	"rsidbuild/internal/storage"
	"rsidbuild/internal/storage/sqlite"
	"rsidbuild/internal/table"
)

// recordingQuerier answers every statement with one row per non-null key.
type recordingQuerier struct {
	dialect storage.Dialect
	calls   [][]any
	stmts   []string
	failOn  int // 1-based call index; 0 never fails
}

func (r *recordingQuerier) Dialect() storage.Dialect { return r.dialect }

func (r *recordingQuerier) Query(_ context.Context, q string, args ...any) (*storage.Result, error) {
	r.calls = append(r.calls, args)
	r.stmts = append(r.stmts, q)
	if r.failOn == len(r.calls) {
		return nil, errors.New("disk I/O error")
	}
	res := &storage.Result{Columns: []string{lookup.ColumnRSID, lookup.ColumnRef}}
	for _, a := range args {
		if a == nil {
			continue
		}
		res.Rows = append(res.Rows, []table.Cell{table.Value(a.(string)), table.Value("A")})
	}
	return res, nil
}

func TestQuery_ClampsToDialectParamLimit(t *testing.T) {
	q := &recordingQuerier{dialect: storage.MSSQL}
	out, err := lookup.Query(context.Background(), q, lookup.Table, lookup.ColumnRSID, keys(5000),
		lookup.Options{BatchSize: 10000})
	require.NoError(t, err)

	var sizes []int
	for _, c := range q.calls {
		sizes = append(sizes, len(c))
	}
	assert.Equal(t, []int{2100, 2100, 800}, sizes)
	assert.Contains(t, q.stmts[0], "@p2100)")
	assert.NotContains(t, q.stmts[0], "@p2101")
	assert.Equal(t, 5000, out.Len())
}

func keys(n int) []table.Cell {
	out := make([]table.Cell, n)
	for i := range out {
		out[i] = table.Value(fmt.Sprintf("rs%d", i))
	}
	return out
}

func TestQuery_BatchBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		n, size   int
		wantSizes []int
	}{
		{"exact multiple", 6, 3, []int{3, 3}},
		{"one over", 4, 3, []int{3, 1}},
		{"single batch", 2, 3, []int{2}},
		{"no keys", 0, 3, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := &recordingQuerier{dialect: storage.SQLite}
			out, err := lookup.Query(context.Background(), q, lookup.Table, lookup.ColumnRSID, keys(tc.n),
				lookup.Options{BatchSize: tc.size})
			require.NoError(t, err)

			var sizes []int
			for _, c := range q.calls {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tc.wantSizes, sizes)
			assert.Equal(t, tc.n, out.Len())
			assert.True(t, out.Has(lookup.ColumnRSID))
		})
	}
}

func TestQuery_PreservesBatchOrder(t *testing.T) {
	q := &recordingQuerier{dialect: storage.SQLite}
	out, err := lookup.Query(context.Background(), q, lookup.Table, lookup.ColumnRSID, keys(5),
		lookup.Options{BatchSize: 2})
	require.NoError(t, err)

	col, err := out.Column(lookup.ColumnRSID)
	require.NoError(t, err)
	for i, c := range col {
		assert.Equal(t, fmt.Sprintf("rs%d", i), c.String)
	}
}

func TestQuery_NullKeysBoundAsNull(t *testing.T) {
	q := &recordingQuerier{dialect: storage.Postgres}
	in := []table.Cell{table.Value("rs1"), table.Null()}
	_, err := lookup.Query(context.Background(), q, lookup.Table, lookup.ColumnRSID, in, lookup.Options{})
	require.NoError(t, err)
	require.Len(t, q.calls, 1)
	assert.Equal(t, []any{"rs1", nil}, q.calls[0])
	assert.Contains(t, q.stmts[0], "IN ($1, $2)")
}

func TestQuery_ExecutionErrorAborts(t *testing.T) {
	q := &recordingQuerier{dialect: storage.SQLite, failOn: 2}
	_, err := lookup.Query(context.Background(), q, lookup.Table, lookup.ColumnRSID, keys(7),
		lookup.Options{BatchSize: 3})

	var qe *lookup.QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 3, qe.From)
	assert.Equal(t, 6, qe.To)
	assert.Len(t, q.calls, 2, "no batch may run after a failure")
}

func TestQuery_RejectsTargetsOutsideAllowList(t *testing.T) {
	tests := []struct{ table, column, kind string }{
		{"users; DROP TABLE x", lookup.ColumnRSID, "table"},
		{lookup.Table, "ref", "column"},
		{lookup.Table, `rsid_dbSNP155" OR 1=1 --`, "column"},
	}
	for _, tc := range tests {
		q := &recordingQuerier{dialect: storage.SQLite}
		_, err := lookup.Query(context.Background(), q, tc.table, tc.column, keys(1), lookup.Options{})
		var ite *lookup.InvalidQueryTargetError
		require.ErrorAs(t, err, &ite)
		assert.Equal(t, tc.kind, ite.Kind)
		assert.Empty(t, q.calls)
	}
}

func TestBuildQuery(t *testing.T) {
	got, err := lookup.BuildQuery(storage.MSSQL, lookup.Table, lookup.ColumnChrPos37, 2)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [GTEx_lookup] WHERE [chrpos37] IN (@p1, @p2)", got)

	got, err = lookup.BuildQuery(storage.MySQL, lookup.Table, lookup.ColumnRSID, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `GTEx_lookup` WHERE `rsid_dbSNP155` IN (?)", got)

	_, err = lookup.BuildQuery(storage.SQLite, lookup.Table, lookup.ColumnRSID, 0)
	assert.Error(t, err)
}

func TestQuery_SQLiteFixture(t *testing.T) {
	ctx := context.Background()
	path := lookuptest.NewDB(t, lookuptest.Default)

	repo, closeFn, err := sqlite.NewRepository(ctx, sqlite.Config{DSN: path, ReadOnly: true})
	require.NoError(t, err)
	defer closeFn()

	in := []table.Cell{table.Value("7_123445"), table.Value("9_1"), table.Null(), table.Value("X_500")}
	out, err := lookup.Query(ctx, repo, lookup.Table, lookup.ColumnChrPos37, in, lookup.Options{BatchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, lookuptest.Columns, out.Columns)
	require.Equal(t, 2, out.Len())
	ids, _ := out.Column(lookup.ColumnRSID)
	got := []string{ids[0].String, ids[1].String}
	assert.ElementsMatch(t, []string{"rs123", "rs1000"}, got)

	alts, _ := out.Column(lookup.ColumnAlt)
	for i, id := range ids {
		if id.String == "rs1000" {
			assert.False(t, alts[i].Valid, "NULL alt must stay null")
		}
	}
}

func TestQuery_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lookup.Query(ctx, &recordingQuerier{dialect: storage.SQLite}, lookup.Table, lookup.ColumnRSID,
		keys(1), lookup.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, strings.Contains(err.Error(), "batch [0,1)"))
}
