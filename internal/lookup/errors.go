package lookup

import "fmt"

// InvalidQueryTargetError reports a table or column name outside the
// allow-list. It indicates a wiring or configuration defect.
type InvalidQueryTargetError struct {
	Kind string // "table" or "column"
	Name string
}

func (e *InvalidQueryTargetError) Error() string {
	return fmt.Sprintf("lookup: %s %q is not an allowed query target", e.Kind, e.Name)
}

// QueryExecutionError reports a failed batch. From and To are the 0-based
// half-open key range of the batch.
type QueryExecutionError struct {
	From, To int
	Err      error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("lookup: batch [%d,%d): %v", e.From, e.To, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }
