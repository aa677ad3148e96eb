package merge

import "fmt"

// MergeError reports a reshape or join failure. No partial table is
// returned alongside it.
type MergeError struct {
	Op  string
	Err error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge: %s: %v", e.Op, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }
