package variant

import (
	"fmt"
	"strings"
)

// ValidationError reports an identifier column that cannot be used for a
// lookup at all: missing, empty, or without a single well-formed value.
type ValidationError struct {
	Columns []string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", strings.Join(e.Columns, "/"), e.Reason)
}
