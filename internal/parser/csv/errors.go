package csv

import "fmt"

// FileReadError reports an input file that could not be opened, decoded or
// split into a consistent table.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read input %q: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// EmptyInputError reports an input file with no data rows.
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("input file %q is empty", e.Path)
}
