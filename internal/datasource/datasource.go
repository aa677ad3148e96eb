// Package datasource defines where pipeline bytes come from. The input table
// is read from a file.Local; the lookup database is fetched with httpds.
package datasource

import (
	"context"
	"io"
)

// Source opens a stream of bytes. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
