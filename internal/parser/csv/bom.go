package csv

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeInput wraps r so that a leading byte-order mark is consumed and, for
// UTF-16 input, the text is transcoded to UTF-8. Input without a BOM is read
// as UTF-8.
func decodeInput(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
