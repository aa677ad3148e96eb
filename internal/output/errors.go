package output

import "fmt"

// UnsupportedFormatError reports an output path whose extension does not
// select a delimiter.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("output %q has no extension (want .txt, .tsv or .csv)", e.Path)
	}
	return fmt.Sprintf("output %q: unsupported extension %q (want .txt, .tsv or .csv)", e.Path, e.Ext)
}
