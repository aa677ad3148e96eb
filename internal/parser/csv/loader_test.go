package csv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeInput(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_Dialects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		dialect  string
		columns  []string
		rows     int
	}{
		{
			name:     "tab",
			contents: "rsid\tchr\tpos\nrs1\t7\t100\nrs2\t8\t200\n",
			dialect:  "tab",
			columns:  []string{"rsid", "chr", "pos"},
			rows:     2,
		},
		{
			name:     "comma",
			contents: "rsid,note\nrs1,\"has, comma\"\nrs2,plain text\n",
			dialect:  "comma",
			columns:  []string{"rsid", "note"},
			rows:     2,
		},
		{
			name:     "whitespace",
			contents: "rsid   chr  pos\nrs1  7   100\n\nrs2 8 200\n",
			dialect:  "whitespace",
			columns:  []string{"rsid", "chr", "pos"},
			rows:     2,
		},
		{
			name:     "single column",
			contents: "rsid\nrs1\nrs2\nrs3\n",
			dialect:  "tab",
			columns:  []string{"rsid"},
			rows:     3,
		},
		{
			name:     "crlf and bom",
			contents: "\xEF\xBB\xBFrsid,chr\r\nrs1,7\r\n",
			dialect:  "comma",
			columns:  []string{"rsid", "chr"},
			rows:     1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeInput(t, "in.txt", tc.contents)
			tb, d, err := Load(context.Background(), path, Options{})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if d.Name != tc.dialect {
				t.Errorf("dialect = %q, want %q", d.Name, tc.dialect)
			}
			if !reflect.DeepEqual(tb.Columns, tc.columns) {
				t.Errorf("columns = %v, want %v", tb.Columns, tc.columns)
			}
			if tb.Len() != tc.rows {
				t.Errorf("rows = %d, want %d", tb.Len(), tc.rows)
			}
		})
	}
}

func TestLoad_HeaderSanitisingAndNulls(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "in.csv", "rs-id#,chr (37),,chr (37)\nrs1,,x,y\n")
	tb, _, err := Load(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"rsid", "chr 37", "Unnamed 2", "chr 371"}
	if !reflect.DeepEqual(tb.Columns, want) {
		t.Fatalf("columns = %q, want %q", tb.Columns, want)
	}
	row := tb.Rows[0]
	if !row[0].Valid || row[0].String != "rs1" {
		t.Errorf("cell 0 = %+v", row[0])
	}
	if row[1].Valid {
		t.Errorf("empty field should be null, got %+v", row[1])
	}
}

func TestLoad_ValuesNotTrimmed(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "in.tsv", "chr\tpos\n 2\t4346456  \n")
	tb, _, err := Load(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tb.Rows[0][0].String; got != " 2" {
		t.Errorf("chr = %q, want %q", got, " 2")
	}
	if got := tb.Rows[0][1].String; got != "4346456  " {
		t.Errorf("pos = %q, want %q", got, "4346456  ")
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), Options{})
		var fre *FileReadError
		if !errors.As(err, &fre) {
			t.Fatalf("want *FileReadError, got %T (%v)", err, err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("want wrapped os.ErrNotExist, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		_, _, err := Load(context.Background(), writeInput(t, "e.txt", ""), Options{})
		var eie *EmptyInputError
		if !errors.As(err, &eie) {
			t.Fatalf("want *EmptyInputError, got %T (%v)", err, err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()
		_, _, err := Load(context.Background(), writeInput(t, "h.txt", "rsid\tchr\n"), Options{})
		var eie *EmptyInputError
		if !errors.As(err, &eie) {
			t.Fatalf("want *EmptyInputError, got %T (%v)", err, err)
		}
	})

	t.Run("ragged", func(t *testing.T) {
		t.Parallel()
		contents := "a,b\tc\n1,2\n1\t2\t3 4\n"
		_, _, err := Load(context.Background(), writeInput(t, "r.txt", contents), Options{
			Candidates: []Dialect{Comma, Whitespace},
		})
		var fre *FileReadError
		if !errors.As(err, &fre) {
			t.Fatalf("want *FileReadError, got %T (%v)", err, err)
		}
		if !strings.Contains(err.Error(), "detect delimiter") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := Load(ctx, writeInput(t, "c.txt", "rsid\nrs1\n"), Options{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	})
}

func TestSanitizeColumn(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"rsid":         "rsid",
		"rs_id 2":      "rs_id 2",
		"chr(37)/pos!": "chr37pos",
		"été":          "t",
	}
	for in, want := range cases {
		if got := SanitizeColumn(in); got != want {
			t.Errorf("SanitizeColumn(%q) = %q, want %q", in, got, want)
		}
	}
}
