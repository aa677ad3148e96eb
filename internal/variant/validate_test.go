package variant

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"rsidbuild/internal/table"
)

func column(name string, vals ...any) *table.Table {
	t := table.MustNew(name)
	for _, v := range vals {
		if v == nil {
			t.Rows = append(t.Rows, table.Row{table.Null()})
			continue
		}
		t.Rows = append(t.Rows, table.Row{table.Value(v.(string))})
	}
	return t
}

func pairs(chrs, poss []any) *table.Table {
	t := table.MustNew("chr", "pos")
	cell := func(v any) table.Cell {
		if v == nil {
			return table.Null()
		}
		return table.Value(v.(string))
	}
	for i := range chrs {
		t.Rows = append(t.Rows, table.Row{cell(chrs[i]), cell(poss[i])})
	}
	return t
}

func TestValidateRSID(t *testing.T) {
	tests := []struct {
		name    string
		vals    []any
		wantErr bool
		valid   int
	}{
		{"all valid", []any{"rs123", "rs456", "rs789"}, false, 3},
		{"empty", nil, true, 0},
		{"no match", []any{"abc", "xyz"}, true, 0},
		{"null partial", []any{"rs123", nil, "rs789"}, false, 2},
		{"padded partial", []any{" rs123", "rs456  ", "xyz789"}, false, 2},
		{"all null", []any{nil, nil}, true, 0},
		{"prefix only is not enough", []any{"rs12a", "rs"}, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ValidateRSID(column("rsid", tc.vals...), "rsid", nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("want *ValidationError, got %T", err)
				}
				return
			}
			if r.Valid != tc.valid || r.Total != len(tc.vals) {
				t.Errorf("report = %+v", r)
			}
		})
	}
}

func TestValidateRSID_MissingColumn(t *testing.T) {
	_, err := ValidateRSID(column("other", "rs1"), "rsid", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != "column not found" {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRSID_PartialWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r, err := ValidateRSID(column("rsid", "rs1", "bogus", nil), "rsid", logger)
	if err != nil {
		t.Fatalf("ValidateRSID: %v", err)
	}
	if !r.Partial() || r.Invalid != 2 {
		t.Errorf("report = %+v", r)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "invalid=2") {
		t.Errorf("warning not logged: %s", out)
	}
	if len(r.Samples) != 2 || r.Samples[0] != "bogus" || r.Samples[1] != "<null>" {
		t.Errorf("samples = %v", r.Samples)
	}
}

func TestValidateRSID_PaddedWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r, err := ValidateRSID(column("rsid", " rs123", "rs456", "rs789\t"), "rsid", logger)
	if err != nil {
		t.Fatalf("ValidateRSID: %v", err)
	}
	if r.Valid != 3 || r.Padded != 2 {
		t.Errorf("report = %+v", r)
	}
	if out := buf.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "padded=2") {
		t.Errorf("padding not reported: %s", out)
	}

	buf.Reset()
	if r, _ := ValidateRSID(column("rsid", "rs1"), "rsid", logger); r.Padded != 0 || strings.Contains(buf.String(), "padded") {
		t.Errorf("clean input reported padding: %+v %s", r, buf.String())
	}
}

func TestValidateChromPos(t *testing.T) {
	tests := []struct {
		name    string
		chrs    []any
		poss    []any
		wantErr bool
		valid   int
	}{
		{"padded values", []any{"1", " 2", "3"}, []any{"123445", "4346456  ", "23434"}, false, 3},
		{"bad chromosomes", []any{"abc", "xyz", "test"}, []any{"1", "2", "3"}, true, 0},
		{"mixed positions", []any{"23", "1", "16"}, []any{"a56678", "4346456aa", "23434"}, false, 1},
		{"nulls", []any{"7", nil, "9"}, []any{"1", "2", nil}, false, 1},
		{"chr prefix and sex chromosomes", []any{"chr7", "ChrX", "y"}, []any{"5", "6", "7"}, false, 3},
		{"both invalid per row", []any{"chr23", "0"}, []any{"1", "2"}, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ValidateChromPos(pairs(tc.chrs, tc.poss), "chr", "pos", nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && r.Valid != tc.valid {
				t.Errorf("valid = %d, want %d (%+v)", r.Valid, tc.valid, r)
			}
		})
	}
}

func TestValidateChromPos_MissingOrEmpty(t *testing.T) {
	tb := pairs([]any{"1"}, []any{nil})
	_, err := ValidateChromPos(tb, "chr", "pos", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Columns[0] != "pos" || ve.Reason != "column is empty" {
		t.Fatalf("empty pos: err = %v", err)
	}
	if _, err := ValidateChromPos(tb, "chromosome", "pos", nil); !errors.As(err, &ve) {
		t.Fatalf("missing chr: err = %v", err)
	}
}

func TestChromToken(t *testing.T) {
	tests := map[string]string{
		"7":     "7",
		"chr7":  "7",
		"CHR22": "22",
		" 2":    "2",
		"chrx":  "X",
		"Y":     "Y",
	}
	for in, want := range tests {
		got, ok := ChromToken(in)
		if !ok || got != want {
			t.Errorf("ChromToken(%q) = %q,%v, want %q", in, got, ok, want)
		}
	}
	for _, bad := range []string{"", "0", "23", "chr", "MT", "7a", "chr 7"} {
		if _, ok := ChromToken(bad); ok {
			t.Errorf("ChromToken(%q) accepted", bad)
		}
	}
}
