package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rsidbuild/internal/table"
)

func sample() *table.Table {
	t := table.MustNew("SNP", "chr37", "note")
	t.Rows = []table.Row{
		{table.Value("rs1"), table.Value("7"), table.Value("a,b")},
		{table.Value("rs2"), table.Null(), table.Value("plain")},
	}
	return t
}

func TestWrite_DelimiterByExtension(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		want string
	}{
		{"out.tsv", "SNP\tchr37\tnote\nrs1\t7\ta,b\nrs2\t\tplain\n"},
		{"out.TXT", "SNP\tchr37\tnote\nrs1\t7\ta,b\nrs2\t\tplain\n"},
		{"out.csv", "SNP,chr37,note\nrs1,7,\"a,b\"\nrs2,,plain\n"},
	}
	for _, tc := range tests {
		path := filepath.Join(dir, tc.name)
		res, err := Write(path, sample(), nil)
		if err != nil {
			t.Fatalf("Write(%s): %v", tc.name, err)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(b) != tc.want {
			t.Errorf("%s contents = %q, want %q", tc.name, b, tc.want)
		}
		if res.Rows != 2 || res.Digest == "" {
			t.Errorf("result = %+v", res)
		}
	}
}

func TestWrite_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	if _, err := Write(path, sample(), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWrite_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.xlsx", "out", filepath.Join("sub", "out.parquet")} {
		path := filepath.Join(dir, name)
		_, err := Write(path, sample(), nil)
		var ufe *UnsupportedFormatError
		if !errors.As(err, &ufe) {
			t.Fatalf("Write(%s) err = %v, want *UnsupportedFormatError", name, err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Write(%s) left a file behind", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unsupported format still created directories")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	dir := t.TempDir()
	a, err := Write(filepath.Join(dir, "a.csv"), sample(), nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Write(filepath.Join(dir, "b.csv"), sample(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Digest != b.Digest {
		t.Errorf("digests differ: %s vs %s", a.Digest, b.Digest)
	}
	ab, _ := os.ReadFile(a.Path)
	bb, _ := os.ReadFile(b.Path)
	if !bytes.Equal(ab, bb) {
		t.Errorf("outputs differ")
	}

	// Overwriting an existing file replaces it whole.
	if _, err := Write(a.Path, table.MustNew("only"), nil); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(a.Path)
	if string(got) != "only\n" {
		t.Errorf("overwrite = %q", got)
	}
}
