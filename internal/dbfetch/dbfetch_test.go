package dbfetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rsidbuild/internal/datasource/httpds"
)

type fakeDownloader struct {
	body  string
	ctype string
	err   error
	calls int
	url   string
}

func (f *fakeDownloader) Download(_ context.Context, url string, w io.Writer) (int64, string, error) {
	f.calls++
	f.url = url
	if f.err != nil {
		return 0, "", f.err
	}
	n, err := io.Copy(w, strings.NewReader(f.body))
	return n, f.ctype, err
}

func TestEnsureLocal_DownloadsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", FileName)
	d := &fakeDownloader{body: "SQLite format 3\x00rest-of-file", ctype: "application/octet-stream"}

	if err := EnsureLocal(context.Background(), path, d, Options{}); err != nil {
		t.Fatalf("EnsureLocal: %v", err)
	}
	if d.url != DefaultURL {
		t.Errorf("url = %q", d.url)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(got, sqliteMagic) {
		t.Fatalf("file = %q, %v", got, err)
	}

	// Second call finds the file and does not download again.
	if err := EnsureLocal(context.Background(), path, d, Options{}); err != nil {
		t.Fatalf("EnsureLocal (cached): %v", err)
	}
	if d.calls != 1 {
		t.Errorf("calls = %d, want 1", d.calls)
	}

	if err := EnsureLocal(context.Background(), path, d, Options{Force: true, URL: "http://mirror/db"}); err != nil {
		t.Fatalf("EnsureLocal (force): %v", err)
	}
	if d.calls != 2 || d.url != "http://mirror/db" {
		t.Errorf("force: calls=%d url=%q", d.calls, d.url)
	}
}

func TestEnsureLocal_RejectsNonSQLite(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		ctype string
	}{
		{"html interstitial", "<!DOCTYPE html><html>virus scan warning</html>", "text/html; charset=utf-8"},
		{"wrong magic", "PK\x03\x04zipfile", "application/octet-stream"},
		{"short body", "SQL", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			err := EnsureLocal(context.Background(), path, &fakeDownloader{body: tc.body, ctype: tc.ctype}, Options{})
			if !errors.Is(err, ErrNotSQLite) {
				t.Fatalf("err = %v, want ErrNotSQLite", err)
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("rejected download left %s behind", path)
			}
		})
	}
}

func TestEnsureLocal_DownloadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	boom := errors.New("connection reset")
	err := EnsureLocal(context.Background(), path, &fakeDownloader{err: boom}, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestEnsureLocal_HTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-sqlite3")
		_, _ = w.Write([]byte("SQLite format 3\x00payload"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), FileName)
	c := httpds.NewClient(httpds.Config{})
	if err := EnsureLocal(context.Background(), path, c, Options{URL: srv.URL}); err != nil {
		t.Fatalf("EnsureLocal: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() != 23 {
		t.Fatalf("stat = %v, %v", fi, err)
	}
}

func TestHeadCapture_SplitWrites(t *testing.T) {
	var buf bytes.Buffer
	h := &headCapture{w: &buf}
	for _, chunk := range []string{"SQLi", "te format", " 3\x00", "more"} {
		if _, err := h.Write([]byte(chunk)); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(h.head, sqliteMagic) {
		t.Errorf("head = %q", h.head)
	}
	if buf.String() != "SQLite format 3\x00more" {
		t.Errorf("forwarded = %q", buf.String())
	}
}
