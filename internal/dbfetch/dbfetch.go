// Package dbfetch provisions the lookup database: the SQLite file lives at a
// fixed local path and is downloaded once when it is missing.
package dbfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rsidbuild/internal/datasource/file"
	"rsidbuild/internal/datasource/httpds"
	"rsidbuild/internal/logging"
)

const (
	// FileName is the lookup database file name inside the cache directory.
	FileName = "GTEx_v10.db"

	// DefaultURL serves the published lookup database.
	DefaultURL = "https://drive.google.com/uc?id=1Bug-VI1HGJbyymeveeb75hrym18krrh9&export=download&confirm=t"
)

// sqliteMagic starts every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// ErrNotSQLite reports a download that is not a SQLite database, typically
// an HTML interstitial served instead of the file.
var ErrNotSQLite = errors.New("downloaded file is not a SQLite database")

// DefaultPath returns <user cache dir>/rsidbuild/GTEx_v10.db.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(dir, "rsidbuild", FileName), nil
}

// Downloader is the part of httpds.Client used here.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, string, error)
}

var _ Downloader = (*httpds.Client)(nil)

// Options tunes EnsureLocal.
type Options struct {
	URL string // DefaultURL when empty

	// Force downloads even when the file already exists.
	Force bool

	Logger *slog.Logger
}

// EnsureLocal makes sure a SQLite lookup database exists at path, downloading
// it with d when absent (or when opt.Force is set). The file only appears
// once the download completed and passed the SQLite header check.
func EnsureLocal(ctx context.Context, path string, d Downloader, opt Options) error {
	logger := logging.Default(opt.Logger).With("component", "dbfetch")

	if !opt.Force {
		ok, err := file.NewLocal(path).Exists()
		if err != nil {
			return err
		}
		if ok {
			logger.Debug("lookup database present", "path", path)
			return nil
		}
	}

	url := opt.URL
	if url == "" {
		url = DefaultURL
	}
	logger.Info("downloading lookup database", "url", url, "path", path)

	start := time.Now()
	var n int64
	err := file.WriteAtomic(path, 0o644, func(w io.Writer) error {
		cw := &headCapture{w: w}
		var (
			ctype string
			err   error
		)
		n, ctype, err = d.Download(ctx, url, cw)
		if err != nil {
			return err
		}
		if strings.HasPrefix(ctype, "text/html") || !bytes.HasPrefix(cw.head, sqliteMagic) {
			return fmt.Errorf("%w (content-type %q, %d bytes)", ErrNotSQLite, ctype, n)
		}
		return nil
	})
	if err != nil {
		logger.Error("lookup database download failed", "url", url, "err", err)
		return fmt.Errorf("fetch lookup database: %w", err)
	}

	logger.Info("lookup database ready",
		"path", path,
		"bytes", n,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// headCapture forwards writes and keeps the first len(sqliteMagic) bytes.
type headCapture struct {
	w    io.Writer
	head []byte
}

func (h *headCapture) Write(p []byte) (int, error) {
	if need := len(sqliteMagic) - len(h.head); need > 0 {
		h.head = append(h.head, p[:min(need, len(p))]...)
	}
	return h.w.Write(p)
}
