package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	if Default(nil).Enabled(context.Background(), slog.LevelError) {
		t.Error("Default(nil) should discard")
	}
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Default(l) != l {
		t.Error("Default should return the given logger")
	}
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", DefaultFile)

	logger, cleanup, err := Setup(Options{Level: slog.LevelInfo, Console: &console, File: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.With("component", "test").Info("input file read", "rows", 3)
	logger.Debug("hidden")
	cleanup()

	if !strings.Contains(console.String(), "input file read") {
		t.Errorf("console missing record: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Errorf("debug record leaked at info level")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "component=test") || !strings.Contains(string(b), "rows=3") {
		t.Errorf("file missing record: %q", b)
	}
}

func TestSetup_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, cleanup, err := Setup(Options{Level: ParseLevel(true), Console: &console})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer cleanup()
	logger.Debug("batch", "from", 0, "to", 10)
	if !strings.Contains(console.String(), "batch") {
		t.Errorf("verbose logger dropped debug record: %q", console.String())
	}
}

func TestMultiHandler_LevelPerSink(t *testing.T) {
	var warnOnly, all bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&warnOnly, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	logger := slog.New(h).WithGroup("g").With("k", "v")
	logger.Info("info line")
	logger.Warn("warn line")

	if strings.Contains(warnOnly.String(), "info line") {
		t.Errorf("warn sink got info record")
	}
	if !strings.Contains(warnOnly.String(), "warn line") || !strings.Contains(all.String(), "info line") {
		t.Errorf("records missing: warn=%q all=%q", warnOnly.String(), all.String())
	}
	if !strings.Contains(all.String(), "g.k=v") {
		t.Errorf("group/attrs not propagated: %q", all.String())
	}
}
