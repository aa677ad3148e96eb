// Package config defines the JSON-serialisable run configuration.
//
// Values are layered: Default, then an optional JSON file (LoadFile), then
// environment variables (ApplyEnv), then command-line flags applied by main.
//
// Example:
//
//	{
//	  "run":     { "mode": "rsid", "input": "in.txt", "output": "out.tsv", "rsid_column": "SNP" },
//	  "lookup":  { "storage": "sqlite", "dsn": "/data/GTEx_v10.db", "auto_fetch": false },
//	  "metrics": { "backend": "prometheus", "pushgateway_url": "http://pushgateway:9091" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rsidbuild/internal/dbfetch"
	"rsidbuild/internal/lookup"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	Run     Run     `json:"run"`
	Lookup  Lookup  `json:"lookup"`
	Metrics Metrics `json:"metrics"`
}

// Run describes one translation: which identifiers the input carries, where
// it is read from and where the merged table goes.
type Run struct {
	// Mode is "rsid", "chrpos37" or "chrpos38".
	Mode string `json:"mode"`

	Input  string `json:"input"`
	Output string `json:"output"`

	// RSIDColumn is read in rsid mode; ChrColumn and PosColumn in the
	// chrpos modes.
	RSIDColumn string `json:"rsid_column"`
	ChrColumn  string `json:"chr_column"`
	PosColumn  string `json:"pos_column"`

	ExcludeRefAlt bool `json:"exclude_ref_alt"`
}

// Lookup locates the read-only variant database.
type Lookup struct {
	// Storage selects the backend: sqlite, postgres, mssql or mysql.
	Storage string `json:"storage"`

	// DSN is a file path for sqlite and a connection string otherwise.
	DSN string `json:"dsn"`

	Table string `json:"table"`

	// URL is where the sqlite file is downloaded from when AutoFetch is set
	// and the file is missing.
	URL       string `json:"url"`
	AutoFetch bool   `json:"auto_fetch"`

	// BatchSize overrides the per-mode batch size when > 0.
	BatchSize int `json:"batch_size"`
}

// Metrics selects where run metrics are sent.
type Metrics struct {
	// Backend is "none", "prometheus" or "datadog".
	Backend string `json:"backend"`

	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`

	// Job is the Pushgateway grouping job / Datadog namespace prefix.
	Job string `json:"job"`
}

// Metrics backends.
const (
	MetricsNone       = "none"
	MetricsPrometheus = "prometheus"
	MetricsDatadog    = "datadog"
)

// DefaultJob labels metrics when no job is configured.
const DefaultJob = "rsidbuild"

// Environment variables consulted by ApplyEnv.
const (
	EnvDB             = "RSIDBUILD_DB"
	EnvDBURL          = "RSIDBUILD_DB_URL"
	EnvStorage        = "RSIDBUILD_STORAGE"
	EnvMetricsBackend = "RSIDBUILD_METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogAddr    = "DD_AGENT_ADDR"
	EnvBatchSize      = "RSIDBUILD_BATCH_SIZE"
)

// Default returns the built-in configuration: the cached sqlite database,
// fetched on first use, and no metrics.
func Default() Config {
	path, err := dbfetch.DefaultPath()
	if err != nil {
		path = dbfetch.FileName
	}
	return Config{
		Lookup: Lookup{
			Storage:   "sqlite",
			DSN:       path,
			Table:     lookup.Table,
			URL:       dbfetch.DefaultURL,
			AutoFetch: true,
		},
		Metrics: Metrics{
			Backend: MetricsNone,
			Job:     DefaultJob,
		},
	}
}

// Decode reads a JSON config from b on top of c. Unknown fields are errors.
func Decode(b []byte, c *Config) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}

// LoadFile reads the JSON file at path on top of c.
func LoadFile(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Decode(b, c); err != nil {
		return fmt.Errorf("%w (file %s)", err, path)
	}
	return nil
}

// ApplyEnv overrides c with the non-empty environment variables returned by
// getenv (usually os.Getenv).
func ApplyEnv(c *Config, getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Lookup.DSN, EnvDB)
	set(&c.Lookup.URL, EnvDBURL)
	set(&c.Lookup.Storage, EnvStorage)
	set(&c.Metrics.Backend, EnvMetricsBackend)
	set(&c.Metrics.PushgatewayURL, EnvPushgatewayURL)
	set(&c.Metrics.DatadogAddr, EnvDatadogAddr)

	if v := strings.TrimSpace(getenv(EnvBatchSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvBatchSize, v, err)
		}
		c.Lookup.BatchSize = n
	}
	return nil
}
