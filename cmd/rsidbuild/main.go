// Command rsidbuild translates variant identifiers between rsIDs and
// GRCh37/GRCh38 chromosome positions using the GTEx lookup database, and
// appends the other identifiers and alleles to every input row.
//
// Logging:
//   - The logger is built once in the root command and passed down
//   - Text goes to stderr and to the log file; Seq is optional
//   - No slog.SetDefault
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"rsidbuild/internal/config"
	"rsidbuild/internal/datasource/httpds"
	"rsidbuild/internal/dbfetch"
	"rsidbuild/internal/logging"
	"rsidbuild/internal/storage"

	// register all lookup store backends with the storage factory.
	_ "rsidbuild/internal/storage/all"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	// newRepositoryFn opens the lookup store; tests replace it.
	newRepositoryFn = storage.New

	// fetchFn provisions the sqlite lookup file.
	fetchFn = fetchDB

	getenvFn = os.Getenv
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		if a.logger != nil {
			a.logger.Error("rsidbuild failed", "err", err)
		} else {
			fmt.Fprintf(stderr, "rsidbuild: %v\n", err)
		}
	}
	a.close()
	if err != nil {
		return 1
	}
	return 0
}

// app carries state shared by the subcommands.
type app struct {
	stdout, stderr io.Writer

	configPath     string
	db             string
	dbURL          string
	storageKind    string
	batchSize      int
	noFetch        bool
	logFile        string
	seqURL         string
	verbose        bool
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string

	cfg     config.Config
	logger  *slog.Logger
	cleanup func()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rsidbuild",
		Short:         "Translate variant IDs between rsID, GRCh37 and GRCh38 positions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "JSON config file")
	pf.StringVar(&a.db, "db", "", "lookup database: sqlite file path or connection string (default: user cache dir)")
	pf.StringVar(&a.dbURL, "db-url", "", "download URL for the sqlite lookup database")
	pf.StringVar(&a.storageKind, "storage", "", "lookup store backend: sqlite, postgres, mssql or mysql")
	pf.IntVar(&a.batchSize, "batch-size", 0, "keys per lookup statement (default depends on mode)")
	pf.BoolVar(&a.noFetch, "no-fetch", false, "never download the lookup database")
	pf.StringVar(&a.logFile, "log-file", logging.DefaultFile, "log file (empty disables)")
	pf.StringVar(&a.seqURL, "seq-url", "", "Seq server URL for structured logs")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&a.metricsBackend, "metrics-backend", "", "metrics backend: none, prometheus or datadog")
	pf.StringVar(&a.pushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway base URL")
	pf.StringVar(&a.datadogAddr, "datadog-addr", "", "DogStatsD address")

	root.AddCommand(
		a.rsidCmd(),
		a.chrposCmd(37),
		a.chrposCmd(38),
		a.fetchCmd(),
		a.validateConfigCmd(),
	)
	return root
}

// setup builds the logger and resolves the configuration: defaults, then
// the config file, then the environment, then flags.
func (a *app) setup(cmd *cobra.Command) error {
	logger, cleanup, err := logging.Setup(logging.Options{
		Level:   logging.ParseLevel(a.verbose),
		Console: a.stderr,
		File:    a.logFile,
		SeqURL:  a.seqURL,
	})
	if err != nil {
		return err
	}
	a.logger, a.cleanup = logger, cleanup

	cfg := config.Default()
	if a.configPath != "" {
		if err := config.LoadFile(a.configPath, &cfg); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(&cfg, getenvFn); err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("db", &cfg.Lookup.DSN, a.db)
	override("db-url", &cfg.Lookup.URL, a.dbURL)
	override("storage", &cfg.Lookup.Storage, a.storageKind)
	override("metrics-backend", &cfg.Metrics.Backend, a.metricsBackend)
	override("pushgateway-url", &cfg.Metrics.PushgatewayURL, a.pushgatewayURL)
	override("datadog-addr", &cfg.Metrics.DatadogAddr, a.datadogAddr)
	if flags.Changed("batch-size") {
		cfg.Lookup.BatchSize = a.batchSize
	}
	if a.noFetch {
		cfg.Lookup.AutoFetch = false
	}

	a.cfg = cfg
	a.logger.Debug("configuration resolved",
		"storage", cfg.Lookup.Storage,
		"table", cfg.Lookup.Table,
		"auto_fetch", cfg.Lookup.AutoFetch,
		"metrics", cfg.Metrics.Backend)
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// reportIssues logs every issue and returns an error when any blocks the run.
func (a *app) reportIssues(issues []config.Issue) error {
	var first *config.Issue
	for i, iss := range issues {
		if iss.Severity == config.SeverityError {
			a.logger.Error("invalid configuration", "path", iss.Path, "issue", iss.Message)
			if first == nil {
				first = &issues[i]
			}
			continue
		}
		a.logger.Warn("configuration warning", "path", iss.Path, "issue", iss.Message)
	}
	if first != nil {
		return fmt.Errorf("invalid configuration: %w", *first)
	}
	return nil
}

// fetchDB downloads the sqlite lookup database to path unless it exists.
func fetchDB(ctx context.Context, path string, opt dbfetch.Options) error {
	client := httpds.NewClient(httpds.Config{
		MaxRetries: 3,
		UserAgent:  "rsidbuild/" + version,
		Logger:     opt.Logger,
	})
	return dbfetch.EnsureLocal(ctx, path, client, opt)
}
