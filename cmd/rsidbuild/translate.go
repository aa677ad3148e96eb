package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"rsidbuild/internal/config"
	"rsidbuild/internal/dbfetch"
	"rsidbuild/internal/pipeline"
	"rsidbuild/internal/storage"
	"rsidbuild/internal/variant"

	"github.com/spf13/cobra"
)

// runFlags are the per-subcommand flags shared by the three modes.
type runFlags struct {
	input, output string
	excludeRefAlt bool
	rsid          string
	chr, pos      string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input file (tab, comma or whitespace delimited, with header)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (.txt/.tsv tab delimited, .csv comma delimited)")
	cmd.Flags().BoolVar(&f.excludeRefAlt, "exclude-ref-alt", false, "omit the ref and alt allele columns")
}

func (a *app) rsidCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "rsid",
		Short: "Add GRCh37 and GRCh38 positions to rows keyed by rsID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.translate(cmd, variant.ByRSID, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.rsid, "rsid_col", "", "input column holding rsIDs")
	return cmd
}

func (a *app) chrposCmd(build int) *cobra.Command {
	f := &runFlags{}
	mode := variant.ByChrPos37
	if build == 38 {
		mode = variant.ByChrPos38
	}
	b := strconv.Itoa(build)
	cmd := &cobra.Command{
		Use:   string(mode),
		Short: "Add rsIDs and the other build's positions to rows keyed by GRCh" + b + " chromosome and position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.translate(cmd, mode, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.chr, "chr"+b, "", "input column holding GRCh"+b+" chromosomes")
	cmd.Flags().StringVar(&f.pos, "pos"+b, "", "input column holding GRCh"+b+" positions")
	return cmd
}

func (a *app) translate(cmd *cobra.Command, mode variant.Mode, f *runFlags) error {
	cfg := a.cfg
	r := &cfg.Run
	r.Mode = string(mode)
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("input", &r.Input, f.input)
	override("output", &r.Output, f.output)
	override("rsid_col", &r.RSIDColumn, f.rsid)
	override("chr37", &r.ChrColumn, f.chr)
	override("pos37", &r.PosColumn, f.pos)
	override("chr38", &r.ChrColumn, f.chr)
	override("pos38", &r.PosColumn, f.pos)
	if f.excludeRefAlt {
		r.ExcludeRefAlt = true
	}

	if err := a.reportIssues(config.ValidateRun(cfg)); err != nil {
		return err
	}

	stopMetrics := startMetrics(cfg.Metrics, a.logger)
	defer stopMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sum, err := pipeline.Run(ctx, pipeline.Request{
		Mode:          mode,
		Input:         r.Input,
		Output:        r.Output,
		Columns:       variant.Columns{RSID: r.RSIDColumn, Chr: r.ChrColumn, Pos: r.PosColumn},
		ExcludeRefAlt: r.ExcludeRefAlt,
		Store:         storage.Config{Kind: cfg.Lookup.Storage, DSN: cfg.Lookup.DSN},
		Table:         cfg.Lookup.Table,
		BatchSize:     cfg.Lookup.BatchSize,
	}, a.opener(cfg.Lookup), a.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "wrote %d rows to %s (%d matched, %d unmatched)\n",
		sum.Output.Rows, sum.Output.Path, sum.Merge.Matched, sum.Merge.Unmatched)
	return nil
}

// opener fetches the sqlite lookup file on first use, then opens the store.
// The pipeline calls it only once the input has validated.
func (a *app) opener(l config.Lookup) pipeline.Opener {
	return func(ctx context.Context, sc storage.Config) (storage.Repository, error) {
		if l.AutoFetch && sc.Kind == "sqlite" {
			if err := fetchFn(ctx, sc.DSN, dbfetch.Options{URL: l.URL, Logger: a.logger}); err != nil {
				return nil, fmt.Errorf("provision lookup database: %w", err)
			}
		}
		return newRepositoryFn(ctx, sc)
	}
}

func (a *app) fetchCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "fetch-db",
		Short: "Download the sqlite lookup database to its local path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := a.cfg.Lookup
			if l.Storage != "sqlite" {
				return fmt.Errorf("fetch-db only applies to sqlite storage, not %q", l.Storage)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			if err := fetchFn(ctx, l.DSN, dbfetch.Options{URL: l.URL, Force: force, Logger: a.logger}); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, l.DSN)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "download even when the file exists")
	return cmd
}

func (a *app) validateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Check the resolved configuration and print any issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate(a.cfg)
			if a.cfg.Run.Mode != "" {
				issues = config.ValidateRun(a.cfg)
			}
			for _, iss := range issues {
				fmt.Fprintf(a.stdout, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("configuration is invalid")
			}
			fmt.Fprintln(a.stdout, "configuration is valid")
			return nil
		},
	}
}
