package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [graph]",
	Short: "Resolve a batch of records",
	Long: `Resolves every record of a CSV, JSON, JSONL or YAML file with a bounded pool
of workers. Outcomes go to the configured result store, events to NATS and the
summary report to S3 when those are configured. Interrupting the sweep stops
new records from starting and reports what finished.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		eng, cfg, logger, err := openEngine(ctx, cmd, args)
		if err != nil {
			return err
		}
		if err := eng.Err(); err != nil {
			tui.PrintFindings(cmd.ErrOrStderr(), eng.Findings(), tui.ShouldUseColor())
			return err
		}

		recordsPath, _ := cmd.Flags().GetString("records")
		rows, err := file.LoadRecords(recordsPath, cfg.Direct)
		if err != nil {
			return err
		}

		infra, err := cli.OpenInfra(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer infra.Close()

		workers := cfg.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
		}
		reg := prometheus.NewRegistry()
		opts := append(infra.SweepOptions(),
			sweep.WithWorkers(workers),
			sweep.WithLogger(logger),
			sweep.WithMetrics(sweep.NewMetrics(reg)),
		)
		if runID, _ := cmd.Flags().GetString("run-id"); runID != "" {
			opts = append(opts, sweep.WithRunID(runID))
		}

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			stop := serveMetrics(addr, reg, logger.Error)
			defer stop()
		}

		summary, runErr := sweep.New(eng, opts...).Run(ctx, rows)
		if summary != nil {
			md := summary.Markdown()
			if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
				if err := os.WriteFile(outPath, []byte(md), 0644); err != nil {
					return err
				}
			}
			rendered, err := tui.NewRenderer(tui.ShouldUseColor())(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
		}
		if runErr != nil {
			return ctx.Interrupted(runErr)
		}
		if failOnError, _ := cmd.Flags().GetBool("fail-on-error"); failOnError && summary.Failed > 0 {
			return fmt.Errorf("%d of %d records failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, logError func(string, ...any)) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logError("metrics server failed", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringP("records", "r", "", "Records file (.csv, .json, .jsonl, .ndjson, .yaml)")
	sweepCmd.Flags().IntP("workers", "w", sweep.DefaultWorkers, "Number of concurrent resolutions (overrides config)")
	sweepCmd.Flags().String("run-id", "", "Run id (generated when empty)")
	sweepCmd.Flags().String("out", "", "Write the Markdown summary to this file")
	sweepCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address during the sweep")
	sweepCmd.Flags().Bool("fail-on-error", false, "Exit non-zero when any record fails")
	_ = sweepCmd.MarkFlagRequired("records")
}
