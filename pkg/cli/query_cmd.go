package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"placequery/internal/config"
	"placequery/internal/domain"
	"placequery/internal/engine"
	"placequery/internal/export"
	"placequery/internal/job"
)

const cliPollInterval = 250 * time.Millisecond

func newQueryCmd() *cobra.Command {
	var (
		flags   specFlags
		release string
		format  string
		out     string
		region  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query job against Overture Maps and export the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := flags.resolve()
			if err != nil {
				return err
			}
			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if spec.Limit != nil {
				if err := domain.ValidateLimit(*spec.Limit, export.MaxRowsFor(exportFormat)); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			eng, err := engine.Open(ctx, engine.Config{S3Region: region, Logger: logger})
			if err != nil {
				return err
			}
			defer eng.Close() //nolint:errcheck

			manager := job.NewManager(eng, job.Options{Release: release, Logger: logger})
			if _, err := manager.Start(spec, release); err != nil {
				return err
			}

			snap, err := pollUntilDone(ctx, cmd, manager)
			if err != nil {
				return err
			}

			switch snap.State {
			case domain.JobStateFailed:
				return fmt.Errorf("query failed (%s): %s", snap.Error.Kind, snap.Error.Message)
			case domain.JobStateCancelled:
				return fmt.Errorf("query cancelled")
			case domain.JobStateCompletedEmpty:
				fmt.Fprintln(cmd.ErrOrStderr(), "No results found; writing empty export")
			}

			result, err := manager.Result()
			if err != nil {
				return err
			}
			encoder, err := export.For(exportFormat)
			if err != nil {
				return err
			}
			data, err := encoder.Encode(result)
			if err != nil {
				return fmt.Errorf("encode %s: %w", exportFormat, err)
			}

			if out == "" {
				out = "places." + encoder.Extension()
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s (%.1fs)\n", snap.RowCount, out, snap.Elapsed)
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&release, "release", config.DefaultRelease, "Overture dataset release")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv, geojson, kml, parquet, shapefile")
	cmd.Flags().StringVar(&out, "out", "", "output file (default places.<ext>)")
	cmd.Flags().StringVar(&region, "s3-region", config.DefaultS3Region, "AWS region of the Overture bucket")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline (0 = none)")
	return cmd
}

// pollUntilDone polls the job slot until the worker terminates. An interrupt
// or deadline requests cancellation; a worker that outlives the grace period
// is abandoned.
func pollUntilDone(ctx context.Context, cmd *cobra.Command, manager *job.Manager) (domain.JobSnapshot, error) {
	ticker := time.NewTicker(cliPollInterval)
	defer ticker.Stop()

	cancelRequested := false
	lastStatus := ""
	done := ctx.Done()

	for {
		select {
		case <-done:
			cancelRequested = true
			done = nil
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelling...")
			_ = manager.Cancel()
		case <-ticker.C:
		}

		snap := manager.Snapshot()
		if snap.StatusText != lastStatus {
			lastStatus = snap.StatusText
			fmt.Fprintf(cmd.ErrOrStderr(), "%s [%.1fs]\n", snap.StatusText, snap.Elapsed)
		}
		// A terminal snapshot alone is not the completion signal; the worker
		// goroutine must have returned before the outcome is final.
		if snap.State.Terminal() && manager.Finished() {
			return snap, nil
		}
		if cancelRequested {
			if err := manager.Abandon(); err == nil {
				return snap, fmt.Errorf("query did not stop within the grace period; worker abandoned")
			}
		}
	}
}
