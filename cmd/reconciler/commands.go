package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tiperlive/reconciler/internal/domain"
	"github.com/tiperlive/reconciler/internal/store"
	"github.com/tiperlive/reconciler/internal/sweeper"
)

// rootOptions holds global flags for all commands
type rootOptions struct {
	configFile string
	envPath    string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Reconcile raw product snapshots into canonical products",
		Long: `Consumes pending raw product snapshots, merges them per
(external product id, source) and upserts one canonical product per
external id together with its genre, performer, series and label links.`,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.envPath, "env", "config/", "path to environment files")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newIngestCommand(opts))
	cmd.AddCommand(newShowCommand(opts))

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "run",
		Short:        "Run one reconciliation pass and print its result",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.runner().RunOnce(ctx)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), runReport(result))
		},
	}
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "watch",
		Short:        "Reconcile continuously until interrupted",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, opts, true)
			if err != nil {
				return err
			}
			defer a.close()

			s := sweeper.NewReconcileSweeper(sweeper.ReconcileSweeperConfig{
				BatchSize:    a.cfg.Reconcile.BatchSize,
				IdleInterval: a.cfg.Reconcile.Interval,
			}, a.runner(), a.clock, a.log.Logger)

			errChan := make(chan error, 1)
			go func() {
				errChan <- s.Start(ctx)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				a.log.Info("Received shutdown signal", zap.String("signal", sig.String()))
			case err := <-errChan:
				return err
			}

			// Let the in-flight pass finish its current units before canceling
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			if err := s.Stop(shutdownCtx); err != nil {
				a.log.Warn("Sweeper did not stop in time", zap.Error(err))
			}
			cancel()

			a.log.Info("Reconciler stopped")
			return nil
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Print the number of pending snapshots",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			pending, err := a.store.CountPendingSnapshots(cmd.Context())
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), map[string]int64{"pending_snapshots": pending})
		},
	}
}

// snapshotFile is one entry of an ingest file
type snapshotFile struct {
	ExternalProductID string          `json:"external_product_id"`
	SourceName        string          `json:"source_name"`
	CapturedAt        *time.Time      `json:"captured_at"`
	Payload           json.RawMessage `json:"payload"`
}

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var sourceName string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Append raw snapshots from a JSON file",
		Long: `Appends raw snapshots from a JSON array of
{"external_product_id", "source_name", "captured_at", "payload"} objects.
Use "-" to read from standard input.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			var entries []snapshotFile
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("failed to parse snapshot file: %w", err)
			}

			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			for i, e := range entries {
				source := e.SourceName
				if source == "" {
					source = sourceName
				}
				if source == "" {
					return fmt.Errorf("entry %d: source_name is required", i)
				}
				capturedAt := a.clock.Now()
				if e.CapturedAt != nil {
					capturedAt = *e.CapturedAt
				}

				if _, err := a.store.CreateRawSnapshot(cmd.Context(), store.CreateRawSnapshotInput{
					ExternalProductID: e.ExternalProductID,
					SourceName:        source,
					Payload:           e.Payload,
					CapturedAt:        capturedAt,
				}); err != nil {
					return fmt.Errorf("entry %d: %w", i, err)
				}
			}

			return writeJSON(cmd.OutOrStdout(), map[string]int{"ingested": len(entries)})
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "source name for entries that do not set one")

	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show <external-product-id>",
		Short:        "Print a canonical product and its categories",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			product, err := a.store.GetProductByExternalID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("product %q not found", args[0])
			}

			categories, err := a.store.GetProductCategories(cmd.Context(), product.ID)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"product":    product,
				"categories": categories,
			})
		},
	}
}

type failureReport struct {
	ExternalProductID string `json:"external_product_id"`
	SourceName        string `json:"source_name"`
	Error             string `json:"error"`
}

// runReport renders a run result with its failures as plain strings
func runReport(result *domain.RunResult) map[string]any {
	failures := make([]failureReport, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, failureReport{
			ExternalProductID: f.Key.ExternalProductID,
			SourceName:        f.Key.SourceName,
			Error:             f.Err.Error(),
		})
	}

	return map[string]any{
		"run_id":      result.RunID,
		"discovered":  result.Discovered,
		"succeeded":   result.Succeeded,
		"skipped":     result.Skipped,
		"failures":    failures,
		"started_at":  result.StartedAt,
		"finished_at": result.FinishedAt,
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path) //nolint:gosec,G304
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
