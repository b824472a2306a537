package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aihangout/hangoutsync/internal/app"
	"github.com/aihangout/hangoutsync/internal/backup"
	"github.com/aihangout/hangoutsync/internal/config"
	"github.com/aihangout/hangoutsync/internal/logging"
)

type operations interface {
	BackupProblems(ctx context.Context) (backup.ProblemsBackup, error)
	BackupAnalytics(ctx context.Context) (backup.AnalyticsBackup, error)
	SyncTable(ctx context.Context) (backup.SyncResult, error)
	Analyze(ctx context.Context, prompt string) (backup.AnalysisResult, error)
	Status(ctx context.Context) backup.ServiceStatus
}

type serviceBuilder func(ctx context.Context, stderr io.Writer) (operations, error)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, buildService))
}

func buildService(ctx context.Context, stderr io.Writer) (operations, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, _ := logging.New(logging.Options{Stderr: stderr})
	return app.NewService(ctx, cfg, logger)
}

func execute(args []string, stdout, stderr io.Writer, build serviceBuilder) int {
	root := newRootCmd(stdout, stderr, build)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// newRootCmd builds the CLI. Operation and setup failures are printed as
// JSON and exit zero; only usage errors exit non-zero.
func newRootCmd(stdout, stderr io.Writer, build serviceBuilder) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hangoutsync",
		Short:         "Back up AI Hangout problems and learning data to cloud storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	withService := func(run func(ctx context.Context, svc operations) any) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			svc, err := build(ctx, stderr)
			if err != nil {
				return writeJSON(stdout, backup.NewReport(nil, &backup.Error{
					Kind:    backup.KindService,
					Op:      c.Name(),
					Message: fmt.Sprintf("setup failed: %v", err),
					Err:     err,
				}))
			}
			return writeJSON(stdout, run(ctx, svc))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of recent problems to the object store",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc operations) any {
			return backup.NewReport(svc.BackupProblems(ctx))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "analytics",
		Short: "Write a snapshot of the learning data to the object store",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc operations) any {
			return backup.NewReport(svc.BackupAnalytics(ctx))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Upsert recent problems into the table",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc operations) any {
			return backup.NewReport(svc.SyncTable(ctx))
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report which capabilities are configured",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc operations) any {
			return svc.Status(ctx)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "analyze PROMPT",
		Short: "Send one prompt to the inference service",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			prompt := args[0]
			return withService(func(ctx context.Context, svc operations) any {
				return backup.NewReport(svc.Analyze(ctx, prompt))
			})(c, args)
		},
	})
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
