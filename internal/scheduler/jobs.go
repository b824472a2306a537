package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/clock"

	"github.com/aihangout/hangoutsync/internal/backup"
	"github.com/aihangout/hangoutsync/internal/modeflags"
)

const (
	FullBackupJob = "full_backup"
	QuickSyncJob  = "quick_sync"

	FullBackupPeriod = 6 * time.Hour
	QuickSyncPeriod  = 30 * time.Minute
)

// Operations is the part of backup.Service the jobs drive.
type Operations interface {
	BackupProblems(ctx context.Context) (backup.ProblemsBackup, error)
	BackupAnalytics(ctx context.Context) (backup.AnalyticsBackup, error)
	SyncTable(ctx context.Context) (backup.SyncResult, error)
}

// Summary is the record of one full backup run.
type Summary struct {
	Timestamp       string        `json:"timestamp"`
	ProblemsBackup  backup.Report `json:"problems_backup"`
	AnalyticsBackup backup.Report `json:"analytics_backup"`
	TableSync       backup.Report `json:"dynamodb_sync"`
}

type SummaryOptions struct {
	Dir    string
	Clock  clock.Clock
	Logger Logger
}

// FullBackup runs the problems snapshot, the learning-data snapshot and the
// table sync in that order, then writes backup_summary_<unix>.json. Failures
// of the three steps are recorded in the summary; only a failed summary
// write is returned.
func FullBackup(ops Operations, opts SummaryOptions) Action {
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	logf := loggerFunc(opts.Logger)
	return func(ctx context.Context) error {
		logf("starting full backup")
		logf("backing up problems")
		problems, err := ops.BackupProblems(ctx)
		problemsReport := backup.NewReport(problems, err)
		logf("backing up learning data")
		analytics, err := ops.BackupAnalytics(ctx)
		analyticsReport := backup.NewReport(analytics, err)
		logf("syncing table")
		synced, err := ops.SyncTable(ctx)
		syncReport := backup.NewReport(synced, err)

		now := clk.Now()
		summary := Summary{
			Timestamp:       now.UTC().Format(time.RFC3339),
			ProblemsBackup:  problemsReport,
			AnalyticsBackup: analyticsReport,
			TableSync:       syncReport,
		}
		body, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encode backup summary: %w", err)
		}
		logf("full backup completed: %s", body)
		path := filepath.Join(opts.Dir, fmt.Sprintf("backup_summary_%d.json", now.Unix()))
		if err := writeFileAtomic(path, body); err != nil {
			return fmt.Errorf("write backup summary: %w", err)
		}
		return nil
	}
}

// QuickSync runs the table sync alone.
func QuickSync(ops Operations, logger Logger) Action {
	logf := loggerFunc(logger)
	return func(ctx context.Context) error {
		logf("running quick sync")
		result, err := ops.SyncTable(ctx)
		if err != nil {
			return err
		}
		body, _ := json.Marshal(backup.NewReport(result, nil))
		logf("quick sync completed: %s", body)
		return nil
	}
}

// DefaultJobs returns the full backup and quick sync jobs with periods taken
// from flags, falling back to six hours and thirty minutes.
func DefaultJobs(ops Operations, flags modeflags.Flags, opts SummaryOptions) []Job {
	return []Job{
		{
			Name:    FullBackupJob,
			Period:  flags.Frequency(modeflags.KeyBackupFrequency, FullBackupPeriod),
			Action:  FullBackup(ops, opts),
			FlagKey: modeflags.KeyBackupFrequency,
		},
		{
			Name:    QuickSyncJob,
			Period:  flags.Frequency(modeflags.KeySyncFrequency, QuickSyncPeriod),
			Action:  QuickSync(ops, opts.Logger),
			FlagKey: modeflags.KeySyncFrequency,
		},
	}
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loggerFunc(logger Logger) func(string, ...any) {
	return func(format string, args ...any) {
		if logger != nil {
			logger.Printf(format, args...)
		}
	}
}
