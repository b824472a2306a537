package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aihangout/hangoutsync/internal/app"
	"github.com/aihangout/hangoutsync/internal/config"
	"github.com/aihangout/hangoutsync/internal/logging"
	"github.com/aihangout/hangoutsync/internal/modeflags"
	"github.com/aihangout/hangoutsync/internal/scheduler"
)

func main() {
	tick := flag.Duration("tick", durationEnv("AIHANGOUT_SCHEDULER_TICK", scheduler.DefaultTick), "poll interval")
	once := flag.Bool("once", false, "run one full backup and exit")
	watchFlags := flag.Bool("watch-flags", boolEnv("AIHANGOUT_WATCH_FLAGS", true), "reload the flags file when it changes")
	flag.Parse()

	if *tick <= 0 {
		*tick = scheduler.DefaultTick
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger, closeLog := logging.New(logging.Options{File: cfg.LogFile})
	defer closeLog()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewService(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize backup service: %v", err)
	}
	summary := scheduler.SummaryOptions{Dir: cfg.SummaryDir, Logger: logger}
	fullBackup := scheduler.FullBackup(svc, summary)

	if *once {
		if err := fullBackup(rootCtx); err != nil {
			logger.Fatalf("full backup failed: %v", err)
		}
		return
	}

	var reloads <-chan modeflags.Flags
	if *watchFlags {
		reloads, err = scheduler.WatchFlags(rootCtx, cfg.FlagsFile, logger)
		if err != nil {
			logger.Printf("flags file watch disabled: %v", err)
		}
	}
	sched, err := scheduler.New(scheduler.Options{
		Logger:   logger,
		Tick:     *tick,
		Reloads:  reloads,
		OnReload: svc.ApplyFlags,
	}, scheduler.DefaultJobs(svc, cfg.Flags, summary)...)
	if err != nil {
		logger.Fatalf("failed to initialize scheduler: %v", err)
	}

	logger.Printf("backup scheduler started")
	if err := sched.Run(rootCtx, fullBackup); err != nil {
		logger.Printf("scheduler error: %v", err)
		_ = closeLog()
		os.Exit(1)
	}
	logger.Printf("backup scheduler stopped")
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}

func boolEnv(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %t", name, raw, fallback)
		return fallback
	}
	return value
}
