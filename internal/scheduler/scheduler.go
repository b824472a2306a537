// Package scheduler drives the periodic backup jobs. Each job keeps its own
// due time; a poll tick runs whatever is due, one job at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/aihangout/hangoutsync/internal/backup"
	"github.com/aihangout/hangoutsync/internal/modeflags"
)

const DefaultTick = time.Minute

type Logger interface {
	Printf(format string, args ...any)
}

// Action is one unit of scheduled work. A *backup.Error is logged and the
// loop carries on; any other error stops the loop.
type Action func(ctx context.Context) error

type Job struct {
	Name   string
	Period time.Duration
	Action Action
	// FlagKey names the flags-file key that overrides Period on reload.
	FlagKey string
}

type job struct {
	Job
	base time.Duration
	last time.Time
	next time.Time
}

type Options struct {
	Clock  clock.Clock
	Logger Logger
	Tick   time.Duration
	// Reloads delivers a fresh flags snapshot whenever the flags file
	// changes. Nil disables reloading.
	Reloads  <-chan modeflags.Flags
	OnReload func(modeflags.Flags)
}

type Scheduler struct {
	clock    clock.Clock
	logger   Logger
	tick     time.Duration
	reloads  <-chan modeflags.Flags
	onReload func(modeflags.Flags)
	jobs     []*job
}

// New schedules every job to first fall due one period from now.
func New(opts Options, jobs ...Job) (*Scheduler, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	s := &Scheduler{
		clock:    clk,
		logger:   opts.Logger,
		tick:     tick,
		reloads:  opts.Reloads,
		onReload: opts.OnReload,
	}
	now := clk.Now()
	seen := map[string]bool{}
	for _, j := range jobs {
		name := strings.TrimSpace(j.Name)
		if name == "" {
			return nil, errors.New("scheduler: job name is required")
		}
		if seen[name] {
			return nil, fmt.Errorf("scheduler: duplicate job %q", name)
		}
		if j.Period <= 0 {
			return nil, fmt.Errorf("scheduler: job %q needs a positive period", name)
		}
		if j.Action == nil {
			return nil, fmt.Errorf("scheduler: job %q has no action", name)
		}
		seen[name] = true
		j.Name = name
		s.jobs = append(s.jobs, &job{Job: j, base: j.Period, last: now, next: now.Add(j.Period)})
	}
	return s, nil
}

// NextRun reports when the named job falls due.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	for _, j := range s.jobs {
		if j.Name == name {
			return j.next, true
		}
	}
	return time.Time{}, false
}

// SetPeriod changes a job's period. The next due time is recomputed from
// the job's last run.
func (s *Scheduler) SetPeriod(name string, period time.Duration) bool {
	if period <= 0 {
		return false
	}
	for _, j := range s.jobs {
		if j.Name != name {
			continue
		}
		if j.Period != period {
			s.logf("job %s period %s -> %s", j.Name, j.Period, period)
			j.Period = period
			j.next = j.last.Add(period)
		}
		return true
	}
	return false
}

// RunPending runs every job that is due, earliest due time first. A job's
// next due time is one period after its run finished.
func (s *Scheduler) RunPending(ctx context.Context) error {
	now := s.clock.Now()
	var due []*job
	for _, j := range s.jobs {
		if !j.next.After(now) {
			due = append(due, j)
		}
	}
	sort.SliceStable(due, func(a, b int) bool {
		return due[a].next.Before(due[b].next)
	})
	for _, j := range due {
		if err := ctx.Err(); err != nil {
			return nil
		}
		err := s.invoke(ctx, j.Name, j.Action)
		j.last = s.clock.Now()
		j.next = j.last.Add(j.Period)
		if err != nil {
			return err
		}
	}
	return nil
}

// Run performs warm (when set) immediately, then polls every tick until ctx
// is cancelled or a job fails with an unknown error. The warm run does not
// move any job's due time.
func (s *Scheduler) Run(ctx context.Context, warm Action) error {
	for _, j := range s.jobs {
		s.logf("job %s every %s", j.Name, j.Period)
	}
	if warm != nil {
		s.logf("running initial backup")
		if err := s.invoke(ctx, "initial", warm); err != nil {
			return err
		}
	}
	s.logf("scheduler running, polling every %s", s.tick)

	timer := s.clock.NewTimer(s.tick)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logf("scheduler stopping: %v", ctx.Err())
			return nil
		case flags, ok := <-s.reloads:
			if !ok {
				s.reloads = nil
				continue
			}
			s.applyFlags(flags)
		case <-timer.Chan():
			if err := s.RunPending(ctx); err != nil {
				return err
			}
			timer.Reset(s.tick)
		}
	}
}

func (s *Scheduler) applyFlags(flags modeflags.Flags) {
	for _, j := range s.jobs {
		if j.FlagKey == "" {
			continue
		}
		s.SetPeriod(j.Name, flags.Frequency(j.FlagKey, j.base))
	}
	if s.onReload != nil {
		s.onReload(flags)
	}
}

func (s *Scheduler) invoke(ctx context.Context, name string, action Action) error {
	err := action(ctx)
	if err == nil {
		return nil
	}
	if kind, ok := backup.KindOf(err); ok {
		s.logf("job %s failed (%s): %v", name, kind, err)
		return nil
	}
	s.logf("job %s failed: %v", name, err)
	return fmt.Errorf("job %s: %w", name, err)
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}
