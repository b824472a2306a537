// Package backup pulls problems and learning data from the hangout worker
// and preserves them: timestamped JSON snapshots in an object store, and a
// per-problem mirror in a key-value table. It also proxies one-shot prompts
// to the inference service and reports which capabilities are configured.
//
// Every operation returns its own result or an *Error whose Kind tells the
// caller whether the capability was missing, the upstream failed, or the
// storage or inference call failed.
package backup

import (
	"context"
	"errors"
	"strings"

	"github.com/juju/clock"

	"github.com/aihangout/hangoutsync/internal/inference"
	"github.com/aihangout/hangoutsync/internal/modeflags"
	"github.com/aihangout/hangoutsync/internal/objectstore"
	"github.com/aihangout/hangoutsync/internal/table"
	"github.com/aihangout/hangoutsync/internal/upstream"
)

const (
	// ProblemsSnapshotLimit bounds the records requested for a full backup.
	ProblemsSnapshotLimit = 1000
	// SyncLimit bounds the records requested for a table sync.
	SyncLimit = 50
)

type Logger interface {
	Printf(format string, args ...any)
}

// Analyzer answers a single prompt.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (inference.Analysis, error)
}

// Deps are the capabilities a Service is built from. A nil Objects, Table
// or Analyzer means that capability is unavailable and operations needing
// it fail with KindUnavailable.
type Deps struct {
	Source   upstream.Source
	Objects  objectstore.Store
	Table    table.Table
	Analyzer Analyzer

	Clock  clock.Clock
	Logger Logger

	// Bucket is reported by status when no object store is configured.
	Bucket string
	// CloudConfigured records whether cloud credentials were verified.
	CloudConfigured bool
	// MaxObjects caps the snapshot objects kept under Namespace. Zero means
	// no cap.
	MaxObjects   int
	FreeTierMode bool
}

type Service struct {
	source   upstream.Source
	objects  objectstore.Store
	table    table.Table
	analyzer Analyzer
	clock    clock.Clock
	logger   Logger

	bucket          string
	cloudConfigured bool
	maxObjects      int
	freeTierMode    bool
}

func New(deps Deps) (*Service, error) {
	if deps.Source == nil {
		return nil, errors.New("backup: upstream source is required")
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	maxObjects := deps.MaxObjects
	if maxObjects < 0 {
		maxObjects = 0
	}
	return &Service{
		source:          deps.Source,
		objects:         deps.Objects,
		table:           deps.Table,
		analyzer:        deps.Analyzer,
		clock:           clk,
		logger:          deps.Logger,
		bucket:          strings.TrimSpace(deps.Bucket),
		cloudConfigured: deps.CloudConfigured,
		maxObjects:      maxObjects,
		freeTierMode:    deps.FreeTierMode,
	}, nil
}

// ApplyFlags updates the object cap and free-tier setting from a reloaded
// flags file. Callers must not run it concurrently with an operation.
func (s *Service) ApplyFlags(flags modeflags.Flags) {
	s.maxObjects = flags.MaxObjects()
	s.freeTierMode = flags.FreeTierMode()
}

func (s *Service) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}
