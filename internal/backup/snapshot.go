package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/aihangout/hangoutsync/internal/objectstore"
)

// ProblemsBackup describes a written problems snapshot.
type ProblemsBackup struct {
	Key           string `json:"s3_key"`
	ProblemsCount int    `json:"problems_count"`
	Timestamp     string `json:"timestamp"`
}

// AnalyticsBackup describes a written learning-data snapshot.
type AnalyticsBackup struct {
	Key             string `json:"s3_key"`
	LearningRecords int    `json:"learning_records"`
	Timestamp       string `json:"timestamp"`
}

// BackupProblems fetches up to ProblemsSnapshotLimit problems and writes
// them as one encrypted snapshot object. A failed fetch writes nothing.
func (s *Service) BackupProblems(ctx context.Context) (ProblemsBackup, error) {
	const op = "backup"
	if err := s.checkSnapshotCapacity(ctx, op); err != nil {
		return ProblemsBackup{}, err
	}
	records, err := s.source.Problems(ctx, ProblemsSnapshotLimit)
	if err != nil {
		return ProblemsBackup{}, transportFailure(op, "failed to fetch problems", err)
	}
	now := s.clock.Now()
	env := newEnvelope(problemsTarget.kind, now, records)
	key := problemsTarget.ObjectKey(now)
	if err := s.writeSnapshot(ctx, key, env); err != nil {
		return ProblemsBackup{}, serviceFailure(op, "backup failed", err)
	}
	return ProblemsBackup{
		Key:           key,
		ProblemsCount: len(env.Records),
		Timestamp:     env.Timestamp,
	}, nil
}

// BackupAnalytics fetches the learning data and writes it as one encrypted
// snapshot object. The reported record count is the upstream's own count.
func (s *Service) BackupAnalytics(ctx context.Context) (AnalyticsBackup, error) {
	const op = "analytics"
	if err := s.checkSnapshotCapacity(ctx, op); err != nil {
		return AnalyticsBackup{}, err
	}
	data, err := s.source.LearningData(ctx)
	if err != nil {
		return AnalyticsBackup{}, transportFailure(op, "failed to fetch learning data", err)
	}
	now := s.clock.Now()
	env := newEnvelope(learningTarget.kind, now, data.LearningData)
	env.Count = data.Count
	key := learningTarget.ObjectKey(now)
	if err := s.writeSnapshot(ctx, key, env); err != nil {
		return AnalyticsBackup{}, serviceFailure(op, "analytics backup failed", err)
	}
	return AnalyticsBackup{
		Key:             key,
		LearningRecords: data.Count,
		Timestamp:       env.Timestamp,
	}, nil
}

func (s *Service) checkSnapshotCapacity(ctx context.Context, op string) error {
	if s.objects == nil {
		return unavailable(op, "object store")
	}
	if s.maxObjects == 0 {
		return nil
	}
	count, err := s.objects.Count(ctx, Namespace+"/")
	if err != nil {
		return serviceFailure(op, "count snapshot objects", err)
	}
	if count >= s.maxObjects {
		return &Error{
			Kind:    KindUnavailable,
			Op:      op,
			Message: fmt.Sprintf("object cap reached: %d of %d snapshot objects", count, s.maxObjects),
		}
	}
	return nil
}

func (s *Service) writeSnapshot(ctx context.Context, key string, env Envelope) error {
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	if err := s.objects.Put(ctx, objectstore.Object{
		Key:         key,
		ContentType: "application/json",
		Body:        body,
		Encryption:  objectstore.EncryptionAES256,
	}); err != nil {
		return err
	}
	s.logf("wrote %s snapshot %s (%d records, %s) to %s://%s",
		env.Type, key, len(env.Records), humanize.Bytes(uint64(len(body))), s.objects.Kind(), s.objects.Location())
	return nil
}
