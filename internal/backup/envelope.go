package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aihangout/hangoutsync/internal/upstream"
)

// BackupType tags what an envelope holds.
type BackupType string

const (
	TypeProblems     BackupType = "full_problems_backup"
	TypeLearningData BackupType = "ai_learning_data"
)

// Namespace prefixes every object this program writes.
const Namespace = "ai-hangout"

const timestampLayout = "2006-01-02T15:04:05.000000Z"

type snapshotTarget struct {
	kind   BackupType
	prefix string
	stem   string
}

var (
	problemsTarget = snapshotTarget{
		kind:   TypeProblems,
		prefix: Namespace + "/backups/problems",
		stem:   "problems",
	}
	learningTarget = snapshotTarget{
		kind:   TypeLearningData,
		prefix: Namespace + "/ai-learning",
		stem:   "learning",
	}
)

// ObjectKey partitions by UTC day and disambiguates by epoch second. Two
// calls within the same second produce the same key and the later write wins.
func (t snapshotTarget) ObjectKey(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("%s/%s/%s-%d.json", t.prefix, now.Format("2006/01/02"), t.stem, now.Unix())
}

// Envelope is one snapshot object: the fetched records plus when and what
// was backed up. It is written once and never read back.
type Envelope struct {
	Timestamp string
	Type      BackupType
	Records   []upstream.Record
	// Count is the upstream's own record count, carried for learning data.
	Count int
}

func newEnvelope(kind BackupType, now time.Time, records []upstream.Record) Envelope {
	if records == nil {
		records = []upstream.Record{}
	}
	return Envelope{
		Timestamp: formatTimestamp(now),
		Type:      kind,
		Records:   records,
	}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Type == TypeLearningData {
		return json.Marshal(struct {
			Timestamp    string            `json:"timestamp"`
			LearningData []upstream.Record `json:"learning_data"`
			Count        int               `json:"count"`
			BackupType   BackupType        `json:"backup_type"`
		}{e.Timestamp, e.Records, e.Count, e.Type})
	}
	return json.Marshal(struct {
		Timestamp  string            `json:"timestamp"`
		Problems   []upstream.Record `json:"problems"`
		BackupType BackupType        `json:"backup_type"`
	}{e.Timestamp, e.Records, e.Type})
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
