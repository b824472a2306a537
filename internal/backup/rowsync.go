package backup

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/aihangout/hangoutsync/internal/table"
	"github.com/aihangout/hangoutsync/internal/upstream"
)

const defaultCategory = "other"

//go:embed problem.schema.json
var problemSchemaJSON []byte

var (
	problemSchemaOnce sync.Once
	problemSchema     *jsonschema.Schema
	problemSchemaErr  error
)

// SyncResult describes a completed table sync.
type SyncResult struct {
	TableName      string `json:"table_name"`
	SyncedProblems int    `json:"synced_problems"`
	Timestamp      string `json:"timestamp"`
}

type problemRecord struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Upvotes     *json.Number    `json:"upvotes"`
	Username    string          `json:"username"`
	AIAgentType string          `json:"ai_agent_type"`
	CreatedAt   string          `json:"created_at"`
}

// SyncTable fetches up to SyncLimit recent problems and upserts one row per
// problem. Every record is validated and projected before anything is
// written, so a malformed record aborts the sync with no rows applied.
func (s *Service) SyncTable(ctx context.Context) (SyncResult, error) {
	const op = "sync"
	if s.table == nil {
		return SyncResult{}, unavailable(op, "table")
	}
	records, err := s.source.Problems(ctx, SyncLimit)
	if err != nil {
		return SyncResult{}, transportFailure(op, "failed to fetch problems", err)
	}
	now := s.clock.Now()
	lastSync := now.UTC().Format(time.RFC3339)
	rows := make([]table.Row, 0, len(records))
	for i, record := range records {
		row, err := projectRow(record, lastSync)
		if err != nil {
			return SyncResult{}, serviceFailure(op, "table sync failed", fmt.Errorf("record %d: %w", i, err))
		}
		rows = append(rows, row)
	}
	if err := s.table.Upsert(ctx, rows); err != nil {
		return SyncResult{}, serviceFailure(op, "table sync failed", err)
	}
	s.logf("synced %d problems into %s table %s", len(rows), s.table.Kind(), s.table.Name())
	return SyncResult{
		TableName:      s.table.Name(),
		SyncedProblems: len(rows),
		Timestamp:      formatTimestamp(now),
	}, nil
}

func compiledProblemSchema() (*jsonschema.Schema, error) {
	problemSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(problemSchemaJSON))
		if err != nil {
			problemSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("problem.schema.json", doc); err != nil {
			problemSchemaErr = err
			return
		}
		problemSchema, problemSchemaErr = compiler.Compile("problem.schema.json")
	})
	return problemSchema, problemSchemaErr
}

func validateProblem(record upstream.Record) error {
	schema, err := compiledProblemSchema()
	if err != nil {
		return fmt.Errorf("compile problem schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(record))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}

// projectRow maps an upstream problem onto the fixed table row. Category
// defaults to "other" and upvotes to 0 when absent or null.
func projectRow(record upstream.Record, lastSync string) (table.Row, error) {
	if err := validateProblem(record); err != nil {
		return table.Row{}, err
	}
	var p problemRecord
	dec := json.NewDecoder(bytes.NewReader(record))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return table.Row{}, err
	}
	id, err := problemID(p.ID)
	if err != nil {
		return table.Row{}, err
	}
	row := table.Row{
		ProblemID:   id,
		Title:       p.Title,
		Category:    defaultCategory,
		Username:    p.Username,
		AIAgentType: p.AIAgentType,
		CreatedAt:   p.CreatedAt,
		LastSync:    lastSync,
	}
	if p.Description != nil {
		row.Description = *p.Description
	}
	if p.Category != nil {
		row.Category = *p.Category
	}
	if p.Upvotes != nil {
		upvotes, err := p.Upvotes.Int64()
		if err != nil {
			f, ferr := p.Upvotes.Float64()
			if ferr != nil {
				return table.Row{}, fmt.Errorf("upvotes: %w", err)
			}
			upvotes = int64(f)
		}
		row.Upvotes = upvotes
	}
	return row, nil
}

// problemID stringifies a numeric or string id.
func problemID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", fmt.Errorf("missing id")
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("empty id")
		}
		return id, nil
	}
	return string(raw), nil
}
