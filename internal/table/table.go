// Package table mirrors recent problems into a key-value table keyed by
// problem id.
package table

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)

const DefaultName = "ai-hangout-problems"

// Row is the fixed projection of an upstream problem. ProblemID is the
// identity key; writing a row with an existing id replaces it entirely.
type Row struct {
	ProblemID   string `json:"problem_id" dynamodbav:"problem_id"`
	Title       string `json:"title" dynamodbav:"title"`
	Description string `json:"description" dynamodbav:"description"`
	Category    string `json:"category" dynamodbav:"category"`
	Upvotes     int64  `json:"upvotes" dynamodbav:"upvotes"`
	Username    string `json:"username" dynamodbav:"username"`
	AIAgentType string `json:"ai_agent_type" dynamodbav:"ai_agent_type"`
	CreatedAt   string `json:"created_at" dynamodbav:"created_at"`
	LastSync    string `json:"last_sync" dynamodbav:"last_sync"`
}

type Table interface {
	// Upsert writes rows as one batch. Backends without transactions may
	// leave part of a failed batch applied.
	Upsert(ctx context.Context, rows []Row) error
	Kind() string
	Name() string
}

type MemoryTable struct {
	mu   sync.Mutex
	name string
	rows map[string]Row
}

func NewMemoryTable(name string) *MemoryTable {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return &MemoryTable{name: name, rows: map[string]Row{}}
}

func (t *MemoryTable) Upsert(ctx context.Context, rows []Row) error {
	for _, row := range rows {
		if strings.TrimSpace(row.ProblemID) == "" {
			return ErrInvalidInput
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range rows {
		t.rows[row.ProblemID] = row
	}
	return nil
}

func (t *MemoryTable) Kind() string {
	return "memory"
}

func (t *MemoryTable) Name() string {
	return t.name
}

func (t *MemoryTable) Get(problemID string) (Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[problemID]
	return row, ok
}

func (t *MemoryTable) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProblemID < rows[j].ProblemID })
	return rows
}
