package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqlOperationTimeout = 30 * time.Second

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

type sqlDialect struct {
	kind       string
	driverName string
}

var (
	postgresDialect = sqlDialect{kind: "postgres", driverName: "postgres"}
	sqliteDialect   = sqlDialect{kind: "sqlite", driverName: "sqlite3"}
)

func (d sqlDialect) placeholder(n int) string {
	if d.kind == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SQLTable keeps rows in a relational table with problem_id as primary key.
// The whole batch runs in one transaction.
type SQLTable struct {
	dsn       string
	tableName string
	dialect   sqlDialect
	openDB    sqlOpenFunc

	mu sync.Mutex
	db *sql.DB
}

func NewPostgresTable(dsn, tableName string) (*SQLTable, error) {
	return newSQLTable(postgresDialect, dsn, tableName)
}

// NewSQLiteTable opens an embedded SQLite database file at path.
func NewSQLiteTable(path, tableName string) (*SQLTable, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrInvalidInput
	}
	return newSQLTable(sqliteDialect, "file:"+path, tableName)
}

func newSQLTable(dialect sqlDialect, dsn, tableName string) (*SQLTable, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		tableName = DefaultName
	}
	return &SQLTable{
		dsn:       dsn,
		tableName: tableName,
		dialect:   dialect,
		openDB:    sql.Open,
	}, nil
}

func (t *SQLTable) Upsert(ctx context.Context, rows []Row) error {
	if err := t.ensureReady(); err != nil {
		return err
	}
	for _, row := range rows {
		if strings.TrimSpace(row.ProblemID) == "" {
			return ErrInvalidInput
		}
	}
	ctx, cancel := context.WithTimeout(ctx, sqlOperationTimeout)
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, t.upsertQuery())
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.ProblemID, row.Title, row.Description, row.Category, row.Upvotes,
			row.Username, row.AIAgentType, row.CreatedAt, row.LastSync,
		); err != nil {
			return fmt.Errorf("upsert row %s: %w", row.ProblemID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Get reads one row back. The sync path never reads; this serves status
// tooling and tests.
func (t *SQLTable) Get(ctx context.Context, problemID string) (Row, bool, error) {
	if err := t.ensureReady(); err != nil {
		return Row{}, false, err
	}
	query := fmt.Sprintf(`SELECT problem_id, title, description, category, upvotes, username, ai_agent_type, created_at, last_sync
		FROM %s WHERE problem_id = %s`, quoteIdentifier(t.tableName), t.dialect.placeholder(1))
	var row Row
	err := t.db.QueryRowContext(ctx, query, problemID).Scan(
		&row.ProblemID, &row.Title, &row.Description, &row.Category, &row.Upvotes,
		&row.Username, &row.AIAgentType, &row.CreatedAt, &row.LastSync,
	)
	if err == sql.ErrNoRows {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, err
	}
	return row, true, nil
}

func (t *SQLTable) Count(ctx context.Context) (int, error) {
	if err := t.ensureReady(); err != nil {
		return 0, err
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(t.tableName))
	if err := t.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (t *SQLTable) Kind() string {
	return t.dialect.kind
}

func (t *SQLTable) Name() string {
	return t.tableName
}

func (t *SQLTable) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.db == nil {
		return nil
	}
	err := t.db.Close()
	t.db = nil
	return err
}

func (t *SQLTable) upsertQuery() string {
	placeholders := make([]string, 9)
	for i := range placeholders {
		placeholders[i] = t.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf(`
		INSERT INTO %s (problem_id, title, description, category, upvotes, username, ai_agent_type, created_at, last_sync)
		VALUES (%s)
		ON CONFLICT (problem_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			upvotes = EXCLUDED.upvotes,
			username = EXCLUDED.username,
			ai_agent_type = EXCLUDED.ai_agent_type,
			created_at = EXCLUDED.created_at,
			last_sync = EXCLUDED.last_sync`,
		quoteIdentifier(t.tableName), strings.Join(placeholders, ", "))
}

// ensureReady opens the database and creates the table on first use. A
// failed attempt leaves the table uninitialized so the next call retries.
func (t *SQLTable) ensureReady() error {
	if t == nil {
		return ErrInvalidInput
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.db != nil {
		return nil
	}
	db, err := t.openDB(t.dialect.driverName, t.dsn)
	if err != nil {
		return err
	}
	initCtx, cancel := context.WithTimeout(context.Background(), sqlOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			problem_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			upvotes BIGINT NOT NULL DEFAULT 0,
			username TEXT NOT NULL,
			ai_agent_type TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_sync TEXT NOT NULL
		)`, quoteIdentifier(t.tableName))
	if _, err := db.ExecContext(initCtx, query); err != nil {
		_ = db.Close()
		return fmt.Errorf("create table %s: %w", t.tableName, err)
	}
	t.db = db
	return nil
}

func quoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "\"\""
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
