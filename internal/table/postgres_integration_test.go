package table

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestPostgresIntegrationUpsertIsIdempotent(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("HANGOUTSYNC_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set HANGOUTSYNC_TEST_POSTGRES_DSN to run Postgres integration tests")
	}
	tableName := fmt.Sprintf("hangoutsync_rows_it_%d", time.Now().UnixNano())
	tbl, err := NewPostgresTable(dsn, tableName)
	if err != nil {
		t.Fatalf("new postgres table: %v", err)
	}
	t.Cleanup(func() {
		_ = tbl.Close()
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			t.Fatalf("open postgres for cleanup failed: %v", err)
		}
		defer db.Close()
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))); err != nil {
			t.Fatalf("drop cleanup table %q failed: %v", tableName, err)
		}
	})

	rows := sampleRows(2)
	if err := tbl.Upsert(context.Background(), rows); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	rows[0].LastSync = "2024-05-05T00:00:00Z"
	if err := tbl.Upsert(context.Background(), rows); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	count, err := tbl.Count(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
	row, ok, err := tbl.Get(context.Background(), "1")
	if err != nil || !ok {
		t.Fatalf("expected row 1, ok=%v err=%v", ok, err)
	}
	if row.LastSync != "2024-05-05T00:00:00Z" {
		t.Fatalf("expected updated last_sync, got %s", row.LastSync)
	}
}
