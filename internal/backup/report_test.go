package backup

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestReportSuccessMergesResultFields(t *testing.T) {
	raw, err := json.Marshal(NewReport(SyncResult{TableName: "t", SyncedProblems: 2, Timestamp: "ts"}, nil))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out["success"] != true || out["table_name"] != "t" || out["synced_problems"] != float64(2) {
		t.Fatalf("unexpected report: %s", raw)
	}
	if _, ok := out["error"]; ok {
		t.Fatalf("success report must not carry error: %s", raw)
	}
}

func TestReportFailureCarriesKind(t *testing.T) {
	raw, err := json.Marshal(NewReport(nil, unavailable("backup", "object store")))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"error":"object store not available","kind":"unavailable","operation":"backup"}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}

	raw, err = json.Marshal(NewReport(nil, errors.New("plain")))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"error":"plain"}` {
		t.Fatalf("unexpected plain error report: %s", raw)
	}
}
