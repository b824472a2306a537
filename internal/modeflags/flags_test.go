package modeflags

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteFreeTierIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	for i := 0; i < 2; i++ {
		if err := Write(path, FreeTierHeader, FreeTier()); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read flags file failed: %v", err)
	}
	want := "# AI Hangout Free Tier Configuration\n" +
		"ENABLE_AI_ANALYSIS=false\n" +
		"BACKUP_FREQUENCY=daily\n" +
		"SYNC_FREQUENCY=hourly\n" +
		"MAX_S3_OBJECTS=100\n" +
		"FREE_TIER_MODE=true\n"
	if string(data) != want {
		t.Fatalf("unexpected flags file:\n%s", string(data))
	}
}

func TestLoadRoundTripsWrittenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.env")
	flags := FreeTier()
	flags["CUSTOM_KEY"] = "kept"
	if err := Write(path, "", flags); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.AIAnalysisEnabled() {
		t.Fatalf("expected ai analysis disabled")
	}
	if !loaded.FreeTierMode() {
		t.Fatalf("expected free tier mode")
	}
	if loaded.MaxObjects() != 100 {
		t.Fatalf("expected max objects 100, got %d", loaded.MaxObjects())
	}
	if got := loaded.Frequency(KeyBackupFrequency, time.Minute); got != 24*time.Hour {
		t.Fatalf("expected daily backup frequency, got %s", got)
	}
	if got := loaded.Frequency(KeySyncFrequency, time.Minute); got != time.Hour {
		t.Fatalf("expected hourly sync frequency, got %s", got)
	}
	if loaded["CUSTOM_KEY"] != "kept" {
		t.Fatalf("expected unknown key preserved, got %+v", loaded)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	flags, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("load missing file failed: %v", err)
	}
	if len(flags) != 0 {
		t.Fatalf("expected empty flags, got %+v", flags)
	}
	if !flags.AIAnalysisEnabled() || flags.FreeTierMode() || flags.MaxObjects() != 0 {
		t.Fatalf("expected defaults from empty flags")
	}
}

func TestFrequencyFallbacks(t *testing.T) {
	flags := Flags{
		KeyBackupFrequency: "90m",
		KeySyncFrequency:   "sometimes",
		"NEGATIVE":         "-5m",
	}
	if got := flags.Frequency(KeyBackupFrequency, time.Hour); got != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", got)
	}
	if got := flags.Frequency(KeySyncFrequency, 30*time.Minute); got != 30*time.Minute {
		t.Fatalf("expected fallback for unparsable value, got %s", got)
	}
	if got := flags.Frequency("NEGATIVE", time.Hour); got != time.Hour {
		t.Fatalf("expected fallback for negative value, got %s", got)
	}
	if got := flags.Frequency("MISSING", 6*time.Hour); got != 6*time.Hour {
		t.Fatalf("expected fallback for missing key, got %s", got)
	}
	if got, _ := ParseFrequency("weekly"); got != 7*24*time.Hour {
		t.Fatalf("expected weekly period, got %s", got)
	}
}
