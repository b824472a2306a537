package main

import (
	"os"
	"testing"
	"time"
)

func TestDurationEnvParsesValue(t *testing.T) {
	t.Setenv("AIHANGOUT_TEST_DURATION", "90s")
	if got := durationEnv("AIHANGOUT_TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}

func TestDurationEnvFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("AIHANGOUT_TEST_DURATION_BAD", "often")
	if got := durationEnv("AIHANGOUT_TEST_DURATION_BAD", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback 1m, got %s", got)
	}
}

func TestBoolEnvParsesValue(t *testing.T) {
	t.Setenv("AIHANGOUT_TEST_BOOL", "false")
	if boolEnv("AIHANGOUT_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
}

func TestBoolEnvFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("AIHANGOUT_TEST_BOOL_BAD", "maybe")
	if !boolEnv("AIHANGOUT_TEST_BOOL_BAD", true) {
		t.Fatalf("expected fallback true")
	}
}

func TestEnvHelpersUseFallbackWhenUnset(t *testing.T) {
	_ = os.Unsetenv("AIHANGOUT_TEST_DURATION_UNSET")
	_ = os.Unsetenv("AIHANGOUT_TEST_BOOL_UNSET")
	if got := durationEnv("AIHANGOUT_TEST_DURATION_UNSET", 3*time.Second); got != 3*time.Second {
		t.Fatalf("expected fallback 3s, got %s", got)
	}
	if boolEnv("AIHANGOUT_TEST_BOOL_UNSET", false) {
		t.Fatalf("expected fallback false")
	}
}
