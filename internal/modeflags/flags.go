// Package modeflags reads and writes the KEY=VALUE flags file that switches
// the program into a reduced-cost posture.
//
// Documented keys:
//
//	ENABLE_AI_ANALYSIS  false disables the inference proxy
//	BACKUP_FREQUENCY    full backup period: hourly, daily, weekly or a Go duration
//	SYNC_FREQUENCY      quick sync period, same values
//	MAX_S3_OBJECTS      cap on snapshot objects kept under the namespace, 0 = no cap
//	FREE_TIER_MODE      informational, reported by status
//
// Unknown keys are kept on load and ignored by consumers.
package modeflags

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyEnableAIAnalysis = "ENABLE_AI_ANALYSIS"
	KeyBackupFrequency  = "BACKUP_FREQUENCY"
	KeySyncFrequency    = "SYNC_FREQUENCY"
	KeyMaxS3Objects     = "MAX_S3_OBJECTS"
	KeyFreeTierMode     = "FREE_TIER_MODE"

	DefaultFile    = ".env"
	FreeTierHeader = "AI Hangout Free Tier Configuration"
)

var knownKeys = []string{
	KeyEnableAIAnalysis,
	KeyBackupFrequency,
	KeySyncFrequency,
	KeyMaxS3Objects,
	KeyFreeTierMode,
}

// Flags maps upper-case keys to raw string values.
type Flags map[string]string

// FreeTier is the posture written by the free-tier toggle.
func FreeTier() Flags {
	return Flags{
		KeyEnableAIAnalysis: "false",
		KeyBackupFrequency:  "daily",
		KeySyncFrequency:    "hourly",
		KeyMaxS3Objects:     "100",
		KeyFreeTierMode:     "true",
	}
}

// Load reads a flags file. A missing file yields empty flags.
func Load(path string) (Flags, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Flags{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Flags{}, nil
		}
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read flags file %s: %w", path, err)
	}
	flags := Flags{}
	for key, value := range v.AllSettings() {
		flags[strings.ToUpper(key)] = strings.TrimSpace(fmt.Sprint(value))
	}
	return flags, nil
}

// Write replaces the file at path with flags, known keys first in their
// documented order. The write is idempotent.
func Write(path, header string, flags Flags) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultFile
	}
	var buf bytes.Buffer
	if header = strings.TrimSpace(header); header != "" {
		fmt.Fprintf(&buf, "# %s\n", header)
	}
	for _, key := range orderedKeys(flags) {
		fmt.Fprintf(&buf, "%s=%s\n", key, flags[key])
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func orderedKeys(flags Flags) []string {
	keys := make([]string, 0, len(flags))
	seen := map[string]bool{}
	for _, key := range knownKeys {
		if _, ok := flags[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	extra := []string{}
	for key := range flags {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func (f Flags) Bool(key string, fallback bool) bool {
	raw, ok := f[key]
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (f Flags) Int(key string, fallback int) int {
	raw, ok := f[key]
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// Frequency parses a period key. Named periods and Go durations are
// accepted; anything else, including non-positive durations, yields fallback.
func (f Flags) Frequency(key string, fallback time.Duration) time.Duration {
	period, err := ParseFrequency(f[key])
	if err != nil || period <= 0 {
		return fallback
	}
	return period
}

func ParseFrequency(raw string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return 0, nil
	case "hourly":
		return time.Hour, nil
	case "daily":
		return 24 * time.Hour, nil
	case "weekly":
		return 7 * 24 * time.Hour, nil
	}
	return time.ParseDuration(strings.TrimSpace(raw))
}

func (f Flags) AIAnalysisEnabled() bool {
	return f.Bool(KeyEnableAIAnalysis, true)
}

func (f Flags) MaxObjects() int {
	n := f.Int(KeyMaxS3Objects, 0)
	if n < 0 {
		return 0
	}
	return n
}

func (f Flags) FreeTierMode() bool {
	return f.Bool(KeyFreeTierMode, false)
}
