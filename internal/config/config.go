// Package config resolves process settings. Defaults are overridden by the
// flags file, which is overridden by the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aihangout/hangoutsync/internal/cloud"
	"github.com/aihangout/hangoutsync/internal/inference"
	"github.com/aihangout/hangoutsync/internal/modeflags"
	"github.com/aihangout/hangoutsync/internal/table"
	"github.com/aihangout/hangoutsync/internal/upstream"
)

const (
	DefaultBucket      = "ai-army-data"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultLogFile     = "backup_scheduler.log"
)

// setting binds a config key to its environment variable.
type setting struct {
	key      string
	env      string
	fallback any
}

var settings = []setting{
	{"region", "AWS_REGION", cloud.DefaultRegion},
	{"bucket", "AIHANGOUT_S3_BUCKET", DefaultBucket},
	{"worker_url", "AIHANGOUT_WORKER_URL", upstream.DefaultBaseURL},
	{"table_name", "AIHANGOUT_TABLE", table.DefaultName},
	{"object_store_dsn", "AIHANGOUT_OBJECT_STORE_DSN", ""},
	{"table_dsn", "AIHANGOUT_TABLE_DSN", ""},
	{"model_id", "AIHANGOUT_MODEL_ID", inference.DefaultModel},
	{"http_timeout", "AIHANGOUT_HTTP_TIMEOUT", DefaultHTTPTimeout},
	{"summary_dir", "AIHANGOUT_SUMMARY_DIR", "."},
	{"log_file", "AIHANGOUT_LOG_FILE", DefaultLogFile},
}

type Config struct {
	Region         string
	Bucket         string
	WorkerURL      string
	TableName      string
	ObjectStoreDSN string
	TableDSN       string
	ModelID        string
	HTTPTimeout    time.Duration
	SummaryDir     string
	LogFile        string

	FlagsFile string
	Flags     modeflags.Flags
}

// Load reads the flags file named by AIHANGOUT_FLAGS_FILE (default .env)
// and resolves every setting. Flags-file entries use the environment
// variable names, e.g. AIHANGOUT_S3_BUCKET=my-bucket.
func Load() (Config, error) {
	v := viper.New()
	if err := v.BindEnv("flags_file", "AIHANGOUT_FLAGS_FILE"); err != nil {
		return Config{}, err
	}
	v.SetDefault("flags_file", modeflags.DefaultFile)
	flagsFile := strings.TrimSpace(v.GetString("flags_file"))

	flags, err := modeflags.Load(flagsFile)
	if err != nil {
		return Config{}, err
	}

	fromFile := map[string]any{}
	for _, s := range settings {
		v.SetDefault(s.key, s.fallback)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return Config{}, err
		}
		if value, ok := flags[s.env]; ok && value != "" {
			fromFile[s.key] = value
		}
	}
	if err := v.MergeConfigMap(fromFile); err != nil {
		return Config{}, fmt.Errorf("merge flags file settings: %w", err)
	}

	cfg := Config{
		Region:         strings.TrimSpace(v.GetString("region")),
		Bucket:         strings.TrimSpace(v.GetString("bucket")),
		WorkerURL:      strings.TrimSpace(v.GetString("worker_url")),
		TableName:      strings.TrimSpace(v.GetString("table_name")),
		ObjectStoreDSN: strings.TrimSpace(v.GetString("object_store_dsn")),
		TableDSN:       strings.TrimSpace(v.GetString("table_dsn")),
		ModelID:        strings.TrimSpace(v.GetString("model_id")),
		HTTPTimeout:    v.GetDuration("http_timeout"),
		SummaryDir:     strings.TrimSpace(v.GetString("summary_dir")),
		LogFile:        strings.TrimSpace(v.GetString("log_file")),
		FlagsFile:      flagsFile,
		Flags:          flags,
	}
	if cfg.Region == "" {
		cfg.Region = cloud.DefaultRegion
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.TableName == "" {
		cfg.TableName = table.DefaultName
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.SummaryDir == "" {
		cfg.SummaryDir = "."
	}
	if cfg.ObjectStoreDSN == "" {
		cfg.ObjectStoreDSN = "s3://" + cfg.Bucket
	}
	if cfg.TableDSN == "" {
		cfg.TableDSN = "dynamodb://" + cfg.TableName
	}
	return cfg, nil
}
