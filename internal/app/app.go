// Package app assembles a backup.Service from resolved configuration. It is
// shared by the command-line tool and the scheduler daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/aihangout/hangoutsync/internal/backup"
	"github.com/aihangout/hangoutsync/internal/cloud"
	"github.com/aihangout/hangoutsync/internal/config"
	"github.com/aihangout/hangoutsync/internal/inference"
	"github.com/aihangout/hangoutsync/internal/objectstore"
	"github.com/aihangout/hangoutsync/internal/table"
	"github.com/aihangout/hangoutsync/internal/upstream"
)

type Logger interface {
	Printf(format string, args ...any)
}

type cloudLoader func(ctx context.Context, region string) (*cloud.Session, error)

var loadCloud cloudLoader = cloud.Load

// NewService builds every configured capability. Missing cloud credentials
// leave the AWS-backed capabilities unset rather than failing; any other
// backend error is returned.
func NewService(ctx context.Context, cfg config.Config, logger Logger) (*backup.Service, error) {
	var awsCfg *aws.Config
	if needsCloud(cfg) {
		session, err := loadCloud(ctx, cfg.Region)
		if err != nil {
			logger.Printf("aws not configured: %v", err)
		} else {
			logger.Printf("aws configured for account %s in %s", session.Account, cfg.Region)
			awsCfg = session.AWSConfig()
		}
	}

	objects, err := objectstore.BuildFromDSN(cfg.ObjectStoreDSN, awsCfg)
	if err != nil {
		if !errors.Is(err, cloud.ErrNoCredentials) {
			return nil, fmt.Errorf("object store: %w", err)
		}
		objects = nil
	}
	tbl, err := table.BuildFromDSN(cfg.TableDSN, cfg.TableName, awsCfg)
	if err != nil {
		if !errors.Is(err, cloud.ErrNoCredentials) {
			return nil, fmt.Errorf("table: %w", err)
		}
		tbl = nil
	}

	var analyzer backup.Analyzer
	switch {
	case !cfg.Flags.AIAnalysisEnabled():
		logger.Printf("ai analysis disabled by flags file")
	case awsCfg != nil:
		analyzer = inference.NewBedrock(*awsCfg, inference.Options{Model: cfg.ModelID})
	}

	deps := backup.Deps{
		Source:          upstream.NewHTTPClient(cfg.WorkerURL, &http.Client{Timeout: cfg.HTTPTimeout}),
		Objects:         objects,
		Table:           tbl,
		Analyzer:        analyzer,
		Logger:          logger,
		Bucket:          cfg.Bucket,
		CloudConfigured: awsCfg != nil,
		MaxObjects:      cfg.Flags.MaxObjects(),
		FreeTierMode:    cfg.Flags.FreeTierMode(),
	}
	return backup.New(deps)
}

// needsCloud reports whether any configured capability is AWS-backed. The
// credential probe is skipped otherwise.
func needsCloud(cfg config.Config) bool {
	if cfg.Flags.AIAnalysisEnabled() {
		return true
	}
	return schemeOf(cfg.ObjectStoreDSN) == "s3" || isDynamo(schemeOf(cfg.TableDSN))
}

func isDynamo(scheme string) bool {
	return scheme == "dynamodb" || scheme == "dynamo"
}

func schemeOf(dsn string) string {
	parsed, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}
