package objectstore

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/aihangout/hangoutsync/internal/cloud"
)

// Factory builds a store for a DSN. awsCfg is nil when AWS is not configured.
type Factory func(dsn string, awsCfg *aws.Config) (Store, error)

var factoryRegistry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{
	factories: map[string]Factory{},
}

func RegisterFactory(scheme string, factory Factory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	factoryRegistry.mu.Lock()
	defer factoryRegistry.mu.Unlock()
	factoryRegistry.factories[scheme] = factory
}

func lookupFactory(scheme string) (Factory, bool) {
	scheme = normalizeScheme(scheme)
	factoryRegistry.mu.RLock()
	defer factoryRegistry.mu.RUnlock()
	factory, ok := factoryRegistry.factories[scheme]
	return factory, ok
}

// BuildFromDSN selects a backend by scheme: s3://bucket, file:///dir or
// memory://name. An empty DSN yields a nil store.
func BuildFromDSN(dsn string, awsCfg *aws.Config) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookupFactory(scheme); ok {
		return factory(dsn, awsCfg)
	}
	switch scheme {
	case "s3":
		bucket := strings.TrimSpace(parsed.Host)
		if bucket == "" {
			return nil, fmt.Errorf("%w: s3 dsn needs a bucket: %s", ErrInvalidInput, dsn)
		}
		if awsCfg == nil {
			return nil, cloud.ErrNoCredentials
		}
		return NewS3StoreFromConfig(*awsCfg, bucket)
	case "", "file":
		path, pathErr := dsnPath(parsed, dsn)
		if pathErr != nil {
			return nil, pathErr
		}
		return NewFileStore(path)
	case "memory", "mem", "inmem":
		return NewMemoryStore(parsed.Host), nil
	case "gs", "azblob":
		return nil, fmt.Errorf("%w: object store %s", ErrNotImplemented, scheme)
	default:
		return nil, fmt.Errorf("unsupported object store scheme: %s", scheme)
	}
}

func dsnPath(parsed *url.URL, raw string) (string, error) {
	if strings.TrimSpace(parsed.Scheme) == "" {
		if strings.TrimSpace(raw) == "" {
			return "", ErrInvalidInput
		}
		return strings.TrimSpace(raw), nil
	}
	// file://data/snapshots is relative: the first segment parses as the host.
	path := strings.TrimSpace(parsed.Host + parsed.Path)
	if path == "" {
		path = strings.TrimSpace(parsed.Opaque)
	}
	if path == "" {
		return "", ErrInvalidInput
	}
	return path, nil
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}
