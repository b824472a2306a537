package table

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/aihangout/hangoutsync/internal/cloud"
)

// Factory builds a table for a DSN. name is the configured table name and
// awsCfg is nil when AWS is not configured.
type Factory func(dsn, name string, awsCfg *aws.Config) (Table, error)

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

// BuildFromDSN selects a backend by scheme: dynamodb://[table],
// postgres://..., sqlite://path or memory://. For dynamodb the DSN host
// overrides name.
func BuildFromDSN(dsn, name string, awsCfg *aws.Config) (Table, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookupFactory(scheme); ok {
		return factory(dsn, name, awsCfg)
	}
	switch scheme {
	case "dynamodb", "dynamo":
		if host := strings.TrimSpace(parsed.Host); host != "" {
			name = host
		}
		if awsCfg == nil {
			return nil, cloud.ErrNoCredentials
		}
		return NewDynamoTableFromConfig(*awsCfg, name)
	case "postgres", "postgresql":
		return NewPostgresTable(dsn, name)
	case "sqlite", "sqlite3":
		path := strings.TrimSpace(parsed.Host + parsed.Path)
		if path == "" {
			path = strings.TrimSpace(parsed.Opaque)
		}
		if path == "" {
			return nil, fmt.Errorf("%w: sqlite dsn needs a path: %s", ErrInvalidInput, dsn)
		}
		return NewSQLiteTable(path, name)
	case "memory", "mem", "inmem":
		return NewMemoryTable(name), nil
	case "mysql", "redis":
		return nil, fmt.Errorf("%w: table backend %s", ErrNotImplemented, scheme)
	default:
		return nil, fmt.Errorf("unsupported table scheme: %s", scheme)
	}
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}
