// Package objectstore writes snapshot objects to S3 or a local stand-in.
package objectstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)

const EncryptionAES256 = "AES256"

// Object is a single write. Objects are never read back by this program.
type Object struct {
	Key         string
	ContentType string
	Body        []byte
	// Encryption is the server-side encryption to request, if the backend
	// supports it.
	Encryption string
}

type Store interface {
	Put(ctx context.Context, obj Object) error
	// Count returns how many objects live under prefix.
	Count(ctx context.Context, prefix string) (int, error)
	// Probe is a capability probe: it checks the location is reachable
	// without reading any data.
	Probe(ctx context.Context) error
	// Kind names the backend ("s3", "file", "memory").
	Kind() string
	// Location is the bucket name or directory objects land in.
	Location() string
}

type MemoryStore struct {
	mu      sync.Mutex
	name    string
	objects map[string]Object
}

func NewMemoryStore(name string) *MemoryStore {
	if strings.TrimSpace(name) == "" {
		name = "memory"
	}
	return &MemoryStore{name: name, objects: map[string]Object{}}
}

func (s *MemoryStore) Put(ctx context.Context, obj Object) error {
	if strings.TrimSpace(obj.Key) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	body := make([]byte, len(obj.Body))
	copy(body, obj.Body)
	obj.Body = body
	s.objects[obj.Key] = obj
	return nil
}

func (s *MemoryStore) Count(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Probe(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Kind() string {
	return "memory"
}

func (s *MemoryStore) Location() string {
	return s.name
}

// Get returns a stored object. It exists for callers that inspect what was
// written, such as tests.
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
