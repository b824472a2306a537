package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/aihangout/hangoutsync/internal/cloud"
)

// fakeS3 implements the S3API method set over an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]*s3.PutObjectInput
	bodies  map[string][]byte
	headErr error
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]*s3.PutObjectInput{}, bodies: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = params
	f.bodies[*params.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := []string{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func TestS3StorePutRequestsEncryption(t *testing.T) {
	client := newFakeS3()
	store, err := NewS3Store(client, "ai-army-data")
	if err != nil {
		t.Fatalf("new s3 store failed: %v", err)
	}
	err = store.Put(context.Background(), Object{
		Key:         "ai-hangout/backups/problems/2024/01/02/problems-1.json",
		ContentType: "application/json",
		Body:        []byte(`{}`),
		Encryption:  EncryptionAES256,
	})
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	input := client.objects["ai-hangout/backups/problems/2024/01/02/problems-1.json"]
	if input == nil {
		t.Fatalf("expected object to be written")
	}
	if aws.ToString(input.Bucket) != "ai-army-data" {
		t.Fatalf("expected bucket ai-army-data, got %s", aws.ToString(input.Bucket))
	}
	if input.ServerSideEncryption != types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 encryption, got %q", input.ServerSideEncryption)
	}
	if aws.ToString(input.ContentType) != "application/json" {
		t.Fatalf("expected json content type, got %s", aws.ToString(input.ContentType))
	}
}

func TestS3StoreCountAndProbe(t *testing.T) {
	client := newFakeS3()
	store, _ := NewS3Store(client, "bucket")
	for i := 0; i < 3; i++ {
		_ = store.Put(context.Background(), Object{Key: fmt.Sprintf("ai-hangout/x-%d.json", i)})
	}
	_ = store.Put(context.Background(), Object{Key: "other/y.json"})

	count, err := store.Count(context.Background(), "ai-hangout/")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 objects under prefix, got %d", count)
	}
	if err := store.Probe(context.Background()); err != nil {
		t.Fatalf("probe failed: %v", err)
	}

	client.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	err = store.Probe(context.Background())
	if err == nil || !strings.Contains(err.Error(), "AccessDenied") {
		t.Fatalf("expected AccessDenied in probe error, got %v", err)
	}
}

func TestFileStorePutAndCount(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("new file store failed: %v", err)
	}
	if err := store.Put(context.Background(), Object{Key: "ai-hangout/a/b.json", Body: []byte("x")}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "ai-hangout", "a", "b.json"))
	if err != nil {
		t.Fatalf("read written object failed: %v", err)
	}
	if string(data) != "x" {
		t.Fatalf("expected body x, got %q", string(data))
	}
	count, err := store.Count(context.Background(), "ai-hangout/")
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (%v)", count, err)
	}
	if err := store.Put(context.Background(), Object{Key: "../escape.json"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for escaping key, got %v", err)
	}
}

func TestFileStoreCountMissingRoot(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "missing"))
	count, err := store.Count(context.Background(), "")
	if err != nil || count != 0 {
		t.Fatalf("expected zero count for missing root, got %d (%v)", count, err)
	}
	if err := store.Probe(context.Background()); err == nil {
		t.Fatalf("expected probe of missing root to fail")
	}
}

func TestBuildFromDSN(t *testing.T) {
	store, err := BuildFromDSN("memory://snapshots", nil)
	if err != nil {
		t.Fatalf("build memory store failed: %v", err)
	}
	if store.Kind() != "memory" || store.Location() != "snapshots" {
		t.Fatalf("unexpected memory store %s/%s", store.Kind(), store.Location())
	}

	dir := t.TempDir()
	store, err = BuildFromDSN("file://"+dir, nil)
	if err != nil {
		t.Fatalf("build file store failed: %v", err)
	}
	if store.Location() != filepath.Clean(dir) {
		t.Fatalf("expected file store at %s, got %s", dir, store.Location())
	}

	if _, err := BuildFromDSN("s3://ai-army-data", nil); !errors.Is(err, cloud.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials without aws config, got %v", err)
	}
	store, err = BuildFromDSN("s3://ai-army-data", &aws.Config{Region: "us-east-1"})
	if err != nil {
		t.Fatalf("build s3 store failed: %v", err)
	}
	if store.Kind() != "s3" || store.Location() != "ai-army-data" {
		t.Fatalf("unexpected s3 store %s/%s", store.Kind(), store.Location())
	}

	if _, err := BuildFromDSN("gs://bucket", nil); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected not implemented for gs, got %v", err)
	}
	if _, err := BuildFromDSN("ftp://host", nil); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	if store, err := BuildFromDSN("", nil); err != nil || store != nil {
		t.Fatalf("expected nil store for empty dsn, got %v (%v)", store, err)
	}
}

func TestRegisterFactory(t *testing.T) {
	RegisterFactory("objtestcustom", func(dsn string, awsCfg *aws.Config) (Store, error) {
		return NewMemoryStore("custom"), nil
	})
	store, err := BuildFromDSN("objtestcustom://anything", nil)
	if err != nil {
		t.Fatalf("build via registered factory failed: %v", err)
	}
	if store.Location() != "custom" {
		t.Fatalf("expected custom store, got %s", store.Location())
	}
}
