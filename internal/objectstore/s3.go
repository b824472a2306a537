package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Store struct {
	client S3API
	bucket string
}

func NewS3Store(client S3API, bucket string) (*S3Store, error) {
	bucket = strings.TrimSpace(bucket)
	if client == nil || bucket == "" {
		return nil, ErrInvalidInput
	}
	return &S3Store{client: client, bucket: bucket}, nil
}

// NewS3StoreFromConfig builds a store on a real S3 client.
func NewS3StoreFromConfig(cfg aws.Config, bucket string) (*S3Store, error) {
	return NewS3Store(s3.NewFromConfig(cfg), bucket)
}

func (s *S3Store) Put(ctx context.Context, obj Object) error {
	if strings.TrimSpace(obj.Key) == "" {
		return ErrInvalidInput
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
		Body:   bytes.NewReader(obj.Body),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Encryption != "" {
		input.ServerSideEncryption = types.ServerSideEncryption(obj.Encryption)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return describeAPIError("put object "+obj.Key, err)
	}
	return nil
}

func (s *S3Store) Count(ctx context.Context, prefix string) (int, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, describeAPIError("list objects", err)
		}
		count += len(page.Contents)
	}
	return count, nil
}

func (s *S3Store) Probe(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return describeAPIError("head bucket "+s.bucket, err)
	}
	return nil
}

func (s *S3Store) Kind() string {
	return "s3"
}

func (s *S3Store) Location() string {
	return s.bucket
}

// describeAPIError keeps the service error code in the message, since that is
// what an operator needs to tell AccessDenied from NoSuchBucket.
func describeAPIError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %w", op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
