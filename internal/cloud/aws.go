// Package cloud loads the AWS configuration shared by the S3, DynamoDB and
// Bedrock capabilities.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	DefaultRegion = "us-east-1"
	probeTimeout  = 10 * time.Second
)

// ErrNoCredentials is returned by AWS-backed factories when no verified
// configuration is available.
var ErrNoCredentials = errors.New("aws credentials not configured")

type callerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Session is a verified AWS configuration.
type Session struct {
	Config  aws.Config
	Account string
}

// Load resolves the default credential chain for region and verifies it with
// an STS GetCallerIdentity call. Any failure means AWS is not configured.
func Load(ctx context.Context, region string) (*Session, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = DefaultRegion
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return verify(ctx, cfg, sts.NewFromConfig(cfg))
}

func verify(ctx context.Context, cfg aws.Config, client callerIdentityAPI) (*Session, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := client.GetCallerIdentity(probeCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return &Session{Config: cfg, Account: aws.ToString(out.Account)}, nil
}

// AWSConfig returns the configuration of s, or nil when s is nil.
func (s *Session) AWSConfig() *aws.Config {
	if s == nil {
		return nil
	}
	cfg := s.Config
	return &cfg
}
