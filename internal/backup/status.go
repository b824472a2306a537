package backup

import (
	"context"
	"fmt"
	"time"
)

const probeTimeout = 10 * time.Second

type ServiceFlags struct {
	ObjectStore bool `json:"object_store"`
	Table       bool `json:"table"`
	Inference   bool `json:"inference"`
}

// ServiceStatus is a diagnostic snapshot. Bucket is always the configured
// bucket name; Location and BucketAccessible are set only when an object
// store is configured.
type ServiceStatus struct {
	Timestamp        string       `json:"timestamp"`
	AWSConfigured    bool         `json:"aws_configured"`
	Services         ServiceFlags `json:"services"`
	WorkerURL        string       `json:"worker_url"`
	Bucket           string       `json:"bucket"`
	Location         string       `json:"location,omitempty"`
	BucketAccessible *bool        `json:"s3_bucket_accessible,omitempty"`
	FreeTierMode     bool         `json:"free_tier_mode"`
}

// Status reports which capabilities are configured. It never fails: a
// failing or panicking bucket probe is reported as inaccessible.
func (s *Service) Status(ctx context.Context) ServiceStatus {
	status := ServiceStatus{
		Timestamp:     formatTimestamp(s.clock.Now()),
		AWSConfigured: s.cloudConfigured,
		Services: ServiceFlags{
			ObjectStore: s.objects != nil,
			Table:       s.table != nil,
			Inference:   s.analyzer != nil,
		},
		WorkerURL:    s.source.BaseURL(),
		Bucket:       s.bucket,
		FreeTierMode: s.freeTierMode,
	}
	if s.objects != nil {
		status.Location = s.objects.Kind() + ":" + s.objects.Location()
		accessible := s.probeObjects(ctx) == nil
		status.BucketAccessible = &accessible
	}
	return status
}

func (s *Service) probeObjects(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := s.objects.Probe(probeCtx); err != nil {
		s.logf("object store probe failed: %v", err)
		return err
	}
	return nil
}
