package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://aihangout-ai.rblake2320.workers.dev"

// ErrUnreachable marks a request that never produced an HTTP response.
var ErrUnreachable = errors.New("upstream unreachable")

// Resource names a collection exposed by the worker API.
type Resource string

const (
	ResourceProblems     Resource = "problems"
	ResourceLearningData Resource = "learning-data"
)

type HTTPError struct {
	Resource   Resource
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("fetch %s: http %d: %s", e.Resource, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: http %d", e.Resource, e.StatusCode)
}

type UnreachableError struct {
	Resource Resource
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}

// Record is an upstream record kept verbatim so snapshots carry every field the
// API returned.
type Record = json.RawMessage

type ProblemsResponse struct {
	Problems []Record `json:"problems"`
}

type LearningDataResponse struct {
	LearningData []Record `json:"learningData"`
	Count        int      `json:"count"`
}

// Source fetches collections from the worker API.
type Source interface {
	Problems(ctx context.Context, limit int) ([]Record, error)
	LearningData(ctx context.Context) (LearningDataResponse, error)
	BaseURL() string
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  "hangoutsync",
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) Problems(ctx context.Context, limit int) ([]Record, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/api/problems"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out ProblemsResponse
	if err := c.getJSON(ctx, ResourceProblems, path, &out); err != nil {
		return nil, err
	}
	if out.Problems == nil {
		out.Problems = []Record{}
	}
	return out.Problems, nil
}

func (c *HTTPClient) LearningData(ctx context.Context) (LearningDataResponse, error) {
	var out LearningDataResponse
	if err := c.getJSON(ctx, ResourceLearningData, "/api/ai/learning-data", &out); err != nil {
		return LearningDataResponse{}, err
	}
	if out.LearningData == nil {
		out.LearningData = []Record{}
	}
	return out, nil
}

// getJSON issues a single GET. There is no retry: a failed fetch is reported to
// the caller as-is.
func (c *HTTPClient) getJSON(ctx context.Context, resource Resource, requestPath string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Correlation-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnreachableError{Resource: resource, Err: err}
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return &UnreachableError{Resource: resource, Err: readErr}
	}

	if resp.StatusCode != http.StatusOK {
		var errPayload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(payload, &errPayload)
		message := errPayload.Message
		if message == "" {
			message = errPayload.Error
		}
		return &HTTPError{
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}
