package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestHTTPClientProblemsForwardsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/problems" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("limit") != "50" {
			t.Errorf("expected limit query 50, got %q", r.URL.Query().Get("limit"))
		}
		if r.Header.Get("X-Correlation-Id") == "" {
			t.Errorf("expected correlation id header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"problems":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	problems, err := client.Problems(context.Background(), 50)
	if err != nil {
		t.Fatalf("fetch problems failed: %v", err)
	}
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %d", len(problems))
	}
}

func TestHTTPClientLearningData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai/learning-data" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"learningData":[{"k":"v"}],"count":7}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	data, err := client.LearningData(context.Background())
	if err != nil {
		t.Fatalf("fetch learning data failed: %v", err)
	}
	if len(data.LearningData) != 1 || data.Count != 7 {
		t.Fatalf("expected one record with count 7, got %+v", data)
	}
}

func TestHTTPClientMissingCollectionIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	problems, err := client.Problems(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch problems failed: %v", err)
	}
	if problems == nil || len(problems) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", problems)
	}
}

func TestHTTPClientDoesNotRetryBadStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	_, err := client.Problems(context.Background(), 1000)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", httpErr.StatusCode)
	}
	if httpErr.Message != "maintenance" {
		t.Fatalf("expected message from body, got %q", httpErr.Message)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", atomic.LoadInt32(&calls))
	}
}

func TestHTTPClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewHTTPClient(baseURL, nil)
	_, err := client.LearningData(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestNewHTTPClientDefaultsBaseURL(t *testing.T) {
	client := NewHTTPClient("  ", nil)
	if client.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", client.BaseURL())
	}
	client = NewHTTPClient("http://example.test/", nil)
	if client.BaseURL() != "http://example.test" {
		t.Fatalf("expected trailing slash trimmed, got %s", client.BaseURL())
	}
}
