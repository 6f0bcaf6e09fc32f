package tern

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestHTTPTransport_PostsPayload(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotHeader http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, map[string]string{"X-Custom": "yes"}, zap.NewNop())
	if err := transport.Write(context.Background(), []byte(`{"event_id":"abc"}`)); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if string(gotBody) != `{"event_id":"abc"}` {
		t.Errorf("body = %q", gotBody)
	}
	if gotHeader.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeader.Get("Content-Type"))
	}
	if gotHeader.Get("User-Agent") != "tern/"+sdkVersion {
		t.Errorf("User-Agent = %q", gotHeader.Get("User-Agent"))
	}
	if gotHeader.Get("X-Custom") != "yes" {
		t.Errorf("X-Custom = %q", gotHeader.Get("X-Custom"))
	}
}

func TestHTTPTransport_CustomHeadersOverrideDefaults(t *testing.T) {
	var mu sync.Mutex
	var gotUA string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotUA = r.Header.Get("User-Agent")
		mu.Unlock()
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, map[string]string{"User-Agent": "custom/9"}, nil)
	if err := transport.Write(context.Background(), []byte("{}")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotUA != "custom/9" {
		t.Errorf("User-Agent = %q, want the override", gotUA)
	}
}

func TestHTTPTransport_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, nil, zap.NewNop())
	if err := transport.Write(context.Background(), []byte("{}")); err == nil {
		t.Fatal("Write succeeded on a 429, want error")
	}
}

func TestHTTPTransport_UnreachableEndpoint(t *testing.T) {
	transport := NewHTTPTransport("http://127.0.0.1:1/store", nil, zap.NewNop())
	if err := transport.Write(context.Background(), []byte("{}")); err == nil {
		t.Fatal("Write succeeded against an unreachable endpoint")
	}
}

func TestHTTPTransport_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := NewHTTPTransport(server.URL, nil, zap.NewNop())
	if err := transport.Write(ctx, []byte("{}")); err == nil {
		t.Fatal("Write succeeded with a canceled context")
	}
}

func TestNoopTransport(t *testing.T) {
	var transport Transport = noopTransport{}
	if err := transport.Write(context.Background(), []byte("{}")); err != nil {
		t.Errorf("Write returned %v", err)
	}
	if err := transport.Flush(context.Background()); err != nil {
		t.Errorf("Flush returned %v", err)
	}
	if err := transport.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
}
