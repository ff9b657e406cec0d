package talknote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/samvad-hq/talknote-relay/internal/logger"
	"github.com/samvad-hq/talknote-relay/pkg/httpclient"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// capturedRequest is what the stub server saw.
type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

// stubServer answers every request with body and records what it received.
type stubServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

func newStubServer(t *testing.T, status int, body string) *stubServer {
	t.Helper()
	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(raw),
			Header: r.Header.Clone(),
		})
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) last(t *testing.T) capturedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatalf("server received no requests")
	}
	return s.requests[len(s.requests)-1]
}

func observedLogger() (*logger.ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func newTestClient(t *testing.T, baseURL string) (*Client, *observer.ObservedLogs) {
	t.Helper()
	log, logs := observedLogger()
	return New("tok", Options{BaseURL: baseURL, Logger: log}), logs
}

// countingTransport records calls without touching the network.
type countingTransport struct {
	mu    sync.Mutex
	calls int
	resp  httpclient.Response
	err   error
}

func (c *countingTransport) Do(context.Context, httpclient.Request) (httpclient.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.resp, c.err
}

func (c *countingTransport) Get(ctx context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	return c.Do(ctx, httpclient.Request{Method: http.MethodGet, URL: url, Headers: headers})
}

type stubResponse struct {
	status int
	body   []byte
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.status }
