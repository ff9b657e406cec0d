package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Request describes a single outgoing call. Body is sent verbatim when non-empty.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations perform exactly one network call per invocation and return
// transport failures unchanged.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
