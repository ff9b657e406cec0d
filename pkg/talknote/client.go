package talknote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/samvad-hq/talknote-relay/pkg/httpclient"
)

const (
	clientName = "go-talknote-client"
	// Version is reported in the User-Agent header.
	Version = "1.2.0"
)

// Client issues Talknote API calls. It holds no per-call state and is safe
// for concurrent use.
type Client struct {
	cfg       Config
	auth      AuthContext
	headers   map[string]string
	transport httpclient.Client
	log       Logger
}

// New builds a client for accessToken. Missing or invalid options fall back
// to defaults; construction never fails.
func New(accessToken string, opts Options) *Client {
	cfg := newConfig(opts)
	auth := AuthContext{AccessToken: accessToken}

	transport := opts.HTTPClient
	if transport == nil {
		transport = httpclient.NewRestyClient(0)
	}

	c := &Client{
		cfg:       cfg,
		auth:      auth,
		headers:   buildHeaders(cfg, auth),
		transport: transport,
		log:       cfg.Logger,
	}

	c.log.InfoObj("talknote client initialized", "client", map[string]any{
		"base_url":  cfg.BaseURL,
		"log_level": string(cfg.LogLevel),
		"version":   Version,
	})
	return c
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.Headers = copyHeaders(c.cfg.Headers)
	return cfg
}

// Headers returns a copy of the header set sent with every request.
func (c *Client) Headers() map[string]string { return copyHeaders(c.headers) }

// DMThreads lists direct-message threads.
func (c *Client) DMThreads(ctx context.Context) Result {
	return c.Call(ctx, OpDMThreads, "", nil)
}

// DMThreadPosts lists the posts of a direct-message thread.
func (c *Client) DMThreadPosts(ctx context.Context, threadID string) Result {
	return c.Call(ctx, OpDMThreadPosts, threadID, nil)
}

// DMUnreadCount returns the unread count of a direct-message thread.
func (c *Client) DMUnreadCount(ctx context.Context, threadID string) Result {
	return c.Call(ctx, OpDMUnreadCount, threadID, nil)
}

// PostDirectMessage posts message to a direct-message thread.
func (c *Client) PostDirectMessage(ctx context.Context, threadID, message string) Result {
	return c.Call(ctx, OpPostDirectMessage, threadID, url.Values{"message": {message}})
}

// GroupThreads lists the groups visible to the token.
func (c *Client) GroupThreads(ctx context.Context) Result {
	return c.Call(ctx, OpGroupThreads, "", nil)
}

// GroupThreadPosts lists the posts of a group.
func (c *Client) GroupThreadPosts(ctx context.Context, groupID string) Result {
	return c.Call(ctx, OpGroupThreadPosts, groupID, nil)
}

// GroupUnreadCount returns the unread count of a group.
func (c *Client) GroupUnreadCount(ctx context.Context, groupID string) Result {
	return c.Call(ctx, OpGroupUnreadCount, groupID, nil)
}

// PostGroupMessage posts message to a group.
func (c *Client) PostGroupMessage(ctx context.Context, groupID, message string) Result {
	return c.Call(ctx, OpPostGroupMessage, groupID, url.Values{"message": {message}})
}

// Call dispatches any operation in the endpoint table.
func (c *Client) Call(ctx context.Context, op Operation, id string, params url.Values) Result {
	req, err := Resolve(op, id, params)
	if err != nil {
		c.log.ErrorObj("request rejected", "request_error", map[string]any{
			"operation": string(op),
			"error":     err.Error(),
		})
		return failure(err)
	}
	return c.dispatch(ctx, req)
}

// Get issues a GET to an arbitrary path with params in the query string.
func (c *Client) Get(ctx context.Context, path string, params url.Values) Result {
	return c.dispatch(ctx, RequestSpec{Method: http.MethodGet, Path: path, Params: params, Placement: PlacementQuery})
}

// Post issues a POST to an arbitrary path with params form-encoded in the body.
func (c *Client) Post(ctx context.Context, path string, params url.Values) Result {
	return c.dispatch(ctx, RequestSpec{Method: http.MethodPost, Path: path, Params: params, Placement: PlacementBody})
}

func (c *Client) dispatch(ctx context.Context, req RequestSpec) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	c.log.DebugObj("making request", "request", map[string]any{
		"operation": string(req.Op),
		"method":    req.Method,
		"path":      req.Path,
	})

	resp, err := c.transport.Do(ctx, httpclient.Request{
		Method:  req.Method,
		URL:     c.cfg.BaseURL + req.Target(),
		Headers: c.headers,
		Body:    req.Body(),
	})
	if err != nil {
		c.log.ErrorObj("request failed", "request_error", map[string]any{
			"method": req.Method,
			"path":   req.Path,
			"error":  err.Error(),
		})
		return failure(&TransportError{Method: req.Method, Path: req.Path, Err: err})
	}
	if resp == nil {
		return failure(&TransportError{Method: req.Method, Path: req.Path, Err: errNilResponse})
	}

	return c.normalize(req, resp)
}
