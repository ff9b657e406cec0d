package talknote

import (
	"net/http"
	"strings"

	"github.com/samvad-hq/talknote-relay/internal/logger"
	"github.com/samvad-hq/talknote-relay/pkg/httpclient"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://eapi.talknote.com/api/v1"

// LogLevel selects the verbosity of the default logger.
type LogLevel string

const (
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
)

func (l LogLevel) valid() bool {
	switch l {
	case LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug:
		return true
	}
	return false
}

// Logger is the leveled logging capability the client depends on.
// *logger.ZapLogger satisfies it.
type Logger interface {
	ErrorObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
}

// Options is the caller-supplied, possibly partial, client configuration.
// Any zero field falls back to its default.
type Options struct {
	BaseURL  string
	LogLevel LogLevel
	// Headers are merged key by key over the default header set.
	Headers map[string]string
	// Logger receives client logs. When nil, a zap JSON logger at LogLevel is used.
	Logger Logger
	// HTTPClient performs the network call. When nil, a resty client is used.
	HTTPClient httpclient.Client
}

// Config is the resolved client configuration. It is fixed at construction.
type Config struct {
	BaseURL  string
	LogLevel LogLevel
	Headers  map[string]string
	Logger   Logger
}

// AuthContext carries the credentials embedded in every request.
type AuthContext struct {
	AccessToken string
}

func newConfig(opts Options) Config {
	cfg := Config{
		BaseURL:  DefaultBaseURL,
		LogLevel: LogLevelInfo,
	}

	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	if lvl := LogLevel(strings.ToLower(strings.TrimSpace(string(opts.LogLevel)))); lvl.valid() {
		cfg.LogLevel = lvl
	}
	cfg.Headers = mergeHeaders(nil, opts.Headers)

	cfg.Logger = opts.Logger
	if cfg.Logger == nil {
		cfg.Logger = logger.New(string(cfg.LogLevel))
	}
	return cfg
}

// mergeHeaders copies base then applies overrides key by key. Keys are
// canonicalized so overrides replace defaults regardless of case. Overrides
// with a blank key or a blank value are dropped, so they never erase a
// default.
func mergeHeaders(base, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		if key := strings.TrimSpace(k); key != "" {
			out[http.CanonicalHeaderKey(key)] = v
		}
	}
	for k, v := range overrides {
		key := strings.TrimSpace(k)
		if key == "" || strings.TrimSpace(v) == "" {
			continue
		}
		out[http.CanonicalHeaderKey(key)] = v
	}
	return out
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
