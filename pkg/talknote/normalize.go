package talknote

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/samvad-hq/talknote-relay/pkg/httpclient"
)

const maxSnippetLen = 512

var (
	errEmptyBody = errors.New("empty response body")
	errNotObject = errors.New("response is not a JSON object")
)

// envelope holds the raw fields of a response object. status is kept raw so
// a non-numeric value still yields the body to the caller.
type envelope struct {
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// normalize decodes resp into a Result. Non-2xx responses with a valid body
// are returned as-is; interpreting the embedded status is left to callers.
func (c *Client) normalize(req RequestSpec, resp httpclient.Response) Result {
	body := resp.Body()

	env, err := decodeEnvelope(body)
	if err != nil {
		perr := &ParseError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode(),
			Snippet:    responseSnippet(body),
			Err:        err,
		}
		c.log.ErrorObj("response parse failed", "response_error", map[string]any{
			"method":      req.Method,
			"path":        req.Path,
			"http_status": resp.StatusCode(),
			"error":       err.Error(),
		})
		return failure(perr)
	}

	status := statusValue(env.Status)
	c.log.DebugObj("response received", "response", map[string]any{
		"method":      req.Method,
		"path":        req.Path,
		"http_status": resp.StatusCode(),
		"status":      status,
	})

	return success(status, resp.StatusCode(), env.Data, json.RawMessage(bytes.TrimSpace(body)))
}

func decodeEnvelope(body []byte) (envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return envelope{}, errEmptyBody
	}

	if trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return envelope{}, errNotObject
		}
		var v any
		return envelope{}, json.Unmarshal(trimmed, &v)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, err
	}
	return env, nil
}

// statusValue returns the status as an int when it is a JSON number with an
// integral value, and 0 otherwise.
func statusValue(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
