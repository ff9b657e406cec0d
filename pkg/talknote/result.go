package talknote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StatusSuccess is the value of the response "status" field on success.
const StatusSuccess = 1

var (
	ErrNoData = errors.New("response has no data field")
	// ErrNoResult is the failure reported by a zero Result.
	ErrNoResult = errors.New("no result")
)

// Result is the outcome of a single operation: either a decoded response
// (Ok) or a failure (Err). A failure never carries status or data.
type Result struct {
	ok         bool
	status     int
	data       json.RawMessage
	body       json.RawMessage
	httpStatus int
	err        error
}

func success(status, httpStatus int, data, body json.RawMessage) Result {
	return Result{ok: true, status: status, httpStatus: httpStatus, data: data, body: body}
}

func failure(err error) Result {
	if err == nil {
		err = ErrNoResult
	}
	return Result{err: err}
}

// Ok reports whether a response was received and decoded.
func (r Result) Ok() bool { return r.ok }

// Err returns the failure, or nil on success.
func (r Result) Err() error {
	if !r.ok && r.err == nil {
		return ErrNoResult
	}
	return r.err
}

// Status is the response's embedded status field.
func (r Result) Status() int { return r.status }

// RemoteOK reports whether the API itself signalled success.
func (r Result) RemoteOK() bool { return r.ok && r.status == StatusSuccess }

// HTTPStatus is the transport status code of a decoded response.
func (r Result) HTTPStatus() int { return r.httpStatus }

// Data is the raw "data" field.
func (r Result) Data() json.RawMessage { return r.data }

// Body is the full decoded response body.
func (r Result) Body() json.RawMessage { return r.body }

// Decode unmarshals the data field into v.
func (r Result) Decode(v any) error {
	if !r.ok {
		return r.Err()
	}
	if len(r.data) == 0 {
		return ErrNoData
	}
	if err := json.Unmarshal(r.data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// MarshalJSON renders the response body on success and {"error": "..."} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Err().Error()})
	}
	if len(r.body) == 0 {
		return []byte("null"), nil
	}
	return r.body, nil
}
