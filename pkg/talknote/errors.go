package talknote

import (
	"errors"
	"fmt"
)

// TransportError reports a failure to complete the HTTP exchange.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not the expected JSON envelope.
type ParseError struct {
	Method     string
	Path       string
	StatusCode int
	Snippet    string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: parse response (http %d): %v: %s", e.Method, e.Path, e.StatusCode, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNilResponse = errors.New("transport returned no response")
