package talknote

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Operation names a logical client capability independent of its HTTP shape.
type Operation string

const (
	OpDMThreads         Operation = "dm"
	OpDMThreadPosts     Operation = "dm_list"
	OpDMUnreadCount     Operation = "dm_unread"
	OpPostDirectMessage Operation = "dm_post"
	OpGroupThreads      Operation = "group"
	OpGroupThreadPosts  Operation = "group_list"
	OpGroupUnreadCount  Operation = "group_unread"
	OpPostGroupMessage  Operation = "group_post"
)

// Placement says where request params are encoded.
type Placement int

const (
	PlacementQuery Placement = iota
	PlacementBody
)

func (p Placement) String() string {
	if p == PlacementBody {
		return "body"
	}
	return "query"
}

const idPlaceholder = "{id}"

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingID        = errors.New("identifier is required")
)

// Endpoint maps an operation to the request the server actually accepts.
// DocumentedMethod and DocumentedPath record what the API reference says,
// which is kept alongside so a server-side correction is a one-entry edit.
type Endpoint struct {
	Op               Operation
	Method           string
	Path             string
	Placement        Placement
	DocumentedMethod string
	DocumentedPath   string
	Note             string
}

// RequiresID reports whether the path template needs an identifier.
func (e Endpoint) RequiresID() bool { return strings.Contains(e.Path, idPlaceholder) }

// Diverges reports whether observed behaviour differs from the documentation.
func (e Endpoint) Diverges() bool {
	if e.DocumentedMethod != "" && e.DocumentedMethod != e.Method {
		return true
	}
	return e.DocumentedPath != "" && e.DocumentedPath != e.Path
}

var endpoints = []Endpoint{
	{
		Op:        OpDMThreads,
		Method:    http.MethodGet,
		Path:      "/dm",
		Placement: PlacementQuery,
	},
	{
		Op:               OpDMThreadPosts,
		Method:           http.MethodGet,
		Path:             "/dm/list/{id}",
		Placement:        PlacementQuery,
		DocumentedMethod: http.MethodPost,
		Note:             "documented as POST; server only answers GET",
	},
	{
		Op:        OpDMUnreadCount,
		Method:    http.MethodGet,
		Path:      "/dm/unread/{id}",
		Placement: PlacementQuery,
	},
	{
		Op:               OpPostDirectMessage,
		Method:           http.MethodPost,
		Path:             "/dm/post/{id}",
		Placement:        PlacementBody,
		DocumentedMethod: http.MethodPost,
	},
	{
		Op:               OpGroupThreads,
		Method:           http.MethodPost,
		Path:             "/group",
		Placement:        PlacementBody,
		DocumentedMethod: http.MethodPost,
		DocumentedPath:   "/group/{id}",
		Note:             "documented with a group id in the path; server lists all groups without one",
	},
	{
		Op:               OpGroupThreadPosts,
		Method:           http.MethodGet,
		Path:             "/group/list/{id}",
		Placement:        PlacementQuery,
		DocumentedMethod: http.MethodPost,
		Note:             "documented as POST; server only answers GET",
	},
	{
		Op:               OpGroupUnreadCount,
		Method:           http.MethodGet,
		Path:             "/group/unread/{id}",
		Placement:        PlacementQuery,
		DocumentedMethod: http.MethodPost,
		Note:             "documented as POST; server only answers GET",
	},
	{
		Op:               OpPostGroupMessage,
		Method:           http.MethodPost,
		Path:             "/group/post/{id}",
		Placement:        PlacementBody,
		DocumentedMethod: http.MethodPost,
	},
}

var endpointIdx = func() map[Operation]Endpoint {
	idx := make(map[Operation]Endpoint, len(endpoints))
	for _, e := range endpoints {
		idx[e.Op] = e
	}
	return idx
}()

// Endpoints returns a copy of the endpoint table in declaration order.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(endpoints))
	copy(out, endpoints)
	return out
}

// Lookup returns the endpoint for op.
func Lookup(op Operation) (Endpoint, bool) {
	e, ok := endpointIdx[op]
	return e, ok
}

// RequestSpec is a fully resolved request, built fresh for each call.
type RequestSpec struct {
	Op        Operation
	Method    string
	Path      string
	Params    url.Values
	Placement Placement
}

// Target returns the path with the query string attached for query placement.
func (s RequestSpec) Target() string {
	if s.Placement == PlacementQuery && len(s.Params) > 0 {
		return s.Path + "?" + s.Params.Encode()
	}
	return s.Path
}

// Body returns the form-encoded body for body placement.
func (s RequestSpec) Body() string {
	if s.Placement == PlacementBody && len(s.Params) > 0 {
		return s.Params.Encode()
	}
	return ""
}

// Resolve builds the request for op. id is required only when the endpoint's
// path template contains one and is ignored otherwise.
func Resolve(op Operation, id string, params url.Values) (RequestSpec, error) {
	e, ok := Lookup(op)
	if !ok {
		return RequestSpec{}, fmt.Errorf("%w %q", ErrUnknownOperation, op)
	}

	path := e.Path
	if e.RequiresID() {
		id = strings.TrimSpace(id)
		if id == "" {
			return RequestSpec{}, fmt.Errorf("%s: %w", op, ErrMissingID)
		}
		path = strings.ReplaceAll(path, idPlaceholder, url.PathEscape(id))
	}

	return RequestSpec{
		Op:        op,
		Method:    e.Method,
		Path:      path,
		Params:    params,
		Placement: e.Placement,
	}, nil
}
