package talknote

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestResolveFillsIDAndEscapes(t *testing.T) {
	req, err := Resolve(OpDMThreadPosts, "a/b c", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if req.Path != "/dm/list/a%2Fb%20c" {
		t.Fatalf("unexpected path %q", req.Path)
	}
	if req.Method != http.MethodGet || req.Placement != PlacementQuery {
		t.Fatalf("unexpected req %+v", req)
	}
}

func TestResolveIgnoresIDWhenNotRequired(t *testing.T) {
	req, err := Resolve(OpGroupThreads, "123", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if req.Path != "/group" || req.Method != http.MethodPost {
		t.Fatalf("unexpected req %+v", req)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := Resolve(OpGroupUnreadCount, "", nil); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if _, err := Resolve(Operation("nope"), "1", nil); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestRequestSpecPlacement(t *testing.T) {
	params := url.Values{"message": {"hello world"}}

	post, _ := Resolve(OpPostGroupMessage, "5", params)
	if post.Target() != "/group/post/5" || post.Body() != "message=hello+world" {
		t.Fatalf("body placement: target=%q body=%q", post.Target(), post.Body())
	}

	get, _ := Resolve(OpGroupThreadPosts, "5", url.Values{"page": {"2"}})
	if get.Target() != "/group/list/5?page=2" || get.Body() != "" {
		t.Fatalf("query placement: target=%q body=%q", get.Target(), get.Body())
	}

	bare, _ := Resolve(OpDMThreads, "", nil)
	if bare.Target() != "/dm" {
		t.Fatalf("expected no trailing ?, got %q", bare.Target())
	}
}

func TestEndpointTableRecordsDivergence(t *testing.T) {
	diverging := map[Operation]bool{
		OpDMThreadPosts:    true,
		OpGroupThreads:     true,
		OpGroupThreadPosts: true,
		OpGroupUnreadCount: true,
	}

	table := Endpoints()
	if len(table) != 8 {
		t.Fatalf("expected 8 endpoints, got %d", len(table))
	}
	for _, e := range table {
		if e.Diverges() != diverging[e.Op] {
			t.Errorf("%s: Diverges() = %v", e.Op, e.Diverges())
		}
		if e.Diverges() && e.Note == "" {
			t.Errorf("%s: diverging endpoint has no note", e.Op)
		}
		if got, ok := Lookup(e.Op); !ok || got.Path != e.Path {
			t.Errorf("%s: Lookup mismatch", e.Op)
		}
	}

	table[0].Path = "/mutated"
	if e, _ := Lookup(OpDMThreads); e.Path != "/dm" {
		t.Fatalf("Endpoints must return a copy")
	}
}
