package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRestyClientDoSendsMethodHeadersAndBody(t *testing.T) {
	var gotMethod, gotBody, gotHeader, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Test")
		gotCT = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewRestyClient(0)
	resp, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/post",
		Headers: map[string]string{
			"X-Test":       "1",
			"Content-Type": "application/x-www-form-urlencoded",
		},
		Body: "message=hello",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	if string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", resp.Body())
	}
	if gotMethod != http.MethodPost || gotHeader != "1" || gotBody != "message=hello" {
		t.Fatalf("server saw method=%s header=%s body=%q", gotMethod, gotHeader, gotBody)
	}
	if gotCT != "application/x-www-form-urlencoded" {
		t.Fatalf("content type overwritten: %q", gotCT)
	}
}

func TestRestyClientDoPropagatesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewRestyClient(0).Do(context.Background(), Request{URL: url}); err == nil {
		t.Fatalf("expected connection error against closed server")
	}
}

func TestRestyClientDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(0).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}
