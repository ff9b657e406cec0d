package watcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/talknote-relay/internal/domain"
	"github.com/samvad-hq/talknote-relay/internal/logger"
	"github.com/samvad-hq/talknote-relay/internal/storage"
	"github.com/samvad-hq/talknote-relay/pkg/channels"
	"github.com/samvad-hq/talknote-relay/pkg/publishers"
	"github.com/samvad-hq/talknote-relay/pkg/talknote"
)

// routeServer answers fixed JSON bodies per path and counts hits.
type routeServer struct {
	*httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	routes map[string]string
}

func newRouteServer(t *testing.T, routes map[string]string) *routeServer {
	t.Helper()
	s := &routeServer{hits: make(map[string]int), routes: routes}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		body, ok := s.routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *routeServer) hit(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

func newSource(srv *routeServer) *talknote.Client {
	return talknote.New("token", talknote.Options{BaseURL: srv.URL, Logger: logger.NopLogger{}})
}

// fakePublisher records events and can fail for a post id.
type fakePublisher struct {
	mu      sync.Mutex
	events  []publishers.Event
	errOnID string
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.Post.ID.String() == f.errOnID {
		return 0, errors.New("boom")
	}
	return 1, nil
}

// fakeDeduper tracks seen keys.
type fakeDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	failKey string
}

func (f *fakeDeduper) SeenPost(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.failKey {
		return false, errors.New("lookup failed")
	}
	return f.seen[key], nil
}

func (f *fakeDeduper) MarkPost(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	f.seen[key] = true
	return nil
}

var dmChannel = channels.Channel{ID: "support", Name: "Support", Kind: channels.KindDM, ThreadID: "7"}

func TestServicePublishesFreshPostsOnly(t *testing.T) {
	srv := newRouteServer(t, map[string]string{
		"/dm/unread/7": `{"status":1,"data":{"unread_count":2}}`,
		"/dm/list/7":   `{"status":1,"data":{"posts":[{"id":1,"message":"old"},{"id":"2","message":"<p>new <b>post</b></p>"}]}}`,
	})
	dedup := &fakeDeduper{seen: map[string]bool{storage.PostKey("dm", "7", "1"): true}}
	pub := &fakePublisher{}

	svc := NewService(newSource(srv), pub, nil, dedup)
	if err := svc.Run(context.Background(), []channels.Channel{dmChannel}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Post.ID != "2" || evt.Text != "new post" || evt.ChannelID != "support" || evt.Kind != "dm" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if !dedup.seen[storage.PostKey("dm", "7", "2")] {
		t.Fatalf("MarkPost not called for new post")
	}
	if srv.hit("GET /dm/list/7") != 1 {
		t.Fatalf("posts listing should be fetched once")
	}
}

func TestServiceListsPostsWhenUnreadIsZero(t *testing.T) {
	srv := newRouteServer(t, map[string]string{
		"/group/unread/9": `{"status":1,"data":{"unread_count":0}}`,
		"/group/list/9":   `{"status":1,"data":{"posts":[{"id":1,"message":"read in app"}]}}`,
	})
	dedup := &fakeDeduper{}
	pub := &fakePublisher{}
	ch := channels.Channel{ID: "team", Kind: channels.KindGroup, ThreadID: "9"}
	svc := NewService(newSource(srv), pub, nil, dedup)

	for i := 0; i < 2; i++ {
		if err := svc.Run(context.Background(), []channels.Channel{ch}); err != nil {
			t.Fatalf("Run #%d: %v", i, err)
		}
	}
	if srv.hit("GET /group/list/9") != 2 {
		t.Fatalf("posts should be listed on every pass, got %d", srv.hit("GET /group/list/9"))
	}
	if len(pub.events) != 1 || pub.events[0].Post.ID != "1" {
		t.Fatalf("post already read elsewhere should be relayed once, got %+v", pub.events)
	}
}

func TestServiceListsWhenUnreadUndecodable(t *testing.T) {
	srv := newRouteServer(t, map[string]string{
		"/dm/unread/7": `{"status":1,"data":{}}`,
		"/dm/list/7":   `{"status":1,"data":{"posts":[{"id":5,"message":"hi"}]}}`,
	})
	pub := &fakePublisher{}

	if err := NewService(newSource(srv), pub, nil, nil).Run(context.Background(), []channels.Channel{dmChannel}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected post to be relayed, got %d events", len(pub.events))
	}
}

func TestServiceAggregatesPublishErrors(t *testing.T) {
	srv := newRouteServer(t, map[string]string{
		"/dm/unread/7": `{"status":1,"data":{"unread_count":1}}`,
		"/dm/list/7":   `{"status":1,"data":{"posts":[{"id":"bad","message":"x"},{"id":"good","message":"y"}]}}`,
	})
	dedup := &fakeDeduper{}
	pub := &fakePublisher{errOnID: "bad"}

	err := NewService(newSource(srv), pub, nil, dedup).Run(context.Background(), []channels.Channel{dmChannel})
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected error mentioning bad post, got %v", err)
	}
	if dedup.seen[storage.PostKey("dm", "7", "bad")] {
		t.Fatalf("undelivered post must not be marked")
	}
	if !dedup.seen[storage.PostKey("dm", "7", "good")] {
		t.Fatalf("delivered post should be marked")
	}
}

func TestServiceRemoteErrorFailsChannelOnly(t *testing.T) {
	srv := newRouteServer(t, map[string]string{
		"/dm/unread/7":    `{"status":1,"data":{"unread_count":1}}`,
		"/dm/list/7":      `{"status":0,"error":{"message":"forbidden"}}`,
		"/group/unread/9": `{"status":1,"data":{"unread_count":1}}`,
		"/group/list/9":   `{"status":1,"data":{"posts":[{"id":3,"message":"ok"}]}}`,
	})
	pub := &fakePublisher{}
	chans := []channels.Channel{dmChannel, {ID: "team", Kind: channels.KindGroup, ThreadID: "9"}}

	err := NewService(newSource(srv), pub, nil, nil).Run(context.Background(), chans)
	if err == nil || !strings.Contains(err.Error(), "support") {
		t.Fatalf("expected error for support channel, got %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].ChannelID != "team" {
		t.Fatalf("healthy channel should still relay, got %+v", pub.events)
	}
}

func TestServiceMalformedListingIsError(t *testing.T) {
	srv := newRouteServer(t, map[string]string{
		"/dm/unread/7": `{"status":1,"data":{"unread_count":1}}`,
		"/dm/list/7":   `<html>maintenance</html>`,
	})

	err := NewService(newSource(srv), &fakePublisher{}, nil, nil).Run(context.Background(), []channels.Channel{dmChannel})
	var parseErr *talknote.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestServiceRunAllCancelsEarly(t *testing.T) {
	srv := newRouteServer(t, map[string]string{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(newSource(srv), &fakePublisher{}, nil, nil)
	errs := svc.runAll(ctx, []channels.Channel{dmChannel})
	if len(errs) != 0 {
		t.Fatalf("expected no errors on cancelled context, got %v", errs)
	}
	if srv.hit("GET /dm/unread/7") != 0 {
		t.Fatalf("no request expected after cancellation")
	}
}

func TestRunRejectsEmptyChannels(t *testing.T) {
	srv := newRouteServer(t, map[string]string{})
	if err := NewService(newSource(srv), nil, nil, nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when channel list empty")
	}
	var svc *Service
	if err := svc.Run(context.Background(), []channels.Channel{dmChannel}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestFilterNewPostsHandlesDeduperErrors(t *testing.T) {
	dedup := &fakeDeduper{
		seen:    map[string]bool{storage.PostKey("dm", "7", "skip"): true},
		failKey: storage.PostKey("dm", "7", "error"),
	}
	svc := NewService(nil, nil, nil, dedup)
	posts := []domain.Post{{ID: "keep"}, {ID: "skip"}, {ID: "error"}, {ID: ""}}

	filtered := svc.filterNewPosts(dmChannel, posts)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 posts after filter, got %d", len(filtered))
	}
	if filtered[0].ID != "keep" || filtered[1].ID != "error" {
		t.Fatalf("unexpected filter result %#v", filtered)
	}
}
