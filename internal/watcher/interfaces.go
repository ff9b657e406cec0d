package watcher

import (
	"context"

	"github.com/samvad-hq/talknote-relay/pkg/publishers"
	"github.com/samvad-hq/talknote-relay/pkg/talknote"
)

// Source is the subset of the Talknote client the watcher polls.
type Source interface {
	DMUnreadCount(ctx context.Context, threadID string) talknote.Result
	DMThreadPosts(ctx context.Context, threadID string) talknote.Result
	GroupUnreadCount(ctx context.Context, groupID string) talknote.Result
	GroupThreadPosts(ctx context.Context, groupID string) talknote.Result
}

// EventPublisher publishes relayed posts downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper records which posts were already relayed.
type Deduper interface {
	SeenPost(key string) (bool, error)
	MarkPost(key string) error
}
