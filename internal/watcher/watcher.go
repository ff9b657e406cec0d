package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/talknote-relay/internal/domain"
	"github.com/samvad-hq/talknote-relay/internal/logger"
	"github.com/samvad-hq/talknote-relay/internal/storage"
	"github.com/samvad-hq/talknote-relay/pkg/channels"
	"github.com/samvad-hq/talknote-relay/pkg/publishers"
	"github.com/samvad-hq/talknote-relay/pkg/talknote"
)

// Service polls watched channels and relays posts that were not seen before.
type Service struct {
	source    Source
	publisher EventPublisher
	dedup     Deduper
	log       logger.Logger
}

// NewService wires a watcher. A nil deduper relays every listed post.
func NewService(src Source, pub EventPublisher, log logger.Logger, dedup Deduper) *Service {
	return &Service{
		source:    src,
		publisher: pub,
		dedup:     dedup,
		log:       logger.Ensure(log),
	}
}

// Run executes a single poll pass across chans. Per-channel failures are
// joined; a cancelled context stops the pass without an error.
func (s *Service) Run(ctx context.Context, chans []channels.Channel) error {
	if s == nil || s.source == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(chans) == 0 {
		return fmt.Errorf("no channels configured for watching")
	}

	return errors.Join(s.runAll(ctx, chans)...)
}

func (s *Service) runAll(ctx context.Context, chans []channels.Channel) []error {
	var errs []error
	for _, ch := range chans {
		if ctx.Err() != nil {
			s.log.WarnObj("watch pass interrupted", "watch_cancel", map[string]any{
				"channel_id": ch.ID,
				"reason":     ctx.Err().Error(),
			})
			return errs
		}

		relayed, err := s.runChannel(ctx, ch)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("channel poll failed", "channel_error", map[string]any{
				"channel_id": ch.ID,
				"error":      err.Error(),
			})
			continue
		}
		s.log.InfoObj("channel poll completed", "channel_result", map[string]any{
			"channel_id":    ch.ID,
			"posts_relayed": relayed,
		})
	}
	return errs
}

func (s *Service) runChannel(ctx context.Context, ch channels.Channel) (int, error) {
	unread, listPosts := s.source.DMUnreadCount, s.source.DMThreadPosts
	if ch.Kind == channels.KindGroup {
		unread, listPosts = s.source.GroupUnreadCount, s.source.GroupThreadPosts
	}

	// Posts read in the Talknote app drop out of the unread count, so the
	// listing is always fetched and dedup decides what is new.
	if count, ok := unreadCount(unread(ctx, ch.ThreadID)); ok {
		s.log.DebugObj("channel unread count", "channel_unread", map[string]any{
			"channel_id": ch.ID,
			"unread":     count,
		})
	}

	res := listPosts(ctx, ch.ThreadID)
	if err := remoteErr(res); err != nil {
		return 0, fmt.Errorf("list posts for channel %s: %w", ch.ID, err)
	}
	var data domain.PostsData
	if err := res.Decode(&data); err != nil {
		return 0, fmt.Errorf("decode posts for channel %s: %w", ch.ID, err)
	}

	return s.relay(ctx, ch, data.Posts)
}

func (s *Service) relay(ctx context.Context, ch channels.Channel, posts []domain.Post) (int, error) {
	var errs []error
	relayed := 0
	for _, post := range s.filterNewPosts(ch, posts) {
		if ctx.Err() != nil {
			break
		}

		evt := publishers.NewEvent(ch.ID, ch.Name, ch.Kind, ch.ThreadID, post, ExtractText(post.Message))
		delivered, err := s.publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish post %s: %w", post.ID, err))
		}
		if err != nil && delivered == 0 {
			continue
		}
		relayed++

		if s.dedup == nil {
			continue
		}
		if err := s.dedup.MarkPost(storage.PostKey(ch.Kind, ch.ThreadID, post.ID.String())); err != nil {
			s.log.WarnObj("mark post failed", "dedup_error", map[string]any{
				"channel_id": ch.ID,
				"post_id":    post.ID,
				"error":      err.Error(),
			})
		}
	}
	return relayed, errors.Join(errs...)
}

func (s *Service) publish(ctx context.Context, evt publishers.Event) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}
	return s.publisher.Publish(ctx, evt)
}

// filterNewPosts drops posts without an id and posts already relayed. Lookup
// failures keep the post.
func (s *Service) filterNewPosts(ch channels.Channel, posts []domain.Post) []domain.Post {
	out := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		if post.ID == "" {
			continue
		}
		if s.dedup == nil {
			out = append(out, post)
			continue
		}
		seen, err := s.dedup.SeenPost(storage.PostKey(ch.Kind, ch.ThreadID, post.ID.String()))
		if err != nil {
			s.log.WarnObj("dedup lookup failed", "dedup_error", map[string]any{
				"channel_id": ch.ID,
				"post_id":    post.ID,
				"error":      err.Error(),
			})
		}
		if seen {
			continue
		}
		out = append(out, post)
	}
	return out
}

// unreadCount reports the decoded unread count. ok is false when the call
// failed or the payload could not be read.
func unreadCount(res talknote.Result) (int, bool) {
	if !res.RemoteOK() {
		return 0, false
	}
	var u domain.Unread
	if err := res.Decode(&u); err != nil || u.Count == nil {
		return 0, false
	}
	return *u.Count, true
}

func remoteErr(res talknote.Result) error {
	if !res.Ok() {
		return res.Err()
	}
	if !res.RemoteOK() {
		return fmt.Errorf("talknote status %d (http %d)", res.Status(), res.HTTPStatus())
	}
	return nil
}
