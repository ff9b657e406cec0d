package publishers

import (
	"time"

	"github.com/samvad-hq/talknote-relay/internal/domain"
)

// Event represents a relayed Talknote post.
type Event struct {
	ChannelID   string      `json:"channel_id"`
	ChannelName string      `json:"channel_name"`
	Kind        string      `json:"kind"`
	ThreadID    string      `json:"thread_id"`
	Post        domain.Post `json:"post"`
	Text        string      `json:"text"`
	CollectedAt time.Time   `json:"collected_at"`
}

// NewEvent constructs an Event for a post seen in the given channel.
func NewEvent(channelID, channelName, kind, threadID string, post domain.Post, text string) Event {
	return Event{
		ChannelID:   channelID,
		ChannelName: channelName,
		Kind:        kind,
		ThreadID:    threadID,
		Post:        post,
		Text:        text,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue/topic publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"channel_id": e.ChannelID,
		"kind":       e.Kind,
		"thread_id":  e.ThreadID,
	}
}
