package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Domain contains typed views over Talknote response payloads.

// ID is a Talknote identifier. The API emits ids as strings or bare numbers.
type ID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Thread is a direct-message thread.
type Thread struct {
	ID    ID     `json:"id"`
	Title string `json:"title,omitempty"`
}

// Group is a group thread.
type Group struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

// Post is a single message within a thread or group.
type Post struct {
	ID        ID     `json:"id"`
	Message   string `json:"message"`
	UserID    ID     `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ThreadsData is the data payload of the dm listing.
type ThreadsData struct {
	Threads []Thread `json:"threads"`
}

// GroupsData is the data payload of the group listing.
type GroupsData struct {
	Groups []Group `json:"groups"`
}

// PostsData is the data payload of a thread/group post listing.
type PostsData struct {
	Posts []Post `json:"posts"`
}

// Unread is the data payload of an unread-count call. Count is nil when the
// payload carries no count.
type Unread struct {
	Count *int `json:"unread_count"`
}
