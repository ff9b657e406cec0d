package channels

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package channels loads the set of Talknote threads the relay watches.

const (
	KindDM    = "dm"
	KindGroup = "group"
)

// Channel is a watched dm thread or group.
type Channel struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"kind" yaml:"kind"`
	ThreadID string `json:"thread_id" yaml:"thread_id"`
	Enabled  *bool  `json:"enabled" yaml:"enabled"`
}

// EnabledValue returns the enabled flag, defaulting to true.
func (c Channel) EnabledValue() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

type fileRegistry struct {
	Channels []Channel `json:"channels" yaml:"channels"`
}

// Registry is an immutable, validated channel list.
type Registry struct {
	channels []Channel
	idx      map[string]Channel
}

// LoadRegistry reads a YAML or JSON channels file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("channels file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open channels file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(reg.Channels)
}

// NewRegistry sanitizes and validates chans.
func NewRegistry(chans []Channel) (*Registry, error) {
	if len(chans) == 0 {
		return nil, errors.New("channels file contains no channels entries")
	}

	reg := &Registry{
		channels: make([]Channel, 0, len(chans)),
		idx:      make(map[string]Channel, len(chans)),
	}
	for i := range chans {
		c := sanitizeChannel(chans[i])
		if err := validateChannel(c); err != nil {
			return nil, fmt.Errorf("channel[%d]: %w", i, err)
		}
		if _, exists := reg.idx[c.ID]; exists {
			return nil, fmt.Errorf("duplicate channel id %q", c.ID)
		}
		reg.channels = append(reg.channels, c)
		reg.idx[c.ID] = c
	}
	return reg, nil
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg fileRegistry
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("channels file format not recognized (expected YAML or JSON)")
}

func sanitizeChannel(c Channel) Channel {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.ThreadID = strings.TrimSpace(c.ThreadID)
	if c.Name == "" {
		c.Name = c.ID
	}
	return c
}

func validateChannel(c Channel) error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.Kind != KindDM && c.Kind != KindGroup {
		return fmt.Errorf("kind must be %q or %q for channel %q", KindDM, KindGroup, c.ID)
	}
	if c.ThreadID == "" {
		return fmt.Errorf("thread_id is required for channel %q", c.ID)
	}
	return nil
}

// All returns every configured channel.
func (r *Registry) All() []Channel {
	if r == nil {
		return nil
	}
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Enabled returns channels whose enabled flag is unset or true.
func (r *Registry) Enabled() []Channel {
	var out []Channel
	for _, c := range r.All() {
		if c.EnabledValue() {
			out = append(out, c)
		}
	}
	return out
}

// ByID returns the channel with the given id.
func (r *Registry) ByID(id string) (Channel, bool) {
	if r == nil {
		return Channel{}, false
	}
	c, ok := r.idx[strings.TrimSpace(id)]
	return c, ok
}
