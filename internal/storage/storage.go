package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store tracks which posts have already been relayed. Keys are opaque; use
// PostKey to build them.
type Store interface {
	Close() error
	SeenPost(key string) (bool, error)
	MarkPost(key string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	PostTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	defaultPostTTL         = 14 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// PostKey builds the dedup key for a post within a dm thread or group.
func PostKey(kind, threadID, postID string) string {
	return strings.ToLower(strings.TrimSpace(kind)) + ":" + strings.TrimSpace(threadID) + ":" + strings.TrimSpace(postID)
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.PostTTL <= 0 {
		opts.PostTTL = defaultPostTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                  { return nil }
func (noopStore) SeenPost(string) (bool, error) { return false, nil }
func (noopStore) MarkPost(string) error         { return nil }

// memoryStore keeps keys in process memory; contents are lost on restart.
type memoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	expires map[string]time.Time
	now     func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		ttl:     opts.PostTTL,
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) SeenPost(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expires[key]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.expires, key)
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) MarkPost(key string) error {
	m.mu.Lock()
	m.expires[key] = m.now().Add(m.ttl)
	m.mu.Unlock()
	return nil
}
