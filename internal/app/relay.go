package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/talknote-relay/internal/config"
	"github.com/samvad-hq/talknote-relay/internal/logger"
	"github.com/samvad-hq/talknote-relay/internal/storage"
	"github.com/samvad-hq/talknote-relay/internal/watcher"
	"github.com/samvad-hq/talknote-relay/pkg/channels"
	"github.com/samvad-hq/talknote-relay/pkg/publishers"
	"github.com/samvad-hq/talknote-relay/pkg/talknote"
)

// Relay is the long-running runtime: it polls watched Talknote channels and
// forwards new posts to the configured publishers.
type Relay struct {
	cfg          *config.Config
	channels     []channels.Channel
	fanout       *publishers.Fanout
	watcher      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	return newRelay(ctx, cfg, log, nil)
}

func newRelay(ctx context.Context, cfg *config.Config, log logger.Logger, reg publishers.Registry) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}
	if reg == nil {
		reg = publishers.DefaultRegistry()
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("talknote_access_token is required")
	}

	channelReg, err := channels.LoadRegistry(cfg.ChannelsFile)
	if err != nil {
		return nil, fmt.Errorf("load channels registry: %w", err)
	}
	watched := channelReg.Enabled()
	channelIDs := make([]string, 0, len(watched))
	for _, c := range watched {
		channelIDs = append(channelIDs, c.ID)
	}
	log.InfoObj("channels registry loaded", "channels_meta", map[string]any{
		"count": len(channelIDs),
		"ids":   channelIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, reg, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		PostTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"post_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	client := talknote.New(cfg.AccessToken, talknote.Options{
		BaseURL:  cfg.APIURL,
		LogLevel: talknote.LogLevel(cfg.LogLevel),
		Logger:   log,
	})

	return &Relay{
		cfg:          cfg,
		channels:     watched,
		fanout:       fanout,
		watcher:      watcher.NewService(client, fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.watcher == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.close()

	if len(r.channels) == 0 {
		r.log.WarnObj("no channels enabled; relay idle", "channels_file", r.cfg.ChannelsFile)
		<-ctx.Done()
		return nil
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"channels_count":   len(r.channels),
		"publishers_count": r.fanout.Size(),
		"poll_interval":    r.pollInterval.String(),
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single poll across all watched channels.
func (r *Relay) runOnce(ctx context.Context) error {
	start := time.Now()
	r.log.InfoObj("poll started", "poll_meta", map[string]any{
		"channels_count": len(r.channels),
		"started_at":     start.UTC(),
	})
	if err := r.watcher.Run(ctx, r.channels); err != nil {
		return err
	}
	r.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"channels_count": len(r.channels),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases publishers and the storage backend, logging failures.
func (r *Relay) close() {
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
