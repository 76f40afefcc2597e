// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/twkuo/gtv2m3u/internal/cache"
	"github.com/twkuo/gtv2m3u/internal/fourgtv"
	xglog "github.com/twkuo/gtv2m3u/internal/log"
	"github.com/twkuo/gtv2m3u/internal/metrics"
	"github.com/twkuo/gtv2m3u/internal/quality"
	"github.com/twkuo/gtv2m3u/internal/retry"
)

// cacheKey combines external and internal id; either alone is not unique
// across catalog variants.
func cacheKey(ch fourgtv.Channel) string {
	return fmt.Sprintf("%s|%d", ch.ID, ch.ChannelID)
}

// ResolverConfig tunes a Resolver.
type ResolverConfig struct {
	Cache    cache.Store
	TTL      time.Duration
	Attempts int
	Backoff  retry.Backoff
	// RatePerSec paces upstream resolution calls across all workers.
	// 0 disables pacing.
	RatePerSec float64
}

// Resolver turns one channel plus a session credential into a playable
// stream URL, consulting and populating the shared cache.
type Resolver struct {
	client   APIClient
	cache    cache.Store
	ttl      time.Duration
	attempts int
	backoff  retry.Backoff
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewResolver builds a Resolver. A nil cache disables caching; a nil backoff
// uses the standard exponential schedule.
func NewResolver(client APIClient, cfg ResolverConfig) *Resolver {
	store := cfg.Cache
	if store == nil {
		store = cache.NewNoOp()
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = retry.Exponential(time.Second)
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return &Resolver{
		client:   client,
		cache:    store,
		ttl:      cfg.TTL,
		attempts: attempts,
		backoff:  backoff,
		limiter:  limiter,
		logger:   xglog.WithComponent("resolver"),
	}
}

// Resolve returns the current stream URL for ch. Within the cache TTL the
// upstream is never contacted. Transient upstream failures and explicit
// non-success responses are retried up to the attempt bound; a missing
// internal id fails immediately.
func (r *Resolver) Resolve(ctx context.Context, ch fourgtv.Channel, session fourgtv.Session) (string, error) {
	if ch.ChannelID == 0 {
		metrics.IncResolution("failure")
		return "", fmt.Errorf("channel %q has no internal id", ch.ID)
	}

	key := cacheKey(ch)
	if url, ok := r.cache.Get(key); ok {
		metrics.IncResolution("cache_hit")
		r.logger.Debug().
			Str("event", "resolve.cache_hit").
			Str("channel", ch.ID).
			Msg("serving cached stream URL")
		return url, nil
	}

	var streamURL string
	err := retry.Do(ctx, r.attempts, r.backoff, func(ctx context.Context) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}
		}
		url, err := r.client.ChannelURL(ctx, ch, session)
		if err != nil {
			return err
		}
		streamURL = url
		return nil
	})
	if err != nil {
		metrics.IncResolution("failure")
		return "", fmt.Errorf("resolve channel %q: %w", ch.ID, err)
	}

	// Two workers may have raced for the same key; last write wins and both
	// URLs are equally valid.
	r.cache.Set(key, streamURL, r.ttl)
	metrics.IncResolution("success")
	return streamURL, nil
}

// ResolveAll fans the catalog out to a pool of exactly concurrency workers
// and fans results back in, ordered by original catalog index. Each worker
// resolves, then applies the quality upgrade. One channel's failure never
// cancels its siblings.
func (r *Resolver) ResolveAll(ctx context.Context, channels []fourgtv.Channel, session fourgtv.Session, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	results := make(chan Result, len(channels))
	var wg sync.WaitGroup

	for i, ch := range channels {
		wg.Add(1)
		go func(index int, ch fourgtv.Channel) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			url, err := r.Resolve(ctx, ch, session)
			if err == nil {
				url = quality.Upgrade(url)
			}
			results <- Result{Index: index, Channel: ch, URL: url, Err: err}
		}(i, ch)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(channels))
	for res := range results {
		if res.Err != nil {
			r.logger.Warn().
				Err(res.Err).
				Str("event", "resolve.failed").
				Str("channel", res.Channel.ID).
				Str("name", res.Channel.Name).
				Msg("channel resolution failed")
		}
		out = append(out, res)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}
