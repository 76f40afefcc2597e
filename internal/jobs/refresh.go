// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/twkuo/gtv2m3u/internal/auth"
	"github.com/twkuo/gtv2m3u/internal/cache"
	"github.com/twkuo/gtv2m3u/internal/epg"
	"github.com/twkuo/gtv2m3u/internal/fourgtv"
	"github.com/twkuo/gtv2m3u/internal/history"
	xglog "github.com/twkuo/gtv2m3u/internal/log"
	"github.com/twkuo/gtv2m3u/internal/metrics"
	"github.com/twkuo/gtv2m3u/internal/retry"
)

// Deps are the injectable collaborators of a refresh cycle. Zero values get
// production defaults; tests substitute fakes and deterministic clocks.
type Deps struct {
	Client  APIClient
	Cache   cache.Store
	History *history.Store
	Now     func() time.Time
	Backoff retry.Backoff
}

// RefreshWith performs one complete cycle: derive credential → sign in →
// fetch catalog → resolve concurrently → write playlist (+ optional XMLTV).
func RefreshWith(ctx context.Context, cfg Config, deps Deps) (*Status, error) {
	logger := xglog.WithComponent("jobs")
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory(nil)
	}
	if deps.Backoff == nil {
		deps.Backoff = retry.Exponential(time.Second)
	}
	start := deps.Now()
	logger.Info().Str("event", "refresh.start").Msg("starting refresh")

	session, err := buildSession(ctx, cfg, deps)
	if err != nil {
		metrics.IncSignIn("failure")
		metrics.IncRefreshFailure("auth")
		return nil, err
	}
	metrics.IncSignIn("success")
	logger.Info().Str("event", "auth.success").Msg("session credential obtained")

	catalog := FetchCatalog(ctx, deps.Client, cfg.SetIDs)
	catalog = FilterByPrefix(catalog, cfg.LivePrefix)
	metrics.SetCatalogChannels(len(catalog))
	if len(catalog) == 0 {
		metrics.IncRefreshFailure("catalog")
		return nil, fmt.Errorf("catalog: no usable channels across %d set(s)", len(cfg.SetIDs))
	}

	resolver := NewResolver(deps.Client, ResolverConfig{
		Cache:      deps.Cache,
		TTL:        cfg.CacheTTL,
		Attempts:   cfg.Retries,
		Backoff:    deps.Backoff,
		RatePerSec: cfg.Rate,
	})
	results := resolver.ResolveAll(ctx, catalog, session, cfg.Concurrency)
	items, failures := Assemble(results)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	playlistPath := filepath.Join(cfg.DataDir, "playlist.m3u")
	if err := writeM3U(logger, playlistPath, items); err != nil {
		metrics.IncRefreshFailure("write_m3u")
		return nil, fmt.Errorf("write playlist: %w", err)
	}
	metrics.SetChannelsWritten(len(items))
	logger.Info().
		Str("event", "playlist.write").
		Str("path", playlistPath).
		Int("channels", len(items)).
		Msg("playlist written")

	if cfg.XMLTV {
		xmltvPath := filepath.Join(cfg.DataDir, "xmltv.xml")
		if err := writeXMLTV(logger, xmltvPath, epg.ChannelsFromCatalog(catalog)); err != nil {
			metrics.IncRefreshFailure("xmltv")
			logger.Warn().
				Err(err).
				Str("event", "xmltv.failed").
				Str("path", xmltvPath).
				Msg("XMLTV generation failed")
		} else {
			logger.Info().
				Str("event", "xmltv.success").
				Str("path", xmltvPath).
				Int("channels", len(catalog)).
				Msg("XMLTV written")
		}
	}

	status := &Status{
		RunID:    uuid.NewString(),
		LastRun:  start,
		Duration: deps.Now().Sub(start),
		Channels: len(catalog),
		Resolved: len(items),
		Failures: failures,
	}
	recordHistory(ctx, logger, deps.History, status)

	logger.Info().
		Str("event", "refresh.success").
		Int("channels", status.Channels).
		Int("resolved", status.Resolved).
		Int("failed", len(status.Failures)).
		Dur("duration", status.Duration).
		Msg("refresh completed")
	for _, f := range failures {
		logger.Warn().
			Str("event", "refresh.channel_failed").
			Str("channel", f.Channel).
			Str("reason", f.Reason).
			Msg("channel excluded from playlist")
	}
	return status, nil
}

// buildSession derives the daily material and completes it with the sign-in
// call. Network-level sign-in failures are retried; a rejection (bad
// credentials) is surfaced immediately.
func buildSession(ctx context.Context, cfg Config, deps Deps) (fourgtv.Session, error) {
	material, err := auth.Derive(cfg.User, deps.Now())
	if err != nil {
		return fourgtv.Session{}, fmt.Errorf("derive credential: %w", err)
	}

	var value string
	err = retry.Do(ctx, cfg.Retries, deps.Backoff, func(ctx context.Context) error {
		v, err := deps.Client.SignIn(ctx, cfg.User, cfg.Password, material)
		if err != nil {
			if errors.Is(err, fourgtv.ErrRejected) {
				return retry.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return fourgtv.Session{}, fmt.Errorf("sign in: %w", err)
	}
	return fourgtv.Session{Material: material, Value: value}, nil
}

// recordHistory is best-effort: a broken history database must not fail a
// run that already produced a playlist.
func recordHistory(ctx context.Context, logger zerolog.Logger, store *history.Store, status *Status) {
	if store == nil {
		return
	}
	hf := make([]history.Failure, 0, len(status.Failures))
	for _, f := range status.Failures {
		hf = append(hf, history.Failure{Channel: f.Channel, Reason: f.Reason})
	}
	_, err := store.RecordRun(ctx, history.Run{
		ID:         status.RunID,
		StartedAt:  status.LastRun,
		FinishedAt: status.LastRun.Add(status.Duration),
		Channels:   status.Channels,
		Resolved:   status.Resolved,
		Failed:     len(status.Failures),
	}, hf)
	if err != nil {
		metrics.IncRefreshFailure("history")
		logger.Warn().Err(err).Str("event", "history.failed").Msg("recording run history failed")
	}
}
