// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/twkuo/gtv2m3u/internal/cache"
	"github.com/twkuo/gtv2m3u/internal/config"
	"github.com/twkuo/gtv2m3u/internal/fourgtv"
	"github.com/twkuo/gtv2m3u/internal/history"
	"github.com/twkuo/gtv2m3u/internal/jobs"
	xglog "github.com/twkuo/gtv2m3u/internal/log"
	"github.com/twkuo/gtv2m3u/internal/server"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	serve := flag.Bool("serve", false, "keep running: serve artifacts over HTTP and refresh periodically")
	dataDir := flag.String("data", "", "data directory for playlist.m3u and xmltv.xml (overrides GTV_DATA_DIR)")
	xmltv := flag.Bool("xmltv", false, "also write the XMLTV channel list")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	xglog.Configure(xglog.Config{
		Level:   config.ParseString("GTV_LOG_LEVEL", "info"),
		Service: "gtv2m3u",
	})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath, cfg)
		if err != nil {
			logger.Error().Err(err).Str("event", "config.load_failed").Str("path", *configPath).Msg("failed to load configuration")
			return 2
		}
		logger.Info().Str("event", "config.loaded").Str("path", *configPath).Msg("loaded configuration from file")
	}
	// Flags win over both the environment and the config file.
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *xmltv {
		cfg.XMLTV = true
	}
	if err := config.Validate(cfg); err != nil {
		logger.Error().Err(err).Str("event", "config.invalid").Msg("invalid configuration")
		return 2
	}

	client, err := fourgtv.New(fourgtv.Options{
		Base:      cfg.APIBase,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Proxy:     cfg.Proxy,
		URLIndex:  cfg.URLIndex,
	})
	if err != nil {
		logger.Error().Err(err).Str("event", "client.build_failed").Msg("building upstream client failed")
		return 2
	}

	store, err := buildCache(cfg)
	if err != nil {
		logger.Error().Err(err).Str("event", "cache.build_failed").Msg("cache backend unavailable")
		return 1
	}

	var hist *history.Store
	if cfg.HistoryDB != "" {
		hist, err = history.Open(cfg.HistoryDB)
		if err != nil {
			// History is an aid, not a prerequisite.
			logger.Warn().Err(err).Str("event", "history.open_failed").Str("path", cfg.HistoryDB).Msg("continuing without run history")
			hist = nil
		} else {
			defer func() { _ = hist.Close() }()
		}
	}

	jobCfg := jobs.Config{
		User:        cfg.User,
		Password:    cfg.Password,
		SetIDs:      cfg.SetIDs,
		LivePrefix:  cfg.LivePrefix,
		Concurrency: cfg.Concurrency,
		Retries:     cfg.Retries,
		Rate:        cfg.Rate,
		CacheTTL:    cfg.CacheTTL,
		DataDir:     cfg.DataDir,
		XMLTV:       cfg.XMLTV,
	}
	deps := jobs.Deps{Client: client, Cache: store, History: hist}

	if !*serve {
		status, err := jobs.RefreshWith(ctx, jobCfg, deps)
		if err != nil {
			logger.Error().Err(err).Str("event", "run.failed").Msg("refresh failed")
			return 1
		}
		logger.Info().
			Str("event", "run.done").
			Int("channels", status.Channels).
			Int("resolved", status.Resolved).
			Int("failed", len(status.Failures)).
			Msg("playlist generated")
		return 0
	}

	return runServe(ctx, cfg, jobCfg, deps, hist, logger)
}

// runServe runs the HTTP surface and a periodic refresh loop until a signal
// arrives. A failing refresh is logged and retried at the next tick; only the
// HTTP server going down ends the process.
func runServe(ctx context.Context, cfg config.AppConfig, jobCfg jobs.Config, deps jobs.Deps, hist *history.Store, logger zerolog.Logger) int {
	srv := server.New(server.Config{Listen: cfg.Listen, DataDir: cfg.DataDir}, hist)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			status, err := jobs.RefreshWith(ctx, jobCfg, deps)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error().Err(err).Str("event", "refresh.failed").Msg("periodic refresh failed")
			} else {
				srv.SetStatus(status)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Str("event", "serve.failed").Msg("serve mode terminated with error")
		return 1
	}
	logger.Info().Str("event", "serve.stopped").Msg("shut down cleanly")
	return 0
}

func buildCache(cfg config.AppConfig) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(nil), nil
	}
	return cache.NewRedis(cache.RedisConfig{Addr: cfg.RedisAddr}, xglog.WithComponent("cache"))
}
