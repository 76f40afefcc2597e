// SPDX-License-Identifier: MIT

// Package config holds the runtime configuration for the resolution pipeline.
// Values come from the environment first, an optional YAML file second, and
// command-line flags last (flags win).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// AppConfig is the full configuration surface of a pipeline run.
type AppConfig struct {
	// Account identity used for the sign-in call.
	User     string
	Password string

	// APIBase is the upstream API root.
	APIBase string
	// UserAgent is sent on every upstream call.
	UserAgent string

	// SetIDs are the catalog set identifiers fetched and merged in order.
	SetIDs []string
	// LivePrefix filters the merged catalog to live channels. Empty disables
	// the filter.
	LivePrefix string

	// Concurrency bounds the resolver worker pool.
	Concurrency int
	// Timeout applies per upstream HTTP call.
	Timeout time.Duration
	// Retries bounds sign-in and per-channel resolution attempts.
	Retries int
	// Rate paces resolution calls in requests per second. 0 disables pacing.
	Rate float64

	// CacheTTL is the maximum age of a cached resolution.
	CacheTTL time.Duration
	// RedisAddr selects the Redis cache backend. Empty keeps the in-memory one.
	RedisAddr string

	// URLIndex selects the canonical entry in the upstream URL list.
	URLIndex int
	// Proxy applies to resolution calls only; sign-in and catalog calls go
	// direct.
	Proxy string

	// DataDir receives playlist.m3u and xmltv.xml.
	DataDir string
	// XMLTV enables the channel-list XMLTV sibling output.
	XMLTV bool
	// HistoryDB is the path of the sqlite run-history database. Empty disables
	// history.
	HistoryDB string

	// Listen and RefreshInterval apply to serve mode only.
	Listen          string
	RefreshInterval time.Duration
}

// FromEnv builds an AppConfig from GTV_* environment variables with defaults.
func FromEnv() AppConfig {
	return AppConfig{
		User:            ParseString("GTV_USER", ""),
		Password:        ParseString("GTV_PASS", ""),
		APIBase:         ParseString("GTV_API_BASE", "https://api2.4gtv.tv"),
		UserAgent:       ParseString("GTV_UA", defaultUserAgent),
		SetIDs:          ParseCSV("GTV_SET_IDS", []string{"1"}),
		LivePrefix:      ParseString("GTV_LIVE_PREFIX", "4gtv-live"),
		Concurrency:     ParseInt("GTV_CONCURRENCY", 5),
		Timeout:         ParseDuration("GTV_TIMEOUT", 15*time.Second),
		Retries:         ParseInt("GTV_RETRIES", 3),
		Rate:            ParseFloat("GTV_RATE", 0),
		CacheTTL:        ParseDuration("GTV_CACHE_TTL", 24*time.Hour),
		RedisAddr:       ParseString("GTV_REDIS_ADDR", ""),
		URLIndex:        ParseInt("GTV_URL_INDEX", 1),
		Proxy:           ParseString("GTV_PROXY", ""),
		DataDir:         ParseString("GTV_DATA_DIR", "."),
		XMLTV:           ParseBool("GTV_XMLTV", false),
		HistoryDB:       ParseString("GTV_HISTORY_DB", ""),
		Listen:          ParseString("GTV_LISTEN", ":8080"),
		RefreshInterval: ParseDuration("GTV_REFRESH_INTERVAL", 6*time.Hour),
	}
}

const defaultUserAgent = "%E5%9B%9B%E5%AD%A3%E7%B7%9A%E4%B8%8A/4 CFNetwork/3826.500.131 Darwin/24.5.0"

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg AppConfig) error {
	if cfg.User == "" {
		return fmt.Errorf("user is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(cfg.SetIDs) == 0 {
		return fmt.Errorf("at least one catalog set id is required")
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", cfg.CacheTTL)
	}
	if cfg.URLIndex < 0 {
		return fmt.Errorf("url index must not be negative, got %d", cfg.URLIndex)
	}
	if cfg.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %f", cfg.Rate)
	}
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", cfg.RefreshInterval)
	}
	if err := validateBase(cfg.APIBase); err != nil {
		return err
	}
	if cfg.Proxy != "" {
		if _, err := url.Parse(cfg.Proxy); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
	}
	return nil
}

func validateBase(base string) error {
	if base == "" {
		return fmt.Errorf("api base URL is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid api base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported api base URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api base URL %q is missing host", base)
	}
	return nil
}
