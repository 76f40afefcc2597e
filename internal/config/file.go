// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors AppConfig for the YAML file. Pointers distinguish "key
// absent" from zero values, and durations arrive as strings ("15s", "24h").
type fileConfig struct {
	User            *string   `yaml:"user"`
	Password        *string   `yaml:"password"`
	APIBase         *string   `yaml:"api_base"`
	UserAgent       *string   `yaml:"user_agent"`
	SetIDs          *[]string `yaml:"set_ids"`
	LivePrefix      *string   `yaml:"live_prefix"`
	Concurrency     *int      `yaml:"concurrency"`
	Timeout         *string   `yaml:"timeout"`
	Retries         *int      `yaml:"retries"`
	Rate            *float64  `yaml:"rate"`
	CacheTTL        *string   `yaml:"cache_ttl"`
	RedisAddr       *string   `yaml:"redis_addr"`
	URLIndex        *int      `yaml:"url_index"`
	Proxy           *string   `yaml:"proxy"`
	DataDir         *string   `yaml:"data_dir"`
	XMLTV           *bool     `yaml:"xmltv"`
	HistoryDB       *string   `yaml:"history_db"`
	Listen          *string   `yaml:"listen"`
	RefreshInterval *string   `yaml:"refresh_interval"`
}

// LoadFile overlays a strict YAML configuration file on top of cfg. Unknown
// keys are rejected so typos surface instead of being silently ignored.
func LoadFile(path string, cfg AppConfig) (AppConfig, error) {
	path = filepath.Clean(path)
	f, err := os.Open(path) // #nosec G304 -- path comes from the operator's own flag
	if err != nil {
		return cfg, fmt.Errorf("open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.User != nil {
		cfg.User = *fc.User
	}
	if fc.Password != nil {
		cfg.Password = *fc.Password
	}
	if fc.APIBase != nil {
		cfg.APIBase = *fc.APIBase
	}
	if fc.UserAgent != nil {
		cfg.UserAgent = *fc.UserAgent
	}
	if fc.SetIDs != nil {
		cfg.SetIDs = *fc.SetIDs
	}
	if fc.LivePrefix != nil {
		cfg.LivePrefix = *fc.LivePrefix
	}
	if fc.Concurrency != nil {
		cfg.Concurrency = *fc.Concurrency
	}
	if fc.Retries != nil {
		cfg.Retries = *fc.Retries
	}
	if fc.Rate != nil {
		cfg.Rate = *fc.Rate
	}
	if fc.RedisAddr != nil {
		cfg.RedisAddr = *fc.RedisAddr
	}
	if fc.URLIndex != nil {
		cfg.URLIndex = *fc.URLIndex
	}
	if fc.Proxy != nil {
		cfg.Proxy = *fc.Proxy
	}
	if fc.DataDir != nil {
		cfg.DataDir = *fc.DataDir
	}
	if fc.XMLTV != nil {
		cfg.XMLTV = *fc.XMLTV
	}
	if fc.HistoryDB != nil {
		cfg.HistoryDB = *fc.HistoryDB
	}
	if fc.Listen != nil {
		cfg.Listen = *fc.Listen
	}
	if err := overlayDuration(&cfg.Timeout, fc.Timeout, "timeout"); err != nil {
		return cfg, err
	}
	if err := overlayDuration(&cfg.CacheTTL, fc.CacheTTL, "cache_ttl"); err != nil {
		return cfg, err
	}
	if err := overlayDuration(&cfg.RefreshInterval, fc.RefreshInterval, "refresh_interval"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overlayDuration(dst *time.Duration, raw *string, key string) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("config key %s: %w", key, err)
	}
	*dst = d
	return nil
}
