// SPDX-License-Identifier: MIT

// Package jobs orchestrates the resolution pipeline: credential derivation,
// catalog fetch, concurrent per-channel resolution and playlist assembly.
package jobs

import (
	"context"
	"time"

	"github.com/twkuo/gtv2m3u/internal/auth"
	"github.com/twkuo/gtv2m3u/internal/fourgtv"
)

// APIClient is the upstream surface the pipeline needs. *fourgtv.Client
// implements it; tests substitute fakes.
type APIClient interface {
	SignIn(ctx context.Context, user, password string, m auth.Material) (string, error)
	Channels(ctx context.Context, setID string) ([]fourgtv.Channel, error)
	ChannelURL(ctx context.Context, ch fourgtv.Channel, s fourgtv.Session) (string, error)
}

// Config holds the pipeline parameters for one refresh cycle. Upstream
// transport settings (base URL, timeout, proxy) live on the client the caller
// passes in via Deps.
type Config struct {
	User     string
	Password string

	SetIDs     []string
	LivePrefix string

	Concurrency int
	Retries     int
	Rate        float64

	CacheTTL time.Duration

	DataDir string
	XMLTV   bool
}

// Result is the outcome of one channel resolution, tagged with the channel's
// position in the input catalog so ordering survives concurrent completion.
type Result struct {
	Index   int
	Channel fourgtv.Channel
	URL     string
	Err     error
}

// Failure is one channel excluded from the playlist, reported by name.
type Failure struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason"`
}

// Status summarizes the last refresh.
type Status struct {
	RunID    string        `json:"run_id"`
	LastRun  time.Time     `json:"last_run"`
	Duration time.Duration `json:"duration"`
	Channels int           `json:"channels"`
	Resolved int           `json:"resolved"`
	Failures []Failure     `json:"failures,omitempty"`
}
