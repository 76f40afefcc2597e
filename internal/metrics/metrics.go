// SPDX-License-Identifier: MIT

// Package metrics exposes pipeline counters. In serve mode they are scraped
// via /metrics; in one-shot mode they still feed the end-of-run log summary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogSetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gtv2m3u_catalog_sets_total",
		Help: "Catalog set fetches by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	catalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gtv2m3u_catalog_channels",
		Help: "Channels in the merged catalog after de-duplication (last run)",
	})

	signInTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gtv2m3u_signin_total",
		Help: "Sign-in completions by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gtv2m3u_resolutions_total",
		Help: "Channel resolutions by outcome",
	}, []string{"outcome"}) // outcome=success|failure|cache_hit

	channelsWritten = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gtv2m3u_playlist_channels_written",
		Help: "Channels written to the playlist (last run)",
	})

	refreshFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gtv2m3u_refresh_failures_total",
		Help: "Pipeline failures by stage",
	}, []string{"stage"}) // stage=auth|catalog|write_m3u|xmltv|history
)

func IncCatalogSet(outcome string) {
	catalogSetsTotal.WithLabelValues(outcome).Inc()
}

func SetCatalogChannels(n int) {
	catalogChannels.Set(float64(n))
}

func IncSignIn(outcome string) {
	signInTotal.WithLabelValues(outcome).Inc()
}

func IncResolution(outcome string) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
}

func SetChannelsWritten(n int) {
	channelsWritten.Set(float64(n))
}

func IncRefreshFailure(stage string) {
	refreshFailuresTotal.WithLabelValues(stage).Inc()
}
