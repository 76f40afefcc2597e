// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"strings"

	xglog "github.com/twkuo/gtv2m3u/internal/log"
	"github.com/twkuo/gtv2m3u/internal/metrics"

	"github.com/twkuo/gtv2m3u/internal/fourgtv"
)

// FetchCatalog retrieves every configured catalog set and merges them,
// de-duplicating by external channel id with first-seen-wins in set order.
// A failing set is logged and skipped; a partial catalog beats none.
func FetchCatalog(ctx context.Context, client APIClient, setIDs []string) []fourgtv.Channel {
	logger := xglog.WithComponent("catalog")

	seen := make(map[string]struct{})
	var merged []fourgtv.Channel
	for _, setID := range setIDs {
		channels, err := client.Channels(ctx, setID)
		if err != nil {
			metrics.IncCatalogSet("failure")
			logger.Warn().
				Err(err).
				Str("event", "catalog.set_failed").
				Str("set", setID).
				Msg("catalog set fetch failed, skipping")
			continue
		}
		metrics.IncCatalogSet("success")

		duplicates := 0
		for _, ch := range channels {
			if _, dup := seen[ch.ID]; dup {
				duplicates++
				continue
			}
			seen[ch.ID] = struct{}{}
			merged = append(merged, ch)
		}
		logger.Info().
			Str("event", "catalog.set_fetched").
			Str("set", setID).
			Int("channels", len(channels)).
			Int("duplicates", duplicates).
			Msg("catalog set merged")
	}
	return merged
}

// FilterByPrefix keeps the channels whose external id starts with prefix.
// An empty prefix keeps everything.
func FilterByPrefix(channels []fourgtv.Channel, prefix string) []fourgtv.Channel {
	if prefix == "" {
		return channels
	}
	out := make([]fourgtv.Channel, 0, len(channels))
	for _, ch := range channels {
		if strings.HasPrefix(ch.ID, prefix) {
			out = append(out, ch)
		}
	}
	return out
}
