// SPDX-License-Identifier: MIT

package jobs

import (
	"github.com/twkuo/gtv2m3u/internal/fourgtv"
	"github.com/twkuo/gtv2m3u/internal/normalize"
	"github.com/twkuo/gtv2m3u/internal/playlist"
)

// Assemble splits ordered results into playlist items and a failure report.
// Failed channels are excluded from the playlist but never dropped silently:
// every failure carries the channel name and reason.
func Assemble(results []Result) ([]playlist.Item, []Failure) {
	items := make([]playlist.Item, 0, len(results))
	var failures []Failure
	for _, res := range results {
		name := normalize.DisplayName(res.Channel.Name)
		if res.Err != nil {
			failures = append(failures, Failure{Channel: name, Reason: res.Err.Error()})
			continue
		}
		items = append(items, playlist.Item{
			Name:    name,
			TvgID:   tvgID(res.Channel),
			TvgName: name,
			TvgLogo: res.Channel.Logo,
			Group:   res.Channel.Group,
			URL:     res.URL,
		})
	}
	return items, failures
}

func tvgID(ch fourgtv.Channel) string {
	if ch.ID != "" {
		return ch.ID
	}
	return normalize.StableID(ch.Name)
}
