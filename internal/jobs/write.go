// SPDX-License-Identifier: MIT

package jobs

import (
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/twkuo/gtv2m3u/internal/epg"
	"github.com/twkuo/gtv2m3u/internal/playlist"
)

// writeM3U writes the playlist atomically: fsync before rename, so a crash
// mid-write never leaves a truncated playlist behind.
func writeM3U(logger zerolog.Logger, path string, items []playlist.Item) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending M3U file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending M3U file")
		}
	}()

	if err := playlist.WriteM3U(pending, items); err != nil {
		return fmt.Errorf("write M3U data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace M3U file: %w", err)
	}
	return nil
}

// writeXMLTV writes the channel-list XMLTV with the same atomicity.
func writeXMLTV(logger zerolog.Logger, path string, channels []epg.Channel) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending XMLTV file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending XMLTV file")
		}
	}()

	if err := epg.WriteTo(pending, channels); err != nil {
		return fmt.Errorf("write XMLTV data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace XMLTV file: %w", err)
	}
	return nil
}
