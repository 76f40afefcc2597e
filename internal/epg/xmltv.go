// SPDX-License-Identifier: MIT

// Package epg writes the XMLTV channel list. It is a read-only consumer of
// the merged catalog: downstream guide tools match programmes against these
// channel ids, but programme data itself comes from elsewhere.
package epg

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/twkuo/gtv2m3u/internal/fourgtv"
	"github.com/twkuo/gtv2m3u/internal/normalize"
)

type TV struct {
	XMLName   xml.Name  `xml:"tv"`
	Generator string    `xml:"generator-info-name,attr,omitempty"`
	Channels  []Channel `xml:"channel"`
}

type Channel struct {
	ID          string   `xml:"id,attr"`
	DisplayName []string `xml:"display-name"`
	Icon        *Icon    `xml:"icon,omitempty"`
}

type Icon struct {
	Src string `xml:"src,attr"`
}

// ChannelsFromCatalog maps catalog entries onto XMLTV channel elements. The
// external id is the channel id; entries without one fall back to a
// name-derived stable id.
func ChannelsFromCatalog(catalog []fourgtv.Channel) []Channel {
	out := make([]Channel, 0, len(catalog))
	for _, ch := range catalog {
		id := ch.ID
		if id == "" {
			id = normalize.StableID(ch.Name)
		}
		x := Channel{
			ID:          id,
			DisplayName: []string{normalize.DisplayName(ch.Name)},
		}
		if ch.Logo != "" {
			x.Icon = &Icon{Src: ch.Logo}
		}
		out = append(out, x)
	}
	return out
}

// WriteTo serializes the channel list as an XMLTV document.
func WriteTo(w io.Writer, channels []Channel) error {
	tv := TV{Generator: "gtv2m3u", Channels: channels}
	out, err := xml.MarshalIndent(tv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal xmltv: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
