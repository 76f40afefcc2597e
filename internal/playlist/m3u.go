// SPDX-License-Identifier: MIT

// Package playlist serializes resolved channels into extended-M3U text.
package playlist

import (
	"bytes"
	"fmt"
	"io"
)

// Item is one playable playlist entry.
type Item struct {
	Name    string
	TvgID   string
	TvgName string
	TvgLogo string
	Group   string
	URL     string
}

// WriteM3U writes the header line followed by an EXTINF/URL pair per item.
func WriteM3U(w io.Writer, items []Item) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	for _, it := range items {
		buf.WriteString(fmt.Sprintf(
			`#EXTINF:-1 tvg-id="%s" tvg-name="%s" tvg-logo="%s" group-title="%s",%s`+"\n",
			it.TvgID, it.TvgName, it.TvgLogo, it.Group, it.Name,
		))
		buf.WriteString(it.URL + "\n")
	}
	_, err := io.Copy(w, buf)
	return err
}
