// SPDX-License-Identifier: MIT

package playlist

import (
	"strings"
	"testing"
)

func TestWriteM3UTable(t *testing.T) {
	tests := []struct {
		name   string
		items  []Item
		expect []string
	}{
		{
			name: "basic with logo and group",
			items: []Item{{
				Name: "台視", TvgID: "4gtv-live001", TvgName: "台視", Group: "無線台",
				TvgLogo: "https://img.4gtv.tv/ttv.png", URL: "https://cdn.example.test/ttv/1080.m3u8",
			}},
			expect: []string{
				"#EXTM3U",
				`tvg-id="4gtv-live001"`,
				`tvg-name="台視"`,
				`tvg-logo="https://img.4gtv.tv/ttv.png"`,
				`group-title="無線台"`,
				",台視",
				"https://cdn.example.test/ttv/1080.m3u8",
			},
		},
		{
			name: "missing logo keeps stable attributes",
			items: []Item{{
				Name: "中視", TvgID: "4gtv-live002", TvgName: "中視", Group: "無線台",
				URL: "https://cdn.example.test/ctv/index.m3u8",
			}},
			expect: []string{
				`tvg-id="4gtv-live002"`,
				`tvg-logo=""`,
				`group-title="無線台"`,
			},
		},
		{
			name:   "empty playlist is just the header",
			items:  nil,
			expect: []string{"#EXTM3U\n"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b strings.Builder
			if err := WriteM3U(&b, tc.items); err != nil {
				t.Fatalf("WriteM3U failed: %v", err)
			}
			out := b.String()
			for _, want := range tc.expect {
				if !strings.Contains(out, want) {
					t.Fatalf("missing substring %q\n--- output ---\n%s", want, out)
				}
			}
			if strings.Count(out, "#EXTINF:") != len(tc.items) {
				t.Fatalf("expected %d EXTINF lines, got %d", len(tc.items), strings.Count(out, "#EXTINF:"))
			}
		})
	}
}

func TestWriteM3UPairsLines(t *testing.T) {
	items := []Item{
		{Name: "A", TvgID: "a", URL: "https://cdn.example.test/a.m3u8"},
		{Name: "B", TvgID: "b", URL: "https://cdn.example.test/b.m3u8"},
	}
	var b strings.Builder
	if err := WriteM3U(&b, items); err != nil {
		t.Fatalf("WriteM3U failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines (header + 2 pairs), got %d", len(lines))
	}
	if lines[2] != items[0].URL || lines[4] != items[1].URL {
		t.Fatalf("URL lines out of place:\n%s", b.String())
	}
}
