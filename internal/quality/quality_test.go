// SPDX-License-Identifier: MIT

package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpgrade(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"known origin default manifest",
			"https://cdn.4gtv.tv/ch01/index.m3u8?token=abc",
			"https://cdn.4gtv.tv/ch01/1080.m3u8?token=abc",
		},
		{
			"bare origin host",
			"https://4gtv.tv/live/index.m3u8",
			"https://4gtv.tv/live/1080.m3u8",
		},
		{
			"unknown origin unchanged",
			"https://cdn.example.test/ch01/index.m3u8",
			"https://cdn.example.test/ch01/index.m3u8",
		},
		{
			"known origin non-default manifest unchanged",
			"https://cdn.4gtv.tv/ch01/720.m3u8",
			"https://cdn.4gtv.tv/ch01/720.m3u8",
		},
		{
			"suffix must match on label boundary",
			"https://evil-4gtv.tv.example.test/ch01/index.m3u8",
			"https://evil-4gtv.tv.example.test/ch01/index.m3u8",
		},
		{
			"relative URL unchanged",
			"not a url",
			"not a url",
		},
		{
			"empty",
			"",
			"",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Upgrade(tc.in))
		})
	}
}

func TestUpgradeIsIdempotent(t *testing.T) {
	urls := []string{
		"https://cdn.4gtv.tv/ch01/index.m3u8",
		"https://cdn.4gtv.tv/ch01/1080.m3u8",
		"https://cdn.example.test/ch01/index.m3u8",
		"https://4gtvcloud.com/x/index.m3u8",
	}
	for _, u := range urls {
		once := Upgrade(u)
		assert.Equal(t, once, Upgrade(once), "Upgrade must be idempotent for %s", u)
	}
}

func TestUpgradeWithCustomRules(t *testing.T) {
	rules := []Rule{{HostSuffix: "example.org", DefaultManifest: "master.m3u8", BestManifest: "8000.m3u8"}}
	got := UpgradeWith("https://live.example.org/a/master.m3u8", rules)
	assert.Equal(t, "https://live.example.org/a/8000.m3u8", got)
}
