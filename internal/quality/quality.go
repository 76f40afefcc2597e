// SPDX-License-Identifier: MIT

// Package quality rewrites resolved stream URLs to request a higher-bitrate
// rendition where the origin is known to offer one.
package quality

import (
	"net/url"
	"path"
	"strings"
)

// Rule maps an origin to its manifest filenames. A URL is upgraded when its
// host matches HostSuffix and its manifest filename equals DefaultManifest.
type Rule struct {
	HostSuffix      string
	DefaultManifest string
	BestManifest    string
}

// defaultRules covers the known high-bitrate-capable origins. The origin
// serves the top rendition under the numeric bitrate manifest name.
var defaultRules = []Rule{
	{HostSuffix: "4gtv.tv", DefaultManifest: "index.m3u8", BestManifest: "1080.m3u8"},
	{HostSuffix: "4gtvcloud.com", DefaultManifest: "index.m3u8", BestManifest: "1080.m3u8"},
}

// Upgrade rewrites rawURL to the highest known bitrate rendition of its
// origin, or returns it unchanged. Pure and idempotent: once rewritten, the
// filename no longer matches the default manifest, so a second application is
// a no-op. Unparseable URLs pass through untouched.
func Upgrade(rawURL string) string {
	return UpgradeWith(rawURL, defaultRules)
}

// UpgradeWith applies a caller-supplied rule set.
func UpgradeWith(rawURL string, rules []Rule) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	host := u.Hostname()
	base := path.Base(u.Path)

	for _, r := range rules {
		if !matchesHost(host, r.HostSuffix) {
			continue
		}
		if base != r.DefaultManifest {
			return rawURL
		}
		u.Path = path.Join(path.Dir(u.Path), r.BestManifest)
		return u.String()
	}
	return rawURL
}

// matchesHost reports whether host equals suffix or is a subdomain of it.
func matchesHost(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}
