// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twkuo/gtv2m3u/internal/fourgtv"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		User:        "someone@example.test",
		Password:    "secret",
		SetIDs:      []string{"1"},
		LivePrefix:  "4gtv-live",
		Concurrency: 3,
		Retries:     3,
		CacheTTL:    time.Hour,
		DataDir:     t.TempDir(),
	}
}

func newTestClient(t *testing.T, srv *fourgtv.MockServer, cfg Config) *fourgtv.Client {
	t.Helper()
	client, err := fourgtv.New(fourgtv.Options{
		Base:      srv.URL,
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		URLIndex:  1,
	})
	require.NoError(t, err)
	return client
}

// The central scenario: one channel resolves cleanly, one is declined by the
// upstream on every attempt, one fails transiently and recovers. The playlist
// must contain exactly the two resolvable channels in catalog order, and the
// declined one must surface in the failure report.
func TestRefreshPartialFailure(t *testing.T) {
	srv := fourgtv.NewMockServer()
	defer srv.Close()

	srv.RejectAsset("4gtv-live002", true)
	srv.FailAssetN("4gtv-live003", 1)

	cfg := testConfig(t)
	client := newTestClient(t, srv, cfg)

	status, err := RefreshWith(context.Background(), cfg, Deps{Client: client, Backoff: noBackoff})
	require.NoError(t, err, "a partial refresh still succeeds")

	assert.Equal(t, 3, status.Channels)
	assert.Equal(t, 2, status.Resolved)
	require.Len(t, status.Failures, 1)
	assert.Equal(t, "中視", status.Failures[0].Channel)

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "playlist.m3u"))
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "#EXTM3U\n"))
	assert.Equal(t, 2, strings.Count(content, "#EXTINF:"))
	assert.NotContains(t, content, "中視")

	// Catalog order survives concurrent resolution.
	first := strings.Index(content, "台視")
	second := strings.Index(content, "華視")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}

func TestRefreshAllChannelsResolve(t *testing.T) {
	srv := fourgtv.NewMockServer()
	defer srv.Close()

	cfg := testConfig(t)
	cfg.XMLTV = true
	client := newTestClient(t, srv, cfg)

	status, err := RefreshWith(context.Background(), cfg, Deps{Client: client, Backoff: noBackoff})
	require.NoError(t, err)
	assert.Equal(t, 3, status.Resolved)
	assert.Empty(t, status.Failures)
	assert.NotEmpty(t, status.RunID)

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "playlist.m3u"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "#EXTINF:"))

	xml, err := os.ReadFile(filepath.Join(cfg.DataDir, "xmltv.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(xml), `id="4gtv-live001"`)
}

func TestRefreshSignInRejected(t *testing.T) {
	srv := fourgtv.NewMockServer()
	defer srv.Close()
	srv.Reject("signin", true)

	cfg := testConfig(t)
	client := newTestClient(t, srv, cfg)

	_, err := RefreshWith(context.Background(), cfg, Deps{Client: client, Backoff: noBackoff})
	require.Error(t, err)
	assert.ErrorIs(t, err, fourgtv.ErrRejected)
	assert.Equal(t, 1, srv.Calls("signin"), "a rejected sign-in must not be retried")
	assert.NoFileExists(t, filepath.Join(cfg.DataDir, "playlist.m3u"))
}

func TestRefreshSignInRetriesOutage(t *testing.T) {
	srv := fourgtv.NewMockServer()
	defer srv.Close()
	srv.FailN("signin", 2)

	cfg := testConfig(t)
	client := newTestClient(t, srv, cfg)

	status, err := RefreshWith(context.Background(), cfg, Deps{Client: client, Backoff: noBackoff})
	require.NoError(t, err)
	assert.Equal(t, 3, status.Resolved)
	assert.Equal(t, 3, srv.Calls("signin"))
}

func TestRefreshEmptyCatalog(t *testing.T) {
	srv := fourgtv.NewMockServer()
	defer srv.Close()
	srv.SetChannels("1", nil)

	cfg := testConfig(t)
	client := newTestClient(t, srv, cfg)

	_, err := RefreshWith(context.Background(), cfg, Deps{Client: client, Backoff: noBackoff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable channels")
}

func TestRefreshLivePrefixFilter(t *testing.T) {
	srv := fourgtv.NewMockServer()
	defer srv.Close()
	srv.SetChannels("1", []fourgtv.Channel{
		{ID: "4gtv-live001", ChannelID: 1, Name: "台視", Group: "無線台"},
		{ID: "4gtv-vod777", ChannelID: 7, Name: "隨選電影", Group: "電影"},
	})
	srv.SetURLs("4gtv-vod777", []string{"https://cdn.example.test/vod/backup.m3u8", "https://cdn.example.test/vod/index.m3u8"})

	cfg := testConfig(t)
	client := newTestClient(t, srv, cfg)

	status, err := RefreshWith(context.Background(), cfg, Deps{Client: client, Backoff: noBackoff})
	require.NoError(t, err)
	assert.Equal(t, 1, status.Channels)

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "playlist.m3u"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "隨選電影")
}
