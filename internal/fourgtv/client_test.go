// SPDX-License-Identifier: MIT

package fourgtv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twkuo/gtv2m3u/internal/auth"
)

func newTestClient(t *testing.T, mock *MockServer) *Client {
	t.Helper()
	c, err := New(Options{
		Base:      mock.URL,
		UserAgent: "test-agent",
		Timeout:   2 * time.Second,
		URLIndex:  1,
	})
	require.NoError(t, err)
	return c
}

func testSession(t *testing.T) Session {
	t.Helper()
	m, err := auth.Derive("tester", time.Now())
	require.NoError(t, err)
	return Session{Material: m, Value: "mock-session-value"}
}

func TestSignIn(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock)

	m, err := auth.Derive("tester", time.Now())
	require.NoError(t, err)

	value, err := c.SignIn(context.Background(), "tester", "secret", m)
	require.NoError(t, err)
	assert.Equal(t, "mock-session-value", value)
	assert.Equal(t, 1, mock.Calls("signin"))
}

func TestSignInRejected(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.Reject("signin", true)
	c := newTestClient(t, mock)

	m, err := auth.Derive("tester", time.Now())
	require.NoError(t, err)

	_, err = c.SignIn(context.Background(), "tester", "wrong", m)
	require.ErrorIs(t, err, ErrRejected)
}

func TestSignInServerError(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.FailN("signin", 1)
	c := newTestClient(t, mock)

	m, err := auth.Derive("tester", time.Now())
	require.NoError(t, err)

	_, err = c.SignIn(context.Background(), "tester", "secret", m)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestChannels(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock)

	channels, err := c.Channels(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, channels, 3)
	assert.Equal(t, "4gtv-live001", channels[0].ID)
	assert.Equal(t, 1, channels[0].ChannelID)
	assert.Equal(t, "台視", channels[0].Name)
	assert.Equal(t, "無線台", channels[0].Group)
}

func TestChannelsUnknownSet(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock)

	_, err := c.Channels(context.Background(), "99")
	require.ErrorIs(t, err, ErrRejected)
}

func TestChannelURL(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock)

	url, err := c.ChannelURL(context.Background(), Channel{ID: "4gtv-live001", ChannelID: 1}, testSession(t))
	require.NoError(t, err)
	// Index 1 of the URL list is canonical.
	assert.Equal(t, "https://cdn.example.test/4gtv-live001/index.m3u8", url)
}

func TestChannelURLBadSession(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	c := newTestClient(t, mock)

	s := testSession(t)
	s.Value = "stale"
	_, err := c.ChannelURL(context.Background(), Channel{ID: "4gtv-live001", ChannelID: 1}, s)
	require.ErrorIs(t, err, ErrRejected)
}

func TestChannelURLListTooShort(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.SetURLs("4gtv-live001", []string{"https://cdn.example.test/only-one.m3u8"})
	c := newTestClient(t, mock)

	_, err := c.ChannelURL(context.Background(), Channel{ID: "4gtv-live001", ChannelID: 1}, testSession(t))
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestChannelURLTimeout(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()
	mock.Delay("resolve", 300*time.Millisecond)

	c, err := New(Options{Base: mock.URL, Timeout: 50 * time.Millisecond, URLIndex: 1})
	require.NoError(t, err)

	_, err = c.ChannelURL(context.Background(), Channel{ID: "4gtv-live001", ChannelID: 1}, testSession(t))
	require.ErrorIs(t, err, ErrTimeout)
}

func TestNewRejectsBadProxy(t *testing.T) {
	_, err := New(Options{Base: "https://api2.4gtv.tv", Proxy: "://bad"})
	require.Error(t, err)
}
