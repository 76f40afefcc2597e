// SPDX-License-Identifier: MIT

// Package fourgtv is the HTTP client for the upstream channel API: catalog
// listing, account sign-in and per-channel stream URL resolution.
package fourgtv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twkuo/gtv2m3u/internal/auth"
)

// Device identification presented to the upstream on every call.
const (
	deviceName    = "iOS"
	deviceVersion = "3.2.8"
	deviceType    = "mobile"
	refererURL    = "https://www.4gtv.tv/"
)

// Session is the complete per-user, per-day credential consumed by resolution
// calls. Immutable once built; safe for concurrent reads.
type Session struct {
	auth.Material
	// Value is the opaque session token returned by sign-in.
	Value string
}

// Channel is one entry of the upstream catalog.
type Channel struct {
	// ID is the stable external catalog key (e.g. "4gtv-live001").
	ID string `json:"fs4GTV_ID"`
	// ChannelID is the internal numeric id used by resolution calls.
	ChannelID int    `json:"fnID"`
	Name      string `json:"fsNAME"`
	Group     string `json:"fsTYPE_NAME"`
	Logo      string `json:"fsLOGO_MOBILE"`
}

// Options configures a Client.
type Options struct {
	Base      string
	UserAgent string
	Timeout   time.Duration
	// Proxy applies to resolution calls only; sign-in and catalog requests
	// always use the direct transport.
	Proxy string
	// URLIndex selects the canonical entry of the upstream URL list.
	// The upstream contract places the playable manifest at index 1.
	URLIndex int
}

// Client talks to the upstream API.
type Client struct {
	base     string
	ua       string
	http     *http.Client // direct transport
	resolve  *http.Client // proxied transport for resolution calls
	urlIndex int
}

// New builds a Client. An invalid proxy URL is reported instead of being
// silently dropped, since the operator asked for it explicitly.
func New(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	direct := &http.Client{Timeout: timeout}

	resolve := direct
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("fourgtv: invalid proxy URL %q: %w", opts.Proxy, err)
		}
		resolve = &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	return &Client{
		base:     strings.TrimRight(opts.Base, "/"),
		ua:       opts.UserAgent,
		http:     direct,
		resolve:  resolve,
		urlIndex: opts.URLIndex,
	}, nil
}

// envelope is the common upstream response wrapper.
type envelope struct {
	Success bool            `json:"Success"`
	Data    json.RawMessage `json:"Data"`
}

// SignIn completes a credential: it posts the account identity together with
// the derived material and returns the upstream session value.
func (c *Client) SignIn(ctx context.Context, user, password string, m auth.Material) (string, error) {
	payload := map[string]string{
		"fsUSER":     user,
		"fsPASSWORD": password,
		"fsENC_KEY":  m.EncKey,
	}
	req, err := c.newJSONRequest(ctx, c.base+"/AppAccount/SignIn", payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("fsenc_key", m.EncKey)
	req.Header.Set("fsdevice", deviceName)
	req.Header.Set("fsversion", deviceVersion)
	req.Header.Set("4gtv_auth", m.Signature)

	var data struct {
		Value string `json:"fsVALUE"`
	}
	if err := c.do(c.http, req, "signin", &data); err != nil {
		return "", err
	}
	if data.Value == "" {
		return "", &APIError{Sentinel: ErrBadResponse, Operation: "signin", Detail: "response lacks session value"}
	}
	return data.Value, nil
}

// Channels fetches one catalog set.
func (c *Client) Channels(ctx context.Context, setID string) ([]Channel, error) {
	u := fmt.Sprintf("%s/Channel/GetChannelBySetId/%s/pc/L/V", c.base, url.PathEscape(setID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fourgtv: build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", "https://www.4gtv.tv")
	req.Header.Set("Referer", refererURL)
	req.Header.Set("User-Agent", c.ua)

	var data []Channel
	if err := c.do(c.http, req, "channels", &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ChannelURL resolves the current stream URL of one channel. The upstream
// returns a list of candidate URLs; the configured index is canonical.
func (c *Client) ChannelURL(ctx context.Context, ch Channel, s Session) (string, error) {
	payload := map[string]any{
		"fnCHANNEL_ID": ch.ChannelID,
		"clsAPP_IDENTITY_VALIDATE_ARUS": map[string]string{
			"fsVALUE":   s.Value,
			"fsENC_KEY": s.EncKey,
		},
		"fsASSET_ID":    ch.ID,
		"fsDEVICE_TYPE": deviceType,
	}
	req, err := c.newJSONRequest(ctx, c.base+"/App/GetChannelUrl2", payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("fsenc_key", s.EncKey)
	req.Header.Set("fsvalue", "")
	req.Header.Set("fsdevice", deviceName)
	req.Header.Set("fsversion", deviceVersion)
	req.Header.Set("4gtv_auth", s.Signature)
	req.Header.Set("Referer", refererURL)

	var data struct {
		URLs []string `json:"flstURLs"`
	}
	if err := c.do(c.resolve, req, "resolve", &data); err != nil {
		return "", err
	}
	if c.urlIndex >= len(data.URLs) {
		return "", &APIError{
			Sentinel:  ErrBadResponse,
			Operation: "resolve",
			Detail:    fmt.Sprintf("URL list has %d entries, need index %d", len(data.URLs), c.urlIndex),
		}
	}
	streamURL := data.URLs[c.urlIndex]
	if streamURL == "" {
		return "", &APIError{Sentinel: ErrBadResponse, Operation: "resolve", Detail: "empty URL at canonical index"}
	}
	return streamURL, nil
}

func (c *Client) newJSONRequest(ctx context.Context, u string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fourgtv: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fourgtv: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.ua)
	return req, nil
}

// do executes the request, unwraps the success envelope and decodes Data into
// out. Transport errors, non-2xx statuses and success=false all map onto the
// package sentinels.
func (c *Client) do(hc *http.Client, req *http.Request, op string, out any) error {
	res, err := hc.Do(req)
	if err != nil {
		sentinel := ErrUnavailable
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			sentinel = ErrTimeout
		} else if errors.Is(err, context.DeadlineExceeded) {
			sentinel = ErrTimeout
		}
		return &APIError{Sentinel: sentinel, Operation: op, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode >= 500:
		return &APIError{Sentinel: ErrUnavailable, Operation: op, Status: res.StatusCode}
	case res.StatusCode >= 400:
		return &APIError{Sentinel: ErrRejected, Operation: op, Status: res.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return &APIError{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	}
	if !env.Success {
		return &APIError{Sentinel: ErrRejected, Operation: op, Status: res.StatusCode, Detail: "success flag is false"}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
		}
	}
	return nil
}
