// SPDX-License-Identifier: MIT

package fourgtv

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockServer is a configurable upstream mock for tests: catalog sets,
// sign-in, resolution, plus per-endpoint failure and delay injection.
type MockServer struct {
	*httptest.Server
	mu       sync.RWMutex
	sets     map[string][]Channel
	urls     map[string][]string // external id -> URL list
	session  string
	rejected map[string]bool // endpoint -> answer success=false
	failures map[string]int  // endpoint -> failures before success
	// per-asset overrides for the resolve endpoint
	assetRejected map[string]bool
	assetFailures map[string]int
	delay         map[string]time.Duration
	calls         map[string]int
}

// NewMockServer starts a mock with default data.
func NewMockServer() *MockServer {
	m := &MockServer{
		sets:          make(map[string][]Channel),
		urls:          make(map[string][]string),
		session:       "mock-session-value",
		rejected:      make(map[string]bool),
		failures:      make(map[string]int),
		assetRejected: make(map[string]bool),
		assetFailures: make(map[string]int),
		delay:         make(map[string]time.Duration),
		calls:         make(map[string]int),
	}
	m.SetDefaultData()

	mux := http.NewServeMux()
	mux.HandleFunc("/AppAccount/SignIn", m.handleSignIn)
	mux.HandleFunc("/Channel/GetChannelBySetId/", m.handleChannels)
	mux.HandleFunc("/App/GetChannelUrl2", m.handleChannelURL)
	m.Server = httptest.NewServer(mux)
	return m
}

// SetDefaultData installs a small realistic catalog.
func (m *MockServer) SetDefaultData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets["1"] = []Channel{
		{ID: "4gtv-live001", ChannelID: 1, Name: "台視", Group: "無線台", Logo: "https://img.4gtv.tv/ttv.png"},
		{ID: "4gtv-live002", ChannelID: 2, Name: "中視", Group: "無線台", Logo: "https://img.4gtv.tv/ctv.png"},
		{ID: "4gtv-live003", ChannelID: 3, Name: "華視", Group: "無線台", Logo: "https://img.4gtv.tv/cts.png"},
	}
	for _, ch := range m.sets["1"] {
		m.urls[ch.ID] = []string{
			fmt.Sprintf("https://cdn.example.test/%s/backup.m3u8", ch.ID),
			fmt.Sprintf("https://cdn.example.test/%s/index.m3u8", ch.ID),
		}
	}
}

// SetChannels replaces one catalog set.
func (m *MockServer) SetChannels(setID string, channels []Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[setID] = channels
}

// SetURLs sets the URL list returned for an external channel id.
func (m *MockServer) SetURLs(externalID string, urls []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[externalID] = urls
}

// Reject makes an endpoint ("signin", "channels", "resolve") answer with
// success=false.
func (m *MockServer) Reject(endpoint string, rejected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[endpoint] = rejected
}

// FailN makes an endpoint answer HTTP 500 for the next n requests.
func (m *MockServer) FailN(endpoint string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = n
}

// RejectAsset makes resolution of one asset answer with success=false.
func (m *MockServer) RejectAsset(assetID string, rejected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assetRejected[assetID] = rejected
}

// FailAssetN makes resolution of one asset answer HTTP 500 for the next n
// requests.
func (m *MockServer) FailAssetN(assetID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assetFailures[assetID] = n
}

// Delay adds an artificial latency to an endpoint.
func (m *MockServer) Delay(endpoint string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay[endpoint] = d
}

// Calls reports how many requests an endpoint received.
func (m *MockServer) Calls(endpoint string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[endpoint]
}

// gate applies call counting, delay, injected transport failures and
// injected rejections. It reports whether the handler should continue.
func (m *MockServer) gate(w http.ResponseWriter, endpoint string) bool {
	m.mu.Lock()
	m.calls[endpoint]++
	d := m.delay[endpoint]
	fail := m.failures[endpoint] > 0
	if fail {
		m.failures[endpoint]--
	}
	rejected := m.rejected[endpoint]
	m.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if fail {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return false
	}
	if rejected {
		writeJSON(w, map[string]any{"Success": false, "Data": nil})
		return false
	}
	return true
}

func (m *MockServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, "signin") {
		return
	}
	if r.Header.Get("4gtv_auth") == "" || r.Header.Get("fsenc_key") == "" {
		writeJSON(w, map[string]any{"Success": false, "Data": nil})
		return
	}
	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()
	writeJSON(w, map[string]any{
		"Success": true,
		"Data":    map[string]string{"fsVALUE": session},
	})
}

func (m *MockServer) handleChannels(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, "channels") {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/Channel/GetChannelBySetId/")
	setID, _, _ := strings.Cut(rest, "/")
	m.mu.RLock()
	channels, ok := m.sets[setID]
	m.mu.RUnlock()
	if !ok {
		writeJSON(w, map[string]any{"Success": false, "Data": nil})
		return
	}
	writeJSON(w, map[string]any{"Success": true, "Data": channels})
}

func (m *MockServer) handleChannelURL(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, "resolve") {
		return
	}
	var payload struct {
		AssetID  string `json:"fsASSET_ID"`
		Validate struct {
			Value  string `json:"fsVALUE"`
			EncKey string `json:"fsENC_KEY"`
		} `json:"clsAPP_IDENTITY_VALIDATE_ARUS"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	urls, ok := m.urls[payload.AssetID]
	validSession := payload.Validate.Value == m.session
	rejected := m.assetRejected[payload.AssetID]
	fail := m.assetFailures[payload.AssetID] > 0
	if fail {
		m.assetFailures[payload.AssetID]--
	}
	m.mu.Unlock()
	if fail {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}
	if rejected || !ok || !validSession {
		writeJSON(w, map[string]any{"Success": false, "Data": nil})
		return
	}
	writeJSON(w, map[string]any{
		"Success": true,
		"Data":    map[string]any{"flstURLs": urls},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
