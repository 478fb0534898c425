// Package testutil provides test servers for the GRID GraphQL endpoint and
// the Data Dragon CDN.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a canned HTTP response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is one GraphQL request received by MockGRID.
type RecordedRequest struct {
	SeriesID string
	Query    string
	Probe    bool
	APIKey   string
}

// MockGRID is a configurable mock GRID series-state server.
//
// By default a probe for a series with a registered version answers with
// that version and a data pull answers with SeriesDocument. Unknown series
// answer with a GraphQL "Series not found" error.
type MockGRID struct {
	server *httptest.Server

	mu       sync.RWMutex
	versions map[string]string
	probes   map[string]MockResponse
	pulls    map[string]MockResponse
	requests []RecordedRequest
}

// NewMockGRID creates and starts a mock GRID server.
func NewMockGRID() *MockGRID {
	mock := &MockGRID{
		versions: make(map[string]string),
		probes:   make(map[string]MockResponse),
		pulls:    make(map[string]MockResponse),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the GraphQL endpoint URL.
func (m *MockGRID) URL() string {
	return m.server.URL + "/graphql"
}

// Close shuts down the mock server.
func (m *MockGRID) Close() {
	m.server.Close()
}

// SetVersion registers a series and the schema version its probe reports.
func (m *MockGRID) SetVersion(seriesID, version string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[seriesID] = version
}

// SetProbeResponse overrides the version probe response for a series.
func (m *MockGRID) SetProbeResponse(seriesID string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes[seriesID] = resp
}

// SetSeriesResponse overrides the data pull response for a series.
func (m *MockGRID) SetSeriesResponse(seriesID string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls[seriesID] = resp
}

// Requests returns a copy of every request received so far.
func (m *MockGRID) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGRID) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// DataPulls returns the data pull requests received for a series.
func (m *MockGRID) DataPulls(seriesID string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range m.Requests() {
		if r.SeriesID == seriesID && !r.Probe {
			out = append(out, r)
		}
	}
	return out
}

// Reset clears recorded requests.
func (m *MockGRID) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

func (m *MockGRID) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req struct {
		Query     string `json:"query"`
		Variables struct {
			SeriesID string `json:"seriesId"`
		} `json:"variables"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rec := RecordedRequest{
		SeriesID: req.Variables.SeriesID,
		Query:    req.Query,
		Probe:    strings.Contains(req.Query, "VersionCheck"),
		APIKey:   r.Header.Get("x-api-key"),
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	version, known := m.versions[rec.SeriesID]
	override, overridden := m.probes[rec.SeriesID]
	if !rec.Probe {
		override, overridden = m.pulls[rec.SeriesID]
	}
	m.mu.Unlock()

	if rec.APIKey == "" {
		writeResponse(w, MockResponse{StatusCode: http.StatusUnauthorized, Body: `{"message":"missing api key"}`})
		return
	}

	switch {
	case overridden:
		writeResponse(w, override)
	case !known:
		writeResponse(w, NewGraphQLErrorResponse("Series not found"))
	case rec.Probe:
		writeResponse(w, NewJSONResponse(VersionDocument(rec.SeriesID, version)))
	default:
		writeResponse(w, NewJSONResponse(SeriesDocument(rec.SeriesID, version, "Alpha", "Beta")))
	}
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewGraphQLErrorResponse creates a 200 OK response carrying an errors array.
func NewGraphQLErrorResponse(message string) MockResponse {
	body, _ := json.Marshal(map[string]any{
		"data":   map[string]any{"seriesState": nil},
		"errors": []map[string]any{{"message": message}},
	})
	return NewJSONResponse(string(body))
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// VersionDocument renders a version probe response body.
func VersionDocument(seriesID, version string) string {
	return fmt.Sprintf(`{"data":{"seriesState":{"id":%q,"version":%q}}}`, seriesID, version)
}

// SeriesDocument renders a one-game series between two teams. Team ids are
// "T-<name>", the blue side is teamA. teamA wins with 10 kills.
func SeriesDocument(seriesID, version, teamA, teamB string) string {
	doc := map[string]any{
		"data": map[string]any{
			"seriesState": map[string]any{
				"id":        seriesID,
				"version":   version,
				"format":    "best-of-1",
				"started":   true,
				"finished":  true,
				"startedAt": "2024-06-01T12:00:00Z",
				"teams": []any{
					map[string]any{"id": "T-" + teamA, "name": teamA, "won": true, "score": 1},
					map[string]any{"id": "T-" + teamB, "name": teamB, "won": false, "score": 0},
				},
				"games": []any{
					map[string]any{
						"id":             seriesID + "-G1",
						"sequenceNumber": 1,
						"started":        true,
						"finished":       true,
						"clock":          map[string]any{"currentSeconds": 1834, "ticking": false},
						"map":            map[string]any{"name": "Summoner's Rift"},
						"draftActions": []any{
							map[string]any{
								"id": "D1", "sequenceNumber": "1", "type": "ban",
								"drafter":   map[string]any{"id": "T-" + teamA, "type": "team"},
								"draftable": map[string]any{"id": "C-Ahri", "type": "character", "name": "Ahri"},
							},
							map[string]any{
								"id": "D2", "sequenceNumber": "2", "type": "pick",
								"drafter":   map[string]any{"id": "T-" + teamB, "type": "team"},
								"draftable": map[string]any{"id": "C-Jinx", "type": "character", "name": "Jinx"},
							},
						},
						"teams": []any{
							gameTeam(teamA, "blue", true, 10, "Aatrox", 4, 1, 3),
							gameTeam(teamB, "red", false, 1, "Jinx", 1, 4, 0),
						},
					},
				},
			},
		},
	}
	body, _ := json.Marshal(doc)
	return string(body)
}

func gameTeam(name, side string, won bool, teamKills int, champion string, kills, deaths, assists int) map[string]any {
	return map[string]any{
		"id":    "T-" + name,
		"name":  name,
		"side":  side,
		"won":   won,
		"kills": teamKills,
		"players": []any{
			map[string]any{
				"id":               "P-" + name,
				"name":             name + " Player",
				"character":        map[string]any{"id": "C-" + champion, "name": champion},
				"kills":            kills,
				"deaths":           deaths,
				"killAssistsGiven": assists,
			},
		},
	}
}
