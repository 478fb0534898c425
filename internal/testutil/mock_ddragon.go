package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockChampion is one champion served by MockDDragon.
type MockChampion struct {
	Key     string
	Name    string
	Title   string
	Tags    []string
	Partype string
}

// DefaultChampions covers the names with GRID spelling quirks.
var DefaultChampions = []MockChampion{
	{Key: "Ahri", Name: "Ahri", Title: "the Nine-Tailed Fox", Tags: []string{"Mage", "Assassin"}, Partype: "Mana"},
	{Key: "Kaisa", Name: "Kai'Sa", Title: "Daughter of the Void", Tags: []string{"Marksman"}, Partype: "Mana"},
	{Key: "MonkeyKing", Name: "Wukong", Title: "the Monkey King", Tags: []string{"Fighter", "Tank"}, Partype: "Mana"},
	{Key: "Nunu", Name: "Nunu & Willump", Title: "the Boy and His Yeti", Tags: []string{"Tank", "Mage"}, Partype: "Mana"},
	{Key: "Renata", Name: "Renata Glasc", Title: "the Chem-Baroness", Tags: []string{"Support", "Mage"}, Partype: "Mana"},
	{Key: "Zed", Name: "Zed", Title: "the Master of Shadows", Tags: []string{"Assassin"}, Partype: "Energy"},
}

// MockDDragon is a mock Data Dragon CDN. It serves versions.json and one
// champion.json per version, with ETags and 304 support.
type MockDDragon struct {
	server *httptest.Server

	mu        sync.RWMutex
	versions  []string
	champions []MockChampion
	hits      map[string]int
	notMod    int
	failing   bool
}

// NewMockDDragon creates and starts a mock CDN serving DefaultChampions.
func NewMockDDragon(versions ...string) *MockDDragon {
	if len(versions) == 0 {
		versions = []string{"14.10.1", "14.9.1"}
	}
	mock := &MockDDragon{
		versions:  versions,
		champions: DefaultChampions,
		hits:      make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the CDN base URL.
func (m *MockDDragon) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDDragon) Close() {
	m.server.Close()
}

// SetFailing makes every request answer 500.
func (m *MockDDragon) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

// Hits returns how many requests reached path.
func (m *MockDDragon) Hits(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits[path]
}

// NotModified returns how many 304 responses were sent.
func (m *MockDDragon) NotModified() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notMod
}

func (m *MockDDragon) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[r.URL.Path]++

	if m.failing {
		writeResponse(w, NewServerErrorResponse())
		return
	}

	var body []byte
	switch {
	case r.URL.Path == "/api/versions.json":
		body, _ = json.Marshal(m.versions)
	case strings.HasPrefix(r.URL.Path, "/cdn/") && strings.HasSuffix(r.URL.Path, "/data/en_US/champion.json"):
		version := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/cdn/"), "/data/en_US/champion.json")
		body = m.championDocument(version)
	default:
		http.NotFound(w, r)
		return
	}

	etag := `"` + r.URL.Path + `"`
	if r.Header.Get("If-None-Match") == etag {
		m.notMod++
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "max-age=0")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockDDragon) championDocument(version string) []byte {
	data := make(map[string]any, len(m.champions))
	for i, c := range m.champions {
		data[c.Key] = map[string]any{
			"id":      c.Key,
			"key":     strings.Repeat("1", i+1),
			"name":    c.Name,
			"title":   c.Title,
			"tags":    c.Tags,
			"partype": c.Partype,
		}
	}
	body, _ := json.Marshal(map[string]any{
		"type":    "champion",
		"format":  "standAloneComplex",
		"version": version,
		"data":    data,
	})
	return body
}
