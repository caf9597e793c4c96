// Package testutil provides testing utilities for the CMDB inventory client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// PageCall records one request the mock gateway served.
type PageCall struct {
	API   string
	Start int
	Limit int
	Paged bool
}

// MockCMDB is a configurable mock ESB gateway serving CMDB list APIs with
// the standard {result, code, message, data:{count, info}} envelope.
type MockCMDB struct {
	server *httptest.Server

	mu         sync.Mutex
	records    map[string][]json.RawMessage
	failAPIs   map[string]bool
	failStarts map[string]map[int]bool
	calls      []PageCall
}

// NewMockCMDB creates a new mock gateway.
func NewMockCMDB() *MockCMDB {
	m := &MockCMDB{
		records:    make(map[string][]json.RawMessage),
		failAPIs:   make(map[string]bool),
		failStarts: make(map[string]map[int]bool),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the mock gateway URL.
func (m *MockCMDB) URL() string {
	return m.server.URL
}

// Close shuts down the mock gateway.
func (m *MockCMDB) Close() {
	m.server.Close()
}

// Reset clears call tracking and failure configuration but keeps datasets.
func (m *MockCMDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.failAPIs = make(map[string]bool)
	m.failStarts = make(map[string]map[int]bool)
}

// SetRecords configures the dataset an API serves, in stable order.
func (m *MockCMDB) SetRecords(api string, records ...any) {
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			panic(fmt.Sprintf("testutil: marshal record: %v", err))
		}
		raw = append(raw, data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[api] = raw
}

// FailAPI makes every request to api answer with result=false.
func (m *MockCMDB) FailAPI(api string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAPIs[api] = true
}

// FailWindow makes the page window starting at start answer with
// result=false. Probe windows (limit 1) are unaffected so aggregations get
// past the count phase.
func (m *MockCMDB) FailWindow(api string, start int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStarts[api] == nil {
		m.failStarts[api] = make(map[int]bool)
	}
	m.failStarts[api][start] = true
}

// Calls returns the page calls served for an API, in arrival order.
func (m *MockCMDB) Calls(api string) []PageCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PageCall
	for _, c := range m.calls {
		if c.API == api {
			out = append(out, c)
		}
	}
	return out
}

// RequestCount returns the number of requests served for an API.
func (m *MockCMDB) RequestCount(api string) int {
	return len(m.Calls(api))
}

type pageBody struct {
	Page *struct {
		Start int `json:"start"`
		Limit int `json:"limit"`
	} `json:"page"`
}

func (m *MockCMDB) handle(w http.ResponseWriter, r *http.Request) {
	api := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/c/compapi/v2/cc"), "/")

	var body pageBody
	_ = json.NewDecoder(r.Body).Decode(&body)

	call := PageCall{API: api}
	if body.Page != nil {
		call.Start = body.Page.Start
		call.Limit = body.Page.Limit
		call.Paged = true
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	records := m.records[api]
	failed := m.failAPIs[api] ||
		(call.Paged && call.Limit > 1 && m.failStarts[api][call.Start])
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if failed {
		writeEnvelope(w, false, 1199036, "mock gateway failure", len(records), nil)
		return
	}

	info := records
	if call.Paged {
		start, end := call.Start, call.Start+call.Limit
		if start > len(records) {
			start = len(records)
		}
		if end > len(records) {
			end = len(records)
		}
		info = records[start:end]
	}

	writeEnvelope(w, true, 0, "success", len(records), info)
}

func writeEnvelope(w http.ResponseWriter, result bool, code int, message string, count int, info []json.RawMessage) {
	if info == nil {
		info = []json.RawMessage{}
	}

	envelope := map[string]any{
		"result":  result,
		"code":    code,
		"message": message,
		"data": map[string]any{
			"count": count,
			"info":  info,
		},
	}

	_ = json.NewEncoder(w).Encode(envelope)
}
