package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/cmdb-inventory-client/internal/testutil"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/batch"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/client"
	"github.com/Sternrassler/cmdb-inventory-client/pkg/cmdb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func setupTestService(t *testing.T) (*cmdb.Service, *testutil.MockCMDB) {
	t.Helper()

	mock := testutil.NewMockCMDB()
	t.Cleanup(mock.Close)

	c, err := client.New(client.DefaultConfig(mock.URL(), "inventory", "secret", "admin"))
	if err != nil {
		t.Fatalf("Failed to create CMDB client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	svc := cmdb.NewService(c, batch.Config{
		Limit:          500,
		MaxConcurrency: 4,
		Logger:         zerolog.Nop(),
	})

	return svc, mock
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint_NoRedis(t *testing.T) {
	handler := readyHandler(nil)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 without Redis configured, got %d", w.Result().StatusCode)
	}
}

func TestParseHostQuery(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantErr    bool
		wantBizID  int64
		wantFields int
		wantIPs    int
	}{
		{
			name:      "biz id only",
			url:       "/api/v1/hosts?biz_id=2",
			wantBizID: 2,
		},
		{
			name:       "fields and ips",
			url:        "/api/v1/hosts?biz_id=2&fields=bk_host_id,bk_host_innerip&ips=10.0.0.1,10.0.0.2",
			wantBizID:  2,
			wantFields: 2,
			wantIPs:    2,
		},
		{
			name:    "missing biz id",
			url:     "/api/v1/hosts",
			wantErr: true,
		},
		{
			name:    "non-numeric biz id",
			url:     "/api/v1/hosts?biz_id=payments",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			q, err := parseHostQuery(req)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if q.bizID != tt.wantBizID {
				t.Errorf("bizID = %d, want %d", q.bizID, tt.wantBizID)
			}
			if len(q.fields) != tt.wantFields {
				t.Errorf("fields = %v, want %d entries", q.fields, tt.wantFields)
			}
			if len(q.ips) != tt.wantIPs {
				t.Errorf("ips = %v, want %d entries", q.ips, tt.wantIPs)
			}
		})
	}
}

func TestHostsHandler(t *testing.T) {
	svc, mock := setupTestService(t)
	mock.SetRecords("list_biz_hosts",
		map[string]any{"bk_host_id": 1, "bk_host_innerip": "10.0.0.1"},
		map[string]any{"bk_host_id": 2, "bk_host_innerip": "10.0.0.2"},
	)

	handler := hostsHandler(svc, "0")

	req := httptest.NewRequest("GET", "/api/v1/hosts?biz_id=2", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var hosts []cmdb.Host
	if err := json.NewDecoder(resp.Body).Decode(&hosts); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(hosts) != 2 {
		t.Errorf("Expected 2 hosts, got %d", len(hosts))
	}
}

func TestHostsHandler_BadRequest(t *testing.T) {
	svc, _ := setupTestService(t)
	handler := hostsHandler(svc, "0")

	req := httptest.NewRequest("GET", "/api/v1/hosts?biz_id=nope", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc, mock := setupTestService(t)
	mock.SetRecords("list_biz_hosts", map[string]any{"bk_host_id": 1})

	// One aggregation so the batch metrics have been incremented.
	handler := hostsHandler(svc, "0")
	req := httptest.NewRequest("GET", "/api/v1/hosts?biz_id=2", nil)
	handler(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "cmdb_batch_pages_total") {
		t.Error("Expected metrics output to contain cmdb_batch_pages_total")
	}
}
