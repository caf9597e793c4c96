package cache

import (
	"strings"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name       string
		key        Key
		wantPrefix string
	}{
		{
			name:       "simple api",
			key:        Key{API: "list_biz_hosts", Body: []byte(`{"bk_biz_id":2}`)},
			wantPrefix: "cmdb:list_biz_hosts:",
		},
		{
			name:       "topo api",
			key:        Key{API: "list_biz_hosts_topo", Body: []byte(`{"bk_biz_id":2}`)},
			wantPrefix: "cmdb:list_biz_hosts_topo:",
		},
		{
			name:       "empty body",
			key:        Key{API: "search_business", Body: nil},
			wantPrefix: "cmdb:search_business:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("String() = %q, want prefix %q", got, tt.wantPrefix)
			}
		})
	}
}

func TestKey_String_Deterministic(t *testing.T) {
	a := Key{API: "list_biz_hosts", Body: []byte(`{"bk_biz_id":2,"page":{"start":0,"limit":500}}`)}
	b := Key{API: "list_biz_hosts", Body: []byte(`{"bk_biz_id":2,"page":{"start":0,"limit":500}}`)}

	if a.String() != b.String() {
		t.Errorf("identical keys produce different strings: %q vs %q", a.String(), b.String())
	}
}

func TestKey_String_DistinguishesBodies(t *testing.T) {
	a := Key{API: "list_biz_hosts", Body: []byte(`{"page":{"start":0,"limit":500}}`)}
	b := Key{API: "list_biz_hosts", Body: []byte(`{"page":{"start":500,"limit":500}}`)}

	if a.String() == b.String() {
		t.Error("different request bodies share a cache key")
	}
}

func TestKey_String_DistinguishesAPIs(t *testing.T) {
	body := []byte(`{"bk_biz_id":2}`)
	a := Key{API: "list_biz_hosts", Body: body}
	b := Key{API: "list_biz_hosts_topo", Body: body}

	if a.String() == b.String() {
		t.Error("different APIs share a cache key")
	}
}
