package cmdb

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/cmdb-inventory-client/internal/testutil"
)

func testBusiness() map[string]any {
	return map[string]any{
		"bk_biz_id":         2,
		"bk_biz_name":       "payments",
		"bk_biz_maintainer": "alice,bob",
		"bk_biz_productor":  "carol",
		"bk_biz_developer":  "dave,bob",
		"bk_biz_tester":     "erin",
		"operator":          "frank",
	}
}

func TestGetNotifyReceivers_NoGroups(t *testing.T) {
	mock := testutil.NewMockCMDB()
	defer mock.Close()

	svc := newTestService(t, mock, 500)

	got, err := svc.GetNotifyReceivers(context.Background(), 2, "0", nil, "zoe , alice,")
	if err != nil {
		t.Fatalf("GetNotifyReceivers() error = %v", err)
	}

	// Without groups the explicit list passes through untouched: trimmed,
	// but neither deduplicated nor sorted, and no CMDB lookup happens.
	if got != "zoe,alice" {
		t.Errorf("receivers = %q, want %q", got, "zoe,alice")
	}
	if n := mock.RequestCount("search_business"); n != 0 {
		t.Errorf("gateway served %d business lookups, want 0", n)
	}
}

func TestGetNotifyReceivers_Groups(t *testing.T) {
	mock := testutil.NewMockCMDB()
	defer mock.Close()
	mock.SetRecords("search_business", testBusiness())

	svc := newTestService(t, mock, 500)

	tests := []struct {
		name   string
		groups []string
		more   string
		want   string
	}{
		{
			name:   "single group",
			groups: []string{"Maintainers"},
			want:   "alice,bob",
		},
		{
			name:   "groups merge and dedupe",
			groups: []string{"Maintainers", "Developer"},
			want:   "alice,bob,dave",
		},
		{
			name:   "explicit receivers merged sorted",
			groups: []string{"Operator"},
			more:   "zoe,alice",
			want:   "alice,frank,zoe",
		},
		{
			name:   "explicit duplicate collapses",
			groups: []string{"Tester"},
			more:   "erin",
			want:   "erin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.GetNotifyReceivers(context.Background(), 2, "0", tt.groups, tt.more)
			if err != nil {
				t.Fatalf("GetNotifyReceivers() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("receivers = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetNotifyReceivers_UnknownGroup(t *testing.T) {
	mock := testutil.NewMockCMDB()
	defer mock.Close()
	mock.SetRecords("search_business", testBusiness())

	svc := newTestService(t, mock, 500)

	_, err := svc.GetNotifyReceivers(context.Background(), 2, "0", []string{"Wizards"}, "")
	if err == nil {
		t.Fatal("GetNotifyReceivers() should fail for an unknown group")
	}
}

func TestGetNotifyReceivers_BusinessNotUnique(t *testing.T) {
	mock := testutil.NewMockCMDB()
	defer mock.Close()
	mock.SetRecords("search_business", testBusiness(), testBusiness())

	svc := newTestService(t, mock, 500)

	_, err := svc.GetNotifyReceivers(context.Background(), 2, "0", []string{"Maintainers"}, "")
	if !errors.Is(err, ErrBusinessNotUnique) {
		t.Errorf("GetNotifyReceivers() error = %v, want ErrBusinessNotUnique", err)
	}
}

func TestGetNotifyReceivers_LookupFailure(t *testing.T) {
	mock := testutil.NewMockCMDB()
	defer mock.Close()
	mock.SetRecords("search_business", testBusiness())
	mock.FailAPI("search_business")

	svc := newTestService(t, mock, 500)

	_, err := svc.GetNotifyReceivers(context.Background(), 2, "0", []string{"Maintainers"}, "")
	if err == nil {
		t.Fatal("GetNotifyReceivers() should fail when the lookup reports result=false")
	}
}
