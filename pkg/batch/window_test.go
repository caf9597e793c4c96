package batch

import (
	"reflect"
	"testing"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		count int
		limit int
		want  []Window
	}{
		{
			name:  "zero count yields empty plan",
			count: 0,
			limit: 500,
			want:  nil,
		},
		{
			name:  "single record",
			count: 1,
			limit: 500,
			want:  []Window{{Start: 0, Limit: 500}},
		},
		{
			name:  "count below limit",
			count: 499,
			limit: 500,
			want:  []Window{{Start: 0, Limit: 500}},
		},
		{
			name:  "count equals limit",
			count: 500,
			limit: 500,
			want:  []Window{{Start: 0, Limit: 500}},
		},
		{
			name:  "count just above limit",
			count: 501,
			limit: 500,
			want:  []Window{{Start: 0, Limit: 500}, {Start: 500, Limit: 500}},
		},
		{
			name:  "three full windows",
			count: 1200,
			limit: 500,
			want: []Window{
				{Start: 0, Limit: 500},
				{Start: 500, Limit: 500},
				{Start: 1000, Limit: 500},
			},
		},
		{
			name:  "small limit",
			count: 5,
			limit: 2,
			want:  []Window{{Start: 0, Limit: 2}, {Start: 2, Limit: 2}, {Start: 4, Limit: 2}},
		},
		{
			name:  "non-positive limit",
			count: 10,
			limit: 0,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.count, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan(%d, %d) = %v, want %v", tt.count, tt.limit, got, tt.want)
			}
		})
	}
}

func TestPlan_WindowsAreContiguous(t *testing.T) {
	windows := Plan(12345, 500)

	next := 0
	for i, w := range windows {
		if w.Start != next {
			t.Errorf("window %d starts at %d, want %d", i, w.Start, next)
		}
		if w.Limit != 500 {
			t.Errorf("window %d requests limit %d, want 500", i, w.Limit)
		}
		next += 500
	}

	if next < 12345 {
		t.Errorf("plan covers [0, %d), want at least [0, 12345)", next)
	}
}
