package pagination

import "testing"

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "zero_uses_default", in: 0, want: DefaultLimit},
		{name: "negative_uses_default", in: -5, want: DefaultLimit},
		{name: "within_range", in: 25, want: 25},
		{name: "capped", in: 1000, want: MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.in); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestLimitRequestDefaults(t *testing.T) {
	r := LimitRequest{}
	r.Defaults()
	if r.Limit != DefaultLimit {
		t.Errorf("expected default limit, got %d", r.Limit)
	}
}

func TestNewListResponse(t *testing.T) {
	resp := NewListResponse[string](nil, 10)
	if resp.Data == nil || resp.Count != 0 || resp.Limit != 10 {
		t.Errorf("unexpected response %+v", resp)
	}
}
