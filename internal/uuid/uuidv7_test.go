package uuid

import "testing"

func TestNew(t *testing.T) {
	t.Run("valid_v7", func(t *testing.T) {
		id := New()
		if !IsValid(id) {
			t.Fatalf("expected valid uuid, got %q", id)
		}
		if id[14] != '7' {
			t.Errorf("expected version 7, got %q", id)
		}
	})

	t.Run("monotonic", func(t *testing.T) {
		prev := New()
		for i := 0; i < 1000; i++ {
			next := New()
			if next <= prev {
				t.Fatalf("expected %s > %s", next, prev)
			}
			prev = next
		}
	})
}

func TestParse(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid uuid")
	}
	got, err := Parse("0190A5C6-1B2C-7D3E-8F40-123456789ABC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190a5c6-1b2c-7d3e-8f40-123456789abc" {
		t.Errorf("expected lower-cased uuid, got %s", got)
	}
}
