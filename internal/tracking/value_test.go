package tracking

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestValueJSON(t *testing.T) {
	ts := time.Date(2026, 5, 17, 9, 30, 0, 123456000, time.UTC)
	original := Values{
		"name":   String("Ada"),
		"age":    Int(36),
		"score":  Float(2),
		"ratio":  Float(0.25),
		"admin":  Bool(true),
		"seen":   Time(ts),
		"gone":   Null(),
		"tags":   List(String("a"), Int(1)),
		"nested": Map(Values{"depth": Int(2), "ok": Bool(false)}),
	}

	enc, err := EncodeValues(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeValues(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(original) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", *enc, Map(original))
	}

	t.Run("integral_float_stays_float", func(t *testing.T) {
		if k := decoded["score"].Kind(); k != KindFloat {
			t.Errorf("expected float kind, got %d", k)
		}
		if k := decoded["age"].Kind(); k != KindInt {
			t.Errorf("expected int kind, got %d", k)
		}
	})

	t.Run("timestamp_decodes_as_time", func(t *testing.T) {
		got, ok := decoded["seen"].AsTime()
		if !ok || !got.Equal(ts) {
			t.Errorf("expected %v, got %v (ok=%v)", ts, got, ok)
		}
	})

	t.Run("non_canonical_timestamps_stay_strings", func(t *testing.T) {
		for _, note := range []string{
			"2024-01-01T10:00:00+02:00",
			"2024-01-01T10:00:00.000Z",
			"2024-01-01T10:00:00-00:00",
		} {
			in := Values{"note": String(note)}
			enc, err := EncodeValues(in)
			if err != nil {
				t.Fatalf("encode %q: %v", note, err)
			}
			out, err := DecodeValues(enc)
			if err != nil {
				t.Fatalf("decode %q: %v", note, err)
			}
			if k := out["note"].Kind(); k != KindString {
				t.Errorf("%q: expected string kind, got %d", note, k)
			}
			if !out.Equal(in) {
				t.Errorf("%q: round trip mismatch, got %s", note, *enc)
			}
		}
	})
}

func TestEncodeValues(t *testing.T) {
	t.Run("empty_encodes_to_nil", func(t *testing.T) {
		for _, vs := range []Values{nil, {}} {
			enc, err := EncodeValues(vs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc != nil {
				t.Errorf("expected nil, got %q", *enc)
			}
		}
	})

	t.Run("decode_null_is_nil", func(t *testing.T) {
		for _, s := range []string{"", "null", "{}"} {
			s := s
			got, err := DecodeValues(&s)
			if err != nil || got != nil {
				t.Errorf("%q: expected nil, got %v (%v)", s, got, err)
			}
		}
	})

	t.Run("non_finite_float_fails", func(t *testing.T) {
		_, err := EncodeValues(Values{"x": Float(math.Inf(1))})
		if err == nil {
			t.Error("expected error for +Inf")
		}
	})
}

func TestEncodeKey(t *testing.T) {
	t.Run("empty_key_rejected", func(t *testing.T) {
		_, err := EncodeKey(nil)
		if !errors.Is(err, ErrEmptyKey) {
			t.Errorf("expected ErrEmptyKey, got %v", err)
		}
	})

	t.Run("stable_ordering", func(t *testing.T) {
		a, _ := EncodeKey(Values{"b": Int(2), "a": String("x")})
		b, _ := EncodeKey(Values{"a": String("x"), "b": Int(2)})
		if a != b || a != `{"a":"x","b":2}` {
			t.Errorf("expected identical sorted encodings, got %s and %s", a, b)
		}
	})
}

func TestColumns(t *testing.T) {
	enc, err := EncodeColumns([]string{"phoneNumber"})
	if err != nil || enc == nil || *enc != `["phoneNumber"]` {
		t.Fatalf("unexpected encoding %v (%v)", enc, err)
	}
	cols, err := DecodeColumns(enc)
	if err != nil || len(cols) != 1 || cols[0] != "phoneNumber" {
		t.Errorf("unexpected decode %v (%v)", cols, err)
	}
	empty, _ := DecodeColumns(nil)
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v", empty)
	}
}

func TestOf(t *testing.T) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(`{"n":1,"f":1.5,"s":"x","l":[true,null]}`), &raw); err != nil {
		t.Fatal(err)
	}
	vs, err := ValuesOf(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Values{
		"n": Float(1),
		"f": Float(1.5),
		"s": String("x"),
		"l": List(Bool(true), Null()),
	}
	if !vs.Equal(want) {
		t.Errorf("got %v, want %v", Map(vs), Map(want))
	}

	if _, err := Of(struct{}{}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
