package tracking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which member of the Value union is set.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindMap
	KindList
)

// Value is a schema-less but typed scalar, map or list. It is used both for
// entity field values and for free-form event payloads, and round-trips
// through JSON. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bln  bool
	tm   time.Time
	m    Values
	list []Value
}

// Values maps field or payload keys to values.
type Values map[string]Value

func Null() Value            { return Value{} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Int(n int64) Value      { return Value{kind: KindInt, num: n} }
func Float(f float64) Value  { return Value{kind: KindFloat, flt: f} }
func Bool(b bool) Value      { return Value{kind: KindBool, bln: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, tm: t.UTC()} }
func List(vs ...Value) Value { return Value{kind: KindList, list: append([]Value(nil), vs...)} }
func Map(m Values) Value     { return Value{kind: KindMap, m: m.Clone()} }
func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// OptString returns null for a nil pointer.
func OptString(p *string) Value {
	if p == nil {
		return Null()
	}
	return String(*p)
}

// OptTime returns null for a nil pointer.
func OptTime(p *time.Time) Value {
	if p == nil {
		return Null()
	}
	return Time(*p)
}

// Of converts a plain Go value into a Value. It accepts the types produced
// by encoding/json plus the common scalar, pointer and time types.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case Values:
		return Map(x), nil
	case string:
		return String(x), nil
	case *string:
		return OptString(x), nil
	case bool:
		return Bool(x), nil
	case *bool:
		if x == nil {
			return Null(), nil
		}
		return Bool(*x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		return numberValue(string(x))
	case time.Time:
		return Time(x), nil
	case *time.Time:
		return OptTime(x), nil
	case map[string]any:
		out := make(Values, len(x))
		for k, item := range x {
			val, err := Of(item)
			if err != nil {
				return Null(), fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = val
		}
		return Value{kind: KindMap, m: out}, nil
	case map[string]string:
		out := make(Values, len(x))
		for k, item := range x {
			out[k] = String(item)
		}
		return Value{kind: KindMap, m: out}, nil
	case []any:
		out := make([]Value, 0, len(x))
		for i, item := range x {
			val, err := Of(item)
			if err != nil {
				return Null(), fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, val)
		}
		return Value{kind: KindList, list: out}, nil
	case []string:
		out := make([]Value, 0, len(x))
		for _, item := range x {
			out = append(out, String(item))
		}
		return Value{kind: KindList, list: out}, nil
	case fmt.Stringer:
		return String(x.String()), nil
	}
	return Null(), fmt.Errorf("tracking: unsupported value type %T", v)
}

// ValuesOf converts a plain map into Values.
func ValuesOf(m map[string]any) (Values, error) {
	if m == nil {
		return nil, nil
	}
	out := make(Values, len(m))
	for k, item := range m {
		val, err := Of(item)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func (v Value) AsString() (string, bool)  { return v.str, v.kind == KindString }
func (v Value) AsInt() (int64, bool)      { return v.num, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)  { return v.flt, v.kind == KindFloat }
func (v Value) AsBool() (bool, bool)      { return v.bln, v.kind == KindBool }
func (v Value) AsTime() (time.Time, bool) { return v.tm, v.kind == KindTime }
func (v Value) AsMap() (Values, bool)     { return v.m, v.kind == KindMap }
func (v Value) AsList() ([]Value, bool)   { return v.list, v.kind == KindList }

// Equal compares by value. Two nulls are equal. A time and a string are
// equal when the string is the time's RFC 3339 encoding, since that is all
// JSON can carry for a timestamp.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		switch {
		case v.kind == KindTime && o.kind == KindString:
			return formatTime(v.tm) == o.str
		case v.kind == KindString && o.kind == KindTime:
			return v.str == formatTime(o.tm)
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindBool:
		return v.bln == o.bln
	case KindTime:
		return v.tm.Equal(o.tm)
	case KindMap:
		return v.m.Equal(o.m)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface returns the natural Go representation of v.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.bln
	case KindTime:
		return v.tm
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case KindFloat:
		s := strconv.FormatFloat(v.flt, 'f', -1, 64)
		if strings.ContainsAny(s, "NI") {
			return nil, fmt.Errorf("tracking: %s is not representable in JSON", s)
		}
		// keep integral floats distinguishable from ints after a round trip
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return []byte(s), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.bln)), nil
	case KindTime:
		return json.Marshal(formatTime(v.tm))
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(map[string]Value(v.m))
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return nil, fmt.Errorf("tracking: unknown value kind %d", v.kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		// only the canonical UTC rendering written by MarshalJSON is a time
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil && formatTime(t) == x {
			return Time(t), nil
		}
		return String(x), nil
	case json.Number:
		return numberValue(string(x))
	case bool:
		return Bool(x), nil
	case map[string]any:
		out := make(Values, len(x))
		for k, item := range x {
			val, err := fromJSON(item)
			if err != nil {
				return Null(), err
			}
			out[k] = val
		}
		return Value{kind: KindMap, m: out}, nil
	case []any:
		out := make([]Value, 0, len(x))
		for _, item := range x {
			val, err := fromJSON(item)
			if err != nil {
				return Null(), err
			}
			out = append(out, val)
		}
		return Value{kind: KindList, list: out}, nil
	}
	return Null(), fmt.Errorf("tracking: unexpected JSON type %T", raw)
}

func numberValue(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), fmt.Errorf("tracking: invalid number %q: %w", s, err)
	}
	return Float(f), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Clone returns a shallow copy of vs; nil stays nil.
func (vs Values) Clone() Values {
	if vs == nil {
		return nil
	}
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// Equal compares two maps key by key.
func (vs Values) Equal(o Values) bool {
	if len(vs) != len(o) {
		return false
	}
	for k, v := range vs {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Keys returns the map keys in sorted order.
func (vs Values) Keys() []string {
	keys := make([]string, 0, len(vs))
	for k := range vs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
