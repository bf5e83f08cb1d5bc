// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package delta computes minimal field-level patches between two snapshots of
// a profile.
//
// Profiles are represented with a small typed intermediate form: a [Value] is
// a tagged union of null, bool, number, string, array and map. [Diff] and
// [Apply] are total over this form, so the differencing never depends on
// dynamic type assertions of decoded JSON.
//
// The null value is reserved for patches, where it marks an explicit clear.
// Canonical snapshots produced by [FromAny] never contain it.
package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Kind identifies the variant stored in a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an immutable JSON-like value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	a    []Value
	m    Map
}

// Map is a profile snapshot or a patch keyed by field name.
type Map map[string]Value

// Null returns the explicit-clear sentinel.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number. All numbers are kept as float64 like encoding/json does.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a list of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, a: items}
}

// Object wraps a nested map.
func Object(m Map) Value {
	if m == nil {
		m = Map{}
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null sentinel.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns the array payload. The slice must not be modified.
func (v Value) AsArray() ([]Value, bool) { return v.a, v.kind == KindArray }

// AsMap returns the nested map, or nil when v is not a map.
func (v Value) AsMap() Map {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.a))
		for i, it := range v.a {
			items[i] = it.Clone()
		}
		return Value{kind: KindArray, a: items}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	}
	return v
}

// Interface converts v back to the plain Go form produced by encoding/json.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.a))
		for i, it := range v.a {
			out[i] = it.Interface()
		}
		return out
	case KindMap:
		return v.m.Interface()
	}
	return nil
}

// FromAny converts decoded JSON (or any JSON-encodable value) to a Value.
// Nil entries of maps are dropped so the result is a canonical snapshot.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t.Clone()
	case Map:
		return Object(t.Clone())
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case []any:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, FromAny(it))
		}
		return Array(items...)
	case []string:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, String(it))
		}
		return Array(items...)
	case map[string]any:
		m := make(Map, len(t))
		for k, it := range t {
			if it == nil {
				continue
			}
			m[k] = FromAny(it)
		}
		return Object(m)
	}

	return fromReflect(x)
}

// fromReflect handles typed slices, maps and structs by a JSON round trip.
func fromReflect(x any) Value {
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null()
	}

	raw, err := json.Marshal(x)
	if err != nil {
		return String(fmt.Sprint(x))
	}
	var decoded any
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return String(fmt.Sprint(x))
	}
	return FromAny(decoded)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.a)
	case KindMap:
		return json.Marshal(v.m)
	}
	return nil, fmt.Errorf("marshal delta value: unknown %s", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler. Explicit nulls inside maps are
// kept so decoded patches retain their clear markers.
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("unmarshal delta value: %w", err)
	}
	*v = fromDecoded(decoded)
	return nil
}

func fromDecoded(x any) Value {
	switch t := x.(type) {
	case []any:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			items = append(items, fromDecoded(it))
		}
		return Array(items...)
	case map[string]any:
		m := make(Map, len(t))
		for k, it := range t {
			m[k] = fromDecoded(it)
		}
		return Object(m)
	}
	return FromAny(x)
}

// Clone returns a deep copy of m.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Interface converts m to map[string]any.
func (m Map) Interface() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Interface()
	}
	return out
}

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON implements json.Unmarshaler keeping explicit nulls.
func (m *Map) UnmarshalJSON(b []byte) error {
	var v Value
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	switch v.kind {
	case KindNull:
		*m = nil
	case KindMap:
		*m = v.m
	default:
		return fmt.Errorf("unmarshal delta map: got %s", v.kind)
	}
	return nil
}
