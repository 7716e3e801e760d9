// Package types defines the shared data model for the Ember client:
// field values, entities, and wire-level transaction operations.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	// KindAbsent marks an explicitly removed field (tombstone).
	// Distinct from "field not present in the map" so that intentional
	// deletions survive diffing and serialization.
	KindAbsent Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// String returns the kind name for logs and error messages
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged union over the field value types an entity may carry:
// primitives (bool, int, float, string), ordered lists, nested maps, and the
// explicit absent marker used to express field removal.
//
// Values are immutable by convention: constructors copy nothing, so callers
// must not mutate slices or maps after handing them to a Value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// Tombstone returns the explicit "field removed" marker
func Tombstone() Value {
	return Value{kind: KindAbsent}
}

// Bool wraps a bool
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int wraps an int64
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float wraps a float64
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// String wraps a string
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// List wraps an ordered list of values
func List(vs ...Value) Value {
	return Value{kind: KindList, list: vs}
}

// Map wraps a nested field map
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}

// Kind reports which variant this value holds
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether this value is the removal tombstone
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// AsBool returns the bool payload; ok is false for other kinds
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the int64 payload; ok is false for other kinds
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the float64 payload; ok is false for other kinds
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsString returns the string payload; ok is false for other kinds
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsList returns the list payload; ok is false for other kinds
func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// AsMap returns the map payload; ok is false for other kinds
func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// Equal reports deep structural equality: exact kind and payload for
// primitives, element-wise recursion for lists, key-set plus recursive value
// equality for maps. Int and Float never compare equal even when numerically
// identical — the wire format preserves the distinction, so the diff engine
// must too.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
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
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, vv := range v.m {
			ov, ok := o.m[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy. Primitives share nothing; lists and maps are
// copied recursively so the clone can be mutated independently.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		list := make([]Value, len(v.list))
		for i, e := range v.list {
			list[i] = e.Clone()
		}
		return Value{kind: KindList, list: list}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			m[k] = e.Clone()
		}
		return Value{kind: KindMap, m: m}
	default:
		return v
	}
}

// absentMarker is the wire representation of a tombstone. A plain JSON null
// would be ambiguous with future null-valued fields, so removals travel as a
// single-key object.
const absentMarkerKey = "$ember.absent"

// MarshalJSON implements json.Marshaler for the wire format
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent:
		return []byte(`{"` + absentMarkerKey + `":true}`), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	}
	return nil, fmt.Errorf("cannot marshal value of kind %s", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers without a fraction or
// exponent decode as Int, everything else numeric as Float, so a value
// survives a marshal/unmarshal round trip with its kind intact.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	decoded, err := valueFromDecoded(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// valueFromDecoded converts a json-decoded interface tree into a Value
func valueFromDecoded(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		// Servers may null out a field; treat it as removal.
		return Tombstone(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			i, err := t.Int64()
			if err == nil {
				return Int(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("cannot decode number %q: %w", s, err)
		}
		return Float(f), nil
	case []interface{}:
		list := make([]Value, len(t))
		for i, e := range t {
			ev, err := valueFromDecoded(e)
			if err != nil {
				return Value{}, err
			}
			list[i] = ev
		}
		return Value{kind: KindList, list: list}, nil
	case map[string]interface{}:
		if b, ok := t[absentMarkerKey].(bool); ok && b && len(t) == 1 {
			return Tombstone(), nil
		}
		m := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := valueFromDecoded(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return Value{kind: KindMap, m: m}, nil
	}
	return Value{}, fmt.Errorf("cannot decode value of type %T", raw)
}
