package auditlog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the variants a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// Value is a structured payload carried by a log entry. It accepts any
// JSON-shaped data while keeping the codec statically checkable, unlike a
// bare interface{}.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	seq  []Value
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Int wraps an integer as a number.
func Int(n int64) Value { return Number(float64(n)) }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Sequence wraps an ordered list of values.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

// Mapping wraps a key/value object.
func Mapping(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindMapping, obj: fields}
}

// FromTo builds the {from, to} mapping used for field change records.
func FromTo(from, to Value) Value {
	return Mapping(map[string]Value{"from": from, "to": to})
}

// OptionalInt maps a nullable id to a number or null.
func OptionalInt(n *int64) Value {
	if n == nil {
		return Null()
	}
	return Int(*n)
}

// Kind reports the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// BoolVal returns the boolean variant; false for other kinds.
func (v Value) BoolVal() bool { return v.b }

// NumberVal returns the numeric variant; zero for other kinds.
func (v Value) NumberVal() float64 { return v.num }

// StringVal returns the string variant; empty for other kinds.
func (v Value) StringVal() string { return v.str }

// SequenceVal returns the sequence items; nil for other kinds.
func (v Value) SequenceVal() []Value { return v.seq }

// Get looks up a key on a mapping value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	item, ok := v.obj[key]
	return item, ok
}

// Keys returns the mapping keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, item := range v.obj {
			got, ok := other.obj[k]
			if !ok || !item.Equal(got) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes the value as plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	case KindMapping:
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("auditlog: unknown value kind %d", v.kind)
}

// UnmarshalJSON decodes arbitrary JSON into the tagged representation.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromAny(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(typed), nil
	case float64:
		return Number(typed), nil
	case string:
		return String(typed), nil
	case []any:
		items := make([]Value, 0, len(typed))
		for _, item := range typed {
			value, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, value)
		}
		return Sequence(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for k, item := range typed {
			value, err := fromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = value
		}
		return Mapping(fields), nil
	}
	return Value{}, fmt.Errorf("auditlog: unsupported value type %T", raw)
}
