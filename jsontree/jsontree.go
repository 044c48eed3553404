// Package jsontree provides an insertion-ordered JSON value tree.
//
// Every rewrite in the schema pipeline (bundling, composition, resolution)
// preserves object key order, so the standard map-backed decoders are not
// usable here. Parsing goes through goccy/go-yaml's AST, which keeps source
// order and accepts both JSON and YAML input (JSON being a YAML subset).
package jsontree

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors returned by this package.
var (
	ErrParse            = errors.New("parse input")
	ErrPointerNotFound  = errors.New("pointer not found")
	ErrInvalidPointer   = errors.New("invalid pointer")
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Kind identifies the JSON type of a [Value].
type Kind int

// Value kinds, one per JSON type.
const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

// String returns the JSON type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindNull:
		return "null"
	}

	return "unknown"
}

// Value is a JSON value: [*Object], [*Array], [String], [Number], [Bool],
// or [Null].
type Value interface {
	Kind() Kind

	// Clone returns a deep copy. Primitives return themselves.
	Clone() Value
}

// Object is a JSON object with insertion-ordered keys.
//
// The zero value is not usable; create instances with [NewObject].
type Object struct {
	keys    []string
	entries map[string]Value
}

// NewObject creates an empty [*Object].
func NewObject() *Object {
	return &Object{entries: make(map[string]Value)}
}

// Kind returns [KindObject].
func (o *Object) Kind() Kind { return KindObject }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in insertion order. The returned slice is a copy.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)

	return keys
}

// Get returns the value for key and whether it is present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.entries[key]

	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.entries[key]

	return ok
}

// Set inserts or replaces the value for key. A new key is appended to the
// insertion order; replacing an existing key keeps its position.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.entries[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.entries[key] = v
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.entries[key]; !ok {
		return false
	}

	delete(o.entries, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}

	return true
}

// GetObject returns the value for key as an [*Object], or nil if the key is
// absent or not an object.
func (o *Object) GetObject(key string) *Object {
	v, _ := o.Get(key)
	obj, _ := v.(*Object)

	return obj
}

// GetArray returns the value for key as an [*Array], or nil if the key is
// absent or not an array.
func (o *Object) GetArray(key string) *Array {
	v, _ := o.Get(key)
	arr, _ := v.(*Array)

	return arr
}

// GetString returns the value for key as a string and whether it is a
// string.
func (o *Object) GetString(key string) (string, bool) {
	v, _ := o.Get(key)
	s, ok := v.(String)

	return string(s), ok
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() Value {
	clone := &Object{
		keys:    make([]string, len(o.keys)),
		entries: make(map[string]Value, len(o.entries)),
	}
	copy(clone.keys, o.keys)

	for k, v := range o.entries {
		clone.entries[k] = v.Clone()
	}

	return clone
}

// Array is a JSON array.
type Array struct {
	Items []Value
}

// NewArray creates an [*Array] from the given items.
func NewArray(items ...Value) *Array {
	return &Array{Items: items}
}

// Kind returns [KindArray].
func (a *Array) Kind() Kind { return KindArray }

// Len returns the number of items.
func (a *Array) Len() int { return len(a.Items) }

// Clone returns a deep copy of the array.
func (a *Array) Clone() Value {
	items := make([]Value, len(a.Items))
	for i, v := range a.Items {
		items[i] = v.Clone()
	}

	return &Array{Items: items}
}

// String is a JSON string.
type String string

// Kind returns [KindString].
func (String) Kind() Kind { return KindString }

// Clone returns the string itself.
func (s String) Clone() Value { return s }

// Number is a JSON number, stored as its literal text so round-trips keep
// the source representation.
type Number string

// Kind returns [KindNumber].
func (Number) Kind() Kind { return KindNumber }

// Clone returns the number itself.
func (n Number) Clone() Value { return n }

// Int64 returns the number as an int64 and whether it is an integer that
// fits.
func (n Number) Int64() (int64, bool) {
	i, err := strconv.ParseInt(string(n), 10, 64)

	return i, err == nil
}

// Float64 returns the number as a float64.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	return f, nil
}

// IntNumber creates a [Number] from an int.
func IntNumber(i int) Number {
	return Number(strconv.Itoa(i))
}

// Bool is a JSON boolean.
type Bool bool

// Kind returns [KindBool].
func (Bool) Kind() Kind { return KindBool }

// Clone returns the boolean itself.
func (b Bool) Clone() Value { return b }

// Null is the JSON null value.
type Null struct{}

// Kind returns [KindNull].
func (Null) Kind() Kind { return KindNull }

// Clone returns the null itself.
func (n Null) Clone() Value { return n }

// Equal reports whether two values are structurally equal. Object key order
// is ignored, matching JSON equality semantics; numbers compare by numeric
// value.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}

		for _, k := range av.keys {
			other, ok := bv.Get(k)
			if !ok || !Equal(av.entries[k], other) {
				return false
			}
		}

		return true

	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}

		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}

		return true

	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}

		if av == bv {
			return true
		}

		af, aerr := av.Float64()
		bf, berr := bv.Float64()

		return aerr == nil && berr == nil && af == bf

	default:
		return a == b
	}
}

// Interface converts a [Value] to plain Go values (map[string]any, []any,
// string, int64/float64, bool, nil) for use with schema validators. Object
// key order is not preserved.
func Interface(v Value) any {
	switch tv := v.(type) {
	case *Object:
		m := make(map[string]any, tv.Len())
		for _, k := range tv.keys {
			m[k] = Interface(tv.entries[k])
		}

		return m

	case *Array:
		items := make([]any, len(tv.Items))
		for i, item := range tv.Items {
			items[i] = Interface(item)
		}

		return items

	case String:
		return string(tv)

	case Number:
		if i, ok := tv.Int64(); ok {
			return i
		}

		f, err := tv.Float64()
		if err != nil {
			return string(tv)
		}

		return f

	case Bool:
		return bool(tv)

	case Null:
		return nil
	}

	return nil
}
