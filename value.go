package conftree

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// missingMarker is the native spelling of the missing sentinel: a leaf
// holding this literal has no value yet.
const missingMarker = "???"

type missingType struct{}

// Missing is the explicit missing marker. Assigning it through Set marks
// the leaf missing in a way that overwrites present values during Merge,
// unlike a leaf that was merely declared "???".
var Missing missingType

// EnumMember is one legal member of an EnumType, addressable by name or
// by numeric value.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumType is a fixed, ordered set of members an enum leaf validates
// candidates against.
type EnumType struct {
	Name    string
	Members []EnumMember
}

func (e *EnumType) byName(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

func (e *EnumType) byValue(v int64) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Value == v {
			return m, true
		}
	}
	return EnumMember{}, false
}

// Value is a typed leaf node. Its content slot holds a concrete scalar,
// the missing marker, or an unresolved "${path}" reference resolved
// lazily on every read.
type Value struct {
	node
	kind     Kind
	enum     *EnumType
	optional bool
	val      any
	missing  bool
	// explicit distinguishes Set(Missing) from a declared "???" leaf;
	// only the former overwrites a present value during Merge.
	explicit bool
}

// NewAny returns an untyped leaf accepting any supported scalar.
func NewAny(v any) (*Value, error) { return newValue(KindAny, nil, v) }

// NewInt returns an integer leaf.
func NewInt(v any) (*Value, error) { return newValue(KindInt, nil, v) }

// NewFloat returns a float leaf.
func NewFloat(v any) (*Value, error) { return newValue(KindFloat, nil, v) }

// NewBool returns a boolean leaf.
func NewBool(v any) (*Value, error) { return newValue(KindBool, nil, v) }

// NewString returns a string leaf.
func NewString(v any) (*Value, error) { return newValue(KindString, nil, v) }

// NewEnum returns an enum leaf validating against the given type. The
// candidate may be a member name or a member value.
func NewEnum(enum *EnumType, v any) (*Value, error) {
	if enum == nil || len(enum.Members) == 0 {
		return nil, fmt.Errorf("%w: enum type with no members", ErrValidation)
	}
	return newValue(KindEnum, enum, v)
}

func newValue(kind Kind, enum *EnumType, v any) (*Value, error) {
	val := &Value{kind: kind, enum: enum}
	if err := val.store(v, false); err != nil {
		return nil, err
	}
	return val, nil
}

func (v *Value) Kind() Kind { return v.kind }

func (v *Value) Root() Node {
	if r := v.rootAbove(); r != nil {
		return r
	}
	return v
}

func (v *Value) SetReadOnly(ro bool) { v.readonly = ro }

// Optional reports whether the leaf accepts nil where its type would
// otherwise forbid it.
func (v *Value) Optional() bool { return v.optional }

func (v *Value) SetOptional(opt bool) { v.optional = opt }

// IsMissing reports whether the content slot holds the missing marker.
func (v *Value) IsMissing() bool { return v.missing }

// IsReference reports whether the content slot holds an unresolved
// "${path}" reference.
func (v *Value) IsReference() bool {
	_, ok := refBody(v.val)
	return ok && !v.missing
}

// Get returns the concrete value, resolving an interpolation reference
// if present. Resolution re-evaluates on every call and never caches.
// A missing slot fails with ErrMissingValue.
func (v *Value) Get() (any, error) {
	return v.get(make(map[Node]struct{}))
}

func (v *Value) get(seen map[Node]struct{}) (any, error) {
	if v.missing {
		return nil, pathErrf(ErrMissingValue, v.Path(), "")
	}
	body, ok := refBody(v.val)
	if !ok {
		return v.val, nil
	}
	if _, visited := seen[Node(v)]; visited {
		return nil, pathErrf(ErrReferenceCycle, v.Path(), "reference %q revisits a node in the active chain", v.val)
	}
	seen[Node(v)] = struct{}{}
	res, err := resolveRef(v, body, seen)
	if err != nil {
		return nil, err
	}
	if n, isNode := res.(Node); isNode {
		if v.kind != KindAny {
			return nil, pathErrf(ErrValidation, v.Path(), "reference %q resolves to a %s, not a scalar", v.val, n.Kind())
		}
		return n, nil
	}
	coerced, err := v.coerce(res)
	if err != nil {
		return nil, pathErrf(ErrValidation, v.Path(), "reference %q resolved to incompatible value: %v", v.val, err)
	}
	return coerced, nil
}

// GetDefault returns the resolved value, or def when the slot is
// missing, holds nil, or fails to resolve.
func (v *Value) GetDefault(def any) any {
	res, err := v.Get()
	if err != nil || res == nil {
		return def
	}
	return res
}

// Set validates and stores a candidate value. The operation is
// transactional: on failure the prior content is unchanged. A readonly
// leaf rejects the call regardless of candidate validity.
func (v *Value) Set(candidate any) error {
	if v.readonly {
		return pathErrf(ErrReadOnly, v.Path(), "")
	}
	return v.store(candidate, true)
}

// store performs the validated assignment. explicit marks missing
// assignments as merge-overwriting; tree construction passes false.
func (v *Value) store(candidate any, explicit bool) error {
	switch c := candidate.(type) {
	case missingType, *missingType:
		v.val = nil
		v.missing = true
		v.explicit = explicit
		return nil
	case *Value:
		if c.missing {
			return v.store(Missing, explicit)
		}
		return v.store(c.val, explicit)
	case string:
		if c == missingMarker {
			v.val = nil
			v.missing = true
			v.explicit = explicit
			return nil
		}
		if _, ok := refBody(c); ok {
			// References are stored literally; validation happens
			// against the resolved value at read time.
			v.val = c
			v.missing = false
			v.explicit = false
			return nil
		}
	}
	coerced, err := v.coerce(candidate)
	if err != nil {
		return err
	}
	v.val = coerced
	v.missing = false
	v.explicit = false
	return nil
}

// coerce validates a candidate against the leaf kind, converting
// representable shapes (numeric strings, integral floats, ...) and
// rejecting the rest.
func (v *Value) coerce(candidate any) (any, error) {
	if candidate == nil {
		if v.kind == KindAny || v.optional {
			return nil, nil
		}
		return nil, pathErrf(ErrValidation, v.Path(), "nil is not a valid %s", v.kind)
	}
	norm, ok := normalizeScalar(candidate)
	if !ok {
		return nil, pathErrf(ErrUnsupportedValueType, v.Path(), "cannot represent %T", candidate)
	}
	switch v.kind {
	case KindAny:
		return norm, nil
	case KindInt:
		return coerceInt(v.Path(), norm)
	case KindFloat:
		return coerceFloat(v.Path(), norm)
	case KindBool:
		return coerceBool(v.Path(), norm)
	case KindString:
		return coerceString(norm), nil
	case KindEnum:
		return coerceEnum(v.Path(), v.enum, norm)
	}
	return nil, pathErrf(ErrValidation, v.Path(), "leaf has invalid kind %s", v.kind)
}

func (v *Value) Clone() Node {
	return &Value{
		kind:     v.kind,
		enum:     v.enum,
		optional: v.optional,
		val:      v.val,
		missing:  v.missing,
		explicit: v.explicit,
		node:     node{readonly: v.readonly},
	}
}

func (v *Value) Equal(other Node) bool {
	return equalNodes(v, other, make(map[nodePair]struct{}))
}

// normalizeScalar maps a supported scalar onto its canonical in-tree
// representation: int64, float64, bool, or string. Opaque types are
// rejected.
func normalizeScalar(v any) (any, bool) {
	switch c := v.(type) {
	case bool, string:
		return c, true
	case int:
		return int64(c), true
	case int8:
		return int64(c), true
	case int16:
		return int64(c), true
	case int32:
		return int64(c), true
	case int64:
		return c, true
	case uint:
		return uint64ToInt64(uint64(c))
	case uint8:
		return int64(c), true
	case uint16:
		return int64(c), true
	case uint32:
		return int64(c), true
	case uint64:
		return uint64ToInt64(c)
	case float32:
		return float64(c), true
	case float64:
		return c, true
	case json.Number:
		if i, err := c.Int64(); err == nil {
			return i, true
		}
		if f, err := c.Float64(); err == nil {
			return f, true
		}
		return c.String(), true
	}
	return nil, false
}

func uint64ToInt64(u uint64) (any, bool) {
	if u > math.MaxInt64 {
		return nil, false
	}
	return int64(u), true
}

func coerceInt(path string, v any) (int64, error) {
	switch c := v.(type) {
	case int64:
		return c, nil
	case float64:
		if c != math.Trunc(c) || math.IsInf(c, 0) || math.IsNaN(c) {
			return 0, pathErrf(ErrValidation, path, "float %v has no exact int representation", c)
		}
		return int64(c), nil
	case bool:
		if c {
			return 1, nil
		}
		return 0, nil
	case string:
		if i, err := strconv.ParseInt(c, 0, 64); err == nil {
			return i, nil
		}
		return 0, pathErrf(ErrValidation, path, "cannot convert string %q to int", c)
	}
	return 0, pathErrf(ErrValidation, path, "cannot convert %T to int", v)
}

func coerceFloat(path string, v any) (float64, error) {
	switch c := v.(type) {
	case float64:
		return c, nil
	case int64:
		return float64(c), nil
	case bool:
		if c {
			return 1, nil
		}
		return 0, nil
	case string:
		if f, err := strconv.ParseFloat(c, 64); err == nil {
			return f, nil
		}
		return 0, pathErrf(ErrValidation, path, "cannot convert string %q to float", c)
	}
	return 0, pathErrf(ErrValidation, path, "cannot convert %T to float", v)
}

func coerceBool(path string, v any) (bool, error) {
	switch c := v.(type) {
	case bool:
		return c, nil
	case string:
		if b, err := strconv.ParseBool(c); err == nil {
			return b, nil
		}
		return false, pathErrf(ErrValidation, path, "cannot convert string %q to bool", c)
	case int64:
		return c != 0, nil
	case float64:
		return c != 0, nil
	}
	return false, pathErrf(ErrValidation, path, "cannot convert %T to bool", v)
}

func coerceString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case int64:
		return strconv.FormatInt(c, 10)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	}
	return fmt.Sprintf("%v", v)
}

func coerceEnum(path string, enum *EnumType, v any) (string, error) {
	if enum == nil {
		return "", pathErrf(ErrValidation, path, "enum leaf has no enum type")
	}
	switch c := v.(type) {
	case string:
		if m, ok := enum.byName(c); ok {
			return m.Name, nil
		}
		return "", pathErrf(ErrValidation, path, "%q is not a member of %s", c, enum.Name)
	case int64:
		if m, ok := enum.byValue(c); ok {
			return m.Name, nil
		}
		return "", pathErrf(ErrValidation, path, "%d is not a value of %s", c, enum.Name)
	}
	return "", pathErrf(ErrValidation, path, "cannot convert %T to a member of %s", v, enum.Name)
}

// nativeEqual compares two resolved values after numeric normalization.
// Container nodes compare through Node.Equal.
func nativeEqual(a, b any) bool {
	an, aIsNode := a.(Node)
	bn, bIsNode := b.(Node)
	if aIsNode || bIsNode {
		if aIsNode && bIsNode {
			return an.Equal(bn)
		}
		return false
	}
	if na, ok := normalizeScalar(a); ok {
		a = na
	}
	if nb, ok := normalizeScalar(b); ok {
		b = nb
	}
	if af, ok := a.(int64); ok {
		if bf, ok := b.(float64); ok {
			return float64(af) == bf
		}
	}
	if af, ok := a.(float64); ok {
		if bi, ok := b.(int64); ok {
			return af == float64(bi)
		}
	}
	return reflect.DeepEqual(a, b)
}
