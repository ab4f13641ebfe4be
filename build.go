package conftree

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Create builds a configuration tree from a nested native structure of
// maps, slices, scalars, and already-built nodes (which are adopted by
// deep copy, never shared). The top level must be a mapping, a sequence,
// or nil (an empty mapping). Unsupported leaf types fail with
// ErrUnsupportedValueType naming the offending path.
func Create(v any) (Node, error) {
	if v == nil {
		return NewMapping(), nil
	}
	n, err := adoptValue(v, "")
	if err != nil {
		return nil, err
	}
	if !n.Kind().IsContainer() {
		return nil, fmt.Errorf("%w: top-level value must be a mapping or sequence, got %T", ErrUnsupportedValueType, v)
	}
	return n, nil
}

// MustCreate is like Create but panics on error. Intended for static
// default trees.
func MustCreate(v any) Node {
	n, err := Create(v)
	if err != nil {
		panic(fmt.Sprintf("conftree: create failed: %v", err))
	}
	return n
}

// adoptValue converts one native value (or node) into a detached node
// ready for insertion at path. Nodes are deep-copied so no child ever
// has two parents.
func adoptValue(v any, path string) (Node, error) {
	switch c := v.(type) {
	case Node:
		return c.Clone(), nil
	case nil:
		return &Value{kind: KindAny}, nil
	case missingType, *missingType:
		return &Value{kind: KindAny, missing: true, explicit: true}, nil
	case map[string]any:
		return adoptMap(reflect.ValueOf(c), path)
	case map[any]any:
		return adoptMap(reflect.ValueOf(c), path)
	case []any:
		return adoptSlice(reflect.ValueOf(c), path)
	}
	if norm, ok := normalizeScalar(v); ok {
		leaf := &Value{kind: KindAny}
		if err := leaf.store(norm, false); err != nil {
			return nil, err
		}
		return leaf, nil
	}
	// Typed maps and slices (map[string]string, []int, ...) reach the
	// tree through struct defaults and file decoders.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return adoptMap(rv, path)
	case reflect.Slice, reflect.Array:
		return adoptSlice(rv, path)
	case reflect.Pointer:
		if !rv.IsNil() {
			return adoptValue(rv.Elem().Interface(), path)
		}
		return &Value{kind: KindAny}, nil
	}
	return nil, pathErrf(ErrUnsupportedValueType, path, "cannot represent %T", v)
}

func adoptMap(rv reflect.Value, path string) (Node, error) {
	m := NewMapping()
	keys := make([]string, 0, rv.Len())
	byKey := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := m.toKey(iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		byKey[k] = iter.Value()
	}
	// Native Go maps are unordered; sort keys so construction is
	// deterministic.
	sort.Strings(keys)
	for _, k := range keys {
		child, err := adoptValue(byKey[k].Interface(), joinMapStep(path, k))
		if err != nil {
			return nil, err
		}
		child.setParent(m, k, 0)
		m.keys = append(m.keys, k)
		m.children[k] = child
	}
	return m, nil
}

func adoptSlice(rv reflect.Value, path string) (Node, error) {
	s := NewSequence()
	for i := 0; i < rv.Len(); i++ {
		child, err := adoptValue(rv.Index(i).Interface(), path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		child.setParent(s, "", i)
		s.elems = append(s.elems, child)
	}
	return s, nil
}

// Export converts a tree back into nested native values. With
// resolve=false, interpolation references export as their literal
// "${...}" strings and missing leaves as "???", so re-importing the
// result reproduces the reference graph exactly. With resolve=true every
// reference is replaced by its resolved value; the result is a frozen
// snapshot with no live link to its former referents.
func Export(n Node, resolve bool) (any, error) {
	return exportNode(n, resolve, make(map[Node]struct{}))
}

// exportNode walks the tree for Export. active holds the reference
// leaves whose resolved subtrees are currently being exported: a
// reference resolving to one of its own ancestors would otherwise
// re-enter itself through the container walk and never terminate.
func exportNode(n Node, resolve bool, active map[Node]struct{}) (any, error) {
	switch c := n.(type) {
	case *Value:
		if c.missing {
			return missingMarker, nil
		}
		if _, isRef := refBody(c.val); isRef {
			if !resolve {
				return c.val, nil
			}
			if _, looped := active[Node(c)]; looped {
				return nil, pathErrf(ErrReferenceCycle, c.Path(), "reference %q resolves into its own subtree", c.val)
			}
			res, err := c.Get()
			if err != nil {
				return nil, err
			}
			if rn, ok := res.(Node); ok {
				active[Node(c)] = struct{}{}
				out, err := exportNode(rn, true, active)
				delete(active, Node(c))
				return out, err
			}
			return res, nil
		}
		return c.val, nil
	case *Mapping:
		out := make(map[string]any, len(c.keys))
		for _, k := range c.keys {
			v, err := exportNode(c.children[k], resolve, active)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case *Sequence:
		out := make([]any, len(c.elems))
		for i, e := range c.elems {
			v, err := exportNode(e, resolve, active)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown node type %T", ErrUnsupportedValueType, n)
}
