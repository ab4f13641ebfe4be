package conftree

import (
	"fmt"
	"strconv"
)

// Mapping is the key-addressed container variant. Keys are strings;
// insertion order is preserved for iteration and export but carries no
// semantic weight for equality.
type Mapping struct {
	node
	keys     []string
	children map[string]Node
}

// NewMapping returns an empty detached mapping.
func NewMapping() *Mapping {
	return &Mapping{children: make(map[string]Node)}
}

func (m *Mapping) Kind() Kind { return KindMapping }

func (m *Mapping) Root() Node {
	if r := m.rootAbove(); r != nil {
		return r
	}
	return m
}

// SetReadOnly applies the flag to the mapping and its whole subtree.
func (m *Mapping) SetReadOnly(ro bool) {
	m.readonly = ro
	for _, child := range m.children {
		child.SetReadOnly(ro)
	}
}

func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns the mapping keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Item is one key/value pair of a mapping.
type Item struct {
	Key   string
	Value any
}

// Items returns the resolved key/value pairs in insertion order: scalars
// for leaves, the child node itself for containers. The first resolution
// failure aborts the iteration.
func (m *Mapping) Items() ([]Item, error) {
	out := make([]Item, 0, len(m.keys))
	for _, k := range m.keys {
		v, err := m.Get(k)
		if err != nil {
			return nil, err
		}
		out = append(out, Item{Key: k, Value: v})
	}
	return out, nil
}

// Contains reports whether the key is present.
func (m *Mapping) Contains(key string) bool {
	_, ok := m.children[key]
	return ok
}

func (m *Mapping) child(key string) (Node, bool) {
	c, ok := m.children[key]
	return c, ok
}

// GetNode returns the child node for key without resolving its content.
func (m *Mapping) GetNode(key string) (Node, bool) {
	return m.child(key)
}

// Get returns the resolved value under key: a scalar for leaves, the
// child node itself for containers. An absent key fails with
// ErrKeyNotFound; a missing leaf with ErrMissingValue.
func (m *Mapping) Get(key string) (any, error) {
	child, ok := m.children[key]
	if !ok {
		return nil, pathErrf(ErrKeyNotFound, joinMapStep(m.Path(), key), "")
	}
	if leaf, isLeaf := child.(*Value); isLeaf {
		return leaf.Get()
	}
	return child, nil
}

// GetDefault returns the resolved value under key, or def when the key
// is absent, the leaf is missing or nil, or resolution fails.
func (m *Mapping) GetDefault(key string, def any) any {
	child, ok := m.children[key]
	if !ok {
		return def
	}
	if leaf, isLeaf := child.(*Value); isLeaf {
		return leaf.GetDefault(def)
	}
	return child
}

// Set validates and stores a value under key. Keys must be strings (or
// integer/bool scalars, which convert); other key types fail with
// ErrUnsupportedKeyType. The operation is transactional: a value that
// cannot be represented leaves the mapping unchanged. Assigning a raw
// scalar over an existing typed leaf validates through that leaf's type.
func (m *Mapping) Set(key any, value any) error {
	if m.readonly {
		return pathErrf(ErrReadOnly, m.Path(), "")
	}
	k, err := m.toKey(key)
	if err != nil {
		return err
	}
	existing, exists := m.children[k]
	if leaf, isLeaf := existing.(*Value); exists && isLeaf && isScalarCandidate(value) {
		return leaf.Set(value)
	}
	child, err := adoptValue(value, joinMapStep(m.Path(), k))
	if err != nil {
		return err
	}
	if exists {
		existing.detach()
	} else {
		m.keys = append(m.keys, k)
	}
	m.children[k] = child
	child.setParent(m, k, 0)
	return nil
}

// Delete removes the child under key, detaching its parent link. An
// absent key fails with ErrKeyNotFound.
func (m *Mapping) Delete(key string) error {
	if m.readonly {
		return pathErrf(ErrReadOnly, m.Path(), "")
	}
	child, ok := m.children[key]
	if !ok {
		return pathErrf(ErrKeyNotFound, joinMapStep(m.Path(), key), "")
	}
	child.detach()
	delete(m.children, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all children.
func (m *Mapping) Clear() error {
	if m.readonly {
		return pathErrf(ErrReadOnly, m.Path(), "")
	}
	for _, child := range m.children {
		child.detach()
	}
	m.keys = m.keys[:0]
	m.children = make(map[string]Node)
	return nil
}

// GetFullKey returns the full dotted/bracketed path from the tree's
// actual root to the child addressed by key. The path is purely
// structural; the key need not be present and value state along the
// chain (missing ancestors included) does not affect it.
func (m *Mapping) GetFullKey(key any) (string, error) {
	k, err := m.toKey(key)
	if err != nil {
		return "", err
	}
	return joinMapStep(m.Path(), k), nil
}

func (m *Mapping) Clone() Node {
	out := NewMapping()
	out.readonly = m.readonly
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	for k, child := range m.children {
		cp := child.Clone()
		cp.setParent(out, k, 0)
		out.children[k] = cp
	}
	return out
}

// Equal reports deep equality of resolved values. Key order is not
// significant.
func (m *Mapping) Equal(other Node) bool {
	return equalNodes(m, other, make(map[nodePair]struct{}))
}

// toKey converts a candidate key to its string form. Strings pass
// through; integer and bool scalars convert; anything else is an
// unsupported key type.
func (m *Mapping) toKey(key any) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case bool:
		return strconv.FormatBool(k), nil
	}
	if norm, ok := normalizeScalar(key); ok {
		if i, isInt := norm.(int64); isInt {
			return strconv.FormatInt(i, 10), nil
		}
	}
	return "", fmt.Errorf("%w: %T cannot be a mapping key (at %q)", ErrUnsupportedKeyType, key, m.Path())
}

// isScalarCandidate reports whether a Set candidate targets leaf storage
// rather than replacing the child node wholesale.
func isScalarCandidate(v any) bool {
	switch v.(type) {
	case Node:
		return false
	case missingType, *missingType:
		return true
	}
	_, ok := normalizeScalar(v)
	return ok || v == nil
}
