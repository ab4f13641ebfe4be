package conftree

import "strconv"

// Kind identifies the variant of a node: one of the typed leaf kinds or
// one of the two container kinds.
type Kind int

const (
	KindAny Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindEnum
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return "<unknown kind>"
}

// IsContainer reports whether the kind is a mapping or a sequence.
func (k Kind) IsContainer() bool {
	return k == KindMapping || k == KindSequence
}

// Node is a single node in a configuration tree: a *Value leaf, a
// *Mapping, or a *Sequence. Every node knows its parent container (nil
// for a root) and the step that reaches it, which together determine its
// full key. The parent link is non-owning; ownership flows parent to
// child only.
type Node interface {
	// Kind returns the node variant.
	Kind() Kind

	// Parent returns the owning container, or nil for a root node.
	Parent() Node

	// Root returns the ultimate root of the tree this node belongs to.
	// A detached node is its own root.
	Root() Node

	// Path returns the full key of the node from the tree root, e.g.
	// "a.b[1][0].c". The root's path is the empty string. The path is
	// purely structural; missing values along the chain do not affect it.
	Path() string

	// ReadOnly reports whether mutation is rejected on this node.
	ReadOnly() bool

	// SetReadOnly toggles the readonly flag. On containers the flag is
	// applied to the whole subtree.
	SetReadOnly(ro bool)

	// Clone returns a detached deep copy of the node. Interpolation
	// references are copied literally, not resolved.
	Clone() Node

	// Equal reports deep structural equality over resolved values.
	// Interpolations compare by what they resolve to; a reference that
	// fails to resolve is never equal to anything.
	Equal(other Node) bool

	setParent(parent Node, key string, index int)
	detach()
}

// node carries the state common to all node variants: the non-owning
// parent back-reference, the step (key or index) under the parent, and
// the mutation flags.
type node struct {
	parent   Node
	key      string
	index    int
	readonly bool
}

func (n *node) Parent() Node { return n.parent }

func (n *node) ReadOnly() bool { return n.readonly }

func (n *node) setParent(parent Node, key string, index int) {
	n.parent = parent
	n.key = key
	n.index = index
}

func (n *node) detach() {
	n.parent = nil
	n.key = ""
	n.index = 0
}

// rootAbove returns the topmost ancestor, or nil when the node has no
// parent. Concrete types fall back to themselves in Root.
func (n *node) rootAbove() Node {
	var root Node
	for p := n.parent; p != nil; p = p.Parent() {
		root = p
	}
	return root
}

// nodePair keys the visited set of an equality walk by node identity.
type nodePair [2]Node

// equalNodes implements Node.Equal. References can resolve to container
// ancestors of the referencing leaf, so the walk tracks visited node
// pairs; revisiting a pair means the comparison has looped back onto
// structure already being compared, which cannot itself introduce a
// difference, so it compares equal and any real mismatch surfaces
// elsewhere in the walk.
func equalNodes(a, b Node, seen map[nodePair]struct{}) bool {
	pair := nodePair{a, b}
	if _, visited := seen[pair]; visited {
		return true
	}
	seen[pair] = struct{}{}

	switch x := a.(type) {
	case *Value:
		y, ok := b.(*Value)
		if !ok {
			return false
		}
		if x.missing || y.missing {
			return x.missing && y.missing
		}
		av, errA := x.Get()
		bv, errB := y.Get()
		if errA != nil || errB != nil {
			return false
		}
		an, aIsNode := av.(Node)
		bn, bIsNode := bv.(Node)
		if aIsNode || bIsNode {
			return aIsNode && bIsNode && equalNodes(an, bn, seen)
		}
		return nativeEqual(av, bv)
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || len(x.keys) != len(y.keys) {
			return false
		}
		for k, child := range x.children {
			oc, exists := y.children[k]
			if !exists || !equalNodes(child, oc, seen) {
				return false
			}
		}
		return true
	case *Sequence:
		y, ok := b.(*Sequence)
		if !ok || len(x.elems) != len(y.elems) {
			return false
		}
		for i, e := range x.elems {
			if !equalNodes(e, y.elems[i], seen) {
				return false
			}
		}
		return true
	}
	return false
}

// Path builds the full key by walking the ancestor chain: mapping steps
// join with ".", sequence steps render as "[i]", and the first segment
// carries no leading separator.
func (n *node) Path() string {
	if n.parent == nil {
		return ""
	}
	prefix := n.parent.Path()
	if n.parent.Kind() == KindSequence {
		return prefix + "[" + strconv.Itoa(n.index) + "]"
	}
	if prefix == "" {
		return n.key
	}
	return prefix + "." + n.key
}

