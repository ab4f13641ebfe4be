package conftree

import (
	"fmt"
	"sort"
	"strconv"
)

// Sequence is the ordered, index-addressed container variant. Read
// operations accept negative indices (counting from the end) and slices;
// mutation is strictly 0-based.
type Sequence struct {
	node
	elems []Node
}

// NewSequence returns an empty detached sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Kind() Kind { return KindSequence }

func (s *Sequence) Root() Node {
	if r := s.rootAbove(); r != nil {
		return r
	}
	return s
}

// SetReadOnly applies the flag to the sequence and its whole subtree.
func (s *Sequence) SetReadOnly(ro bool) {
	s.readonly = ro
	for _, e := range s.elems {
		e.SetReadOnly(ro)
	}
}

func (s *Sequence) Len() int { return len(s.elems) }

// normIndex maps a possibly-negative read index into [0, len).
func (s *Sequence) normIndex(i int) (int, error) {
	n := len(s.elems)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, pathErrf(ErrIndexOutOfRange, s.Path(), "index %d out of range (len %d)", i, n)
	}
	return i, nil
}

// GetNode returns the element node at i without resolving its content.
func (s *Sequence) GetNode(i int) (Node, error) {
	idx, err := s.normIndex(i)
	if err != nil {
		return nil, err
	}
	return s.elems[idx], nil
}

// Get returns the resolved value at index i: a scalar for leaves, the
// element node itself for containers. Negative indices count from the
// end.
func (s *Sequence) Get(i int) (any, error) {
	idx, err := s.normIndex(i)
	if err != nil {
		return nil, err
	}
	if leaf, ok := s.elems[idx].(*Value); ok {
		return leaf.Get()
	}
	return s.elems[idx], nil
}

// GetDefault returns the resolved value at i, or def when the index is
// out of range, the leaf is missing or nil, or resolution fails.
func (s *Sequence) GetDefault(i int, def any) any {
	idx, err := s.normIndex(i)
	if err != nil {
		return def
	}
	if leaf, ok := s.elems[idx].(*Value); ok {
		return leaf.GetDefault(def)
	}
	return s.elems[idx]
}

// Slice returns a new detached sequence holding deep copies of the
// elements selected by [start:end:step], with negative bounds counted
// from the end and out-of-range bounds clamped. Interpolation
// references are copied literally. step must be positive.
func (s *Sequence) Slice(start, end, step int) (*Sequence, error) {
	if step < 1 {
		return nil, pathErrf(ErrIndexOutOfRange, s.Path(), "slice step %d must be positive", step)
	}
	n := len(s.elems)
	start, end = clampRange(start, end, n)
	out := NewSequence()
	for i := start; i < end; i += step {
		cp := s.elems[i].Clone()
		cp.setParent(out, "", len(out.elems))
		out.elems = append(out.elems, cp)
	}
	return out, nil
}

// Set validates and stores a value at index i. Assigning a raw scalar
// over an existing typed leaf validates through that leaf's type; on
// validation failure the sequence is unchanged.
func (s *Sequence) Set(i int, value any) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	idx, err := s.normIndex(i)
	if err != nil {
		return err
	}
	existing := s.elems[idx]
	if leaf, ok := existing.(*Value); ok && isScalarCandidate(value) {
		return leaf.Set(value)
	}
	child, err := adoptValue(value, s.Path()+"["+strconv.Itoa(idx)+"]")
	if err != nil {
		return err
	}
	existing.detach()
	s.elems[idx] = child
	child.setParent(s, "", idx)
	return nil
}

// Insert places a value at index i, shifting later elements right. The
// incoming value is validated before any structural change: on failure
// the sequence length and contents are unchanged. An index beyond either
// end clamps, as in list insertion.
func (s *Sequence) Insert(i int, value any) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	if i < 0 {
		i += len(s.elems)
		if i < 0 {
			i = 0
		}
	}
	if i > len(s.elems) {
		i = len(s.elems)
	}
	child, err := adoptValue(value, s.Path()+"["+strconv.Itoa(i)+"]")
	if err != nil {
		return err
	}
	s.elems = append(s.elems, nil)
	copy(s.elems[i+1:], s.elems[i:])
	s.elems[i] = child
	child.setParent(s, "", i)
	s.reindex(i + 1)
	return nil
}

// Append adds a value at the end, validating before any structural
// change.
func (s *Sequence) Append(value any) error {
	return s.Insert(len(s.elems), value)
}

// Extend appends every element of values in order. All elements are
// validated before the first one is appended, so a failure leaves the
// sequence unchanged.
func (s *Sequence) Extend(values []any) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	base := len(s.elems)
	built := make([]Node, 0, len(values))
	for off, v := range values {
		child, err := adoptValue(v, s.Path()+"["+strconv.Itoa(base+off)+"]")
		if err != nil {
			return err
		}
		built = append(built, child)
	}
	for off, child := range built {
		child.setParent(s, "", base+off)
		s.elems = append(s.elems, child)
	}
	return nil
}

// ExtendSeq appends deep copies of another sequence's elements in
// order. Interpolation references copy literally and re-resolve against
// this tree. Cloning cannot fail, so a readonly rejection is the only
// failure and it leaves the sequence unchanged. Extending a sequence
// with itself appends one snapshot of its prior elements.
func (s *Sequence) ExtendSeq(other *Sequence) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	base := len(s.elems)
	for i, e := range other.elems {
		cp := e.Clone()
		cp.setParent(s, "", base+i)
		s.elems = append(s.elems, cp)
	}
	return nil
}

// Remove deletes the first element whose resolved value equals value;
// absence fails with ErrValueNotFound.
func (s *Sequence) Remove(value any) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	for i, e := range s.elems {
		if elementEqual(e, value) {
			return s.Delete(i)
		}
	}
	return pathErrf(ErrValueNotFound, s.Path(), "%v not in sequence", value)
}

// Pop removes and returns the resolved value at index i; -1 pops the
// last element. An empty sequence or invalid index fails with
// ErrIndexOutOfRange.
func (s *Sequence) Pop(i int) (any, error) {
	if s.readonly {
		return nil, pathErrf(ErrReadOnly, s.Path(), "")
	}
	idx, err := s.normIndex(i)
	if err != nil {
		return nil, err
	}
	elem := s.elems[idx]
	var out any = elem
	if leaf, ok := elem.(*Value); ok {
		out, err = leaf.Get()
		if err != nil {
			return nil, err
		}
	}
	if err := s.Delete(idx); err != nil {
		return nil, err
	}
	return out, nil
}

// Index returns the position of the first element whose resolved value
// equals value, or ErrValueNotFound.
func (s *Sequence) Index(value any) (int, error) {
	return s.IndexRange(value, 0, len(s.elems))
}

// IndexRange scans [start, end) for the first resolved-equal element.
func (s *Sequence) IndexRange(value any, start, end int) (int, error) {
	start, end = clampRange(start, end, len(s.elems))
	for i := start; i < end; i++ {
		if elementEqual(s.elems[i], value) {
			return i, nil
		}
	}
	return 0, pathErrf(ErrValueNotFound, s.Path(), "%v not in sequence[%d:%d]", value, start, end)
}

// Count returns how many elements have a resolved value equal to value.
func (s *Sequence) Count(value any) int {
	count := 0
	for _, e := range s.elems {
		if elementEqual(e, value) {
			count++
		}
	}
	return count
}

// Sort orders the elements stably by their resolved values. key, when
// non-nil, transforms each resolved value before comparison. All sort
// keys must share a comparison class (numeric, string, or bool).
func (s *Sequence) Sort(key func(any) any, reverse bool) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	type ranked struct {
		elem Node
		key  any
	}
	items := make([]ranked, len(s.elems))
	for i, e := range s.elems {
		leaf, ok := e.(*Value)
		if !ok {
			return pathErrf(ErrValidation, s.Path(), "cannot sort container element at [%d]", i)
		}
		v, err := leaf.Get()
		if err != nil {
			return err
		}
		if key != nil {
			v = key(v)
		}
		norm, ok := normalizeScalar(v)
		if !ok {
			return pathErrf(ErrValidation, s.Path(), "sort key %T at [%d] is not comparable", v, i)
		}
		items[i] = ranked{elem: e, key: norm}
	}
	for i := 1; i < len(items); i++ {
		if _, err := compareScalars(items[0].key, items[i].key); err != nil {
			return pathErrf(ErrValidation, s.Path(), "%v", err)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		cmp, _ := compareScalars(items[i].key, items[j].key)
		if reverse {
			return cmp > 0
		}
		return cmp < 0
	})
	for i, it := range items {
		s.elems[i] = it.elem
		it.elem.setParent(s, "", i)
	}
	return nil
}

// Delete removes the element at index i, detaching its parent link.
func (s *Sequence) Delete(i int) error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	idx, err := s.normIndex(i)
	if err != nil {
		return err
	}
	s.elems[idx].detach()
	s.elems = append(s.elems[:idx], s.elems[idx+1:]...)
	s.reindex(idx)
	return nil
}

// Clear removes all elements.
func (s *Sequence) Clear() error {
	if s.readonly {
		return pathErrf(ErrReadOnly, s.Path(), "")
	}
	for _, e := range s.elems {
		e.detach()
	}
	s.elems = s.elems[:0]
	return nil
}

// Concat returns a new detached sequence containing deep copies of this
// sequence's elements followed by other's. Interpolation references are
// preserved literally, so the result re-resolves against its own tree.
func (s *Sequence) Concat(other *Sequence) (*Sequence, error) {
	out := NewSequence()
	for _, src := range [][]Node{s.elems, other.elems} {
		for _, e := range src {
			cp := e.Clone()
			cp.setParent(out, "", len(out.elems))
			out.elems = append(out.elems, cp)
		}
	}
	return out, nil
}

// GetFullKey returns the full path from the tree's actual root to the
// element at index i. The path is purely structural.
func (s *Sequence) GetFullKey(i int) string {
	return s.Path() + "[" + strconv.Itoa(i) + "]"
}

func (s *Sequence) Clone() Node {
	out := NewSequence()
	out.readonly = s.readonly
	out.elems = make([]Node, len(s.elems))
	for i, e := range s.elems {
		cp := e.Clone()
		cp.setParent(out, "", i)
		out.elems[i] = cp
	}
	return out
}

// Equal reports element-wise deep equality of resolved values.
func (s *Sequence) Equal(other Node) bool {
	return equalNodes(s, other, make(map[nodePair]struct{}))
}

// reindex refreshes the parent-step index of elements at and after from.
func (s *Sequence) reindex(from int) {
	for i := from; i < len(s.elems); i++ {
		s.elems[i].setParent(s, "", i)
	}
}

// elementEqual compares an element node's resolved value against a
// native candidate (scalar, nested map/slice, or node).
func elementEqual(e Node, candidate any) bool {
	if cn, ok := candidate.(Node); ok {
		return e.Equal(cn)
	}
	switch e := e.(type) {
	case *Value:
		got, err := e.Get()
		if err != nil {
			return false
		}
		return nativeEqual(got, candidate)
	default:
		built, err := Create(candidate)
		if err != nil {
			return false
		}
		return e.Equal(built)
	}
}

// compareScalars orders two normalized scalars of the same comparison
// class, returning <0, 0, or >0.
func compareScalars(a, b any) (int, error) {
	af, aNum := scalarFloat(a)
	bf, bNum := scalarFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		}
		return 0, nil
	}
	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case !ab && bb:
			return -1, nil
		case ab && !bb:
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot compare %T and %T", a, b)
}

func scalarFloat(v any) (float64, bool) {
	switch c := v.(type) {
	case int64:
		return float64(c), true
	case float64:
		return c, true
	}
	return 0, false
}

// clampRange normalizes range bounds against length n: negative bounds
// count from the end, and anything out of range clamps.
func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	if end < 0 {
		end += n
		if end < 0 {
			end = 0
		}
	}
	if end > n {
		end = n
	}
	return start, end
}
