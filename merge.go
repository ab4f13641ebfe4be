package conftree

// Merge folds override trees left to right onto a deep copy of base and
// returns the result; base and the overrides are never mutated. Merge is
// associative left to right but not commutative.
//
// Rules:
//   - mapping onto mapping: union of keys; children that are containers
//     of the same kind merge recursively, anything else is replaced by
//     the override subject to leaf-type compatibility
//   - sequence onto sequence: the override replaces the base wholesale
//   - mapping onto sequence (or vice versa): ErrMergeConflict
//   - an override leaf declared missing ("???") never clobbers a present
//     base value; a leaf explicitly set to Missing does
func Merge(base Node, overrides ...Node) (Node, error) {
	result := base.Clone()
	for _, ov := range overrides {
		if err := mergeNode(result, ov); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeNode(dst, src Node) error {
	switch s := src.(type) {
	case *Mapping:
		d, ok := dst.(*Mapping)
		if !ok {
			return pathErrf(ErrMergeConflict, dst.Path(), "cannot merge a mapping into a %s", dst.Kind())
		}
		return mergeMapping(d, s)
	case *Sequence:
		d, ok := dst.(*Sequence)
		if !ok {
			return pathErrf(ErrMergeConflict, dst.Path(), "cannot merge a sequence into a %s", dst.Kind())
		}
		// Sequences are not merged element-wise: the override wins.
		return replaceSequence(d, s)
	case *Value:
		d, ok := dst.(*Value)
		if !ok {
			return pathErrf(ErrMergeConflict, dst.Path(), "cannot merge a leaf into a %s", dst.Kind())
		}
		return mergeLeaf(d, s)
	}
	return pathErrf(ErrMergeConflict, dst.Path(), "unknown override node type %T", src)
}

func mergeMapping(dst, src *Mapping) error {
	for _, key := range src.keys {
		sc := src.children[key]
		dc, exists := dst.children[key]
		if !exists {
			cp := sc.Clone()
			cp.setParent(dst, key, 0)
			dst.keys = append(dst.keys, key)
			dst.children[key] = cp
			continue
		}
		if dc.Kind().IsContainer() && sc.Kind().IsContainer() {
			if dc.Kind() != sc.Kind() {
				return pathErrf(ErrMergeConflict, dc.Path(), "cannot merge a %s into a %s", sc.Kind(), dc.Kind())
			}
			if err := mergeNode(dc, sc); err != nil {
				return err
			}
			continue
		}
		if leaf, ok := sc.(*Value); ok {
			if dl, isLeaf := dc.(*Value); isLeaf {
				if err := mergeLeaf(dl, leaf); err != nil {
					return err
				}
				continue
			}
			// Leaf override replaces a container, unless it is merely
			// declared missing.
			if leaf.missing && !leaf.explicit {
				continue
			}
		}
		cp := sc.Clone()
		cp.setParent(dst, key, 0)
		dc.detach()
		dst.children[key] = cp
	}
	return nil
}

func replaceSequence(dst, src *Sequence) error {
	for _, e := range dst.elems {
		e.detach()
	}
	dst.elems = make([]Node, len(src.elems))
	for i, e := range src.elems {
		cp := e.Clone()
		cp.setParent(dst, "", i)
		dst.elems[i] = cp
	}
	return nil
}

// mergeLeaf applies an override leaf onto a base leaf. A typed base leaf
// keeps its type and validates the incoming value; incompatibility is a
// merge conflict, not a silent replacement.
func mergeLeaf(dst, src *Value) error {
	if src.missing {
		if !src.explicit {
			return nil
		}
		dst.val = nil
		dst.missing = true
		dst.explicit = true
		return nil
	}
	if dst.kind == KindAny && src.kind != KindAny {
		// Typed overrides carry their type into the result.
		cp := src.Clone().(*Value)
		*dst = Value{
			node:     dst.node,
			kind:     cp.kind,
			enum:     cp.enum,
			optional: cp.optional,
			val:      cp.val,
			missing:  cp.missing,
			explicit: cp.explicit,
		}
		return nil
	}
	if _, isRef := refBody(src.val); isRef {
		// References transfer literally; type checking happens against
		// the resolved value at read time.
		dst.val = src.val
		dst.missing = false
		dst.explicit = false
		return nil
	}
	if err := dst.store(src.val, false); err != nil {
		return pathErrf(ErrMergeConflict, dst.Path(), "override value %v is incompatible with %s leaf: %v", src.val, dst.kind, err)
	}
	return nil
}
