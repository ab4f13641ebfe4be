package conftree

import "regexp"

// refPattern recognizes a leaf whose entire content is an interpolation
// reference: "${<path>}".
var refPattern = regexp.MustCompile(`^\$\{([^${}]*)\}$`)

// refBody extracts the path body of a reference string, reporting whether
// the value is one.
func refBody(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// resolveRef resolves the reference body found in leaf from against the
// ultimate root of its tree. The walk descends step by step; if the
// target is itself a reference, resolution recurses with the shared
// visited set, so cycles surface as ErrReferenceCycle instead of
// unbounded recursion. Resolution never mutates the referenced node and
// never caches the result: the link is re-evaluated on every read.
func resolveRef(from *Value, body string, seen map[Node]struct{}) (any, error) {
	steps, err := parseRefSteps(body)
	if err != nil {
		return nil, err
	}
	cur := from.Root()
	for _, step := range steps {
		next, err := walkStep(cur, step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	if leaf, ok := cur.(*Value); ok {
		if leaf.missing {
			return nil, pathErrf(ErrResolution, from.Path(), "reference ${%s} points at a missing value", body)
		}
		return leaf.get(seen)
	}
	return cur, nil
}
