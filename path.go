package conftree

import (
	"fmt"
	"strconv"
	"strings"
)

// parseRefSteps parses the body of a "${...}" reference (or a Select
// path) into its step tokens. A mapping step is a bare identifier or a
// single-quoted token (with \' escapes); a sequence step is a bracketed
// decimal index. A bare decimal token also addresses a sequence index
// when the walk reaches a sequence. The empty body addresses the root.
func parseRefSteps(body string) ([]string, error) {
	var steps []string
	rest := body
	first := true
	for rest != "" {
		switch {
		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: expected ']' in %q", ErrResolution, body)
			}
			idx := rest[1:end]
			if _, err := strconv.ParseUint(idx, 10, 63); err != nil {
				return nil, fmt.Errorf("%w: index %q in %q is not a decimal integer", ErrUnsupportedKeyType, idx, body)
			}
			steps = append(steps, idx)
			rest = rest[end+1:]
		case rest[0] == '.':
			if first {
				return nil, fmt.Errorf("%w: path %q must not start with '.'", ErrResolution, body)
			}
			field, tail, err := parseFieldToken(rest[1:], body)
			if err != nil {
				return nil, err
			}
			steps = append(steps, field)
			rest = tail
		default:
			if !first {
				return nil, fmt.Errorf("%w: expected '.' or '[' in %q", ErrResolution, body)
			}
			field, tail, err := parseFieldToken(rest, body)
			if err != nil {
				return nil, err
			}
			steps = append(steps, field)
			rest = tail
		}
		first = false
	}
	return steps, nil
}

// parseFieldToken consumes one mapping step: a bare token up to the next
// '.' or '[', or a single-quoted token with backslash escapes.
func parseFieldToken(frag, whole string) (field, rest string, err error) {
	if frag == "" {
		return "", "", fmt.Errorf("%w: empty step in %q", ErrResolution, whole)
	}
	if frag[0] != '\'' {
		i := strings.IndexAny(frag, ".[")
		if i == -1 {
			return frag, "", nil
		}
		if i == 0 {
			return "", "", fmt.Errorf("%w: empty step in %q", ErrResolution, whole)
		}
		return frag[:i], frag[i:], nil
	}
	escaped := false
	token := make([]byte, 0, len(frag))
	for i := 1; i < len(frag); i++ {
		c := frag[i]
		switch c {
		case '\\':
			if escaped {
				token = append(token, c)
				escaped = false
				continue
			}
			escaped = true
		case '\'':
			if !escaped {
				return string(token), frag[i+1:], nil
			}
			token = append(token, c)
			escaped = false
		default:
			escaped = false
			token = append(token, c)
		}
	}
	return "", "", fmt.Errorf("%w: unterminated quoted step in %q", ErrResolution, whole)
}

// walkStep descends one step from a container node. Mapping steps use the
// token as a key; sequence steps require a decimal token.
func walkStep(cur Node, step string) (Node, error) {
	switch c := cur.(type) {
	case *Mapping:
		child, ok := c.child(step)
		if !ok {
			return nil, pathErrf(ErrResolution, joinMapStep(c.Path(), step), "no such key")
		}
		return child, nil
	case *Sequence:
		idx, err := strconv.Atoi(step)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a sequence index (at %q)", ErrUnsupportedKeyType, step, c.Path())
		}
		if idx < 0 || idx >= len(c.elems) {
			return nil, pathErrf(ErrResolution, c.Path(), "index %d out of range (len %d)", idx, len(c.elems))
		}
		return c.elems[idx], nil
	default:
		return nil, pathErrf(ErrResolution, cur.Path(), "cannot descend %q into a %s leaf", step, cur.Kind())
	}
}

// SelectNode walks a dotted/bracketed path ("server.hosts[0]") from root
// and returns the node it addresses, without resolving leaf content.
func SelectNode(root Node, path string) (Node, error) {
	steps, err := parseRefSteps(path)
	if err != nil {
		return nil, err
	}
	cur := root
	for _, step := range steps {
		next, err := walkStep(cur, step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Select walks a dotted/bracketed path from root and returns the resolved
// value at that location: a scalar for leaves, the container node itself
// for mappings and sequences.
func Select(root Node, path string) (any, error) {
	n, err := SelectNode(root, path)
	if err != nil {
		return nil, err
	}
	if leaf, ok := n.(*Value); ok {
		return leaf.Get()
	}
	return n, nil
}

// joinMapStep appends a mapping step to a path prefix.
func joinMapStep(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
