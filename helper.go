package conftree

import "strings"

// setNestedValue sets a value in a nested map using a dot-notation path,
// creating intermediate maps as needed. A non-map segment in the way is
// replaced by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]
		next, exists := current[segment]
		if !exists {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
			continue
		}
		if nextMap, isMap := next.(map[string]any); isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// isValidKeySegment checks if a single CLI path segment is a valid bare
// key: ASCII letters, digits, underscores, and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// leafPaths collects the full keys of every leaf in the tree, in
// iteration order.
func leafPaths(n Node) []string {
	var out []string
	collectLeafPaths(n, &out)
	return out
}

func collectLeafPaths(n Node, out *[]string) {
	switch c := n.(type) {
	case *Mapping:
		for _, k := range c.keys {
			collectLeafPaths(c.children[k], out)
		}
	case *Sequence:
		for _, e := range c.elems {
			collectLeafPaths(e, out)
		}
	default:
		*out = append(*out, n.Path())
	}
}
