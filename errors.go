package conftree

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the package wraps exactly one
// of these sentinels, so callers dispatch with errors.Is. Where a tree
// location is known the wrapping message carries the offending full key
// (see Node.Path).
var (
	// ErrUnsupportedValueType reports a construction input or leaf
	// assignment whose value cannot be represented by the tree.
	ErrUnsupportedValueType = errors.New("unsupported value type")

	// ErrUnsupportedKeyType reports a mapping key (or sequence index
	// reached through path syntax) of a type that cannot form a key.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrValidation reports a typed leaf rejecting a candidate value.
	ErrValidation = errors.New("validation failed")

	// ErrMissingValue reports a read of a missing ("???") leaf with no
	// default supplied.
	ErrMissingValue = errors.New("missing value")

	// ErrResolution reports an interpolation reference that points at a
	// nonexistent path.
	ErrResolution = errors.New("interpolation resolution failed")

	// ErrReferenceCycle reports a cycle among interpolation references.
	ErrReferenceCycle = errors.New("interpolation reference cycle")

	// ErrMergeConflict reports incompatible container kinds or
	// incompatible leaf types meeting at the same path during a merge.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrKeyNotFound reports an absent mapping key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexOutOfRange reports an out-of-range sequence index.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrValueNotFound reports a value absent from a sequence in
	// Remove or Index.
	ErrValueNotFound = errors.New("value not found")

	// ErrReadOnly reports a mutation attempt on a readonly node.
	ErrReadOnly = errors.New("node is readonly")

	// ErrConfigNotFound indicates the config file was not found during
	// layered loading. It is not fatal; loading proceeds with the
	// remaining sources.
	ErrConfigNotFound = errors.New("config file not found")
)

// pathErrf wraps a sentinel with the offending full key and a detail
// message: "<sentinel>: key <path>: <detail>".
func pathErrf(kind error, path, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	if path == "" {
		if detail == "" {
			return kind
		}
		return fmt.Errorf("%w: %s", kind, detail)
	}
	if detail == "" {
		return fmt.Errorf("%w: key %s", kind, path)
	}
	return fmt.Errorf("%w: key %s: %s", kind, path, detail)
}
