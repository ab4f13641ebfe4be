package conftree

// Typed accessors on a mapping root. Each walks a dotted/bracketed path
// ("server.port", "hosts[0]"), resolves interpolations, and converts the
// result with the same coercion rules the typed leaves use.

// String retrieves a string configuration value at path, converting from
// common scalar types where the stored value isn't already a string.
func (m *Mapping) String(path string) (string, error) {
	val, err := Select(m, path)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil // Treat nil as empty string for convenience
	}
	if n, ok := val.(Node); ok {
		return "", pathErrf(ErrValidation, path, "cannot convert %s to string", n.Kind())
	}
	norm, ok := normalizeScalar(val)
	if !ok {
		return "", pathErrf(ErrValidation, path, "cannot convert %T to string", val)
	}
	return coerceString(norm), nil
}

// Int64 retrieves an integer configuration value at path, converting
// from numeric types, parseable strings, and booleans.
func (m *Mapping) Int64(path string) (int64, error) {
	val, err := Select(m, path)
	if err != nil {
		return 0, err
	}
	norm, ok := normalizeScalar(val)
	if !ok {
		return 0, pathErrf(ErrValidation, path, "cannot convert %T to int64", val)
	}
	return coerceInt(path, norm)
}

// Bool retrieves a boolean configuration value at path, converting from
// parseable strings and numerics (0 = false).
func (m *Mapping) Bool(path string) (bool, error) {
	val, err := Select(m, path)
	if err != nil {
		return false, err
	}
	norm, ok := normalizeScalar(val)
	if !ok {
		return false, pathErrf(ErrValidation, path, "cannot convert %T to bool", val)
	}
	return coerceBool(path, norm)
}

// Float64 retrieves a float configuration value at path, converting from
// numeric types, parseable strings, and booleans.
func (m *Mapping) Float64(path string) (float64, error) {
	val, err := Select(m, path)
	if err != nil {
		return 0, err
	}
	norm, ok := normalizeScalar(val)
	if !ok {
		return 0, pathErrf(ErrValidation, path, "cannot convert %T to float64", val)
	}
	return coerceFloat(path, norm)
}
