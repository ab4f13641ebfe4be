package conftree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opaqueType struct{ x int }

func TestValueCoercion(t *testing.T) {
	tests := []struct {
		name        string
		make        func(v any) (*Value, error)
		input       any
		expected    any
		expectError error
	}{
		{"IntFromInt", NewInt, 42, int64(42), nil},
		{"IntFromString", NewInt, "42", int64(42), nil},
		{"IntFromHexString", NewInt, "0xFF", int64(255), nil},
		{"IntFromIntegralFloat", NewInt, 3.0, int64(3), nil},
		{"IntFromFractionalFloat", NewInt, 3.5, nil, ErrValidation},
		{"IntFromBadString", NewInt, "abc", nil, ErrValidation},
		{"IntFromBoolTrue", NewInt, true, int64(1), nil},
		{"FloatFromInt", NewFloat, 2, float64(2), nil},
		{"FloatFromString", NewFloat, "1.5", 1.5, nil},
		{"FloatFromBadString", NewFloat, "xyz", nil, ErrValidation},
		{"BoolFromString", NewBool, "true", true, nil},
		{"BoolFromInt", NewBool, 0, false, nil},
		{"BoolFromBadString", NewBool, "maybe", nil, ErrValidation},
		{"StringFromInt", NewString, 7, "7", nil},
		{"StringFromBool", NewString, false, "false", nil},
		{"AnyFromString", NewAny, "hello", "hello", nil},
		{"AnyFromNil", NewAny, nil, nil, nil},
		{"AnyFromOpaque", NewAny, opaqueType{x: 1}, nil, ErrUnsupportedValueType},
		{"IntFromOpaque", NewInt, opaqueType{x: 1}, nil, ErrUnsupportedValueType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.make(tt.input)
			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			got, err := v.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValueEnum(t *testing.T) {
	level := &EnumType{
		Name: "Level",
		Members: []EnumMember{
			{Name: "debug", Value: 0},
			{Name: "info", Value: 1},
			{Name: "error", Value: 2},
		},
	}

	t.Run("ByName", func(t *testing.T) {
		v, err := NewEnum(level, "info")
		require.NoError(t, err)
		got, err := v.Get()
		require.NoError(t, err)
		assert.Equal(t, "info", got)
	})

	t.Run("ByValue", func(t *testing.T) {
		v, err := NewEnum(level, 2)
		require.NoError(t, err)
		got, err := v.Get()
		require.NoError(t, err)
		assert.Equal(t, "error", got)
	})

	t.Run("NotAMember", func(t *testing.T) {
		_, err := NewEnum(level, "verbose")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("NotAValue", func(t *testing.T) {
		_, err := NewEnum(level, 99)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("EmptyEnumType", func(t *testing.T) {
		_, err := NewEnum(&EnumType{Name: "Empty"}, "x")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestValueMissing(t *testing.T) {
	t.Run("DeclaredMissing", func(t *testing.T) {
		v, err := NewAny("???")
		require.NoError(t, err)
		assert.True(t, v.IsMissing())

		_, err = v.Get()
		assert.ErrorIs(t, err, ErrMissingValue)
		assert.Equal(t, "fallback", v.GetDefault("fallback"))
	})

	t.Run("ExplicitMissing", func(t *testing.T) {
		v, err := NewAny(1)
		require.NoError(t, err)
		require.NoError(t, v.Set(Missing))
		assert.True(t, v.IsMissing())
	})

	t.Run("NilUsesDefault", func(t *testing.T) {
		v, err := NewAny(nil)
		require.NoError(t, err)
		assert.False(t, v.IsMissing())
		assert.Equal(t, "fallback", v.GetDefault("fallback"))
	})

	t.Run("NilRejectedByTypedLeaf", func(t *testing.T) {
		v, err := NewInt(1)
		require.NoError(t, err)
		err = v.Set(nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("NilAcceptedByOptionalLeaf", func(t *testing.T) {
		v, err := NewInt(1)
		require.NoError(t, err)
		v.SetOptional(true)
		require.NoError(t, v.Set(nil))
		got, err := v.Get()
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestValueSetTransactional(t *testing.T) {
	v, err := NewInt(10)
	require.NoError(t, err)

	err = v.Set("not a number")
	assert.ErrorIs(t, err, ErrValidation)

	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(10), got, "failed set must leave the prior value intact")
}

func TestValueReadOnly(t *testing.T) {
	v, err := NewInt(10)
	require.NoError(t, err)
	v.SetReadOnly(true)

	err = v.Set(20)
	assert.ErrorIs(t, err, ErrReadOnly)

	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	v.SetReadOnly(false)
	require.NoError(t, v.Set(20))
}

func TestValueReferenceStorage(t *testing.T) {
	v, err := NewInt(1)
	require.NoError(t, err)

	// A reference assigns into any leaf kind; validation is deferred to
	// the read that resolves it.
	require.NoError(t, v.Set("${some.path}"))
	assert.True(t, v.IsReference())
}
