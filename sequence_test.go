package conftree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(t *testing.T, elems ...any) *Sequence {
	t.Helper()
	s, err := Create(elems)
	require.NoError(t, err)
	return s.(*Sequence)
}

func TestSequenceAppend(t *testing.T) {
	s := seq(t)
	require.NoError(t, s.Append(1))
	require.NoError(t, s.Append(2))
	require.NoError(t, s.Append(map[string]any{}))
	require.NoError(t, s.Append([]any{}))

	assert.Equal(t, 4, s.Len())
	assert.True(t, s.Equal(MustCreate([]any{1, 2, map[string]any{}, []any{}})))
}

func TestSequenceGet(t *testing.T) {
	s := seq(t, 10, 11, 12, 13)

	got, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	got, err = s.Get(-1)
	require.NoError(t, err)
	assert.Equal(t, int64(13), got)

	_, err = s.Get(4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.Get(-5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSequenceGetWithDefault(t *testing.T) {
	s := seq(t, nil, "???", "found")
	assert.Equal(t, "default_value", s.GetDefault(0, "default_value"))
	assert.Equal(t, "default_value", s.GetDefault(1, "default_value"))
	assert.Equal(t, "found", s.GetDefault(2, "default_value"))
}

func TestSequenceSlice(t *testing.T) {
	s := seq(t, 10, 11, 12, 13)

	sub, err := s.Slice(1, 3, 1)
	require.NoError(t, err)
	assert.True(t, sub.Equal(MustCreate([]any{11, 12})))

	stepped, err := s.Slice(0, 3, 2)
	require.NoError(t, err)
	assert.True(t, stepped.Equal(MustCreate([]any{10, 12})))

	_, err = s.Slice(0, 2, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSequenceInsert(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected []any
	}{
		{"Scalar", 100, []any{"a", 100, "b", "c"}},
		{"String", "foo", []any{"a", "foo", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seq(t, "a", "b", "c")
			require.NoError(t, s.Insert(1, tt.value))
			assert.True(t, s.Equal(MustCreate(tt.expected)))
		})
	}

	t.Run("TypedNodeKeepsItsKind", func(t *testing.T) {
		s := seq(t, "a", "b", "c")
		iv, err := NewInt(100)
		require.NoError(t, err)
		require.NoError(t, s.Insert(1, iv))

		node, err := s.GetNode(1)
		require.NoError(t, err)
		assert.Equal(t, KindInt, node.Kind())
	})
}

func TestSequenceInsertThrowsNotChangingList(t *testing.T) {
	s := seq(t)
	err := s.Insert(0, opaqueType{x: 1})
	assert.ErrorIs(t, err, ErrUnsupportedValueType)
	assert.Equal(t, 0, s.Len())
}

func TestSequenceAppendThrowsNotChangingList(t *testing.T) {
	s := seq(t)
	err := s.Append(opaqueType{x: 1})
	assert.ErrorIs(t, err, ErrUnsupportedValueType)
	assert.Equal(t, 0, s.Len())
}

func TestSequenceNestedAssignIllegalValue(t *testing.T) {
	root := MustCreate(map[string]any{"a": []any{nil}}).(*Mapping)
	a, ok := root.GetNode("a")
	require.True(t, ok)

	err := a.(*Sequence).Set(0, opaqueType{x: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedValueType)
	assert.Contains(t, err.Error(), "key a[0]", "the error names the offending full key")
}

func TestSequenceExtend(t *testing.T) {
	tests := []struct {
		name     string
		src      []any
		extend   []any
		expected []any
	}{
		{"EmptyOntoEmpty", []any{}, []any{}, []any{}},
		{"Values", []any{1, 2}, []any{3}, []any{1, 2, 3}},
		{"Strings", []any{1, 2}, []any{"a", "b", "c"}, []any{1, 2, "a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seq(t, tt.src...)
			require.NoError(t, s.Extend(tt.extend))
			assert.True(t, s.Equal(MustCreate(tt.expected)))
		})
	}

	t.Run("AtomicOnFailure", func(t *testing.T) {
		s := seq(t, 1)
		err := s.Extend([]any{2, opaqueType{x: 1}})
		assert.ErrorIs(t, err, ErrUnsupportedValueType)
		assert.Equal(t, 1, s.Len())
	})
}

func TestSequenceExtendWithSequence(t *testing.T) {
	s := seq(t, 1, 2)
	tail := seq(t, "a", map[string]any{"k": "v"})

	require.NoError(t, s.ExtendSeq(tail))
	assert.True(t, s.Equal(MustCreate([]any{1, 2, "a", map[string]any{"k": "v"}})))

	// Deep copies: mutating the source afterwards does not leak in.
	require.NoError(t, tail.Set(0, "changed"))
	got, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	t.Run("SelfExtend", func(t *testing.T) {
		s := seq(t, 1, 2)
		require.NoError(t, s.ExtendSeq(s))
		assert.True(t, s.Equal(MustCreate([]any{1, 2, 1, 2})))
	})

	t.Run("ReadOnly", func(t *testing.T) {
		s := seq(t, 1)
		s.SetReadOnly(true)
		assert.ErrorIs(t, s.ExtendSeq(seq(t, 2)), ErrReadOnly)
		assert.Equal(t, 1, s.Len())
	})
}

func TestSequenceRemove(t *testing.T) {
	tests := []struct {
		name     string
		src      []any
		remove   any
		expected []any
		wantErr  bool
	}{
		{"Scalar", []any{10}, 10, []any{}, false},
		{"AbsentValue", []any{}, "oops", nil, true},
		{"MappingValue", []any{0, map[string]any{"a": "blah"}, 10}, map[string]any{"a": "blah"}, []any{0, 10}, false},
		{"FirstMatchOnly", []any{1, 2, 1, 2}, 2, []any{1, 1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seq(t, tt.src...)
			err := s.Remove(tt.remove)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValueNotFound)
				return
			}
			require.NoError(t, err)
			assert.True(t, s.Equal(MustCreate(tt.expected)))
		})
	}
}

func TestSequencePop(t *testing.T) {
	s := seq(t, 1, 2, 3, 4)

	got, err := s.Pop(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = s.Pop(-1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)

	assert.True(t, s.Equal(MustCreate([]any{2, 3})))

	_, err = s.Pop(100)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	empty := seq(t)
	_, err = empty.Pop(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSequenceIndex(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		s := seq(t, 10, 20)
		i, err := s.Index(10)
		require.NoError(t, err)
		assert.Equal(t, 0, i)

		i, err = s.Index(20)
		require.NoError(t, err)
		assert.Equal(t, 1, i)

		_, err = seq(t).Index(20)
		assert.ErrorIs(t, err, ErrValueNotFound)
	})

	t.Run("WithRange", func(t *testing.T) {
		s := seq(t, 10, 20, 30, 40, 50)

		i, err := s.Index(30)
		require.NoError(t, err)
		assert.Equal(t, 2, i)

		i, err = s.IndexRange(30, 1, s.Len())
		require.NoError(t, err)
		assert.Equal(t, 2, i)

		i, err = s.IndexRange(30, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, i)

		_, err = s.IndexRange(30, 3, s.Len())
		assert.ErrorIs(t, err, ErrValueNotFound)

		_, err = s.IndexRange(30, 0, 2)
		assert.ErrorIs(t, err, ErrValueNotFound)
	})
}

func TestSequenceCount(t *testing.T) {
	tests := []struct {
		name  string
		src   []any
		item  any
		count int
	}{
		{"Empty", []any{}, 10, 0},
		{"Single", []any{10}, 10, 1},
		{"Repeated", []any{10, 2, 10}, 10, 2},
		{"NilNeedle", []any{10, 2, 10}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.count, seq(t, tt.src...).Count(tt.item))
		})
	}
}

func TestSequenceSort(t *testing.T) {
	s := seq(t, "bbb", "aa", "c")

	require.NoError(t, s.Sort(nil, false))
	assert.True(t, s.Equal(MustCreate([]any{"aa", "bbb", "c"})))

	require.NoError(t, s.Sort(nil, true))
	assert.True(t, s.Equal(MustCreate([]any{"c", "bbb", "aa"})))

	byLen := func(v any) any { return len(v.(string)) }

	require.NoError(t, s.Sort(byLen, false))
	assert.True(t, s.Equal(MustCreate([]any{"c", "aa", "bbb"})))

	require.NoError(t, s.Sort(byLen, true))
	assert.True(t, s.Equal(MustCreate([]any{"bbb", "aa", "c"})))
}

func TestSequenceSortMixedTypesFails(t *testing.T) {
	s := seq(t, "a", 1)
	assert.ErrorIs(t, s.Sort(nil, false), ErrValidation)
}

func TestSequenceClear(t *testing.T) {
	for _, src := range [][]any{{}, {1, 2, 3}, {nil, map[string]any{"foo": "bar"}}} {
		s := seq(t, src...)
		require.NoError(t, s.Clear())
		require.NoError(t, s.Clear(), "clearing twice is fine")
		assert.Equal(t, 0, s.Len())
	}
}

func TestSequenceDelete(t *testing.T) {
	s := seq(t, 1, 2, 3)
	require.NoError(t, s.Delete(0))
	assert.True(t, s.Equal(MustCreate([]any{2, 3})))
	assert.ErrorIs(t, s.Delete(100), ErrIndexOutOfRange)
}

func TestSequenceConcat(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []any
		expected []any
	}{
		{"EmptyEmpty", []any{}, []any{}, []any{}},
		{"Values", []any{1, 2}, []any{3, 4}, []any{1, 2, 3, 4}},
		{"WithReference", []any{"x", 2, "${[0]}"}, []any{5, 6, 7}, []any{"x", 2, "x", 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := seq(t, tt.a...)
			b := seq(t, tt.b...)
			got, err := a.Concat(b)
			require.NoError(t, err)
			assert.True(t, got.Equal(MustCreate(tt.expected)))
		})
	}
}

func TestSequenceConcatPreservesReferencesLiterally(t *testing.T) {
	root := MustCreate(map[string]any{
		"foo": []any{1, 2, "${bar}"},
		"bar": "xx",
	}).(*Mapping)

	foo, ok := root.GetNode("foo")
	require.True(t, ok)
	tail := seq(t, 10, 20)

	got, err := foo.(*Sequence).Concat(tail)
	require.NoError(t, err)

	// The copied element still holds the literal reference.
	node, err := got.GetNode(2)
	require.NoError(t, err)
	assert.True(t, node.(*Value).IsReference())
}

func TestSequenceReadOnly(t *testing.T) {
	s := seq(t, 1, 2)
	s.SetReadOnly(true)

	assert.ErrorIs(t, s.Append(3), ErrReadOnly)
	assert.ErrorIs(t, s.Insert(0, 3), ErrReadOnly)
	assert.ErrorIs(t, s.Set(0, 3), ErrReadOnly)
	assert.ErrorIs(t, s.Delete(0), ErrReadOnly)
	assert.ErrorIs(t, s.Clear(), ErrReadOnly)
	_, err := s.Pop(-1)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, s.Remove(1), ErrReadOnly)
	err = s.Sort(nil, false)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestSequenceEqualityUsesResolvedValues(t *testing.T) {
	a := seq(t, "x", 2, "${[0]}")
	b := seq(t, "x", 2, "x")
	assert.True(t, a.Equal(b))
}
