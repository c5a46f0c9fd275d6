package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInterning(t *testing.T) {
	s := NewStore()

	t.Run("structurally equal types are identical", func(t *testing.T) {
		assert.Same(t, s.Ptr(Borrowed, 0, s.I32()), s.Ptr(Borrowed, 0, s.I32()))
		assert.Same(t, s.Tuple(s.I32(), s.Bool()), s.Tuple(s.I32(), s.Bool()))
		assert.Same(t, s.Fn([]Type{s.I32(), s.Continuation(s.Bool())}, nil), s.Fn([]Type{s.I32(), s.Fn([]Type{s.Bool()}, nil)}, nil))
		assert.Same(t, s.DefiniteArray(s.U8(), 3), s.DefiniteArray(s.U8(), 3))
		assert.Same(t, s.Unit(), s.Tuple())
	})

	t.Run("different shapes are distinct", func(t *testing.T) {
		assert.NotSame(t, s.Ptr(Borrowed, 0, s.I32()), s.Ptr(Owned, 0, s.I32()))
		assert.NotSame(t, s.Ptr(Borrowed, 0, s.I32()), s.Ptr(Borrowed, 1, s.I32()))
		assert.NotEqual(t, s.DefiniteArray(s.U8(), 3), s.DefiniteArray(s.U8(), 4))
		assert.NotEqual(t, s.Simd(s.U8(), 4), s.DefiniteArray(s.U8(), 4))
	})

	t.Run("unknowns are never shared", func(t *testing.T) {
		u1, u2 := s.Unknown(), s.Unknown()
		assert.NotSame(t, u1, u2)
		assert.NotSame(t, s.Ptr(Borrowed, 0, u1), s.Ptr(Borrowed, 0, u2))
		assert.False(t, s.Tuple(s.I32(), u1).IsKnown())
		assert.True(t, s.Tuple(s.I32(), s.Bool()).IsKnown())
	})

	t.Run("error is absorbing", func(t *testing.T) {
		assert.Same(t, s.Error(), s.Ptr(Owned, 0, s.Error()))
		assert.Same(t, s.Error(), s.Tuple(s.I32(), s.Error()))
		assert.Same(t, s.Error(), s.Fn([]Type{s.Error()}, nil))
		assert.Same(t, s.Error(), s.DefiniteArray(s.Error(), 2))
	})
}

func TestStoreInstantiate(t *testing.T) {
	s := NewStore()
	a := s.NewTypeParam("A", 0)
	b := s.NewTypeParam("B", 1)
	poly := s.Fn([]Type{a, b, s.Continuation(s.Tuple(a, b))}, []*TypeParamType{a, b})

	t.Run("substitutes every occurrence", func(t *testing.T) {
		mono, err := s.Instantiate(poly, []Type{s.I32(), s.Bool()})
		require.NoError(t, err)
		assert.Same(t, s.Fn([]Type{s.I32(), s.Bool(), s.Fn([]Type{s.I32(), s.Bool()}, nil)}, nil), mono)
	})

	t.Run("arity mismatch", func(t *testing.T) {
		mono, err := s.Instantiate(poly, []Type{s.I32(), s.Bool(), s.U8()})
		require.Error(t, err)
		assert.Same(t, s.Error(), mono)

		var arity ArityError
		require.True(t, errors.As(err, &arity))
		assert.Equal(t, 2, arity.Want)
		assert.Equal(t, 3, arity.Got)
	})

	t.Run("structs", func(t *testing.T) {
		abs := s.NewStructAbstract("Pair", []*TypeParamType{a, b}, []string{"fst", "snd"})
		abs.SetField(0, a)
		abs.SetField(1, s.Ptr(Borrowed, 0, b))

		app, err := s.Instantiate(abs, []Type{s.U8(), s.Bool()})
		require.NoError(t, err)
		asApp := app.(*StructAppType)
		assert.Equal(t, "Pair[u8, bool]", app.String())
		assert.Same(t, s.U8(), s.FieldType(asApp, 0))
		assert.Same(t, s.Ptr(Borrowed, 0, s.Bool()), s.FieldType(asApp, 1))
		assert.Equal(t, 1, abs.FieldIndex("snd"))
		assert.Equal(t, -1, abs.FieldIndex("third"))

		_, err = s.Instantiate(abs, nil)
		assert.Error(t, err)
	})

	t.Run("type params are deduplicated and ordered", func(t *testing.T) {
		fn := s.Fn([]Type{b, a}, []*TypeParamType{b, a, b}).(*FnType)
		assert.Equal(t, []*TypeParamType{a, b}, fn.TypeParams)
	})
}

func TestReturnType(t *testing.T) {
	s := NewStore()
	tests := []struct {
		name   string
		params []Type
		want   Type
		ok     bool
	}{
		{"no params never returns", nil, s.NoReturn(), true},
		{"single value", []Type{s.I32(), s.Continuation(s.Bool())}, s.Bool(), true},
		{"unit", []Type{s.Continuation(s.Unit())}, s.Unit(), true},
		{"tuple", []Type{s.Continuation(s.Tuple(s.I32(), s.U8()))}, s.Tuple(s.I32(), s.U8()), true},
		{"no continuation", []Type{s.I32()}, s.NoReturn(), true},
		{"unknown continuation", []Type{s.Unknown()}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ReturnType(s.Fn(tt.params, nil).(*FnType))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOccursAndUnknowns(t *testing.T) {
	s := NewStore()
	u1, u2 := s.Unknown(), s.Unknown()
	nested := s.Tuple(s.Ptr(Borrowed, 0, u2), u1, u2)

	assert.True(t, Occurs(u1, nested))
	assert.False(t, Occurs(u1, s.Ptr(Borrowed, 0, u2)))
	assert.Equal(t, []*UnknownType{u1, u2}, UnknownsIn(nested, u1, s.I32()))
	assert.Empty(t, UnknownsIn(s.I32()))
}

func TestTypeStrings(t *testing.T) {
	s := NewStore()
	assert.Equal(t, "&i32", s.Ptr(Borrowed, 0, s.I32()).String())
	assert.Equal(t, "&mut i32", s.Ptr(Mutable, 0, s.I32()).String())
	assert.Equal(t, "~[1] u8", s.Ptr(Owned, 1, s.U8()).String())
	assert.Equal(t, "[u8 * 3]", s.DefiniteArray(s.U8(), 3).String())
	assert.Equal(t, "simd[f32 * 4]", s.Simd(s.Prim(F32), 4).String())
	assert.Equal(t, "fn(i32, fn(bool))", s.Fn([]Type{s.I32(), s.Continuation(s.Bool())}, nil).String())
	assert.Equal(t, "()", s.Unit().String())
}
