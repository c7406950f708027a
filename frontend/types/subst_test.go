package types

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestApplyFollowsChains(t *testing.T) {
	sub := Subst(map[Tvar]MonoType{
		0: NewArray(Var(1)),
		1: Var(2),
		2: Int,
	})
	assert.Equal(t, "[int]", Apply(sub, Var(0)).String())
	assert.Equal(t, "t9", Apply(sub, Var(9)).String())
	assert.Equal(t, "{a: [int]}", Apply(sub, NewRecord([]Property{{"a", Var(0)}}, nil)).String())
}

func TestMerge(t *testing.T) {
	a := Subst(map[Tvar]MonoType{0: NewArray(Var(1))})
	b := Subst(map[Tvar]MonoType{1: String})

	merged := Merge(a, b)
	assert.Equal(t, "{t0 = [string], t1 = string}", merged.String())

	typ := NewDictionary(Var(0), Var(1))
	assert.True(t, Equal(Apply(b, Apply(a, typ)), Apply(merged, typ)))
}

func TestMergeConflictIsInternalError(t *testing.T) {
	a := Subst(map[Tvar]MonoType{0: Int})
	b := Subst(map[Tvar]MonoType{0: String})

	assert.PanicsWithValue(t, InternalError{Msg: "substitutions disagree on t0: int vs string"}, func() {
		Merge(a, b)
	})
	require.NotPanics(t, func() {
		Merge(a, Subst(map[Tvar]MonoType{0: Int}))
	})
}

func TestApplyPolySkipsBoundVars(t *testing.T) {
	p := PolyType{
		Vars: []Tvar{0},
		Expr: NewFunction([]Parameter{{Name: "a", Typ: Var(0), Required: true}}, nil, nil, Var(1)),
	}
	applied := ApplyPoly(Subst(map[Tvar]MonoType{0: Int, 1: String}), p)
	assert.Equal(t, "(a: t0) => string", applied.Expr.String())
}

func TestApplyKinds(t *testing.T) {
	sub := Subst(map[Tvar]MonoType{0: Var(5), 1: Int})
	cons := KindConstraints{0: {KindAddable}, 1: {KindNumeric}, 2: {KindComparable}}

	assert.Equal(t, KindConstraints{5: {KindAddable}, 2: {KindComparable}}, ApplyKinds(sub, cons))
}

func TestFreeVarsAndContains(t *testing.T) {
	typ := NewFunction([]Parameter{
		{Name: "a", Typ: NewRecord([]Property{{"x", Var(4)}}, Var(2)), Required: true},
	}, nil, &Parameter{Typ: Var(9)}, NewDictionary(Var(4), Var(1)))

	assert.Equal(t, []Tvar{1, 2, 4, 9}, FreeVars(typ).Slice())

	// a variable only in the field, or only in the tail, still occurs in the record
	fieldOnly := NewRecord([]Property{{"x", Var(4)}}, nil)
	tailOnly := NewRecord([]Property{{"x", Int}}, Var(2))
	assert.True(t, Contains(fieldOnly, 4))
	assert.True(t, Contains(tailOnly, 2))
	assert.False(t, Contains(tailOnly, 4))
	assert.True(t, Contains(typ, 9))

	poly := PolyType{Vars: []Tvar{4}, Expr: typ}
	assert.Equal(t, []Tvar{1, 2, 9}, FreeVarsPoly(poly).Slice())
}
