package types

import (
	"cmp"
	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func identityOver(tv Tvar, kinds ...Kind) PolyType {
	p := PolyType{
		Vars: []Tvar{tv},
		Cons: KindConstraints{},
		Expr: NewFunction([]Parameter{{Name: "a", Typ: Var(tv), Required: true}}, nil, nil, Var(tv)),
	}
	if len(kinds) > 0 {
		p.Cons[tv] = kinds
	}
	return p
}

func TestPolyTypeEqualIsAlphaInvariant(t *testing.T) {
	assert.True(t, identityOver(0).Equal(identityOver(7)))
	assert.True(t, identityOver(0, KindAddable).Equal(identityOver(7, KindAddable)))
	assert.False(t, identityOver(0, KindAddable).Equal(identityOver(7)))
	assert.False(t, identityOver(0).Equal(Mono(intFunc())))
}

func TestPolyTypeEqualSortsVarsAndKinds(t *testing.T) {
	pair := func(first, second Tvar, kinds ...Kind) PolyType {
		return PolyType{
			Vars: []Tvar{second, first, first},
			Cons: KindConstraints{first: kinds},
			Expr: NewArray(NewDictionary(Var(first), Var(second))),
		}
	}
	assert.True(t, pair(3, 9, KindNumeric, KindAddable).Equal(pair(1, 2, KindAddable, KindNumeric)))
}

func TestPolyTypeString(t *testing.T) {
	a, b := Var(12), Var(4)
	p := PolyType{
		Vars: []Tvar{12, 4},
		Cons: KindConstraints{12: {KindAddable}, 4: {KindDivisible}},
		Expr: NewFunction(nil, map[string]Parameter{
			"a": {Typ: a, Required: true},
			"b": {Typ: a, Required: true},
			"c": {Typ: b},
		}, nil, a),
	}
	assert.Equal(t, "(a: A, b: A, ?c: B) => A where A: Addable, B: Divisible", p.String())

	record := Generalize(nil, KindConstraints{}, NewRecord([]Property{{"x", Var(30)}}, Var(31)))
	assert.Equal(t, "{B with x: A}", record.String())

	pipe := Mono(NewFunction(nil, nil, &Parameter{Name: "tables", Typ: NewArray(Int), Required: true}, Bool))
	assert.Equal(t, "(<-tables: [int]) => bool", pipe.String())
}

func TestInstantiate(t *testing.T) {
	f := FresherFrom(100)
	p := identityOver(3, KindAddable)

	first, cons := Instantiate(p, f)
	assert.Equal(t, "(a: t100) => t100", first.String())
	assert.Equal(t, KindConstraints{100: {KindAddable}}, cons)

	second, _ := Instantiate(p, f)
	assert.Equal(t, "(a: t101) => t101", second.String())
}

func TestInstantiateKeepsFreeVars(t *testing.T) {
	p := PolyType{
		Vars: []Tvar{1},
		Expr: NewFunction([]Parameter{{Name: "a", Typ: Var(1), Required: true}}, nil, nil, Var(2)),
	}
	inst, _ := Instantiate(p, FresherFrom(50))
	assert.Equal(t, "(a: t50) => t2", inst.String())
}

func TestInstantiateWithOverlappingVars(t *testing.T) {
	// the fresher hands out ids the scheme already uses
	p := PolyType{
		Vars: []Tvar{0, 1},
		Expr: NewFunction([]Parameter{{Name: "a", Typ: Var(0), Required: true}}, nil, nil, NewArray(Var(1))),
	}
	inst, _ := Instantiate(p, FresherFrom(1))
	assert.Equal(t, "(a: t1) => [t2]", inst.String())
}

func TestGeneralizeSkipsEnvironment(t *testing.T) {
	env := set.NewTreeSet[Tvar](cmp.Compare[Tvar])
	env.Insert(2)
	typ := NewFunction([]Parameter{{Name: "a", Typ: Var(1), Required: true}}, nil, nil, Var(2))

	p := Generalize(env, KindConstraints{1: {KindNumeric}, 2: {KindAddable}}, typ)
	assert.Equal(t, []Tvar{1}, p.Vars)
	assert.Equal(t, KindConstraints{1: {KindNumeric}}, p.Cons)
}

func TestFreshPreservesSharing(t *testing.T) {
	typ := NewFunction([]Parameter{
		{Name: "a", Typ: Var(8), Required: true},
		{Name: "b", Typ: NewArray(Var(3)), Required: true},
	}, nil, nil, NewDictionary(Var(3), Var(8)))

	renames := Renames{}
	fresh := Fresh(typ, NewFresher(), renames)
	assert.Equal(t, "(a: t0, b: [t1]) => [t1: t0]", fresh.String())
	assert.Equal(t, Renames{8: 0, 3: 1}, renames)
}

func TestFreshRecordIgnoresPropertyOrder(t *testing.T) {
	ab := NewRecord([]Property{{"a", Var(5)}, {"b", Var(6)}}, nil)
	ba := NewRecord([]Property{{"b", Var(6)}, {"a", Var(5)}}, nil)

	freshAB := Fresh(ab, NewFresher(), Renames{})
	freshBA := Fresh(ba, NewFresher(), Renames{})
	assert.True(t, Equal(freshAB, freshBA))
	assert.Equal(t, "{b: t1, a: t0}", freshBA.String())
}

func TestCanonical(t *testing.T) {
	p := identityOver(42, KindComparable)
	canonical := p.Canonical()
	require.Equal(t, []Tvar{0}, canonical.Vars)
	assert.Equal(t, KindConstraints{0: {KindComparable}}, canonical.Cons)
	highest, ok := canonical.MaxTvar()
	require.True(t, ok)
	assert.Equal(t, Tvar(0), highest)
}
