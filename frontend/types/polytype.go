package types

import (
	"github.com/hashicorp/go-set/v3"
	"maps"
	"slices"
)

// PolyType is a type scheme: Expr, universally quantified over Vars,
// where each variable must satisfy the kinds in Cons
type PolyType struct {
	Vars []Tvar
	Cons KindConstraints
	Expr MonoType
}

// Mono wraps t into a PolyType which quantifies over nothing
func Mono(t MonoType) PolyType {
	return PolyType{Expr: t}
}

// normalized returns p with sorted, duplicate-free Vars and kinds,
// and without constraints on variables p does not quantify over
func (p PolyType) normalized() PolyType {
	vars := sortedTvars(p.Vars)
	cons := make(KindConstraints, len(p.Cons))
	for _, tv := range vars {
		if kinds := p.Cons[tv]; len(kinds) > 0 {
			cons[tv] = sortedKinds(kinds)
		}
	}
	return PolyType{Vars: vars, Cons: cons, Expr: p.Expr}
}

// Canonical renames the variables of p from zero, in the order they occur
// in its body. Two alpha-equivalent schemes have equal canonical forms.
func (p PolyType) Canonical() PolyType {
	renamed := p.normalized().Fresh(NewFresher(), Renames{})
	return renamed.normalized()
}

// Equal reports whether p and other are the same scheme up to renaming of variables
func (p PolyType) Equal(other PolyType) bool {
	a, b := p.Canonical(), other.Canonical()
	if !slices.Equal(a.Vars, b.Vars) {
		return false
	}
	if len(a.Cons) != len(b.Cons) {
		return false
	}
	for tv, kinds := range a.Cons {
		if !slices.Equal(kinds, b.Cons[tv]) {
			return false
		}
	}
	return Equal(a.Expr, b.Expr)
}

// String renders the canonical form of p, with variables named A, B, C...
func (p PolyType) String() string {
	pr := &printer{letters: true}
	pr.poly(p.Canonical())
	return pr.sb.String()
}

// Instantiate replaces the variables p quantifies over with fresh ones and returns
// its body, alongside the kinds the new variables must satisfy
func Instantiate(p PolyType, f *Fresher) (MonoType, KindConstraints) {
	renames := make(Renames, len(p.Vars))
	cons := make(KindConstraints)
	for _, tv := range p.Vars {
		fresh := f.Fresh()
		renames[tv] = fresh
		for _, k := range p.Cons[tv] {
			cons.Add(fresh, k)
		}
	}
	return renameBound(p.Expr, renames), cons
}

// renameBound renames the variables in renames and leaves the others alone.
// Unlike Apply it does not follow chains, so a new name may collide with an old one.
func renameBound(t MonoType, renames Renames) MonoType {
	switch t := t.(type) {
	case Scalar:
		return t
	case Var:
		if renamed, ok := renames[Tvar(t)]; ok {
			return Var(renamed)
		}
		return t
	case *Array:
		return NewArray(renameBound(t.Elem, renames))
	case *Dictionary:
		return NewDictionary(renameBound(t.Key, renames), renameBound(t.Val, renames))
	case *Record:
		if t.IsEmpty() {
			return t
		}
		return Extend(t.Label, renameBound(t.Field, renames), renameBound(t.Tail, renames))
	case *Function:
		return mapFunction(t, func(t MonoType) MonoType { return renameBound(t, renames) })
	default:
		panic(unknownVariant(t))
	}
}

// Generalize quantifies t over every variable not in envVars, carrying over the
// kinds cons requires of them
func Generalize(envVars *set.TreeSet[Tvar], cons KindConstraints, t MonoType) PolyType {
	var vars []Tvar
	quantified := make(KindConstraints)
	for _, tv := range FreeVars(t).Slice() {
		if envVars != nil && envVars.Contains(tv) {
			continue
		}
		vars = append(vars, tv)
		if kinds := cons[tv]; len(kinds) > 0 {
			quantified[tv] = slices.Clone(kinds)
		}
	}
	return PolyType{Vars: vars, Cons: quantified, Expr: t}
}

// Fresher mints new type variables.
// It is mutable and not suitable for concurrent use.
type Fresher struct {
	freshCount Tvar
}

func NewFresher() *Fresher {
	return &Fresher{}
}

// FresherFrom returns a Fresher whose first variable is start
func FresherFrom(start Tvar) *Fresher {
	return &Fresher{freshCount: start}
}

func (f *Fresher) Fresh() Tvar {
	tv := f.freshCount
	f.freshCount++
	return tv
}

// Renames records which new variable each old variable was renamed to
type Renames map[Tvar]Tvar

func (r Renames) rename(tv Tvar, f *Fresher) Tvar {
	if renamed, ok := r[tv]; ok {
		return renamed
	}
	renamed := f.Fresh()
	r[tv] = renamed
	return renamed
}

// Fresh renames every variable of t with fresh ones from f. A variable occurring several
// times is renamed consistently, as is any variable already present in renames.
func Fresh(t MonoType, f *Fresher, renames Renames) MonoType {
	switch t := t.(type) {
	case Scalar:
		return t
	case Var:
		return Var(renames.rename(Tvar(t), f))
	case *Array:
		return NewArray(Fresh(t.Elem, f, renames))
	case *Dictionary:
		key := Fresh(t.Key, f, renames)
		return NewDictionary(key, Fresh(t.Val, f, renames))
	case *Record:
		return freshRecord(t, f, renames)
	case *Function:
		return freshFunction(t, f, renames)
	default:
		panic(unknownVariant(t))
	}
}

// freshRecord visits fields sorted by label so that records differing only in
// the order of their properties are renamed the same way
func freshRecord(r *Record, f *Fresher, renames Renames) MonoType {
	if r.IsEmpty() {
		return r
	}
	fields, tail := r.Flatten()
	order := make([]int, len(fields))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		switch {
		case fields[i].Label < fields[j].Label:
			return -1
		case fields[i].Label > fields[j].Label:
			return 1
		}
		return 0
	})
	renamed := make([]Property, len(fields))
	for _, i := range order {
		renamed[i] = Property{Label: fields[i].Label, Type: Fresh(fields[i].Type, f, renames)}
	}
	if tail != nil {
		tail = Fresh(tail, f, renames)
	}
	return NewRecord(renamed, tail)
}

func freshFunction(fn *Function, f *Fresher, renames Renames) MonoType {
	return mapFunction(fn, func(t MonoType) MonoType { return Fresh(t, f, renames) })
}

// Fresh renames the variables of p, including those it only mentions in Vars or Cons
func (p PolyType) Fresh(f *Fresher, renames Renames) PolyType {
	expr := Fresh(p.Expr, f, renames)
	vars := make([]Tvar, len(p.Vars))
	for i, tv := range p.Vars {
		vars[i] = renames.rename(tv, f)
	}
	cons := make(KindConstraints, len(p.Cons))
	for _, tv := range slices.Sorted(maps.Keys(p.Cons)) {
		cons[renames.rename(tv, f)] = slices.Clone(p.Cons[tv])
	}
	return PolyType{Vars: vars, Cons: cons, Expr: expr}
}

// MaxTvar returns the largest variable mentioned by p, if any
func (p PolyType) MaxTvar() (Tvar, bool) {
	all := FreeVars(p.Expr)
	for _, tv := range p.Vars {
		all.Insert(tv)
	}
	if all.Size() == 0 {
		return 0, false
	}
	return all.Max(), true
}
