package types

import (
	"cmp"
	"fmt"
	"github.com/benbjohnson/immutable"
	"github.com/hashicorp/go-set/v3"
	"iter"
	"strings"
)

type tvarComparer struct{}

func (tvarComparer) Compare(a, b Tvar) int { return cmp.Compare(a, b) }

// Substitution maps type variables to the types they have been resolved to.
//
// The zero Substitution is empty and ready to use. Substitutions are persistent:
// Bind and Merge return new values and leave the receiver untouched.
type Substitution struct {
	m *immutable.SortedMap[Tvar, MonoType]
}

// Subst builds a Substitution out of a plain map, mostly useful in tests
func Subst(bindings map[Tvar]MonoType) Substitution {
	var s Substitution
	for tv, t := range bindings {
		s = s.Bind(tv, t)
	}
	return s
}

func (s Substitution) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

func (s Substitution) IsEmpty() bool { return s.Len() == 0 }

func (s Substitution) Lookup(tv Tvar) (MonoType, bool) {
	if s.m == nil {
		return nil, false
	}
	return s.m.Get(tv)
}

// Bind returns a Substitution which also maps tv to t
func (s Substitution) Bind(tv Tvar, t MonoType) Substitution {
	m := s.m
	if m == nil {
		m = immutable.NewSortedMap[Tvar, MonoType](tvarComparer{})
	}
	return Substitution{m: m.Set(tv, t)}
}

// All iterates over the bindings of s, ordered by variable
func (s Substitution) All() iter.Seq2[Tvar, MonoType] {
	return func(yield func(Tvar, MonoType) bool) {
		if s.m == nil {
			return
		}
		itr := s.m.Iterator()
		for !itr.Done() {
			tv, t, _ := itr.Next()
			if !yield(tv, t) {
				return
			}
		}
	}
}

func (s Substitution) String() string {
	sb := &strings.Builder{}
	sb.WriteString("{")
	first := true
	for tv, t := range s.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(tv.String())
		sb.WriteString(" = ")
		sb.WriteString(t.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// Merge returns the substitution equivalent to applying a and then b.
//
// a and b binding the same variable to different types means unification let a resolved
// variable through without applying a first, which is a bug in the engine.
func Merge(a, b Substitution) Substitution {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	merged := Substitution{}
	for tv, t := range a.All() {
		merged = merged.Bind(tv, Apply(b, t))
	}
	for tv, t := range b.All() {
		if existing, ok := merged.Lookup(tv); ok {
			if !Equal(existing, Apply(b, t)) {
				panic(InternalError{Msg: fmt.Sprintf("substitutions disagree on %s: %s vs %s", tv, existing, t)})
			}
			continue
		}
		merged = merged.Bind(tv, t)
	}
	return merged
}

// Apply replaces every variable of t bound in s. Unbound variables are left as they are.
func Apply(s Substitution, t MonoType) MonoType {
	if s.IsEmpty() {
		return t
	}
	return apply(s, t)
}

func apply(s Substitution, t MonoType) MonoType {
	switch t := t.(type) {
	case Scalar:
		return t
	case Var:
		bound, ok := s.Lookup(Tvar(t))
		if !ok {
			return t
		}
		// bindings may refer to variables bound elsewhere in s
		return apply(s, bound)
	case *Array:
		return NewArray(apply(s, t.Elem))
	case *Dictionary:
		return NewDictionary(apply(s, t.Key), apply(s, t.Val))
	case *Record:
		if t.IsEmpty() {
			return t
		}
		return Extend(t.Label, apply(s, t.Field), apply(s, t.Tail))
	case *Function:
		return mapFunction(t, func(param MonoType) MonoType { return apply(s, param) })
	default:
		panic(unknownVariant(t))
	}
}

// mapFunction rebuilds f with every parameter and return type passed through m
func mapFunction(f *Function, m func(MonoType) MonoType) *Function {
	positional := make([]Parameter, len(f.Positional))
	for i, p := range f.Positional {
		p.Typ = m(p.Typ)
		positional[i] = p
	}
	named := f.named()
	itr := named.Iterator()
	for !itr.Done() {
		name, p, _ := itr.Next()
		p.Typ = m(p.Typ)
		named = named.Set(name, p)
	}
	var pipe *Parameter
	if f.Pipe != nil {
		cp := *f.Pipe
		cp.Typ = m(cp.Typ)
		pipe = &cp
	}
	return &Function{
		Positional: positional,
		Named:      named,
		Pipe:       pipe,
		Retn:       m(f.Retn),
	}
}

// ApplyPoly applies s to the body of t, leaving the variables t quantifies over untouched
func ApplyPoly(s Substitution, t PolyType) PolyType {
	if s.IsEmpty() {
		return t
	}
	bound := set.From(t.Vars)
	restricted := Substitution{}
	for tv, bt := range s.All() {
		if !bound.Contains(tv) {
			restricted = restricted.Bind(tv, bt)
		}
	}
	t.Expr = Apply(restricted, t.Expr)
	return t
}

// FreeVars returns the variables t depends on, in ascending order
func FreeVars(t MonoType) *set.TreeSet[Tvar] {
	vars := set.NewTreeSet[Tvar](cmp.Compare[Tvar])
	collectVars(t, vars)
	return vars
}

// FreeVarsPoly returns the variables of t not quantified by it
func FreeVarsPoly(t PolyType) *set.TreeSet[Tvar] {
	vars := FreeVars(t.Expr)
	for _, tv := range t.Vars {
		vars.Remove(tv)
	}
	return vars
}

func collectVars(t MonoType, into *set.TreeSet[Tvar]) {
	switch t := t.(type) {
	case Scalar:
	case Var:
		into.Insert(Tvar(t))
	case *Array:
		collectVars(t.Elem, into)
	case *Dictionary:
		collectVars(t.Key, into)
		collectVars(t.Val, into)
	case *Record:
		if !t.IsEmpty() {
			collectVars(t.Field, into)
			collectVars(t.Tail, into)
		}
	case *Function:
		for _, p := range t.Positional {
			collectVars(p.Typ, into)
		}
		for _, p := range t.NamedParameters() {
			collectVars(p.Typ, into)
		}
		if t.Pipe != nil {
			collectVars(t.Pipe.Typ, into)
		}
		collectVars(t.Retn, into)
	default:
		panic(unknownVariant(t))
	}
}

// Contains reports whether tv occurs anywhere in t
func Contains(t MonoType, tv Tvar) bool {
	switch t := t.(type) {
	case Scalar:
		return false
	case Var:
		return Tvar(t) == tv
	case *Array:
		return Contains(t.Elem, tv)
	case *Dictionary:
		return Contains(t.Key, tv) || Contains(t.Val, tv)
	case *Record:
		if t.IsEmpty() {
			return false
		}
		return Contains(t.Field, tv) || Contains(t.Tail, tv)
	case *Function:
		for _, p := range t.Positional {
			if Contains(p.Typ, tv) {
				return true
			}
		}
		for _, p := range t.NamedParameters() {
			if Contains(p.Typ, tv) {
				return true
			}
		}
		if t.Pipe != nil && Contains(t.Pipe.Typ, tv) {
			return true
		}
		return Contains(t.Retn, tv)
	default:
		panic(unknownVariant(t))
	}
}

// ApplyKinds returns the constraints of cons as seen through s: kinds of a variable
// renamed to another move to the new variable, and kinds of a variable resolved to
// a concrete type are dropped, since Unify checks them while binding.
func ApplyKinds(s Substitution, cons KindConstraints) KindConstraints {
	applied := make(KindConstraints, len(cons))
	for tv, kinds := range cons {
		target, ok := Apply(s, Var(tv)).(Var)
		if !ok {
			continue
		}
		for _, k := range kinds {
			applied.Add(Tvar(target), k)
		}
	}
	return applied
}
