package types

import (
	"maps"
	"slices"
)

// Unify finds the substitution which makes expected and actual the same type.
//
// expected is the declared side and actual the one found, which only matters for
// error messages and for which variable survives when two variables meet:
// the actual one does, and inherits the kinds of the expected one.
// cons is updated in place as variables get bound.
func Unify(expected, actual MonoType, cons KindConstraints, f *Fresher) (Substitution, error) {
	u := &unifier{cons: cons, fresher: f}
	sub, err := u.unify(expected, actual)
	if err != nil {
		return Substitution{}, err
	}
	return sub, nil
}

type unifier struct {
	cons    KindConstraints
	fresher *Fresher
}

func (u *unifier) unify(expected, actual MonoType) (Substitution, *TypeError) {
	if exp, ok := expected.(Var); ok {
		if act, ok := actual.(Var); ok {
			return u.unifyVars(Tvar(exp), Tvar(act)), nil
		}
		return u.bind(Tvar(exp), actual)
	}
	if act, ok := actual.(Var); ok {
		return u.bind(Tvar(act), expected)
	}

	switch exp := expected.(type) {
	case Scalar:
		if act, ok := actual.(Scalar); ok && act == exp {
			return Substitution{}, nil
		}
	case *Array:
		if act, ok := actual.(*Array); ok {
			return u.unify(exp.Elem, act.Elem)
		}
	case *Dictionary:
		if act, ok := actual.(*Dictionary); ok {
			sub, err := u.unify(exp.Key, act.Key)
			if err != nil {
				return Substitution{}, err
			}
			return u.chain(sub, exp.Val, act.Val)
		}
	case *Record:
		if act, ok := actual.(*Record); ok {
			return u.unifyRecords(exp, act)
		}
	case *Function:
		if act, ok := actual.(*Function); ok {
			return u.unifyFunctions(exp, act)
		}
	default:
		panic(unknownVariant(exp))
	}
	return Substitution{}, errCannotUnify(expected, actual)
}

// chain unifies expected and actual after applying sub to them, and returns
// sub merged with whatever that unification found
func (u *unifier) chain(sub Substitution, expected, actual MonoType) (Substitution, *TypeError) {
	next, err := u.unify(Apply(sub, expected), Apply(sub, actual))
	if err != nil {
		return Substitution{}, err
	}
	return Merge(sub, next), nil
}

// unifyVars points exp to act, which inherits the kinds of both
func (u *unifier) unifyVars(exp, act Tvar) Substitution {
	if exp == act {
		return Substitution{}
	}
	if kinds, ok := u.cons[exp]; ok {
		for _, k := range kinds {
			u.cons.Add(act, k)
		}
		delete(u.cons, exp)
	}
	return Substitution{}.Bind(exp, Var(act))
}

// bind resolves tv to t, then checks t against the kinds tv was required to satisfy
func (u *unifier) bind(tv Tvar, t MonoType) (Substitution, *TypeError) {
	if Contains(t, tv) {
		return Substitution{}, errOccurs(tv, t)
	}
	sub := Substitution{}.Bind(tv, t)
	kinds := u.cons[tv]
	delete(u.cons, tv)
	for _, k := range kinds {
		next, err := Constrain(Apply(sub, t), k, u.cons)
		if err != nil {
			return Substitution{}, asTypeError(err)
		}
		sub = Merge(sub, next)
	}
	return sub, nil
}

func (u *unifier) unifyRecords(exp, act *Record) (Substitution, *TypeError) {
	switch {
	case exp.IsEmpty() && act.IsEmpty():
		return Substitution{}, nil
	case exp.IsEmpty():
		return Substitution{}, &TypeError{Kind: MissingLabel, Label: act.Label}
	case act.IsEmpty():
		return Substitution{}, &TypeError{Kind: ExtraLabel, Label: exp.Label}
	}

	if exp.Label == act.Label {
		sub, err := u.unify(exp.Field, act.Field)
		if err != nil {
			return Substitution{}, &TypeError{
				Kind:     CannotUnifyLabel,
				Label:    exp.Label,
				Expected: exp.Field,
				Actual:   act.Field,
				Cause:    err,
			}
		}
		return u.chain(sub, exp.Tail, act.Tail)
	}

	// rows ending in the same variable must carry the same labels: a label
	// only one of them has can never be placed in the shared tail
	expFields, expRest := exp.Flatten()
	actFields, actRest := act.Flatten()
	if expTail, ok := expRest.(Var); ok {
		if actTail, ok := actRest.(Var); ok && expTail == actTail && !sameLabels(expFields, actFields) {
			return Substitution{}, errCannotUnify(exp, act)
		}
	}

	// each record's tail must hold the other's leading field, and the rest
	// of both rows is the same fresh variable
	rest := Var(u.fresher.Fresh())
	sub, err := u.unify(exp.Tail, Extend(act.Label, act.Field, rest))
	if err != nil {
		return Substitution{}, err
	}
	return u.chain(sub, Extend(exp.Label, exp.Field, rest), act.Tail)
}

// sameLabels reports whether a and b hold the same labels, counting repeats
func sameLabels(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, p := range a {
		counts[p.Label]++
	}
	for _, p := range b {
		counts[p.Label]--
		if counts[p.Label] < 0 {
			return false
		}
	}
	return true
}

// parameters is the mutable working set of named parameters of one side of
// a function unification, which passes consume as they match them
type parameters map[string]Parameter

func namedOf(f *Function) parameters {
	params := make(parameters, f.named().Len())
	for _, p := range f.NamedParameters() {
		params[p.Name] = p
	}
	return params
}

func (p parameters) sortedNames() []string {
	return slices.Sorted(maps.Keys(p))
}

// unifyFunctions checks that actual can be used where expected is required,
// in successive passes over positional, named, pipe parameters and return types
func (u *unifier) unifyFunctions(exp, act *Function) (Substitution, *TypeError) {
	sub := Substitution{}
	var err *TypeError
	argument := func(name string, e, a MonoType) *TypeError {
		sub, err = u.chain(sub, e, a)
		if err != nil {
			return &TypeError{Kind: CannotUnifyArgument, Label: name, Cause: err}
		}
		return nil
	}

	shared := min(len(exp.Positional), len(act.Positional))
	for i := 0; i < shared; i++ {
		sub, err = u.chain(sub, exp.Positional[i].Typ, act.Positional[i].Typ)
		if err != nil {
			return Substitution{}, &TypeError{Kind: CannotUnifyPositionalArgument, Index: i, Cause: err}
		}
	}

	expNamed, actNamed := namedOf(exp), namedOf(act)

	// leftover positional parameters may be passed by name
	for i := shared; i < len(exp.Positional); i++ {
		p := exp.Positional[i]
		if p.Name == "" {
			return Substitution{}, &TypeError{Kind: MissingPositionalArgument, Index: i}
		}
		match, ok := actNamed[p.Name]
		if !ok {
			if p.Required {
				return Substitution{}, &TypeError{Kind: MissingArgument, Label: p.Name}
			}
			continue
		}
		delete(actNamed, p.Name)
		if err := argument(p.Name, p.Typ, match.Typ); err != nil {
			return Substitution{}, err
		}
	}
	for i := shared; i < len(act.Positional); i++ {
		p := act.Positional[i]
		if p.Name == "" {
			return Substitution{}, &TypeError{Kind: ExtraPositionalArgument, Index: i}
		}
		match, ok := expNamed[p.Name]
		if !ok {
			if p.Required {
				return Substitution{}, &TypeError{Kind: ExtraArgument, Label: p.Name}
			}
			continue
		}
		delete(expNamed, p.Name)
		if err := argument(p.Name, match.Typ, p.Typ); err != nil {
			return Substitution{}, err
		}
	}

	// required named parameters must be matched on the other side
	for _, name := range expNamed.sortedNames() {
		p := expNamed[name]
		if !p.Required {
			continue
		}
		match, ok := actNamed[name]
		if !ok {
			return Substitution{}, &TypeError{Kind: MissingArgument, Label: name}
		}
		delete(expNamed, name)
		delete(actNamed, name)
		if err := argument(name, p.Typ, match.Typ); err != nil {
			return Substitution{}, err
		}
	}
	for _, name := range actNamed.sortedNames() {
		p := actNamed[name]
		if !p.Required {
			continue
		}
		match, ok := expNamed[name]
		if !ok {
			return Substitution{}, &TypeError{Kind: ExtraArgument, Label: name}
		}
		delete(expNamed, name)
		delete(actNamed, name)
		if err := argument(name, match.Typ, p.Typ); err != nil {
			return Substitution{}, err
		}
	}

	// optional ones only when both sides have them
	for _, name := range expNamed.sortedNames() {
		match, ok := actNamed[name]
		if !ok {
			continue
		}
		delete(actNamed, name)
		if err := argument(name, expNamed[name].Typ, match.Typ); err != nil {
			return Substitution{}, err
		}
	}

	switch {
	case exp.Pipe != nil && act.Pipe != nil:
		if err := argument("<-"+exp.Pipe.Name, exp.Pipe.Typ, act.Pipe.Typ); err != nil {
			return Substitution{}, err
		}
	case exp.Pipe != nil && exp.Pipe.Required:
		return Substitution{}, &TypeError{Kind: MissingArgument, Label: "<-" + exp.Pipe.Name}
	case act.Pipe != nil && act.Pipe.Required:
		return Substitution{}, &TypeError{Kind: ExtraArgument, Label: "<-" + act.Pipe.Name}
	}

	expRetn, actRetn := Apply(sub, exp.Retn), Apply(sub, act.Retn)
	retn, err := u.unify(expRetn, actRetn)
	if err != nil {
		return Substitution{}, &TypeError{Kind: CannotUnifyReturn, Expected: expRetn, Actual: actRetn, Cause: err}
	}
	return Merge(sub, retn), nil
}
