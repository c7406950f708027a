package types

import (
	"slices"
)

// scalarKinds lists, for each Scalar, the kinds it satisfies
var scalarKinds = map[Scalar][]Kind{
	Bool: {KindEquatable, KindNullable, KindStringable},
	Int: {
		KindAddable, KindSubtractable, KindDivisible, KindNumeric, KindComparable,
		KindEquatable, KindNullable, KindNegatable, KindStringable,
	},
	Uint: {
		KindAddable, KindSubtractable, KindDivisible, KindNumeric, KindComparable,
		KindEquatable, KindNullable, KindStringable,
	},
	Float: {
		KindAddable, KindSubtractable, KindDivisible, KindNumeric, KindComparable,
		KindEquatable, KindNullable, KindNegatable, KindStringable,
	},
	String:   {KindAddable, KindComparable, KindEquatable, KindNullable, KindStringable},
	Duration: {KindComparable, KindEquatable, KindNullable, KindNegatable, KindTimeable, KindStringable},
	Time:     {KindComparable, KindEquatable, KindNullable, KindTimeable, KindStringable},
	Regexp:   {},
	Bytes:    {KindEquatable},
}

// Satisfies reports whether s is k
func (s Scalar) Satisfies(k Kind) bool {
	return slices.Contains(scalarKinds[s], k)
}

// Constrain requires t to be k.
//
// A variable is not checked right away: k is recorded against it in cons, and checked
// once the variable gets bound by Unify.
func Constrain(t MonoType, k Kind, cons KindConstraints) (Substitution, error) {
	switch t := t.(type) {
	case Scalar:
		if !t.Satisfies(k) {
			return Substitution{}, errCannotConstrain(t, k)
		}
		return Substitution{}, nil
	case Var:
		cons.Add(Tvar(t), k)
		return Substitution{}, nil
	case *Array:
		if k != KindEquatable {
			return Substitution{}, errCannotConstrain(t, k)
		}
		return Constrain(t.Elem, k, cons)
	case *Record:
		return constrainRecord(t, k, cons)
	case *Dictionary, *Function:
		return Substitution{}, errCannotConstrain(t, k)
	default:
		panic(unknownVariant(t))
	}
}

func constrainRecord(r *Record, k Kind, cons KindConstraints) (Substitution, error) {
	switch k {
	case KindRecord:
		return Substitution{}, nil
	case KindEquatable:
	default:
		return Substitution{}, errCannotConstrain(r, k)
	}
	sub := Substitution{}
	var current MonoType = r
	for {
		ext, ok := current.(*Record)
		if ok && ext.IsEmpty() {
			return sub, nil
		}
		if !ok {
			// the open tail of the row
			tailSub, err := Constrain(Apply(sub, current), k, cons)
			if err != nil {
				return Substitution{}, err
			}
			return Merge(sub, tailSub), nil
		}
		fieldSub, err := Constrain(Apply(sub, ext.Field), k, cons)
		if err != nil {
			return Substitution{}, err
		}
		sub = Merge(sub, fieldSub)
		current = ext.Tail
	}
}

// ConstrainAll checks every kind of kinds against t, chaining the resulting substitutions
func ConstrainAll(t MonoType, kinds []Kind, cons KindConstraints) (Substitution, error) {
	sub := Substitution{}
	for _, k := range kinds {
		next, err := Constrain(Apply(sub, t), k, cons)
		if err != nil {
			return Substitution{}, err
		}
		sub = Merge(sub, next)
	}
	return sub, nil
}
