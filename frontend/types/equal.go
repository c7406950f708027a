package types

import (
	"slices"
)

// Equal reports whether a and b are the same type.
//
// Records are equal regardless of the order of their properties, as long as
// repeated labels keep their relative order. Functions compare their shared
// positional prefix, and any extra named positional parameter is compared as if it
// had been declared as a named one.
func Equal(a, b MonoType) bool {
	switch a := a.(type) {
	case Scalar:
		bs, ok := b.(Scalar)
		return ok && a == bs
	case Var:
		bv, ok := b.(Var)
		return ok && a == bv
	case *Array:
		ba, ok := b.(*Array)
		return ok && Equal(a.Elem, ba.Elem)
	case *Dictionary:
		bd, ok := b.(*Dictionary)
		return ok && Equal(a.Key, bd.Key) && Equal(a.Val, bd.Val)
	case *Record:
		br, ok := b.(*Record)
		return ok && recordsEqual(a, br)
	case *Function:
		bf, ok := b.(*Function)
		return ok && functionsEqual(a, bf)
	default:
		panic(unknownVariant(a))
	}
}

// labelled groups the fields of a record by label, keeping the order of repeated labels
func labelled(fields []Property) map[string][]MonoType {
	byLabel := make(map[string][]MonoType, len(fields))
	for _, f := range fields {
		byLabel[f.Label] = append(byLabel[f.Label], f.Type)
	}
	return byLabel
}

func recordsEqual(a, b *Record) bool {
	aFields, aTail := a.Flatten()
	bFields, bTail := b.Flatten()
	if len(aFields) != len(bFields) {
		return false
	}
	if (aTail == nil) != (bTail == nil) {
		return false
	}
	if aTail != nil && !Equal(aTail, bTail) {
		return false
	}
	aLabels, bLabels := labelled(aFields), labelled(bFields)
	if len(aLabels) != len(bLabels) {
		return false
	}
	for label, aTypes := range aLabels {
		if !slices.EqualFunc(aTypes, bLabels[label], Equal) {
			return false
		}
	}
	return true
}

func parametersEqual(a, b Parameter) bool {
	return a.Required == b.Required && Equal(a.Typ, b.Typ)
}

// promoted returns the named parameters of f, plus its positional parameters from index
// onwards, which are all expected to have names. ok is false if one of them does not.
func promoted(f *Function, from int) (named map[string]Parameter, ok bool) {
	named = make(map[string]Parameter, f.named().Len())
	for _, p := range f.NamedParameters() {
		named[p.Name] = p
	}
	for _, p := range f.Positional[from:] {
		if p.Name == "" {
			return nil, false
		}
		named[p.Name] = p
	}
	return named, true
}

func functionsEqual(a, b *Function) bool {
	shared := min(len(a.Positional), len(b.Positional))
	for i := 0; i < shared; i++ {
		if !parametersEqual(a.Positional[i], b.Positional[i]) {
			return false
		}
	}
	aNamed, ok := promoted(a, shared)
	if !ok {
		return false
	}
	bNamed, ok := promoted(b, shared)
	if !ok {
		return false
	}
	if len(aNamed) != len(bNamed) {
		return false
	}
	for name, ap := range aNamed {
		bp, ok := bNamed[name]
		if !ok || !parametersEqual(ap, bp) {
			return false
		}
	}
	switch {
	case a.Pipe == nil && b.Pipe == nil:
	case a.Pipe == nil || b.Pipe == nil:
		return false
	case !parametersEqual(*a.Pipe, *b.Pipe):
		return false
	}
	return Equal(a.Retn, b.Retn)
}
