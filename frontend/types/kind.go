package types

import (
	"github.com/xtgo/set"
	"maps"
	"slices"
	"sort"
	"strings"
)

// Kind is a capability a type must have, for example being usable with +
type Kind int

const (
	KindAddable Kind = iota
	KindSubtractable
	KindDivisible
	KindNumeric
	KindComparable
	KindEquatable
	KindNullable
	KindRecord
	KindNegatable
	KindTimeable
	KindStringable
)

var kindNames = [...]string{
	KindAddable:      "Addable",
	KindSubtractable: "Subtractable",
	KindDivisible:    "Divisible",
	KindNumeric:      "Numeric",
	KindComparable:   "Comparable",
	KindEquatable:    "Equatable",
	KindNullable:     "Nullable",
	KindRecord:       "Record",
	KindNegatable:    "Negatable",
	KindTimeable:     "Timeable",
	KindStringable:   "Stringable",
}

func (k Kind) String() string {
	if !k.Valid() {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// KindByName returns the Kind spelled name, as it appears in `where` clauses
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

type kindSlice []Kind

func (s kindSlice) Len() int           { return len(s) }
func (s kindSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s kindSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// sortedKinds returns a sorted copy of kinds without duplicates
func sortedKinds(kinds []Kind) []Kind {
	cp := kindSlice(slices.Clone(kinds))
	sort.Sort(cp)
	return cp[:set.Uniq(cp)]
}

type tvarSlice []Tvar

func (s tvarSlice) Len() int           { return len(s) }
func (s tvarSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s tvarSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// sortedTvars returns a sorted copy of vars without duplicates
func sortedTvars(vars []Tvar) []Tvar {
	cp := tvarSlice(slices.Clone(vars))
	sort.Sort(cp)
	return cp[:set.Uniq(cp)]
}

// KindConstraints holds the kinds each type variable has been required to satisfy.
// It is shared and mutated through a whole inference session.
type KindConstraints map[Tvar][]Kind

// Add records that tv must satisfy k. Kinds are kept sorted and never duplicated.
func (c KindConstraints) Add(tv Tvar, k Kind) {
	kinds := c[tv]
	i, found := slices.BinarySearch(kinds, k)
	if found {
		return
	}
	c[tv] = slices.Insert(slices.Clone(kinds), i, k)
}

// Clone returns a deep copy of c
func (c KindConstraints) Clone() KindConstraints {
	cp := make(KindConstraints, len(c))
	for tv, kinds := range c {
		cp[tv] = slices.Clone(kinds)
	}
	return cp
}

func (c KindConstraints) String() string {
	sb := &strings.Builder{}
	sb.WriteString("{")
	for i, tv := range slices.Sorted(maps.Keys(c)) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tv.String())
		sb.WriteString(": ")
		writeKinds(sb, c[tv])
	}
	sb.WriteString("}")
	return sb.String()
}

func writeKinds(sb *strings.Builder, kinds []Kind) {
	for i, k := range kinds {
		if i > 0 {
			sb.WriteString(" + ")
		}
		sb.WriteString(k.String())
	}
}
