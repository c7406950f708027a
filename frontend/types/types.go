package types

import (
	"fmt"
	"github.com/benbjohnson/immutable"
	"strconv"
)

// Tvar identifies a type variable. Tvars are minted by a Fresher and are ordered by creation.
type Tvar uint64

func (tv Tvar) String() string { return "t" + strconv.FormatUint(uint64(tv), 10) }

// MonoType is a type without universally quantified type variables.
//
// The set of implementations is closed: Scalar, Var, *Array, *Dictionary, *Record and *Function.
// Every operation over MonoType switches exhaustively over these and panics on anything else.
type MonoType interface {
	fmt.Stringer
	monoType()
}

var (
	_ MonoType = Scalar(0)
	_ MonoType = Var(0)
	_ MonoType = (*Array)(nil)
	_ MonoType = (*Dictionary)(nil)
	_ MonoType = (*Record)(nil)
	_ MonoType = (*Function)(nil)
)

// Scalar is a leaf type
type Scalar int

const (
	Bool Scalar = iota
	Int
	Uint
	Float
	String
	Duration
	Time
	Regexp
	Bytes
)

var scalarNames = [...]string{
	Bool:     "bool",
	Int:      "int",
	Uint:     "uint",
	Float:    "float",
	String:   "string",
	Duration: "duration",
	Time:     "time",
	Regexp:   "regexp",
	Bytes:    "bytes",
}

// Scalars lists every Scalar, in declaration order
var Scalars = []Scalar{Bool, Int, Uint, Float, String, Duration, Time, Regexp, Bytes}

// ScalarByName returns the Scalar spelled name in source, like "int"
func ScalarByName(name string) (Scalar, bool) {
	for s, n := range scalarNames {
		if n == name {
			return Scalar(s), true
		}
	}
	return 0, false
}

func (Scalar) monoType() {}
func (s Scalar) String() string {
	if s < 0 || int(s) >= len(scalarNames) {
		return "scalar(" + strconv.Itoa(int(s)) + ")"
	}
	return scalarNames[s]
}

// Var is a type variable occurring inside a MonoType
type Var Tvar

func (Var) monoType()        {}
func (v Var) String() string { return Tvar(v).String() }

type Array struct {
	Elem MonoType
}

func NewArray(elem MonoType) *Array { return &Array{Elem: elem} }
func (*Array) monoType()            {}
func (t *Array) String() string     { return show(t, false) }

type Dictionary struct {
	Key, Val MonoType
}

func NewDictionary(key, val MonoType) *Dictionary { return &Dictionary{Key: key, Val: val} }
func (*Dictionary) monoType()                     {}
func (t *Dictionary) String() string              { return show(t, false) }

// Record is a row of labelled fields.
//
// A Record is either the empty (closed) record, for which Tail is nil,
// or an extension of Tail with one more field. Tail is then either another *Record
// or a Var standing for the unknown remainder of the row.
type Record struct {
	Label string
	Field MonoType
	Tail  MonoType
}

// EmptyRecord is the closed record without fields
var EmptyRecord = &Record{}

// Extend returns the record with field label:field in front of tail
func Extend(label string, field, tail MonoType) *Record {
	return &Record{Label: label, Field: field, Tail: tail}
}

// NewRecord builds a record out of fields, in order, ending in tail.
// A nil tail closes the record.
func NewRecord(fields []Property, tail MonoType) *Record {
	var r MonoType = EmptyRecord
	if tail != nil {
		r = tail
	}
	for i := len(fields) - 1; i >= 0; i-- {
		r = Extend(fields[i].Label, fields[i].Type, r)
	}
	if asRecord, ok := r.(*Record); ok {
		return asRecord
	}
	panic(InternalError{Msg: fmt.Sprintf("cannot build a record without fields on top of %s", tail)})
}

// Property is a single field of a Record
type Property struct {
	Label string
	Type  MonoType
}

func (*Record) monoType()        {}
func (r *Record) String() string { return show(r, false) }
func (r *Record) IsEmpty() bool  { return r.Tail == nil }

// Flatten returns the fields of r in order, as well as what terminates the row:
// nil for a closed record, or whatever non-record type the last extension points to.
func (r *Record) Flatten() (fields []Property, tail MonoType) {
	var current MonoType = r
	for {
		switch t := current.(type) {
		case *Record:
			if t.IsEmpty() {
				return fields, nil
			}
			fields = append(fields, Property{Label: t.Label, Type: t.Field})
			current = t.Tail
		default:
			return fields, t
		}
	}
}

// Parameter of a Function. Name may be empty for purely positional parameters.
type Parameter struct {
	Name     string
	Typ      MonoType
	Required bool
}

// Function is the type of a function, which may be called with positional,
// named and pipe arguments.
type Function struct {
	Positional []Parameter
	// Named is never nil for functions built with NewFunction
	Named *immutable.SortedMap[string, Parameter]
	// Pipe is nil unless the function accepts a piped argument
	Pipe *Parameter
	Retn MonoType
}

type stringComparer struct{}

func (stringComparer) Compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// NewNamedParameters returns an empty persistent map of named parameters
func NewNamedParameters() *immutable.SortedMap[string, Parameter] {
	return immutable.NewSortedMap[string, Parameter](stringComparer{})
}

// NewFunction builds a Function. named may be nil.
func NewFunction(positional []Parameter, named map[string]Parameter, pipe *Parameter, retn MonoType) *Function {
	b := immutable.NewSortedMapBuilder[string, Parameter](stringComparer{})
	for name, p := range named {
		p.Name = name
		b.Set(name, p)
	}
	return &Function{
		Positional: positional,
		Named:      b.Map(),
		Pipe:       pipe,
		Retn:       retn,
	}
}

func (*Function) monoType()        {}
func (f *Function) String() string { return show(f, false) }

// named returns f.Named, or an empty map when the function was built by hand
func (f *Function) named() *immutable.SortedMap[string, Parameter] {
	if f.Named == nil {
		return NewNamedParameters()
	}
	return f.Named
}

// NamedParameters returns the named parameters of f sorted by name
func (f *Function) NamedParameters() []Parameter {
	named := f.named()
	params := make([]Parameter, 0, named.Len())
	itr := named.Iterator()
	for !itr.Done() {
		_, p, _ := itr.Next()
		params = append(params, p)
	}
	return params
}

// InternalError is raised (as a panic) when the engine finds itself in a state
// that well-formed input can never produce. It is a bug in the engine, never a user error.
type InternalError struct {
	Msg string
}

func (e InternalError) Error() string { return "internal error: " + e.Msg }

func unknownVariant(t any) InternalError {
	return InternalError{Msg: fmt.Sprintf("unknown MonoType variant %T", t)}
}
