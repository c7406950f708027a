package ast

// MonoTypeNode is the syntax of a monotype, as written in builtin declarations
type MonoTypeNode interface {
	Node
	typeNode()
}

// TypeExpression is a type with its kind constraints, like
// (a: A) => A where A: Addable + Divisible
type TypeExpression struct {
	Range
	Ty          MonoTypeNode
	Constraints []*TypeConstraint
}

func (t *TypeExpression) Hash() uint64 {
	h := newHasher("TypeExpression", t.Range).node(t.Ty)
	for _, c := range t.Constraints {
		h.node(c)
	}
	return h.sum()
}

// TypeConstraint requires Tvar to be each of Kinds
type TypeConstraint struct {
	Range
	Tvar  *Identifier
	Kinds []*Identifier
}

func (t *TypeConstraint) Hash() uint64 {
	h := newHasher("TypeConstraint", t.Range).node(t.Tvar)
	for _, k := range t.Kinds {
		h.node(k)
	}
	return h.sum()
}

// NamedType is a scalar type, like int
type NamedType struct {
	Range
	ID *Identifier
}

func (t *NamedType) typeNode() {}
func (t *NamedType) Hash() uint64 {
	return newHasher("NamedType", t.Range).node(t.ID).sum()
}

// TvarType is a type variable, written as a single upper case letter
type TvarType struct {
	Range
	ID *Identifier
}

func (t *TvarType) typeNode() {}
func (t *TvarType) Hash() uint64 {
	return newHasher("TvarType", t.Range).node(t.ID).sum()
}

type ArrayType struct {
	Range
	Element MonoTypeNode
}

func (t *ArrayType) typeNode() {}
func (t *ArrayType) Hash() uint64 {
	return newHasher("ArrayType", t.Range).node(t.Element).sum()
}

type DictType struct {
	Range
	Key MonoTypeNode
	Val MonoTypeNode
}

func (t *DictType) typeNode() {}
func (t *DictType) Hash() uint64 {
	return newHasher("DictType", t.Range).node(t.Key).node(t.Val).sum()
}

type PropertyType struct {
	Range
	Name *Identifier
	Ty   MonoTypeNode
}

func (t *PropertyType) Hash() uint64 {
	return newHasher("PropertyType", t.Range).node(t.Name).node(t.Ty).sum()
}

// RecordType is {a: int} or, when Tvar is set, the open {R with a: int}
type RecordType struct {
	Range
	Tvar       *Identifier
	Properties []*PropertyType
}

func (t *RecordType) typeNode() {}
func (t *RecordType) Hash() uint64 {
	h := newHasher("RecordType", t.Range).node(t.Tvar)
	for _, p := range t.Properties {
		h.node(p)
	}
	return h.sum()
}

type ParameterKind int

const (
	Required ParameterKind = iota
	Optional
	Pipe
)

// ParameterType is `a: T`, `?a: T` or `<-a: T`
type ParameterType struct {
	Range
	Kind ParameterKind
	Name *Identifier
	Ty   MonoTypeNode
}

func (t *ParameterType) Hash() uint64 {
	return newHasher("ParameterType", t.Range).num(uint64(t.Kind)).node(t.Name).node(t.Ty).sum()
}

type FunctionType struct {
	Range
	Parameters []*ParameterType
	Return     MonoTypeNode
}

func (t *FunctionType) typeNode() {}
func (t *FunctionType) Hash() uint64 {
	h := newHasher("FunctionType", t.Range)
	for _, p := range t.Parameters {
		h.node(p)
	}
	return h.node(t.Return).sum()
}
