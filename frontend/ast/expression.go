package ast

import (
	"go/token"
	"math"
)

// Identifier represents a variable or function name.
type Identifier struct {
	Range
	Name string
}

func (e *Identifier) exprNode() {}
func (e *Identifier) Hash() uint64 {
	return newHasher("Identifier", e.Range).str(e.Name).sum()
}

type IntegerLiteral struct {
	Range
	Value int64
}

func (e *IntegerLiteral) exprNode() {}
func (e *IntegerLiteral) Hash() uint64 {
	return newHasher("IntegerLiteral", e.Range).num(uint64(e.Value)).sum()
}

type FloatLiteral struct {
	Range
	Value float64
}

func (e *FloatLiteral) exprNode() {}
func (e *FloatLiteral) Hash() uint64 {
	return newHasher("FloatLiteral", e.Range).num(math.Float64bits(e.Value)).sum()
}

type StringLiteral struct {
	Range
	Value string
}

func (e *StringLiteral) exprNode() {}
func (e *StringLiteral) Hash() uint64 {
	return newHasher("StringLiteral", e.Range).str(e.Value).sum()
}

type BooleanLiteral struct {
	Range
	Value bool
}

func (e *BooleanLiteral) exprNode() {}
func (e *BooleanLiteral) Hash() uint64 {
	var v uint64
	if e.Value {
		v = 1
	}
	return newHasher("BooleanLiteral", e.Range).num(v).sum()
}

// Duration is one magnitude-unit pair of a DurationLiteral, like 3h
type Duration struct {
	Magnitude int64
	Unit      string
}

// DurationLiteral is a sequence of durations, like 1h30m
type DurationLiteral struct {
	Range
	Values []Duration
}

func (e *DurationLiteral) exprNode() {}
func (e *DurationLiteral) Hash() uint64 {
	h := newHasher("DurationLiteral", e.Range)
	for _, d := range e.Values {
		h.num(uint64(d.Magnitude)).str(d.Unit)
	}
	return h.sum()
}

// ArrayExpression is a list of elements, like [1, 2, 3]
type ArrayExpression struct {
	Range
	Elements []Expr
}

func (e *ArrayExpression) exprNode() {}
func (e *ArrayExpression) Hash() uint64 {
	h := newHasher("ArrayExpression", e.Range)
	for _, el := range e.Elements {
		h.node(el)
	}
	return h.sum()
}

type DictItem struct {
	Key, Val Expr
}

// DictExpression is a dictionary literal, like ["a": 1] or the empty [:]
type DictExpression struct {
	Range
	Elements []DictItem
}

func (e *DictExpression) exprNode() {}
func (e *DictExpression) Hash() uint64 {
	h := newHasher("DictExpression", e.Range)
	for _, item := range e.Elements {
		h.node(item.Key).node(item.Val)
	}
	return h.sum()
}

// Property of an ObjectExpression. Value is nil for the shorthand {a}, which means {a: a}
type Property struct {
	Range
	Key   *Identifier
	Value Expr
}

func (p *Property) Hash() uint64 {
	return newHasher("Property", p.Range).node(p.Key).node(p.Value).sum()
}

// ObjectExpression is a record literal, like {a: 1} or {r with a: 1}
type ObjectExpression struct {
	Range
	With       *Identifier // nil unless the object extends another record
	Properties []*Property
}

func (e *ObjectExpression) exprNode() {}
func (e *ObjectExpression) Hash() uint64 {
	h := newHasher("ObjectExpression", e.Range).node(e.With)
	for _, p := range e.Properties {
		h.node(p)
	}
	return h.sum()
}

// MemberExpression accesses a property of a record, like r.a or r["a"]
type MemberExpression struct {
	Range
	Object   Expr
	Property string
}

func (e *MemberExpression) exprNode() {}
func (e *MemberExpression) Hash() uint64 {
	return newHasher("MemberExpression", e.Range).node(e.Object).str(e.Property).sum()
}

// IndexExpression accesses an element of an array, like a[0]
type IndexExpression struct {
	Range
	Array Expr
	Index Expr
}

func (e *IndexExpression) exprNode() {}
func (e *IndexExpression) Hash() uint64 {
	return newHasher("IndexExpression", e.Range).node(e.Array).node(e.Index).sum()
}

// Argument of a call. Name is nil for positional arguments.
type Argument struct {
	Range
	Name  *Identifier
	Value Expr
}

func (a *Argument) Hash() uint64 {
	return newHasher("Argument", a.Range).node(a.Name).node(a.Value).sum()
}

type CallExpression struct {
	Range
	Callee    Expr
	Arguments []*Argument
}

func (e *CallExpression) exprNode() {}
func (e *CallExpression) Hash() uint64 {
	h := newHasher("CallExpression", e.Range).node(e.Callee)
	for _, arg := range e.Arguments {
		h.node(arg)
	}
	return h.sum()
}

// PipeExpression passes Argument as the pipe parameter of Call, like x |> f()
type PipeExpression struct {
	Range
	Argument Expr
	Call     *CallExpression
}

func (e *PipeExpression) exprNode() {}
func (e *PipeExpression) Hash() uint64 {
	return newHasher("PipeExpression", e.Range).node(e.Argument).node(e.Call).sum()
}

// FunctionParameter is one parameter of a FunctionExpression.
// Default is nil for required parameters. Pipe marks the <-name parameter.
type FunctionParameter struct {
	Range
	Key     *Identifier
	Default Expr
	Pipe    bool
}

func (p *FunctionParameter) Hash() uint64 {
	var pipe uint64
	if p.Pipe {
		pipe = 1
	}
	return newHasher("FunctionParameter", p.Range).node(p.Key).node(p.Default).num(pipe).sum()
}

// FunctionExpression is a function literal. Body is either an Expr or a *Block.
type FunctionExpression struct {
	Range
	Params []*FunctionParameter
	Body   Node
}

func (e *FunctionExpression) exprNode() {}
func (e *FunctionExpression) Hash() uint64 {
	h := newHasher("FunctionExpression", e.Range)
	for _, p := range e.Params {
		h.node(p)
	}
	return h.node(e.Body).sum()
}

// BinaryExpression is an arithmetic or comparison operation. Operator is one of
// token.ADD, SUB, MUL, QUO, REM, EQL, NEQ, LSS, LEQ, GTR, GEQ.
type BinaryExpression struct {
	Range
	Operator token.Token
	Left     Expr
	Right    Expr
}

func (e *BinaryExpression) exprNode() {}
func (e *BinaryExpression) Hash() uint64 {
	return newHasher("BinaryExpression", e.Range).str(e.Operator.String()).node(e.Left).node(e.Right).sum()
}

// UnaryExpression is -x or not x (token.SUB and token.NOT)
type UnaryExpression struct {
	Range
	Operator token.Token
	Argument Expr
}

func (e *UnaryExpression) exprNode() {}
func (e *UnaryExpression) Hash() uint64 {
	return newHasher("UnaryExpression", e.Range).str(e.Operator.String()).node(e.Argument).sum()
}

// LogicalExpression is `and` (token.LAND) or `or` (token.LOR)
type LogicalExpression struct {
	Range
	Operator token.Token
	Left     Expr
	Right    Expr
}

func (e *LogicalExpression) exprNode() {}
func (e *LogicalExpression) Hash() uint64 {
	return newHasher("LogicalExpression", e.Range).str(e.Operator.String()).node(e.Left).node(e.Right).sum()
}

// ConditionalExpression is if Test then Consequent else Alternate
type ConditionalExpression struct {
	Range
	Test       Expr
	Consequent Expr
	Alternate  Expr
}

func (e *ConditionalExpression) exprNode() {}
func (e *ConditionalExpression) Hash() uint64 {
	return newHasher("ConditionalExpression", e.Range).node(e.Test).node(e.Consequent).node(e.Alternate).sum()
}

// ParenExpression keeps track of parentheses for positions only
type ParenExpression struct {
	Range
	Expression Expr
}

func (e *ParenExpression) exprNode() {}
func (e *ParenExpression) Hash() uint64 {
	return newHasher("ParenExpression", e.Range).node(e.Expression).sum()
}
