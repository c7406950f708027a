package ast

import (
	"go/token"
	"strconv"
	"strings"
)

// String renders n back into source form, without comments or original formatting
func String(n Node) string {
	ctx := &showContext{Builder: &strings.Builder{}, indentStr: "  "}
	ctx.node(n)
	return ctx.String()
}

// ExprString renders an expression back into source form
func ExprString(expr Expr) string {
	return String(expr)
}

type showContext struct {
	*strings.Builder
	indent    int
	indentStr string
}

func (ctx *showContext) newline() {
	ctx.WriteString("\n")
	ctx.WriteString(strings.Repeat(ctx.indentStr, ctx.indent))
}

var operatorNames = map[token.Token]string{
	token.LAND: "and",
	token.LOR:  "or",
	token.NOT:  "not ",
}

func operatorString(op token.Token) string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return op.String()
}

func (ctx *showContext) list(n int, each func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			ctx.WriteString(", ")
		}
		each(i)
	}
}

func (ctx *showContext) node(n Node) {
	if n == nil || isNilNode(n) {
		ctx.WriteString("<nil>")
		return
	}
	switch n := n.(type) {
	case *File:
		if n.Package != nil {
			ctx.WriteString("package " + n.Package.Name.Name)
			ctx.newline()
		}
		for _, imp := range n.Imports {
			ctx.node(imp)
			ctx.newline()
		}
		for _, stmt := range n.Body {
			ctx.node(stmt)
			ctx.newline()
		}
	case *ImportDeclaration:
		ctx.WriteString("import ")
		if n.As != nil {
			ctx.WriteString(n.As.Name + " ")
		}
		ctx.WriteString(strconv.Quote(n.Path.Value))
	case *VariableAssignment:
		ctx.WriteString(n.ID.Name + " = ")
		ctx.node(n.Init)
	case *ExpressionStatement:
		ctx.node(n.Expression)
	case *ReturnStatement:
		ctx.WriteString("return ")
		ctx.node(n.Argument)
	case *BuiltinStatement:
		ctx.WriteString("builtin " + n.ID.Name + " : ")
		ctx.node(n.Ty)
	case *Block:
		ctx.WriteString("{")
		ctx.indent++
		for _, stmt := range n.Body {
			ctx.newline()
			ctx.node(stmt)
		}
		ctx.indent--
		ctx.newline()
		ctx.WriteString("}")

	case *Identifier:
		ctx.WriteString(n.Name)
	case *IntegerLiteral:
		ctx.WriteString(strconv.FormatInt(n.Value, 10))
	case *FloatLiteral:
		ctx.WriteString(strconv.FormatFloat(n.Value, 'f', -1, 64))
	case *StringLiteral:
		ctx.WriteString(strconv.Quote(n.Value))
	case *BooleanLiteral:
		ctx.WriteString(strconv.FormatBool(n.Value))
	case *DurationLiteral:
		for _, d := range n.Values {
			ctx.WriteString(strconv.FormatInt(d.Magnitude, 10) + d.Unit)
		}
	case *ArrayExpression:
		ctx.WriteString("[")
		ctx.list(len(n.Elements), func(i int) { ctx.node(n.Elements[i]) })
		ctx.WriteString("]")
	case *DictExpression:
		if len(n.Elements) == 0 {
			ctx.WriteString("[:]")
			return
		}
		ctx.WriteString("[")
		ctx.list(len(n.Elements), func(i int) {
			ctx.node(n.Elements[i].Key)
			ctx.WriteString(": ")
			ctx.node(n.Elements[i].Val)
		})
		ctx.WriteString("]")
	case *ObjectExpression:
		ctx.WriteString("{")
		if n.With != nil {
			ctx.WriteString(n.With.Name + " with ")
		}
		ctx.list(len(n.Properties), func(i int) { ctx.node(n.Properties[i]) })
		ctx.WriteString("}")
	case *Property:
		ctx.WriteString(n.Key.Name)
		if n.Value != nil {
			ctx.WriteString(": ")
			ctx.node(n.Value)
		}
	case *MemberExpression:
		ctx.node(n.Object)
		ctx.WriteString("." + n.Property)
	case *IndexExpression:
		ctx.node(n.Array)
		ctx.WriteString("[")
		ctx.node(n.Index)
		ctx.WriteString("]")
	case *CallExpression:
		ctx.node(n.Callee)
		ctx.WriteString("(")
		ctx.list(len(n.Arguments), func(i int) { ctx.node(n.Arguments[i]) })
		ctx.WriteString(")")
	case *Argument:
		if n.Name != nil {
			ctx.WriteString(n.Name.Name + ": ")
		}
		ctx.node(n.Value)
	case *PipeExpression:
		ctx.node(n.Argument)
		ctx.WriteString(" |> ")
		ctx.node(n.Call)
	case *FunctionExpression:
		ctx.WriteString("(")
		ctx.list(len(n.Params), func(i int) { ctx.node(n.Params[i]) })
		ctx.WriteString(") => ")
		ctx.node(n.Body)
	case *FunctionParameter:
		if n.Pipe {
			ctx.WriteString("<-")
		}
		ctx.WriteString(n.Key.Name)
		if n.Default != nil {
			ctx.WriteString("=")
			ctx.node(n.Default)
		}
	case *BinaryExpression:
		ctx.binary(n.Left, n.Operator, n.Right)
	case *LogicalExpression:
		ctx.binary(n.Left, n.Operator, n.Right)
	case *UnaryExpression:
		ctx.WriteString(operatorString(n.Operator))
		ctx.node(n.Argument)
	case *ConditionalExpression:
		ctx.WriteString("if ")
		ctx.node(n.Test)
		ctx.WriteString(" then ")
		ctx.node(n.Consequent)
		ctx.WriteString(" else ")
		ctx.node(n.Alternate)
	case *ParenExpression:
		ctx.WriteString("(")
		ctx.node(n.Expression)
		ctx.WriteString(")")

	case *TypeExpression:
		ctx.node(n.Ty)
		if len(n.Constraints) > 0 {
			ctx.WriteString(" where ")
			ctx.list(len(n.Constraints), func(i int) { ctx.node(n.Constraints[i]) })
		}
	case *TypeConstraint:
		ctx.WriteString(n.Tvar.Name + ": ")
		for i, k := range n.Kinds {
			if i > 0 {
				ctx.WriteString(" + ")
			}
			ctx.WriteString(k.Name)
		}
	case *NamedType:
		ctx.WriteString(n.ID.Name)
	case *TvarType:
		ctx.WriteString(n.ID.Name)
	case *ArrayType:
		ctx.WriteString("[")
		ctx.node(n.Element)
		ctx.WriteString("]")
	case *DictType:
		ctx.WriteString("[")
		ctx.node(n.Key)
		ctx.WriteString(": ")
		ctx.node(n.Val)
		ctx.WriteString("]")
	case *RecordType:
		ctx.WriteString("{")
		if n.Tvar != nil {
			ctx.WriteString(n.Tvar.Name + " with ")
		}
		ctx.list(len(n.Properties), func(i int) { ctx.node(n.Properties[i]) })
		ctx.WriteString("}")
	case *PropertyType:
		ctx.WriteString(n.Name.Name + ": ")
		ctx.node(n.Ty)
	case *FunctionType:
		ctx.WriteString("(")
		ctx.list(len(n.Parameters), func(i int) { ctx.node(n.Parameters[i]) })
		ctx.WriteString(") => ")
		ctx.node(n.Return)
	case *ParameterType:
		switch n.Kind {
		case Optional:
			ctx.WriteString("?")
		case Pipe:
			ctx.WriteString("<-")
		}
		ctx.WriteString(n.Name.Name + ": ")
		ctx.node(n.Ty)
	default:
		ctx.WriteString("<unknown node>")
	}
}

func (ctx *showContext) binary(left Expr, op token.Token, right Expr) {
	ctx.node(left)
	ctx.WriteString(" " + operatorString(op) + " ")
	ctx.node(right)
}
