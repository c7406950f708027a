package parser_test

import (
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go/token"
	"testing"
)

func testParse(t *testing.T, input string) *ast.File {
	f, errs := parser.Parse(token.NewFileSet(), "test.fql", input)
	require.False(t, errs.HasError(), "unexpected errors: %v", errs)
	return f
}

// testExpr parses input as the only statement of a file
func testExpr(t *testing.T, input string) ast.Expr {
	f := testParse(t, input)
	require.Len(t, f.Body, 1)
	stmt, ok := f.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected an expression statement but got %T", f.Body[0])
	return stmt.Expression
}

func TestNoPanics(t *testing.T) {
	files := map[string]string{
		"empty program":          ``,
		"package only":           "package",
		"dangling call":          "f(",
		"dangling function":      "(a) =>",
		"unterminated array":     "[1, 2",
		"unterminated object":    "{a with",
		"builtin without type":   "builtin f :",
		"unterminated string":    `"abc`,
		"bad duration":           "1h2x",
		"pipe into literal":      "x |> 1",
		"unbalanced parens":      "((a)",
		"block without brace":    "f = (a) => {\n return a\n",
		"return at top level":    "return 1",
		"stray operator":         "a = * 2",
		"builtin in a block":     "f = () => {\nbuiltin g : int\nreturn 1\n}",
		"where without a tvar":   "builtin f : int where",
		"program with v":         "package main\nv",
		"import without a path":  "import foo",
		"many broken statements": "a = \nb = )\nc = ]\n",
	}

	for name, file := range files {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, _ = parser.Parse(token.NewFileSet(), name, file)
			})
		})
	}
}

func TestPackageClause(t *testing.T) {
	f := testParse(t, "package foo\n\nx = 1\n")
	assert.Equal(t, "foo", f.PackageName())
	assert.Len(t, f.Body, 1)

	f = testParse(t, "x = 1\n")
	assert.Nil(t, f.Package)
	assert.Equal(t, "main", f.PackageName())
}

func TestImports(t *testing.T) {
	f := testParse(t, `
package main

import "strings/internal"
import b "other/pkg"
`)
	require.Len(t, f.Imports, 2)
	assert.Equal(t, "strings/internal", f.Imports[0].Path.Value)
	assert.Equal(t, "internal", f.Imports[0].Name())
	assert.Equal(t, "b", f.Imports[1].Name())
	assert.Empty(t, f.Body)
}

func TestAssignLiterals(t *testing.T) {
	f := testParse(t, `
i = 42
fl = 1.5
s = "a\tb"
b = false
d = 1h30m
`)
	require.Len(t, f.Body, 5)
	inits := make(map[string]ast.Expr)
	for _, stmt := range f.Body {
		assign, ok := stmt.(*ast.VariableAssignment)
		require.True(t, ok)
		inits[assign.ID.Name] = assign.Init
	}

	require.IsType(t, &ast.IntegerLiteral{}, inits["i"])
	assert.Equal(t, int64(42), inits["i"].(*ast.IntegerLiteral).Value)
	require.IsType(t, &ast.FloatLiteral{}, inits["fl"])
	assert.Equal(t, 1.5, inits["fl"].(*ast.FloatLiteral).Value)
	require.IsType(t, &ast.StringLiteral{}, inits["s"])
	assert.Equal(t, "a\tb", inits["s"].(*ast.StringLiteral).Value)
	require.IsType(t, &ast.BooleanLiteral{}, inits["b"])
	assert.False(t, inits["b"].(*ast.BooleanLiteral).Value)
	require.IsType(t, &ast.DurationLiteral{}, inits["d"])
	assert.Equal(t, []ast.Duration{{Magnitude: 1, Unit: "h"}, {Magnitude: 30, Unit: "m"}}, inits["d"].(*ast.DurationLiteral).Values)
}

func TestExpressionsRoundTrip(t *testing.T) {
	testCases := []struct {
		src, expected string
	}{
		{`r.a`, `r.a`},
		{`r["a"]`, `r.a`},
		{`a[0]`, `a[0]`},
		{`f(a: 1, 2)`, `f(a: 1, 2)`},
		{`f()`, `f()`},
		{`x |> f(a: 1)`, `x |> f(a: 1)`},
		{`{r with a: 1, b}`, `{r with a: 1, b}`},
		{`{"a": 1}`, `{a: 1}`},
		{`{}`, `{}`},
		{`[1, 2,]`, `[1, 2]`},
		{`[]`, `[]`},
		{`[:]`, `[:]`},
		{`["a": 1, "b": 2]`, `["a": 1, "b": 2]`},
		{`(a, b=1, <-t) => a`, `(a, b=1, <-t) => a`},
		{`() => 1`, `() => 1`},
		{`if a then 1 else 2`, `if a then 1 else 2`},
		{`not a and b`, `not a and b`},
		{`a or b`, `a or b`},
		{`-x`, `-x`},
		{`(1)`, `(1)`},
		{`a == b`, `a == b`},
		{`a <= b`, `a <= b`},
		{`a % b`, `a % b`},
		{`r.a.b(c: 1)[0]`, `r.a.b(c: 1)[0]`},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.expected, ast.ExprString(testExpr(t, tc.src)))
		})
	}
}

func TestPrecedence(t *testing.T) {
	t.Run("multiplication binds tighter than addition", func(t *testing.T) {
		expr := testExpr(t, "1 + 2 * 3")
		require.IsType(t, &ast.BinaryExpression{}, expr)
		add := expr.(*ast.BinaryExpression)
		assert.Equal(t, token.ADD, add.Operator)
		require.IsType(t, &ast.BinaryExpression{}, add.Right)
		assert.Equal(t, token.MUL, add.Right.(*ast.BinaryExpression).Operator)
	})
	t.Run("and binds tighter than or", func(t *testing.T) {
		expr := testExpr(t, "a or b and c")
		require.IsType(t, &ast.LogicalExpression{}, expr)
		or := expr.(*ast.LogicalExpression)
		assert.Equal(t, token.LOR, or.Operator)
		require.IsType(t, &ast.LogicalExpression{}, or.Right)
	})
	t.Run("pipes bind tighter than arithmetic", func(t *testing.T) {
		expr := testExpr(t, "x |> f() + 1")
		require.IsType(t, &ast.BinaryExpression{}, expr)
		assert.IsType(t, &ast.PipeExpression{}, expr.(*ast.BinaryExpression).Left)
	})
	t.Run("subtraction is left associative", func(t *testing.T) {
		expr := testExpr(t, "a - b - c")
		require.IsType(t, &ast.BinaryExpression{}, expr)
		assert.Equal(t, "a - b", ast.ExprString(expr.(*ast.BinaryExpression).Left))
	})
	t.Run("comparison binds looser than addition", func(t *testing.T) {
		expr := testExpr(t, "a + 1 < b")
		require.IsType(t, &ast.BinaryExpression{}, expr)
		assert.Equal(t, token.LSS, expr.(*ast.BinaryExpression).Operator)
	})
}

func TestFunctionWithBlock(t *testing.T) {
	f := testParse(t, `
f = (a) => {
    b = a + 1
    return b
}
`)
	require.Len(t, f.Body, 1)
	assign := f.Body[0].(*ast.VariableAssignment)
	require.IsType(t, &ast.FunctionExpression{}, assign.Init)
	fn := assign.Init.(*ast.FunctionExpression)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "a", fn.Params[0].Key.Name)
	require.IsType(t, &ast.Block{}, fn.Body)
	body := fn.Body.(*ast.Block).Body
	require.Len(t, body, 2)
	assert.IsType(t, &ast.VariableAssignment{}, body[0])
	assert.IsType(t, &ast.ReturnStatement{}, body[1])
}

func TestCallsStartOnTheSameLine(t *testing.T) {
	f := testParse(t, "f\n(1)\n")
	require.Len(t, f.Body, 2)
	assert.IsType(t, &ast.Identifier{}, f.Body[0].(*ast.ExpressionStatement).Expression)
	assert.IsType(t, &ast.ParenExpression{}, f.Body[1].(*ast.ExpressionStatement).Expression)
}

func TestBuiltinTypes(t *testing.T) {
	src := "builtin add : (a: A, ?b: int, <-tables: [A]) => {R with x: A} where A: Addable + Divisible, R: Record"
	f := testParse(t, src)
	require.Len(t, f.Body, 1)
	require.IsType(t, &ast.BuiltinStatement{}, f.Body[0])
	builtin := f.Body[0].(*ast.BuiltinStatement)
	assert.Equal(t, src, ast.String(builtin))

	fn := builtin.Ty.Ty.(*ast.FunctionType)
	require.Len(t, fn.Parameters, 3)
	assert.Equal(t, ast.Required, fn.Parameters[0].Kind)
	assert.IsType(t, &ast.TvarType{}, fn.Parameters[0].Ty)
	assert.Equal(t, ast.Optional, fn.Parameters[1].Kind)
	assert.IsType(t, &ast.NamedType{}, fn.Parameters[1].Ty)
	assert.Equal(t, ast.Pipe, fn.Parameters[2].Kind)
	assert.IsType(t, &ast.ArrayType{}, fn.Parameters[2].Ty)
	require.Len(t, builtin.Ty.Constraints, 2)
	assert.Len(t, builtin.Ty.Constraints[0].Kinds, 2)
}

func TestBuiltinDictType(t *testing.T) {
	f := testParse(t, "builtin d : [string: [int]]")
	ty := f.Body[0].(*ast.BuiltinStatement).Ty.Ty
	require.IsType(t, &ast.DictType{}, ty)
	assert.IsType(t, &ast.ArrayType{}, ty.(*ast.DictType).Val)
}

func TestSyntaxErrorsRecover(t *testing.T) {
	fset := token.NewFileSet()
	f, errs := parser.Parse(fset, "test.fql", "a = )\nb = 2\n")
	require.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 1)

	err := errs.Errors()[0]
	assert.Equal(t, fqlerr.Parse, err.Code())
	assert.Equal(t, "expected expression but found ')'", err.Error())
	pos := fset.Position(err.Pos())
	assert.Equal(t, 1, pos.Line)
	assert.Equal(t, 5, pos.Column)

	require.Len(t, f.Body, 1)
	assert.Equal(t, "b", f.Body[0].(*ast.VariableAssignment).ID.Name)
}

func TestEndOfFilePosition(t *testing.T) {
	testCases := []struct {
		src          string
		line, column int
	}{
		{"a = 1 +", 1, 8},
		{"a = 1 +\n", 2, 1},
		{"\n\na = 1 +\n", 4, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			fset := token.NewFileSet()
			f, errs := parser.Parse(fset, "test.fql", tc.src)
			require.True(t, errs.HasError())
			err := errs.Errors()[0]
			assert.Equal(t, "expected expression but found end of file", err.Error())
			pos := fset.Position(err.Pos())
			assert.Equal(t, tc.line, pos.Line)
			assert.Equal(t, tc.column, pos.Column)
			assert.Equal(t, len(tc.src), fset.Position(f.End()).Offset)
		})
	}
}

func TestSyntaxErrorMessages(t *testing.T) {
	testCases := []struct {
		src, msg string
	}{
		{"x |> 1", "pipe destination must be a function call"},
		{"d = 1x", "invalid duration literal 1x"},
		{`o = {"a"}`, `property "a" needs a value`},
		{"f(a: 1", "expected ')' but found end of file"},
		{"f = () => {\nbuiltin g : int\n}", "builtin declarations are only allowed at the top level of a file"},
		{"builtin f : (a) => int", "expected ':' but found ')'"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			_, errs := parser.Parse(token.NewFileSet(), "test.fql", tc.src)
			require.True(t, errs.HasError())
			assert.Equal(t, tc.msg, errs.Errors()[0].Error())
		})
	}
}
