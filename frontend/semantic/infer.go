package semantic

import (
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/frontend/types"
	"go/token"
)

// operatorKinds is what the operands of each arithmetic and comparison operator must be
var operatorKinds = map[token.Token]types.Kind{
	token.ADD: types.KindAddable,
	token.SUB: types.KindSubtractable,
	token.MUL: types.KindNumeric,
	token.QUO: types.KindDivisible,
	token.REM: types.KindDivisible,
	token.EQL: types.KindEquatable,
	token.NEQ: types.KindEquatable,
	token.LSS: types.KindComparable,
	token.LEQ: types.KindComparable,
	token.GTR: types.KindComparable,
	token.GEQ: types.KindComparable,
}

func isComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	}
	return false
}

func (a *analyzer) expr(env *Env, e ast.Expr) types.MonoType {
	t := a.inferExpr(env, e)
	a.record(e, t)
	return t
}

func (a *analyzer) inferExpr(env *Env, e ast.Expr) types.MonoType {
	switch e := e.(type) {
	case *ast.Identifier:
		return a.identifier(env, e)
	case *ast.IntegerLiteral:
		return types.Int
	case *ast.FloatLiteral:
		return types.Float
	case *ast.StringLiteral:
		return types.String
	case *ast.BooleanLiteral:
		return types.Bool
	case *ast.DurationLiteral:
		return types.Duration
	case *ast.ParenExpression:
		return a.expr(env, e.Expression)

	case *ast.ArrayExpression:
		elem := a.freshVar()
		for _, el := range e.Elements {
			a.unify(el, elem, a.expr(env, el))
		}
		return types.NewArray(elem)
	case *ast.DictExpression:
		key, val := a.freshVar(), a.freshVar()
		for _, item := range e.Elements {
			a.unify(item.Key, key, a.expr(env, item.Key))
			a.unify(item.Val, val, a.expr(env, item.Val))
		}
		return types.NewDictionary(key, val)
	case *ast.ObjectExpression:
		return a.object(env, e)
	case *ast.MemberExpression:
		return a.member(env, e)
	case *ast.IndexExpression:
		elem := a.freshVar()
		a.unify(e.Array, types.NewArray(elem), a.expr(env, e.Array))
		a.unify(e.Index, types.Int, a.expr(env, e.Index))
		return elem

	case *ast.CallExpression:
		return a.call(env, e, nil)
	case *ast.PipeExpression:
		piped := a.expr(env, e.Argument)
		t := a.call(env, e.Call, piped)
		a.record(e.Call, t)
		return t
	case *ast.FunctionExpression:
		return a.function(env, e)

	case *ast.BinaryExpression:
		left := a.expr(env, e.Left)
		right := a.expr(env, e.Right)
		a.unify(e, left, right)
		if k, ok := operatorKinds[e.Operator]; ok {
			a.operand(e, left, k)
		}
		if isComparison(e.Operator) {
			return types.Bool
		}
		return left
	case *ast.LogicalExpression:
		a.unify(e.Left, types.Bool, a.expr(env, e.Left))
		a.unify(e.Right, types.Bool, a.expr(env, e.Right))
		return types.Bool
	case *ast.UnaryExpression:
		arg := a.expr(env, e.Argument)
		if e.Operator == token.NOT {
			a.unify(e.Argument, types.Bool, arg)
			return types.Bool
		}
		a.operand(e, arg, types.KindNegatable)
		return arg
	case *ast.ConditionalExpression:
		a.unify(e.Test, types.Bool, a.expr(env, e.Test))
		cons := a.expr(env, e.Consequent)
		a.unify(e.Alternate, cons, a.expr(env, e.Alternate))
		return cons
	}
	a.fail(fqlerr.Unclassified{Positioner: ast.RangeOf(e), From: types.InternalError{Msg: "unexpected expression " + ast.ExprString(e)}})
	return a.freshVar()
}

// operand checks that the operand of an operator has kind k. Operands whose
// type is still a variable are left alone, unless FeatureOperatorConstraints is enabled.
func (a *analyzer) operand(n ast.Node, t types.MonoType, k types.Kind) {
	if _, unresolved := types.Apply(a.sub, t).(types.Var); unresolved && !a.cfg.Enabled(FeatureOperatorConstraints) {
		return
	}
	a.constrain(n, t, k)
}

func (a *analyzer) identifier(env *Env, id *ast.Identifier) types.MonoType {
	scheme, ok := env.Lookup(id.Name)
	if !ok {
		a.fail(fqlerr.NewUndefinedVariable{Positioner: id.Range, Name: id.Name})
		return a.freshVar()
	}
	return a.instantiate(scheme)
}

func (a *analyzer) object(env *Env, obj *ast.ObjectExpression) types.MonoType {
	var tail types.MonoType
	if obj.With != nil {
		tail = a.expr(env, obj.With)
		if !a.constrain(obj.With, tail, types.KindRecord) {
			tail = a.freshVar()
		}
		tail = types.Apply(a.sub, tail)
	}
	props := make([]types.Property, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		var t types.MonoType
		if p.Value == nil {
			t = a.expr(env, p.Key)
		} else {
			t = a.expr(env, p.Value)
		}
		props = append(props, types.Property{Label: p.Key.Name, Type: t})
	}
	if len(props) == 0 {
		if tail != nil {
			return tail
		}
		return types.EmptyRecord
	}
	return types.NewRecord(props, tail)
}

func (a *analyzer) member(env *Env, e *ast.MemberExpression) types.MonoType {
	if id, ok := e.Object.(*ast.Identifier); ok {
		if path, ok := a.importPath(env, id.Name); ok {
			sym, ok := a.importer.Symbol(path, e.Property)
			if !ok {
				a.fail(fqlerr.NewUndefinedVariable{Positioner: e.Range, Name: id.Name + "." + e.Property})
				return a.freshVar()
			}
			return a.instantiate(sym.Type)
		}
	}
	obj := a.expr(env, e.Object)
	field := a.freshVar()
	a.unify(e, types.Extend(e.Property, field, a.freshVar()), obj)
	return field
}

// call unifies the type of the callee with the shape of the call: its
// arguments, the piped value when there is one, and a fresh return type
func (a *analyzer) call(env *Env, call *ast.CallExpression, piped types.MonoType) types.MonoType {
	callee := a.expr(env, call.Callee)
	var positional []types.Parameter
	named := make(map[string]types.Parameter)
	for _, arg := range call.Arguments {
		t := a.expr(env, arg.Value)
		if arg.Name == nil {
			positional = append(positional, types.Parameter{Typ: t, Required: true})
			continue
		}
		named[arg.Name.Name] = types.Parameter{Typ: t, Required: true}
	}
	var pipe *types.Parameter
	if piped != nil {
		pipe = &types.Parameter{Typ: piped, Required: true}
		if fn, ok := types.Apply(a.sub, callee).(*types.Function); ok && fn.Pipe != nil {
			pipe.Name = fn.Pipe.Name
		}
	}
	retn := a.freshVar()
	shape := types.NewFunction(positional, named, pipe, retn)
	a.unify(call, callee, shape)
	a.result.calls = append(a.result.calls, CallSite{Call: call, Type: shape})
	return retn
}

func (a *analyzer) function(env *Env, fn *ast.FunctionExpression) types.MonoType {
	scope := NewEnv(env)
	var (
		positional []types.Parameter
		pipe       *types.Parameter
	)
	for _, param := range fn.Params {
		name := param.Key.Name
		if scope.defines(name) {
			a.fail(fqlerr.NewDuplicateDeclaration{Positioner: param.Key.Range, Name: name})
			continue
		}
		t := a.freshVar()
		if param.Default != nil {
			a.unify(param.Default, t, a.expr(env, param.Default))
		}
		a.record(param, t)
		scope.Set(name, types.Mono(t))

		p := types.Parameter{Name: name, Typ: t, Required: param.Default == nil}
		if param.Pipe {
			if pipe != nil {
				a.fail(fqlerr.NewInvalidType{Positioner: param.Range, Message: "only one pipe parameter is allowed"})
			}
			pipe = &p
			continue
		}
		positional = append(positional, p)
	}

	var retn types.MonoType
	switch body := fn.Body.(type) {
	case *ast.Block:
		retn = a.block(scope, body)
	case ast.Expr:
		retn = a.expr(scope, body)
	default:
		retn = a.freshVar()
	}
	return types.NewFunction(positional, nil, pipe, retn)
}

// block returns the type of the return statement a function block ends in
func (a *analyzer) block(env *Env, b *ast.Block) types.MonoType {
	scope := NewEnv(env)
	retn := a.freshVar()
	for _, stmt := range b.Body {
		switch stmt := stmt.(type) {
		case *ast.VariableAssignment:
			a.assign(scope, scope, stmt)
		case *ast.ExpressionStatement:
			a.expr(scope, stmt.Expression)
		case *ast.ReturnStatement:
			a.unify(stmt.Argument, retn, a.expr(scope, stmt.Argument))
		case *ast.BuiltinStatement:
			a.fail(fqlerr.NewInvalidType{Positioner: stmt.Range, Message: "builtin " + stmt.ID.Name + " must be declared at the top level"})
		}
	}
	if len(b.Body) == 0 {
		a.fail(fqlerr.NewMissingReturn{Positioner: b.Range})
		return retn
	}
	if _, ok := b.Body[len(b.Body)-1].(*ast.ReturnStatement); !ok {
		a.fail(fqlerr.NewMissingReturn{Positioner: b.Range})
	}
	return retn
}
