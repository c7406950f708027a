package semantic

import (
	"fmt"
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/frontend/types"
	"maps"
	"slices"
)

// typeLowering turns the syntax of a builtin's type into a PolyType.
// Type variables with the same name within one expression are the same variable.
type typeLowering struct {
	a     *analyzer
	tvars map[string]types.Tvar
}

func (a *analyzer) typeExpression(te *ast.TypeExpression) types.PolyType {
	l := &typeLowering{a: a, tvars: make(map[string]types.Tvar)}
	t := l.mono(te.Ty)

	cons := make(types.KindConstraints)
	for _, c := range te.Constraints {
		tv, ok := l.tvars[c.Tvar.Name]
		if !ok {
			a.fail(fqlerr.NewInvalidType{Positioner: c.Tvar.Range, Message: fmt.Sprintf("constraint on %s, which the type does not mention", c.Tvar.Name)})
			continue
		}
		for _, k := range c.Kinds {
			kind, ok := types.KindByName(k.Name)
			if !ok {
				a.fail(fqlerr.NewInvalidType{Positioner: k.Range, Message: "unknown kind " + k.Name})
				continue
			}
			cons.Add(tv, kind)
		}
	}

	vars := slices.Sorted(maps.Values(l.tvars))
	return types.PolyType{Vars: vars, Cons: cons, Expr: t}
}

func (l *typeLowering) tvar(name string) types.Tvar {
	tv, ok := l.tvars[name]
	if !ok {
		tv = l.a.fresher.Fresh()
		l.tvars[name] = tv
	}
	return tv
}

func (l *typeLowering) mono(n ast.MonoTypeNode) types.MonoType {
	switch n := n.(type) {
	case *ast.NamedType:
		if s, ok := types.ScalarByName(n.ID.Name); ok {
			return s
		}
		l.a.fail(fqlerr.NewInvalidType{Positioner: n.Range, Message: "unknown type " + n.ID.Name})
		// later mentions of the same name are not reported again
		return types.Var(l.tvar(n.ID.Name))
	case *ast.TvarType:
		return types.Var(l.tvar(n.ID.Name))
	case *ast.ArrayType:
		return types.NewArray(l.mono(n.Element))
	case *ast.DictType:
		return types.NewDictionary(l.mono(n.Key), l.mono(n.Val))
	case *ast.RecordType:
		var tail types.MonoType
		if n.Tvar != nil {
			tail = types.Var(l.tvar(n.Tvar.Name))
		}
		props := make([]types.Property, 0, len(n.Properties))
		for _, p := range n.Properties {
			props = append(props, types.Property{Label: p.Name.Name, Type: l.mono(p.Ty)})
		}
		if len(props) == 0 {
			if tail != nil {
				return tail
			}
			return types.EmptyRecord
		}
		return types.NewRecord(props, tail)
	case *ast.FunctionType:
		var (
			positional []types.Parameter
			pipe       *types.Parameter
		)
		for _, p := range n.Parameters {
			param := types.Parameter{Name: p.Name.Name, Typ: l.mono(p.Ty), Required: p.Kind != ast.Optional}
			if p.Kind == ast.Pipe {
				if pipe != nil {
					l.a.fail(fqlerr.NewInvalidType{Positioner: p.Range, Message: "only one pipe parameter is allowed"})
				}
				pipe = &param
				continue
			}
			positional = append(positional, param)
		}
		return types.NewFunction(positional, nil, pipe, l.mono(n.Return))
	}
	l.a.fail(fqlerr.NewInvalidType{Positioner: ast.RangeOf(n), Message: "unexpected type syntax"})
	return types.Var(l.a.fresher.Fresh())
}
