package semantic

import (
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/types"
	"log/slog"
)

// CallSite is a call found while analyzing a package, with the type the call
// expects its callee to have: one parameter per argument, and the call's result
type CallSite struct {
	Call *ast.CallExpression
	Type *types.Function
}

func (c CallSite) String() string {
	return ast.ExprString(c.Call) + " : " + c.Type.String()
}

// Package is the semantic graph of an analyzed ast.Package: the type of its
// expressions and bindings, and the calls it makes
type Package struct {
	Path string
	Name string
	AST  *ast.Package

	exports *Exports
	types   map[ast.Node]types.MonoType
	calls   []CallSite
}

func newPackage(pkg *ast.Package) *Package {
	return &Package{
		Path:    pkg.Path,
		Name:    pkg.Package,
		AST:     pkg,
		exports: NewExports(),
		types:   make(map[ast.Node]types.MonoType),
	}
}

// TypeOf returns the type inferred for an expression, identifier or function parameter of the package
func (p *Package) TypeOf(n ast.Node) (types.MonoType, bool) {
	t, ok := p.types[n]
	return t, ok
}

// SchemeOf returns the type scheme of a top-level binding
func (p *Package) SchemeOf(name string) (types.PolyType, bool) {
	return p.exports.Lookup(name)
}

// CallSites returns the calls of the package, in the order they were analyzed
func (p *Package) CallSites() []CallSite {
	return p.calls
}

func (p *Package) Exports() *Exports {
	return p.exports
}

// finish resolves every recorded type with the final substitution
func (p *Package) finish(sub types.Substitution) {
	for n, t := range p.types {
		p.types[n] = types.Apply(sub, t)
	}
	for i, c := range p.calls {
		if fn, ok := types.Apply(sub, c.Type).(*types.Function); ok {
			p.calls[i].Type = fn
		}
	}
}

func (p *Package) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", p.Path),
		slog.Int("exports", p.exports.Len()),
		slog.Int("calls", len(p.calls)),
	)
}
