package semantic

import (
	"cmp"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/fql/frontend/types"
	"github.com/hashicorp/go-set/v3"
	"iter"
)

// FeatureOperatorConstraints makes arithmetic and comparison operators record
// the kind they need on operands which are still unresolved type variables,
// instead of only checking operands whose type is known.
const FeatureOperatorConstraints = "operatorConstraints"

// Config toggles analyzer behaviour
type Config struct {
	// Features are language feature flags, by name
	Features map[string]bool
	// PrettyErrors renders diagnostics with the source line they point to
	PrettyErrors bool
}

func (c Config) Enabled(feature string) bool {
	return c.Features[feature]
}

// Symbol is a binding exported by a package
type Symbol struct {
	Package string
	Name    string
	Type    types.PolyType
}

func (s Symbol) String() string {
	return s.Package + "." + s.Name + " : " + s.Type.String()
}

// Importer resolves the imports of the package being analyzed
type Importer interface {
	// Import returns the type of the package at path: a record with a field per export
	Import(path string) (types.PolyType, error)
	// Symbol returns a single export of the package at path
	Symbol(path, name string) (Symbol, bool)
}

type nameComparer struct{}

func (nameComparer) Compare(a, b string) int { return cmp.Compare(a, b) }

func newBindings() *immutable.SortedMap[string, types.PolyType] {
	return immutable.NewSortedMap[string, types.PolyType](nameComparer{})
}

// Env is a scope of type bindings. Names not bound in a scope are looked up in its parent.
type Env struct {
	parent   *Env
	bindings *immutable.SortedMap[string, types.PolyType]
}

// NewEnv returns an empty scope nested in parent, which may be nil
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, bindings: newBindings()}
}

// NewEnvFromExports returns a scope binding the exports of every package, in
// order, so that later packages shadow earlier ones
func NewEnvFromExports(exports ...*Exports) *Env {
	env := NewEnv(nil)
	for _, x := range exports {
		for name, t := range x.All() {
			env.Set(name, t)
		}
	}
	return env
}

func (e *Env) Set(name string, t types.PolyType) {
	e.bindings = e.bindings.Set(name, t)
}

func (e *Env) Lookup(name string) (types.PolyType, bool) {
	t, _, ok := e.lookup(name)
	return t, ok
}

// lookup also returns the scope which binds name
func (e *Env) lookup(name string) (types.PolyType, *Env, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if t, ok := scope.bindings.Get(name); ok {
			return t, scope, true
		}
	}
	return types.PolyType{}, nil, false
}

// defines reports whether name is bound in this scope, ignoring parents
func (e *Env) defines(name string) bool {
	_, ok := e.bindings.Get(name)
	return ok
}

// freeVars returns the variables free in the bindings of e and its parents, once sub is applied
func (e *Env) freeVars(sub types.Substitution) *set.TreeSet[types.Tvar] {
	free := set.NewTreeSet[types.Tvar](cmp.Compare[types.Tvar])
	for scope := e; scope != nil; scope = scope.parent {
		itr := scope.bindings.Iterator()
		for !itr.Done() {
			_, t, _ := itr.Next()
			free.InsertSet(types.FreeVarsPoly(types.ApplyPoly(sub, t)))
		}
	}
	return free
}

// Exports are the top-level bindings of a package, sorted by name.
// Exports are immutable: Set returns a new value.
type Exports struct {
	bindings *immutable.SortedMap[string, types.PolyType]
}

func NewExports() *Exports {
	return &Exports{bindings: newBindings()}
}

func (x *Exports) Set(name string, t types.PolyType) *Exports {
	return &Exports{bindings: x.bindings.Set(name, t)}
}

func (x *Exports) Lookup(name string) (types.PolyType, bool) {
	if x == nil {
		return types.PolyType{}, false
	}
	return x.bindings.Get(name)
}

func (x *Exports) Len() int {
	if x == nil {
		return 0
	}
	return x.bindings.Len()
}

// All iterates over the exports sorted by name
func (x *Exports) All() iter.Seq2[string, types.PolyType] {
	return func(yield func(string, types.PolyType) bool) {
		if x == nil {
			return
		}
		itr := x.bindings.Iterator()
		for !itr.Done() {
			name, t, _ := itr.Next()
			if !yield(name, t) {
				return
			}
		}
	}
}

// Type is the record a package is seen as when it is imported: a field per export.
// The variables of different exports are kept apart, so that instantiating the
// record instantiates each export independently.
func (x *Exports) Type() types.PolyType {
	f := types.NewFresher()
	var (
		props []types.Property
		vars  []types.Tvar
	)
	cons := make(types.KindConstraints)
	for name, t := range x.All() {
		fresh := t.Fresh(f, types.Renames{})
		props = append(props, types.Property{Label: name, Type: fresh.Expr})
		vars = append(vars, fresh.Vars...)
		for tv, kinds := range fresh.Cons {
			for _, k := range kinds {
				cons.Add(tv, k)
			}
		}
	}
	return types.PolyType{Vars: vars, Cons: cons, Expr: types.NewRecord(props, nil)}
}
