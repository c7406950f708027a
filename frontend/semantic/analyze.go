package semantic

import (
	"errors"
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/frontend/types"
	"github.com/cottand/fql/internal/log"
	"log/slog"
)

var logger = log.DefaultLogger.With("section", "semantic")

// Analyze infers the types of pkg, where env holds the bindings visible to
// every file (the prelude) and may be nil.
//
// The exports and semantic graph are returned even when the package has
// errors, in which case error is a *fqlerr.PackageErrors with the diagnostics
// of each offending file.
func Analyze(env *Env, importer Importer, cfg Config, pkg *ast.Package) (*Exports, *Package, error) {
	a := &analyzer{
		cfg:      cfg,
		importer: importer,
		fresher:  types.NewFresher(),
		cons:     make(types.KindConstraints),
		pkgEnv:   NewEnv(env),
		result:   newPackage(pkg),
		logger:   logger.With("package", pkg.Path),
	}

	var fileErrs []*fqlerr.FileErrors
	for _, f := range pkg.Files {
		errs := a.file(f)
		if errs.HasError() {
			fileErrs = append(fileErrs, &fqlerr.FileErrors{
				File:   f.Name,
				Source: f.Source,
				Fset:   pkg.Fset,
				Errors: errs,
				Pretty: cfg.PrettyErrors,
			})
		}
	}
	a.result.finish(a.sub)
	a.logger.Debug("analyzed package", "result", a.result, "files with errors", len(fileErrs))

	if len(fileErrs) > 0 {
		return a.result.exports, a.result, &fqlerr.PackageErrors{Path: pkg.Path, Files: fileErrs}
	}
	return a.result.exports, a.result, nil
}

type analyzer struct {
	cfg      Config
	importer Importer
	fresher  *types.Fresher
	sub      types.Substitution
	cons     types.KindConstraints
	// pkgEnv holds the top-level bindings of the package, shared by its files
	pkgEnv *Env
	result *Package
	logger *slog.Logger

	// state of the file being analyzed
	errs    *fqlerr.Errors
	fileEnv *Env
	imports map[string]string
}

func (a *analyzer) fail(err fqlerr.FqlError) {
	a.errs = a.errs.With(fqlerr.New(err))
}

func (a *analyzer) file(f *ast.File) *fqlerr.Errors {
	a.errs = nil
	a.fileEnv = NewEnv(a.pkgEnv)
	a.imports = make(map[string]string)

	for _, imp := range f.Imports {
		a.importDeclaration(imp)
	}
	for _, stmt := range f.Body {
		switch stmt := stmt.(type) {
		case *ast.VariableAssignment:
			if scheme, ok := a.assign(a.pkgEnv, a.fileEnv, stmt); ok {
				a.result.exports = a.result.exports.Set(stmt.ID.Name, scheme)
			}
		case *ast.BuiltinStatement:
			a.builtin(stmt)
		case *ast.ExpressionStatement:
			a.expr(a.fileEnv, stmt.Expression)
		case *ast.ReturnStatement:
			a.fail(fqlerr.NewReturnOutsideFunction{Positioner: stmt.Range})
		}
	}
	return a.errs
}

func (a *analyzer) importDeclaration(imp *ast.ImportDeclaration) {
	name, path := imp.Name(), imp.Path.Value
	if a.fileEnv.defines(name) {
		a.fail(fqlerr.NewDuplicateDeclaration{Positioner: imp.Range, Name: name})
		return
	}
	t, err := a.importer.Import(path)
	if err != nil {
		a.fail(fqlerr.NewImportFailed{Positioner: imp.Range, Path: path, Err: err})
		// uses of the package should not be reported again
		tv := a.fresher.Fresh()
		a.fileEnv.Set(name, types.PolyType{Vars: []types.Tvar{tv}, Expr: types.Var(tv)})
		return
	}
	a.fileEnv.Set(name, t)
	a.imports[name] = path
}

// importPath returns the path of the package name refers to in env, if it refers to one
func (a *analyzer) importPath(env *Env, name string) (string, bool) {
	_, scope, ok := env.lookup(name)
	if !ok || scope != a.fileEnv {
		return "", false
	}
	path, ok := a.imports[name]
	return path, ok
}

func (a *analyzer) builtin(stmt *ast.BuiltinStatement) {
	name := stmt.ID.Name
	if a.pkgEnv.defines(name) {
		a.fail(fqlerr.NewDuplicateDeclaration{Positioner: stmt.ID.Range, Name: name})
		return
	}
	scheme := a.typeExpression(stmt.Ty)
	a.pkgEnv.Set(name, scheme)
	a.result.exports = a.result.exports.Set(name, scheme)
}

// assign binds stmt in scope, generalizing the type of its value. The value is
// analyzed in env, which is scope or a scope nested in it.
func (a *analyzer) assign(scope, env *Env, stmt *ast.VariableAssignment) (types.PolyType, bool) {
	name := stmt.ID.Name
	if scope.defines(name) {
		a.fail(fqlerr.NewDuplicateDeclaration{Positioner: stmt.ID.Range, Name: name})
		return types.PolyType{}, false
	}
	t := a.expr(env, stmt.Init)
	a.record(stmt.ID, t)
	scheme := types.Generalize(env.freeVars(a.sub), a.cons, types.Apply(a.sub, t))
	scope.Set(name, scheme)
	a.logger.Debug("bound", "name", name, "type", scheme)
	return scheme, true
}

func (a *analyzer) record(n ast.Node, t types.MonoType) {
	a.result.types[n] = t
}

func (a *analyzer) freshVar() types.MonoType {
	return types.Var(a.fresher.Fresh())
}

func (a *analyzer) instantiate(p types.PolyType) types.MonoType {
	t, cons := types.Instantiate(p, a.fresher)
	for tv, kinds := range cons {
		for _, k := range kinds {
			a.cons.Add(tv, k)
		}
	}
	return t
}

// unify reports a mismatch at n when expected and actual do not unify
func (a *analyzer) unify(n ast.Positioner, expected, actual types.MonoType) bool {
	sub, err := types.Unify(types.Apply(a.sub, expected), types.Apply(a.sub, actual), a.cons, a.fresher)
	if err != nil {
		a.typeError(n, err)
		return false
	}
	a.sub = types.Merge(a.sub, sub)
	return true
}

func (a *analyzer) constrain(n ast.Positioner, t types.MonoType, k types.Kind) bool {
	sub, err := types.Constrain(types.Apply(a.sub, t), k, a.cons)
	if err != nil {
		a.typeError(n, err)
		return false
	}
	a.sub = types.Merge(a.sub, sub)
	return true
}

func (a *analyzer) typeError(n ast.Positioner, err error) {
	var typeErr *types.TypeError
	if errors.As(err, &typeErr) {
		a.fail(fqlerr.NewTypeMismatch{Positioner: ast.RangeOf(n), Err: typeErr})
		return
	}
	a.fail(fqlerr.Unclassified{Positioner: ast.RangeOf(n), From: err})
}
