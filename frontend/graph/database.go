// Package graph compiles packages on demand, caching every result until the
// sources it was computed from change.
//
// Packages are identified by the directory of their files, and import each
// other through the semantic.Importer the Database hands to the analyzer.
// An import cycle does not recurse forever: the package which closes the cycle
// gets an ImportCycle error instead.
package graph

import (
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/frontend/semantic"
	"github.com/cottand/fql/internal/log"
	"github.com/cottand/fql/internal/memo"
	"github.com/cottand/fql/parser"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"go/token"
	"io/fs"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
)

var logger = log.DefaultLogger.With("section", "graph")

const (
	sourceInput       = "source:"
	packageFilesInput = "package-files:"

	astQueryName      = "ast_package"
	semanticQueryName = "semantic_package"
	preludeQueryName  = "prelude"
)

type semanticResult struct {
	exports *semantic.Exports
	pkg     *semantic.Package
}

// Database holds the sources of every known file, and the packages compiled from them
type Database struct {
	settings Settings
	config   semantic.Config
	engine   *memo.Engine
	logger   *slog.Logger

	astQuery      *memo.Query[*ast.Package]
	semanticQuery *memo.Query[*semanticResult]
	preludeQuery  *memo.Query[*semantic.Exports]

	knownMu sync.Mutex
	known   *set.Set[string]
	files   *set.Set[string]

	// registry holds the last error of every package that failed, by path
	registryMu sync.Mutex
	registry   map[string]error
}

type options struct {
	embeddedPrelude bool
	sources         []fs.FS
}

type Option func(*options)

// WithSources loads every .fql file of fsys into the Database
func WithSources(fsys fs.FS) Option {
	return func(o *options) {
		o.sources = append(o.sources, fsys)
	}
}

// WithoutEmbeddedPrelude does not load the sources of the prelude shipped with
// this package, for hosts which provide their own
func WithoutEmbeddedPrelude() Option {
	return func(o *options) {
		o.embeddedPrelude = false
	}
}

func New(settings Settings, opts ...Option) (*Database, error) {
	o := options{embeddedPrelude: true}
	for _, opt := range opts {
		opt(&o)
	}
	db := &Database{
		settings: settings,
		config:   settings.semanticConfig(),
		engine:   memo.NewEngine(),
		logger:   logger,
		known:    set.New[string](0),
		files:    set.New[string](0),
		registry: make(map[string]error),
	}
	db.astQuery = &memo.Query[*ast.Package]{
		Name:    astQueryName,
		Compute: db.computeAST,
	}
	db.semanticQuery = &memo.Query[*semanticResult]{
		Name:    semanticQueryName,
		Compute: db.computeSemantic,
		Recover: recoverSemantic,
	}
	db.preludeQuery = &memo.Query[*semantic.Exports]{
		Name:    preludeQueryName,
		Compute: db.computePrelude,
		Recover: recoverPrelude,
	}

	if o.embeddedPrelude {
		if err := db.LoadFS(embeddedPrelude()); err != nil {
			return nil, errors.Wrap(err, "load embedded prelude")
		}
	}
	for _, fsys := range o.sources {
		if err := db.LoadFS(fsys); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// LoadFS sets the source of every .fql file of fsys, named by its path in fsys
func (db *Database) LoadFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".fql" {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return errors.Wrapf(err, "read %s", p)
		}
		db.SetSource(p, string(content))
		return nil
	})
}

// SetSource sets the text of file, which belongs to the package named after
// its directory. It reports whether the text changed.
func (db *Database) SetSource(file, text string) bool {
	changed := db.engine.SetInput(sourceInput+file, text)
	pkgPath := path.Dir(file)

	db.knownMu.Lock()
	defer db.knownMu.Unlock()
	db.known.Insert(pkgPath)
	if db.files.Insert(file) {
		db.engine.SetInput(packageFilesInput+pkgPath, strings.Join(db.packageFiles(pkgPath), "\n"))
	}
	if changed {
		db.logger.Debug("source changed", "file", file, "package", pkgPath)
	}
	return changed
}

// HasPackage reports whether some file of the package at path was set
func (db *Database) HasPackage(path string) bool {
	db.knownMu.Lock()
	defer db.knownMu.Unlock()
	return db.known.Contains(path)
}

// Packages returns the path of every known package, sorted
func (db *Database) Packages() []string {
	db.knownMu.Lock()
	defer db.knownMu.Unlock()
	return slices.Sorted(db.known.Items())
}

// PackageFiles returns the files directly in the directory of the package at
// pkgPath, sorted. Files of nested directories belong to other packages.
func (db *Database) PackageFiles(pkgPath string) []string {
	db.knownMu.Lock()
	defer db.knownMu.Unlock()
	return db.packageFiles(pkgPath)
}

func (db *Database) packageFiles(pkgPath string) []string {
	var files []string
	for f := range db.files.Items() {
		if path.Dir(f) == pkgPath {
			files = append(files, f)
		}
	}
	slices.Sort(files)
	return files
}

// ASTPackage parses the files of the package at path
func (db *Database) ASTPackage(path string) (*ast.Package, error) {
	return memo.Get(db.engine, db.astQuery, path)
}

// SemanticPackage analyzes the package at path. When the package has errors
// the exports and semantic graph may still be returned, alongside either a
// *fqlerr.PackageErrors or an *ImportCycle.
func (db *Database) SemanticPackage(path string) (*semantic.Exports, *semantic.Package, error) {
	res, err := memo.Get(db.engine, db.semanticQuery, path)
	db.register(path, err)
	if res == nil {
		return nil, nil, err
	}
	return res.exports, res.pkg, err
}

// PackageExports is the view of SemanticPackage importers get: the errors of the
// package are kept in the registry (see Errors), and the caller only sees ErrImport.
func (db *Database) PackageExports(path string) (*semantic.Exports, error) {
	res, err := memo.Get(db.engine, db.semanticQuery, path)
	return db.importView(path, res, err)
}

// Prelude returns the exports of every bootstrap package, which are in scope
// in every other package. Later packages shadow the exports of earlier ones.
func (db *Database) Prelude() (*semantic.Exports, error) {
	return memo.Get(db.engine, db.preludeQuery, "")
}

// exportsIn is PackageExports for queries which are already running
func (db *Database) exportsIn(c *memo.Ctx, path string) (*semantic.Exports, error) {
	res, err := memo.Fetch(c, db.semanticQuery, path)
	return db.importView(path, res, err)
}

func (db *Database) importView(path string, res *semanticResult, err error) (*semantic.Exports, error) {
	db.register(path, err)
	if err != nil {
		return nil, errors.WithStack(ErrImport)
	}
	return res.exports, nil
}

func (db *Database) register(path string, err error) {
	db.registryMu.Lock()
	defer db.registryMu.Unlock()
	if err == nil {
		if _, ok := db.registry[path]; ok {
			delete(db.registry, path)
			db.logger.Debug("package fixed", "path", path)
		}
		return
	}
	db.registry[path] = err
	db.logger.Debug("package failed", "path", path, "err", err)
}

// Errors returns the errors of every package which failed the last time it was
// compiled, sorted by path
func (db *Database) Errors() []PackageError {
	db.registryMu.Lock()
	defer db.registryMu.Unlock()
	errs := make([]PackageError, 0, len(db.registry))
	for _, p := range slices.Sorted(maps.Keys(db.registry)) {
		errs = append(errs, PackageError{Path: p, Err: db.registry[p]})
	}
	return errs
}

func (db *Database) computeAST(c *memo.Ctx, pkgPath string) (*ast.Package, error) {
	list, _ := c.Input(packageFilesInput + pkgPath)
	if list == "" {
		return nil, errors.Wrap(ErrPackageNotFound, pkgPath)
	}

	fset := token.NewFileSet()
	pkg := &ast.Package{Path: pkgPath, Fset: fset}
	var fileErrs []*fqlerr.FileErrors
	names := make(map[string][]string)
	for _, file := range strings.Split(list, "\n") {
		src, _ := c.Input(sourceInput + file)
		f, errs := parser.Parse(fset, file, src)
		if errs.HasError() {
			fileErrs = append(fileErrs, db.fileErrors(f, fset, errs))
		}
		pkg.Files = append(pkg.Files, f)
		names[f.PackageName()] = append(names[f.PackageName()], file)
	}

	if len(names) > 1 {
		sorted := slices.Sorted(maps.Keys(names))
		var files []string
		for _, name := range sorted {
			files = append(files, names[name]...)
		}
		first := pkg.Files[0]
		var at ast.Positioner = first.Range
		if first.Package != nil {
			at = first.Package.Range
		}
		errs := (*fqlerr.Errors)(nil).With(fqlerr.New(fqlerr.NewManyPackageNamesInPackage{
			Positioner: at,
			Path:       pkgPath,
			Names:      sorted,
			Files:      files,
		}))
		fileErrs = append(fileErrs, db.fileErrors(first, fset, errs))
	} else {
		pkg.Package = pkg.Files[0].PackageName()
	}

	if len(fileErrs) > 0 {
		return pkg, &fqlerr.PackageErrors{Path: pkgPath, Files: fileErrs}
	}
	return pkg, nil
}

func (db *Database) fileErrors(f *ast.File, fset *token.FileSet, errs *fqlerr.Errors) *fqlerr.FileErrors {
	return &fqlerr.FileErrors{
		File:   f.Name,
		Source: f.Source,
		Fset:   fset,
		Errors: errs,
		Pretty: db.settings.PrettyErrors,
	}
}

func (db *Database) computeSemantic(c *memo.Ctx, pkgPath string) (*semanticResult, error) {
	pkg, err := memo.Fetch(c, db.astQuery, pkgPath)
	if err != nil {
		return nil, err
	}
	env, err := db.environment(c, pkgPath)
	if err != nil {
		return nil, err
	}
	exports, semPkg, err := semantic.Analyze(env, &importer{db: db, ctx: c}, db.config, pkg)
	db.logger.Debug("analyzed package", "path", pkgPath, "exports", exports.Len(), "err", err)
	return &semanticResult{exports: exports, pkg: semPkg}, err
}

// environment returns what is in scope in the package at pkgPath before it
// declares anything: nothing for the internal prelude, the bootstrap packages
// before it for a prelude package, and the whole prelude for everything else.
func (db *Database) environment(c *memo.Ctx, pkgPath string) (*semantic.Env, error) {
	bootstrap := db.settings.bootstrap()
	idx := slices.Index(bootstrap, pkgPath)
	switch {
	case idx >= 0 && idx < len(db.settings.InternalPrelude):
		return nil, nil
	case idx >= 0:
		exports := make([]*semantic.Exports, 0, idx)
		for _, p := range bootstrap[:idx] {
			x, err := db.exportsIn(c, p)
			if err != nil {
				return nil, errors.Wrapf(err, "prelude package %s", p)
			}
			exports = append(exports, x)
		}
		return semantic.NewEnvFromExports(exports...), nil
	case db.settings.DisablePrelude:
		return nil, nil
	}
	prelude, err := memo.Fetch(c, db.preludeQuery, "")
	if err != nil {
		return nil, err
	}
	return semantic.NewEnvFromExports(prelude), nil
}

func (db *Database) computePrelude(c *memo.Ctx, _ string) (*semantic.Exports, error) {
	prelude := semantic.NewExports()
	for _, p := range db.settings.bootstrap() {
		x, err := db.exportsIn(c, p)
		if err != nil {
			return nil, errors.Wrapf(err, "prelude package %s", p)
		}
		for name, t := range x.All() {
			prelude = prelude.Set(name, t)
		}
	}
	return prelude, nil
}

// recoverSemantic is called when pkgPath imports itself, with the packages in
// between somewhere in cycle
func recoverSemantic(pkgPath string, cycle []memo.Key) (*semanticResult, error) {
	return nil, &ImportCycle{Package: pkgPath, Cycle: packagesOf(cycle, pkgPath)}
}

func recoverPrelude(_ string, cycle []memo.Key) (*semantic.Exports, error) {
	return nil, &ImportCycle{Package: preludeQueryName, Cycle: packagesOf(cycle, "")}
}

// packagesOf returns the packages analyzed along cycle, leaving out except
func packagesOf(cycle []memo.Key, except string) []string {
	var pkgs []string
	for _, k := range cycle {
		if k.Query == semanticQueryName && k.Arg != except {
			pkgs = append(pkgs, k.Arg)
		}
	}
	return pkgs
}
