package graph_test

import (
	"errors"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/frontend/graph"
	"github.com/cottand/fql/frontend/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"testing/fstest"
)

var noPrelude = graph.Settings{DisablePrelude: true}

func newDB(t *testing.T, settings graph.Settings, files map[string]string) *graph.Database {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, src := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(src)}
	}
	db, err := graph.New(settings, graph.WithoutEmbeddedPrelude(), graph.WithSources(fsys))
	require.NoError(t, err)
	return db
}

func registryPaths(db *graph.Database) []string {
	var paths []string
	for _, e := range db.Errors() {
		paths = append(paths, e.Path)
	}
	return paths
}

func codesOf(t *testing.T, err error) []fqlerr.ErrCode {
	t.Helper()
	var pkgErrs *fqlerr.PackageErrors
	require.ErrorAs(t, err, &pkgErrs)
	var codes []fqlerr.ErrCode
	for _, f := range pkgErrs.Files {
		for _, e := range f.Errors.Errors() {
			codes = append(codes, e.Code())
		}
	}
	return codes
}

func scheme(t *testing.T, x *semantic.Exports, name string) string {
	t.Helper()
	s, ok := x.Lookup(name)
	require.True(t, ok, "%s is not exported", name)
	return s.String()
}

func TestImportCycle(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"a/a.fql": "import \"b\"\nx = 1",
		"b/b.fql": "import \"a\"\ny = 2",
	})

	_, _, err := db.SemanticPackage("a")
	var cycle *graph.ImportCycle
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "a", cycle.Package)
	assert.Equal(t, []string{"b"}, cycle.Cycle)
	assert.Equal(t, "import cycle: a -> b -> a", cycle.Error())

	assert.Contains(t, registryPaths(db), "a")
	for _, e := range db.Errors() {
		if e.Path == "a" {
			assert.ErrorAs(t, e.Err, &cycle)
		}
	}

	// b saw a failed import, and keeps seeing it
	_, _, err = db.SemanticPackage("b")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.ImportFailed}, codesOf(t, err))
}

func TestLongImportCycle(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"a/a.fql": `import "b"`,
		"b/b.fql": `import "c"`,
		"c/c.fql": `import "a"`,
	})
	_, _, err := db.SemanticPackage("a")
	var cycle *graph.ImportCycle
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"b", "c"}, cycle.Cycle)
}

func TestSelfImport(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"a/a.fql": `import "a"`,
	})
	_, _, err := db.SemanticPackage("a")
	var cycle *graph.ImportCycle
	require.ErrorAs(t, err, &cycle)
	assert.Empty(t, cycle.Cycle)
	assert.Equal(t, "package a imports itself", cycle.Error())
}

func TestImportBetweenPackages(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"lib/lib.fql": "package lib\nsquare = (v) => v * v\npi = 3.14",
		"app/app.fql": "import \"lib\"\nx = lib.square(v: 2)\ny = lib.pi",
	})

	exports, pkg, err := db.SemanticPackage("app")
	require.NoError(t, err)
	assert.Equal(t, "int", scheme(t, exports, "x"))
	assert.Equal(t, "float", scheme(t, exports, "y"))
	assert.Equal(t, "main", pkg.Name)

	lib, err := db.PackageExports("lib")
	require.NoError(t, err)
	assert.Equal(t, "(v: A) => A", scheme(t, lib, "square"))
	assert.Empty(t, db.Errors())
}

func TestBrokenImportIsRegistered(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"lib/lib.fql": "x = y",
		"app/app.fql": "import \"lib\"\nz = lib.x",
	})

	_, _, err := db.SemanticPackage("app")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.ImportFailed}, codesOf(t, err))
	assert.Contains(t, err.Error(), "invalid import path")
	assert.Equal(t, []string{"app", "lib"}, registryPaths(db))

	_, err = db.PackageExports("lib")
	assert.True(t, errors.Is(err, graph.ErrImport))

	_, _, err = db.SemanticPackage("lib")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.UndefinedVariable}, codesOf(t, err))
}

func TestMissingPackage(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"app/app.fql": `import "nope"`,
	})
	_, _, err := db.SemanticPackage("app")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.ImportFailed}, codesOf(t, err))

	_, err = db.ASTPackage("nope")
	assert.True(t, errors.Is(err, graph.ErrPackageNotFound))
	assert.Equal(t, []string{"app", "nope"}, registryPaths(db))
}

func TestRegistryTransitions(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"c/c.fql": "x = 1",
	})
	_, _, err := db.SemanticPackage("c")
	require.NoError(t, err)
	assert.Empty(t, db.Errors())

	db.SetSource("c/c.fql", "x = y")
	_, _, err = db.SemanticPackage("c")
	require.Error(t, err)
	assert.Equal(t, []string{"c"}, registryPaths(db))

	db.SetSource("c/c.fql", "x = 2")
	_, _, err = db.SemanticPackage("c")
	require.NoError(t, err)
	assert.Empty(t, db.Errors())
}

func TestInvalidation(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"lib/lib.fql": "v = 1",
		"app/app.fql": "import \"lib\"\nx = lib.v",
	})
	exports, _, err := db.SemanticPackage("app")
	require.NoError(t, err)
	assert.Equal(t, "int", scheme(t, exports, "x"))

	assert.False(t, db.SetSource("lib/lib.fql", "v = 1"))
	assert.True(t, db.SetSource("lib/lib.fql", `v = "s"`))

	exports, _, err = db.SemanticPackage("app")
	require.NoError(t, err)
	assert.Equal(t, "string", scheme(t, exports, "x"))
}

func TestNewFileInvalidatesPackage(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"p/a.fql": "x = 1",
	})
	exports, _, err := db.SemanticPackage("p")
	require.NoError(t, err)
	assert.Equal(t, 1, exports.Len())

	db.SetSource("p/b.fql", "y = x + 1")
	exports, _, err = db.SemanticPackage("p")
	require.NoError(t, err)
	assert.Equal(t, "int", scheme(t, exports, "y"))
}

func TestPackageNames(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"m/one.fql":  "package one\nx = 1",
		"m/two.fql":  "package two\ny = 1",
		"ok/a.fql":   "package ok\nx = 1",
		"ok/b.fql":   "package ok\ny = 1",
		"main/a.fql": "x = 1",
	})

	_, err := db.ASTPackage("m")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.ManyPackageNamesInPackage}, codesOf(t, err))
	assert.Contains(t, err.Error(), "m/one.fql, m/two.fql")

	pkg, err := db.ASTPackage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", pkg.Package)
	assert.Len(t, pkg.Files, 2)

	pkg, err = db.ASTPackage("main")
	require.NoError(t, err)
	assert.Equal(t, "main", pkg.Package)
}

func TestSyntaxErrorsFailThePackage(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"p/p.fql": "x = )",
	})
	_, _, err := db.SemanticPackage("p")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.Parse}, codesOf(t, err))
	assert.Equal(t, []string{"p"}, registryPaths(db))
}

func TestPackageFiles(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"p/a.fql":     "x = 1",
		"p/b.fql":     "y = 1",
		"p/sub/c.fql": "z = 1",
		"p/notes.txt": "not a source",
	})
	assert.Equal(t, []string{"p/a.fql", "p/b.fql"}, db.PackageFiles("p"))
	assert.Equal(t, []string{"p/sub/c.fql"}, db.PackageFiles("p/sub"))
	assert.True(t, db.HasPackage("p"))
	assert.True(t, db.HasPackage("p/sub"))
	assert.False(t, db.HasPackage("q"))
	assert.Equal(t, []string{"p", "p/sub"}, db.Packages())
}

func TestEmbeddedPrelude(t *testing.T) {
	db, err := graph.New(graph.DefaultSettings())
	require.NoError(t, err)
	db.SetSource("app/app.fql", `
x = identity(v: 1)
y = [1, 2] |> count()
z = [1, 2] |> filter(fn: (r) => r > 1)
n = length(arr: z)
`)

	exports, _, err := db.SemanticPackage("app")
	require.NoError(t, err)
	assert.Equal(t, "int", scheme(t, exports, "x"))
	assert.Equal(t, "int", scheme(t, exports, "y"))
	assert.Equal(t, "[int]", scheme(t, exports, "z"))
	assert.Equal(t, "int", scheme(t, exports, "n"))

	prelude, err := db.Prelude()
	require.NoError(t, err)
	assert.Equal(t, "(<-tables: [A]) => int", scheme(t, prelude, "count"))
	assert.Equal(t, "(arr: [A]) => int", scheme(t, prelude, "length"))
	assert.Empty(t, db.Errors())
}

func TestPreludeOrder(t *testing.T) {
	settings := graph.Settings{
		InternalPrelude: []string{"base"},
		Prelude:         []string{"first", "second"},
	}
	db := newDB(t, settings, map[string]string{
		"base/base.fql":     "builtin one : int",
		"first/first.fql":   "two = one + one",
		"second/second.fql": "three = two + one",
		"app/app.fql":       "four = three + one",
	})

	exports, _, err := db.SemanticPackage("app")
	require.NoError(t, err)
	assert.Equal(t, "int", scheme(t, exports, "four"))

	t.Run("internal prelude gets no environment", func(t *testing.T) {
		db.SetSource("base/base.fql", "builtin one : int\nx = four")
		_, _, err := db.SemanticPackage("base")
		assert.Equal(t, []fqlerr.ErrCode{fqlerr.UndefinedVariable}, codesOf(t, err))
	})
	t.Run("prelude packages only see the ones before them", func(t *testing.T) {
		db.SetSource("base/base.fql", "builtin one : int")
		db.SetSource("first/first.fql", "two = three")
		_, _, err := db.SemanticPackage("first")
		assert.Equal(t, []fqlerr.ErrCode{fqlerr.UndefinedVariable}, codesOf(t, err))
	})
}

func TestDisablePrelude(t *testing.T) {
	settings := graph.Settings{
		InternalPrelude: []string{"base"},
		DisablePrelude:  true,
	}
	db := newDB(t, settings, map[string]string{
		"base/base.fql": "builtin one : int",
		"app/app.fql":   "x = one",
	})
	_, _, err := db.SemanticPackage("app")
	assert.Equal(t, []fqlerr.ErrCode{fqlerr.UndefinedVariable}, codesOf(t, err))
}

func TestFeatures(t *testing.T) {
	settings := noPrelude
	settings.Features = []string{semantic.FeatureOperatorConstraints}
	db := newDB(t, settings, map[string]string{
		"p/p.fql": "f = (a) => a + a",
	})
	exports, _, err := db.SemanticPackage("p")
	require.NoError(t, err)
	assert.Equal(t, "(a: A) => A where A: Addable", scheme(t, exports, "f"))
}

func TestConcurrentRequests(t *testing.T) {
	db := newDB(t, noPrelude, map[string]string{
		"lib/lib.fql": "v = 1",
		"a/a.fql":     "import \"lib\"\nx = lib.v",
		"b/b.fql":     "import \"lib\"\ny = lib.v",
	})
	var wg sync.WaitGroup
	for _, p := range []string{"a", "b", "lib", "a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := db.SemanticPackage(p)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Empty(t, db.Errors())
}
