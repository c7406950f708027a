// Package fql checks programs given as source text, with the embedded prelude in scope
package fql

import (
	"github.com/cottand/fql/frontend/graph"
	"github.com/cottand/fql/frontend/semantic"
	"github.com/cottand/fql/frontend/types/wire"
	"github.com/pkg/errors"
	"path"
)

// ProgramPackage is the package path programs checked by CheckProgram get
const ProgramPackage = "main"

// CheckProgram analyzes src as the only file of a package. It returns the
// exports of the program, or the diagnostics found in it.
func CheckProgram(fileName, src string, settings graph.Settings) (*semantic.Exports, error) {
	db, err := graph.New(settings)
	if err != nil {
		return nil, errors.Wrap(err, "could not create database")
	}
	db.SetSource(path.Join(ProgramPackage, fileName), src)
	exports, _, err := db.SemanticPackage(ProgramPackage)
	return exports, err
}

// Bindings returns the exports of x as a type environment, sorted by name
func Bindings(x *semantic.Exports) []wire.Binding {
	bindings := make([]wire.Binding, 0, x.Len())
	for name, t := range x.All() {
		bindings = append(bindings, wire.Binding{Name: name, Type: t})
	}
	return bindings
}

// DisplayTypes renders every export of x, one per line
func DisplayTypes(x *semantic.Exports) string {
	return wire.String(Bindings(x))
}
