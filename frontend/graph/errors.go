package graph

import (
	"fmt"
	"github.com/pkg/errors"
	"strings"
)

// ErrImport is what importers see when a package they import failed.
// The reason it failed is kept in the registry of the Database.
var ErrImport = errors.New("invalid import path")

// ErrPackageNotFound is returned for packages without any source file
var ErrPackageNotFound = errors.New("package not found")

// ImportCycle is the result of a package which imports itself, directly or not.
// Cycle lists the other packages of the cycle, in import order.
type ImportCycle struct {
	Package string
	Cycle   []string
}

func (e *ImportCycle) Error() string {
	if len(e.Cycle) == 0 {
		return fmt.Sprintf("package %s imports itself", e.Package)
	}
	return fmt.Sprintf("import cycle: %s -> %s -> %s", e.Package, strings.Join(e.Cycle, " -> "), e.Package)
}

// PackageError is an entry of the error registry of a Database
type PackageError struct {
	Path string
	Err  error
}

func (e PackageError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e PackageError) Unwrap() error {
	return e.Err
}
