package graph

import (
	"github.com/cottand/fql/frontend/semantic"
	"github.com/cottand/fql/frontend/types"
	"github.com/cottand/fql/internal/memo"
)

// importer resolves the imports of the package being computed in ctx, so that
// the packages it imports become dependencies of it
type importer struct {
	db  *Database
	ctx *memo.Ctx
}

func (i *importer) Import(path string) (types.PolyType, error) {
	x, err := i.db.exportsIn(i.ctx, path)
	if err != nil {
		return types.PolyType{}, err
	}
	return x.Type(), nil
}

func (i *importer) Symbol(path, name string) (semantic.Symbol, bool) {
	x, err := i.db.exportsIn(i.ctx, path)
	if err != nil {
		return semantic.Symbol{}, false
	}
	t, ok := x.Lookup(name)
	if !ok {
		return semantic.Symbol{}, false
	}
	return semantic.Symbol{Package: path, Name: name, Type: t}, true
}
