package ast

import (
	"github.com/stretchr/testify/assert"
	"go/token"
	"testing"
)

func TestPackageRange(t *testing.T) {
	empty := &Package{Path: "lib", Package: "lib"}
	assert.Equal(t, token.NoPos, empty.Pos())
	assert.Equal(t, token.NoPos, empty.End())

	pkg := &Package{
		Path:    "lib",
		Package: "lib",
		Files: []*File{
			{Range: Range{PosStart: 1, PosEnd: 20}, Name: "lib/a.fql"},
			{Range: Range{PosStart: 30, PosEnd: 45}, Name: "lib/b.fql"},
		},
	}
	assert.Equal(t, token.Pos(1), pkg.Pos())
	assert.Equal(t, token.Pos(45), pkg.End())
	assert.Equal(t, Range{PosStart: 1, PosEnd: 45}, RangeOf(pkg))
}

func TestPackageHashFollowsFiles(t *testing.T) {
	a := &Package{Path: "lib", Files: []*File{{Range: Range{PosStart: 1, PosEnd: 20}, Name: "lib/a.fql"}}}
	b := &Package{Path: "lib", Files: []*File{{Range: Range{PosStart: 1, PosEnd: 20}, Name: "lib/b.fql"}}}
	assert.Equal(t, a.Hash(), a.Hash())
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestImportName(t *testing.T) {
	imp := &ImportDeclaration{Path: &StringLiteral{Value: "foo/bar"}}
	assert.Equal(t, "bar", imp.Name())

	imp.As = &Identifier{Name: "baz"}
	assert.Equal(t, "baz", imp.Name())
}
