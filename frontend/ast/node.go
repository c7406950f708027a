package ast

import (
	"encoding/binary"
	"go/token"
	"hash/fnv"
	"reflect"
)

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
	// Hash is a structural hash of the node, its children and their positions
	Hash() uint64
}

// Expr is the interface for all expression nodes in the AST.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for all statement nodes in the AST.
type Stmt interface {
	Node
	stmtNode()
}

// hasher accumulates the structure of a node into a single hash
type hasher struct {
	arr []byte
}

func newHasher(name string, r Range) *hasher {
	h := &hasher{arr: []byte(name)}
	h.arr = binary.LittleEndian.AppendUint64(h.arr, r.Hash())
	return h
}

func (h *hasher) str(s string) *hasher {
	h.arr = binary.LittleEndian.AppendUint64(h.arr, uint64(len(s)))
	h.arr = append(h.arr, s...)
	return h
}

func (h *hasher) num(n uint64) *hasher {
	h.arr = binary.LittleEndian.AppendUint64(h.arr, n)
	return h
}

// node hashes n, which may be nil
func (h *hasher) node(n Node) *hasher {
	if n == nil || isNilNode(n) {
		h.arr = append(h.arr, 0)
		return h
	}
	return h.num(n.Hash())
}

func (h *hasher) sum() uint64 {
	fnvHash := fnv.New64a()
	_, _ = fnvHash.Write(h.arr)
	return fnvHash.Sum64()
}

// isNilNode catches typed nil pointers stored in a Node
func isNilNode(n Node) bool {
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// File is a parsed source file
type File struct {
	Range
	// Name is the name the file was parsed with, usually its path
	Name    string
	Package *PackageClause // nil when the file has no package clause
	Imports []*ImportDeclaration
	Body    []Stmt
	// Source is the text the file was parsed from
	Source string
}

// DefaultPackageName is the package of files without a package clause
const DefaultPackageName = "main"

// PackageName returns the name of the package f declares
func (f *File) PackageName() string {
	if f.Package == nil {
		return DefaultPackageName
	}
	return f.Package.Name.Name
}

func (f *File) Hash() uint64 {
	h := newHasher("File", f.Range).str(f.Name)
	if f.Package != nil {
		h.node(f.Package)
	}
	for _, imp := range f.Imports {
		h.node(imp)
	}
	for _, stmt := range f.Body {
		h.node(stmt)
	}
	return h.sum()
}

type PackageClause struct {
	Range
	Name *Identifier
}

func (p *PackageClause) Hash() uint64 {
	return newHasher("PackageClause", p.Range).node(p.Name).sum()
}

// ImportDeclaration is `import "path"` or `import alias "path"`
type ImportDeclaration struct {
	Range
	As   *Identifier // nil when there is no alias
	Path *StringLiteral
}

// Name is the identifier the import is bound to: the alias if there is one,
// or else the last element of the path
func (i *ImportDeclaration) Name() string {
	if i.As != nil {
		return i.As.Name
	}
	path := i.Path.Value
	for j := len(path) - 1; j >= 0; j-- {
		if path[j] == '/' {
			return path[j+1:]
		}
	}
	return path
}

func (i *ImportDeclaration) Hash() uint64 {
	return newHasher("ImportDeclaration", i.Range).node(i.As).node(i.Path).sum()
}

// Package groups the files of a package, which all declare the same package name
type Package struct {
	// Path is the import path of the package, like "universe" or "foo/bar"
	Path    string
	Package string
	Files   []*File
	// Fset resolves the positions of the nodes of Files
	Fset *token.FileSet
}

func (p *Package) Pos() token.Pos {
	if len(p.Files) == 0 {
		return token.NoPos
	}
	return p.Files[0].Pos()
}

func (p *Package) End() token.Pos {
	if len(p.Files) == 0 {
		return token.NoPos
	}
	return p.Files[len(p.Files)-1].End()
}

func (p *Package) Hash() uint64 {
	h := newHasher("Package", Range{}).str(p.Path).str(p.Package)
	for _, f := range p.Files {
		h.node(f)
	}
	return h.sum()
}
