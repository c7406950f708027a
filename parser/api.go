package parser

import (
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"github.com/cottand/fql/internal/log"
	"go/token"
)

// Parse parses src as the file fileName, registering it in fset so that
// positions in the returned AST and errors can be resolved.
//
// A file is returned even when there are syntax errors: statements which
// failed to parse are left out of it.
func Parse(fset *token.FileSet, fileName, src string) (*ast.File, *fqlerr.Errors) {
	// one extra byte so that the end of file is a position of its own, on a
	// new line when src ends with a newline
	file := fset.AddFile(fileName, -1, len(src)+1)
	file.SetLinesForContent([]byte(src))
	if len(src) > 0 && src[len(src)-1] == '\n' {
		file.AddLine(len(src))
	}

	toks, lexErrs := lex(file, src)
	p := &parser{
		file:   file,
		toks:   toks,
		logger: log.DefaultLogger.With("section", "parser"),
	}
	for _, e := range lexErrs {
		p.errorAt(ast.Range{PosStart: e.pos, PosEnd: e.pos}, "", "%s", e.msg)
	}

	f := p.parseFile(fileName)
	f.Source = src
	p.logger.Debug("parsed file", "file", fileName, "statements", len(f.Body), "errors", len(p.errs.Errors()))
	return f, p.errs
}
