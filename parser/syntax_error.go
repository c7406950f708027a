package parser

import (
	"fmt"
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
)

// bailout is raised (as a panic) to abandon the current statement after a syntax error
type bailout struct{}

func (p *parser) errorAt(at ast.Positioner, hint string, format string, args ...any) {
	p.errs = p.errs.With(fqlerr.New(fqlerr.NewParse{
		Positioner:    ast.RangeOf(at),
		ParserMessage: fmt.Sprintf(format, args...),
		Hint:          hint,
	}))
}

// fail records a syntax error at the current token and abandons the statement
func (p *parser) fail(format string, args ...any) {
	p.errorAt(p.rangeOf(p.peek()), "", format, args...)
	panic(bailout{})
}

func (p *parser) unexpected(expected string) {
	p.fail("expected %s but found %s", expected, p.peek())
}
