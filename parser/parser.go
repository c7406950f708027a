package parser

import (
	"github.com/cottand/fql/frontend/ast"
	"github.com/cottand/fql/frontend/fqlerr"
	"go/token"
	"log/slog"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type parser struct {
	file   *token.File
	toks   []lexToken
	i      int
	errs   *fqlerr.Errors
	logger *slog.Logger
}

func (p *parser) peek() lexToken { return p.toks[p.i] }

func (p *parser) peekAt(n int) lexToken {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() lexToken {
	tok := p.toks[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

func (p *parser) isPunct(text string) bool   { return p.peek().is(tokPunct, text) }
func (p *parser) isKeyword(text string) bool { return p.peek().is(tokKeyword, text) }

func (p *parser) acceptPunct(text string) bool {
	if p.isPunct(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectPunct(text string) lexToken {
	if !p.isPunct(text) {
		p.unexpected("'" + text + "'")
	}
	return p.next()
}

func (p *parser) expectKeyword(text string) lexToken {
	if !p.isKeyword(text) {
		p.unexpected("'" + text + "'")
	}
	return p.next()
}

func (p *parser) rangeOf(tok lexToken) ast.Range {
	return ast.Range{PosStart: tok.pos, PosEnd: tok.end}
}

// prevEnd is the end of the last consumed token
func (p *parser) prevEnd() token.Pos {
	if p.i == 0 {
		return p.toks[0].pos
	}
	return p.toks[p.i-1].end
}

// sameLine reports whether the next token starts on the line the last consumed token is on.
// Calls and indexing must start on the same line, so that a new statement
// starting with ( or [ is not read as a continuation of the previous one.
func (p *parser) sameLine() bool {
	return p.i > 0 && p.toks[p.i-1].line == p.peek().line
}

// recovering runs parse, and on a syntax error skips the rest of the line the
// error was found on
func (p *parser) recovering(parse func()) {
	start := p.i
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		line := p.peek().line
		for !p.atEOF() && p.peek().line == line {
			p.next()
		}
		if p.i == start {
			p.next()
		}
	}()
	parse()
}

func (p *parser) parseFile(name string) *ast.File {
	f := &ast.File{
		Name:  name,
		Range: ast.Range{PosStart: p.file.Pos(0), PosEnd: p.file.Pos(p.file.Size() - 1)},
	}
	if p.isKeyword("package") {
		p.recovering(func() {
			start := p.next()
			id := p.identifier()
			f.Package = &ast.PackageClause{Range: ast.Range{PosStart: start.pos, PosEnd: id.End()}, Name: id}
		})
	}
	for p.isKeyword("import") {
		p.recovering(func() {
			f.Imports = append(f.Imports, p.importDeclaration())
		})
	}
	for !p.atEOF() {
		p.recovering(func() {
			f.Body = append(f.Body, p.statement(true))
		})
	}
	return f
}

func (p *parser) importDeclaration() *ast.ImportDeclaration {
	start := p.expectKeyword("import")
	imp := &ast.ImportDeclaration{}
	if p.peek().kind == tokIdent {
		imp.As = p.identifier()
	}
	if p.peek().kind != tokString {
		p.unexpected("import path")
	}
	imp.Path = p.stringLiteral()
	imp.Range = ast.Range{PosStart: start.pos, PosEnd: imp.Path.End()}
	return imp
}

func (p *parser) statement(topLevel bool) ast.Stmt {
	tok := p.peek()
	switch {
	case tok.is(tokKeyword, "builtin"):
		if !topLevel {
			p.fail("builtin declarations are only allowed at the top level of a file")
		}
		p.next()
		id := p.identifier()
		p.expectPunct(":")
		ty := p.typeExpression()
		return &ast.BuiltinStatement{Range: ast.Range{PosStart: tok.pos, PosEnd: ty.End()}, ID: id, Ty: ty}
	case tok.is(tokKeyword, "return"):
		p.next()
		arg := p.expression()
		return &ast.ReturnStatement{Range: ast.Range{PosStart: tok.pos, PosEnd: arg.End()}, Argument: arg}
	case tok.kind == tokIdent && p.peekAt(1).is(tokPunct, "="):
		id := p.identifier()
		p.next()
		init := p.expression()
		return &ast.VariableAssignment{Range: ast.RangeBetween(id, init), ID: id, Init: init}
	}
	expr := p.expression()
	return &ast.ExpressionStatement{Range: ast.RangeOf(expr), Expression: expr}
}

func (p *parser) identifier() *ast.Identifier {
	tok := p.peek()
	if tok.kind != tokIdent {
		p.unexpected("identifier")
	}
	p.next()
	return &ast.Identifier{Range: p.rangeOf(tok), Name: tok.text}
}

func (p *parser) stringLiteral() *ast.StringLiteral {
	tok := p.next()
	return &ast.StringLiteral{Range: p.rangeOf(tok), Value: tok.text}
}

func (p *parser) expression() ast.Expr {
	if !p.isKeyword("if") {
		return p.logicalOr()
	}
	start := p.next()
	test := p.expression()
	p.expectKeyword("then")
	cons := p.expression()
	p.expectKeyword("else")
	alt := p.expression()
	return &ast.ConditionalExpression{
		Range:      ast.Range{PosStart: start.pos, PosEnd: alt.End()},
		Test:       test,
		Consequent: cons,
		Alternate:  alt,
	}
}

func (p *parser) logicalOr() ast.Expr {
	left := p.logicalAnd()
	for p.isKeyword("or") {
		p.next()
		right := p.logicalAnd()
		left = &ast.LogicalExpression{Range: ast.RangeBetween(left, right), Operator: token.LOR, Left: left, Right: right}
	}
	return left
}

func (p *parser) logicalAnd() ast.Expr {
	left := p.logicalNot()
	for p.isKeyword("and") {
		p.next()
		right := p.logicalNot()
		left = &ast.LogicalExpression{Range: ast.RangeBetween(left, right), Operator: token.LAND, Left: left, Right: right}
	}
	return left
}

func (p *parser) logicalNot() ast.Expr {
	if !p.isKeyword("not") {
		return p.comparison()
	}
	start := p.next()
	arg := p.logicalNot()
	return &ast.UnaryExpression{Range: ast.Range{PosStart: start.pos, PosEnd: arg.End()}, Operator: token.NOT, Argument: arg}
}

var (
	comparisonOperators = map[string]token.Token{
		"==": token.EQL,
		"!=": token.NEQ,
		"<":  token.LSS,
		"<=": token.LEQ,
		">":  token.GTR,
		">=": token.GEQ,
	}
	additiveOperators = map[string]token.Token{
		"+": token.ADD,
		"-": token.SUB,
	}
	multiplicativeOperators = map[string]token.Token{
		"*": token.MUL,
		"/": token.QUO,
		"%": token.REM,
	}
)

// binaryLevel parses left-associative operators of one precedence level
func (p *parser) binaryLevel(operators map[string]token.Token, operand func() ast.Expr) ast.Expr {
	left := operand()
	for {
		tok := p.peek()
		op, ok := operators[tok.text]
		if tok.kind != tokPunct || !ok {
			return left
		}
		p.next()
		right := operand()
		left = &ast.BinaryExpression{Range: ast.RangeBetween(left, right), Operator: op, Left: left, Right: right}
	}
}

func (p *parser) comparison() ast.Expr {
	return p.binaryLevel(comparisonOperators, p.additive)
}

func (p *parser) additive() ast.Expr {
	return p.binaryLevel(additiveOperators, p.multiplicative)
}

func (p *parser) multiplicative() ast.Expr {
	return p.binaryLevel(multiplicativeOperators, p.pipe)
}

func (p *parser) pipe() ast.Expr {
	left := p.unary()
	for p.isPunct("|>") {
		p.next()
		dest := p.unary()
		call, ok := dest.(*ast.CallExpression)
		if !ok {
			p.errorAt(dest, "", "pipe destination must be a function call")
			panic(bailout{})
		}
		left = &ast.PipeExpression{Range: ast.RangeBetween(left, call), Argument: left, Call: call}
	}
	return left
}

func (p *parser) unary() ast.Expr {
	if !p.isPunct("-") {
		return p.postfix()
	}
	start := p.next()
	arg := p.unary()
	return &ast.UnaryExpression{Range: ast.Range{PosStart: start.pos, PosEnd: arg.End()}, Operator: token.SUB, Argument: arg}
}

func (p *parser) postfix() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.isPunct("."):
			p.next()
			prop := p.identifier()
			expr = &ast.MemberExpression{Range: ast.RangeBetween(expr, prop), Object: expr, Property: prop.Name}
		case p.isPunct("[") && p.sameLine():
			p.next()
			index := p.expression()
			end := p.expectPunct("]")
			rng := ast.Range{PosStart: expr.Pos(), PosEnd: end.end}
			if str, ok := index.(*ast.StringLiteral); ok {
				expr = &ast.MemberExpression{Range: rng, Object: expr, Property: str.Value}
			} else {
				expr = &ast.IndexExpression{Range: rng, Array: expr, Index: index}
			}
		case p.isPunct("(") && p.sameLine():
			args, end := p.arguments()
			expr = &ast.CallExpression{Range: ast.Range{PosStart: expr.Pos(), PosEnd: end}, Callee: expr, Arguments: args}
		default:
			return expr
		}
	}
}

func (p *parser) arguments() ([]*ast.Argument, token.Pos) {
	p.expectPunct("(")
	var args []*ast.Argument
	for !p.isPunct(")") {
		arg := &ast.Argument{}
		if p.peek().kind == tokIdent && p.peekAt(1).is(tokPunct, ":") {
			arg.Name = p.identifier()
			p.next()
		}
		arg.Value = p.expression()
		arg.Range = ast.Range{PosStart: arg.Value.Pos(), PosEnd: arg.Value.End()}
		if arg.Name != nil {
			arg.PosStart = arg.Name.Pos()
		}
		args = append(args, arg)
		if !p.acceptPunct(",") {
			break
		}
	}
	end := p.expectPunct(")")
	return args, end.end
}

func (p *parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.kind {
	case tokIdent:
		p.next()
		switch tok.text {
		case "true", "false":
			return &ast.BooleanLiteral{Range: p.rangeOf(tok), Value: tok.text == "true"}
		}
		return &ast.Identifier{Range: p.rangeOf(tok), Name: tok.text}
	case tokInt:
		p.next()
		v, err := strconv.ParseInt(tok.text, 0, 64)
		if err != nil {
			p.errorAt(p.rangeOf(tok), "", "invalid integer literal %s", tok.text)
		}
		return &ast.IntegerLiteral{Range: p.rangeOf(tok), Value: v}
	case tokFloat:
		p.next()
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			p.errorAt(p.rangeOf(tok), "", "invalid float literal %s", tok.text)
		}
		return &ast.FloatLiteral{Range: p.rangeOf(tok), Value: v}
	case tokString:
		return p.stringLiteral()
	case tokDuration:
		p.next()
		return p.durationLiteral(tok)
	case tokPunct:
		switch tok.text {
		case "(":
			if p.isFunctionLiteral() {
				return p.functionLiteral()
			}
			p.next()
			inner := p.expression()
			end := p.expectPunct(")")
			return &ast.ParenExpression{Range: ast.Range{PosStart: tok.pos, PosEnd: end.end}, Expression: inner}
		case "[":
			return p.arrayOrDict()
		case "{":
			return p.object()
		}
	}
	p.unexpected("expression")
	return nil
}

var durationUnits = map[string]bool{
	"y":  true,
	"mo": true,
	"w":  true,
	"d":  true,
	"h":  true,
	"m":  true,
	"s":  true,
	"ms": true,
	"us": true,
	"µs": true,
	"ns": true,
}

// durationLiteral splits text like 1h30m into its magnitude-unit pairs
func (p *parser) durationLiteral(tok lexToken) *ast.DurationLiteral {
	lit := &ast.DurationLiteral{Range: p.rangeOf(tok)}
	runes := []rune(tok.text)
	for i := 0; i < len(runes); {
		start := i
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
		digits := string(runes[start:i])
		start = i
		for i < len(runes) && !unicode.IsDigit(runes[i]) {
			i++
		}
		unit := string(runes[start:i])
		magnitude, err := strconv.ParseInt(digits, 10, 64)
		if digits == "" || err != nil || !durationUnits[unit] {
			p.errorAt(lit, "", "invalid duration literal %s", tok.text)
			return lit
		}
		lit.Values = append(lit.Values, ast.Duration{Magnitude: magnitude, Unit: unit})
	}
	return lit
}

// isFunctionLiteral looks past the parenthesis at the current token for a =>
func (p *parser) isFunctionLiteral() bool {
	depth := 0
	for i := p.i; i < len(p.toks); i++ {
		tok := p.toks[i]
		switch {
		case tok.kind == tokEOF:
			return false
		case tok.is(tokPunct, "("):
			depth++
		case tok.is(tokPunct, ")"):
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].is(tokPunct, "=>")
			}
		}
	}
	return false
}

func (p *parser) functionLiteral() *ast.FunctionExpression {
	start := p.expectPunct("(")
	fn := &ast.FunctionExpression{}
	for !p.isPunct(")") {
		param := &ast.FunctionParameter{}
		paramStart := p.peek().pos
		if p.acceptPunct("<-") {
			param.Pipe = true
		}
		param.Key = p.identifier()
		if p.acceptPunct("=") {
			param.Default = p.expression()
		}
		param.Range = ast.Range{PosStart: paramStart, PosEnd: p.prevEnd()}
		fn.Params = append(fn.Params, param)
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	p.expectPunct("=>")
	if p.isPunct("{") {
		fn.Body = p.block()
	} else {
		fn.Body = p.expression()
	}
	fn.Range = ast.Range{PosStart: start.pos, PosEnd: fn.Body.End()}
	return fn
}

func (p *parser) block() *ast.Block {
	start := p.expectPunct("{")
	b := &ast.Block{}
	for !p.isPunct("}") {
		if p.atEOF() {
			p.unexpected("'}'")
		}
		b.Body = append(b.Body, p.statement(false))
	}
	end := p.next()
	b.Range = ast.Range{PosStart: start.pos, PosEnd: end.end}
	return b
}

func (p *parser) arrayOrDict() ast.Expr {
	start := p.expectPunct("[")
	if p.isPunct(":") && p.peekAt(1).is(tokPunct, "]") {
		p.next()
		end := p.next()
		return &ast.DictExpression{Range: ast.Range{PosStart: start.pos, PosEnd: end.end}}
	}
	if p.isPunct("]") {
		end := p.next()
		return &ast.ArrayExpression{Range: ast.Range{PosStart: start.pos, PosEnd: end.end}}
	}

	first := p.expression()
	if !p.acceptPunct(":") {
		arr := &ast.ArrayExpression{Elements: []ast.Expr{first}}
		for p.acceptPunct(",") && !p.isPunct("]") {
			arr.Elements = append(arr.Elements, p.expression())
		}
		end := p.expectPunct("]")
		arr.Range = ast.Range{PosStart: start.pos, PosEnd: end.end}
		return arr
	}
	dict := &ast.DictExpression{Elements: []ast.DictItem{{Key: first, Val: p.expression()}}}
	for p.acceptPunct(",") && !p.isPunct("]") {
		key := p.expression()
		p.expectPunct(":")
		dict.Elements = append(dict.Elements, ast.DictItem{Key: key, Val: p.expression()})
	}
	end := p.expectPunct("]")
	dict.Range = ast.Range{PosStart: start.pos, PosEnd: end.end}
	return dict
}

func (p *parser) object() *ast.ObjectExpression {
	start := p.expectPunct("{")
	obj := &ast.ObjectExpression{}
	if p.peek().kind == tokIdent && p.peekAt(1).is(tokKeyword, "with") {
		obj.With = p.identifier()
		p.next()
	}
	for !p.isPunct("}") {
		obj.Properties = append(obj.Properties, p.property())
		if !p.acceptPunct(",") {
			break
		}
	}
	end := p.expectPunct("}")
	obj.Range = ast.Range{PosStart: start.pos, PosEnd: end.end}
	return obj
}

func (p *parser) property() *ast.Property {
	var key *ast.Identifier
	quoted := p.peek().kind == tokString
	if quoted {
		str := p.stringLiteral()
		key = &ast.Identifier{Range: str.Range, Name: str.Value}
	} else {
		key = p.identifier()
	}
	prop := &ast.Property{Range: key.Range, Key: key}
	if p.acceptPunct(":") {
		prop.Value = p.expression()
		prop.PosEnd = prop.Value.End()
	} else if quoted {
		// the {a} shorthand only works for identifiers
		p.errorAt(key, "", "property %q needs a value", key.Name)
	}
	return prop
}

func (p *parser) typeExpression() *ast.TypeExpression {
	ty := p.monoType()
	te := &ast.TypeExpression{Range: ast.RangeOf(ty), Ty: ty}
	if !p.isKeyword("where") {
		return te
	}
	p.next()
	for {
		c := &ast.TypeConstraint{Tvar: p.identifier()}
		p.expectPunct(":")
		c.Kinds = append(c.Kinds, p.identifier())
		for p.acceptPunct("+") {
			c.Kinds = append(c.Kinds, p.identifier())
		}
		c.Range = ast.RangeBetween(c.Tvar, c.Kinds[len(c.Kinds)-1])
		te.Constraints = append(te.Constraints, c)
		if !p.acceptPunct(",") {
			break
		}
	}
	te.PosEnd = p.prevEnd()
	return te
}

// isTvarName reports whether an identifier in a type names a type variable.
// Type variables start with an upper case letter, scalar types do not.
func isTvarName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func (p *parser) monoType() ast.MonoTypeNode {
	tok := p.peek()
	switch {
	case tok.kind == tokIdent:
		id := p.identifier()
		if isTvarName(id.Name) {
			return &ast.TvarType{Range: id.Range, ID: id}
		}
		return &ast.NamedType{Range: id.Range, ID: id}
	case tok.is(tokPunct, "["):
		p.next()
		elem := p.monoType()
		if p.acceptPunct(":") {
			val := p.monoType()
			end := p.expectPunct("]")
			return &ast.DictType{Range: ast.Range{PosStart: tok.pos, PosEnd: end.end}, Key: elem, Val: val}
		}
		end := p.expectPunct("]")
		return &ast.ArrayType{Range: ast.Range{PosStart: tok.pos, PosEnd: end.end}, Element: elem}
	case tok.is(tokPunct, "{"):
		return p.recordType()
	case tok.is(tokPunct, "("):
		return p.functionType()
	}
	p.unexpected("type")
	return nil
}

func (p *parser) recordType() *ast.RecordType {
	start := p.expectPunct("{")
	rec := &ast.RecordType{}
	if p.peek().kind == tokIdent && p.peekAt(1).is(tokKeyword, "with") {
		rec.Tvar = p.identifier()
		p.next()
	}
	for !p.isPunct("}") {
		name := p.identifier()
		p.expectPunct(":")
		ty := p.monoType()
		rec.Properties = append(rec.Properties, &ast.PropertyType{Range: ast.RangeBetween(name, ty), Name: name, Ty: ty})
		if !p.acceptPunct(",") {
			break
		}
	}
	end := p.expectPunct("}")
	rec.Range = ast.Range{PosStart: start.pos, PosEnd: end.end}
	return rec
}

func (p *parser) functionType() *ast.FunctionType {
	start := p.expectPunct("(")
	fn := &ast.FunctionType{}
	for !p.isPunct(")") {
		param := &ast.ParameterType{}
		paramStart := p.peek().pos
		switch {
		case p.acceptPunct("?"):
			param.Kind = ast.Optional
		case p.acceptPunct("<-"):
			param.Kind = ast.Pipe
		}
		param.Name = p.identifier()
		p.expectPunct(":")
		param.Ty = p.monoType()
		param.Range = ast.Range{PosStart: paramStart, PosEnd: param.Ty.End()}
		fn.Parameters = append(fn.Parameters, param)
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	p.expectPunct("=>")
	fn.Return = p.monoType()
	fn.Range = ast.Range{PosStart: start.pos, PosEnd: fn.Return.End()}
	return fn
}
