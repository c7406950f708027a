package parser

import (
	"go/token"
	"strconv"
	"strings"
	"text/scanner"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokInt
	tokFloat
	tokString
	tokDuration
	tokPunct
)

var keywords = map[string]bool{
	"package": true,
	"import":  true,
	"builtin": true,
	"return":  true,
	"and":     true,
	"or":      true,
	"not":     true,
	"if":      true,
	"then":    true,
	"else":    true,
	"with":    true,
	"where":   true,
}

// twoCharPuncts are the operators spelled with two characters. The lexer only
// joins characters which are adjacent in the source.
var twoCharPuncts = map[string]bool{
	"=>": true,
	"|>": true,
	"<-": true,
	"==": true,
	"!=": true,
	"<=": true,
	">=": true,
}

type lexToken struct {
	kind tokenKind
	text string
	pos  token.Pos
	end  token.Pos
	line int
}

func (t lexToken) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t lexToken) String() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokString:
		return strconv.Quote(t.text)
	}
	return "'" + t.text + "'"
}

type lexError struct {
	msg string
	pos token.Pos
}

// lex splits src into tokens up front, so that the parser can look ahead freely
func lex(file *token.File, src string) ([]lexToken, []lexError) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings |
		scanner.ScanComments | scanner.SkipComments
	var errs []lexError
	s.Error = func(s *scanner.Scanner, msg string) {
		errs = append(errs, lexError{msg: msg, pos: file.Pos(s.Pos().Offset)})
	}

	var toks []lexToken
	for r := s.Scan(); r != scanner.EOF; r = s.Scan() {
		start := s.Position.Offset
		text := s.TokenText()
		end := start + len(text)
		tok := lexToken{
			text: text,
			pos:  file.Pos(start),
			end:  file.Pos(end),
			line: s.Position.Line,
		}
		switch r {
		case scanner.Ident:
			tok.kind = tokIdent
			if keywords[text] {
				tok.kind = tokKeyword
			}
		case scanner.Int:
			tok.kind = tokInt
		case scanner.Float:
			tok.kind = tokFloat
		case scanner.String:
			tok.kind = tokString
			unquoted, err := strconv.Unquote(text)
			if err != nil {
				errs = append(errs, lexError{msg: "invalid string literal: " + err.Error(), pos: tok.pos})
			}
			tok.text = unquoted
		default:
			tok.kind = tokPunct
		}

		if len(toks) > 0 {
			prev := &toks[len(toks)-1]
			adjacent := prev.end == tok.pos
			switch {
			// 1h30m scans as the int 1 followed by the identifier h30m
			case adjacent && prev.kind == tokInt && tok.kind == tokIdent:
				prev.kind = tokDuration
				prev.text += tok.text
				prev.end = tok.end
				continue
			case adjacent && prev.kind == tokPunct && tok.kind == tokPunct && twoCharPuncts[prev.text+tok.text]:
				prev.text += tok.text
				prev.end = tok.end
				continue
			}
		}
		toks = append(toks, tok)
	}
	eof := file.Pos(len(src))
	toks = append(toks, lexToken{kind: tokEOF, pos: eof, end: eof, line: s.Position.Line + 1})
	return toks, errs
}
