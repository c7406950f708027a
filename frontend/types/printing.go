package types

import (
	"strconv"
	"strings"
)

// printer renders types. With letters set, variables print as A, B, ... Z, A1, B1...
// which only makes sense after renaming them from zero (see PolyType.Canonical).
type printer struct {
	sb      strings.Builder
	letters bool
}

func show(t MonoType, letters bool) string {
	p := &printer{letters: letters}
	p.mono(t)
	return p.sb.String()
}

func (p *printer) tvar(tv Tvar) {
	if !p.letters {
		p.sb.WriteString(tv.String())
		return
	}
	p.sb.WriteString(tvarLetters(tv))
}

func tvarLetters(tv Tvar) string {
	letter := string(rune('A' + tv%26))
	if idx := tv / 26; idx > 0 {
		return letter + strconv.FormatUint(uint64(idx), 10)
	}
	return letter
}

func (p *printer) mono(t MonoType) {
	switch t := t.(type) {
	case Scalar:
		p.sb.WriteString(t.String())
	case Var:
		p.tvar(Tvar(t))
	case *Array:
		p.sb.WriteString("[")
		p.mono(t.Elem)
		p.sb.WriteString("]")
	case *Dictionary:
		p.sb.WriteString("[")
		p.mono(t.Key)
		p.sb.WriteString(": ")
		p.mono(t.Val)
		p.sb.WriteString("]")
	case *Record:
		p.record(t)
	case *Function:
		p.function(t)
	default:
		panic(unknownVariant(t))
	}
}

func (p *printer) record(r *Record) {
	fields, tail := r.Flatten()
	p.sb.WriteString("{")
	if tail != nil {
		p.mono(tail)
		p.sb.WriteString(" with ")
	}
	for i, field := range fields {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString(field.Label)
		p.sb.WriteString(": ")
		p.mono(field.Type)
	}
	p.sb.WriteString("}")
}

func (p *printer) function(f *Function) {
	p.sb.WriteString("(")
	first := true
	param := func(prefix string, param Parameter) {
		if !first {
			p.sb.WriteString(", ")
		}
		first = false
		if !param.Required {
			p.sb.WriteString("?")
		}
		p.sb.WriteString(prefix)
		if param.Name != "" {
			p.sb.WriteString(param.Name)
			p.sb.WriteString(": ")
		}
		p.mono(param.Typ)
	}
	for _, pos := range f.Positional {
		param("", pos)
	}
	for _, named := range f.NamedParameters() {
		param("", named)
	}
	if f.Pipe != nil {
		param("<-", *f.Pipe)
	}
	p.sb.WriteString(") => ")
	p.mono(f.Retn)
}

func (p *printer) poly(t PolyType) {
	p.mono(t.Expr)
	first := true
	for _, tv := range t.Vars {
		kinds := t.Cons[tv]
		if len(kinds) == 0 {
			continue
		}
		if first {
			p.sb.WriteString(" where ")
		} else {
			p.sb.WriteString(", ")
		}
		first = false
		p.tvar(tv)
		p.sb.WriteString(": ")
		writeKinds(&p.sb, kinds)
	}
}
