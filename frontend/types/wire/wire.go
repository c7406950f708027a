// Package wire encodes type schemes and type environments so they can cross a
// process boundary.
//
// The encoding uses the protobuf wire format. Every message is a sequence of
// tagged fields, so decoders skip fields they do not know about and older readers
// keep working with newer writers. Decoding never panics: malformed input makes
// the Decode functions report false.
package wire

import (
	"fmt"
	"github.com/cottand/fql/frontend/types"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"slices"
	"strings"
)

// PolyType
const (
	polyVar        protowire.Number = 1
	polyConstraint protowire.Number = 2
	polyExpr       protowire.Number = 3
)

// constraint of a PolyType
const (
	constraintVar  protowire.Number = 1
	constraintKind protowire.Number = 2
)

// MonoType is a union: exactly one of these is set
const (
	monoScalar   protowire.Number = 1
	monoVar      protowire.Number = 2
	monoArray    protowire.Number = 3
	monoDict     protowire.Number = 4
	monoRecord   protowire.Number = 5
	monoFunction protowire.Number = 6
)

const (
	dictKey protowire.Number = 1
	dictVal protowire.Number = 2
)

const (
	recordField protowire.Number = 1
	recordTail  protowire.Number = 2

	fieldLabel protowire.Number = 1
	fieldType  protowire.Number = 2
)

const (
	functionArg  protowire.Number = 1
	functionRetn protowire.Number = 2

	argName       protowire.Number = 1
	argType       protowire.Number = 2
	argPipe       protowire.Number = 3
	argOptional   protowire.Number = 4
	argPositional protowire.Number = 5
)

const (
	envBinding protowire.Number = 1

	bindingName protowire.Number = 1
	bindingType protowire.Number = 2
)

// maxDepth bounds the nesting of types accepted by the decoder
const maxDepth = 256

// Binding is one entry of a type environment
type Binding struct {
	Name string
	Type types.PolyType
}

// ErrUnencodable is returned for types no well-formed program produces,
// like a record row ending in something other than a type variable
var ErrUnencodable = errors.New("type cannot be encoded")

// EncodePolyType encodes p
func EncodePolyType(p types.PolyType) ([]byte, error) {
	return appendPolyType(nil, p)
}

// EncodeEnv encodes every binding of env, in order
func EncodeEnv(env []Binding) ([]byte, error) {
	var b []byte
	for _, binding := range env {
		var entry []byte
		entry = protowire.AppendTag(entry, bindingName, protowire.BytesType)
		entry = protowire.AppendString(entry, binding.Name)
		poly, err := appendPolyType(nil, binding.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "binding %s", binding.Name)
		}
		entry = appendMessage(entry, bindingType, poly)
		b = appendMessage(b, envBinding, entry)
	}
	return b, nil
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendPolyType(b []byte, p types.PolyType) ([]byte, error) {
	for _, tv := range p.Vars {
		b = appendVarint(b, polyVar, uint64(tv))
	}
	for _, tv := range p.Vars {
		for _, k := range p.Cons[tv] {
			var pair []byte
			pair = appendVarint(pair, constraintVar, uint64(tv))
			pair = appendVarint(pair, constraintKind, uint64(k))
			b = appendMessage(b, polyConstraint, pair)
		}
	}
	expr, err := appendMonoType(nil, p.Expr)
	if err != nil {
		return nil, err
	}
	return appendMessage(b, polyExpr, expr), nil
}

func appendMonoType(b []byte, t types.MonoType) ([]byte, error) {
	switch t := t.(type) {
	case types.Scalar:
		return appendVarint(b, monoScalar, uint64(t)), nil
	case types.Var:
		return appendVarint(b, monoVar, uint64(t)), nil
	case *types.Array:
		elem, err := appendMonoType(nil, t.Elem)
		if err != nil {
			return nil, err
		}
		return appendMessage(b, monoArray, elem), nil
	case *types.Dictionary:
		key, err := appendMonoType(nil, t.Key)
		if err != nil {
			return nil, err
		}
		val, err := appendMonoType(nil, t.Val)
		if err != nil {
			return nil, err
		}
		var dict []byte
		dict = appendMessage(dict, dictKey, key)
		dict = appendMessage(dict, dictVal, val)
		return appendMessage(b, monoDict, dict), nil
	case *types.Record:
		record, err := appendRecord(t)
		if err != nil {
			return nil, err
		}
		return appendMessage(b, monoRecord, record), nil
	case *types.Function:
		fn, err := appendFunction(t)
		if err != nil {
			return nil, err
		}
		return appendMessage(b, monoFunction, fn), nil
	default:
		return nil, errors.Wrapf(ErrUnencodable, "unknown type %T", t)
	}
}

func appendRecord(r *types.Record) ([]byte, error) {
	fields, tail := r.Flatten()
	var b []byte
	for _, field := range fields {
		typ, err := appendMonoType(nil, field.Type)
		if err != nil {
			return nil, err
		}
		var entry []byte
		entry = protowire.AppendTag(entry, fieldLabel, protowire.BytesType)
		entry = protowire.AppendString(entry, field.Label)
		entry = appendMessage(entry, fieldType, typ)
		b = appendMessage(b, recordField, entry)
	}
	switch tail := tail.(type) {
	case nil:
	case types.Var:
		b = appendVarint(b, recordTail, uint64(tail))
	default:
		return nil, errors.Wrapf(ErrUnencodable, "record row ends in %s", tail)
	}
	return b, nil
}

func appendArg(b []byte, p types.Parameter, pipe, positional bool) ([]byte, error) {
	typ, err := appendMonoType(nil, p.Typ)
	if err != nil {
		return nil, err
	}
	var arg []byte
	if p.Name != "" {
		arg = protowire.AppendTag(arg, argName, protowire.BytesType)
		arg = protowire.AppendString(arg, p.Name)
	}
	arg = appendMessage(arg, argType, typ)
	if pipe {
		arg = appendVarint(arg, argPipe, protowire.EncodeBool(true))
	}
	if !p.Required {
		arg = appendVarint(arg, argOptional, protowire.EncodeBool(true))
	}
	if positional {
		arg = appendVarint(arg, argPositional, protowire.EncodeBool(true))
	}
	return appendMessage(b, functionArg, arg), nil
}

func appendFunction(f *types.Function) ([]byte, error) {
	var b []byte
	var err error
	for _, p := range f.Positional {
		if b, err = appendArg(b, p, false, true); err != nil {
			return nil, err
		}
	}
	for _, p := range f.NamedParameters() {
		if b, err = appendArg(b, p, false, false); err != nil {
			return nil, err
		}
	}
	if f.Pipe != nil {
		if b, err = appendArg(b, *f.Pipe, true, false); err != nil {
			return nil, err
		}
	}
	retn, err := appendMonoType(nil, f.Retn)
	if err != nil {
		return nil, err
	}
	return appendMessage(b, functionRetn, retn), nil
}

// DecodePolyType decodes a PolyType written by EncodePolyType.
// ok is false if b is not a valid encoding.
func DecodePolyType(b []byte) (p types.PolyType, ok bool) {
	d := &decoder{}
	p = d.polyType(b)
	return p, d.err == nil
}

// DecodeEnv decodes a type environment written by EncodeEnv.
// ok is false if b is not a valid encoding.
func DecodeEnv(b []byte) (env []Binding, ok bool) {
	d := &decoder{}
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) {
		if num != envBinding || typ != protowire.BytesType {
			return
		}
		var binding Binding
		seenType := false
		d.fields(value, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) {
			switch {
			case num == bindingName && typ == protowire.BytesType:
				binding.Name = string(value)
			case num == bindingType && typ == protowire.BytesType:
				binding.Type = d.polyType(value)
				seenType = true
			}
		})
		if !seenType {
			d.fail("binding %q without a type", binding.Name)
		}
		env = append(env, binding)
	})
	if d.err != nil {
		return nil, false
	}
	return env, true
}

type decoder struct {
	err   error
	depth int
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

// fields calls visit for every field of msg. Length-delimited fields get their
// payload in value, varints in v. Other wire types are skipped.
func (d *decoder) fields(msg []byte, visit func(num protowire.Number, typ protowire.Type, value []byte, v uint64)) {
	for len(msg) > 0 && d.err == nil {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			d.fail("bad tag: %v", protowire.ParseError(n))
			return
		}
		msg = msg[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				d.fail("bad varint: %v", protowire.ParseError(n))
				return
			}
			msg = msg[n:]
			visit(num, typ, nil, v)
		case protowire.BytesType:
			value, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				d.fail("bad length-delimited field: %v", protowire.ParseError(n))
				return
			}
			msg = msg[n:]
			visit(num, typ, value, 0)
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				d.fail("bad field %d: %v", num, protowire.ParseError(n))
				return
			}
			msg = msg[n:]
		}
	}
}

func (d *decoder) polyType(b []byte) types.PolyType {
	var p types.PolyType
	p.Cons = make(types.KindConstraints)
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, v uint64) {
		switch {
		case num == polyVar && typ == protowire.VarintType:
			p.Vars = append(p.Vars, types.Tvar(v))
		case num == polyConstraint && typ == protowire.BytesType:
			tv, k, ok := d.constraint(value)
			if ok {
				p.Cons.Add(tv, k)
			}
		case num == polyExpr && typ == protowire.BytesType:
			p.Expr = d.monoType(value)
		}
	})
	if d.err == nil && p.Expr == nil {
		d.fail("scheme without a body")
	}
	if d.err == nil {
		for tv := range p.Cons {
			if !slices.Contains(p.Vars, tv) {
				d.fail("constraint on unbound variable %s", tv)
			}
		}
	}
	return p
}

func (d *decoder) constraint(b []byte) (tv types.Tvar, k types.Kind, ok bool) {
	seenVar, seenKind := false, false
	d.fields(b, func(num protowire.Number, typ protowire.Type, _ []byte, v uint64) {
		if typ != protowire.VarintType {
			return
		}
		switch num {
		case constraintVar:
			tv, seenVar = types.Tvar(v), true
		case constraintKind:
			k, seenKind = types.Kind(v), true
		}
	})
	if !seenVar || !seenKind {
		d.fail("incomplete constraint")
		return 0, 0, false
	}
	if !k.Valid() {
		d.fail("unknown kind %d", k)
		return 0, 0, false
	}
	return tv, k, d.err == nil
}

func (d *decoder) monoType(b []byte) types.MonoType {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxDepth {
		d.fail("type nested deeper than %d", maxDepth)
		return nil
	}

	var t types.MonoType
	set := func(decoded types.MonoType) {
		if t != nil {
			d.fail("type union with more than one member")
			return
		}
		t = decoded
	}
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, v uint64) {
		switch {
		case num == monoScalar && typ == protowire.VarintType:
			s := types.Scalar(v)
			if v >= uint64(len(types.Scalars)) {
				d.fail("unknown scalar %d", v)
				return
			}
			set(s)
		case num == monoVar && typ == protowire.VarintType:
			set(types.Var(v))
		case num == monoArray && typ == protowire.BytesType:
			set(types.NewArray(d.monoType(value)))
		case num == monoDict && typ == protowire.BytesType:
			set(d.dictionary(value))
		case num == monoRecord && typ == protowire.BytesType:
			set(d.record(value))
		case num == monoFunction && typ == protowire.BytesType:
			set(d.function(value))
		}
	})
	if d.err == nil && t == nil {
		d.fail("empty type union")
	}
	return t
}

func (d *decoder) dictionary(b []byte) types.MonoType {
	var key, val types.MonoType
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) {
		if typ != protowire.BytesType {
			return
		}
		switch num {
		case dictKey:
			key = d.monoType(value)
		case dictVal:
			val = d.monoType(value)
		}
	})
	if key == nil || val == nil {
		d.fail("incomplete dictionary")
		return nil
	}
	return types.NewDictionary(key, val)
}

func (d *decoder) record(b []byte) types.MonoType {
	var fields []types.Property
	var tail types.MonoType
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, v uint64) {
		switch {
		case num == recordField && typ == protowire.BytesType:
			var field types.Property
			d.fields(value, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) {
				switch {
				case num == fieldLabel && typ == protowire.BytesType:
					field.Label = string(value)
				case num == fieldType && typ == protowire.BytesType:
					field.Type = d.monoType(value)
				}
			})
			if field.Type == nil || field.Label == "" {
				d.fail("incomplete record field")
				return
			}
			fields = append(fields, field)
		case num == recordTail && typ == protowire.VarintType:
			tail = types.Var(v)
		}
	})
	if d.err != nil {
		return nil
	}
	if len(fields) == 0 {
		if tail != nil {
			d.fail("open record without fields")
			return nil
		}
		return types.EmptyRecord
	}
	return types.NewRecord(fields, tail)
}

func (d *decoder) function(b []byte) types.MonoType {
	var positional []types.Parameter
	named := make(map[string]types.Parameter)
	var pipe *types.Parameter
	var retn types.MonoType
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, _ uint64) {
		if typ != protowire.BytesType {
			return
		}
		switch num {
		case functionArg:
			d.arg(value, &positional, named, &pipe)
		case functionRetn:
			retn = d.monoType(value)
		}
	})
	if d.err == nil && retn == nil {
		d.fail("function without a return type")
	}
	if d.err != nil {
		return nil
	}
	return types.NewFunction(positional, named, pipe, retn)
}

func (d *decoder) arg(b []byte, positional *[]types.Parameter, named map[string]types.Parameter, pipe **types.Parameter) {
	var p types.Parameter
	var isPipe, optional, isPositional bool
	d.fields(b, func(num protowire.Number, typ protowire.Type, value []byte, v uint64) {
		switch {
		case num == argName && typ == protowire.BytesType:
			p.Name = string(value)
		case num == argType && typ == protowire.BytesType:
			p.Typ = d.monoType(value)
		case num == argPipe && typ == protowire.VarintType:
			isPipe = protowire.DecodeBool(v)
		case num == argOptional && typ == protowire.VarintType:
			optional = protowire.DecodeBool(v)
		case num == argPositional && typ == protowire.VarintType:
			isPositional = protowire.DecodeBool(v)
		}
	})
	if d.err != nil {
		return
	}
	if p.Typ == nil {
		d.fail("argument %q without a type", p.Name)
		return
	}
	p.Required = !optional
	switch {
	case isPipe:
		if *pipe != nil {
			d.fail("more than one pipe argument")
			return
		}
		*pipe = &p
	case isPositional:
		*positional = append(*positional, p)
	default:
		if p.Name == "" {
			d.fail("named argument without a name")
			return
		}
		if _, dup := named[p.Name]; dup {
			d.fail("duplicate argument %s", p.Name)
			return
		}
		named[p.Name] = p
	}
}

// String renders an environment one binding per line, for debugging
func String(env []Binding) string {
	sb := &strings.Builder{}
	for _, binding := range env {
		sb.WriteString(binding.Name)
		sb.WriteString(": ")
		sb.WriteString(binding.Type.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
