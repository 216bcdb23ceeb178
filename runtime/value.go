package runtime

import (
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-threadcall/errors"
)

// ValueKind is a core WebAssembly number type.
type ValueKind uint8

const (
	KindI32 ValueKind = iota + 1
	KindI64
	KindF32
	KindF64
)

func (k ValueKind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func kindOf(t api.ValueType) (ValueKind, bool) {
	switch t {
	case api.ValueTypeI32:
		return KindI32, true
	case api.ValueTypeI64:
		return KindI64, true
	case api.ValueTypeF32:
		return KindF32, true
	case api.ValueTypeF64:
		return KindF64, true
	}
	return 0, false
}

func kindsOf(types []api.ValueType) ([]ValueKind, bool) {
	kinds := make([]ValueKind, len(types))
	for i, t := range types {
		k, ok := kindOf(t)
		if !ok {
			return nil, false
		}
		kinds[i] = k
	}
	return kinds, true
}

// Value is a typed core WebAssembly value.
type Value struct {
	bits uint64
	kind ValueKind
}

func I32(v int32) Value {
	return Value{kind: KindI32, bits: api.EncodeI32(v)}
}

func I64(v int64) Value {
	return Value{kind: KindI64, bits: api.EncodeI64(v)}
}

func F32(v float32) Value {
	return Value{kind: KindF32, bits: api.EncodeF32(v)}
}

func F64(v float64) Value {
	return Value{kind: KindF64, bits: api.EncodeF64(v)}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) I32() int32 {
	return api.DecodeI32(v.bits)
}

func (v Value) U32() uint32 {
	return api.DecodeU32(v.bits)
}

func (v Value) I64() int64 {
	return int64(v.bits)
}

func (v Value) F32() float32 {
	return api.DecodeF32(v.bits)
}

func (v Value) F64() float64 {
	return api.DecodeF64(v.bits)
}

// Equal reports whether v and o have the same kind and bit pattern.
func (v Value) Equal(o Value) bool {
	return v == o
}

func (v Value) String() string {
	switch v.kind {
	case KindI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case KindI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case KindF32:
		return fmt.Sprintf("f32:%g", v.F32())
	case KindF64:
		return fmt.Sprintf("f64:%g", v.F64())
	}
	return "invalid"
}

// ParseValue converts text to a Value of type typ. typ is either a core
// type (i32, i64, f32, f64) or a WIT primitive that lowers to one
// (bool, s8..s64, u8..u64, f32, f64, char). Unsigned values are stored in
// two's complement, the way the canonical ABI lowers them.
func ParseValue(typ, text string) (Value, error) {
	text = strings.TrimSpace(text)
	switch typ {
	case "i32":
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return Value{}, parseErr(typ, text, err)
		}
		if n < math.MinInt32 || n > math.MaxUint32 {
			return Value{}, errors.Overflow(errors.PhaseParse, nil, text, typ)
		}
		return I32(int32(uint32(n))), nil
	case "i64":
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(text, 0, 64)
			if uerr != nil {
				return Value{}, parseErr(typ, text, err)
			}
			n = int64(u)
		}
		return I64(n), nil
	}

	t, err := wit.ParseType(typ)
	if err != nil {
		return Value{}, errors.ParseFailed("type "+typ, err)
	}

	switch t.(type) {
	case wit.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, parseErr(typ, text, err)
		}
		if b {
			return I32(1), nil
		}
		return I32(0), nil
	case wit.S8:
		return parseSigned(typ, text, 8)
	case wit.S16:
		return parseSigned(typ, text, 16)
	case wit.S32:
		return parseSigned(typ, text, 32)
	case wit.S64:
		return parseSigned(typ, text, 64)
	case wit.U8:
		return parseUnsigned(typ, text, 8)
	case wit.U16:
		return parseUnsigned(typ, text, 16)
	case wit.U32:
		return parseUnsigned(typ, text, 32)
	case wit.U64:
		return parseUnsigned(typ, text, 64)
	case wit.F32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, parseErr(typ, text, err)
		}
		return F32(float32(f)), nil
	case wit.F64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, parseErr(typ, text, err)
		}
		return F64(f), nil
	case wit.Char:
		r, size := utf8.DecodeRuneInString(text)
		if (r == utf8.RuneError && size <= 1) || size != len(text) {
			return Value{}, errors.InvalidData(errors.PhaseParse, nil, fmt.Sprintf("%q is not a single character", text))
		}
		return I32(r), nil
	}

	return Value{}, errors.New(errors.PhaseParse, errors.KindInvalidInput).
		WasmType(typ).
		Detail("type has no core wasm representation").
		Build()
}

func parseSigned(typ, text string, bits int) (Value, error) {
	n, err := strconv.ParseInt(text, 0, bits)
	if err != nil {
		return Value{}, parseErr(typ, text, err)
	}
	if bits == 64 {
		return I64(n), nil
	}
	return I32(int32(n)), nil
}

func parseUnsigned(typ, text string, bits int) (Value, error) {
	n, err := strconv.ParseUint(text, 0, bits)
	if err != nil {
		return Value{}, parseErr(typ, text, err)
	}
	if bits == 64 {
		return I64(int64(n)), nil
	}
	return I32(int32(uint32(n))), nil
}

func parseErr(typ, text string, err error) error {
	if stderrors.Is(err, strconv.ErrRange) {
		return errors.Overflow(errors.PhaseParse, nil, text, typ)
	}
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		WasmType(typ).
		Value(text).
		Cause(err).
		Detail("cannot parse %q", text).
		Build()
}

// ParseArgs converts command-line style arguments for a function taking
// kinds. Each argument is either "type:value" (see ParseValue) or a bare
// value parsed as the corresponding parameter's core type.
func ParseArgs(kinds []ValueKind, args []string) ([]Value, error) {
	if len(args) != len(kinds) {
		return nil, errors.Arity(errors.PhaseParse, "args", len(kinds), len(args))
	}

	values := make([]Value, len(args))
	for i, arg := range args {
		typ, text := kinds[i].String(), arg
		if t, rest, ok := strings.Cut(arg, ":"); ok && isTypeName(t) {
			typ, text = t, rest
		}

		v, err := ParseValue(typ, text)
		if err != nil {
			return nil, err
		}
		if v.kind != kinds[i] {
			return nil, errors.TypeMismatch(errors.PhaseParse,
				[]string{fmt.Sprintf("arg%d", i)}, v.kind.String(), kinds[i].String())
		}
		values[i] = v
	}
	return values, nil
}

func isTypeName(s string) bool {
	switch s {
	case "i32", "i64", "f32", "f64", "bool", "char",
		"s8", "s16", "s32", "s64", "u8", "u16", "u32", "u64":
		return true
	}
	return false
}
