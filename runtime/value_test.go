package runtime

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-threadcall/errors"
)

func TestValue_Accessors(t *testing.T) {
	if v := I32(-1); v.I32() != -1 || v.U32() != math.MaxUint32 || v.Kind() != KindI32 {
		t.Errorf("I32(-1) = %v (u32 %d)", v, v.U32())
	}
	if v := I64(math.MinInt64); v.I64() != math.MinInt64 || v.Kind() != KindI64 {
		t.Errorf("I64(min) = %v", v)
	}
	if v := F32(1.5); v.F32() != 1.5 || v.Kind() != KindF32 {
		t.Errorf("F32(1.5) = %v", v)
	}
	if v := F64(-0.25); v.F64() != -0.25 || v.Kind() != KindF64 {
		t.Errorf("F64(-0.25) = %v", v)
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		want string
		v    Value
	}{
		{"i32:-7", I32(-7)},
		{"i64:1099511627776", I64(1 << 40)},
		{"f32:1.5", F32(1.5)},
		{"f64:3.25", F64(3.25)},
		{"invalid", Value{}},
	}
	for _, tc := range tests {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ  string
		text string
		want Value
	}{
		{"i32", "42", I32(42)},
		{"i32", "-2147483648", I32(math.MinInt32)},
		{"i32", "4294967295", I32(-1)},
		{"i32", "0x10", I32(16)},
		{"i64", "-5", I64(-5)},
		{"i64", "18446744073709551615", I64(-1)},
		{"f32", "2.5", F32(2.5)},
		{"f64", "1e3", F64(1000)},
		{"bool", "true", I32(1)},
		{"bool", "false", I32(0)},
		{"s8", "-128", I32(-128)},
		{"u8", "255", I32(255)},
		{"s16", "-300", I32(-300)},
		{"u16", "65535", I32(65535)},
		{"s32", "-9", I32(-9)},
		{"u32", "4000000000", I32(-294967296)},
		{"s64", "-9000000000", I64(-9000000000)},
		{"u64", "9000000000", I64(9000000000)},
		{"char", "λ", I32('λ')},
		{"char", "\uFFFD", I32(0xFFFD)},
		{"i32", " 7 ", I32(7)},
	}

	for _, tc := range tests {
		t.Run(tc.typ+"/"+tc.text, func(t *testing.T) {
			got, err := ParseValue(tc.typ, tc.text)
			if err != nil {
				t.Fatalf("ParseValue(%q, %q) error: %v", tc.typ, tc.text, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseValue mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseValue_Errors(t *testing.T) {
	tests := []struct {
		typ  string
		text string
		kind errors.Kind
	}{
		{"i32", "4294967296", errors.KindOverflow},
		{"i32", "-2147483649", errors.KindOverflow},
		{"u8", "256", errors.KindOverflow},
		{"s8", "-129", errors.KindOverflow},
		{"i32", "abc", errors.KindInvalidData},
		{"bool", "maybe", errors.KindInvalidData},
		{"char", "ab", errors.KindInvalidData},
		{"char", "", errors.KindInvalidData},
		{"char", "\xff", errors.KindInvalidData},
		{"string", "hello", errors.KindInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.typ+"/"+tc.text, func(t *testing.T) {
			_, err := ParseValue(tc.typ, tc.text)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: tc.kind}) {
				t.Errorf("ParseValue(%q, %q) = %v, want %s", tc.typ, tc.text, err, tc.kind)
			}
		})
	}
}

func TestParseValue_UnknownType(t *testing.T) {
	if _, err := ParseValue("not a type!", "1"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestParseArgs(t *testing.T) {
	kinds := []ValueKind{KindI32, KindI64, KindF64}

	got, err := ParseArgs(kinds, []string{"1", "i64:2", "3.5"})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	want := []Value{I32(1), I64(2), F64(3.5)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseArgs mismatch (-want +got):\n%s", diff)
	}

	got, err = ParseArgs([]ValueKind{KindI32}, []string{"u8:200"})
	if err != nil {
		t.Fatalf("ParseArgs error: %v", err)
	}
	if got[0].I32() != 200 {
		t.Errorf("u8:200 = %v", got[0])
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name  string
		kinds []ValueKind
		args  []string
		kind  errors.Kind
	}{
		{"count", []ValueKind{KindI32, KindI32}, []string{"1"}, errors.KindArity},
		{"typed mismatch", []ValueKind{KindI32}, []string{"i64:1"}, errors.KindTypeMismatch},
		{"bad value", []ValueKind{KindF32}, []string{"x"}, errors.KindInvalidData},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseArgs(tc.kinds, tc.args)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: tc.kind}) {
				t.Errorf("ParseArgs = %v, want %s", err, tc.kind)
			}
		})
	}
}
