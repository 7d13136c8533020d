package bytecode

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"loa/internal/ast"
	"loa/internal/generation"
)

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer %q", s)
	}
	return v
}

// sample covers every instruction shape.
func sample(t *testing.T) generation.Instructions {
	t.Helper()
	const main ast.Id = 0x10000
	inner := generation.Instructions{
		generation.LoadLocal(0),
		generation.LoadLazy(0, generation.Instructions{generation.LoadConstInt(generation.OpLoadConstI32, big.NewInt(7)), generation.ReturnLazy(0)}),
		generation.ReturnLazy(1),
	}
	is := generation.Instructions{
		generation.Noop(),
		generation.DeclareClass(main, "Main"),
		generation.DeclareClass(generation.ClassObjectID(main), "Main class"),
		generation.DeclareVariable(0x10001, "count"),
		generation.BeginMethod(generation.SelectorHash("run"), "Main#run"),
		generation.LoadLazy(1, inner),
		generation.CallMethod(generation.SelectorHash("at:put:"), "test:main.loa", 3, 14),
		generation.CallNative(generation.NativeObjectEq),
		generation.DropLocal(2),
		generation.Return(1),
		generation.EndMethod(),
		generation.InheritMethod(0x20000, main, generation.SelectorHash("==")),
		generation.LoadObject(main),
		generation.StoreGlobal(0x30000),
		generation.LoadGlobal(0x30000),
		generation.LoadConstString("héllo \"world\""),
		generation.LoadConstSymbol("at:put:"),
		generation.LoadConstCharacter('λ'),
		generation.LoadConstInt(generation.OpLoadConstU8, big.NewInt(255)),
		generation.LoadConstInt(generation.OpLoadConstU16, big.NewInt(65535)),
		generation.LoadConstInt(generation.OpLoadConstU32, big.NewInt(4000000000)),
		generation.LoadConstInt(generation.OpLoadConstU64, bigInt(t, "18446744073709551615")),
		generation.LoadConstInt(generation.OpLoadConstU128, bigInt(t, "340282366920938463463374607431768211455")),
		generation.LoadConstInt(generation.OpLoadConstUBig, bigInt(t, "340282366920938463463374607431768211456")),
		generation.LoadConstInt(generation.OpLoadConstI8, big.NewInt(-128)),
		generation.LoadConstInt(generation.OpLoadConstI16, big.NewInt(-300)),
		generation.LoadConstInt(generation.OpLoadConstI32, big.NewInt(-2147483648)),
		generation.LoadConstInt(generation.OpLoadConstI64, big.NewInt(-1)),
		generation.LoadConstInt(generation.OpLoadConstI128, bigInt(t, "-170141183460469231731687303715884105728")),
		generation.LoadConstInt(generation.OpLoadConstIBig, bigInt(t, "-99999999999999999999999999999999999999999")),
		generation.LoadConstF32(0.1),
		generation.LoadConstF64(-2.5e300),
		generation.LoadConstFBig(big.NewRat(-1, 3)),
		generation.Panic(),
		generation.Halt(),
	}
	for op := generation.OpMarkClassTrue; op <= generation.OpMarkClassFBig; op++ {
		is = append(is, generation.MarkClass(op, main))
	}
	return is
}

func TestRoundTrip(t *testing.T) {
	is := sample(t)
	b, err := Marshal(is)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(is) {
		t.Fatalf("round trip changed the stream:\n%s\nwant\n%s", got, is)
	}
}

func TestEncodingLayout(t *testing.T) {
	tests := []struct {
		name string
		in   generation.Instruction
		want []byte
	}{
		{"noop", generation.Noop(), []byte{0xa0}},
		{"halt", generation.Halt(), []byte{0xa1}},
		{"load local", generation.LoadLocal(0x0102), []byte{Tag(generation.OpLoadLocal), 0x01, 0x02}},
		{"i8", generation.LoadConstInt(generation.OpLoadConstI8, big.NewInt(-1)), []byte{Tag(generation.OpLoadConstI8), 0xff}},
		{"u16", generation.LoadConstInt(generation.OpLoadConstU16, big.NewInt(258)), []byte{Tag(generation.OpLoadConstU16), 0x01, 0x02}},
		{"string", generation.LoadConstString("ab"), []byte{Tag(generation.OpLoadConstString), 0x00, 0x02, 'a', 'b'}},
		{"ibig", generation.LoadConstInt(generation.OpLoadConstIBig, big.NewInt(-256)), []byte{Tag(generation.OpLoadConstIBig), signNeg, 0x00, 0x02, 0x01, 0x00}},
		{"fbig", generation.LoadConstFBig(big.NewRat(1, 2)), []byte{Tag(generation.OpLoadConstFBig), ratTag, signPos, 0x00, 0x01, 0x01, 0x00, 0x01, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(generation.Instructions{tt.in})
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestTagsAreDistinct(t *testing.T) {
	seen := map[byte]generation.Op{}
	for op := generation.OpNoop; op.Valid(); op++ {
		tag := Tag(op)
		if tag < 0xa0 {
			t.Fatalf("%s has tag %#x below the reserved range", op, tag)
		}
		if prev, dup := seen[tag]; dup {
			t.Fatalf("%s and %s share tag %#x", prev, op, tag)
		}
		seen[tag] = op
		if back, ok := OpOfTag(tag); !ok || back != op {
			t.Fatalf("OpOfTag(%#x) = %s", tag, back)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	full, err := Marshal(generation.Instructions{generation.CallMethod(1, "uri", 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"unknown tag", []byte{0x10}, ErrUnknownOpcode},
		{"unknown tag above range", []byte{0xff}, ErrUnknownOpcode},
		{"truncated operand", full[:len(full)-2], ErrTruncated},
		{"truncated lazy body", []byte{Tag(generation.OpLoadLazy), 0, 0, 0, 0, 0, 1}, ErrTruncated},
		{"unknown native", []byte{Tag(generation.OpCallNative), 0x7f}, ErrUnknownOpcode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	is, err := Unmarshal(nil)
	if err != nil || len(is) != 0 {
		t.Fatalf("empty input: %v %v", is, err)
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	tests := []generation.Instruction{
		generation.LoadConstInt(generation.OpLoadConstU8, big.NewInt(256)),
		generation.LoadConstInt(generation.OpLoadConstI8, big.NewInt(128)),
		generation.LoadConstInt(generation.OpLoadConstU32, big.NewInt(-1)),
		generation.LoadConstInt(generation.OpLoadConstUBig, big.NewInt(-1)),
		generation.LoadConstString(strings.Repeat("x", 1<<16)),
	}
	for _, in := range tests {
		if _, err := Marshal(generation.Instructions{in}); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: err = %v", in.Op, err)
		}
	}
}
