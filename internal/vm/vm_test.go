package vm

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"loa/internal/ast"
	"loa/internal/generation"
)

const (
	numberID ast.Id = 0x100
	mainID   ast.Id = 0x200
	boxID    ast.Id = 0x300
	valueID  ast.Id = 0x301
)

func hash(s string) uint64 { return generation.SelectorHash(s) }

func send(selector string) generation.Instruction {
	return generation.CallMethod(hash(selector), "test:main.loa", 1, 1)
}

// kindClass is the class id the prelude registers for a MarkClass op.
func kindClass(op generation.Op) ast.Id {
	return numberID + 1 + ast.Id(op-generation.OpMarkClassTrue)
}

// prelude declares Number with the native methods and one class per
// built-in kind inheriting them.
func prelude() generation.Instructions {
	is := generation.Instructions{generation.DeclareClass(numberID, "Number")}
	for sel, n := range map[string]generation.Native{
		"+":  generation.NativeNumberPlus,
		"-":  generation.NativeNumberMinus,
		"==": generation.NativeObjectEq,
	} {
		is = append(is,
			generation.BeginMethod(hash(sel), "Number#"+sel),
			generation.CallNative(n),
			generation.Return(0),
			generation.EndMethod(),
		)
	}
	for op := generation.OpMarkClassTrue; op <= generation.OpMarkClassFBig; op++ {
		id := kindClass(op)
		is = append(is, generation.DeclareClass(id, strings.TrimPrefix(op.String(), "MarkClass")))
		for _, sel := range []string{"+", "-", "=="} {
			is = append(is, generation.InheritMethod(numberID, id, hash(sel)))
		}
		is = append(is, generation.MarkClass(op, id))
	}
	return is
}

func boot(t *testing.T) (*VM, *TestRuntime) {
	t.Helper()
	rt := NewTestRuntime()
	vm := New(rt)
	if err := vm.Eval(prelude()); err != nil {
		t.Fatalf("prelude: %v", err)
	}
	return vm, rt
}

func run(t *testing.T, vm *VM, is ...generation.Instruction) *Object {
	t.Helper()
	if err := vm.Eval(is); err != nil {
		t.Fatalf("eval: %v", err)
	}
	o, err := vm.EvalPop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	return o
}

func integer(op generation.Op, s string) generation.Instruction {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return generation.LoadConstInt(op, v)
}

func TestNumberPromotion(t *testing.T) {
	u8 := func(s string) generation.Instruction { return integer(generation.OpLoadConstU8, s) }
	i8 := func(s string) generation.Instruction { return integer(generation.OpLoadConstI8, s) }
	i32 := func(s string) generation.Instruction { return integer(generation.OpLoadConstI32, s) }
	i64 := func(s string) generation.Instruction { return integer(generation.OpLoadConstI64, s) }
	u32 := func(s string) generation.Instruction { return integer(generation.OpLoadConstU32, s) }
	u64 := func(s string) generation.Instruction { return integer(generation.OpLoadConstU64, s) }
	u128 := func(s string) generation.Instruction { return integer(generation.OpLoadConstU128, s) }
	ubig := func(s string) generation.Instruction { return integer(generation.OpLoadConstUBig, s) }
	ibig := func(s string) generation.Instruction { return integer(generation.OpLoadConstIBig, s) }

	tests := []struct {
		name     string
		receiver generation.Instruction
		selector string
		operand  generation.Instruction
		kind     Kind
		want     string
	}{
		{"u8 overflow widens", u8("250"), "+", u8("10"), KindU16, "260"},
		{"u8 without overflow", u8("25"), "+", u8("10"), KindU8, "35"},
		{"i8 overflow widens", i8("100"), "+", i8("100"), KindI16, "200"},
		{"i8 underflow widens", i8("-100"), "-", i8("100"), KindI16, "-200"},
		{"unsigned below zero", u8("5"), "-", u8("10"), KindI16, "-5"},
		{"int32 sum", i32("2000000000"), "+", i32("2000000000"), KindI64, "4000000000"},
		{"mixed signedness", u8("1"), "+", i8("1"), KindI16, "2"},
		{"mixed keeps unsigned range", u32("1"), "+", i8("1"), KindI64, "2"},
		{"u64 max and i64", u64("18446744073709551615"), "+", i64("1"), KindI128, "18446744073709551616"},
		{"i64 overflow", i64("9223372036854775807"), "+", i64("1"), KindI128, "9223372036854775808"},
		{"u128 overflow", u128("340282366920938463463374607431768211455"), "+", u128("1"), KindUBig, "340282366920938463463374607431768211456"},
		{"u128 and signed", u128("1"), "+", i8("1"), KindIBig, "2"},
		{"big operands", ubig("1"), "-", ibig("3"), KindIBig, "-2"},
		{"ubig below zero", ubig("1"), "-", ubig("3"), KindIBig, "-2"},
		{"f32 and small int", generation.LoadConstF32(1.5), "+", u8("2"), KindF32, "3.5"},
		{"f32 and int32", generation.LoadConstF32(1.5), "+", i32("2"), KindF64, "3.5"},
		{"f32 and u64", generation.LoadConstF32(0.5), "+", u64("1"), KindFBig, "1.5"},
		{"f64 and int32", generation.LoadConstF64(0.25), "+", i32("1"), KindF64, "1.25"},
		{"f64 and i64", generation.LoadConstF64(0.25), "-", i64("1"), KindFBig, "-0.75"},
		{"f32 and f64", generation.LoadConstF32(0.5), "+", generation.LoadConstF64(0.25), KindF64, "0.75"},
		{"fbig absorbs", generation.LoadConstFBig(big.NewRat(1, 2)), "+", i8("1"), KindFBig, "1.5"},
		{"int and float operand", i32("1"), "+", generation.LoadConstF64(0.5), KindF64, "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, _ := boot(t)
			got := run(t, vm, tt.operand, tt.receiver, send(tt.selector))
			if got.Kind() != tt.kind || got.String() != tt.want {
				t.Fatalf("got %s %s, want %s %s", got.Kind(), got, tt.kind, tt.want)
			}
			if got.Class() == nil || got.Class().Name != tt.kind.String() {
				t.Fatalf("boxed into %v", got.Class())
			}
		})
	}
}

func TestPromoteIsSymmetric(t *testing.T) {
	for a := KindU8; a <= KindFBig; a++ {
		for b := KindU8; b <= KindFBig; b++ {
			if promote(a, b) != promote(b, a) {
				t.Fatalf("promote(%s, %s) = %s, promote(%s, %s) = %s", a, b, promote(a, b), b, a, promote(b, a))
			}
		}
	}
}

func TestWidenFindsNarrowestFit(t *testing.T) {
	tests := []struct {
		from Kind
		v    int64
		want Kind
	}{
		{KindU8, 255, KindU8},
		{KindU8, 256, KindU16},
		{KindU8, 70000, KindU32},
		{KindU16, -1, KindI32},
		{KindI8, -129, KindI16},
		{KindI32, 1 << 40, KindI64},
	}
	for _, tt := range tests {
		if got := widen(tt.from, big.NewInt(tt.v)); got != tt.want {
			t.Errorf("widen(%s, %d) = %s, want %s", tt.from, tt.v, got, tt.want)
		}
	}
}

func TestNotANumber(t *testing.T) {
	vm, rt := boot(t)
	err := vm.Eval(generation.Instructions{
		generation.LoadConstString("x"),
		integer(generation.OpLoadConstU8, "1"),
		send("+"),
	})
	var p *Panic
	if !errors.As(err, &p) || p.Message != "not a number" {
		t.Fatalf("err = %v", err)
	}
	if len(rt.Panics) != 1 || rt.Panics[0] != p {
		t.Fatalf("runtime saw %v", rt.Panics)
	}
	if len(p.CallStack) != 1 || p.CallStack[0].Method.Name != "Number#+" {
		t.Fatalf("call stack = %v", p.CallStack)
	}
	if vm.Len() != 0 {
		t.Fatalf("stack not cleared after panic: %d", vm.Len())
	}

	// the VM keeps working after a panic
	if got := run(t, vm, integer(generation.OpLoadConstU8, "1"), integer(generation.OpLoadConstU8, "2"), send("+")); got.String() != "3" {
		t.Fatalf("after panic: %s", got)
	}
}

func TestRuntimeNotInitialized(t *testing.T) {
	vm := New(NewTestRuntime())
	err := vm.Eval(generation.Instructions{generation.LoadConstString("x")})
	if !errors.Is(err, ErrRuntimeNotInitialized) {
		t.Fatalf("err = %v", err)
	}
}

func TestObjectEq(t *testing.T) {
	tests := []struct {
		name string
		a, b generation.Instruction
		want ast.Id
	}{
		{"same number", integer(generation.OpLoadConstU8, "1"), integer(generation.OpLoadConstU8, "1"), kindClass(generation.OpMarkClassTrue)},
		{"different number", integer(generation.OpLoadConstU8, "1"), integer(generation.OpLoadConstU8, "2"), kindClass(generation.OpMarkClassFalse)},
		{"different width", integer(generation.OpLoadConstU8, "1"), integer(generation.OpLoadConstU16, "1"), kindClass(generation.OpMarkClassFalse)},
		{"strings", generation.LoadConstString("a"), generation.LoadConstString("a"), kindClass(generation.OpMarkClassTrue)},
		{"instances", generation.LoadObject(kindClass(generation.OpMarkClassTrue)), generation.LoadObject(kindClass(generation.OpMarkClassTrue)), kindClass(generation.OpMarkClassTrue)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, _ := boot(t)
			got := run(t, vm, tt.b, tt.a, send("=="))
			if got.Class().ID != tt.want {
				t.Fatalf("got %s", got)
			}
		})
	}
}

func TestMethodCall(t *testing.T) {
	vm, _ := boot(t)
	got := run(t, vm,
		generation.DeclareClass(mainID, "Main"),
		generation.BeginMethod(hash("twice:"), "Main#twice:"),
		generation.LoadLocal(1),
		generation.LoadLocal(2),
		send("+"),
		generation.Return(2),
		generation.EndMethod(),
		integer(generation.OpLoadConstI32, "21"),
		generation.LoadObject(mainID),
		send("twice:"),
	)
	if got.String() != "42" || got.Kind() != KindI32 {
		t.Fatalf("got %s %s", got.Kind(), got)
	}
	if vm.Len() != 0 {
		t.Fatalf("stack has %d leftovers", vm.Len())
	}
}

func TestVariables(t *testing.T) {
	vm, rt := boot(t)
	decl := generation.Instructions{
		generation.DeclareClass(boxID, "Box"),
		generation.DeclareVariable(valueID, "value"),
	}
	if err := vm.Eval(decl); err != nil {
		t.Fatal(err)
	}
	got := run(t, vm,
		integer(generation.OpLoadConstI32, "7"),
		generation.LoadObject(boxID),
		send("value:"),
		send("value"),
	)
	if got.String() != "7" {
		t.Fatalf("value = %s", got)
	}

	err := vm.Eval(generation.Instructions{generation.LoadObject(boxID), send("value")})
	var p *Panic
	if !errors.As(err, &p) || !strings.Contains(p.Message, "not initialized") {
		t.Fatalf("uninitialized read: %v", err)
	}
	if len(rt.Panics) != 1 {
		t.Fatalf("panics = %d", len(rt.Panics))
	}
}

func TestSetterCopies(t *testing.T) {
	vm, _ := boot(t)
	err := vm.Eval(generation.Instructions{
		generation.DeclareClass(boxID, "Box"),
		generation.DeclareVariable(valueID, "value"),
		integer(generation.OpLoadConstI32, "1"),
		generation.LoadObject(boxID),
		send("value:"),
		integer(generation.OpLoadConstI32, "2"),
		generation.LoadLocal(1),
		send("value:"),
	})
	if err != nil {
		t.Fatal(err)
	}
	second, _ := vm.EvalPop()
	first, _ := vm.EvalPop()
	a, _ := first.Variable(valueID)
	b, _ := second.Variable(valueID)
	if a.String() != "1" || b.String() != "2" {
		t.Fatalf("first %s, second %s", a, b)
	}
}

func TestLazy(t *testing.T) {
	vm, _ := boot(t)
	body := generation.Instructions{
		generation.LoadLocal(0),
		generation.LoadLocal(1),
		send("+"),
		generation.ReturnLazy(1),
	}
	err := vm.Eval(generation.Instructions{
		integer(generation.OpLoadConstI32, "20"),
		generation.LoadLazy(1, body),
	})
	if err != nil {
		t.Fatal(err)
	}
	if vm.Len() != 1 {
		t.Fatalf("lazy must replace its dependencies, stack = %d", vm.Len())
	}
	// forced as an operand of +
	got := run(t, vm, integer(generation.OpLoadConstI32, "2"), send("+"))
	if got.String() != "42" {
		t.Fatalf("got %s", got)
	}
}

func TestLazyReceiverAndDependencyOrder(t *testing.T) {
	vm, _ := boot(t)
	// the first dependency ends up deepest: 10 - 3
	body := generation.Instructions{
		generation.LoadLocal(0),
		generation.LoadLocal(2),
		send("-"),
		generation.ReturnLazy(2),
	}
	got := run(t, vm,
		integer(generation.OpLoadConstI32, "1"),
		integer(generation.OpLoadConstI32, "10"),
		integer(generation.OpLoadConstI32, "3"),
		generation.LoadLazy(2, body),
		send("+"),
	)
	if got.String() != "8" {
		t.Fatalf("got %s", got)
	}
}

func TestLazyRunsOnce(t *testing.T) {
	vm, _ := boot(t)
	o := &Object{kind: KindLazy, lazy: &lazy{body: generation.Instructions{
		integer(generation.OpLoadConstI32, "1"),
		generation.ReturnLazy(0),
	}}}
	first, err := vm.force(o)
	if err != nil {
		t.Fatal(err)
	}
	o.lazy.body = nil
	second, err := vm.force(o)
	if err != nil || second != first {
		t.Fatalf("second force = %v %v", second, err)
	}
}

func TestPanicCallStack(t *testing.T) {
	vm, rt := boot(t)
	err := vm.Eval(generation.Instructions{
		generation.DeclareClass(mainID, "Main"),
		generation.BeginMethod(hash("fail"), "Main#fail"),
		generation.LoadConstString("boom"),
		generation.Panic(),
		generation.Return(1),
		generation.EndMethod(),
		generation.BeginMethod(hash("run"), "Main#run"),
		generation.LoadLocal(0),
		generation.CallMethod(hash("fail"), "test:main.loa", 3, 5),
		generation.Return(1),
		generation.EndMethod(),
		generation.LoadObject(mainID),
		generation.CallMethod(hash("run"), "main:", 0, 0),
		generation.Halt(),
	})
	var p *Panic
	if !errors.As(err, &p) {
		t.Fatalf("err = %v", err)
	}
	if p.Message != "boom" || len(p.CallStack) != 2 {
		t.Fatalf("panic = %s", p.Format())
	}
	if p.CallStack[0].Method.Name != "Main#run" || p.CallStack[1].Method.Name != "Main#fail" {
		t.Fatal("frames must be outermost first")
	}
	if got := p.CallStack[1].Callsite.String(); got != "test:main.loa:3:5" {
		t.Fatalf("callsite = %s", got)
	}

	var buf bytes.Buffer
	(&TerminalRuntime{Out: &buf}).PrintPanic(rt.Panics[0])
	out := buf.String()
	for _, want := range []string{"PANIC: boom", "Main Main#fail", "(test:main.loa:3:5)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestMessageNotUnderstood(t *testing.T) {
	vm, _ := boot(t)
	err := vm.Eval(generation.Instructions{generation.LoadConstString("x"), send("frobnicate")})
	var p *Panic
	if !errors.As(err, &p) || !strings.Contains(p.Message, "not understood") {
		t.Fatalf("err = %v", err)
	}
}

func TestStackOverflow(t *testing.T) {
	vm, _ := boot(t)
	vm.WithMaxDepth(50)
	err := vm.Eval(generation.Instructions{
		generation.DeclareClass(mainID, "Main"),
		generation.BeginMethod(hash("loop"), "Main#loop"),
		generation.LoadLocal(0),
		send("loop"),
		generation.Return(1),
		generation.EndMethod(),
		generation.LoadObject(mainID),
		send("loop"),
	})
	var p *Panic
	if !errors.As(err, &p) || !strings.HasPrefix(p.Message, "stack overflow") {
		t.Fatalf("err = %v", err)
	}
	if len(p.CallStack) != 50 {
		t.Fatalf("depth = %d", len(p.CallStack))
	}
}

func TestGlobals(t *testing.T) {
	vm, _ := boot(t)
	if err := vm.Eval(generation.Instructions{integer(generation.OpLoadConstI32, "40"), generation.StoreGlobal(0x900)}); err != nil {
		t.Fatal(err)
	}
	got := run(t, vm, integer(generation.OpLoadConstI32, "2"), generation.LoadGlobal(0x900), send("+"))
	if got.String() != "42" {
		t.Fatalf("got %s", got)
	}
	err := vm.Eval(generation.Instructions{generation.LoadGlobal(0x901)})
	var p *Panic
	if !errors.As(err, &p) {
		t.Fatalf("missing global: %v", err)
	}
}

func TestHaltStops(t *testing.T) {
	vm, _ := boot(t)
	err := vm.Eval(generation.Instructions{
		integer(generation.OpLoadConstI32, "1"),
		generation.Halt(),
		integer(generation.OpLoadConstI32, "2"),
	})
	if err != nil || !vm.Halted() || vm.Len() != 1 {
		t.Fatalf("err %v, halted %v, stack %d", err, vm.Halted(), vm.Len())
	}
}

func TestObjectString(t *testing.T) {
	vm, _ := boot(t)
	tests := []struct {
		in   generation.Instruction
		want string
	}{
		{generation.LoadConstString("hi"), "hi"},
		{generation.LoadConstSymbol("at:put:"), "#at:put:"},
		{generation.LoadConstCharacter('λ'), "λ"},
		{integer(generation.OpLoadConstIBig, "-123456789012345678901234567890"), "-123456789012345678901234567890"},
		{generation.LoadConstF32(0.1), "0.1"},
		{generation.LoadConstF64(2.5), "2.5"},
		{generation.LoadConstFBig(big.NewRat(1, 8)), "0.125"},
		{generation.LoadConstFBig(big.NewRat(3, 1)), "3"},
		{generation.LoadObject(kindClass(generation.OpMarkClassTrue)), "a True"},
	}
	for _, tt := range tests {
		if got := run(t, vm, tt.in).String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, got, tt.want)
		}
	}
	third := decimal(big.NewRat(1, 3))
	if !strings.HasPrefix(third, "0.3333") || len(third) != 2+maxDecimals {
		t.Fatalf("1/3 = %s", third)
	}
}
