package vm

import (
	"math/big"

	"loa/internal/generation"
)

// width describes a numeric kind. bits == 0 means arbitrary precision.
type width struct {
	bits   uint
	signed bool
	float  bool
}

var widths = [kindCount]width{
	KindU8:   {bits: 8},
	KindU16:  {bits: 16},
	KindU32:  {bits: 32},
	KindU64:  {bits: 64},
	KindU128: {bits: 128},
	KindUBig: {},
	KindI8:   {bits: 8, signed: true},
	KindI16:  {bits: 16, signed: true},
	KindI32:  {bits: 32, signed: true},
	KindI64:  {bits: 64, signed: true},
	KindI128: {bits: 128, signed: true},
	KindIBig: {signed: true},
	KindF32:  {bits: 32, signed: true, float: true},
	KindF64:  {bits: 64, signed: true, float: true},
	KindFBig: {signed: true, float: true},
}

// bounds holds the inclusive range of every fixed-width integer kind.
var bounds [kindCount]struct{ min, max *big.Int }

func init() {
	one := big.NewInt(1)
	for k := KindU8; k <= KindIBig; k++ {
		w := widths[k]
		if w.bits == 0 {
			continue
		}
		if w.signed {
			top := new(big.Int).Lsh(one, w.bits-1)
			bounds[k].min = new(big.Int).Neg(top)
			bounds[k].max = top.Sub(top, one)
		} else {
			bounds[k].min = new(big.Int)
			bounds[k].max = new(big.Int).Sub(new(big.Int).Lsh(one, w.bits), one)
		}
	}
}

// integerKind is the integer kind of the given width; widths above 128 bits
// are arbitrary precision.
func integerKind(bits uint, signed bool) Kind {
	base := KindU8
	if signed {
		base = KindI8
	}
	switch bits {
	case 8:
		return base
	case 16:
		return base + 1
	case 32:
		return base + 2
	case 64:
		return base + 3
	case 128:
		return base + 4
	}
	return base + 5
}

// fits reports whether v is representable in integer kind k.
func fits(k Kind, v *big.Int) bool {
	w := widths[k]
	if w.bits == 0 {
		return w.signed || v.Sign() >= 0
	}
	b := bounds[k]
	return v.Cmp(b.min) >= 0 && v.Cmp(b.max) <= 0
}

// widen walks up from k until v fits. A negative result of unsigned kinds
// moves to the signed kind of twice the width, so the magnitude still fits.
func widen(k Kind, v *big.Int) Kind {
	for !fits(k, v) {
		w := widths[k]
		if !w.signed && v.Sign() < 0 {
			k = integerKind(2*w.bits, true)
			continue
		}
		k++
	}
	return k
}

// promote picks the kind both operands are converted to. It never loses
// range: mixed signedness doubles the unsigned width, and floats absorb
// integers only while their mantissa covers the integer.
func promote(a, b Kind) Kind {
	wa, wb := widths[a], widths[b]
	switch {
	case wa.float && wb.float:
		return max(a, b)
	case wa.float:
		return floatWith(a, wb)
	case wb.float:
		return floatWith(b, wa)
	case wa.signed == wb.signed:
		return max(a, b)
	}
	s, u := wa, wb
	if !wa.signed {
		s, u = wb, wa
	}
	if s.bits == 0 || u.bits == 0 || u.bits >= 128 {
		return KindIBig
	}
	return integerKind(max(s.bits, 2*u.bits), true)
}

func floatWith(f Kind, i width) Kind {
	if i.bits == 0 {
		return KindFBig
	}
	switch f {
	case KindF32:
		if i.bits <= 16 {
			return KindF32
		}
		if i.bits <= 32 {
			return KindF64
		}
	case KindF64:
		if i.bits <= 32 {
			return KindF64
		}
	}
	return KindFBig
}

type arithmetic uint8

const (
	add arithmetic = iota
	subtract
)

// numberOp implements Number_plus and Number_minus. The receiver is on top
// of the stack and the operand below it.
func (vm *VM) numberOp(op arithmetic) error {
	receiver, err := vm.popForced()
	if err != nil {
		return err
	}
	operand, err := vm.popForced()
	if err != nil {
		return err
	}
	if !receiver.kind.IsNumber() || !operand.kind.IsNumber() {
		return vm.panicf("not a number")
	}

	var result *Object
	switch k := promote(receiver.kind, operand.kind); k {
	case KindF32:
		a, b := float32(receiver.toFloat64()), float32(operand.toFloat64())
		r := a + b
		if op == subtract {
			r = a - b
		}
		result, err = vm.boxFloat(KindF32, float64(r))
	case KindF64:
		a, b := receiver.toFloat64(), operand.toFloat64()
		r := a + b
		if op == subtract {
			r = a - b
		}
		result, err = vm.boxFloat(KindF64, r)
	case KindFBig:
		a, ok := receiver.toRat()
		if !ok {
			return vm.panicf("%s has no exact value", receiver)
		}
		b, ok := operand.toRat()
		if !ok {
			return vm.panicf("%s has no exact value", operand)
		}
		if op == subtract {
			a.Sub(a, b)
		} else {
			a.Add(a, b)
		}
		result, err = vm.boxRat(a)
	default:
		r := new(big.Int)
		if op == subtract {
			r.Sub(receiver.num, operand.num)
		} else {
			r.Add(receiver.num, operand.num)
		}
		result, err = vm.boxInt(widen(k, r), r)
	}
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) objectEq() error {
	receiver, err := vm.popForced()
	if err != nil {
		return err
	}
	operand, err := vm.popForced()
	if err != nil {
		return err
	}
	result, err := vm.boxBool(Equal(receiver, operand))
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) callNative(n generation.Native) error {
	switch n {
	case generation.NativeNumberPlus:
		return vm.numberOp(add)
	case generation.NativeNumberMinus:
		return vm.numberOp(subtract)
	case generation.NativeObjectEq:
		return vm.objectEq()
	}
	return vm.panicf("unknown native method %s", n)
}
