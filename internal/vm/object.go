package vm

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"loa/internal/ast"
	"loa/internal/generation"
)

// Kind is the representation backing an object.
type Kind uint8

const (
	KindInstance Kind = iota // plain instance, possibly with variables
	KindString
	KindCharacter
	KindSymbol
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindUBig
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindIBig
	KindF32
	KindF64
	KindFBig
	KindLazy

	kindCount
)

var kindNames = [...]string{
	KindInstance:  "Instance",
	KindString:    "String",
	KindCharacter: "Character",
	KindSymbol:    "Symbol",
	KindU8:        "U8",
	KindU16:       "U16",
	KindU32:       "U32",
	KindU64:       "U64",
	KindU128:      "U128",
	KindUBig:      "UBig",
	KindI8:        "I8",
	KindI16:       "I16",
	KindI32:       "I32",
	KindI64:       "I64",
	KindI128:      "I128",
	KindIBig:      "IBig",
	KindF32:       "F32",
	KindF64:       "F64",
	KindFBig:      "FBig",
	KindLazy:      "Lazy",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsNumber reports whether k boxes a number.
func (k Kind) IsNumber() bool { return k >= KindU8 && k <= KindFBig }

// IsInteger reports whether k boxes an integer of any width.
func (k Kind) IsInteger() bool { return k >= KindU8 && k <= KindIBig }

// IsFloat reports whether k boxes a float of any width.
func (k Kind) IsFloat() bool { return k >= KindF32 && k <= KindFBig }

// kindOfMark maps a MarkClass op onto the kind its class backs. True and
// False are plain instances and have no kind of their own.
func kindOfMark(op generation.Op) Kind {
	return KindString + Kind(op-generation.OpMarkClassString)
}

func kindOfConst(op generation.Op) Kind {
	return KindString + Kind(op-generation.OpLoadConstString)
}

// Object is a value on the VM stack. Objects are immutable: setting an
// instance variable produces a new object.
type Object struct {
	class *Class
	kind  Kind

	str   string // String, Symbol
	char  rune
	num   *big.Int // all integer kinds
	float float64  // F32, F64
	rat   *big.Rat // FBig

	vars map[ast.Id]*Object
	lazy *lazy
}

// lazy is a deferred computation: the body runs on top of deps under the
// call stack that was current when the value was created.
type lazy struct {
	body  generation.Instructions
	deps  []*Object
	calls *CallStack
	value *Object
}

// Class returns the class of o; nil for an unforced lazy value.
func (o *Object) Class() *Class { return o.class }

// Kind returns the representation of o.
func (o *Object) Kind() Kind { return o.kind }

// Int returns the value of an integer object.
func (o *Object) Int() (*big.Int, bool) {
	if !o.kind.IsInteger() {
		return nil, false
	}
	return new(big.Int).Set(o.num), true
}

// Float returns the value of an F32 or F64 object.
func (o *Object) Float() (float64, bool) {
	if o.kind != KindF32 && o.kind != KindF64 {
		return 0, false
	}
	return o.float, true
}

// Rat returns the value of an FBig object.
func (o *Object) Rat() (*big.Rat, bool) {
	if o.kind != KindFBig {
		return nil, false
	}
	return new(big.Rat).Set(o.rat), true
}

// Variable returns the instance variable id of o.
func (o *Object) Variable(id ast.Id) (*Object, bool) {
	v, ok := o.vars[id]
	return v, ok
}

// with returns a copy of o where variable id is set to value.
func (o *Object) with(id ast.Id, value *Object) *Object {
	vars := make(map[ast.Id]*Object, len(o.vars)+1)
	for k, v := range o.vars {
		vars[k] = v
	}
	vars[id] = value
	cp := *o
	cp.vars = vars
	return &cp
}

func (o *Object) String() string {
	switch o.kind {
	case KindInstance:
		name := ""
		if o.class != nil {
			name = o.class.Name
		}
		return "a " + name
	case KindString:
		return o.str
	case KindCharacter:
		return string(o.char)
	case KindSymbol:
		return "#" + o.str
	case KindF32:
		return strconv.FormatFloat(o.float, 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(o.float, 'g', -1, 64)
	case KindFBig:
		return decimal(o.rat)
	case KindLazy:
		return "$lazy"
	}
	if o.num != nil {
		return o.num.String()
	}
	return "?"
}

// maxDecimals bounds the expansion of a rational that has no finite
// decimal representation.
const maxDecimals = 40

// decimal prints r in positional notation, exactly when the expansion
// terminates.
func decimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	den := new(big.Int).Set(r.Denom())
	var twos, fives int
	two, five := big.NewInt(2), big.NewInt(5)
	mod := new(big.Int)
	for {
		q, m := new(big.Int).QuoRem(den, two, mod)
		if m.Sign() != 0 {
			break
		}
		den, twos = q, twos+1
	}
	for {
		q, m := new(big.Int).QuoRem(den, five, mod)
		if m.Sign() != 0 {
			break
		}
		den, fives = q, fives+1
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return r.FloatString(maxDecimals)
	}
	return r.FloatString(max(twos, fives))
}

// Equal is the structural equality behind `==`: the same class and the
// same value. Lazy values compare by identity; callers force them first.
func Equal(a, b *Object) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.class != b.class || a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInstance:
		if len(a.vars) != len(b.vars) {
			return false
		}
		for id, av := range a.vars {
			bv, ok := b.vars[id]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindString, KindSymbol:
		return a.str == b.str
	case KindCharacter:
		return a.char == b.char
	case KindF32, KindF64:
		return a.float == b.float
	case KindFBig:
		return a.rat.Cmp(b.rat) == 0
	case KindLazy:
		return a.lazy == b.lazy
	}
	return a.num.Cmp(b.num) == 0
}

// toFloat64 converts a number to the nearest float64.
func (o *Object) toFloat64() float64 {
	switch {
	case o.kind == KindF32, o.kind == KindF64:
		return o.float
	case o.kind == KindFBig:
		f, _ := o.rat.Float64()
		return f
	}
	f, _ := new(big.Float).SetInt(o.num).Float64()
	return f
}

// toRat converts a number to an exact rational; infinities and NaN have none.
func (o *Object) toRat() (*big.Rat, bool) {
	switch {
	case o.kind == KindF32, o.kind == KindF64:
		if math.IsInf(o.float, 0) || math.IsNaN(o.float) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(o.float), true
	case o.kind == KindFBig:
		return new(big.Rat).Set(o.rat), true
	}
	return new(big.Rat).SetInt(o.num), true
}
