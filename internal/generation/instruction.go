package generation

import (
	"fmt"
	"hash/fnv"
	"math/big"
	"strconv"
	"strings"

	"loa/internal/ast"
)

// Op is the operation code of an instruction.
type Op uint8

const (
	OpNoop Op = iota
	OpHalt
	OpPanic
	OpDeclareClass
	OpDeclareVariable
	OpBeginMethod
	OpEndMethod
	OpInheritMethod
	OpLoadObject
	OpLoadLocal
	OpDropLocal
	OpStoreGlobal
	OpLoadGlobal
	OpCallMethod
	OpCallNative
	OpLoadLazy
	OpReturnLazy
	OpReturn

	OpMarkClassTrue
	OpMarkClassFalse
	OpMarkClassString
	OpMarkClassCharacter
	OpMarkClassSymbol
	OpMarkClassU8
	OpMarkClassU16
	OpMarkClassU32
	OpMarkClassU64
	OpMarkClassU128
	OpMarkClassUBig
	OpMarkClassI8
	OpMarkClassI16
	OpMarkClassI32
	OpMarkClassI64
	OpMarkClassI128
	OpMarkClassIBig
	OpMarkClassF32
	OpMarkClassF64
	OpMarkClassFBig

	OpLoadConstString
	OpLoadConstCharacter
	OpLoadConstSymbol
	OpLoadConstU8
	OpLoadConstU16
	OpLoadConstU32
	OpLoadConstU64
	OpLoadConstU128
	OpLoadConstUBig
	OpLoadConstI8
	OpLoadConstI16
	OpLoadConstI32
	OpLoadConstI64
	OpLoadConstI128
	OpLoadConstIBig
	OpLoadConstF32
	OpLoadConstF64
	OpLoadConstFBig

	opCount
)

var opNames = [...]string{
	OpNoop:            "Noop",
	OpHalt:            "Halt",
	OpPanic:           "Panic",
	OpDeclareClass:    "DeclareClass",
	OpDeclareVariable: "DeclareVariable",
	OpBeginMethod:     "BeginMethod",
	OpEndMethod:       "EndMethod",
	OpInheritMethod:   "InheritMethod",
	OpLoadObject:      "LoadObject",
	OpLoadLocal:       "LoadLocal",
	OpDropLocal:       "DropLocal",
	OpStoreGlobal:     "StoreGlobal",
	OpLoadGlobal:      "LoadGlobal",
	OpCallMethod:      "CallMethod",
	OpCallNative:      "CallNative",
	OpLoadLazy:        "LoadLazy",
	OpReturnLazy:      "ReturnLazy",
	OpReturn:          "Return",

	OpMarkClassTrue:      "MarkClassTrue",
	OpMarkClassFalse:     "MarkClassFalse",
	OpMarkClassString:    "MarkClassString",
	OpMarkClassCharacter: "MarkClassCharacter",
	OpMarkClassSymbol:    "MarkClassSymbol",
	OpMarkClassU8:        "MarkClassU8",
	OpMarkClassU16:       "MarkClassU16",
	OpMarkClassU32:       "MarkClassU32",
	OpMarkClassU64:       "MarkClassU64",
	OpMarkClassU128:      "MarkClassU128",
	OpMarkClassUBig:      "MarkClassUBig",
	OpMarkClassI8:        "MarkClassI8",
	OpMarkClassI16:       "MarkClassI16",
	OpMarkClassI32:       "MarkClassI32",
	OpMarkClassI64:       "MarkClassI64",
	OpMarkClassI128:      "MarkClassI128",
	OpMarkClassIBig:      "MarkClassIBig",
	OpMarkClassF32:       "MarkClassF32",
	OpMarkClassF64:       "MarkClassF64",
	OpMarkClassFBig:      "MarkClassFBig",

	OpLoadConstString:    "LoadConstString",
	OpLoadConstCharacter: "LoadConstCharacter",
	OpLoadConstSymbol:    "LoadConstSymbol",
	OpLoadConstU8:        "LoadConstU8",
	OpLoadConstU16:       "LoadConstU16",
	OpLoadConstU32:       "LoadConstU32",
	OpLoadConstU64:       "LoadConstU64",
	OpLoadConstU128:      "LoadConstU128",
	OpLoadConstUBig:      "LoadConstUBig",
	OpLoadConstI8:        "LoadConstI8",
	OpLoadConstI16:       "LoadConstI16",
	OpLoadConstI32:       "LoadConstI32",
	OpLoadConstI64:       "LoadConstI64",
	OpLoadConstI128:      "LoadConstI128",
	OpLoadConstIBig:      "LoadConstIBig",
	OpLoadConstF32:       "LoadConstF32",
	OpLoadConstF64:       "LoadConstF64",
	OpLoadConstFBig:      "LoadConstFBig",
}

func (op Op) String() string {
	if op < opCount {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Valid reports whether op is a known operation.
func (op Op) Valid() bool { return op < opCount }

// OpByName looks an operation up by its mnemonic.
func OpByName(name string) (Op, bool) {
	for i, n := range opNames {
		if n == name {
			return Op(i), true
		}
	}
	return 0, false
}

// IsMarkClass reports whether op tags a class as a built-in representation.
func (op Op) IsMarkClass() bool { return op >= OpMarkClassTrue && op <= OpMarkClassFBig }

// IsLoadConst reports whether op boxes a constant.
func (op Op) IsLoadConst() bool { return op >= OpLoadConstString && op <= OpLoadConstFBig }

// IsIntegerConst reports whether op boxes an integer constant.
func (op Op) IsIntegerConst() bool { return op >= OpLoadConstU8 && op <= OpLoadConstIBig }

// Native is a method implemented by the virtual machine itself.
type Native uint8

const (
	NativeNumberPlus Native = iota
	NativeNumberMinus
	NativeObjectEq

	nativeCount
)

var nativeNames = [...]string{
	NativeNumberPlus:  "Number_plus",
	NativeNumberMinus: "Number_minus",
	NativeObjectEq:    "Object_eq",
}

// natives maps the qualified name of a `native` method to its implementation.
var natives = map[string]Native{
	"Loa/Number#+":  NativeNumberPlus,
	"Loa/Number#-":  NativeNumberMinus,
	"Loa/Object#==": NativeObjectEq,
}

func (n Native) String() string {
	if n < nativeCount {
		return nativeNames[n]
	}
	return fmt.Sprintf("Native(%d)", uint8(n))
}

// Valid reports whether n is a known native method.
func (n Native) Valid() bool { return n < nativeCount }

// NativeByName looks a native up by its mnemonic, e.g. "Number_plus".
func NativeByName(name string) (Native, bool) {
	for i, s := range nativeNames {
		if s == name {
			return Native(i), true
		}
	}
	return 0, false
}

// NativeOfMethod finds the native implementing a method, e.g. "Loa/Number#+".
func NativeOfMethod(qualifiedName string) (Native, bool) {
	n, ok := natives[qualifiedName]
	return n, ok
}

// SelectorHash is the dispatch key of a selector. It depends on the
// selector only, so an inherited method keeps its key in every subclass.
func SelectorHash(selector string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(selector))
	return h.Sum64()
}

const classObjectBit ast.Id = 1 << 63

// ClassObjectID is the id the class object of class is registered under.
func ClassObjectID(class ast.Id) ast.Id { return class | classObjectBit }

// IsClassObjectID reports whether id was produced by ClassObjectID.
func IsClassObjectID(id ast.Id) bool { return id&classObjectBit != 0 }

// Instruction is one step of the virtual machine. Only the operands of Op
// are meaningful; the rest stay zero.
type Instruction struct {
	Op Op

	// ID is the class, variable or global the instruction refers to;
	// InheritMethod copies from ID to To.
	ID ast.Id
	To ast.Id

	Hash  uint64
	Index uint16 // local index or arity
	Name  string // class or method name, string or symbol constant, call site URI

	Line      uint32
	Character uint32

	Native Native
	Char   rune
	Int    *big.Int
	Float  float64
	Rat    *big.Rat

	// Body is the code of a lazy value.
	Body Instructions
}

// Instructions is a linear piece of code.
type Instructions []Instruction

// ===== Конструкторы =====

func Noop() Instruction  { return Instruction{Op: OpNoop} }
func Halt() Instruction  { return Instruction{Op: OpHalt} }
func Panic() Instruction { return Instruction{Op: OpPanic} }

// DeclareClass creates the class (or selects it when it already exists);
// following methods and variables are attached to it.
func DeclareClass(id ast.Id, name string) Instruction {
	return Instruction{Op: OpDeclareClass, ID: id, Name: name}
}

// DeclareVariable gives the declaring class a variable with a getter
// `name` and a setter `name:`.
func DeclareVariable(id ast.Id, name string) Instruction {
	return Instruction{Op: OpDeclareVariable, ID: id, Name: name}
}

func BeginMethod(hash uint64, name string) Instruction {
	return Instruction{Op: OpBeginMethod, Hash: hash, Name: name}
}

func EndMethod() Instruction { return Instruction{Op: OpEndMethod} }

func InheritMethod(from, to ast.Id, hash uint64) Instruction {
	return Instruction{Op: OpInheritMethod, ID: from, To: to, Hash: hash}
}

func LoadObject(class ast.Id) Instruction { return Instruction{Op: OpLoadObject, ID: class} }

func LoadLocal(index uint16) Instruction { return Instruction{Op: OpLoadLocal, Index: index} }
func DropLocal(index uint16) Instruction { return Instruction{Op: OpDropLocal, Index: index} }

func StoreGlobal(id ast.Id) Instruction { return Instruction{Op: OpStoreGlobal, ID: id} }
func LoadGlobal(id ast.Id) Instruction  { return Instruction{Op: OpLoadGlobal, ID: id} }

// CallMethod sends the selector with hash to the object on top of the stack.
func CallMethod(hash uint64, uri string, line, character uint32) Instruction {
	return Instruction{Op: OpCallMethod, Hash: hash, Name: uri, Line: line, Character: character}
}

func CallNative(n Native) Instruction { return Instruction{Op: OpCallNative, Native: n} }

// LoadLazy pops arity dependencies and pushes a value computing body on demand.
func LoadLazy(arity uint16, body Instructions) Instruction {
	return Instruction{Op: OpLoadLazy, Index: arity, Body: body}
}

func ReturnLazy(arity uint16) Instruction { return Instruction{Op: OpReturnLazy, Index: arity} }
func Return(arity uint16) Instruction     { return Instruction{Op: OpReturn, Index: arity} }

// MarkClass tags class as the representation of a built-in value kind.
func MarkClass(op Op, class ast.Id) Instruction { return Instruction{Op: op, ID: class} }

func LoadConstString(s string) Instruction { return Instruction{Op: OpLoadConstString, Name: s} }
func LoadConstSymbol(s string) Instruction { return Instruction{Op: OpLoadConstSymbol, Name: s} }
func LoadConstCharacter(c rune) Instruction {
	return Instruction{Op: OpLoadConstCharacter, Char: c}
}

// LoadConstInt boxes an integer; op picks the width.
func LoadConstInt(op Op, v *big.Int) Instruction {
	return Instruction{Op: op, Int: new(big.Int).Set(v)}
}

func LoadConstF32(f float32) Instruction { return Instruction{Op: OpLoadConstF32, Float: float64(f)} }
func LoadConstF64(f float64) Instruction { return Instruction{Op: OpLoadConstF64, Float: f} }
func LoadConstFBig(r *big.Rat) Instruction {
	return Instruction{Op: OpLoadConstFBig, Rat: new(big.Rat).Set(r)}
}

// Equal compares two instructions operand by operand.
func (i Instruction) Equal(o Instruction) bool {
	if i.Op != o.Op || i.ID != o.ID || i.To != o.To || i.Hash != o.Hash || i.Index != o.Index ||
		i.Name != o.Name || i.Line != o.Line || i.Character != o.Character ||
		i.Native != o.Native || i.Char != o.Char || i.Float != o.Float {
		return false
	}
	if (i.Int == nil) != (o.Int == nil) || (i.Int != nil && i.Int.Cmp(o.Int) != 0) {
		return false
	}
	if (i.Rat == nil) != (o.Rat == nil) || (i.Rat != nil && i.Rat.Cmp(o.Rat) != 0) {
		return false
	}
	return i.Body.Equal(o.Body)
}

// Equal compares two instruction streams.
func (is Instructions) Equal(o Instructions) bool {
	if len(is) != len(o) {
		return false
	}
	for k := range is {
		if !is[k].Equal(o[k]) {
			return false
		}
	}
	return true
}

// String renders the instruction on one line; lazy bodies are shown inline.
func (i Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(i.Op.String())
	switch {
	case i.Op == OpDeclareClass, i.Op == OpDeclareVariable:
		fmt.Fprintf(&sb, " %s %q", i.ID, i.Name)
	case i.Op == OpBeginMethod:
		fmt.Fprintf(&sb, " %016X %q", i.Hash, i.Name)
	case i.Op == OpInheritMethod:
		fmt.Fprintf(&sb, " %s %s %016X", i.ID, i.To, i.Hash)
	case i.Op == OpLoadObject, i.Op == OpStoreGlobal, i.Op == OpLoadGlobal, i.Op.IsMarkClass():
		fmt.Fprintf(&sb, " %s", i.ID)
	case i.Op == OpLoadLocal, i.Op == OpDropLocal, i.Op == OpReturn, i.Op == OpReturnLazy:
		fmt.Fprintf(&sb, " %d", i.Index)
	case i.Op == OpCallMethod:
		fmt.Fprintf(&sb, " %016X %q %d %d", i.Hash, i.Name, i.Line, i.Character)
	case i.Op == OpCallNative:
		fmt.Fprintf(&sb, " %s", i.Native)
	case i.Op == OpLoadLazy:
		fmt.Fprintf(&sb, " %d {", i.Index)
		for k, b := range i.Body {
			if k > 0 {
				sb.WriteString(";")
			}
			sb.WriteString(" ")
			sb.WriteString(b.String())
		}
		sb.WriteString(" }")
	case i.Op == OpLoadConstString:
		fmt.Fprintf(&sb, " %q", i.Name)
	case i.Op == OpLoadConstSymbol:
		fmt.Fprintf(&sb, " #%s", i.Name)
	case i.Op == OpLoadConstCharacter:
		fmt.Fprintf(&sb, " %q", i.Char)
	case i.Op.IsIntegerConst():
		fmt.Fprintf(&sb, " %s", i.Int)
	case i.Op == OpLoadConstF32:
		fmt.Fprintf(&sb, " %s", formatFloat(i.Float, 32))
	case i.Op == OpLoadConstF64:
		fmt.Fprintf(&sb, " %s", formatFloat(i.Float, 64))
	case i.Op == OpLoadConstFBig:
		fmt.Fprintf(&sb, " %s", i.Rat.RatString())
	}
	return sb.String()
}

func (is Instructions) String() string {
	var sb strings.Builder
	for _, i := range is {
		sb.WriteString(i.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatFloat(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}
