package generation

import (
	"math/big"

	"loa/internal/ast"
	"loa/internal/semantics"
)

var integerOps = map[string]Op{
	"Loa/UInt8":      OpLoadConstU8,
	"Loa/UInt16":     OpLoadConstU16,
	"Loa/UInt32":     OpLoadConstU32,
	"Loa/UInt64":     OpLoadConstU64,
	"Loa/UInt128":    OpLoadConstU128,
	"Loa/BigNatural": OpLoadConstUBig,
	"Loa/Int8":       OpLoadConstI8,
	"Loa/Int16":      OpLoadConstI16,
	"Loa/Int32":      OpLoadConstI32,
	"Loa/Int64":      OpLoadConstI64,
	"Loa/Int128":     OpLoadConstI128,
	"Loa/BigInteger": OpLoadConstIBig,
}

// contextClass returns the number class a literal is typed with. ok is false
// when the literal has no numeric context at all.
func (g *Generator) contextClass(expr *ast.Node) (class semantics.NumberClass, ok bool, err error) {
	ct, isClass := g.types.TypeOfExpression(expr).(semantics.ClassType)
	if !isClass {
		return semantics.NumberClass{}, false, nil
	}
	qn := ct.Name
	if decl := g.nav.FindNode(ct.ID); decl != nil {
		if name, ok := g.nav.QualifiedNameOf(decl); ok {
			qn = name
		}
	}
	if qn == "Loa/Object" {
		return semantics.NumberClass{}, false, nil
	}
	class, ok = semantics.NumberClassOf(qn)
	if !ok {
		return semantics.NumberClass{}, false, invalidNode(expr, "`%s` is not a number class", ct.Name)
	}
	return class, true, nil
}

// Literals without a concrete class default to the narrowest class that
// holds them, starting at 32 bits.
func (g *Generator) integer(expr *ast.Node, k ast.IntegerExpression) (Instruction, error) {
	class, ok, err := g.contextClass(expr)
	switch {
	case err != nil:
		return Instruction{}, err
	case !ok:
		class = semantics.NarrowestInteger(k.Value, true)
	case class.Abstract && class.Float:
		class = semantics.NarrowestFloat(new(big.Rat).SetInt(k.Value))
	case class.Abstract:
		class = semantics.NarrowestInteger(k.Value, class.Signed)
	}
	if class.Float {
		return floatConst(expr, class, new(big.Rat).SetInt(k.Value))
	}
	if !class.Fits(k.Value) {
		return Instruction{}, invalidNode(expr, "%s does not fit in `%s`", k.Value, class.Name)
	}
	return LoadConstInt(integerOps[class.Name], k.Value), nil
}

func (g *Generator) float(expr *ast.Node, k ast.FloatExpression) (Instruction, error) {
	class, ok, err := g.contextClass(expr)
	switch {
	case err != nil:
		return Instruction{}, err
	case !ok, class.Abstract && class.AcceptsFloats():
		class = semantics.NarrowestFloat(k.Value)
	case !class.Float:
		return Instruction{}, invalidNode(expr, "float literal typed as `%s`", class.Name)
	}
	return floatConst(expr, class, k.Value)
}

func floatConst(expr *ast.Node, class semantics.NumberClass, v *big.Rat) (Instruction, error) {
	switch class.Bits {
	case 32:
		f, _ := v.Float32()
		return LoadConstF32(f), nil
	case 64:
		f, _ := v.Float64()
		return LoadConstF64(f), nil
	case 0:
		return LoadConstFBig(v), nil
	}
	return Instruction{}, invalidNode(expr, "unsupported float width %d", class.Bits)
}
