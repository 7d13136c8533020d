package checkers

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"loa/internal/ast"
	"loa/internal/diag"
	"loa/internal/semantics"
)

// literal is a number literal together with the class it was typed with.
type literal struct {
	node  *ast.Node
	text  string
	value *big.Rat
	float bool
	typ   semantics.Type
	class semantics.NumberClass
}

// numberLiterals types every number literal. Literals left without a
// numeric context are skipped; lowering picks a class that fits them.
// numeric is false for literals typed with anything but a numeric class.
func numberLiterals(c *Context, fn func(l literal, numeric bool)) {
	for _, node := range c.Nav.AllNumberLiterals() {
		l := literal{node: node}
		switch k := node.Kind.(type) {
		case ast.IntegerExpression:
			if k.Value == nil {
				continue
			}
			l.text = k.Token.Text
			l.value = new(big.Rat).SetInt(k.Value)
		case ast.FloatExpression:
			l.text = k.Token.Text
			l.value = k.Value
			l.float = true
		}
		if l.value == nil {
			continue
		}
		typ := c.Types.TypeOfExpression(node)
		switch typ.(type) {
		case semantics.UnresolvedInteger, semantics.UnresolvedFloat, semantics.Unknown:
			continue
		}
		l.typ = typ
		ct, ok := typ.(semantics.ClassType)
		if ok {
			qn, _ := c.Nav.QualifiedNameOf(c.Nav.FindNode(ct.ID))
			l.class, ok = semantics.NumberClassOf(qn)
		}
		fn(l, ok)
	}
}

func checkNumberBounds(c *Context) {
	numberLiterals(c, func(l literal, numeric bool) {
		if !numeric || (l.float && !l.class.AcceptsFloats()) {
			c.Report(diag.NewInvalidLiteralType(l.node.Span, l.typ.String()))
			return
		}
		if l.class.Float {
			if reason, ok := floatOverflow(l.value, l.class.Bits); ok {
				c.Report(diag.NewOutOfBounds(l.node.Span, l.typ.String(), reason))
			}
			return
		}
		v := l.value.Num()
		if min := l.class.Min(); min != nil && v.Cmp(min) < 0 {
			c.Report(diag.NewOutOfBounds(l.node.Span, l.typ.String(), "be less than "+min.String()))
			return
		}
		if max := l.class.Max(); max != nil && v.Cmp(max) > 0 {
			c.Report(diag.NewOutOfBounds(l.node.Span, l.typ.String(), "be greater than "+max.String()))
		}
	})
}

// floatOverflow reports literals whose magnitude is past the largest finite
// value of a fixed width float.
func floatOverflow(v *big.Rat, bits int) (string, bool) {
	var f float64
	var max float64
	switch bits {
	case 32:
		f32, _ := v.Float32()
		f, max = float64(f32), math.MaxFloat32
	case 64:
		f, _ = v.Float64()
		max = math.MaxFloat64
	default:
		return "", false
	}
	limit := strconv.FormatFloat(max, 'g', -1, bits)
	switch {
	case math.IsInf(f, 1):
		return "be greater than " + limit, true
	case math.IsInf(f, -1):
		return "be less than -" + limit, true
	}
	return "", false
}

// checkFloatPrecision warns about literals whose decimal text doesn't
// survive a round trip through the fixed width float they are typed with.
func checkFloatPrecision(c *Context) {
	numberLiterals(c, func(l literal, numeric bool) {
		if !numeric || !l.class.Float || (l.class.Bits != 32 && l.class.Bits != 64) {
			return
		}
		var shortest string
		if l.class.Bits == 32 {
			f, _ := l.value.Float32()
			if math.IsInf(float64(f), 0) {
				return
			}
			shortest = strconv.FormatFloat(float64(f), 'g', -1, 32)
		} else {
			f, _ := l.value.Float64()
			if math.IsInf(f, 0) {
				return
			}
			shortest = strconv.FormatFloat(f, 'g', -1, 64)
		}
		back, ok := new(big.Rat).SetString(shortest)
		if !ok || back.Cmp(l.value) != 0 {
			d := diag.NewTooPreciseFloat(l.node.Span, l.text, l.typ.String())
			// экспоненциальную запись литералы не поддерживают
			if !strings.ContainsAny(shortest, "eE") {
				d = d.WithFix("Use `"+shortest+"`", diag.FixEdit{Span: l.node.Span, NewText: shortest})
			}
			c.Report(d)
		}
	})
}
