package semantics

import "math/big"

// NumberClass describes one of the standard library's numeric classes.
// Bits is 0 for the arbitrary precision and abstract classes.
type NumberClass struct {
	Name     string
	Float    bool
	Signed   bool
	Bits     int
	Abstract bool
}

var numberClasses = map[string]NumberClass{
	"Loa/Number":  {Name: "Loa/Number", Signed: true, Abstract: true},
	"Loa/Integer": {Name: "Loa/Integer", Signed: true, Abstract: true},
	"Loa/Natural": {Name: "Loa/Natural", Abstract: true},
	"Loa/Float":   {Name: "Loa/Float", Float: true, Signed: true, Abstract: true},

	"Loa/UInt8":      {Name: "Loa/UInt8", Bits: 8},
	"Loa/UInt16":     {Name: "Loa/UInt16", Bits: 16},
	"Loa/UInt32":     {Name: "Loa/UInt32", Bits: 32},
	"Loa/UInt64":     {Name: "Loa/UInt64", Bits: 64},
	"Loa/UInt128":    {Name: "Loa/UInt128", Bits: 128},
	"Loa/BigNatural": {Name: "Loa/BigNatural"},

	"Loa/Int8":       {Name: "Loa/Int8", Signed: true, Bits: 8},
	"Loa/Int16":      {Name: "Loa/Int16", Signed: true, Bits: 16},
	"Loa/Int32":      {Name: "Loa/Int32", Signed: true, Bits: 32},
	"Loa/Int64":      {Name: "Loa/Int64", Signed: true, Bits: 64},
	"Loa/Int128":     {Name: "Loa/Int128", Signed: true, Bits: 128},
	"Loa/BigInteger": {Name: "Loa/BigInteger", Signed: true},

	"Loa/Float32":  {Name: "Loa/Float32", Float: true, Signed: true, Bits: 32},
	"Loa/Float64":  {Name: "Loa/Float64", Float: true, Signed: true, Bits: 64},
	"Loa/BigFloat": {Name: "Loa/BigFloat", Float: true, Signed: true},
}

// NumberClassOf looks up a numeric class by qualified name.
func NumberClassOf(qualifiedName string) (NumberClass, bool) {
	c, ok := numberClasses[qualifiedName]
	return c, ok
}

// AcceptsFloats reports whether a float literal may be typed with the class.
func (c NumberClass) AcceptsFloats() bool {
	return c.Float || c.Name == "Loa/Number"
}

// Bounded reports whether the class has a fixed integer range.
func (c NumberClass) Bounded() bool {
	return !c.Float && c.Bits > 0
}

// Min returns the smallest value of a bounded integer class, or of the
// naturals (0) for unbounded unsigned classes. nil means unbounded.
func (c NumberClass) Min() *big.Int {
	if c.Float {
		return nil
	}
	if !c.Signed {
		return new(big.Int)
	}
	if c.Bits == 0 {
		return nil
	}
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(c.Bits-1)))
}

// Max returns the largest value of a bounded integer class; nil means unbounded.
func (c NumberClass) Max() *big.Int {
	if c.Float || c.Bits == 0 {
		return nil
	}
	bits := c.Bits
	if c.Signed {
		bits--
	}
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return max.Sub(max, big.NewInt(1))
}

// Fits reports whether v is within the class's integer range.
func (c NumberClass) Fits(v *big.Int) bool {
	if min := c.Min(); min != nil && v.Cmp(min) < 0 {
		return false
	}
	if max := c.Max(); max != nil && v.Cmp(max) > 0 {
		return false
	}
	return true
}

// NarrowestInteger picks the class an abstract integer literal lowers to:
// the narrowest fixed width starting at 32 bits, then the big class.
func NarrowestInteger(v *big.Int, signed bool) NumberClass {
	names := []string{"Loa/Int32", "Loa/Int64", "Loa/Int128", "Loa/BigInteger"}
	if !signed {
		names = []string{"Loa/UInt32", "Loa/UInt64", "Loa/UInt128", "Loa/BigNatural"}
	}
	for _, name := range names {
		c := numberClasses[name]
		if c.Fits(v) {
			return c
		}
	}
	return numberClasses[names[len(names)-1]]
}

// NarrowestFloat picks the class an abstract float literal lowers to: the
// narrowest width representing v exactly, else BigFloat.
func NarrowestFloat(v *big.Rat) NumberClass {
	if _, exact := v.Float32(); exact {
		return numberClasses["Loa/Float32"]
	}
	if _, exact := v.Float64(); exact {
		return numberClasses["Loa/Float64"]
	}
	return numberClasses["Loa/BigFloat"]
}
