package lexer

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidNumber is returned for literals that do not denote a number.
var ErrInvalidNumber = errors.New("invalid number literal")

// Number is the decomposed text of a SimpleInteger or SimpleFloat token.
type Number struct {
	Base     int
	Integer  string // digits before '.', without separators
	Fraction string // digits after '.', empty for integers
}

// SplitNumber decomposes a numeric literal into base and digits.
func SplitNumber(text string) (Number, error) {
	text = strings.ReplaceAll(text, "_", "")
	n := Number{Base: 10}
	if baseText, digits, ok := strings.Cut(text, "#"); ok {
		base, ok := parseBase(baseText)
		if !ok {
			return Number{}, fmt.Errorf("%w: base %q must be between 2 and 36", ErrInvalidNumber, baseText)
		}
		n.Base = base
		text = digits
	}
	n.Integer, n.Fraction, _ = strings.Cut(text, ".")
	if n.Integer == "" {
		return Number{}, fmt.Errorf("%w: missing digits", ErrInvalidNumber)
	}
	for _, part := range []string{n.Integer, n.Fraction} {
		for i := 0; i < len(part); i++ {
			if digitOf(part[i]) >= n.Base {
				return Number{}, fmt.Errorf("%w: digit %q is out of base %d", ErrInvalidNumber, part[i], n.Base)
			}
		}
	}
	return n, nil
}

// Int returns the exact integer value of the literal.
func (n Number) Int() *big.Int {
	v, _ := new(big.Int).SetString(strings.ToLower(n.Integer), n.Base)
	if v == nil {
		return new(big.Int)
	}
	return v
}

// Rat returns the exact rational value: (integer·base^p + fraction) / base^p.
func (n Number) Rat() *big.Rat {
	digits := strings.ToLower(n.Integer + n.Fraction)
	num, ok := new(big.Int).SetString(digits, n.Base)
	if !ok {
		return new(big.Rat)
	}
	den := new(big.Int).Exp(big.NewInt(int64(n.Base)), big.NewInt(int64(len(n.Fraction))), nil)
	return new(big.Rat).SetFrac(num, den)
}
