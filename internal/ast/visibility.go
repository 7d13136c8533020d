package ast

// Visibility описывает доступность метода или переменной.
type Visibility uint8

const (
	// VisDefault is used when no modifier is written; it behaves as public.
	VisDefault Visibility = iota
	VisPrivate
	VisPublic
)

func (v Visibility) String() string {
	switch v {
	case VisPrivate:
		return "private"
	case VisPublic:
		return "public"
	default:
		return ""
	}
}

// IsPrivate reports whether the member is hidden outside its class.
func (v Visibility) IsPrivate() bool { return v == VisPrivate }

// Variance annotates a type parameter.
type Variance uint8

const (
	// Invariant is the default when no annotation is written.
	Invariant Variance = iota
	In
	Out
	Inout
)

func (v Variance) String() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	case Inout:
		return "inout"
	default:
		return ""
	}
}
