package diag

import (
	"fmt"
	"strings"

	"loa/internal/source"
)

// Конструкторы по одному на вид диагностики. Текст сообщений стабилен:
// на него опираются фикстуры (`// @ ...`) и тесты.

func NewSyntaxError(span source.Span, msg string) Diagnostic {
	return NewError(SyntaxError, span, msg)
}

func NewUndefinedTypeReference(span source.Span, name string) Diagnostic {
	return NewError(UndefinedTypeReference, span, fmt.Sprintf("`%s` is undefined.", name))
}

func NewUndefinedReference(span source.Span, name string) Diagnostic {
	return NewError(UndefinedReference, span, fmt.Sprintf("`%s` is undefined.", name))
}

func NewUndefinedBehaviour(span source.Span, receiver, selector string) Diagnostic {
	return NewError(UndefinedBehaviour, span, fmt.Sprintf("`%s` doesn't respond to `%s`.", receiver, selector))
}

func NewUndefinedImport(span source.Span, name string) Diagnostic {
	return NewError(UndefinedImport, span, fmt.Sprintf("`%s` is undefined.", name))
}

func NewUnexportedImport(span source.Span, name string) Diagnostic {
	return NewError(UnexportedImport, span, fmt.Sprintf("`%s` is not exported.", name))
}

// NewUnassignableType takes the rendered assignability tree (see semantics.Assignability).
func NewUnassignableType(span source.Span, because string) Diagnostic {
	return NewError(UnassignableType, span, because)
}

func NewDuplicatedDeclaration(span source.Span, name string, count int) Diagnostic {
	return NewError(DuplicatedDeclaration, span, fmt.Sprintf("`%s` is defined %d times in this scope.", name, count))
}

// InheritViolation is one reason a class fails to act as its super type.
// Because is the rendered assignability explanation; empty when the
// behaviour is missing altogether.
type InheritViolation struct {
	Behaviour string
	Selector  string
	Because   string
}

func NewInvalidInherit(span source.Span, sub, super string, violations []InheritViolation) Diagnostic {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` doesn't act as `%s` because:", sub, super)
	for _, v := range violations {
		if v.Because == "" {
			fmt.Fprintf(&b, "\n  - it doesn't respond to `%s`", v.Behaviour)
			continue
		}
		fmt.Fprintf(&b, "\n  - it doesn't respond to `%s` like `%s` would", v.Selector, super)
		for _, line := range strings.Split(v.Because, "\n") {
			b.WriteString("\n    ")
			b.WriteString(line)
		}
	}
	return NewError(InvalidInherit, span, b.String())
}

func NewInvalidLiteralType(span source.Span, typ string) Diagnostic {
	return NewError(InvalidLiteralType, span, fmt.Sprintf("`%s` is not a valid type for this literal.", typ))
}

// NewOutOfBounds: reason is e.g. "be less than 0" or "be greater than 255".
func NewOutOfBounds(span source.Span, typ, reason string) Diagnostic {
	return NewError(OutOfBounds, span, fmt.Sprintf("`%s` must not %s.", typ, reason))
}

func NewTooPreciseFloat(span source.Span, literal, typ string) Diagnostic {
	return New(SevWarning, TooPreciseFloat, span,
		fmt.Sprintf("`%s` is too precise to be coerced to %s without losing precision.", literal, typ))
}

func NewWrongNumberOfTypeArguments(span source.Span, name string, params, args int) Diagnostic {
	p := "no"
	if params > 0 {
		p = fmt.Sprint(params)
	}
	a := "none"
	if args > 0 {
		a = fmt.Sprint(args)
	}
	return NewError(WrongNumberOfTypeArgs, span,
		fmt.Sprintf("`%s` takes %s type arguments, but was provided %s.", name, p, a))
}

func NewInvalidVarianceUsage(span source.Span, param, variance, position string) Diagnostic {
	return NewError(InvalidVarianceUsage, span,
		fmt.Sprintf("`%s` is declared as `%s` and cannot be used in %s position.", param, variance, position))
}

func NewInvalidPrivateAccess(span source.Span, selector, class string) Diagnostic {
	return NewError(InvalidPrivateAccess, span,
		fmt.Sprintf("`%s` is a private method of `%s`.", selector, class))
}

func NewIncompleteInitializer(span source.Span, missing []string) Diagnostic {
	quoted := make([]string, len(missing))
	for i, m := range missing {
		quoted[i] = "`" + m + "`"
	}
	return NewError(IncompleteInitializer, span,
		fmt.Sprintf("Initializer doesn't initialize %s.", strings.Join(quoted, ", ")))
}

func NewUndefinedInitializedVariable(span source.Span, name, class string) Diagnostic {
	return NewError(UndefinedInitializedVar, span,
		fmt.Sprintf("`%s` is not a variable of `%s`.", name, class))
}
