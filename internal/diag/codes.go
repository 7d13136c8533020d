package diag

import "fmt"

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Синтаксис
	SyntaxError Code = 1

	// Разрешение имён
	UndefinedTypeReference Code = 2
	UndefinedReference     Code = 3
	UndefinedBehaviour     Code = 4
	UndefinedImport        Code = 5
	UnexportedImport       Code = 6

	// Типы
	UnassignableType        Code = 7
	DuplicatedDeclaration   Code = 8
	InvalidInherit          Code = 9
	InvalidLiteralType      Code = 10
	OutOfBounds             Code = 11
	TooPreciseFloat         Code = 12
	WrongNumberOfTypeArgs   Code = 13
	InvalidVarianceUsage    Code = 14
	InvalidPrivateAccess    Code = 15
	IncompleteInitializer   Code = 16
	UndefinedInitializedVar Code = 17
)

var codeTitles = map[Code]string{
	UnknownCode:             "Unknown error",
	SyntaxError:             "Syntax error",
	UndefinedTypeReference:  "Undefined type reference",
	UndefinedReference:      "Undefined reference",
	UndefinedBehaviour:      "Undefined behaviour",
	UndefinedImport:         "Undefined import",
	UnexportedImport:        "Unexported import",
	UnassignableType:        "Unassignable type",
	DuplicatedDeclaration:   "Duplicated declaration",
	InvalidInherit:          "Invalid inherit",
	InvalidLiteralType:      "Invalid literal type",
	OutOfBounds:             "Number literal out of bounds",
	TooPreciseFloat:         "Float literal too precise",
	WrongNumberOfTypeArgs:   "Wrong number of type arguments",
	InvalidVarianceUsage:    "Invalid type parameter variance usage",
	InvalidPrivateAccess:    "Invalid access to private method",
	IncompleteInitializer:   "Incomplete initializer",
	UndefinedInitializedVar: "Undefined initialized variable",
}

// DefaultSeverity is the level a code is reported at.
func (c Code) DefaultSeverity() Severity {
	if c == TooPreciseFloat {
		return SevWarning
	}
	return SevError
}

func (c Code) ID() string {
	return fmt.Sprintf("L%03d", uint16(c))
}

func (c Code) Title() string {
	if title, ok := codeTitles[c]; ok {
		return title
	}
	return codeTitles[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
