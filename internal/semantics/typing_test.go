package semantics_test

import (
	"slices"
	"testing"

	"loa/internal/semantics"
)

const animals = `class Animal<out T> {
  food -> T.
  name -> String => "animal".
  me -> Self => self.
}

class Dog {
  is Animal<String>.
  name -> String => "dog".
}

class Main {
  run -> String => Dog food.
  literal -> Int8 => 5.
  loose => 5.
  float -> Float64 => 1.5.
  sym => #hello.
  str => "hi".
  chr => 'c'.
  me => Dog me.
  cascade -> Int16 => 3 + 4; + 10.
}

let Int64 big = 7.
let small = 7.
`

func TestTypeOfExpressions(t *testing.T) {
	p := analyzeOne(t, animals)

	tests := []struct {
		name   string
		marker string
		kind   string
		want   string
	}{
		{"inherited behaviour with type argument", "Dog food", "MessageSendExpression", "String"},
		{"literal takes return type", "5.\n  loose", "IntegerExpression", "Int8"},
		{"literal without context", "5.\n  float", "IntegerExpression", "Integer"},
		{"float literal takes return type", "1.5", "FloatExpression", "Float64"},
		{"symbol literal", "#hello", "SymbolExpression", "#hello"},
		{"string literal", `"hi"`, "StringExpression", "String"},
		{"character literal", "'c'", "CharacterExpression", "Character"},
		{"self is bound to the receiver", "Dog me", "MessageSendExpression", "Dog"},
		{"annotated global let", "7.\nlet small", "IntegerExpression", "Int64"},
		{"class reference", "Dog food", "ReferenceExpression", "Dog"},
		{"cascade receiver takes return type", "3 + 4;", "IntegerExpression", "Int16"},
		{"cascade argument follows receiver", "10.\n}", "IntegerExpression", "Int16"},
		{"cascade", "3 + 4;", "CascadeExpression", "Int16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.typeOf(p.main(tt.marker, 0, tt.kind)); got != tt.want {
				t.Fatalf("type = %s, want %s", got, tt.want)
			}
		})
	}

	small := p.main("let small", 0, "LetBinding")
	if got := p.typeOf(small); got != "Integer" {
		t.Fatalf("unannotated let = %s", got)
	}
	self := p.main("self.", 0, "SelfExpression")
	if got := p.analysis.Types.TypeOf(self); got.String() != "Self" {
		t.Fatalf("type of self = %s", got)
	}
}

func TestBehavioursFlattenInheritance(t *testing.T) {
	p := analyzeOne(t, animals)
	types := p.analysis.Types

	dog := types.TypeOf(p.main("class Dog", 0, "Class"))
	var selectors []string
	for _, b := range types.Behaviours(dog) {
		selectors = append(selectors, b.Selector())
	}
	slices.Sort(selectors)
	if want := []string{"food", "me", "name"}; !slices.Equal(selectors, want) {
		t.Fatalf("selectors = %v, want %v", selectors, want)
	}

	name, ok := types.BehaviourBySelector(dog, "name")
	if !ok {
		t.Fatal("Dog doesn't respond to name")
	}
	if name.MethodID != p.main(`name -> String => "dog"`, 0, "Method").ID {
		t.Fatal("override does not win over the inherited behaviour")
	}

	food, _ := types.BehaviourBySelector(dog, "food")
	if got := food.String(); got != "Dog food -> String" {
		t.Fatalf("food = %q", got)
	}
}

func TestClassObjectBehaviours(t *testing.T) {
	p := analyzeOne(t, `class Pair {
  var Integer left.
  var Integer right.
  init left: Integer l right: Integer r => left: l right: r.
}

class Main {
  run => Pair left: 1 right: 2.
}
`)
	types := p.analysis.Types

	ref := p.main("Pair left:", 0, "ReferenceExpression")
	obj, ok := types.TypeOf(ref).(semantics.ClassObjectType)
	if !ok {
		t.Fatalf("reference type = %s", types.TypeOf(ref))
	}
	if obj.String() != "Pair class" {
		t.Fatalf("class object = %s", obj)
	}
	b, ok := types.BehaviourBySelector(obj, "left:right:")
	if !ok {
		t.Fatal("class object doesn't respond to its initializer")
	}
	if b.Return.String() != "Pair" {
		t.Fatalf("initializer returns %s", b.Return)
	}

	one := p.main("1 right", 0, "IntegerExpression")
	if got := p.typeOf(one); got != "Integer" {
		t.Fatalf("argument literal = %s", got)
	}
	msg := p.main("left: 1", 0, "KeywordMessage")
	if m := types.MethodFromMessage(msg); m == nil || m.ID != p.main("init left:", 0, "Initializer").ID {
		t.Fatalf("message resolves to %v", m)
	}
}

func TestSuperTypesApplyArguments(t *testing.T) {
	p := analyzeOne(t, `class Box<T> {
  is Container<T>.
}
class Container<out T>.
class Main {
  run -> Box<String> => panic "no".
}
`)
	types := p.analysis.Types
	box, ok := types.TypeOf(p.main("Box<String>", 0, "ReferenceTypeExpression")).(semantics.ClassType)
	if !ok {
		t.Fatal("Box<String> is not a class type")
	}
	supers := types.SuperTypes(box)
	if len(supers) != 1 || supers[0].String() != "Container<String>" {
		t.Fatalf("super types = %v", supers)
	}
}
