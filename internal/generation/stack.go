package generation

import (
	"fortio.org/safecast"

	"loa/internal/ast"
)

type slotKind uint8

const (
	slotSelf slotKind = iota
	slotDeclaration
	slotExpression
)

type slot struct {
	kind slotKind
	id   ast.Id
}

// simulatedStack mirrors the VM value stack while a method is lowered, so
// locals can be addressed by their distance from the top.
type simulatedStack struct {
	slots []slot
}

func (s *simulatedStack) pushSelf()                { s.slots = append(s.slots, slot{kind: slotSelf}) }
func (s *simulatedStack) pushDeclaration(id ast.Id) { s.slots = append(s.slots, slot{slotDeclaration, id}) }
func (s *simulatedStack) pushExpression(id ast.Id)  { s.slots = append(s.slots, slot{slotExpression, id}) }

func (s *simulatedStack) pop() {
	if len(s.slots) > 0 {
		s.slots = s.slots[:len(s.slots)-1]
	}
}

func (s *simulatedStack) popN(n int) {
	for range n {
		s.pop()
	}
}

func (s *simulatedStack) size() int { return len(s.slots) }

// declareTop turns the value on top into the local id.
func (s *simulatedStack) declareTop(id ast.Id) {
	s.pop()
	s.pushDeclaration(id)
}

func (s *simulatedStack) dropIndex(index int) {
	at := len(s.slots) - 1 - index
	if at < 0 || at >= len(s.slots) {
		return
	}
	s.slots = append(s.slots[:at], s.slots[at+1:]...)
}

func (s *simulatedStack) find(match func(slot) bool) (uint16, bool) {
	for i := len(s.slots) - 1; i >= 0; i-- {
		if match(s.slots[i]) {
			idx, err := safecast.Conv[uint16](len(s.slots) - 1 - i)
			return idx, err == nil
		}
	}
	return 0, false
}

func (s *simulatedStack) indexOf(id ast.Id) (uint16, bool) {
	return s.find(func(e slot) bool { return e.kind != slotSelf && e.id == id })
}

func (s *simulatedStack) indexOfSelf() (uint16, bool) {
	return s.find(func(e slot) bool { return e.kind == slotSelf })
}
