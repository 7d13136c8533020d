package vm

import "fmt"

// Callsite is the source location of a message send.
type Callsite struct {
	URI       string
	Line      uint32
	Character uint32
}

func (c Callsite) String() string {
	return fmt.Sprintf("%s:%d:%d", c.URI, c.Line, c.Character)
}

// Frame is one method activation.
type Frame struct {
	Receiver *Object
	Method   *Method
	Callsite Callsite
}

func (f Frame) String() string {
	class := "?"
	if f.Receiver != nil && f.Receiver.class != nil {
		class = f.Receiver.class.Name
	}
	return fmt.Sprintf("%s %s (%s)", class, f.Method.Name, f.Callsite)
}

// CallStack is an immutable linked list of frames, innermost first. A nil
// *CallStack is the empty stack. Lazy values keep the stack that was
// current when they were created, which is cheap because pushing never
// copies.
type CallStack struct {
	parent *CallStack
	frame  Frame
	depth  int
}

// Push returns cs with f on top.
func (cs *CallStack) Push(f Frame) *CallStack {
	return &CallStack{parent: cs, frame: f, depth: cs.Depth() + 1}
}

// Depth is the number of frames.
func (cs *CallStack) Depth() int {
	if cs == nil {
		return 0
	}
	return cs.depth
}

// Frames lists the frames outermost first.
func (cs *CallStack) Frames() []Frame {
	out := make([]Frame, cs.Depth())
	for i, c := len(out)-1, cs; c != nil; i, c = i-1, c.parent {
		out[i] = c.frame
	}
	return out
}
