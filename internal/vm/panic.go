package vm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuntimeNotInitialized is returned when a value has to be boxed into a
// built-in class that no MarkClass instruction has named yet.
var ErrRuntimeNotInitialized = errors.New("runtime not initialized")

// Panic is a Loa runtime panic. It ends the current top-level evaluation;
// the VM stays usable for the next one.
type Panic struct {
	Message   string
	CallStack []Frame // outermost first
}

// Error implements the error interface.
func (p *Panic) Error() string {
	return "panic: " + p.Message
}

// Format renders the message and the call stack, one frame per line.
func (p *Panic) Format() string {
	var sb strings.Builder
	sb.WriteString(p.Error())
	for _, f := range p.CallStack {
		sb.WriteString("\n  ")
		sb.WriteString(f.String())
	}
	return sb.String()
}

// panicf builds a panic carrying the current call stack.
func (vm *VM) panicf(format string, args ...any) *Panic {
	return &Panic{
		Message:   fmt.Sprintf(format, args...),
		CallStack: vm.calls.Frames(),
	}
}
