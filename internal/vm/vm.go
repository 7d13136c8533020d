package vm

import (
	"errors"
	"fmt"
	"math/big"

	"loa/internal/ast"
	"loa/internal/generation"
	"loa/internal/trace"
)

// DefaultMaxDepth bounds the number of nested method activations.
const DefaultMaxDepth = 10000

// VM is a stack machine evaluating generated instructions. Classes,
// methods and globals survive between Eval calls, which is what lets the
// REPL feed it one line at a time.
type VM struct {
	rt     Runtime
	tracer trace.Tracer

	classes map[ast.Id]*Class
	globals map[ast.Id]*Object
	stack   []*Object
	calls   *CallStack

	// built-in classes named by MarkClass
	builtin    [kindCount]*Class
	trueClass  *Class
	falseClass *Class

	declaring *Class
	maxDepth  int
	halted    bool
}

// New creates an empty VM reporting panics to rt.
func New(rt Runtime) *VM {
	if rt == nil {
		rt = NewTestRuntime()
	}
	return &VM{
		rt:       rt,
		tracer:   trace.Nop,
		classes:  make(map[ast.Id]*Class),
		globals:  make(map[ast.Id]*Object),
		maxDepth: DefaultMaxDepth,
	}
}

// WithTracer makes the VM emit class registrations and panics to t.
func (vm *VM) WithTracer(t trace.Tracer) *VM {
	if t != nil {
		vm.tracer = t
	}
	return vm
}

// WithMaxDepth limits method nesting; deeper sends panic.
func (vm *VM) WithMaxDepth(n int) *VM {
	if n > 0 {
		vm.maxDepth = n
	}
	return vm
}

// Class returns a registered class.
func (vm *VM) Class(id ast.Id) (*Class, bool) {
	c, ok := vm.classes[id]
	return c, ok
}

// Global returns the value stored by StoreGlobal.
func (vm *VM) Global(id ast.Id) (*Object, bool) {
	o, ok := vm.globals[id]
	return o, ok
}

// Len is the number of objects on the stack.
func (vm *VM) Len() int { return len(vm.stack) }

// Halted reports whether the last evaluation stopped on Halt.
func (vm *VM) Halted() bool { return vm.halted }

// Eval runs is until it ends or halts. A panic is reported through the
// Runtime, clears the stack and is returned as *Panic.
func (vm *VM) Eval(is generation.Instructions) error {
	vm.halted = false
	return vm.report(vm.exec(is))
}

// EvalPop pops the top of the stack and forces it.
func (vm *VM) EvalPop() (*Object, error) {
	o, err := vm.popForced()
	if err != nil {
		return nil, vm.report(err)
	}
	return o, nil
}

func (vm *VM) report(err error) error {
	var p *Panic
	if errors.As(err, &p) {
		trace.Point(vm.tracer, trace.ScopePass, "panic", p.Message, 0)
		vm.rt.PrintPanic(p)
		vm.stack = vm.stack[:0]
		vm.calls = nil
	}
	return err
}

func (vm *VM) push(o *Object) {
	vm.stack = append(vm.stack, o)
}

func (vm *VM) pop() (*Object, error) {
	if len(vm.stack) == 0 {
		return nil, vm.panicf("empty stack")
	}
	o := vm.stack[len(vm.stack)-1]
	vm.stack[len(vm.stack)-1] = nil
	vm.stack = vm.stack[:len(vm.stack)-1]
	return o, nil
}

func (vm *VM) popForced() (*Object, error) {
	o, err := vm.pop()
	if err != nil {
		return nil, err
	}
	return vm.force(o)
}

// local is the object index slots below the top.
func (vm *VM) local(index uint16) (*Object, error) {
	i := len(vm.stack) - 1 - int(index)
	if i < 0 {
		return nil, vm.panicf("not enough locals on the stack")
	}
	return vm.stack[i], nil
}

func (vm *VM) dropLocal(index uint16) error {
	i := len(vm.stack) - 1 - int(index)
	if i < 0 {
		return vm.panicf("not enough locals on the stack")
	}
	vm.stack = append(vm.stack[:i], vm.stack[i+1:]...)
	return nil
}

// ret leaves result in place of the top arity+1 objects.
func (vm *VM) ret(arity uint16) error {
	result, err := vm.pop()
	if err != nil {
		return err
	}
	if int(arity) > len(vm.stack) {
		return vm.panicf("return drops %d objects from a stack of %d", arity, len(vm.stack))
	}
	clear(vm.stack[len(vm.stack)-int(arity):])
	vm.stack = vm.stack[:len(vm.stack)-int(arity)]
	vm.push(result)
	return nil
}

func (vm *VM) lookupClass(id ast.Id) (*Class, error) {
	c, ok := vm.classes[id]
	if !ok {
		return nil, vm.panicf("no class %s", id)
	}
	return c, nil
}

// exec runs a sequence until it is exhausted, returns or halts.
func (vm *VM) exec(is generation.Instructions) error {
	for pc := 0; pc < len(is); pc++ {
		in := is[pc]
		switch in.Op {
		case generation.OpNoop:

		case generation.OpHalt:
			vm.halted = true
			return nil

		case generation.OpPanic:
			msg, err := vm.popForced()
			if err != nil {
				return err
			}
			return vm.panicf("%s", msg)

		case generation.OpDeclareClass:
			if c, ok := vm.classes[in.ID]; ok {
				vm.declaring = c
				break
			}
			c := newClass(in.ID, in.Name)
			vm.classes[in.ID] = c
			vm.declaring = c
			trace.Point(vm.tracer, trace.ScopeModule, "class", in.Name, 0)

		case generation.OpDeclareVariable:
			if vm.declaring == nil {
				return vm.panicf("variable %s outside a class", in.Name)
			}
			vm.declaring.declareVariable(in.ID, in.Name)

		case generation.OpBeginMethod:
			end := pc + 1
			for end < len(is) && is[end].Op != generation.OpEndMethod {
				end++
			}
			if end == len(is) {
				return vm.panicf("method %s is never closed", in.Name)
			}
			if vm.declaring == nil {
				return vm.panicf("method %s outside a class", in.Name)
			}
			vm.declaring.methods[in.Hash] = &Method{Name: in.Name, Hash: in.Hash, Code: is[pc+1 : end]}
			pc = end

		case generation.OpEndMethod:
			return vm.panicf("EndMethod without BeginMethod")

		case generation.OpInheritMethod:
			from, err := vm.lookupClass(in.ID)
			if err != nil {
				return err
			}
			to, err := vm.lookupClass(in.To)
			if err != nil {
				return err
			}
			m, ok := from.methods[in.Hash]
			if !ok {
				return vm.panicf("%s has no method %016X to inherit", from.Name, in.Hash)
			}
			if _, overridden := to.methods[in.Hash]; !overridden {
				to.methods[in.Hash] = m
			}

		case generation.OpLoadObject:
			c, err := vm.lookupClass(in.ID)
			if err != nil {
				return err
			}
			vm.push(&Object{class: c})

		case generation.OpLoadLocal:
			o, err := vm.local(in.Index)
			if err != nil {
				return err
			}
			vm.push(o)

		case generation.OpDropLocal:
			if err := vm.dropLocal(in.Index); err != nil {
				return err
			}

		case generation.OpStoreGlobal:
			o, err := vm.pop()
			if err != nil {
				return err
			}
			vm.globals[in.ID] = o

		case generation.OpLoadGlobal:
			o, ok := vm.globals[in.ID]
			if !ok {
				return vm.panicf("global %s is not initialized", in.ID)
			}
			vm.push(o)

		case generation.OpCallMethod:
			if err := vm.callMethod(in); err != nil {
				return err
			}
			if vm.halted {
				return nil
			}

		case generation.OpCallNative:
			if err := vm.callNative(in.Native); err != nil {
				return err
			}

		case generation.OpLoadLazy:
			deps := make([]*Object, in.Index)
			for i := len(deps) - 1; i >= 0; i-- {
				o, err := vm.pop()
				if err != nil {
					return err
				}
				deps[i] = o
			}
			vm.push(&Object{kind: KindLazy, lazy: &lazy{body: in.Body, deps: deps, calls: vm.calls}})

		case generation.OpReturnLazy, generation.OpReturn:
			return vm.ret(in.Index)

		default:
			var err error
			switch {
			case in.Op.IsMarkClass():
				err = vm.markClass(in)
			case in.Op.IsLoadConst():
				err = vm.loadConst(in)
			default:
				err = fmt.Errorf("vm: unknown instruction %s", in.Op)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (vm *VM) callMethod(in generation.Instruction) error {
	receiver, err := vm.popForced()
	if err != nil {
		return err
	}
	if receiver.class == nil {
		return vm.panicf("%s has no class", receiver)
	}
	m, ok := receiver.class.methods[in.Hash]
	if !ok {
		return vm.panicf("message %016X not understood by %s", in.Hash, receiver)
	}
	if vm.calls.Depth() >= vm.maxDepth {
		return vm.panicf("stack overflow in %s", m.Name)
	}
	vm.push(receiver)

	saved := vm.calls
	vm.calls = vm.calls.Push(Frame{
		Receiver: receiver,
		Method:   m,
		Callsite: Callsite{URI: in.Name, Line: in.Line, Character: in.Character},
	})
	if m.native != nil {
		err = m.native(vm)
	} else {
		err = vm.exec(m.Code)
	}
	vm.calls = saved
	return err
}

// force evaluates lazy values until o is a plain object. The result is
// remembered, so a lazy value runs at most once.
func (vm *VM) force(o *Object) (*Object, error) {
	for o.kind == KindLazy {
		l := o.lazy
		if l.value != nil {
			o = l.value
			continue
		}
		vm.stack = append(vm.stack, l.deps...)
		saved := vm.calls
		vm.calls = l.calls
		err := vm.exec(l.body)
		vm.calls = saved
		if err != nil {
			return nil, err
		}
		v, err := vm.pop()
		if err != nil {
			return nil, err
		}
		l.value = v
		o = v
	}
	return o, nil
}

func (vm *VM) markClass(in generation.Instruction) error {
	c, err := vm.lookupClass(in.ID)
	if err != nil {
		return err
	}
	switch in.Op {
	case generation.OpMarkClassTrue:
		vm.trueClass = c
	case generation.OpMarkClassFalse:
		vm.falseClass = c
	default:
		vm.builtin[kindOfMark(in.Op)] = c
	}
	return nil
}

func (vm *VM) loadConst(in generation.Instruction) error {
	k := kindOfConst(in.Op)
	var (
		o   *Object
		err error
	)
	switch {
	case k == KindString, k == KindSymbol:
		o, err = vm.box(k)
		if err == nil {
			o.str = in.Name
		}
	case k == KindCharacter:
		o, err = vm.box(k)
		if err == nil {
			o.char = in.Char
		}
	case k.IsInteger():
		o, err = vm.boxInt(k, in.Int)
	case k == KindFBig:
		o, err = vm.boxRat(in.Rat)
	default:
		o, err = vm.boxFloat(k, in.Float)
	}
	if err != nil {
		return err
	}
	vm.push(o)
	return nil
}

func (vm *VM) box(k Kind) (*Object, error) {
	c := vm.builtin[k]
	if c == nil {
		return nil, fmt.Errorf("%w: no class is marked as %s", ErrRuntimeNotInitialized, k)
	}
	return &Object{class: c, kind: k}, nil
}

func (vm *VM) boxInt(k Kind, v *big.Int) (*Object, error) {
	o, err := vm.box(k)
	if err != nil {
		return nil, err
	}
	o.num = new(big.Int).Set(v)
	return o, nil
}

func (vm *VM) boxFloat(k Kind, f float64) (*Object, error) {
	o, err := vm.box(k)
	if err != nil {
		return nil, err
	}
	o.float = f
	return o, nil
}

func (vm *VM) boxRat(r *big.Rat) (*Object, error) {
	o, err := vm.box(KindFBig)
	if err != nil {
		return nil, err
	}
	o.rat = new(big.Rat).Set(r)
	return o, nil
}

func (vm *VM) boxBool(b bool) (*Object, error) {
	c, name := vm.falseClass, "False"
	if b {
		c, name = vm.trueClass, "True"
	}
	if c == nil {
		return nil, fmt.Errorf("%w: no class is marked as %s", ErrRuntimeNotInitialized, name)
	}
	return &Object{class: c}, nil
}
