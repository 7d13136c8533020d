package vm

import (
	"loa/internal/ast"
	"loa/internal/generation"
)

// Class is a runtime class: a name and the methods it responds to, keyed
// by selector hash. Inherited methods are linked in by InheritMethod, so a
// lookup never walks a superclass chain.
type Class struct {
	ID   ast.Id
	Name string

	methods   map[uint64]*Method
	variables []ast.Id
}

func newClass(id ast.Id, name string) *Class {
	return &Class{ID: id, Name: name, methods: make(map[uint64]*Method)}
}

// Method looks up the method registered under a selector hash.
func (c *Class) Method(hash uint64) (*Method, bool) {
	m, ok := c.methods[hash]
	return m, ok
}

// Responds reports whether c has a method for selector.
func (c *Class) Responds(selector string) bool {
	_, ok := c.methods[generation.SelectorHash(selector)]
	return ok
}

// Method is either bytecode or an accessor implemented by the VM.
type Method struct {
	Name string
	Hash uint64
	Code generation.Instructions

	native func(vm *VM) error
}

// declareVariable synthesizes the getter `name` and the setter `name:`.
// The setter returns a copy of the receiver.
func (c *Class) declareVariable(id ast.Id, name string) {
	c.variables = append(c.variables, id)

	getter := &Method{Name: c.Name + "#" + name, Hash: generation.SelectorHash(name)}
	getter.native = func(vm *VM) error {
		receiver, err := vm.pop()
		if err != nil {
			return err
		}
		v, ok := receiver.vars[id]
		if !ok {
			return vm.panicf("variable %s of %s is not initialized", name, receiver)
		}
		vm.push(v)
		return nil
	}

	setter := &Method{Name: c.Name + "#" + name + ":", Hash: generation.SelectorHash(name + ":")}
	setter.native = func(vm *VM) error {
		receiver, err := vm.pop()
		if err != nil {
			return err
		}
		value, err := vm.pop()
		if err != nil {
			return err
		}
		vm.push(receiver.with(id, value))
		return nil
	}

	c.methods[getter.Hash] = getter
	c.methods[setter.Hash] = setter
}
