package ast

import (
	"fmt"
	"sync/atomic"
)

// Id is a process-unique handle of a node. Ids are never reused.
type Id uint64

// Null denotes an absent child.
const Null Id = 0

// первые 0xffff значений зарезервированы
var lastID atomic.Uint64

func init() {
	lastID.Store(0xfffe)
}

// NewId allocates the next Id.
func NewId() Id {
	return Id(lastID.Add(1))
}

func (id Id) IsValid() bool { return id != Null }

func (id Id) String() string {
	return fmt.Sprintf("#%X", uint64(id))
}
