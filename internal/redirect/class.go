package redirect

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Class is a named dispatch table. The zero value is invalid; use [NewClass].
type Class struct {
	name   string
	parent *Class

	// mu protects slots.
	mu    sync.RWMutex
	slots map[string]*slot
}

// slot is one entry of the dispatch table.
type slot struct {
	// fn is the func currently serving the operation.
	fn any

	// hooked is true once [Install] replaced fn.
	hooked bool
}

// NewClass creates a new [*Class] with the given name. The parent is
// optional; when not nil, the new class inherits the parent operations.
func NewClass(name string, parent *Class) *Class {
	return &Class{
		name:   name,
		parent: parent,
		mu:     sync.RWMutex{},
		slots:  make(map[string]*slot),
	}
}

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Parent returns the parent class, if any.
func (c *Class) Parent() *Class {
	return c.parent
}

// Define sets the implementation of op on this class, shadowing any
// definition inherited from the parent. This function panics if fn is
// not a non-nil func, because that is a programming error.
func (c *Class) Define(op string, fn any) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("redirect: %s.%s: not a func", c.name, op))
	}
	c.mu.Lock()
	c.slots[op] = &slot{fn: fn}
	c.mu.Unlock()
}

// Responds returns whether this class or one of its ancestors defines op.
func (c *Class) Responds(op string) bool {
	owner, _ := c.resolve(op)
	return owner != nil
}

// Operations returns the sorted names of the operations defined directly by
// this class, excluding the inherited ones.
func (c *Class) Operations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.slots))
	for op := range c.slots {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// resolve walks the class hierarchy looking for op and returns the
// class owning the slot along with a snapshot of the slot.
func (c *Class) resolve(op string) (*Class, slot) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		s, found := cur.slots[op]
		var snapshot slot
		if found {
			snapshot = *s
		}
		cur.mu.RUnlock()
		if found {
			return cur, snapshot
		}
	}
	return nil, slot{}
}

// String implements fmt.Stringer.
func (c *Class) String() string {
	return c.name
}
