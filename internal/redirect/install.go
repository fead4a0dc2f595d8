package redirect

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrOperationNotFound means the class does not define the operation.
	ErrOperationNotFound = errors.New("redirect: operation not found")

	// ErrAlreadyInstalled means a wrapper already serves the operation.
	ErrAlreadyInstalled = errors.New("redirect: wrapper already installed")

	// ErrSignatureMismatch means the operation has a different func type.
	ErrSignatureMismatch = errors.New("redirect: signature mismatch")

	// ErrNilWrapper means the factory returned a nil wrapper.
	ErrNilWrapper = errors.New("redirect: factory returned nil wrapper")
)

// Target identifies an operation of a class.
type Target struct {
	Class     *Class
	Operation string
}

// String implements fmt.Stringer.
func (t Target) String() string {
	if t.Class == nil {
		return "<nil>." + t.Operation
	}
	return t.Class.Name() + "." + t.Operation
}

// HookError is the error returned by [Install].
type HookError struct {
	// Target is the target we could not hook.
	Target Target

	// Err is one of the ErrXXX errors defined by this package.
	Err error
}

// Error implements error.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s: %s", e.Target, e.Err.Error())
}

// Unwrap allows to use errors.Is with [*HookError].
func (e *HookError) Unwrap() error {
	return e.Err
}

// Install replaces the implementation of target with the wrapper returned
// by factory. The factory is called once with the original implementation,
// which the wrapper may invoke whenever it wants.
//
// The replaced slot is the nearest definition of the operation walking
// from target.Class towards its ancestors, therefore all the classes
// sharing that slot observe the new behavior.
//
// On failure, Install returns a [*HookError] and the class is unmodified.
func Install[F any](target Target, factory func(original F) F) error {
	if target.Class == nil {
		return &HookError{Target: target, Err: ErrOperationNotFound}
	}
	if reflect.TypeOf((*F)(nil)).Elem().Kind() != reflect.Func {
		return &HookError{Target: target, Err: ErrSignatureMismatch}
	}
	owner, _ := target.Class.resolve(target.Operation)
	if owner == nil {
		return &HookError{Target: target, Err: ErrOperationNotFound}
	}

	owner.mu.Lock()
	defer owner.mu.Unlock()
	s := owner.slots[target.Operation]
	if s.hooked {
		return &HookError{Target: target, Err: ErrAlreadyInstalled}
	}
	original, good := s.fn.(F)
	if !good {
		return &HookError{Target: target, Err: ErrSignatureMismatch}
	}
	wrapper := factory(original)
	if v := reflect.ValueOf(wrapper); !v.IsValid() || v.IsNil() {
		return &HookError{Target: target, Err: ErrNilWrapper}
	}
	s.fn = wrapper
	s.hooked = true
	return nil
}

// Lookup returns the func currently serving op on class c. The boolean is
// false when the class does not define op or op has another func type.
func Lookup[F any](c *Class, op string) (F, bool) {
	var zero F
	if c == nil {
		return zero, false
	}
	owner, s := c.resolve(op)
	if owner == nil {
		return zero, false
	}
	fn, good := s.fn.(F)
	return fn, good
}

// Hooked returns whether a wrapper serves op on class c.
func Hooked(c *Class, op string) bool {
	if c == nil {
		return false
	}
	_, s := c.resolve(op)
	return s.hooked
}
