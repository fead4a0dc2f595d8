package redirect

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type greetFunc = func(self any, name string) string

func newGreeterClass() *Class {
	c := NewClass("Greeter", nil)
	c.Define("Greet", func(self any, name string) string {
		return "hello, " + name
	})
	return c
}

func mustLookup(t *testing.T, c *Class, op string) greetFunc {
	fn, good := Lookup[greetFunc](c, op)
	if !good {
		t.Fatal("lookup failed for", op)
	}
	return fn
}

func TestInstall(t *testing.T) {
	t.Run("the wrapper replaces the original and can call it", func(t *testing.T) {
		c := newGreeterClass()
		var seen []string
		err := Install(Target{Class: c, Operation: "Greet"}, func(original greetFunc) greetFunc {
			return func(self any, name string) string {
				out := original(self, name)
				seen = append(seen, out)
				return out
			}
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := mustLookup(t, c, "Greet")(nil, "world"); got != "hello, world" {
			t.Fatal("unexpected result", got)
		}
		if diff := cmp.Diff([]string{"hello, world"}, seen); diff != "" {
			t.Fatal(diff)
		}
		if !Hooked(c, "Greet") {
			t.Fatal("expected the operation to be hooked")
		}
	})

	t.Run("the factory is called exactly once", func(t *testing.T) {
		c := newGreeterClass()
		var count int
		factory := func(original greetFunc) greetFunc {
			count++
			return original
		}
		if err := Install(Target{Class: c, Operation: "Greet"}, factory); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 4; i++ {
			mustLookup(t, c, "Greet")(nil, "x")
		}
		if count != 1 {
			t.Fatal("unexpected number of factory calls", count)
		}
	})

	t.Run("missing operation leaves the class unmodified", func(t *testing.T) {
		c := newGreeterClass()
		var called bool
		err := Install(Target{Class: c, Operation: "Wave"}, func(original greetFunc) greetFunc {
			called = true
			return original
		})
		var hookErr *HookError
		if !errors.As(err, &hookErr) || !errors.Is(err, ErrOperationNotFound) {
			t.Fatal("unexpected error", err)
		}
		if hookErr.Target.Operation != "Wave" {
			t.Fatal("unexpected target", hookErr.Target)
		}
		if called {
			t.Fatal("the factory should not have been called")
		}
		if c.Responds("Wave") {
			t.Fatal("the class should not respond to Wave")
		}
		if got := mustLookup(t, c, "Greet")(nil, "world"); got != "hello, world" {
			t.Fatal("unexpected result", got)
		}
		if Hooked(c, "Greet") {
			t.Fatal("nothing should be hooked")
		}
	})

	t.Run("installing twice is rejected", func(t *testing.T) {
		c := newGreeterClass()
		target := Target{Class: c, Operation: "Greet"}
		var depth int
		factory := func(original greetFunc) greetFunc {
			return func(self any, name string) string {
				depth++
				return original(self, name)
			}
		}
		if err := Install(target, factory); err != nil {
			t.Fatal(err)
		}
		if err := Install(target, factory); !errors.Is(err, ErrAlreadyInstalled) {
			t.Fatal("unexpected error", err)
		}
		mustLookup(t, c, "Greet")(nil, "x")
		if depth != 1 {
			t.Fatal("expected a single wrapper, got depth", depth)
		}
	})

	t.Run("signature mismatch leaves the class unmodified", func(t *testing.T) {
		c := newGreeterClass()
		err := Install(Target{Class: c, Operation: "Greet"}, func(original func(self any) string) func(self any) string {
			return original
		})
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Fatal("unexpected error", err)
		}
		if Hooked(c, "Greet") {
			t.Fatal("nothing should be hooked")
		}
	})

	t.Run("non-func type parameter is rejected", func(t *testing.T) {
		c := newGreeterClass()
		err := Install(Target{Class: c, Operation: "Greet"}, func(original any) any {
			return original
		})
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("nil wrapper is rejected", func(t *testing.T) {
		c := newGreeterClass()
		err := Install(Target{Class: c, Operation: "Greet"}, func(original greetFunc) greetFunc {
			return nil
		})
		if !errors.Is(err, ErrNilWrapper) {
			t.Fatal("unexpected error", err)
		}
		if got := mustLookup(t, c, "Greet")(nil, "world"); got != "hello, world" {
			t.Fatal("unexpected result", got)
		}
	})

	t.Run("nil class", func(t *testing.T) {
		err := Install(Target{Operation: "Greet"}, func(original greetFunc) greetFunc {
			return original
		})
		if !errors.Is(err, ErrOperationNotFound) {
			t.Fatal("unexpected error", err)
		}
		if (Target{Operation: "Greet"}).String() != "<nil>.Greet" {
			t.Fatal("unexpected target string")
		}
	})
}

func TestSubclasses(t *testing.T) {
	t.Run("hooking through a subclass affects the parent slot", func(t *testing.T) {
		parent := newGreeterClass()
		child := NewClass("LoudGreeter", parent)
		err := Install(Target{Class: child, Operation: "Greet"}, func(original greetFunc) greetFunc {
			return func(self any, name string) string {
				return original(self, name) + "!"
			}
		})
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range []*Class{parent, child} {
			if got := mustLookup(t, c, "Greet")(nil, "x"); got != "hello, x!" {
				t.Fatal("unexpected result for", c, got)
			}
		}
	})

	t.Run("a subclass definition shadows the parent", func(t *testing.T) {
		parent := newGreeterClass()
		child := NewClass("Shy", parent)
		child.Define("Greet", func(self any, name string) string {
			return "hi"
		})
		err := Install(Target{Class: parent, Operation: "Greet"}, func(original greetFunc) greetFunc {
			return func(self any, name string) string {
				return "hooked"
			}
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := mustLookup(t, child, "Greet")(nil, "x"); got != "hi" {
			t.Fatal("unexpected result", got)
		}
		if diff := cmp.Diff([]string{"Greet"}, child.Operations()); diff != "" {
			t.Fatal(diff)
		}
		if child.Parent() != parent {
			t.Fatal("unexpected parent")
		}
	})
}

func TestLookup(t *testing.T) {
	c := newGreeterClass()

	t.Run("with nil class", func(t *testing.T) {
		if _, good := Lookup[greetFunc](nil, "Greet"); good {
			t.Fatal("expected failure")
		}
		if Hooked(nil, "Greet") {
			t.Fatal("expected false")
		}
	})

	t.Run("with missing operation", func(t *testing.T) {
		if _, good := Lookup[greetFunc](c, "Missing"); good {
			t.Fatal("expected failure")
		}
	})

	t.Run("with the wrong type", func(t *testing.T) {
		if _, good := Lookup[func()](c, "Greet"); good {
			t.Fatal("expected failure")
		}
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		wg := &sync.WaitGroup{}
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					if fn, good := Lookup[greetFunc](c, "Greet"); good {
						fn(nil, "x")
					}
				}
			}()
		}
		wg.Wait()
	})
}

func TestDefine(t *testing.T) {
	expectPanic := func(t *testing.T, fn any) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic")
			}
		}()
		NewClass("X", nil).Define("Op", fn)
	}

	t.Run("with non-func", func(t *testing.T) {
		expectPanic(t, 17)
	})

	t.Run("with nil func", func(t *testing.T) {
		var fn func()
		expectPanic(t, fn)
	})
}
