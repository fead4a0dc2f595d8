// Package redirect implements dispatch tables whose operations can be
// replaced at runtime by wrappers that keep a handle on the original.
//
// A [*Class] is the Go analogue of a runtime type: a named table mapping
// operation names to func values. Code that wants to be interceptable
// defines its operations with [*Class.Define] and invokes them through
// [Lookup]. Classes may have a parent, in which case the child inherits
// every operation it does not define itself.
//
// [Install] replaces one operation with the result of a wrapper factory.
// The factory receives the original func exactly once and the result
// serves every later invocation on the class and on all the subclasses
// sharing the same slot. Installing a missing operation fails with
// [ErrOperationNotFound] and leaves the table untouched. Installing the
// same slot twice fails with [ErrAlreadyInstalled], so wrapper chains
// cannot grow.
//
// Installation is expected to happen once, during startup, before
// traffic begins. Lookups are safe for concurrent use.
package redirect
