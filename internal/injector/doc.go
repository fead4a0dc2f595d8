// Package injector installs the lifecycle hooks that observe the traffic of
// [urlsession] sessions and forwards the derived events to a [*gateway.Gateway].
//
// Each hook calls through to the original behavior with unchanged
// arguments and returns its results unchanged. Only afterwards it derives
// a [model.LifecycleEvent], discards it when the task is self-traffic and
// otherwise notifies the gateway. The resume hook is the only exception:
// it notifies before delegating, so that [model.ResumedEvent] precedes
// any other event of the same task.
//
// Hooks never fail the host. A missing operation means that the hook is
// not installed. An argument with an unexpected shape means that the hook
// skips the event, unless [Config.AssertUnexpectedShapes] is set, in which
// case the hook panics after having called the original behavior. An
// unreadable upload file yields an event without payload.
//
// For code using net/http directly, [*Injector.WrapHTTPTransport] provides
// the same events through a transport decorator.
package injector
