// Package gateway contains the single interface through which lifecycle
// events leave the interception layer.
//
// The [*Gateway] delivers each event synchronously to the registered
// [model.Observer], on the calling goroutine. There is no buffering and no
// retry: when no observer is registered, the event is dropped.
package gateway

import (
	"sync/atomic"

	"github.com/qiudaomao/atlantis/internal/model"
)

// Gateway routes [model.LifecycleEvent] to a [model.Observer]. The zero
// value is ready to use and drops all events. A Gateway is safe for
// concurrent use; observers may come and go while traffic occurs.
type Gateway struct {
	observer atomic.Pointer[observerHolder]
}

// observerHolder allows storing an interface inside an atomic.Pointer.
type observerHolder struct {
	model.Observer
}

// New creates a [*Gateway] delivering events to the given observer,
// which may be nil.
func New(observer model.Observer) *Gateway {
	g := &Gateway{}
	g.Register(observer)
	return g
}

// Register registers the observer, replacing any previous one. Passing
// nil is equivalent to calling Unregister.
func (g *Gateway) Register(observer model.Observer) {
	if observer == nil {
		g.observer.Store(nil)
		return
	}
	g.observer.Store(&observerHolder{observer})
}

// Unregister removes the observer. Later events are dropped.
func (g *Gateway) Unregister() {
	g.observer.Store(nil)
}

// Observer returns the registered observer or nil.
func (g *Gateway) Observer() model.Observer {
	if h := g.observer.Load(); h != nil {
		return h.Observer
	}
	return nil
}

// Notify delivers ev to the registered observer and returns whether it
// did deliver. Nil events and events without an observer are dropped.
func (g *Gateway) Notify(ev model.LifecycleEvent) bool {
	observer := g.Observer()
	if observer == nil || ev == nil {
		return false
	}
	switch ev := ev.(type) {
	case *model.ResumedEvent:
		observer.TaskDidResume(ev.Task)
	case *model.ResponseReceivedEvent:
		observer.TaskDidReceiveResponse(ev.Task, ev.Response)
	case *model.DataReceivedEvent:
		observer.TaskDidReceiveData(ev.Task, ev.Data)
	case *model.CompletedEvent:
		observer.TaskDidComplete(ev.Task, ev.Err)
	case *model.UploadedEvent:
		observer.TaskDidUpload(ev.Task, ev.Request, ev.Payload)
	case *model.WebSocketSentEvent:
		observer.WebSocketDidSend(ev.Task, ev.Message)
	case *model.WebSocketReceivedEvent:
		observer.WebSocketDidReceive(ev.Task, ev.Message)
	default:
		return false
	}
	return true
}
