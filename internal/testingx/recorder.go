package testingx

import (
	"context"
	"net/http"
	"sync"

	"github.com/qiudaomao/atlantis/internal/model"
)

// EventRecorder is a [model.Observer] saving every event it receives as
// a [model.LifecycleEvent]. The zero value is ready to use. This type is
// safe for concurrent use.
type EventRecorder struct {
	mu      sync.Mutex
	changed chan struct{}
	events  []model.LifecycleEvent
}

var _ model.Observer = &EventRecorder{}

func (er *EventRecorder) append(ev model.LifecycleEvent) {
	er.mu.Lock()
	er.events = append(er.events, ev)
	if er.changed != nil {
		close(er.changed)
		er.changed = nil
	}
	er.mu.Unlock()
}

// WaitFor blocks until we record an event of the given kind for the given
// task or ctx is done. It returns whether we saw such an event.
func (er *EventRecorder) WaitFor(ctx context.Context, task model.NetworkTask, kind model.EventKind) bool {
	return er.WaitUntil(ctx, func(events []model.LifecycleEvent) bool {
		for _, ev := range events {
			if ev.EventTask() == task && ev.Kind() == kind {
				return true
			}
		}
		return false
	})
}

// WaitUntil blocks until cond returns true for the events recorded so far
// or ctx is done. It returns the last value returned by cond.
func (er *EventRecorder) WaitUntil(ctx context.Context, cond func(events []model.LifecycleEvent) bool) bool {
	for {
		er.mu.Lock()
		if cond(er.events) {
			er.mu.Unlock()
			return true
		}
		if er.changed == nil {
			er.changed = make(chan struct{})
		}
		changed := er.changed
		er.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}

// Events returns a copy of the events recorded so far.
func (er *EventRecorder) Events() []model.LifecycleEvent {
	er.mu.Lock()
	defer er.mu.Unlock()
	return append([]model.LifecycleEvent{}, er.events...)
}

// Kinds returns the kinds of the events recorded so far.
func (er *EventRecorder) Kinds() (out []model.EventKind) {
	for _, ev := range er.Events() {
		out = append(out, ev.Kind())
	}
	return
}

// KindsForTask is like Kinds but only considers events of the given task.
func (er *EventRecorder) KindsForTask(task model.NetworkTask) (out []model.EventKind) {
	for _, ev := range er.Events() {
		if ev.EventTask() == task {
			out = append(out, ev.Kind())
		}
	}
	return
}

// TaskDidResume implements model.Observer.
func (er *EventRecorder) TaskDidResume(task model.NetworkTask) {
	er.append(&model.ResumedEvent{Task: task})
}

// TaskDidReceiveResponse implements model.Observer.
func (er *EventRecorder) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {
	er.append(&model.ResponseReceivedEvent{Task: task, Response: resp})
}

// TaskDidReceiveData implements model.Observer.
func (er *EventRecorder) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	er.append(&model.DataReceivedEvent{Task: task, Data: data})
}

// TaskDidComplete implements model.Observer.
func (er *EventRecorder) TaskDidComplete(task model.NetworkTask, err error) {
	er.append(&model.CompletedEvent{Task: task, Err: err})
}

// TaskDidUpload implements model.Observer.
func (er *EventRecorder) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	er.append(&model.UploadedEvent{Task: task, Request: req, Payload: payload})
}

// WebSocketDidSend implements model.Observer.
func (er *EventRecorder) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	er.append(&model.WebSocketSentEvent{Task: task, Message: message})
}

// WebSocketDidReceive implements model.Observer.
func (er *EventRecorder) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	er.append(&model.WebSocketReceivedEvent{Task: task, Message: message})
}
