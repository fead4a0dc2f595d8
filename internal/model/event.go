package model

//
// Lifecycle events
//

import "net/http"

// EventKind is the tag of a [LifecycleEvent].
type EventKind string

const (
	// EventResumed is the kind of [*ResumedEvent].
	EventResumed = EventKind("resumed")

	// EventResponseReceived is the kind of [*ResponseReceivedEvent].
	EventResponseReceived = EventKind("response_received")

	// EventDataReceived is the kind of [*DataReceivedEvent].
	EventDataReceived = EventKind("data_received")

	// EventCompleted is the kind of [*CompletedEvent].
	EventCompleted = EventKind("completed")

	// EventUploaded is the kind of [*UploadedEvent].
	EventUploaded = EventKind("uploaded")

	// EventWebSocketSent is the kind of [*WebSocketSentEvent].
	EventWebSocketSent = EventKind("websocket_sent")

	// EventWebSocketReceived is the kind of [*WebSocketReceivedEvent].
	EventWebSocketReceived = EventKind("websocket_received")
)

// LifecycleEvent is one milestone of a [NetworkTask]. A hook creates the
// event right after the original call returns and the gateway consumes
// it exactly once. Nobody retains events after delivery.
//
// The set of implementations is closed: only this package defines them.
type LifecycleEvent interface {
	// Kind returns the event tag.
	Kind() EventKind

	// EventTask returns the task this event refers to.
	EventTask() NetworkTask

	lifecycleEvent()
}

// ResumedEvent is emitted when a task starts.
type ResumedEvent struct {
	Task NetworkTask
}

// ResponseReceivedEvent is emitted when we receive the response headers.
type ResponseReceivedEvent struct {
	Task     NetworkTask
	Response *http.Response
}

// DataReceivedEvent is emitted for each received body chunk.
type DataReceivedEvent struct {
	Task NetworkTask
	Data []byte
}

// CompletedEvent is emitted once when a task reaches its terminal state.
type CompletedEvent struct {
	Task NetworkTask

	// Err is nil on success.
	Err error
}

// UploadedEvent is emitted when an upload task is created.
type UploadedEvent struct {
	Task    NetworkTask
	Request *http.Request

	// Payload is nil when the payload was not available, e.g.,
	// because we could not read the file being uploaded.
	Payload []byte
}

// WebSocketSentEvent is emitted when we send a WebSocket message.
type WebSocketSentEvent struct {
	Task    NetworkTask
	Message WebSocketMessage
}

// WebSocketReceivedEvent is emitted when we receive a WebSocket message.
type WebSocketReceivedEvent struct {
	Task    NetworkTask
	Message WebSocketMessage
}

var (
	_ LifecycleEvent = &ResumedEvent{}
	_ LifecycleEvent = &ResponseReceivedEvent{}
	_ LifecycleEvent = &DataReceivedEvent{}
	_ LifecycleEvent = &CompletedEvent{}
	_ LifecycleEvent = &UploadedEvent{}
	_ LifecycleEvent = &WebSocketSentEvent{}
	_ LifecycleEvent = &WebSocketReceivedEvent{}
)

func (ev *ResumedEvent) Kind() EventKind           { return EventResumed }
func (ev *ResponseReceivedEvent) Kind() EventKind  { return EventResponseReceived }
func (ev *DataReceivedEvent) Kind() EventKind      { return EventDataReceived }
func (ev *CompletedEvent) Kind() EventKind         { return EventCompleted }
func (ev *UploadedEvent) Kind() EventKind          { return EventUploaded }
func (ev *WebSocketSentEvent) Kind() EventKind     { return EventWebSocketSent }
func (ev *WebSocketReceivedEvent) Kind() EventKind { return EventWebSocketReceived }

func (ev *ResumedEvent) EventTask() NetworkTask           { return ev.Task }
func (ev *ResponseReceivedEvent) EventTask() NetworkTask  { return ev.Task }
func (ev *DataReceivedEvent) EventTask() NetworkTask      { return ev.Task }
func (ev *CompletedEvent) EventTask() NetworkTask         { return ev.Task }
func (ev *UploadedEvent) EventTask() NetworkTask          { return ev.Task }
func (ev *WebSocketSentEvent) EventTask() NetworkTask     { return ev.Task }
func (ev *WebSocketReceivedEvent) EventTask() NetworkTask { return ev.Task }

func (*ResumedEvent) lifecycleEvent()           {}
func (*ResponseReceivedEvent) lifecycleEvent()  {}
func (*DataReceivedEvent) lifecycleEvent()      {}
func (*CompletedEvent) lifecycleEvent()         {}
func (*UploadedEvent) lifecycleEvent()          {}
func (*WebSocketSentEvent) lifecycleEvent()     {}
func (*WebSocketReceivedEvent) lifecycleEvent() {}
