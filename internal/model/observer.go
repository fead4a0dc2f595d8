package model

//
// Observer
//

import "net/http"

// Observer consumes lifecycle events. There is one method per [EventKind].
//
// Methods are called synchronously on the goroutine running the network
// operation, hence implementations MUST NOT block.
type Observer interface {
	// TaskDidResume is called for [*ResumedEvent].
	TaskDidResume(task NetworkTask)

	// TaskDidReceiveResponse is called for [*ResponseReceivedEvent].
	TaskDidReceiveResponse(task NetworkTask, resp *http.Response)

	// TaskDidReceiveData is called for [*DataReceivedEvent].
	TaskDidReceiveData(task NetworkTask, data []byte)

	// TaskDidComplete is called for [*CompletedEvent].
	TaskDidComplete(task NetworkTask, err error)

	// TaskDidUpload is called for [*UploadedEvent].
	TaskDidUpload(task NetworkTask, req *http.Request, payload []byte)

	// WebSocketDidSend is called for [*WebSocketSentEvent].
	WebSocketDidSend(task NetworkTask, message WebSocketMessage)

	// WebSocketDidReceive is called for [*WebSocketReceivedEvent].
	WebSocketDidReceive(task NetworkTask, message WebSocketMessage)
}

// NopObserver is an [Observer] ignoring all events. Embed it to
// implement only the methods you care about.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) TaskDidResume(task NetworkTask) {}

func (NopObserver) TaskDidReceiveResponse(task NetworkTask, resp *http.Response) {}

func (NopObserver) TaskDidReceiveData(task NetworkTask, data []byte) {}

func (NopObserver) TaskDidComplete(task NetworkTask, err error) {}

func (NopObserver) TaskDidUpload(task NetworkTask, req *http.Request, payload []byte) {}

func (NopObserver) WebSocketDidSend(task NetworkTask, message WebSocketMessage) {}

func (NopObserver) WebSocketDidReceive(task NetworkTask, message WebSocketMessage) {}
