package urlsession

import (
	"net/http"

	"github.com/qiudaomao/atlantis/internal/redirect"
)

const (
	// ModernVersion is the first version using [OpDidReceiveResponseSniffRewrite]
	// and supporting WebSocket tasks.
	ModernVersion = 13

	// LatestVersion is the most recent runtime version.
	LatestVersion = 17
)

// Names of the dispatched operations.
const (
	// OpResume is the [ResumeFunc] of the Task class.
	OpResume = "Resume"

	// OpDidReceiveResponseSniffRewrite is the [DidReceiveResponseSniffRewriteFunc]
	// of the TaskLoader class for modern runtimes.
	OpDidReceiveResponseSniffRewrite = "DidReceiveResponseSniffRewrite"

	// OpDidReceiveResponseSniff is the [DidReceiveResponseSniffFunc] of the
	// TaskLoader class for legacy runtimes.
	OpDidReceiveResponseSniff = "DidReceiveResponseSniff"

	// OpDidReceiveData is the [DidReceiveDataFunc] of the TaskLoader class.
	OpDidReceiveData = "DidReceiveData"

	// OpDidFinishWithError is the [DidFinishWithErrorFunc] of the TaskLoader class.
	OpDidFinishWithError = "DidFinishWithError"

	// OpUploadTaskWithRequestFromFile is the [UploadFromFileFunc] of the Session class.
	OpUploadTaskWithRequestFromFile = "UploadTaskWithRequestFromFile"

	// OpUploadTaskWithRequestFromFileCompletionHandler is the
	// [UploadFromFileCompletionFunc] of the Session class.
	OpUploadTaskWithRequestFromFileCompletionHandler = "UploadTaskWithRequestFromFileCompletionHandler"

	// OpUploadTaskWithRequestFromData is the [UploadFromDataFunc] of the Session class.
	OpUploadTaskWithRequestFromData = "UploadTaskWithRequestFromData"

	// OpUploadTaskWithRequestFromDataCompletionHandler is the
	// [UploadFromDataCompletionFunc] of the Session class.
	OpUploadTaskWithRequestFromDataCompletionHandler = "UploadTaskWithRequestFromDataCompletionHandler"

	// OpSendMessageCompletionHandler is the [SendMessageFunc] of the WebSocketTask class.
	OpSendMessageCompletionHandler = "SendMessageCompletionHandler"

	// OpReceiveMessageCompletionHandler is the [ReceiveMessageFunc] of the WebSocketTask class.
	OpReceiveMessageCompletionHandler = "ReceiveMessageCompletionHandler"
)

// Signatures of the dispatched operations. The self argument is the
// object the operation is invoked on.
type (
	// ResumeFunc starts a task. Self is a [*Task] or a [*WebSocketTask].
	ResumeFunc = func(self any)

	// DidReceiveResponseSniffRewriteFunc delivers the response. Self is the
	// task loader and response is a [*http.Response].
	DidReceiveResponseSniffRewriteFunc = func(self any, response any, sniff bool, rewrite bool)

	// DidReceiveResponseSniffFunc is the legacy version of [DidReceiveResponseSniffRewriteFunc].
	DidReceiveResponseSniffFunc = func(self any, response any, sniff bool)

	// DidReceiveDataFunc delivers a body chunk as a []byte.
	DidReceiveDataFunc = func(self any, data any)

	// DidFinishWithErrorFunc delivers the terminal state; err is nil or an error.
	DidFinishWithErrorFunc = func(self any, err any)

	// UploadFromFileFunc creates an upload task reading the file at path,
	// which is a string. Self is the [*Session]. Returns a [*Task].
	UploadFromFileFunc = func(self any, request any, path any) any

	// UploadFromFileCompletionFunc is like [UploadFromFileFunc] with a
	// [CompletionHandler].
	UploadFromFileCompletionFunc = func(self any, request any, path any, completion any) any

	// UploadFromDataFunc creates an upload task sending data, which is a []byte.
	UploadFromDataFunc = func(self any, request any, data any) any

	// UploadFromDataCompletionFunc is like [UploadFromDataFunc] with a
	// [CompletionHandler].
	UploadFromDataCompletionFunc = func(self any, request any, data any, completion any) any

	// SendMessageFunc sends a [*WebSocketMessage]; completion is a [SendCompletionHandler].
	SendMessageFunc = func(self any, message any, completion any)

	// ReceiveMessageFunc receives the next message; completion is a
	// [ReceiveCompletionHandler].
	ReceiveMessageFunc = func(self any, completion any)
)

// CompletionHandler is called once with the accumulated body, the
// response, and the error when a data or upload task finishes.
type CompletionHandler = func(data []byte, resp *http.Response, err error)

// SendCompletionHandler is called once a message has been sent.
type SendCompletionHandler = func(err error)

// ReceiveCompletionHandler is called with the received message or the error.
type ReceiveCompletionHandler = func(message *WebSocketMessage, err error)

// Classes contains the dispatch tables of a [*Runtime].
type Classes struct {
	// Session dispatches the upload task factories.
	Session *redirect.Class

	// Task dispatches [OpResume].
	Task *redirect.Class

	// TaskLoader dispatches the transfer callbacks.
	TaskLoader *redirect.Class

	// WebSocketTask is a subclass of Task dispatching the message
	// operations. This field is nil for legacy runtimes.
	WebSocketTask *redirect.Class
}

// Runtime owns the dispatch tables shared by all the sessions created
// using it. The zero value is invalid; use [NewRuntime].
type Runtime struct {
	classes *Classes
	version int
}

// DefaultRuntime is the [*Runtime] used by sessions without an explicit one.
var DefaultRuntime = NewRuntime(LatestVersion)

// NewRuntime creates a [*Runtime] emulating the given version.
func NewRuntime(version int) *Runtime {
	rt := &Runtime{
		classes: &Classes{},
		version: version,
	}
	rt.classes.Session = newSessionClass()
	rt.classes.Task = newTaskClass()
	rt.classes.TaskLoader = newTaskLoaderClass(version)
	if version >= ModernVersion {
		rt.classes.WebSocketTask = newWebSocketTaskClass(rt.classes.Task)
	}
	return rt
}

// Version returns the runtime version.
func (rt *Runtime) Version() int {
	return rt.version
}

// Classes returns the runtime dispatch tables.
func (rt *Runtime) Classes() *Classes {
	return rt.classes
}

// resumer is implemented by the objects responding to [OpResume].
type resumer interface {
	resume()
}

func newTaskClass() *redirect.Class {
	c := redirect.NewClass("Task", nil)
	c.Define(OpResume, func(self any) {
		if r, good := self.(resumer); good {
			r.resume()
		}
	})
	return c
}
