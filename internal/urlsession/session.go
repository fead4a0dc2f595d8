package urlsession

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/redirect"
)

// DefaultChunkSize is the default size of the buffer used to read bodies.
const DefaultChunkSize = 32 << 10

// ErrWebSocketUnsupported means that the runtime version does not support WebSocket.
var ErrWebSocketUnsupported = errors.New("urlsession: websocket not supported by this runtime")

// SessionDelegate receives the callbacks of all the tasks of a session.
//
// Callbacks run on the goroutine performing the transfer. For each task
// they are called in order: zero or one DidReceiveResponse, zero or more
// DidReceiveData and exactly one DidCompleteWithError.
type SessionDelegate interface {
	DidReceiveResponse(task *Task, resp *http.Response)
	DidReceiveData(task *Task, data []byte)
	DidCompleteWithError(task *Task, err error)
}

// Configuration contains the [*Session] configuration. The zero
// value is valid and uses reasonable defaults.
type Configuration struct {
	// ChunkSize is the OPTIONAL size of the read buffer.
	ChunkSize int

	// Delegate is the OPTIONAL session delegate.
	Delegate SessionDelegate

	// Logger is the OPTIONAL logger.
	Logger model.Logger

	// Runtime is the OPTIONAL runtime. We use [DefaultRuntime] by default.
	Runtime *Runtime

	// Transport is the OPTIONAL transport. We use [NewHTTPTransport] by default.
	Transport model.HTTPTransport

	// WebSocketDialer is the OPTIONAL dialer for WebSocket tasks.
	WebSocketDialer *websocket.Dialer
}

// Session creates and tracks tasks. The zero value is invalid; use [NewSession].
type Session struct {
	chunkSize int
	delegate  SessionDelegate
	logger    model.Logger
	rt        *Runtime
	txp       model.HTTPTransport
	wsDialer  *websocket.Dialer

	// nextID generates task identifiers.
	nextID atomic.Int64

	// mu protects tasks.
	mu    sync.Mutex
	tasks map[int64]*Task
}

// NewSession creates a new [*Session] using the given configuration,
// which may be nil.
func NewSession(config *Configuration) *Session {
	if config == nil {
		config = &Configuration{}
	}
	s := &Session{
		chunkSize: config.ChunkSize,
		delegate:  config.Delegate,
		logger:    model.ValidLoggerOrDefault(config.Logger),
		rt:        config.Runtime,
		txp:       config.Transport,
		wsDialer:  config.WebSocketDialer,
		tasks:     make(map[int64]*Task),
	}
	if s.chunkSize <= 0 {
		s.chunkSize = DefaultChunkSize
	}
	if s.rt == nil {
		s.rt = DefaultRuntime
	}
	if s.txp == nil {
		s.txp = NewHTTPTransport()
	}
	if s.wsDialer == nil {
		s.wsDialer = websocket.DefaultDialer
	}
	return s
}

// Runtime returns the runtime used by this session.
func (s *Session) Runtime() *Runtime {
	return s.rt
}

// DataTask creates a suspended task for the given request.
func (s *Session) DataTask(req *http.Request) *Task {
	return s.newTask(req, nil, nil)
}

// DataTaskWithCompletionHandler is like DataTask but the completion
// handler receives the whole body when the task finishes.
func (s *Session) DataTaskWithCompletionHandler(req *http.Request, completion CompletionHandler) *Task {
	return s.newTask(req, nil, completion)
}

// UploadTaskFromFile creates a suspended task uploading the file at path.
func (s *Session) UploadTaskFromFile(req *http.Request, path string) *Task {
	fn, good := redirect.Lookup[UploadFromFileFunc](s.rt.classes.Session, OpUploadTaskWithRequestFromFile)
	if !good {
		return nil
	}
	task, _ := fn(s, req, path).(*Task)
	return task
}

// UploadTaskFromFileWithCompletionHandler is like UploadTaskFromFile with a completion handler.
func (s *Session) UploadTaskFromFileWithCompletionHandler(
	req *http.Request, path string, completion CompletionHandler) *Task {
	fn, good := redirect.Lookup[UploadFromFileCompletionFunc](
		s.rt.classes.Session, OpUploadTaskWithRequestFromFileCompletionHandler)
	if !good {
		return nil
	}
	task, _ := fn(s, req, path, completion).(*Task)
	return task
}

// UploadTaskFromData creates a suspended task uploading data.
func (s *Session) UploadTaskFromData(req *http.Request, data []byte) *Task {
	fn, good := redirect.Lookup[UploadFromDataFunc](s.rt.classes.Session, OpUploadTaskWithRequestFromData)
	if !good {
		return nil
	}
	task, _ := fn(s, req, data).(*Task)
	return task
}

// UploadTaskFromDataWithCompletionHandler is like UploadTaskFromData with a completion handler.
func (s *Session) UploadTaskFromDataWithCompletionHandler(
	req *http.Request, data []byte, completion CompletionHandler) *Task {
	fn, good := redirect.Lookup[UploadFromDataCompletionFunc](
		s.rt.classes.Session, OpUploadTaskWithRequestFromDataCompletionHandler)
	if !good {
		return nil
	}
	task, _ := fn(s, req, data, completion).(*Task)
	return task
}

// WebSocketTask creates a suspended WebSocket task for the given request,
// whose URL scheme must be ws or wss.
func (s *Session) WebSocketTask(req *http.Request) (*WebSocketTask, error) {
	if s.rt.classes.WebSocketTask == nil {
		return nil, ErrWebSocketUnsupported
	}
	return s.newWebSocketTask(req), nil
}

// InvalidateAndCancel cancels all the outstanding tasks.
func (s *Session) InvalidateAndCancel() {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()
	for _, t := range tasks {
		t.Cancel()
	}
	s.txp.CloseIdleConnections()
}

// OutstandingTasks returns the number of tasks that did not finish yet.
func (s *Session) OutstandingTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Session) track(t *Task) {
	s.mu.Lock()
	s.tasks[t.id] = t
	s.mu.Unlock()
}

func (s *Session) untrack(t *Task) {
	s.mu.Lock()
	delete(s.tasks, t.id)
	s.mu.Unlock()
}

func newSessionClass() *redirect.Class {
	c := redirect.NewClass("Session", nil)
	c.Define(OpUploadTaskWithRequestFromFile, func(self any, request any, path any) any {
		return sessionUploadFromFile(self, request, path, nil)
	})
	c.Define(OpUploadTaskWithRequestFromFileCompletionHandler, func(self any, request any, path any, completion any) any {
		return sessionUploadFromFile(self, request, path, completion)
	})
	c.Define(OpUploadTaskWithRequestFromData, func(self any, request any, data any) any {
		return sessionUploadFromData(self, request, data, nil)
	})
	c.Define(OpUploadTaskWithRequestFromDataCompletionHandler, func(self any, request any, data any, completion any) any {
		return sessionUploadFromData(self, request, data, completion)
	})
	return c
}

func sessionUploadFromFile(self, request, path, completion any) any {
	s, good1 := self.(*Session)
	req, good2 := request.(*http.Request)
	filepath, good3 := path.(string)
	if !good1 || !good2 || !good3 {
		return (*Task)(nil)
	}
	cb, _ := completion.(CompletionHandler)
	return s.newTask(req, newFileBody(filepath), cb)
}

func sessionUploadFromData(self, request, data, completion any) any {
	s, good1 := self.(*Session)
	req, good2 := request.(*http.Request)
	payload, good3 := data.([]byte)
	if !good1 || !good2 || !good3 {
		return (*Task)(nil)
	}
	cb, _ := completion.(CompletionHandler)
	return s.newTask(req, newDataBody(payload), cb)
}
