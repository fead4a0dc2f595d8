package urlsession

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/redirect"
)

// bodyProvider opens the body of an upload task when the transfer starts.
type bodyProvider func() (body io.ReadCloser, length int64, err error)

func newFileBody(path string) bodyProvider {
	return func() (io.ReadCloser, int64, error) {
		fp, err := os.Open(path)
		if err != nil {
			return nil, 0, err
		}
		stat, err := fp.Stat()
		if err != nil {
			fp.Close()
			return nil, 0, err
		}
		return fp, stat.Size(), nil
	}
}

func newDataBody(data []byte) bodyProvider {
	return func() (io.ReadCloser, int64, error) {
		return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
	}
}

// Task is a data or upload task. Use the [*Session] factories to create tasks.
type Task struct {
	body       bodyProvider
	class      *redirect.Class
	completion CompletionHandler
	done       chan struct{}
	id         int64
	loader     *taskLoader
	request    *http.Request
	session    *Session

	// self is the object we dispatch operations on: either this
	// task or the [*WebSocketTask] embedding it.
	self any

	// mu protects the fields below.
	mu       sync.Mutex
	cancel   context.CancelFunc
	canceled bool
	current  *http.Request
	data     bytes.Buffer
	err      error
	response *http.Response
	state    model.TaskState
}

var _ model.NetworkTask = &Task{}

func (s *Session) newTask(req *http.Request, body bodyProvider, completion CompletionHandler) *Task {
	t := &Task{}
	s.initTask(t, t, s.rt.classes.Task, req, body, completion)
	return t
}

func (s *Session) initTask(t *Task, self any, class *redirect.Class,
	req *http.Request, body bodyProvider, completion CompletionHandler) {
	t.body = body
	t.class = class
	t.completion = completion
	t.done = make(chan struct{})
	t.id = s.nextID.Add(1)
	t.request = req
	t.session = s
	t.self = self
	t.state = model.TaskStateSuspended
	t.loader = &taskLoader{task: t, owner: self}
	s.track(t)
}

// TaskIdentifier implements model.NetworkTask.
func (t *Task) TaskIdentifier() int64 {
	return t.id
}

// OriginalRequest implements model.NetworkTask.
func (t *Task) OriginalRequest() *http.Request {
	return t.request
}

// CurrentRequest returns the request being sent, which differs from the
// original request once the transfer starts. Before that it is nil.
func (t *Task) CurrentRequest() *http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Response implements model.NetworkTask.
func (t *Task) Response() *http.Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.response
}

// Error implements model.NetworkTask.
func (t *Task) Error() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// State implements model.NetworkTask.
func (t *Task) State() model.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Resume starts the task. Resuming a task that is not suspended is a no-op.
func (t *Task) Resume() {
	if fn, good := redirect.Lookup[ResumeFunc](t.class, OpResume); good {
		fn(t.self)
	}
}

// Cancel cancels the task, which completes with [context.Canceled]. A
// suspended task is not completed until someone resumes it.
func (t *Task) Cancel() {
	t.mu.Lock()
	running := t.state == model.TaskStateRunning
	switch t.state {
	case model.TaskStateSuspended:
		t.canceled = true
	case model.TaskStateRunning:
		t.state = model.TaskStateCanceling
		t.cancel()
	}
	t.mu.Unlock()
	if c, good := t.self.(connCanceler); good && running {
		c.cancelConn()
	}
}

// connCanceler is implemented by tasks owning a long-lived connection.
type connCanceler interface {
	cancelConn()
}

// Done returns a channel closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx is done. It returns the
// task error or the context error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start transitions to the running state and returns the transfer context
// and whether the caller should start the transfer.
func (t *Task) start() (context.Context, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != model.TaskStateSuspended {
		return nil, false
	}
	ctx, cancel := context.WithCancel(t.request.Context())
	t.cancel = cancel
	t.state = model.TaskStateRunning
	if t.canceled {
		t.state = model.TaskStateCanceling
		cancel()
	}
	return ctx, true
}

func (t *Task) resume() {
	ctx, good := t.start()
	if !good {
		return
	}
	go t.run(ctx)
}

// run performs the HTTP transfer.
func (t *Task) run(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		t.loader.finish(err)
		return
	}
	req := t.request.WithContext(ctx)
	if t.body != nil {
		body, length, err := t.body()
		if err != nil {
			t.loader.finish(err)
			return
		}
		req = req.Clone(ctx)
		req.Body = body
		req.ContentLength = length
	}
	t.mu.Lock()
	t.current = req
	t.mu.Unlock()
	logger := t.session.logger
	logger.Debugf("urlsession: task %d: > %s %s", t.id, req.Method, req.URL.String())
	resp, err := t.session.txp.RoundTrip(req)
	if err != nil {
		logger.Debugf("urlsession: task %d: < %s", t.id, err.Error())
		t.loader.finish(t.mapError(ctx, err))
		return
	}
	logger.Debugf("urlsession: task %d: < %d", t.id, resp.StatusCode)
	defer resp.Body.Close()
	t.loader.receiveResponse(resp)
	buffer := make([]byte, t.session.chunkSize)
	for {
		count, err := resp.Body.Read(buffer)
		if count > 0 {
			t.loader.receiveData(append([]byte{}, buffer[:count]...))
		}
		if errors.Is(err, io.EOF) {
			t.loader.finish(nil)
			return
		}
		if err != nil {
			t.loader.finish(t.mapError(ctx, err))
			return
		}
	}
}

// mapError returns context.Canceled when the task was canceled.
func (t *Task) mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(context.Canceled, err)
	}
	return err
}

func (t *Task) setResponse(resp *http.Response) {
	t.mu.Lock()
	t.response = resp
	t.mu.Unlock()
}

func (t *Task) appendData(data []byte) {
	if t.completion == nil {
		return
	}
	t.mu.Lock()
	t.data.Write(data)
	t.mu.Unlock()
}

// complete moves the task to the terminal state and returns false
// if the task was already completed.
func (t *Task) complete(err error) bool {
	t.mu.Lock()
	if t.state == model.TaskStateCompleted {
		t.mu.Unlock()
		return false
	}
	t.state = model.TaskStateCompleted
	t.err = err
	if t.cancel != nil {
		t.cancel()
	}
	data, resp := t.data.Bytes(), t.response
	t.mu.Unlock()

	t.session.untrack(t)
	if t.session.delegate != nil {
		t.session.delegate.DidCompleteWithError(t, err)
	}
	if t.completion != nil {
		t.completion(data, resp, err)
	}
	close(t.done)
	return true
}
