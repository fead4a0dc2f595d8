package injector

//
// HTTPTransport decorator
//

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/qiudaomao/atlantis/internal/model"
)

// WrapHTTPTransport returns a transport emitting lifecycle events for each
// round trip performed using txp. This is the way to observe clients that
// do not use a [*urlsession.Session], such as plain [*http.Client] values.
//
// Each round trip is a task that emits Resumed before the round trip, then
// ResponseReceived, then DataReceived for each body read and exactly one
// Completed when the body reaches EOF, fails or is closed. When the round
// trip fails, Completed immediately follows Resumed.
func (inj *Injector) WrapHTTPTransport(txp model.HTTPTransport) model.HTTPTransport {
	return &httpTransportObserver{HTTPTransport: txp, inj: inj}
}

// httpTransportObserver is an HTTPTransport emitting lifecycle events.
type httpTransportObserver struct {
	// HTTPTransport is the underlying HTTP transport.
	HTTPTransport model.HTTPTransport

	inj *Injector
}

var _ model.HTTPTransport = &httpTransportObserver{}

// roundTripIDs generates the identifiers of the round trip tasks. We use
// negative numbers so they do not collide with urlsession identifiers.
var roundTripIDs atomic.Int64

// RoundTrip implements model.HTTPTransport.
func (txp *httpTransportObserver) RoundTrip(req *http.Request) (*http.Response, error) {
	task := &roundTripTask{
		id:      -roundTripIDs.Add(1),
		inj:     txp.inj,
		request: req,
		state:   model.TaskStateSuspended,
	}
	txp.inj.notify(&model.ResumedEvent{Task: task})
	task.setState(model.TaskStateRunning)
	resp, err := txp.HTTPTransport.RoundTrip(req)
	if err != nil {
		task.complete(err)
		return nil, err
	}
	task.setResponse(resp)
	txp.inj.notify(&model.ResponseReceivedEvent{Task: task, Response: resp})
	resp.Body = &bodyObserver{ReadCloser: resp.Body, task: task}
	return resp, nil
}

// CloseIdleConnections implements model.HTTPTransport.
func (txp *httpTransportObserver) CloseIdleConnections() {
	txp.HTTPTransport.CloseIdleConnections()
}

// roundTripTask is the model.NetworkTask of a single round trip.
type roundTripTask struct {
	id      int64
	inj     *Injector
	request *http.Request

	// mu protects the fields below.
	mu       sync.Mutex
	err      error
	response *http.Response
	state    model.TaskState
}

var _ model.NetworkTask = &roundTripTask{}

// TaskIdentifier implements model.NetworkTask.
func (t *roundTripTask) TaskIdentifier() int64 {
	return t.id
}

// OriginalRequest implements model.NetworkTask.
func (t *roundTripTask) OriginalRequest() *http.Request {
	return t.request
}

// Response implements model.NetworkTask.
func (t *roundTripTask) Response() *http.Response {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.response
}

// Error implements model.NetworkTask.
func (t *roundTripTask) Error() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// State implements model.NetworkTask.
func (t *roundTripTask) State() model.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *roundTripTask) setState(state model.TaskState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

func (t *roundTripTask) setResponse(resp *http.Response) {
	t.mu.Lock()
	t.response = resp
	t.mu.Unlock()
}

// complete emits Completed unless we already did that.
func (t *roundTripTask) complete(err error) {
	t.mu.Lock()
	if t.state == model.TaskStateCompleted {
		t.mu.Unlock()
		return
	}
	t.state = model.TaskStateCompleted
	t.err = err
	t.mu.Unlock()
	t.inj.notify(&model.CompletedEvent{Task: t, Err: err})
}

// bodyObserver is the response body of a roundTripTask.
type bodyObserver struct {
	io.ReadCloser
	task *roundTripTask
}

// Read implements io.Reader.
func (b *bodyObserver) Read(data []byte) (int, error) {
	count, err := b.ReadCloser.Read(data)
	if count > 0 {
		b.task.inj.notify(&model.DataReceivedEvent{Task: b.task, Data: append([]byte{}, data[:count]...)})
	}
	switch {
	case errors.Is(err, io.EOF):
		b.task.complete(nil)
	case err != nil:
		b.task.complete(err)
	}
	return count, err
}

// Close implements io.Closer.
func (b *bodyObserver) Close() error {
	err := b.ReadCloser.Close()
	b.task.complete(ErrBodyClosed)
	return err
}
