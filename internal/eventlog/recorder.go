package eventlog

//
// JSONL recorder
//

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qiudaomao/atlantis/internal/model"
)

// Record is the JSON representation of a lifecycle event.
type Record struct {
	RunID       string    `json:"run_id"`
	Time        time.Time `json:"t"`
	TaskID      int64     `json:"task_id"`
	Kind        string    `json:"kind"`
	Method      string    `json:"method,omitempty"`
	URL         string    `json:"url,omitempty"`
	StatusCode  int64     `json:"status_code,omitempty"`
	Size        int64     `json:"size,omitempty"`
	Failure     *string   `json:"failure,omitempty"`
	MessageType string    `json:"message_type,omitempty"`
}

// JSONLRecorder is a [model.Observer] writing a [Record] per line.
type JSONLRecorder struct {
	// TimeNow is the OPTIONAL function to get the current time. We
	// use [time.Now] when this field is nil.
	TimeNow func() time.Time

	runID string

	// mu protects the fields below.
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

var _ model.Observer = &JSONLRecorder{}

// NewJSONLRecorder creates a new [*JSONLRecorder] writing into w using
// a random run identifier.
func NewJSONLRecorder(w io.Writer) *JSONLRecorder {
	return &JSONLRecorder{
		runID: uuid.Must(uuid.NewRandom()).String(),
		enc:   json.NewEncoder(w),
	}
}

// RunID returns the identifier shared by all the records we write.
func (r *JSONLRecorder) RunID() string {
	return r.runID
}

// Err returns the first error that occurred while writing, if any. After
// an error, the recorder stops writing.
func (r *JSONLRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *JSONLRecorder) now() time.Time {
	if r.TimeNow != nil {
		return r.TimeNow()
	}
	return time.Now()
}

func (r *JSONLRecorder) newRecord(task model.NetworkTask, kind model.EventKind) *Record {
	rec := &Record{
		RunID:  r.runID,
		Time:   r.now().UTC(),
		TaskID: task.TaskIdentifier(),
		Kind:   string(kind),
	}
	if req := task.OriginalRequest(); req != nil {
		rec.Method = req.Method
		if req.URL != nil {
			rec.URL = req.URL.String()
		}
	}
	return rec
}

func (r *JSONLRecorder) write(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.err = r.enc.Encode(rec)
}

// TaskDidResume implements model.Observer.
func (r *JSONLRecorder) TaskDidResume(task model.NetworkTask) {
	r.write(r.newRecord(task, model.EventResumed))
}

// TaskDidReceiveResponse implements model.Observer.
func (r *JSONLRecorder) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {
	rec := r.newRecord(task, model.EventResponseReceived)
	rec.StatusCode = int64(resp.StatusCode)
	r.write(rec)
}

// TaskDidReceiveData implements model.Observer.
func (r *JSONLRecorder) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	rec := r.newRecord(task, model.EventDataReceived)
	rec.Size = int64(len(data))
	r.write(rec)
}

// TaskDidComplete implements model.Observer.
func (r *JSONLRecorder) TaskDidComplete(task model.NetworkTask, err error) {
	rec := r.newRecord(task, model.EventCompleted)
	if err != nil {
		failure := err.Error()
		rec.Failure = &failure
	}
	r.write(rec)
}

// TaskDidUpload implements model.Observer.
func (r *JSONLRecorder) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	rec := r.newRecord(task, model.EventUploaded)
	rec.Size = int64(len(payload))
	r.write(rec)
}

// WebSocketDidSend implements model.Observer.
func (r *JSONLRecorder) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	rec := r.newRecord(task, model.EventWebSocketSent)
	rec.MessageType = message.Type.String()
	rec.Size = int64(message.Size())
	r.write(rec)
}

// WebSocketDidReceive implements model.Observer.
func (r *JSONLRecorder) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	rec := r.newRecord(task, model.EventWebSocketReceived)
	rec.MessageType = message.Type.String()
	rec.Size = int64(message.Size())
	r.write(rec)
}
