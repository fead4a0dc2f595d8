package eventlog

import (
	"net/http"

	"github.com/apex/log"
	"github.com/qiudaomao/atlantis/internal/model"
)

// Logger is a [model.Observer] logging events. Resumed and Completed are
// logged at info level, all the other events at debug level.
type Logger struct {
	logger log.Interface
}

var _ model.Observer = &Logger{}

// NewLogger creates a new [*Logger] using the given apex/log logger.
func NewLogger(logger log.Interface) *Logger {
	return &Logger{logger: logger}
}

func (lo *Logger) entry(task model.NetworkTask, kind model.EventKind) *log.Entry {
	fields := log.Fields{
		"event": string(kind),
		"task":  task.TaskIdentifier(),
	}
	if req := task.OriginalRequest(); req != nil && req.URL != nil {
		fields["url"] = req.URL.String()
	}
	return lo.logger.WithFields(fields)
}

// TaskDidResume implements model.Observer.
func (lo *Logger) TaskDidResume(task model.NetworkTask) {
	method := "GET"
	if req := task.OriginalRequest(); req != nil && req.Method != "" {
		method = req.Method
	}
	lo.entry(task, model.EventResumed).Infof("%s started", method)
}

// TaskDidReceiveResponse implements model.Observer.
func (lo *Logger) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {
	lo.entry(task, model.EventResponseReceived).WithField("status", resp.StatusCode).Debug("response")
}

// TaskDidReceiveData implements model.Observer.
func (lo *Logger) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	lo.entry(task, model.EventDataReceived).WithField("size", len(data)).Debug("data")
}

// TaskDidComplete implements model.Observer.
func (lo *Logger) TaskDidComplete(task model.NetworkTask, err error) {
	lo.entry(task, model.EventCompleted).Infof("completed: %s", model.ErrorToStringOrOK(err))
}

// TaskDidUpload implements model.Observer.
func (lo *Logger) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	lo.entry(task, model.EventUploaded).WithField("size", len(payload)).Debug("upload")
}

// WebSocketDidSend implements model.Observer.
func (lo *Logger) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	lo.entry(task, model.EventWebSocketSent).WithFields(log.Fields{
		"type": message.Type.String(),
		"size": message.Size(),
	}).Debug("websocket send")
}

// WebSocketDidReceive implements model.Observer.
func (lo *Logger) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	lo.entry(task, model.EventWebSocketReceived).WithFields(log.Fields{
		"type": message.Type.String(),
		"size": message.Size(),
	}).Debug("websocket receive")
}
