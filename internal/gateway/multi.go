package gateway

import (
	"net/http"

	"github.com/qiudaomao/atlantis/internal/model"
)

// Multi is a [model.Observer] forwarding each event to all the observers
// it contains, in order. A nil entry is skipped.
type Multi []model.Observer

var _ model.Observer = Multi{}

func (m Multi) each(fn func(o model.Observer)) {
	for _, o := range m {
		if o != nil {
			fn(o)
		}
	}
}

// TaskDidResume implements model.Observer.
func (m Multi) TaskDidResume(task model.NetworkTask) {
	m.each(func(o model.Observer) { o.TaskDidResume(task) })
}

// TaskDidReceiveResponse implements model.Observer.
func (m Multi) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {
	m.each(func(o model.Observer) { o.TaskDidReceiveResponse(task, resp) })
}

// TaskDidReceiveData implements model.Observer.
func (m Multi) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	m.each(func(o model.Observer) { o.TaskDidReceiveData(task, data) })
}

// TaskDidComplete implements model.Observer.
func (m Multi) TaskDidComplete(task model.NetworkTask, err error) {
	m.each(func(o model.Observer) { o.TaskDidComplete(task, err) })
}

// TaskDidUpload implements model.Observer.
func (m Multi) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	m.each(func(o model.Observer) { o.TaskDidUpload(task, req, payload) })
}

// WebSocketDidSend implements model.Observer.
func (m Multi) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	m.each(func(o model.Observer) { o.WebSocketDidSend(task, message) })
}

// WebSocketDidReceive implements model.Observer.
func (m Multi) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	m.each(func(o model.Observer) { o.WebSocketDidReceive(task, message) })
}
