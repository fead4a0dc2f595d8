package mocks

import (
	"net/http"

	"github.com/qiudaomao/atlantis/internal/model"
)

// Observer allows mocking a model.Observer.
type Observer struct {
	MockTaskDidResume          func(task model.NetworkTask)
	MockTaskDidReceiveResponse func(task model.NetworkTask, resp *http.Response)
	MockTaskDidReceiveData     func(task model.NetworkTask, data []byte)
	MockTaskDidComplete        func(task model.NetworkTask, err error)
	MockTaskDidUpload          func(task model.NetworkTask, req *http.Request, payload []byte)
	MockWebSocketDidSend       func(task model.NetworkTask, message model.WebSocketMessage)
	MockWebSocketDidReceive    func(task model.NetworkTask, message model.WebSocketMessage)
}

var _ model.Observer = &Observer{}

// TaskDidResume calls MockTaskDidResume.
func (o *Observer) TaskDidResume(task model.NetworkTask) {
	o.MockTaskDidResume(task)
}

// TaskDidReceiveResponse calls MockTaskDidReceiveResponse.
func (o *Observer) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {
	o.MockTaskDidReceiveResponse(task, resp)
}

// TaskDidReceiveData calls MockTaskDidReceiveData.
func (o *Observer) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	o.MockTaskDidReceiveData(task, data)
}

// TaskDidComplete calls MockTaskDidComplete.
func (o *Observer) TaskDidComplete(task model.NetworkTask, err error) {
	o.MockTaskDidComplete(task, err)
}

// TaskDidUpload calls MockTaskDidUpload.
func (o *Observer) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	o.MockTaskDidUpload(task, req, payload)
}

// WebSocketDidSend calls MockWebSocketDidSend.
func (o *Observer) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	o.MockWebSocketDidSend(task, message)
}

// WebSocketDidReceive calls MockWebSocketDidReceive.
func (o *Observer) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	o.MockWebSocketDidReceive(task, message)
}
