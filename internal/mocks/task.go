package mocks

import (
	"net/http"

	"github.com/qiudaomao/atlantis/internal/model"
)

// NetworkTask allows mocking a model.NetworkTask.
type NetworkTask struct {
	MockTaskIdentifier  func() int64
	MockOriginalRequest func() *http.Request
	MockResponse        func() *http.Response
	MockError           func() error
	MockState           func() model.TaskState
}

var _ model.NetworkTask = &NetworkTask{}

// TaskIdentifier calls MockTaskIdentifier.
func (t *NetworkTask) TaskIdentifier() int64 {
	return t.MockTaskIdentifier()
}

// OriginalRequest calls MockOriginalRequest.
func (t *NetworkTask) OriginalRequest() *http.Request {
	return t.MockOriginalRequest()
}

// Response calls MockResponse.
func (t *NetworkTask) Response() *http.Response {
	return t.MockResponse()
}

// Error calls MockError.
func (t *NetworkTask) Error() error {
	return t.MockError()
}

// State calls MockState.
func (t *NetworkTask) State() model.TaskState {
	return t.MockState()
}
