package model

//
// Network tasks
//

import "net/http"

// TaskState is the state of a [NetworkTask].
type TaskState int

const (
	// TaskStateSuspended means the task has been created but not resumed.
	TaskStateSuspended = TaskState(iota)

	// TaskStateRunning means the task is transferring data.
	TaskStateRunning

	// TaskStateCanceling means someone canceled the task and we are
	// waiting for the transfer to stop.
	TaskStateCanceling

	// TaskStateCompleted means the task reached its terminal state.
	TaskStateCompleted
)

// String implements fmt.Stringer.
func (s TaskState) String() string {
	switch s {
	case TaskStateSuspended:
		return "suspended"
	case TaskStateRunning:
		return "running"
	case TaskStateCanceling:
		return "canceling"
	case TaskStateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// NetworkTask is the host application's in-flight request/response unit.
//
// The interception layer does not own tasks. It only observes them by
// reference and never changes their state.
type NetworkTask interface {
	// TaskIdentifier returns an identifier unique within the owning session.
	TaskIdentifier() int64

	// OriginalRequest returns the request the task was created with.
	OriginalRequest() *http.Request

	// Response returns the response, or nil if we have not received it yet.
	Response() *http.Response

	// Error returns the accumulated error, if any.
	Error() error

	// State returns the current task state.
	State() TaskState
}
