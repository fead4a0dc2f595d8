// Package selftraffic classifies network tasks created by the interception
// layer's own diagnostic channel, so that we do not observe them.
//
// The diagnostic channel marks its requests with [Mark] (or [MarkRequest])
// before creating tasks. The marker lives in the request context, which
// is immutable, so once set it cannot be removed.
package selftraffic

import (
	"context"
	"net/http"

	"github.com/qiudaomao/atlantis/internal/model"
)

type markerKey struct{}

// Mark returns a copy of ctx carrying the self-traffic marker.
func Mark(ctx context.Context) context.Context {
	return context.WithValue(ctx, markerKey{}, true)
}

// MarkRequest returns a shallow copy of req whose context carries the marker.
func MarkRequest(req *http.Request) *http.Request {
	return req.WithContext(Mark(req.Context()))
}

// IsMarked returns whether ctx carries the self-traffic marker.
func IsMarked(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(markerKey{}).(bool)
	return v
}

// Marked is an optional interface for tasks carrying the marker directly.
type Marked interface {
	IsSelfTraffic() bool
}

// Filter decides whether a task is self-traffic.
type Filter interface {
	IsSelfTraffic(task model.NetworkTask) bool
}

// FilterFunc adapts a func to [Filter].
type FilterFunc func(task model.NetworkTask) bool

var _ Filter = FilterFunc(nil)

// IsSelfTraffic implements Filter.
func (fx FilterFunc) IsSelfTraffic(task model.NetworkTask) bool {
	return fx(task)
}

// DefaultFilter is the [Filter] checking [Marked] and the request context.
var DefaultFilter Filter = FilterFunc(IsSelfTraffic)

// IsSelfTraffic returns whether task carries the self-traffic marker. A nil
// task or a task without a request is not self-traffic.
func IsSelfTraffic(task model.NetworkTask) bool {
	if task == nil {
		return false
	}
	if m, good := task.(Marked); good && m.IsSelfTraffic() {
		return true
	}
	req := task.OriginalRequest()
	return req != nil && IsMarked(req.Context())
}
