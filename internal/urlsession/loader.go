package urlsession

import (
	"net/http"
	"sync/atomic"

	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/redirect"
)

// taskLoader receives the transfer callbacks of a task. The callbacks are
// dispatched through the TaskLoader class.
type taskLoader struct {
	task  *Task
	owner any

	// finished ensures we dispatch OpDidFinishWithError once.
	finished atomic.Bool
}

// OwnerTask returns the task this loader works for, which is either
// a [*Task] or a [*WebSocketTask].
func (l *taskLoader) OwnerTask() model.NetworkTask {
	if nt, good := l.owner.(model.NetworkTask); good {
		return nt
	}
	return l.task
}

func (l *taskLoader) class() *redirect.Class {
	return l.task.session.rt.classes.TaskLoader
}

// receiveResponse dispatches the response using the operation that is
// available for the current runtime version.
func (l *taskLoader) receiveResponse(resp *http.Response) {
	c := l.class()
	if fn, good := redirect.Lookup[DidReceiveResponseSniffRewriteFunc](c, OpDidReceiveResponseSniffRewrite); good {
		fn(l, resp, true, false)
		return
	}
	if fn, good := redirect.Lookup[DidReceiveResponseSniffFunc](c, OpDidReceiveResponseSniff); good {
		fn(l, resp, true)
	}
}

func (l *taskLoader) receiveData(data []byte) {
	if fn, good := redirect.Lookup[DidReceiveDataFunc](l.class(), OpDidReceiveData); good {
		fn(l, data)
	}
}

func (l *taskLoader) finish(err error) {
	if !l.finished.CompareAndSwap(false, true) {
		return
	}
	if fn, good := redirect.Lookup[DidFinishWithErrorFunc](l.class(), OpDidFinishWithError); good {
		var arg any
		if err != nil {
			arg = err
		}
		fn(l, arg)
		return
	}
	// without the operation the task would never complete
	l.task.complete(err)
}

func newTaskLoaderClass(version int) *redirect.Class {
	c := redirect.NewClass("TaskLoader", nil)
	if version >= ModernVersion {
		c.Define(OpDidReceiveResponseSniffRewrite, func(self any, response any, sniff bool, rewrite bool) {
			loaderDidReceiveResponse(self, response)
		})
	} else {
		c.Define(OpDidReceiveResponseSniff, func(self any, response any, sniff bool) {
			loaderDidReceiveResponse(self, response)
		})
	}
	c.Define(OpDidReceiveData, func(self any, data any) {
		l, good1 := self.(*taskLoader)
		chunk, good2 := data.([]byte)
		if !good1 || !good2 {
			return
		}
		l.task.appendData(chunk)
		if d := l.task.session.delegate; d != nil {
			d.DidReceiveData(l.task, chunk)
		}
	})
	c.Define(OpDidFinishWithError, func(self any, err any) {
		l, good := self.(*taskLoader)
		if !good {
			return
		}
		e, _ := err.(error)
		l.task.complete(e)
	})
	return c
}

func loaderDidReceiveResponse(self any, response any) {
	l, good1 := self.(*taskLoader)
	resp, good2 := response.(*http.Response)
	if !good1 || !good2 {
		return
	}
	l.task.setResponse(resp)
	if d := l.task.session.delegate; d != nil {
		d.DidReceiveResponse(l.task, resp)
	}
}
