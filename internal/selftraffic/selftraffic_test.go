package selftraffic

import (
	"context"
	"net/http"
	"testing"

	"github.com/qiudaomao/atlantis/internal/mocks"
	"github.com/qiudaomao/atlantis/internal/model"
)

// markedTask is a task implementing Marked.
type markedTask struct {
	*mocks.NetworkTask
	marked bool
}

func (mt *markedTask) IsSelfTraffic() bool {
	return mt.marked
}

func taskWithRequest(req *http.Request) *mocks.NetworkTask {
	return &mocks.NetworkTask{
		MockOriginalRequest: func() *http.Request {
			return req
		},
	}
}

func TestMark(t *testing.T) {
	ctx := context.Background()
	if IsMarked(ctx) {
		t.Fatal("background context should not be marked")
	}
	if !IsMarked(Mark(ctx)) {
		t.Fatal("expected the context to be marked")
	}
	derived, cancel := context.WithCancel(Mark(ctx))
	defer cancel()
	if !IsMarked(derived) {
		t.Fatal("expected derived contexts to be marked")
	}
	if IsMarked(nil) {
		t.Fatal("nil context should not be marked")
	}
}

func TestIsSelfTraffic(t *testing.T) {
	req, err := http.NewRequest("GET", "https://www.example.com/", nil)
	if err != nil {
		t.Fatal(err)
	}

	type testcase struct {
		name   string
		task   model.NetworkTask
		expect bool
	}

	cases := []testcase{{
		name:   "nil task",
		task:   nil,
		expect: false,
	}, {
		name:   "task without request",
		task:   taskWithRequest(nil),
		expect: false,
	}, {
		name:   "task with unmarked request",
		task:   taskWithRequest(req),
		expect: false,
	}, {
		name:   "task with marked request",
		task:   taskWithRequest(MarkRequest(req)),
		expect: true,
	}, {
		name:   "task marked directly",
		task:   &markedTask{NetworkTask: taskWithRequest(nil), marked: true},
		expect: true,
	}, {
		name:   "task implementing Marked returning false",
		task:   &markedTask{NetworkTask: taskWithRequest(MarkRequest(req))},
		expect: true,
	}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultFilter.IsSelfTraffic(tc.task); got != tc.expect {
				t.Fatal("expected", tc.expect, "got", got)
			}
		})
	}

	t.Run("MarkRequest does not modify the original request", func(t *testing.T) {
		_ = MarkRequest(req)
		if IsMarked(req.Context()) {
			t.Fatal("the original request should not be marked")
		}
	})
}
