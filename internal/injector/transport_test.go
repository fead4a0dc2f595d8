package injector

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/qiudaomao/atlantis/internal/gateway"
	"github.com/qiudaomao/atlantis/internal/mocks"
	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/selftraffic"
	"github.com/qiudaomao/atlantis/internal/testingx"
)

func TestWrapHTTPTransport(t *testing.T) {
	newTransport := func() (model.HTTPTransport, *testingx.EventRecorder) {
		rec := &testingx.EventRecorder{}
		inj := New(&Config{Gateway: gateway.New(rec)})
		return inj.WrapHTTPTransport(newChunkedTransport("a", "b")), rec
	}

	t.Run("reading the whole body", func(t *testing.T) {
		txp, rec := newTransport()
		resp, err := txp.RoundTrip(mustNewRequest(t, "GET", "http://www.example.com/"))
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "ab" {
			t.Fatal("unexpected body", string(data))
		}
		resp.Body.Close()
		expect := []model.EventKind{
			model.EventResumed,
			model.EventResponseReceived,
			model.EventDataReceived,
			model.EventDataReceived,
			model.EventCompleted,
		}
		if diff := cmp.Diff(expect, rec.Kinds()); diff != "" {
			t.Fatal(diff)
		}
		events := rec.Events()
		task := events[0].EventTask()
		if task.TaskIdentifier() >= 0 {
			t.Fatal("expected a negative identifier")
		}
		if task.State() != model.TaskStateCompleted || task.Error() != nil {
			t.Fatal("unexpected final state")
		}
		if task.Response() != resp {
			t.Fatal("unexpected response")
		}
	})

	t.Run("closing the body early", func(t *testing.T) {
		txp, rec := newTransport()
		resp, err := txp.RoundTrip(mustNewRequest(t, "GET", "http://www.example.com/"))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		resp.Body.Close()
		events := rec.Events()
		if len(events) != 3 {
			t.Fatal("expected three events, got", len(events))
		}
		if ev := events[2].(*model.CompletedEvent); !errors.Is(ev.Err, ErrBodyClosed) {
			t.Fatal("unexpected error", ev.Err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		expected := errors.New("mocked error")
		rec := &testingx.EventRecorder{}
		inj := New(&Config{Gateway: gateway.New(rec)})
		txp := inj.WrapHTTPTransport(&mocks.HTTPTransport{
			MockRoundTrip: func(req *http.Request) (*http.Response, error) {
				body := &mocks.ReadCloser{
					MockRead: func(b []byte) (int, error) {
						return 0, expected
					},
					MockClose: func() error {
						return nil
					},
				}
				return &http.Response{StatusCode: 200, Body: body}, nil
			},
		})
		resp, err := txp.RoundTrip(mustNewRequest(t, "GET", "http://www.example.com/"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.ReadAll(resp.Body); !errors.Is(err, expected) {
			t.Fatal("unexpected error", err)
		}
		resp.Body.Close()
		expect := []model.EventKind{model.EventResumed, model.EventResponseReceived, model.EventCompleted}
		if diff := cmp.Diff(expect, rec.Kinds()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("round trip error", func(t *testing.T) {
		expected := errors.New("mocked error")
		rec := &testingx.EventRecorder{}
		inj := New(&Config{Gateway: gateway.New(rec)})
		txp := inj.WrapHTTPTransport(&mocks.HTTPTransport{
			MockRoundTrip: func(req *http.Request) (*http.Response, error) {
				return nil, expected
			},
		})
		resp, err := txp.RoundTrip(mustNewRequest(t, "GET", "http://www.example.com/"))
		if !errors.Is(err, expected) || resp != nil {
			t.Fatal("unexpected result", resp, err)
		}
		expect := []model.EventKind{model.EventResumed, model.EventCompleted}
		if diff := cmp.Diff(expect, rec.Kinds()); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("self traffic", func(t *testing.T) {
		txp, rec := newTransport()
		req := selftraffic.MarkRequest(mustNewRequest(t, "GET", "http://www.example.com/"))
		resp, err := txp.RoundTrip(req)
		if err != nil {
			t.Fatal(err)
		}
		io.ReadAll(resp.Body)
		resp.Body.Close()
		if len(rec.Events()) != 0 {
			t.Fatal("expected no events")
		}
	})

	t.Run("CloseIdleConnections", func(t *testing.T) {
		var called bool
		inj := New(&Config{Gateway: &gateway.Gateway{}})
		txp := inj.WrapHTTPTransport(&mocks.HTTPTransport{
			MockCloseIdleConnections: func() {
				called = true
			},
		})
		txp.CloseIdleConnections()
		if !called {
			t.Fatal("not called")
		}
	})
}
