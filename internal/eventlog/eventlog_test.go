package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qiudaomao/atlantis/internal/mocks"
	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/testingx"
)

func newTask(id int64) *mocks.NetworkTask {
	req := &http.Request{Method: "POST", URL: &url.URL{Scheme: "https", Host: "www.example.com", Path: "/"}}
	return &mocks.NetworkTask{
		MockTaskIdentifier: func() int64 {
			return id
		},
		MockOriginalRequest: func() *http.Request {
			return req
		},
	}
}

// emitAll drives observer through the whole lifecycle of task.
func emitAll(observer model.Observer, task model.NetworkTask, err error) {
	observer.TaskDidUpload(task, task.OriginalRequest(), []byte("abcd"))
	observer.TaskDidResume(task)
	observer.TaskDidReceiveResponse(task, &http.Response{StatusCode: 200})
	observer.TaskDidReceiveData(task, []byte("0123456789"))
	observer.WebSocketDidSend(task, model.NewWebSocketTextMessage("hi"))
	observer.WebSocketDidReceive(task, model.NewWebSocketBinaryMessage([]byte{1, 2, 3}))
	observer.TaskDidComplete(task, err)
}

func TestLogger(t *testing.T) {
	handler := memory.New()
	logger := &log.Logger{Handler: handler, Level: log.DebugLevel}
	emitAll(NewLogger(logger), newTask(7), errors.New("mocked error"))

	type entry struct {
		Level   log.Level
		Message string
		Event   any
	}
	var got []entry
	for _, e := range handler.Entries {
		if e.Fields["task"] != int64(7) || e.Fields["url"] != "https://www.example.com/" {
			t.Fatal("unexpected fields", e.Fields)
		}
		got = append(got, entry{Level: e.Level, Message: e.Message, Event: e.Fields["event"]})
	}
	expect := []entry{
		{log.DebugLevel, "upload", "uploaded"},
		{log.InfoLevel, "POST started", "resumed"},
		{log.DebugLevel, "response", "response_received"},
		{log.DebugLevel, "data", "data_received"},
		{log.DebugLevel, "websocket send", "websocket_sent"},
		{log.DebugLevel, "websocket receive", "websocket_received"},
		{log.InfoLevel, "completed: mocked error", "completed"},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatal(diff)
	}
}

// failingWriter is an io.Writer that always fails.
type failingWriter struct {
	err error
}

func (fw *failingWriter) Write(b []byte) (int, error) {
	return 0, fw.err
}

func TestJSONLRecorder(t *testing.T) {
	t.Run("writes a record per line", func(t *testing.T) {
		var buf bytes.Buffer
		zeroTime := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
		r := NewJSONLRecorder(&buf)
		r.TimeNow = testingx.NewTimeDeterministic(zeroTime).Now
		if _, err := uuid.Parse(r.RunID()); err != nil {
			t.Fatal(err)
		}
		emitAll(r, newTask(3), errors.New("mocked error"))
		if err := r.Err(); err != nil {
			t.Fatal(err)
		}

		var records []Record
		scanner := bufio.NewScanner(&buf)
		for scanner.Scan() {
			var rec Record
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				t.Fatal(err)
			}
			records = append(records, rec)
		}
		failure := "mocked error"
		base := Record{RunID: r.RunID(), TaskID: 3, Method: "POST", URL: "https://www.example.com/"}
		expect := []Record{base, base, base, base, base, base, base}
		expect[0].Kind, expect[0].Size = "uploaded", 4
		expect[1].Kind = "resumed"
		expect[2].Kind, expect[2].StatusCode = "response_received", 200
		expect[3].Kind, expect[3].Size = "data_received", 10
		expect[4].Kind, expect[4].Size, expect[4].MessageType = "websocket_sent", 2, "text"
		expect[5].Kind, expect[5].Size, expect[5].MessageType = "websocket_received", 3, "binary"
		expect[6].Kind, expect[6].Failure = "completed", &failure
		for idx := range expect {
			expect[idx].Time = zeroTime.Add(time.Duration(idx) * time.Second)
		}
		if diff := cmp.Diff(expect, records); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("stops writing after an error", func(t *testing.T) {
		expected := errors.New("mocked error")
		r := NewJSONLRecorder(&failingWriter{err: expected})
		emitAll(r, newTask(1), nil)
		if !errors.Is(r.Err(), expected) {
			t.Fatal("unexpected error", r.Err())
		}
	})

	t.Run("each recorder has its own run ID", func(t *testing.T) {
		if NewJSONLRecorder(&bytes.Buffer{}).RunID() == NewJSONLRecorder(&bytes.Buffer{}).RunID() {
			t.Fatal("expected different run IDs")
		}
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TimeNow = testingx.NewTimeDeterministic(time.Now()).Now
	emitAll(m, newTask(1), nil)
	emitAll(m, newTask(2), errors.New("mocked error"))
	m.TaskDidComplete(newTask(3), nil) // never resumed

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body := rr.Body.String()
	expect := []string{
		`atlantis_events_count{kind="resumed"} 2`,
		`atlantis_events_count{kind="completed"} 3`,
		`atlantis_events_count{kind="data_received"} 2`,
		`atlantis_tasks_completed_count{result="ok"} 2`,
		`atlantis_tasks_completed_count{result="error"} 1`,
		`atlantis_bytes_count{direction="received"} 20`,
		`atlantis_bytes_count{direction="uploaded"} 8`,
		`atlantis_bytes_count{direction="websocket_sent"} 4`,
		`atlantis_bytes_count{direction="websocket_received"} 6`,
		`atlantis_tasks_inflight_gauge 0`,
		`atlantis_task_duration_seconds_count 2`,
	}
	for _, line := range expect {
		if !strings.Contains(body, line+"\n") {
			t.Fatal("missing", line, "in", body)
		}
	}

	t.Run("registering twice panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic")
			}
		}()
		NewMetrics(reg)
	})
}

func TestSummary(t *testing.T) {
	t.Run("without events", func(t *testing.T) {
		report, err := NewSummary().Report()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(&SummaryReport{}, report); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with events", func(t *testing.T) {
		s := NewSummary()
		s.TimeNow = testingx.NewTimeDeterministic(time.Now()).Now
		task := newTask(1)
		s.TaskDidUpload(task, task.OriginalRequest(), []byte("xx"))
		s.TaskDidResume(task)
		for size := 1; size <= 20; size++ {
			s.TaskDidReceiveData(task, make([]byte, size))
		}
		s.WebSocketDidSend(task, model.NewWebSocketTextMessage("a"))
		s.WebSocketDidReceive(task, model.NewWebSocketTextMessage("b"))
		s.TaskDidComplete(task, errors.New("mocked error"))
		report, err := s.Report()
		if err != nil {
			t.Fatal(err)
		}
		expect := &SummaryReport{
			Tasks:          1,
			Failures:       1,
			BytesReceived:  210,
			BytesUploaded:  2,
			Messages:       2,
			ChunkMean:      10.5,
			ChunkMedian:    10.5,
			ChunkP95:       19,
			ChunkMax:       20,
			DurationMedian: 1,
		}
		if diff := cmp.Diff(expect, report); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with a single chunk", func(t *testing.T) {
		s := NewSummary()
		s.TaskDidReceiveData(newTask(1), []byte("abc"))
		report, err := s.Report()
		if err != nil {
			t.Fatal(err)
		}
		if report.ChunkP95 != 3 || report.ChunkMax != 3 {
			t.Fatal("unexpected report", report)
		}
	})
}
