package eventlog

//
// Prometheus metrics
//

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qiudaomao/atlantis/internal/model"
)

// metricsSummaryObjectives returns the summary objectives for promauto.NewSummary.
func metricsSummaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.25: 0.010,
		0.5:  0.010,
		0.75: 0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

// Metrics is a [model.Observer] exporting prometheus metrics.
type Metrics struct {
	events       *prometheus.CounterVec
	completed    *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	inflight     prometheus.Gauge
	taskDuration prometheus.Summary

	// TimeNow is the OPTIONAL function to get the current time.
	TimeNow func() time.Time

	// mu protects started.
	mu      sync.Mutex
	started map[model.NetworkTask]time.Time
}

var _ model.Observer = &Metrics{}

// NewMetrics creates a new [*Metrics] registering the metrics with reg. This
// function panics if reg already contains metrics with the same names.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atlantis_events_count",
			Help: "Total number of lifecycle events by kind",
		}, []string{"kind"}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atlantis_tasks_completed_count",
			Help: "Total number of completed tasks by result",
		}, []string{"result"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atlantis_bytes_count",
			Help: "Total number of payload bytes by direction",
		}, []string{"direction"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "atlantis_tasks_inflight_gauge",
			Help: "The number of tasks currently inflight",
		}),
		taskDuration: factory.NewSummary(prometheus.SummaryOpts{
			Name:       "atlantis_task_duration_seconds",
			Help:       "Summarizes the time between resuming and completing a task (in seconds)",
			Objectives: metricsSummaryObjectives(),
		}),
		started: make(map[model.NetworkTask]time.Time),
	}
}

func (m *Metrics) now() time.Time {
	if m.TimeNow != nil {
		return m.TimeNow()
	}
	return time.Now()
}

// TaskDidResume implements model.Observer.
func (m *Metrics) TaskDidResume(task model.NetworkTask) {
	m.events.WithLabelValues(string(model.EventResumed)).Inc()
	m.inflight.Inc()
	m.mu.Lock()
	m.started[task] = m.now()
	m.mu.Unlock()
}

// TaskDidReceiveResponse implements model.Observer.
func (m *Metrics) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {
	m.events.WithLabelValues(string(model.EventResponseReceived)).Inc()
}

// TaskDidReceiveData implements model.Observer.
func (m *Metrics) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	m.events.WithLabelValues(string(model.EventDataReceived)).Inc()
	m.bytes.WithLabelValues("received").Add(float64(len(data)))
}

// TaskDidComplete implements model.Observer.
func (m *Metrics) TaskDidComplete(task model.NetworkTask, err error) {
	m.events.WithLabelValues(string(model.EventCompleted)).Inc()
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.completed.WithLabelValues(result).Inc()
	m.mu.Lock()
	started, found := m.started[task]
	delete(m.started, task)
	m.mu.Unlock()
	if found {
		m.inflight.Dec()
		m.taskDuration.Observe(m.now().Sub(started).Seconds())
	}
}

// TaskDidUpload implements model.Observer.
func (m *Metrics) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	m.events.WithLabelValues(string(model.EventUploaded)).Inc()
	m.bytes.WithLabelValues("uploaded").Add(float64(len(payload)))
}

// WebSocketDidSend implements model.Observer.
func (m *Metrics) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	m.events.WithLabelValues(string(model.EventWebSocketSent)).Inc()
	m.bytes.WithLabelValues("websocket_sent").Add(float64(message.Size()))
}

// WebSocketDidReceive implements model.Observer.
func (m *Metrics) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	m.events.WithLabelValues(string(model.EventWebSocketReceived)).Inc()
	m.bytes.WithLabelValues("websocket_received").Add(float64(message.Size()))
}
