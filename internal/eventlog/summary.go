package eventlog

//
// Run summary
//

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/qiudaomao/atlantis/internal/model"
)

// Summary is a [model.Observer] collecting statistics about a run.
type Summary struct {
	// TimeNow is the OPTIONAL function to get the current time.
	TimeNow func() time.Time

	// mu protects the fields below.
	mu        sync.Mutex
	chunks    stats.Float64Data
	durations stats.Float64Data
	failures  int64
	messages  int64
	received  int64
	started   map[model.NetworkTask]time.Time
	tasks     int64
	uploaded  int64
}

var _ model.Observer = &Summary{}

// NewSummary creates a new [*Summary].
func NewSummary() *Summary {
	return &Summary{started: make(map[model.NetworkTask]time.Time)}
}

// SummaryReport contains the statistics computed by [*Summary.Report].
type SummaryReport struct {
	// Tasks is the number of resumed tasks.
	Tasks int64

	// Failures is the number of tasks completed with an error.
	Failures int64

	// BytesReceived is the total number of body bytes.
	BytesReceived int64

	// BytesUploaded is the total number of upload payload bytes.
	BytesUploaded int64

	// Messages is the number of WebSocket messages.
	Messages int64

	// Chunk statistics, in bytes, zero without chunks. ChunkP95
	// is equal to ChunkMax with a single chunk.
	ChunkMean   float64
	ChunkMedian float64
	ChunkP95    float64
	ChunkMax    float64

	// DurationMedian is the median task duration in seconds.
	DurationMedian float64
}

func (s *Summary) now() time.Time {
	if s.TimeNow != nil {
		return s.TimeNow()
	}
	return time.Now()
}

// Report computes the statistics of the events seen so far.
func (s *Summary) Report() (*SummaryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &SummaryReport{
		Tasks:         s.tasks,
		Failures:      s.failures,
		BytesReceived: s.received,
		BytesUploaded: s.uploaded,
		Messages:      s.messages,
	}
	if len(s.chunks) > 0 {
		var err error
		if r.ChunkMean, err = stats.Mean(s.chunks); err != nil {
			return nil, err
		}
		if r.ChunkMedian, err = stats.Median(s.chunks); err != nil {
			return nil, err
		}
		if r.ChunkMax, err = stats.Max(s.chunks); err != nil {
			return nil, err
		}
		// the percentile is undefined with a single sample
		if r.ChunkP95, err = stats.Percentile(s.chunks, 95); err != nil {
			r.ChunkP95 = r.ChunkMax
		}
	}
	if median, err := stats.Median(s.durations); err == nil {
		r.DurationMedian = median
	} else if !errors.Is(err, stats.EmptyInputErr) {
		return nil, err
	}
	return r, nil
}

// TaskDidResume implements model.Observer.
func (s *Summary) TaskDidResume(task model.NetworkTask) {
	s.mu.Lock()
	s.tasks++
	s.started[task] = s.now()
	s.mu.Unlock()
}

// TaskDidReceiveResponse implements model.Observer.
func (s *Summary) TaskDidReceiveResponse(task model.NetworkTask, resp *http.Response) {}

// TaskDidReceiveData implements model.Observer.
func (s *Summary) TaskDidReceiveData(task model.NetworkTask, data []byte) {
	s.mu.Lock()
	s.chunks = append(s.chunks, float64(len(data)))
	s.received += int64(len(data))
	s.mu.Unlock()
}

// TaskDidComplete implements model.Observer.
func (s *Summary) TaskDidComplete(task model.NetworkTask, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failures++
	}
	if started, found := s.started[task]; found {
		delete(s.started, task)
		s.durations = append(s.durations, s.now().Sub(started).Seconds())
	}
}

// TaskDidUpload implements model.Observer.
func (s *Summary) TaskDidUpload(task model.NetworkTask, req *http.Request, payload []byte) {
	s.mu.Lock()
	s.uploaded += int64(len(payload))
	s.mu.Unlock()
}

// WebSocketDidSend implements model.Observer.
func (s *Summary) WebSocketDidSend(task model.NetworkTask, message model.WebSocketMessage) {
	s.mu.Lock()
	s.messages++
	s.mu.Unlock()
}

// WebSocketDidReceive implements model.Observer.
func (s *Summary) WebSocketDidReceive(task model.NetworkTask, message model.WebSocketMessage) {
	s.mu.Lock()
	s.messages++
	s.mu.Unlock()
}
