package main

//
// Composition root: configuration, observers, injector and session.
//

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qiudaomao/atlantis/internal/config"
	"github.com/qiudaomao/atlantis/internal/eventlog"
	"github.com/qiudaomao/atlantis/internal/gateway"
	"github.com/qiudaomao/atlantis/internal/injector"
	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/selftraffic"
	"github.com/qiudaomao/atlantis/internal/urlsession"
)

// apex/log's logger is what we pass to libraries as model.Logger.
var _ model.Logger = log.Log

// stack is the fully wired interception stack.
type stack struct {
	closers     []func()
	completions *completionWaiter
	config      *config.Config
	gateway     *gateway.Gateway
	recorder    *eventlog.JSONLRecorder
	report      *injector.InstallReport
	session     *urlsession.Session
	summary     *eventlog.Summary
}

// completionWaiter tracks the tasks for which we observed the completed event.
type completionWaiter struct {
	model.NopObserver
	done map[model.NetworkTask]chan struct{}
	mu   sync.Mutex
}

func newCompletionWaiter() *completionWaiter {
	return &completionWaiter{done: map[model.NetworkTask]chan struct{}{}}
}

func (cw *completionWaiter) channel(task model.NetworkTask) chan struct{} {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	ch, found := cw.done[task]
	if !found {
		ch = make(chan struct{})
		cw.done[task] = ch
	}
	return ch
}

func (cw *completionWaiter) TaskDidComplete(task model.NetworkTask, err error) {
	ch := cw.channel(task)
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// wait waits at most timeout for the completed event of task.
func (cw *completionWaiter) wait(task model.NetworkTask, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-cw.channel(task):
		return true
	case <-timer.C:
		return false
	}
}

// loadConfig loads the config file and applies the command line options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.AssertUnexpectedShapes {
		cfg.AssertUnexpectedShapes = true
	}
	if len(opts.DisabledHooks) > 0 {
		cfg.DisabledHooks = opts.DisabledHooks
	}
	if opts.MetricsAddress != "" {
		cfg.MetricsAddress = opts.MetricsAddress
	}
	if opts.RecordFile != "" {
		cfg.RecordFile = opts.RecordFile
	}
	if opts.RuntimeVersion != 0 {
		cfg.RuntimeVersion = opts.RuntimeVersion
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newStack creates the stack. The caller must call close when done.
func newStack(opts *Options) (*stack, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log.SetLevel(cfg.Level())

	s := &stack{
		completions: newCompletionWaiter(),
		config:      cfg,
		summary:     eventlog.NewSummary(),
	}
	observers := gateway.Multi{eventlog.NewLogger(log.Log), s.summary, s.completions}

	if cfg.RecordFile != "" {
		fp, err := os.OpenFile(cfg.RecordFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { fp.Close() })
		s.recorder = eventlog.NewJSONLRecorder(fp)
		observers = append(observers, s.recorder)
		log.Infof("recording events with run ID %s into %s", s.recorder.RunID(), cfg.RecordFile)
	}

	if cfg.MetricsAddress != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, eventlog.NewMetrics(reg))
		if err := s.serveMetrics(cfg.MetricsAddress, reg); err != nil {
			s.close()
			return nil, err
		}
	}

	s.gateway = gateway.New(observers)
	rt := urlsession.NewRuntime(cfg.RuntimeVersion)
	inj := injector.New(&injector.Config{
		AssertUnexpectedShapes: cfg.AssertUnexpectedShapes,
		DisabledHooks:          cfg.DisabledHooks,
		Gateway:                s.gateway,
		Logger:                 log.Log,
	})
	s.report = inj.Inject(rt.Classes())
	for _, failure := range s.report.Skipped {
		log.Debugf("hook not installed: %s", failure.Error())
	}
	log.Debugf("installed %d hooks into runtime version %d", len(s.report.Installed), rt.Version())

	s.session = urlsession.NewSession(&urlsession.Configuration{
		Logger:  log.Log,
		Runtime: rt,
	})
	return s, nil
}

func (s *stack) serveMetrics(address string, reg *prometheus.Registry) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(listener)
	log.Infof("serving prometheus metrics at http://%s/metrics", listener.Addr().String())
	s.closers = append(s.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return nil
}

// wait waits for task to complete, canceling it when ctx is done.
func (s *stack) wait(ctx context.Context, task *urlsession.Task) error {
	err := task.Wait(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		task.Cancel()
		<-task.Done()
		err = task.Error()
	}
	s.waitCompletedEvent(task)
	return err
}

// waitCompletedEvent waits for the observers to see the completed event, which
// the hook emits after the task is done.
func (s *stack) waitCompletedEvent(task model.NetworkTask) {
	if slices.Contains(s.config.DisabledHooks, injector.HookCompleted) || selftraffic.IsSelfTraffic(task) {
		return
	}
	if !s.completions.wait(task, time.Second) {
		log.Debugf("did not observe the completed event for task %d", task.TaskIdentifier())
	}
}

// close logs the summary and releases the resources.
func (s *stack) close() {
	if s.session != nil {
		s.session.InvalidateAndCancel()
	}
	if s.gateway != nil {
		s.gateway.Unregister()
	}
	if report, err := s.summary.Report(); err == nil {
		log.WithFields(log.Fields{
			"tasks":          report.Tasks,
			"failures":       report.Failures,
			"bytes_received": report.BytesReceived,
			"bytes_uploaded": report.BytesUploaded,
			"messages":       report.Messages,
			"chunk_mean":     report.ChunkMean,
			"chunk_p95":      report.ChunkP95,
			"median_seconds": report.DurationMedian,
		}).Info("summary")
	}
	if s.recorder != nil {
		if err := s.recorder.Err(); err != nil {
			log.Warnf("cannot record events: %s", err.Error())
		}
	}
	for _, fn := range s.closers {
		fn()
	}
}
