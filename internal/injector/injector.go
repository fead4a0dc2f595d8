package injector

import (
	"reflect"

	"github.com/qiudaomao/atlantis/internal/gateway"
	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/redirect"
	"github.com/qiudaomao/atlantis/internal/runtimex"
	"github.com/qiudaomao/atlantis/internal/selftraffic"
	"github.com/qiudaomao/atlantis/internal/urlsession"
)

// Names of the hook groups, which can be disabled using [Config.DisabledHooks].
const (
	HookResume           = "resume"
	HookResponseReceived = "response_received"
	HookDataReceived     = "data_received"
	HookCompleted        = "completed"
	HookUpload           = "upload"
	HookWebSocketSend    = "websocket_send"
	HookWebSocketReceive = "websocket_receive"
)

// Config contains the [*Injector] configuration.
type Config struct {
	// AssertUnexpectedShapes is OPTIONAL and makes hooks panic when
	// they receive arguments with unexpected shapes.
	AssertUnexpectedShapes bool

	// Decoder is the OPTIONAL WebSocket message decoder.
	Decoder MessageDecoder

	// DisabledHooks OPTIONALLY lists hook groups not to install.
	DisabledHooks []string

	// Filter is the OPTIONAL self-traffic filter.
	Filter selftraffic.Filter

	// Gateway is the MANDATORY gateway receiving events.
	Gateway *gateway.Gateway

	// Logger is the OPTIONAL logger.
	Logger model.Logger
}

// Injector installs the lifecycle hooks. The zero value is invalid; use [New].
type Injector struct {
	assert   bool
	decoder  MessageDecoder
	disabled map[string]bool
	filter   selftraffic.Filter
	gateway  *gateway.Gateway
	logger   model.Logger
}

// New creates a new [*Injector]. This function panics if config
// or config.Gateway are nil.
func New(config *Config) *Injector {
	runtimex.PanicIfNil(config, "injector: nil config")
	runtimex.Assert(config.Gateway != nil, "injector: nil gateway")
	inj := &Injector{
		assert:   config.AssertUnexpectedShapes,
		decoder:  config.Decoder,
		disabled: make(map[string]bool),
		filter:   config.Filter,
		gateway:  config.Gateway,
		logger:   model.ValidLoggerOrDefault(config.Logger),
	}
	if inj.decoder == nil {
		inj.decoder = DefaultMessageDecoder
	}
	if inj.filter == nil {
		inj.filter = selftraffic.DefaultFilter
	}
	for _, name := range config.DisabledHooks {
		inj.disabled[name] = true
	}
	return inj
}

// InstallReport describes the outcome of [*Injector.Inject].
type InstallReport struct {
	// Installed lists the hooked targets.
	Installed []redirect.Target

	// Skipped lists the targets we did not hook and why.
	Skipped []*redirect.HookError
}

// Inject installs all the hooks into the given classes. Hooks whose
// target is missing are skipped and listed in the returned report. This
// method should run once, during startup, before traffic begins.
func (inj *Injector) Inject(classes *urlsession.Classes) *InstallReport {
	report := &InstallReport{}
	if classes == nil {
		return report
	}

	inj.install(report, HookResume,
		redirect.Target{Class: classes.Task, Operation: urlsession.OpResume}, inj.installResume)

	// exactly one of the two shapes exists depending on the runtime version
	inj.install(report, HookResponseReceived,
		redirect.Target{Class: classes.TaskLoader, Operation: urlsession.OpDidReceiveResponseSniffRewrite},
		inj.installResponseReceivedSniffRewrite)
	inj.install(report, HookResponseReceived,
		redirect.Target{Class: classes.TaskLoader, Operation: urlsession.OpDidReceiveResponseSniff},
		inj.installResponseReceivedSniff)

	inj.install(report, HookDataReceived,
		redirect.Target{Class: classes.TaskLoader, Operation: urlsession.OpDidReceiveData}, inj.installDataReceived)
	inj.install(report, HookCompleted,
		redirect.Target{Class: classes.TaskLoader, Operation: urlsession.OpDidFinishWithError}, inj.installCompleted)

	inj.install(report, HookUpload,
		redirect.Target{Class: classes.Session, Operation: urlsession.OpUploadTaskWithRequestFromFile},
		inj.installUploadFromFile)
	inj.install(report, HookUpload,
		redirect.Target{Class: classes.Session, Operation: urlsession.OpUploadTaskWithRequestFromFileCompletionHandler},
		inj.installUploadFromFileCompletion)
	inj.install(report, HookUpload,
		redirect.Target{Class: classes.Session, Operation: urlsession.OpUploadTaskWithRequestFromData},
		inj.installUploadFromData)
	inj.install(report, HookUpload,
		redirect.Target{Class: classes.Session, Operation: urlsession.OpUploadTaskWithRequestFromDataCompletionHandler},
		inj.installUploadFromDataCompletion)

	if classes.WebSocketTask == nil {
		inj.logger.Warn("injector: cannot find the WebSocketTask class")
	}
	inj.install(report, HookWebSocketSend,
		redirect.Target{Class: classes.WebSocketTask, Operation: urlsession.OpSendMessageCompletionHandler},
		inj.installWebSocketSend)
	inj.install(report, HookWebSocketReceive,
		redirect.Target{Class: classes.WebSocketTask, Operation: urlsession.OpReceiveMessageCompletionHandler},
		inj.installWebSocketReceive)

	return report
}

func (inj *Injector) install(report *InstallReport, group string,
	target redirect.Target, installer func(target redirect.Target) error) {
	if inj.disabled[group] {
		report.Skipped = append(report.Skipped, &redirect.HookError{Target: target, Err: ErrHookDisabled})
		return
	}
	if err := installer(target); err != nil {
		inj.logger.Debugf("injector: not hooking %s", err.Error())
		hookErr, good := err.(*redirect.HookError)
		if !good {
			hookErr = &redirect.HookError{Target: target, Err: err}
		}
		report.Skipped = append(report.Skipped, hookErr)
		return
	}
	inj.logger.Debugf("injector: hooked %s", target.String())
	report.Installed = append(report.Installed, target)
}

// unexpectedShape handles arguments whose shape we do not recognize. The
// caller MUST have already invoked the original behavior.
func (inj *Injector) unexpectedShape(op string) {
	inj.logger.Debugf("injector: %s: %s", op, ErrUnexpectedArgumentShape.Error())
	runtimex.Assert(!inj.assert, "injector: could not get data from "+op+
		": the runtime may have changed in an incompatible way")
}

// notify delivers ev unless the task is self-traffic.
func (inj *Injector) notify(ev model.LifecycleEvent) {
	if inj.filter.IsSelfTraffic(ev.EventTask()) {
		return
	}
	inj.gateway.Notify(ev)
}

// observing returns whether someone is listening, so that we can
// avoid costly work, such as reading files, when nobody is.
func (inj *Injector) observing() bool {
	return inj.gateway.Observer() != nil
}

// taskOwner is implemented by objects knowing which task they work for.
type taskOwner interface {
	OwnerTask() model.NetworkTask
}

// asTask converts v to a non-nil [model.NetworkTask].
func asTask(v any) (model.NetworkTask, bool) {
	task, good := v.(model.NetworkTask)
	if !good || isNilPointer(task) {
		return nil, false
	}
	return task, true
}

// ownerTask returns the task that the given loader works for.
func ownerTask(self any) (model.NetworkTask, bool) {
	owner, good := self.(taskOwner)
	if !good || isNilPointer(owner) {
		return nil, false
	}
	return asTask(owner.OwnerTask())
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil())
}
