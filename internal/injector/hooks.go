package injector

//
// Lifecycle hooks
//

import (
	"net/http"
	"os"

	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/redirect"
	"github.com/qiudaomao/atlantis/internal/urlsession"
)

func (inj *Injector) installResume(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.ResumeFunc) urlsession.ResumeFunc {
		return func(self any) {
			task, good := asTask(self)
			if !good {
				original(self)
				inj.unexpectedShape(urlsession.OpResume)
				return
			}
			// resuming a task that already started does not start it again
			if task.State() == model.TaskStateSuspended {
				inj.notify(&model.ResumedEvent{Task: task})
			}
			original(self)
		}
	})
}

func (inj *Injector) installResponseReceivedSniffRewrite(target redirect.Target) error {
	return redirect.Install(target, func(
		original urlsession.DidReceiveResponseSniffRewriteFunc) urlsession.DidReceiveResponseSniffRewriteFunc {
		return func(self any, response any, sniff bool, rewrite bool) {
			original(self, response, sniff, rewrite)
			inj.didReceiveResponse(urlsession.OpDidReceiveResponseSniffRewrite, self, response)
		}
	})
}

func (inj *Injector) installResponseReceivedSniff(target redirect.Target) error {
	return redirect.Install(target, func(
		original urlsession.DidReceiveResponseSniffFunc) urlsession.DidReceiveResponseSniffFunc {
		return func(self any, response any, sniff bool) {
			original(self, response, sniff)
			inj.didReceiveResponse(urlsession.OpDidReceiveResponseSniff, self, response)
		}
	})
}

func (inj *Injector) didReceiveResponse(op string, self any, response any) {
	task, good1 := ownerTask(self)
	resp, good2 := response.(*http.Response)
	if !good1 || !good2 || resp == nil {
		inj.unexpectedShape(op)
		return
	}
	inj.notify(&model.ResponseReceivedEvent{Task: task, Response: resp})
}

func (inj *Injector) installDataReceived(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.DidReceiveDataFunc) urlsession.DidReceiveDataFunc {
		return func(self any, data any) {
			original(self, data)
			task, good1 := ownerTask(self)
			chunk, good2 := data.([]byte)
			if !good1 || !good2 {
				inj.unexpectedShape(urlsession.OpDidReceiveData)
				return
			}
			inj.notify(&model.DataReceivedEvent{Task: task, Data: chunk})
		}
	})
}

func (inj *Injector) installCompleted(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.DidFinishWithErrorFunc) urlsession.DidFinishWithErrorFunc {
		return func(self any, err any) {
			original(self, err)
			task, good1 := ownerTask(self)
			failure, good2 := err.(error)
			if !good1 || (err != nil && !good2) {
				inj.unexpectedShape(urlsession.OpDidFinishWithError)
				return
			}
			inj.notify(&model.CompletedEvent{Task: task, Err: failure})
		}
	})
}

func (inj *Injector) installUploadFromFile(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.UploadFromFileFunc) urlsession.UploadFromFileFunc {
		return func(self any, request any, path any) any {
			result := original(self, request, path)
			inj.didUploadFile(urlsession.OpUploadTaskWithRequestFromFile, result, request, path)
			return result
		}
	})
}

func (inj *Injector) installUploadFromFileCompletion(target redirect.Target) error {
	return redirect.Install(target, func(
		original urlsession.UploadFromFileCompletionFunc) urlsession.UploadFromFileCompletionFunc {
		return func(self any, request any, path any, completion any) any {
			result := original(self, request, path, completion)
			inj.didUploadFile(urlsession.OpUploadTaskWithRequestFromFileCompletionHandler, result, request, path)
			return result
		}
	})
}

func (inj *Injector) installUploadFromData(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.UploadFromDataFunc) urlsession.UploadFromDataFunc {
		return func(self any, request any, data any) any {
			result := original(self, request, data)
			inj.didUploadData(urlsession.OpUploadTaskWithRequestFromData, result, request, data)
			return result
		}
	})
}

func (inj *Injector) installUploadFromDataCompletion(target redirect.Target) error {
	return redirect.Install(target, func(
		original urlsession.UploadFromDataCompletionFunc) urlsession.UploadFromDataCompletionFunc {
		return func(self any, request any, data any, completion any) any {
			result := original(self, request, data, completion)
			inj.didUploadData(urlsession.OpUploadTaskWithRequestFromDataCompletionHandler, result, request, data)
			return result
		}
	})
}

func (inj *Injector) didUploadFile(op string, result any, request any, path any) {
	task, good1 := asTask(result)
	req, good2 := request.(*http.Request)
	filepath, good3 := path.(string)
	if !good1 || !good2 || !good3 {
		inj.unexpectedShape(op)
		return
	}
	if !inj.observing() || inj.filter.IsSelfTraffic(task) {
		return
	}
	payload, err := os.ReadFile(filepath)
	if err != nil {
		inj.logger.Debugf("injector: %s: %s: %s", op, ErrPayloadUnavailable.Error(), err.Error())
		payload = nil
	}
	inj.notify(&model.UploadedEvent{Task: task, Request: req, Payload: payload})
}

func (inj *Injector) didUploadData(op string, result any, request any, data any) {
	task, good1 := asTask(result)
	req, good2 := request.(*http.Request)
	payload, good3 := data.([]byte)
	if !good1 || !good2 || !good3 {
		inj.unexpectedShape(op)
		return
	}
	inj.notify(&model.UploadedEvent{Task: task, Request: req, Payload: payload})
}

func (inj *Injector) installWebSocketSend(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.SendMessageFunc) urlsession.SendMessageFunc {
		return func(self any, message any, completion any) {
			original(self, message, completion)
			task, good := asTask(self)
			if !good {
				inj.unexpectedShape(urlsession.OpSendMessageCompletionHandler)
				return
			}
			decoded, good := inj.decoder.DecodeMessage(message)
			if !good {
				return // fail closed
			}
			inj.notify(&model.WebSocketSentEvent{Task: task, Message: decoded})
		}
	})
}

func (inj *Injector) installWebSocketReceive(target redirect.Target) error {
	return redirect.Install(target, func(original urlsession.ReceiveMessageFunc) urlsession.ReceiveMessageFunc {
		return func(self any, completion any) {
			task, good1 := asTask(self)
			handler, good2 := completion.(urlsession.ReceiveCompletionHandler)
			if completion == nil {
				good2 = true
			}
			if !good1 || !good2 {
				original(self, completion)
				inj.unexpectedShape(urlsession.OpReceiveMessageCompletionHandler)
				return
			}
			original(self, inj.interposeReceive(task, handler))
		}
	})
}

// interposeReceive returns the completion handler emitting the received
// message before invoking handler, which may be nil.
func (inj *Injector) interposeReceive(
	task model.NetworkTask, handler urlsession.ReceiveCompletionHandler) urlsession.ReceiveCompletionHandler {
	return func(message *urlsession.WebSocketMessage, err error) {
		if err == nil {
			if decoded, good := inj.decoder.DecodeMessage(message); good {
				inj.notify(&model.WebSocketReceivedEvent{Task: task, Message: decoded})
			}
		}
		if handler != nil {
			handler(message, err)
		}
	}
}
