package urlsession

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/qiudaomao/atlantis/internal/model"
	"github.com/qiudaomao/atlantis/internal/redirect"
)

var (
	// ErrNotConnected means the WebSocket task is not connected.
	ErrNotConnected = errors.New("urlsession: websocket not connected")

	// ErrInvalidMessage means the message is neither text nor binary.
	ErrInvalidMessage = errors.New("urlsession: invalid websocket message")
)

// WebSocketMessage is a message sent or received by a [*WebSocketTask].
type WebSocketMessage struct {
	binary bool
	text   string
	data   []byte
}

// NewWebSocketStringMessage creates a text message.
func NewWebSocketStringMessage(text string) *WebSocketMessage {
	return &WebSocketMessage{text: text}
}

// NewWebSocketDataMessage creates a binary message.
func NewWebSocketDataMessage(data []byte) *WebSocketMessage {
	return &WebSocketMessage{binary: true, data: data}
}

// StringValue returns the text of a text message.
func (m *WebSocketMessage) StringValue() (string, bool) {
	if m == nil || m.binary {
		return "", false
	}
	return m.text, true
}

// DataValue returns the payload of a binary message.
func (m *WebSocketMessage) DataValue() ([]byte, bool) {
	if m == nil || !m.binary {
		return nil, false
	}
	return m.data, true
}

// WebSocketTask is a [*Task] speaking WebSocket. Messages sent before the
// connection is established are queued and sent in order when it is.
type WebSocketTask struct {
	Task

	dialer *websocket.Dialer
	recvq  serialQueue
	sendq  serialQueue

	// ready is closed once we know the outcome of dialing.
	ready chan struct{}

	// connMu protects conn and connErr.
	connMu  sync.Mutex
	conn    *websocket.Conn
	connErr error

	// writeMu serializes writes on conn.
	writeMu sync.Mutex
}

func (s *Session) newWebSocketTask(req *http.Request) *WebSocketTask {
	ws := &WebSocketTask{
		dialer: s.wsDialer,
		ready:  make(chan struct{}),
	}
	s.initTask(&ws.Task, ws, s.rt.classes.WebSocketTask, req, nil, nil)
	return ws
}

// SendMessage sends message and then calls completion, which may be nil.
func (ws *WebSocketTask) SendMessage(message *WebSocketMessage, completion SendCompletionHandler) {
	if fn, good := redirect.Lookup[SendMessageFunc](ws.class, OpSendMessageCompletionHandler); good {
		fn(ws, message, completion)
	}
}

// ReceiveMessage receives the next message and passes it to completion.
func (ws *WebSocketTask) ReceiveMessage(completion ReceiveCompletionHandler) {
	if fn, good := redirect.Lookup[ReceiveMessageFunc](ws.class, OpReceiveMessageCompletionHandler); good {
		fn(ws, completion)
	}
}

// CancelWithCloseCode sends a close frame with the given code and reason,
// closes the connection and completes the task without error.
func (ws *WebSocketTask) CancelWithCloseCode(code int, reason string) {
	// finish before closing, otherwise a failing read may set the task error
	ws.loader.finish(nil)
	if conn := ws.connectedConn(); conn != nil {
		ws.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
		ws.writeMu.Unlock()
		conn.Close()
	}
}

func (ws *WebSocketTask) resume() {
	ctx, good := ws.start()
	if !good {
		return
	}
	go ws.connect(ctx)
}

func (ws *WebSocketTask) connect(ctx context.Context) {
	var (
		conn *websocket.Conn
		resp *http.Response
		err  = ctx.Err()
	)
	if err == nil {
		ws.mu.Lock()
		ws.current = ws.request
		ws.mu.Unlock()
		ws.session.logger.Debugf("urlsession: task %d: > GET %s (websocket)", ws.id, ws.request.URL.String())
		conn, resp, err = ws.dialer.DialContext(ctx, ws.request.URL.String(), ws.request.Header.Clone())
	}
	if resp != nil {
		ws.session.logger.Debugf("urlsession: task %d: < %d", ws.id, resp.StatusCode)
		ws.loader.receiveResponse(resp)
	}
	ws.connMu.Lock()
	ws.conn, ws.connErr = conn, err
	ws.connMu.Unlock()
	close(ws.ready)
	if err != nil {
		ws.loader.finish(err)
		return
	}
	if ws.State() == model.TaskStateCompleted {
		conn.Close() // canceled while dialing
	}
}

// connection waits for the dial outcome, unless the task completes first.
func (ws *WebSocketTask) connection() (*websocket.Conn, error) {
	select {
	case <-ws.ready:
	case <-ws.done:
		return nil, ErrNotConnected
	}
	ws.connMu.Lock()
	defer ws.connMu.Unlock()
	if ws.conn == nil {
		return nil, errors.Join(ErrNotConnected, ws.connErr)
	}
	return ws.conn, nil
}

// connectedConn returns the connection without waiting for the dial. The
// return value is nil when we are not connected.
func (ws *WebSocketTask) connectedConn() *websocket.Conn {
	select {
	case <-ws.ready:
	default:
		return nil
	}
	ws.connMu.Lock()
	defer ws.connMu.Unlock()
	return ws.conn
}

func (ws *WebSocketTask) cancelConn() {
	ws.loader.finish(context.Canceled)
	// when still dialing, the context cancellation interrupts the dial
	if conn := ws.connectedConn(); conn != nil {
		conn.Close()
	}
}

func (ws *WebSocketTask) write(message *WebSocketMessage) error {
	conn, err := ws.connection()
	if err != nil {
		return err
	}
	var (
		kind    int
		payload []byte
	)
	if text, good := message.StringValue(); good {
		kind, payload = websocket.TextMessage, []byte(text)
	} else if data, good := message.DataValue(); good {
		kind, payload = websocket.BinaryMessage, data
	} else {
		return ErrInvalidMessage
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return conn.WriteMessage(kind, payload)
}

func (ws *WebSocketTask) read() (*WebSocketMessage, error) {
	conn, err := ws.connection()
	if err != nil {
		return nil, err
	}
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			ws.loader.finish(nil)
		} else {
			ws.loader.finish(err)
		}
		return nil, err
	}
	if kind == websocket.BinaryMessage {
		return NewWebSocketDataMessage(payload), nil
	}
	return NewWebSocketStringMessage(string(payload)), nil
}

func newWebSocketTaskClass(parent *redirect.Class) *redirect.Class {
	c := redirect.NewClass("WebSocketTask", parent)
	c.Define(OpSendMessageCompletionHandler, func(self any, message any, completion any) {
		ws, good := self.(*WebSocketTask)
		if !good {
			return
		}
		msg, _ := message.(*WebSocketMessage)
		cb, _ := completion.(SendCompletionHandler)
		ws.sendq.enqueue(func() {
			err := ws.write(msg)
			if cb != nil {
				cb(err)
			}
		})
	})
	c.Define(OpReceiveMessageCompletionHandler, func(self any, completion any) {
		ws, good := self.(*WebSocketTask)
		if !good {
			return
		}
		cb, _ := completion.(ReceiveCompletionHandler)
		ws.recvq.enqueue(func() {
			msg, err := ws.read()
			if cb != nil {
				cb(msg, err)
			}
		})
	})
	return c
}
