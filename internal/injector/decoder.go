package injector

import "github.com/qiudaomao/atlantis/internal/model"

// MessageDecoder converts the runtime message representation into a
// [model.WebSocketMessage]. The boolean is false for unrecognized messages.
type MessageDecoder interface {
	DecodeMessage(message any) (model.WebSocketMessage, bool)
}

// MessageDecoderFunc adapts a func to [MessageDecoder].
type MessageDecoderFunc func(message any) (model.WebSocketMessage, bool)

// DecodeMessage implements MessageDecoder.
func (fx MessageDecoderFunc) DecodeMessage(message any) (model.WebSocketMessage, bool) {
	return fx(message)
}

// DefaultMessageDecoder recognizes values with a StringValue or DataValue
// method, like [*urlsession.WebSocketMessage], and [model.WebSocketMessage].
var DefaultMessageDecoder MessageDecoder = MessageDecoderFunc(decodeMessage)

type stringValuer interface {
	StringValue() (string, bool)
}

type dataValuer interface {
	DataValue() ([]byte, bool)
}

func decodeMessage(message any) (model.WebSocketMessage, bool) {
	switch m := message.(type) {
	case model.WebSocketMessage:
		return m, m.Type == model.WebSocketMessageText || m.Type == model.WebSocketMessageBinary
	case *model.WebSocketMessage:
		if m == nil {
			return model.WebSocketMessage{}, false
		}
		return decodeMessage(*m)
	}
	if sv, good := message.(stringValuer); good {
		if text, good := sv.StringValue(); good {
			return model.NewWebSocketTextMessage(text), true
		}
	}
	if dv, good := message.(dataValuer); good {
		if data, good := dv.DataValue(); good {
			return model.NewWebSocketBinaryMessage(data), true
		}
	}
	return model.WebSocketMessage{}, false
}
