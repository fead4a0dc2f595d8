package injector

import "errors"

var (
	// ErrUnexpectedArgumentShape means a hook received arguments of an
	// unexpected type. The hook calls the original and emits nothing.
	ErrUnexpectedArgumentShape = errors.New("injector: unexpected argument shape")

	// ErrPayloadUnavailable means we could not read an upload payload.
	ErrPayloadUnavailable = errors.New("injector: payload unavailable")

	// ErrHookDisabled means the configuration disabled a hook group.
	ErrHookDisabled = errors.New("injector: hook disabled by configuration")

	// ErrBodyClosed is the completion error of a round trip whose
	// body was closed before reading all of it.
	ErrBodyClosed = errors.New("injector: body closed before EOF")
)
