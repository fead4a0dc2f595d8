package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/qiudaomao/atlantis/internal/urlsession"
	"github.com/spf13/cobra"
)

// wsOptions contains the options of the ws command.
type wsOptions struct {
	Binary   bool
	Messages []string
	Timeout  time.Duration
}

func newWebSocketCommand(globalOptions *Options) *cobra.Command {
	var options wsOptions
	cmd := &cobra.Command{
		Use:   "ws URL",
		Short: "Sends messages to a WebSocket server and prints the replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebSocket(cmd.Context(), globalOptions, &options, args[0])
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&options.Binary, "binary", false, "send binary rather than text messages")
	flags.StringSliceVarP(&options.Messages, "message", "m", []string{}, "message to send (can be repeated multiple times)")
	flags.DurationVar(&options.Timeout, "timeout", 30*time.Second, "timeout for the whole exchange")
	return cmd
}

// wsResult is the result of receiving a message.
type wsResult struct {
	message *urlsession.WebSocketMessage
	err     error
}

func runWebSocket(ctx context.Context, globalOptions *Options, options *wsOptions, URL string) error {
	ctx, cancel := newCommandContext(ctx)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	defer cancel()
	s, err := newStack(globalOptions)
	if err != nil {
		return err
	}
	defer s.close()

	req, err := http.NewRequest("GET", URL, nil)
	if err != nil {
		return err
	}
	task, err := s.session.WebSocketTask(req)
	if err != nil {
		return err
	}
	task.Resume()
	defer task.CancelWithCloseCode(websocket.CloseNormalClosure, "")

	for _, text := range options.Messages {
		message := urlsession.NewWebSocketStringMessage(text)
		if options.Binary {
			message = urlsession.NewWebSocketDataMessage([]byte(text))
		}
		sent := make(chan error, 1)
		task.SendMessage(message, func(err error) {
			sent <- err
		})
		if err := receiveWithContext(ctx, sent); err != nil {
			return err
		}
		received := make(chan wsResult, 1)
		task.ReceiveMessage(func(message *urlsession.WebSocketMessage, err error) {
			received <- wsResult{message: message, err: err}
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-received:
			if r.err != nil {
				return r.err
			}
			printMessage(r.message)
		}
	}
	return nil
}

func receiveWithContext(ctx context.Context, ch <-chan error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

func printMessage(message *urlsession.WebSocketMessage) {
	if text, good := message.StringValue(); good {
		fmt.Printf("< %s\n", text)
		return
	}
	if data, good := message.DataValue(); good {
		fmt.Printf("< %x\n", data)
	}
}
