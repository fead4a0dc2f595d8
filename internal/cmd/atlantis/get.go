package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/apex/log"
	"github.com/qiudaomao/atlantis/internal/selftraffic"
	"github.com/spf13/cobra"
)

// getOptions contains the options of the get command.
type getOptions struct {
	SelfTraffic bool
	Timeout     time.Duration
}

func newGetCommand(globalOptions *Options) *cobra.Command {
	var options getOptions
	cmd := &cobra.Command{
		Use:   "get URL...",
		Short: "Fetches the given URLs using data tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), globalOptions, &options, args)
		},
	}
	cmd.Flags().BoolVar(
		&options.SelfTraffic,
		"self-traffic",
		false,
		"mark the requests as the diagnostic channel's own traffic, which we do not observe",
	)
	cmd.Flags().DurationVar(&options.Timeout, "timeout", 30*time.Second, "timeout for each transfer")
	return cmd
}

// newCommandContext returns a context canceled on interrupt.
func newCommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func runGet(ctx context.Context, globalOptions *Options, options *getOptions, URLs []string) error {
	ctx, cancel := newCommandContext(ctx)
	defer cancel()
	s, err := newStack(globalOptions)
	if err != nil {
		return err
	}
	defer s.close()
	for _, URL := range URLs {
		if err := s.get(ctx, options, URL); err != nil {
			log.Warnf("%s: %s", URL, err.Error())
		}
	}
	return nil
}

func (s *stack) get(ctx context.Context, options *getOptions, URL string) error {
	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()
	req, err := http.NewRequest("GET", URL, nil)
	if err != nil {
		return err
	}
	if options.SelfTraffic {
		req = selftraffic.MarkRequest(req)
	}
	var (
		size   int
		status int
	)
	task := s.session.DataTaskWithCompletionHandler(req, func(data []byte, resp *http.Response, err error) {
		size = len(data)
		if resp != nil {
			status = resp.StatusCode
		}
	})
	task.Resume()
	if err := s.wait(ctx, task); err != nil {
		return err
	}
	fmt.Printf("%s %d %d bytes\n", URL, status, size)
	return nil
}
