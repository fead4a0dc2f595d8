package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/qiudaomao/atlantis/internal/urlsession"
	"github.com/spf13/cobra"
)

// uploadOptions contains the options of the upload command.
type uploadOptions struct {
	Data    string
	File    string
	Method  string
	Timeout time.Duration
}

// errNoPayload means the user did not specify what to upload.
var errNoPayload = errors.New("please, specify either --data or --file")

func newUploadCommand(globalOptions *Options) *cobra.Command {
	var options uploadOptions
	cmd := &cobra.Command{
		Use:   "upload URL",
		Short: "Uploads data or a file to the given URL using an upload task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), globalOptions, &options, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&options.Data, "data", "d", "", "upload the given string")
	flags.StringVarP(&options.File, "file", "f", "", "upload the content of the given file")
	flags.StringVarP(&options.Method, "method", "X", "POST", "HTTP method to use")
	flags.DurationVar(&options.Timeout, "timeout", 30*time.Second, "timeout for the transfer")
	cmd.MarkFlagsMutuallyExclusive("data", "file")
	return cmd
}

func runUpload(ctx context.Context, globalOptions *Options, options *uploadOptions, URL string) error {
	if options.Data == "" && options.File == "" {
		return errNoPayload
	}
	ctx, cancel := newCommandContext(ctx)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	defer cancel()
	s, err := newStack(globalOptions)
	if err != nil {
		return err
	}
	defer s.close()

	req, err := http.NewRequest(options.Method, URL, nil)
	if err != nil {
		return err
	}
	var (
		body   []byte
		status int
	)
	completion := func(data []byte, resp *http.Response, err error) {
		body = data
		if resp != nil {
			status = resp.StatusCode
		}
	}
	var task *urlsession.Task
	if options.File != "" {
		task = s.session.UploadTaskFromFileWithCompletionHandler(req, options.File, completion)
	} else {
		task = s.session.UploadTaskFromDataWithCompletionHandler(req, []byte(options.Data), completion)
	}
	if task == nil {
		return errors.New("cannot create the upload task")
	}
	task.Resume()
	if err := s.wait(ctx, task); err != nil {
		return err
	}
	fmt.Printf("%s %d %d bytes\n", URL, status, len(body))
	return nil
}
