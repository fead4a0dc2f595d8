// Command atlantis performs HTTP(S), upload and WebSocket transfers using
// an intercepted urlsession runtime and logs the observed lifecycle events.
package main

import (
	"os"

	"github.com/apex/log"
	"github.com/spf13/cobra"
)

// Options contains the options you can set from the CLI.
type Options struct {
	AssertUnexpectedShapes bool
	ConfigFile             string
	DisabledHooks          []string
	MetricsAddress         string
	RecordFile             string
	RuntimeVersion         int
	Verbose                bool
}

// main is the main function of atlantis.
func main() {
	log.SetHandler(newLogHandler(os.Stderr))
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var globalOptions Options
	rootCmd := &cobra.Command{
		Use:          "atlantis",
		Short:        "atlantis observes the lifecycle of network transfers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	flags := rootCmd.PersistentFlags()

	flags.BoolVar(
		&globalOptions.AssertUnexpectedShapes,
		"assert-unexpected-shapes",
		false,
		"panic when a hook receives arguments with unexpected shapes",
	)

	flags.StringVarP(
		&globalOptions.ConfigFile,
		"config",
		"c",
		"atlantis.hujson",
		"path of the configuration file",
	)

	flags.StringSliceVar(
		&globalOptions.DisabledHooks,
		"disable-hook",
		[]string{},
		"do not install the given hook group (can be repeated multiple times)",
	)

	flags.StringVar(
		&globalOptions.MetricsAddress,
		"metrics-address",
		"",
		"serve prometheus metrics at the given address",
	)

	flags.StringVarP(
		&globalOptions.RecordFile,
		"record-file",
		"o",
		"",
		"append JSONL records of the observed events to the given file",
	)

	flags.IntVar(
		&globalOptions.RuntimeVersion,
		"runtime-version",
		0,
		"version of the emulated runtime (default: from the config file)",
	)

	flags.BoolVarP(
		&globalOptions.Verbose,
		"verbose",
		"v",
		false,
		"run in verbose mode",
	)

	rootCmd.AddCommand(newGetCommand(&globalOptions))
	rootCmd.AddCommand(newUploadCommand(&globalOptions))
	rootCmd.AddCommand(newWebSocketCommand(&globalOptions))
	return rootCmd
}
