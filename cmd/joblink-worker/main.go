package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/donkeylabs/joblink/internal/worker"
	"github.com/donkeylabs/joblink/pkg/log"
)

func main() {
	if err := NewWorkerCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type WorkerOptions struct {
	ConfigFile string

	config *worker.Config
}

func DefaultWorkerOptions() *WorkerOptions {
	return &WorkerOptions{
		config: worker.NewDefault(),
	}
}

func NewWorkerCommand() *cobra.Command {
	o := DefaultWorkerOptions()
	cmd := &cobra.Command{
		Use:   "joblink-worker",
		Short: "Runs the example step-processing job against a joblink orchestrator.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd, args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *WorkerOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", "", "Path to the worker's configuration file")
}

func (o *WorkerOptions) Complete(cmd *cobra.Command, args []string) error {
	if o.ConfigFile != "" {
		return o.config.ParseConfigFile(o.ConfigFile)
	}
	return o.config.ParseConfigFileIfExists(worker.DefaultConfigFile)
}

func (o *WorkerOptions) Validate(args []string) error {
	return o.config.Validate()
}

func (o *WorkerOptions) Run(cmd *cobra.Command, args []string) error {
	logger := log.InitLog(log.ParseLevel(o.config.LogLevel))
	defer func() { _ = logger.Sync() }()

	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Infof("configuration: %s", o.config)

	return worker.Run(cmd.Context(), os.Stdin, o.config, stepHandler)
}
