package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sketchagg/config"
	"sketchagg/core"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sketchagg",
		Short:         "Build, merge and compare mergeable sketches",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.AddCommand(
		newBuildCommand(a),
		newDescribeCommand(a),
		newTTestCommand(a),
		newIntersectCommand(a),
	)
	return root
}

func (a *app) load() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadFromFile(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) options() []core.Option {
	return []core.Option{
		core.WithLogger(a.logger),
		core.WithDefaults(a.cfg.EngineDefaults()),
	}
}
