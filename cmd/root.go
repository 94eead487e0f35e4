package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DipperMason/calcalc/internal/app"
	"github.com/DipperMason/calcalc/internal/config"
	"github.com/DipperMason/calcalc/internal/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	noHistory  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var wolfram bool

	root := &cobra.Command{
		Use:   "calcalc [flags] <expression>",
		Short: "Evaluate an expression locally or with Wolfram|Alpha",
		Long: "Arithmetic-only expressions are evaluated locally. Anything else, or\n" +
			"anything local evaluation cannot handle, is sent to Wolfram|Alpha and\n" +
			"the first plain-text result is printed.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, wire, err := opts.build()
			if err != nil {
				return err
			}
			defer wire.Close()

			res, err := wire.Evaluator.Evaluate(cmd.Context(), args[0], wolfram)
			if err != nil {
				return err
			}
			logger.Debug("evaluated", "route", res.Route, "fallback", res.Fallback)
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}

	root.Flags().BoolVarP(&wolfram, "wolfram", "w", false, "force evaluation using Wolfram|Alpha")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.calcalc/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.noHistory, "no-history", false, "do not record this evaluation")

	root.AddCommand(newServeCmd(opts), newHistoryCmd(opts))
	return root
}

func (o *globalOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWithWriter(os.Stderr, level), nil
}

func (o *globalOptions) build() (*config.Config, *slog.Logger, *app.Wire, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}
	wire, err := app.NewWire(cfg, logger, app.Options{NoHistory: o.noHistory})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, wire, nil
}
