// Package main provides the devconsole binary: a headless engine loop with
// the developer console attached to a terminal front-end.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/devconsole/internal/config"
	"github.com/cory-johannsen/devconsole/internal/frontend/line"
	"github.com/cory-johannsen/devconsole/internal/frontend/tui"
	"github.com/cory-johannsen/devconsole/internal/server"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath string
	v          *viper.Viper
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "devconsole",
		Short:         "Run the engine with the developer console attached",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-output", "", "log output (stderr|stdout|none|<file>)")
	flags.String("frontend", "", "front-end (tui|line)")
	flags.String("aliases", "", "path to a YAML alias file")
	flags.Bool("open", false, "open the console on start")
	for key, name := range map[string]string{
		"logging.level":      "log-level",
		"logging.output":     "log-output",
		"frontend.mode":      "frontend",
		"console.alias_file": "aliases",
		"console.start_open": "open",
	} {
		if err := opts.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "batch <file>",
			Short: "Execute console lines from a file and print the transcript",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				return runBatch(cfg, args[0])
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the devconsole version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "devconsole v%s\n", version)
			},
		},
	)
	return root
}

func (o *cliOptions) load() (config.Config, error) {
	if o.configPath != "" {
		o.v.SetConfigFile(o.configPath)
		if err := o.v.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return config.LoadFromViper(o.v)
}

func runInteractive(ctx context.Context, cfg config.Config) error {
	if cfg.Frontend.Mode == "tui" && cfg.Logging.Output == "stderr" {
		// The overlay owns the terminal; log entries still reach the transcript.
		cfg.Logging.Output = "none"
	}

	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lc := server.NewLifecycle(app.Logger.Named("lifecycle"))
	lc.Add("engine", &server.FuncService{
		StartFn: func(ctx context.Context) error { return ignoreCanceled(app.Loop.Run(ctx)) },
	})

	switch cfg.Frontend.Mode {
	case "line":
		repl := line.NewREPL(app.Console, os.Stdout, app.Logger.Named("repl"))
		lc.Add("frontend", &server.FuncService{
			StartFn: func(context.Context) error { return repl.Start() },
			StopFn:  repl.Stop,
		})
	default:
		model := tui.New(app.Console, app.Header, cfg.Engine.ProductName)
		lc.Add("frontend", &server.FuncService{
			StartFn: func(ctx context.Context) error { return tui.Run(ctx, model) },
		})
	}

	app.Logger.Info("devconsole starting",
		zap.String("version", version),
		zap.String("frontend", cfg.Frontend.Mode),
	)
	return lc.Run(ctx)
}

func runBatch(cfg config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return line.RunBatch(f, app.Console, os.Stdout, line.Plain)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
