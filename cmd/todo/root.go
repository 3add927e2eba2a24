package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/todolist/internal/client"
	"github.com/vyrodovalexey/todolist/internal/config"
	"github.com/vyrodovalexey/todolist/internal/controller"
	"github.com/vyrodovalexey/todolist/internal/editview"
	"github.com/vyrodovalexey/todolist/internal/tui"
)

const defaultLogLevel = "warn"

var errInvalidLogLevel = errors.New("log level must be one of debug, info, warn, error")

type app struct {
	// cfgErr is reported once a command runs, so that --help still works
	// with a broken environment.
	cfgErr error

	serverURL string
	timeout   time.Duration
	pageSize  int
	logLevel  string
	logFile   string

	logger *zap.Logger
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cfg, err := config.LoadClient()
	if err != nil {
		a.cfgErr = err
		cfg = &config.ClientConfig{
			ServerURL: config.DefaultServerURL,
			Timeout:   config.DefaultClientTimeout,
			PageSize:  config.DefaultPageSize,
		}
	}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Shared todo list client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive list
  todo

  # Scriptable commands
  todo add buy milk
  todo search milk
  todo list --page 2 --per-page 5
  todo edit <id> buy oat milk
  todo delete <id>
`),
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stderr shares the terminal with the UI.
			logger := a.logger
			if a.logFile == "" {
				logger = zap.NewNop()
			}
			ctrl := controller.New(a.client, logger, a.pageSize)
			editor := editview.New(ctrl, logger)
			return tui.Run(cmd.Context(), ctrl, editor, logger)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.serverURL, "server", cfg.ServerURL, "Base URL of the todo server (env "+config.EnvServerURL+")")
	flags.DurationVar(&a.timeout, "timeout", cfg.Timeout, "Request timeout, 0 for none (env "+config.EnvClientTimeout+")")
	flags.IntVar(&a.pageSize, "page-size", cfg.PageSize, "Items per page, 0 for all (env "+config.EnvPageSize+")")
	flags.StringVar(&a.logLevel, "log-level", defaultLogLevel, "Log level (debug|info|warn|error)")
	flags.StringVar(&a.logFile, "log-file", "", "Write logs to this file instead of stderr")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newAllCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newPingCmd(a))

	return cmd
}

func (a *app) setup() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}

	cfg := config.ClientConfig{
		ServerURL: a.serverURL,
		Timeout:   a.timeout,
		PageSize:  a.pageSize,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid client flags: %w", err)
	}
	if !config.ValidLogLevel(a.logLevel) {
		return errInvalidLogLevel
	}

	logger, err := initLogger(a.logLevel, a.logFile)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.logger = logger
	a.client = client.New(cfg.ServerURL, cfg.Timeout)

	logger.Debug("client configured",
		zap.String("server", cfg.ServerURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("page_size", cfg.PageSize),
	)
	return nil
}

// initLogger builds a console logger writing to stderr, or to path when set.
func initLogger(level, path string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.WarnLevel
	}

	output := "stderr"
	if path != "" {
		output = path
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}

	return zapConfig.Build()
}
