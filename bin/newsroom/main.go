package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"gitlab.com/justnurik/newsroom/bin"
	"gitlab.com/justnurik/newsroom/pkg/config"
	"gitlab.com/justnurik/newsroom/pkg/console"
	"gitlab.com/justnurik/newsroom/pkg/event"
	"gitlab.com/justnurik/newsroom/pkg/metrics"
	"gitlab.com/justnurik/newsroom/pkg/studio"
)

type args struct {
	configPath string

	logPath     string
	logLevelStr string

	flags config.Config
}

func (a *args) register(fs *pflag.FlagSet) {
	d := config.Default()

	fs.StringVarP(&a.configPath, "config", "c", "", "yaml config file")
	fs.StringVar(&a.logPath, "log-file", "", "log file path, empty for console only")
	fs.StringVar(&a.logLevelStr, "log-level", "error", "log level")

	fs.IntVarP(&a.flags.Producers, "producers", "p", d.Producers, "number of reporters")
	fs.IntVar(&a.flags.MinItems, "min-items", d.MinItems, "min interviews per reporter")
	fs.IntVar(&a.flags.MaxItems, "max-items", d.MaxItems, "max interviews per reporter")
	fs.IntVar(&a.flags.MinDuration, "min-duration", d.MinDuration, "min interview duration, time units")
	fs.IntVar(&a.flags.MaxDuration, "max-duration", d.MaxDuration, "max interview duration, time units")
	fs.StringVar((*string)(&a.flags.Policy), "policy", string(d.Policy), "termination policy (sentinel, idle-timeout)")
	fs.DurationVar(&a.flags.IdleTimeout, "idle-timeout", d.IdleTimeout, "idle window of the idle-timeout policy")
	fs.DurationVar(&a.flags.InterItemPause, "pause", d.InterItemPause, "pause after every queued interview")
	fs.DurationVar(&a.flags.TimeUnit, "time-unit", d.TimeUnit, "real length of one time unit")
	fs.Int64Var(&a.flags.Seed, "seed", d.Seed, "random seed, 0 seeds from the clock")
	fs.StringVar(&a.flags.MetricsAddr, "metrics-addr", d.MetricsAddr, "serve prometheus metrics on this address")
	fs.DurationVar(&a.flags.DepthInterval, "depth-interval", d.DepthInterval, "print the queue depth at this interval, 0 disables")
	fs.BoolVar(&a.flags.Color, "color", d.Color, "colour console output")
}

// config loads the file and lays the explicitly set flags over it.
func (a *args) config(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]func(){
		"producers":      func() { cfg.Producers = a.flags.Producers },
		"min-items":      func() { cfg.MinItems = a.flags.MinItems },
		"max-items":      func() { cfg.MaxItems = a.flags.MaxItems },
		"min-duration":   func() { cfg.MinDuration = a.flags.MinDuration },
		"max-duration":   func() { cfg.MaxDuration = a.flags.MaxDuration },
		"policy":         func() { cfg.Policy = a.flags.Policy },
		"idle-timeout":   func() { cfg.IdleTimeout = a.flags.IdleTimeout },
		"pause":          func() { cfg.InterItemPause = a.flags.InterItemPause },
		"time-unit":      func() { cfg.TimeUnit = a.flags.TimeUnit },
		"seed":           func() { cfg.Seed = a.flags.Seed },
		"metrics-addr":   func() { cfg.MetricsAddr = a.flags.MetricsAddr },
		"depth-interval": func() { cfg.DepthInterval = a.flags.DepthInterval },
		"color":          func() { cfg.Color = a.flags.Color },
	}
	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})

	return cfg, cfg.Validate()
}

func newRootCommand() *cobra.Command {
	var a args

	cmd := &cobra.Command{
		Use:           "newsroom",
		Short:         "Reporters record interviews, one screen broadcasts them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd.Flags())
			if err != nil {
				return err
			}

			level, err := bin.ParseLevel(a.logLevelStr)
			if err != nil {
				return err
			}

			logger, err := bin.NewLogger(a.logPath, level)
			if err != nil {
				return fmt.Errorf("new logger create fail: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return run(cmd.Context(), logger, cfg, cmd)
		},
	}

	a.register(cmd.Flags())
	return cmd
}

func run(ctx context.Context, logger *zap.Logger, cfg config.Config, cmd *cobra.Command) error {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "newsroom")

	if cfg.MetricsAddr != "" {
		server, err := metrics.Listen(logger, cfg.MetricsAddr, reg)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	s := studio.New(logger, cfg,
		studio.WithSink(event.Tee(console.New(cmd.OutOrStdout(), cfg.Color), eventLog(logger))),
		studio.WithMetrics(m),
		studio.WithDepthOutput(cmd.ErrOrStderr()),
	)

	summary, err := s.Run(ctx)
	if err != nil {
		logger.Error("run failed", zap.Error(err), zap.Any("config", cfg))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}

// eventLog mirrors the console lines into the debug log.
func eventLog(l *zap.Logger) event.Sink {
	l = l.With(zap.String("component", "events"))

	return event.SinkFunc(func(e event.Event) {
		l.Debug(string(e.Category),
			zap.String("source", e.Source),
			zap.Int("duration", e.Duration),
			zap.Time("at", e.At))
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "newsroom:", err)
		if errors.Is(err, config.ErrInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
