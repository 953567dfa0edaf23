package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/cyra/squidnorm/internal/checkpoint"
	"github.com/cyra/squidnorm/internal/config"
	"github.com/cyra/squidnorm/internal/logging"
	"github.com/cyra/squidnorm/internal/logtail"
	"github.com/cyra/squidnorm/internal/metrics"
	"github.com/cyra/squidnorm/internal/pipeline"
	"github.com/cyra/squidnorm/internal/rules"
	"github.com/cyra/squidnorm/internal/sink"
)

const defaultConfigPath = "/etc/squidnorm/config.yaml"

func newRunCmd(a *app) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the normalization daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return runDaemon(ctx, configPath, a)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to configuration file")
	return cmd
}

func runDaemon(ctx context.Context, configPath string, a *app) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logger = logger

	logger.Infof("squidnormd starting (version=%s)", version)
	logger.Infof("config loaded from %s (output=%s, inputs=%d)", configPath, cfg.Output.Type, len(cfg.Inputs))

	store := config.NewStore(cfg)
	if err := config.Watch(ctx, configPath, store, logger); err != nil {
		logger.Errorf("config watcher disabled: %v", err)
	}

	engine, err := rules.NewEngine(cfg.Rules, logger)
	if err != nil {
		return err
	}
	engine.Watch(store)

	out, err := sink.New(cfg.Output, logger)
	if err != nil {
		return fmt.Errorf("failed to create sink: %w", err)
	}
	defer out.Close()
	logger.Infof("sink initialized: %s", out.Name())

	collector := metrics.NewCollector()
	reg := prometheus.NewRegistry()
	collector.Register(reg)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.Metrics.Listen != "" {
		go func() {
			logger.Infof("metrics listening on %s%s", cfg.Metrics.Listen, cfg.Metrics.Path)
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, cfg.Metrics.Path, reg); err != nil {
				logger.Errorf("metrics server: %v", err)
			}
		}()
	}

	var checkpoints logtail.Checkpointer
	if cfg.Checkpoint.Path != "" {
		cp, err := checkpoint.Open(cfg.Checkpoint.Path)
		if err != nil {
			return err
		}
		defer cp.Close()
		removed, err := cp.Retain(lo.Map(cfg.Inputs, func(in config.InputConfig, _ int) string { return in.Path }))
		if err != nil {
			logger.Warnf("pruning checkpoints: %v", err)
		}
		for _, f := range removed {
			logger.Infof("dropped checkpoint for removed input %s", f)
		}
		checkpoints = cp
	}

	pl := pipeline.New(engine, out, collector, logger)
	wait, err := pl.StartInputs(ctx, cfg, checkpoints)
	if err != nil {
		return fmt.Errorf("failed to start inputs: %w", err)
	}

	// Block until shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down...")

	wait()
	logger.Info("shutdown complete")
	return nil
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
