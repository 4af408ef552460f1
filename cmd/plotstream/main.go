// Package main implements the PlotStream daemon. PlotStream bridges a
// simulation's introspection bus to plotted time-series: it discovers an
// introspection manager over NATS, keeps a shared signal filter in sync with
// curve demand, and streams extracted points to websocket clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/config"
	"github.com/c360/plotstream/health"
	"github.com/c360/plotstream/introspection"
	"github.com/c360/plotstream/metric"
	"github.com/c360/plotstream/natsclient"
	wsoutput "github.com/c360/plotstream/output/websocket"
	"github.com/c360/plotstream/plot"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "plotstream"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting PlotStream",
		"version", Version,
		"nats_url", cfg.NATS.URL,
		"demo", cliCfg.Demo)

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsTimeout, _ := cfg.NATSTimeout()
	natsClient, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithClientName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithTimeout(natsTimeout),
	)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := natsClient.Connect(); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer natsClient.Close()

	registry := metric.NewMetricsRegistry()

	introClient, err := introspection.NewClient(ctx, natsClient)
	if err != nil {
		return fmt.Errorf("create introspection client: %w", err)
	}

	g, runCtx := errgroup.WithContext(ctx)

	var demoManager *introspection.Manager
	if cliCfg.Demo {
		demoManager, err = startDemoManager(runCtx, g, natsClient, logger, cfg.Handler.TimeSignal)
		if err != nil {
			return err
		}
	}

	discoveryTimeout, _ := cfg.DiscoveryTimeout()
	handler := plot.NewCurveHandler(introClient, plot.Options{
		TimeSignal:       cfg.Handler.TimeSignal,
		DiscoveryTimeout: discoveryTimeout,
		Logger:           logger,
		NATSConn:         natsClient.Conn(),
		Metrics:          registry,
	})
	if err := handler.Initialize(); err != nil {
		return fmt.Errorf("initialize curve handler: %w", err)
	}
	if err := handler.Start(runCtx); err != nil {
		return fmt.Errorf("start curve handler: %w", err)
	}

	monitor := health.NewMonitor(appName)
	monitor.Register("curve-handler", func() health.Status {
		if handler.Bootstrap() == plot.BootstrapFailed {
			return health.NewUnhealthy("curve-handler", "discovery failed")
		}
		return health.FromState("curve-handler", handler.State())
	})
	if demoManager != nil {
		monitor.Register("demo-manager", func() health.Status {
			return health.FromState("demo-manager", demoManager.State())
		})
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		metricsServer.SetHealthHandler(monitor)
		g.Go(metricsServer.Start)
		slog.Info("Metrics server started", "address", metricsServer.Address())
	}

	var wsServer *wsoutput.Server
	if cfg.Output.Enabled {
		wsServer = wsoutput.NewServer(wsoutput.Config{
			Addr:    fmt.Sprintf(":%d", cfg.Output.Port),
			Path:    cfg.Output.Path,
			Metrics: registry,
		}, handler, component.NewLogger("websocket-output", natsClient.Conn(), logger))
		if err := wsServer.Initialize(); err != nil {
			return fmt.Errorf("initialize websocket output: %w", err)
		}
		server := wsServer
		monitor.Register("websocket-output", func() health.Status {
			return health.FromState("websocket-output", server.State())
		})
		g.Go(func() error { return wsServer.Start(runCtx) })
	}

	<-runCtx.Done()
	slog.Info("Shutting down", "timeout", cliCfg.ShutdownTimeout)

	if wsServer != nil {
		if err := wsServer.Stop(cliCfg.ShutdownTimeout); err != nil {
			slog.Warn("Websocket output stop failed", "error", err)
		}
	}
	if err := handler.Stop(cliCfg.ShutdownTimeout); err != nil {
		slog.Warn("Curve handler stop failed", "error", err)
	}
	if demoManager != nil {
		if err := demoManager.Stop(cliCfg.ShutdownTimeout); err != nil {
			slog.Warn("Demo manager stop failed", "error", err)
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Warn("Metrics server stop failed", "error", err)
		}
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
