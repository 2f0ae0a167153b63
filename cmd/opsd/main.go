// Package main implements opsd, the realtime operations backend for the
// print shop: the authenticated websocket gateway, the domain services that
// feed it, and the health/metrics endpoints around them. The CRUD HTTP layer
// consumes the services exported here; this binary owns only the realtime
// core.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/AmrendraTheCoder/go-backend-sub000/auth"
	"github.com/AmrendraTheCoder/go-backend-sub000/config"
	"github.com/AmrendraTheCoder/go-backend-sub000/event"
	"github.com/AmrendraTheCoder/go-backend-sub000/health"
	"github.com/AmrendraTheCoder/go-backend-sub000/inventory"
	"github.com/AmrendraTheCoder/go-backend-sub000/job"
	"github.com/AmrendraTheCoder/go-backend-sub000/machine"
	"github.com/AmrendraTheCoder/go-backend-sub000/metric"
	"github.com/AmrendraTheCoder/go-backend-sub000/natsclient"
	"github.com/AmrendraTheCoder/go-backend-sub000/realtime"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "opsd"
)

// application bundles the wired core for startup and shutdown
type application struct {
	cfg       *config.Config
	logger    *slog.Logger
	gateway   *realtime.Gateway
	emitter   *event.Emitter
	jobs      *job.Service
	inventory *inventory.Service
	machines  *machine.Service
	monitor   *health.Monitor
	nats      *natsclient.Client
	metricsrv *metric.Server
	httpsrv   *http.Server
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			fmt.Fprintf(os.Stderr, "PANIC: %v\n%s\n", r, buf[:n])
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("opsd failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cli := parseFlags()
	if cli.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cli.Validate {
		slog.Info("configuration is valid", "config_path", cli.ConfigPath)
		return nil
	}

	slog.Info("starting opsd", "version", Version, "config_path", cli.ConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := app.start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("shutdown signal received")
	return app.shutdown(cli.ShutdownTimeout)
}

// wire builds the full dependency graph
func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	registry := metric.NewRegistry()
	monitor := health.NewMonitor()

	verifierOpts := []auth.VerifierOption{auth.WithLeeway(cfg.Auth.Leeway)}
	if cfg.Auth.Issuer != "" {
		verifierOpts = append(verifierOpts, auth.WithIssuer(cfg.Auth.Issuer))
	}
	verifier, err := auth.NewVerifier([]byte(cfg.Auth.Secret), verifierOpts...)
	if err != nil {
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	gateway, err := realtime.NewGateway(realtime.GatewayConfig{
		Verifier:        verifier,
		Logger:          logger,
		MetricsRegistry: registry,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		PingInterval:    cfg.Server.PingInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	app := &application{
		cfg:     cfg,
		logger:  logger,
		gateway: gateway,
		monitor: monitor,
	}

	emitter := event.NewEmitter(gateway, logger, registry.CoreMetrics())

	// Optional NATS mirror of every emitted envelope
	if cfg.NATS.URL != "" {
		nc, err := natsclient.NewClient(cfg.NATS.URL,
			natsclient.WithClientName(appName),
			natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
			natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
			natsclient.WithTimeout(cfg.NATS.Timeout),
			natsclient.WithDisconnectCallback(func(err error) {
				registry.CoreMetrics().NATSConnected.Set(0)
				monitor.UpdateDegraded("nats", "disconnected, reconnecting")
			}),
			natsclient.WithReconnectCallback(func() {
				registry.CoreMetrics().NATSConnected.Set(1)
				registry.CoreMetrics().NATSReconnects.Inc()
				monitor.UpdateHealthy("nats", "reconnected")
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("create NATS client: %w", err)
		}
		if err := nc.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect NATS: %w", err)
		}
		registry.CoreMetrics().NATSConnected.Set(1)
		monitor.UpdateHealthy("nats", "connected")

		app.nats = nc
		emitter = emitter.WithMirror(event.NewMirror(nc, logger))
	}
	app.emitter = emitter

	// Administrative connect/disconnect notices
	gateway.OnConnect = func(s *realtime.Session) {
		emitter.Notification(event.Notification{
			Message:     fmt.Sprintf("%s connected (%s)", s.Name, s.Role),
			Kind:        event.NotificationInfo,
			Dismissible: true,
		}, realtime.GroupAdministrators)
	}
	gateway.OnDisconnect = func(s *realtime.Session, reason string) {
		emitter.Notification(event.Notification{
			Message:     fmt.Sprintf("%s disconnected (%s)", s.Name, reason),
			Kind:        event.NotificationWarning,
			Dismissible: true,
		}, realtime.GroupAdministrators)
	}

	app.jobs = job.NewService(job.NewMemoryStore(), emitter, logger)
	app.inventory = inventory.NewService(inventory.NewMemoryStore(), emitter, logger)
	app.machines = machine.NewService(machine.NewMemoryStore(), emitter, logger)

	// The two floor presses the resolver's role table knows about
	for _, m := range []struct{ id, name string }{{"1", "Machine 1"}, {"2", "Machine 2"}} {
		if _, err := app.machines.Register(ctx, m.id, m.name); err != nil {
			return nil, fmt.Errorf("register machine %s: %w", m.id, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	mux.HandleFunc("/healthz", monitor.Handler(appName))

	app.httpsrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	app.metricsrv = metric.NewServer(cfg.Server.MetricsPort, "/metrics", registry)

	return app, nil
}

// start brings up the gateway, the metrics listener, and the main listener
func (a *application) start(ctx context.Context) error {
	if err := a.gateway.Start(ctx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	a.monitor.UpdateHealthy("gateway", "accepting connections")

	go func() {
		if err := a.metricsrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()

	go func() {
		a.logger.Info("listening", "addr", a.httpsrv.Addr)
		if err := a.httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", "error", err)
			a.monitor.UpdateUnhealthy("gateway", err.Error())
		}
	}()

	a.logger.Info("opsd started")
	return nil
}

// shutdown stops the listeners, the gateway, and the NATS mirror in order
func (a *application) shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := a.httpsrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.gateway.Stop(timeout); err != nil {
		errs = append(errs, fmt.Errorf("gateway stop: %w", err))
	}
	if err := a.metricsrv.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("metrics stop: %w", err))
	}
	if a.nats != nil {
		if err := a.nats.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("nats close: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("opsd shutdown complete")
	return nil
}
