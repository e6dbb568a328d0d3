// Package main implements flowgroupd, the daemon hosting a process-group
// tree: it connects the NATS-backed state and flow-registry stores, builds
// the root group, runs the registry staleness poller and serves health and
// metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/c360/flowgroup/config"
	"github.com/c360/flowgroup/flowmanager"
	"github.com/c360/flowgroup/flowregistry"
	"github.com/c360/flowgroup/group"
	"github.com/c360/flowgroup/health"
	"github.com/c360/flowgroup/metric"
	"github.com/c360/flowgroup/natsclient"
	"github.com/c360/flowgroup/state"
)

const (
	Version = "0.1.0"
	appName = "flowgroupd"

	stateBucketName    = "flowgroup-state"
	registryBucketName = "flowgroup-registry"
	defaultRegistryID  = "default"
)

func main() {
	if err := run(); err != nil {
		slog.Error("flowgroupd failed", "error", err)
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

	cfg, err := loadDefaults(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("configuration is valid")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting flowgroupd",
		"version", Version, "nats_url", cliCfg.NATSURL, "http_addr", cliCfg.HTTPAddr)

	client, err := natsclient.Connect(ctx, natsclient.Options{
		URL:            cliCfg.NATSURL,
		Name:           appName,
		ConnectTimeout: 5 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer client.Close()

	monitor := health.NewMonitor(appName)
	monitor.Report(health.Healthy("nats", "connected"))

	root, registryClient, scheduler, metrics, err := buildEngine(ctx, client, cfg, logger)
	if err != nil {
		return err
	}
	defer scheduler.Shutdown()

	if err := root.DataValve().RestoreState(ctx); err != nil {
		logger.Warn("data valve state not restored", "error", err)
	}

	poller := group.NewRegistryPoller(root, registryClient, cfg.RegistryPollInterval, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitor.Report(health.Healthy("poller", "running"))
		err := poller.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		monitor.Report(health.UnhealthyError("poller", err))
		return err
	})

	server := &http.Server{
		Addr:              cliCfg.HTTPAddr,
		Handler:           buildMux(monitor, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		logger.Info("http endpoints listening", "addr", cliCfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("flowgroupd shutdown complete")
	return err
}

// buildEngine wires the persistence layers and constructs the root group
func buildEngine(
	ctx context.Context,
	client *natsclient.Client,
	cfg config.Defaults,
	logger *slog.Logger,
) (*group.ProcessGroup, flowregistry.Client, *localScheduler, *metric.MetricsRegistry, error) {
	stateBucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      stateBucketName,
		Description: "Durable component state",
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create state bucket: %w", err)
	}
	stateProvider := state.NewKVProvider(stateBucket)

	kvRegistry, err := flowregistry.NewKVRegistryBucket(ctx, client, registryBucketName)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create flow registry: %w", err)
	}
	registryClient := flowregistry.NewStandardClient()
	registryClient.AddRegistry(defaultRegistryID, kvRegistry)

	metrics := metric.NewMetricsRegistry()
	groupMetrics, err := group.NewGroupMetrics(metrics)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("register group metrics: %w", err)
	}

	scheduler := newLocalScheduler(logger)
	root := group.NewProcessGroup(uuid.NewString(), "Root", group.Dependencies{
		Scheduler:      scheduler,
		FlowManager:    flowmanager.New(logger),
		StateProvider:  stateProvider,
		RegistryClient: registryClient,
		Logger:         logger,
		Metrics:        groupMetrics,
		Defaults:       cfg,
	})

	return root, registryClient, scheduler, metrics, nil
}

func buildMux(monitor *health.Monitor, metrics *metric.MetricsRegistry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", monitor.Handler())
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func loadDefaults(path string) (config.Defaults, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Defaults{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
