/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

// Command clipkitd serves the clip catalog API for chorusing practice.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chorushub/go-clipkit/clientpool"
	"github.com/chorushub/go-clipkit/clipstore"
	"github.com/chorushub/go-clipkit/config"
	"github.com/chorushub/go-clipkit/httpapi"
	"github.com/chorushub/go-clipkit/log"
	"github.com/chorushub/go-clipkit/requestqueue"
	"github.com/chorushub/go-clipkit/service"
)

const envVarsPrefix = "clipkit"

// AppConfig aggregates configuration of all application components.
type AppConfig struct {
	Log    *log.Config
	Server *httpapi.Config
	Queue  *requestqueue.Config
	Pool   *clientpool.Config
	Store  *clipstore.Config
}

// NewAppConfig creates a new AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:    log.NewConfig(),
		Server: httpapi.NewConfig(),
		Queue:  requestqueue.NewConfig(),
		Pool:   clientpool.NewConfig(),
		Store:  clipstore.NewConfig(),
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "clipkitd.yml", "path to the configuration file")
	flag.Parse()

	cfg := NewAppConfig()
	loader := config.NewDefaultLoader(envVarsPrefix)
	if err := loader.LoadFromFile(configPath, config.DataTypeYAML,
		cfg.Log, cfg.Server, cfg.Queue, cfg.Pool, cfg.Store); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLogger := log.NewLogger(cfg.Log)
	defer closeLogger()

	queueMetrics := requestqueue.NewPrometheusMetrics()
	queueMetrics.MustRegister()
	defer queueMetrics.Unregister()
	queueOpts := cfg.Queue.QueueOpts()
	queueOpts.MetricsCollector = queueMetrics
	queueOpts.Logger = logger
	queue := requestqueue.NewQueueWithOpts(queueOpts)

	poolMetrics := clientpool.NewPrometheusMetrics()
	poolMetrics.MustRegister()
	defer poolMetrics.Unregister()
	poolOpts := cfg.Pool.PoolOpts()
	poolOpts.MetricsCollector = poolMetrics
	poolOpts.Logger = logger
	pool := clientpool.NewPoolWithOpts(poolOpts)

	store, err := clipstore.NewStoreWithOpts(cfg.Store.Dir, queue, clipstore.StoreOpts{Logger: logger})
	if err != nil {
		return fmt.Errorf("create clip store: %w", err)
	}

	router := httpapi.NewRouter(store, pool, logger, httpapi.RouterOpts{
		MaxAudioSize:    int64(cfg.Store.MaxAudioSize),
		UploadRateLimit: cfg.Server.UploadRateLimit(),
		UploadRateBurst: cfg.Server.Limits.UploadBurst,
	})
	server := httpapi.NewServer(cfg.Server, logger, router)

	poolCleanup := service.NewWorkerUnit(service.NewPeriodicWorker(service.WorkerFunc(
		func(ctx context.Context) error {
			pool.Cleanup()
			return nil
		}), cfg.Pool.CleanupInterval, logger.With(log.String("worker", "pool_cleanup"))))

	return service.New(logger, service.NewCompositeUnit(server, poolCleanup)).Start()
}
