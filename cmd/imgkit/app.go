package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/kbukum/imgkit/config"
	"github.com/kbukum/imgkit/download"
	"github.com/kbukum/imgkit/ledger"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/observability"
	"github.com/kbukum/imgkit/storage/imgla"
	"github.com/kbukum/imgkit/uploader"
	"github.com/kbukum/imgkit/worker"
)

// app holds what every command needs, built once from configuration.
type app struct {
	cfg      *config.AppConfig
	log      *logger.Logger
	svc      *uploader.Service
	fetcher  *download.Fetcher
	shutdown observability.ShutdownFunc
}

type globalFlags struct {
	configFile string
	envFile    string
	debug      bool
}

func newApp(ctx context.Context, flags globalFlags) (*app, error) {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if flags.debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()

	shutdown, err := observability.Setup(ctx, cfg.Tracing, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, err
	}

	l := ledger.New(cfg.Ledger.Path,
		ledger.WithCapacity(cfg.Ledger.Capacity),
		ledger.WithLogger(log),
	)
	retry := cfg.HTTP.RetryConfig()
	pool := worker.NewPool(cfg.Uploader.Workers)
	svc := uploader.New(l, uploader.Options{
		Logger:        log,
		Pool:          pool,
		Cache:         imgla.NewCache(cfg.HTTP.CacheSize, cfg.HTTP.CacheTTL),
		KeyTemplate:   cfg.Uploader.KeyTemplate,
		Retry:         retry,
		UploadTimeout: cfg.HTTP.UploadTimeout,
		APITimeout:    cfg.HTTP.APITimeout,
		DeleteTimeout: cfg.HTTP.DeleteTimeout,
		S3MaxAttempts: cfg.HTTP.S3MaxAttempts,
	})

	fetcher, err := download.New(download.Options{
		Logger:      log,
		Dir:         cfg.Download.Dir,
		ProxyPrefix: cfg.Download.ProxyPrefix,
		Timeout:     cfg.Download.Timeout,
		Retry:       retry,
		Pool:        pool,
	})
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return &app{cfg: cfg, log: log, svc: svc, fetcher: fetcher, shutdown: shutdown}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

// printJSON writes v indented, the format every command prints.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
