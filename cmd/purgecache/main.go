// Command purgecache runs a cache configured from a YAML file and serves its
// management API until it is signalled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/hyp3rd/purgecache"
	"github.com/hyp3rd/purgecache/internal/config"
	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/internal/libs/serializer"
	"github.com/hyp3rd/purgecache/pkg/backend"
	redisstore "github.com/hyp3rd/purgecache/pkg/backend/redis"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the configuration named by args, starts the cache and blocks until ctx is done.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	flags := flag.NewFlagSet("purgecache", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "path of the YAML configuration file; defaults are used when empty")

	err := flags.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	logger.SetOutput(stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	cacheCfg, closeBackend, err := buildConfig(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer closeBackend()

	c, err := purgecache.NewFromConfig(ctx, purgecache.GetDefaultManager(), cacheCfg)
	if err != nil {
		return err
	}

	reg.MustRegister(newStatsCollector(c))

	logger.WithFields(logrus.Fields{
		"backend":    cfg.Backend.Type,
		"maxSize":    c.MaxSize(),
		"fillFactor": c.FillFactor(),
		"management": c.ManagementHTTPAddress(),
	}).Info("purgecache started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err = c.Stop(shutdownCtx)
	if err != nil {
		return ewrap.Wrap(err, "stopping cache")
	}

	logger.Info("purgecache stopped")

	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if path == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildConfig translates the file configuration into the cache configuration. The
// returned function releases the backend connections.
func buildConfig(
	ctx context.Context,
	cfg *config.Config,
	logger logrus.FieldLogger,
	reg *prometheus.Registry,
) (*purgecache.Config, func(), error) {
	cacheCfg := purgecache.NewConfig(cfg.Backend.Type)
	cacheCfg.CacheOptions = append(cacheCfg.CacheOptions,
		purgecache.WithMaxSize(cfg.Cache.MaxSize),
		purgecache.WithFillFactor(cfg.Cache.FillFactor),
		purgecache.WithDebug(cfg.Cache.Debug),
		purgecache.WithLogger(logger),
	)

	if cfg.Management.Addr != "" {
		var mgmtOpts []purgecache.ManagementHTTPOption
		if cfg.Management.Metrics {
			mgmtOpts = append(mgmtOpts, purgecache.WithMgmtMetrics(reg))
		}

		cacheCfg.CacheOptions = append(cacheCfg.CacheOptions, purgecache.WithManagementHTTP(cfg.Management.Addr, mgmtOpts...))
	}

	closeBackend := func() {}

	switch cfg.Backend.Type {
	case constants.InMemoryBackend:
		cacheCfg.InMemoryOptions = append(cacheCfg.InMemoryOptions, backend.WithCapacity[backend.InMemory](cfg.Backend.Capacity))
	case constants.RedisBackend:
		store, err := redisstore.New(cfg.RedisOptions()...)
		if err != nil {
			return nil, nil, err
		}

		err = store.Ping(ctx)
		if err != nil {
			_ = store.Close()

			return nil, nil, err
		}

		ser, err := serializer.New(cfg.Backend.Redis.Serializer)
		if err != nil {
			_ = store.Close()

			return nil, nil, err
		}

		cacheCfg.RedisOptions = append(cacheCfg.RedisOptions,
			backend.WithRedisClient(store.Client),
			backend.WithKeysSetName(cfg.Backend.Redis.KeysSetName),
			backend.WithSerializer(ser),
			backend.WithCapacity[backend.Redis](cfg.Backend.Capacity),
		)

		closeBackend = func() {
			err := store.Close()
			if err != nil {
				logger.WithError(err).Warn("closing redis")
			}
		}
	}

	return cacheCfg, closeBackend, nil
}
