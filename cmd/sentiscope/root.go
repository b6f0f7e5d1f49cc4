package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/cache"
	"github.com/adeilh/sentiscope/cache/bigcache"
	"github.com/adeilh/sentiscope/cache/memory"
	"github.com/adeilh/sentiscope/cache/redis"
	"github.com/adeilh/sentiscope/config"
	"github.com/adeilh/sentiscope/dashboard"
	"github.com/adeilh/sentiscope/fetcher"
	"github.com/adeilh/sentiscope/httpx"
	"github.com/adeilh/sentiscope/sentinews"
)

// compositionRoot wires configuration, logging, the cache backend and the
// API client together and owns their cleanup.
type compositionRoot struct {
	Config *config.Config
	Logger *zap.Logger
	Store  cache.Store
	API    *sentinews.Client

	closers []func() error
}

func newCompositionRoot(ctx context.Context, configPath string) (*compositionRoot, error) {
	root := &compositionRoot{}

	boot, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg, err := config.Load(configPath, boot)
	_ = boot.Sync()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	root.Config = cfg

	if root.Logger, err = cfg.Log.NewLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := root.initStore(ctx); err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	root.initAPI()
	return root, nil
}

func (r *compositionRoot) initStore(ctx context.Context) error {
	c := r.Config.Cache
	switch c.Backend {
	case "redis":
		s := redis.NewStore(redis.Options{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			Namespace: c.Redis.Namespace,
		})
		r.closers = append(r.closers, s.Close)
		if err := s.Ping(ctx); err != nil {
			return err
		}
		r.Store = s
	case "bigcache":
		window := c.BigCache.LifeWindow
		if window < r.Config.Fetcher.CacheTime {
			window = r.Config.Fetcher.CacheTime
		}
		s, err := bigcache.NewStore(ctx, bigcache.Options{
			MaxSizeMB:  c.BigCache.MaxSizeMB,
			LifeWindow: window,
			Logger:     r.Logger.Named("cache"),
		})
		if err != nil {
			return err
		}
		r.closers = append(r.closers, s.Close)
		r.Store = s
	default:
		r.Store = memory.NewStore()
	}
	r.Logger.Info("cache backend ready", zap.String("backend", c.Backend))
	return nil
}

func (r *compositionRoot) initAPI() {
	fc := r.Config.Fetcher
	opts := []fetcher.Option{
		fetcher.WithCacheTime(fc.CacheTime),
		fetcher.WithRetries(fc.Retries),
		fetcher.WithRetryDelay(fc.RetryDelay),
		fetcher.WithAttemptTimeout(fc.AttemptTimeout),
		fetcher.WithStore(r.Store),
		fetcher.WithLogger(r.Logger.Named("fetcher")),
	}
	if fc.RetryClientErrors {
		opts = append(opts, fetcher.WithRetryPolicy(fetcher.RetryAll))
	}
	if fc.ShareRequests {
		opts = append(opts, fetcher.WithSharedRequests())
	}
	hc := httpx.NewClient(
		httpx.WithBaseURL(r.Config.API.BaseURL),
		httpx.WithClientTimeout(r.Config.API.Timeout),
		httpx.WithHeaders(map[string]string{"User-Agent": "sentiscope"}),
		httpx.WithClientLogger(r.Logger.Named("http")),
	)
	r.API = sentinews.NewClient(hc, fetcher.New(hc, opts...), sentinews.WithLogger(r.Logger.Named("api")))
}

func (r *compositionRoot) Dashboard() *dashboard.Dashboard {
	return dashboard.New(r.API, r.Logger.Named("dashboard"))
}

// Close releases the cache backend and flushes the logger.
func (r *compositionRoot) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
	return errors.Join(errs...)
}
