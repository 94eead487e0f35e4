// Package app builds the evaluator and its collaborators from a Config.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/DipperMason/calcalc/internal/cache"
	"github.com/DipperMason/calcalc/internal/calcalc"
	"github.com/DipperMason/calcalc/internal/config"
	"github.com/DipperMason/calcalc/internal/history"
	"github.com/DipperMason/calcalc/internal/wolfram"
)

// Wire bundles everything a command needs.
type Wire struct {
	Evaluator *calcalc.Evaluator
	Remote    calcalc.Resolver
	History   *history.Store // nil when history is disabled
	Redis     *backend.Client
}

// Options tweak wiring for a single invocation.
type Options struct {
	NoHistory bool
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg *config.Config, logger *slog.Logger, opts Options) (*Wire, error) {
	w := &Wire{}

	client := wolfram.New(cfg.Remote.BaseURL, cfg.Remote.AppID, cfg.Remote.Timeout)
	client.Logger = logger
	w.Remote = client

	if cfg.Cache.RedisAddr != "" {
		w.Redis = backend.NewClient(&backend.Options{Addr: cfg.Cache.RedisAddr})
		w.Remote = cache.New(client, w.Redis,
			cache.WithTTL(cfg.Cache.TTL),
			cache.WithPrefix(cfg.Cache.Prefix),
			cache.WithLogger(logger),
		)
	}

	evalOpts := []calcalc.Option{calcalc.WithLogger(logger)}
	if cfg.History.Enabled && !opts.NoHistory {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		w.History = store
		evalOpts = append(evalOpts, calcalc.WithRecorder(store))
	}

	w.Evaluator = calcalc.New(w.Remote, evalOpts...)
	return w, nil
}

// Close releases the history database and the Redis client.
func (w *Wire) Close() error {
	var errs []error
	if w.History != nil {
		errs = append(errs, w.History.Close())
	}
	if w.Redis != nil {
		errs = append(errs, w.Redis.Close())
	}
	return errors.Join(errs...)
}
