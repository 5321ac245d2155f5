package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/adapters/nats"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/adapters/s3"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/sweep"
)

// Infra holds the optional adapters a sweep reports to. Nil fields are
// disabled.
type Infra struct {
	Store     ports.ResultStore
	Locker    ports.Locker
	Publisher ports.Publisher
	Sink      ports.ReportSink

	closers []func() error
}

// OpenInfra connects the adapters enabled in cfg. On error, everything
// opened so far is closed.
func OpenInfra(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Infra, error) {
	in := &Infra{}
	if err := in.open(ctx, cfg, logger); err != nil {
		_ = in.Close()
		return nil, err
	}
	return in, nil
}

func (in *Infra) open(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Results.Backend {
	case "file":
		in.Store = file.NewStore(cfg.Results.Dir)
	case "memory":
		in.Store = memory.NewStore()
	case "redis":
		store := redis.New(cfg.Redis.Addr, "", 0, redis.WithTTL(cfg.Redis.TTL), redis.WithPrefix(redisPrefix(cfg)))
		in.closers = append(in.closers, store.Close)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis at %s: %w", cfg.Redis.Addr, err)
		}
		in.Store = store
		in.Locker = redis.NewLocker(store.Client(), redisPrefix(cfg))
	}
	if in.Store != nil && cfg.Results.Key != "" {
		key, err := middleware.DecodeKey(cfg.Results.Key)
		if err != nil {
			return fmt.Errorf("results.key: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return err
		}
		in.Store = middleware.Chain(in.Store, mw)
	}
	if in.Store != nil {
		logger.Debug("result store enabled", "backend", cfg.Results.Backend, "encrypted", cfg.Results.Key != "")
	}

	if cfg.NATS.URL != "" {
		pub, err := nats.New(cfg.NATS.URL, nats.WithSubjectPrefix(cfg.NATS.SubjectPrefix))
		if err != nil {
			return err
		}
		in.closers = append(in.closers, pub.Close)
		in.Publisher = pub
		logger.Debug("event publisher enabled", "url", cfg.NATS.URL)
	}

	if cfg.S3.Bucket != "" {
		sink, err := s3.New(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region, cfg.S3.Endpoint)
		if err != nil {
			return err
		}
		in.Sink = sink
		logger.Debug("report sink enabled", "bucket", cfg.S3.Bucket)
	}
	return nil
}

func redisPrefix(cfg *config.Config) string {
	if cfg.Redis.Prefix != "" {
		return cfg.Redis.Prefix
	}
	return "espalier:result:"
}

// SweepOptions returns the runner options for the enabled adapters.
func (in *Infra) SweepOptions() []sweep.Option {
	var opts []sweep.Option
	if in.Store != nil {
		opts = append(opts, sweep.WithStore(in.Store))
	}
	if in.Locker != nil {
		opts = append(opts, sweep.WithLocker(in.Locker))
	}
	if in.Publisher != nil {
		opts = append(opts, sweep.WithPublisher(in.Publisher))
	}
	if in.Sink != nil {
		opts = append(opts, sweep.WithReportSink(in.Sink))
	}
	return opts
}

// Close releases every connection, last opened first.
func (in *Infra) Close() error {
	var errs []error
	for i := len(in.closers) - 1; i >= 0; i-- {
		errs = append(errs, in.closers[i]())
	}
	in.closers = nil
	return errors.Join(errs...)
}
