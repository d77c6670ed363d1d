package portalctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"
	"golang.org/x/time/rate"

	"github.com/kart-io/campus-portal/internal/portal"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/component/redis"
	"github.com/kart-io/campus-portal/pkg/infra/app"
	"github.com/kart-io/campus-portal/pkg/infra/tracing"
	sessionopts "github.com/kart-io/campus-portal/pkg/options/session"
	"github.com/kart-io/campus-portal/pkg/session"
)

// runtime is everything one command invocation needs.
type runtime struct {
	opts      *Options
	store     session.Store
	transport *rest.Client
	portal    *portal.Portal

	closers []func() error
}

func newRuntime(ctx context.Context, opts *Options) (rt *runtime, err error) {
	rt = &runtime{opts: opts}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	tp, err := tracing.NewProvider(opts.Tracing)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() error { return tp.Shutdown(context.Background()) })

	if rt.store, err = rt.openStore(ctx); err != nil {
		return nil, err
	}

	c := opts.Client
	restOpts := []rest.Option{
		rest.WithCredentials(c.WithCredentials),
		rest.WithTokenProvider(session.Provider(rt.store, logger.Global())),
		rest.WithLogger(logger.Global()),
		rest.WithTimeout(c.Timeout),
		rest.WithMaxRetries(c.MaxRetries),
		rest.WithUserAgent(c.UserAgent + "/" + app.GetVersion()),
	}
	if c.RateLimit > 0 {
		restOpts = append(restOpts, rest.WithRateLimit(rate.Limit(c.RateLimit), c.RateBurst))
	}
	if rt.transport, err = rest.New(c.BaseURL, restOpts...); err != nil {
		return nil, err
	}

	if rt.portal, err = portal.New(rt.transport, rt.store, c.Concurrency); err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() error { rt.portal.Close(); return nil })
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context) (session.Store, error) {
	s := rt.opts.Session
	switch s.Store {
	case sessionopts.StoreMemory:
		return session.NewMemoryStore(), nil
	case sessionopts.StoreRedis:
		rc, err := redis.New(ctx, rt.opts.Redis)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, rc.Close)
		return session.NewRedisStore(rc.Client(), s.RedisKey, s.RedisTTL), nil
	default:
		fs, err := session.NewFileStore(s.File)
		if err != nil {
			return nil, fmt.Errorf("open session file: %w", err)
		}
		rt.closers = append(rt.closers, fs.Close)
		return fs, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
