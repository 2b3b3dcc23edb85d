// File: internal/orchestrator/orchestrator.go
// Description: Cache-aside coordination around the script synthesizer. The
// cache is an explicit, optional dependency and its failures never reach the caller.

package orchestrator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/cachekey"
	"github.com/xkilldash9x/formscript/internal/dsl"
	"github.com/xkilldash9x/formscript/internal/observability"
	"github.com/xkilldash9x/formscript/internal/synthesizer"
)

// Generator runs the tiered strategy chain. An empty script with a nil error
// means every tier came up empty; an error means the chain itself failed.
type Generator interface {
	Generate(ctx context.Context, html string, profile schemas.UserProfile) (string, error)
}

// Orchestrator implements schemas.Synthesizer on top of a Generator and an
// optional ScriptCache.
type Orchestrator struct {
	generator Generator
	cache     schemas.ScriptCache
	logger    *zap.Logger

	dedup  bool
	flight singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDeduplication toggles sharing of one generation between concurrent
// requests for the same cache key. It is on by default.
func WithDeduplication(enabled bool) Option {
	return func(o *Orchestrator) { o.dedup = enabled }
}

// New wires the orchestrator. cache may be nil, in which case every request
// is generated from scratch and nothing is stored.
func New(generator Generator, cache schemas.ScriptCache, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		cache:     cache,
		logger:    logger.Named("orchestrator"),
		dedup:     true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ schemas.Synthesizer = (*Orchestrator)(nil)

// Synthesize always returns a non-empty script. Blank markup yields the basic
// navigation script without touching the cache, a failed chain yields the
// emergency script, and an empty chain result yields basic navigation.
func (o *Orchestrator) Synthesize(ctx context.Context, html string, profile schemas.UserProfile) string {
	if strings.TrimSpace(html) == "" {
		o.logger.Debug("Blank page markup, using basic navigation")
		return synthesizer.BasicNavigation()
	}

	key := cachekey.Derive(html, profile)
	log := o.logger.With(zap.String("cache_key", key))

	if script, ok := o.lookup(ctx, log, key); ok {
		return script
	}

	if !o.dedup {
		return o.generate(ctx, log, key, html, profile)
	}

	// The shared generation outlives any single waiter; each waiter still
	// stops on its own context below.
	shared := context.WithoutCancel(ctx)
	ch := o.flight.DoChan(key, func() (any, error) {
		return o.generate(shared, log, key, html, profile), nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			log.Debug("Shared in-flight generation")
		}
		return res.Val.(string)
	case <-ctx.Done():
		log.Warn("Request cancelled while waiting for generation", zap.Error(ctx.Err()))
		return synthesizer.Emergency()
	}
}

func (o *Orchestrator) lookup(ctx context.Context, log *zap.Logger, key string) (string, bool) {
	if o.cache == nil {
		return "", false
	}
	script, found, err := o.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Script cache read failed, treating as miss", zap.Error(err))
		return "", false
	}
	if found {
		log.Info("Script cache hit")
		return script, true
	}
	log.Debug("Script cache miss")
	return "", false
}

func (o *Orchestrator) generate(ctx context.Context, log *zap.Logger, key, html string, profile schemas.UserProfile) string {
	log.Info("Generating script", observability.ProfileFields(profile), zap.Int("html_bytes", len(html)))

	script, err := o.generator.Generate(ctx, html, profile)
	if err != nil {
		log.Error("Script synthesis failed, using emergency script", zap.Error(err))
		return synthesizer.Emergency()
	}
	if strings.TrimSpace(script) == "" {
		log.Info("No strategy produced a script, using basic navigation")
		script = synthesizer.BasicNavigation()
	}

	o.store(ctx, log, key, script, html)
	return script
}

func (o *Orchestrator) store(ctx context.Context, log *zap.Logger, key, script, html string) {
	if o.cache == nil {
		return
	}
	if !dsl.IsCacheable(script) {
		log.Debug("Script not admitted to cache")
		return
	}
	if err := o.cache.Put(ctx, key, script, html); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug("Script cache write abandoned", zap.Error(err))
			return
		}
		log.Warn("Script cache write failed", zap.Error(err))
	}
}
