package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/metrics"
)

// Options configures the sample cache.
type Options struct {
	// PoolSize is the number of records pulled per dataset.
	PoolSize int
	// Capacity is the number of dataset pools kept; least recently used
	// pools are evicted beyond it.
	Capacity int
	// BuildTimeout bounds the pull of a single pool.
	BuildTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		PoolSize:     100,
		Capacity:     10,
		BuildTimeout: 30 * time.Second,
	}
}

// Rand picks the pool index. It must be safe for concurrent use.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SampleCache serves random example texts from per-dataset pools built on
// first use. Pools are immutable once built.
type SampleCache struct {
	catalog *Catalog
	pools   *lru.Cache[string, []Record]
	group   singleflight.Group
	rng     Rand
	opts    Options
}

// NewSampleCache builds a cache over catalog. A nil rng uses the
// math/rand/v2 global source; zero-valued options take their defaults.
func NewSampleCache(catalog *Catalog, rng Rand, opts Options) (*SampleCache, error) {
	def := DefaultOptions()
	if opts.PoolSize <= 0 {
		opts.PoolSize = def.PoolSize
	}
	if opts.Capacity <= 0 {
		opts.Capacity = def.Capacity
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = def.BuildTimeout
	}
	if rng == nil {
		rng = globalRand{}
	}

	pools, err := lru.NewWithEvict[string, []Record](opts.Capacity, func(name string, _ []Record) {
		slog.Debug("sample pool evicted", "dataset", name)
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: create cache: %w", err)
	}
	return &SampleCache{catalog: catalog, pools: pools, rng: rng, opts: opts}, nil
}

// ListDatasets returns the catalog's dataset names in configured order.
func (c *SampleCache) ListDatasets() []string {
	return c.catalog.Names()
}

// Cached reports whether a pool for name is currently held.
func (c *SampleCache) Cached(name string) bool {
	return c.pools.Contains(name)
}

// GetSample returns the text of a uniformly random record from the dataset's
// pool, building the pool first if needed.
func (c *SampleCache) GetSample(ctx context.Context, name string) (string, error) {
	if _, err := c.catalog.Lookup(name); err != nil {
		return "", err
	}

	pool, ok := c.pools.Get(name)
	if ok {
		metrics.SampleRequests.WithLabelValues(name, "hit").Inc()
	} else {
		metrics.SampleRequests.WithLabelValues(name, "miss").Inc()
		var err error
		pool, err = c.load(ctx, name)
		if err != nil {
			return "", err
		}
	}
	return pool[c.rng.IntN(len(pool))].Text, nil
}

// load coalesces concurrent builds of the same pool. The build outlives a
// cancelled caller but never BuildTimeout.
func (c *SampleCache) load(ctx context.Context, name string) ([]Record, error) {
	ch := c.group.DoChan(name, func() (any, error) {
		if pool, ok := c.pools.Get(name); ok {
			return pool, nil
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.BuildTimeout)
		defer cancel()

		pool, err := c.build(buildCtx, name)
		if err != nil {
			metrics.PoolBuilds.WithLabelValues(name, "error").Inc()
			return nil, err
		}
		metrics.PoolBuilds.WithLabelValues(name, "ok").Inc()
		c.pools.Add(name, pool)
		return pool, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Record), nil
	}
}

func (c *SampleCache) build(ctx context.Context, name string) ([]Record, error) {
	src, err := c.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	it, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", name, sourceErr(err))
	}
	defer it.Close()

	pool := make([]Record, 0, c.opts.PoolSize)
	for len(pool) < c.opts.PoolSize {
		rec, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %s: %w", name, sourceErr(err))
		}
		pool = append(pool, rec)
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientSamples, name)
	}
	if len(pool) < c.opts.PoolSize {
		slog.Warn("sample pool truncated", "dataset", name, "pool_size", len(pool), "want", c.opts.PoolSize)
	}
	slog.Info("sample pool built", "dataset", name, "pool_size", len(pool), "duration_ms", time.Since(start).Milliseconds())
	return pool, nil
}

func sourceErr(err error) error {
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
}
