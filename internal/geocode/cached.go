package geocode

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/carescope/internal/cache"
)

// Cached consults a cache before the wrapped geocoder. Not-found results are
// cached too; lookup errors are not.
type Cached struct {
	inner Geocoder
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group
}

// NewCached wraps g. A zero ttl uses the cache's own default.
func NewCached(g Geocoder, c cache.Cache, ttl time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{inner: g, cache: c, ttl: ttl, log: log}
}

// Lookup returns the cached result for address, or asks the wrapped geocoder
// once per distinct address even under concurrent callers.
func (c *Cached) Lookup(ctx context.Context, address string) (Result, error) {
	key := cache.GeoKey(address)
	if res, ok := c.get(key); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if res, ok := c.get(key); ok {
			return res, nil
		}
		res, err := c.inner.Lookup(ctx, address)
		if err != nil {
			return Result{}, err
		}
		c.put(key, res)
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (c *Cached) get(key string) (Result, bool) {
	data, ok := c.cache.Get(key)
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		c.log.Debug("dropping corrupt geocode cache entry", zap.String("key", key), zap.Error(err))
		_ = c.cache.Delete(key)
		return Result{}, false
	}
	return res, true
}

func (c *Cached) put(key string, res Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.cache.Set(key, data, c.ttl); err != nil {
		c.log.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
}
