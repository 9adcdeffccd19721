package rates

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

// NewCached wraps a rate client with a Redis read-through cache and collapses
// concurrent fetches for the same base currency. rdb may be nil, in which
// case only the fetch collapsing applies.
func NewCached(inner Client, rdb *redis.Client, ttl time.Duration, log *logger.Logger) Client {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &cachedClient{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.With("client", "CachedRateClient"),
	}
}

type cachedClient struct {
	inner Client
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

func (c *cachedClient) Fetch(ctx context.Context, baseCurrency string) (*domain.RateTable, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	key := "rates:" + base

	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			var table domain.RateTable
			if json.Unmarshal(raw, &table) == nil && len(table.Rates) > 0 {
				return &table, nil
			}
		} else if err != redis.Nil {
			c.log.Debug("rate cache read failed", "base", base, "error", err)
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		table, err := c.inner.Fetch(ctx, base)
		if err != nil {
			return nil, err
		}
		if c.rdb != nil {
			if raw, merr := json.Marshal(table); merr == nil {
				if serr := c.rdb.Set(ctx, key, raw, c.ttl).Err(); serr != nil {
					c.log.Debug("rate cache write failed", "base", base, "error", serr)
				}
			}
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.RateTable), nil
}
