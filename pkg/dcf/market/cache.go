package market

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// CacheService decorates a Provider with a TTL+LRU cache. Concurrent misses
// for the same key share one upstream call. Errors are not cached. A size of
// zero means unbounded.
type CacheService struct {
	next Provider
	ttl  time.Duration
	size int
	now  func() time.Time

	group singleflight.Group

	mu    sync.Mutex
	items map[string]cacheEntry
	order []string // simple LRU order, oldest at index 0
}

type cacheEntry struct {
	at  time.Time
	val any
}

func NewCacheService(next Provider, ttl time.Duration, size int) *CacheService {
	return &CacheService{next: next, ttl: ttl, size: size, now: time.Now, items: make(map[string]cacheEntry)}
}

func (c *CacheService) key(kind, sym string) string {
	return kind + "|" + strings.ToUpper(strings.TrimSpace(sym))
}

func (c *CacheService) Quote(ctx context.Context, sym string) (types.Quote, error) {
	v, err := c.get(ctx, c.key("quote", sym), func(ctx context.Context) (any, error) {
		return c.next.Quote(ctx, sym)
	})
	if err != nil {
		return types.Quote{}, err
	}
	return v.(types.Quote), nil
}

func (c *CacheService) Fundamentals(ctx context.Context, sym string) (types.Fundamentals, error) {
	v, err := c.get(ctx, c.key("fundamentals", sym), func(ctx context.Context) (any, error) {
		return c.next.Fundamentals(ctx, sym)
	})
	if err != nil {
		return types.Fundamentals{}, err
	}
	return v.(types.Fundamentals), nil
}

func (c *CacheService) get(ctx context.Context, k string, fetch func(context.Context) (any, error)) (any, error) {
	now := c.now()
	c.mu.Lock()
	if ent, ok := c.items[k]; ok {
		if now.Sub(ent.at) <= c.ttl {
			c.touchLocked(k)
			c.mu.Unlock()
			return ent.val, nil
		}
		// expired; drop and continue
		delete(c.items, k)
		c.removeFromOrderLocked(k)
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(k, func() (any, error) {
		// a flight that just finished may have filled the entry
		c.mu.Lock()
		ent, ok := c.items[k]
		c.mu.Unlock()
		if ok && c.now().Sub(ent.at) <= c.ttl {
			return ent.val, nil
		}
		return fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if _, ok := c.items[k]; !ok {
		c.order = append(c.order, k)
	}
	c.items[k] = cacheEntry{at: now, val: v}
	for c.size > 0 && len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
	c.mu.Unlock()
	return v, nil
}

// Len reports the number of cached entries.
func (c *CacheService) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *CacheService) touchLocked(k string) {
	for i, v := range c.order {
		if v == k {
			c.order = append(append(c.order[:i], c.order[i+1:]...), k)
			return
		}
	}
	c.order = append(c.order, k)
}

func (c *CacheService) removeFromOrderLocked(k string) {
	for i, v := range c.order {
		if v == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
