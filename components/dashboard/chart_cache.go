package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultChartCacheEntries = 256

// ChartCacheKey identifies one rendered chart: the widget it belongs to, how it is
// drawn and a digest of the plotted data.
type ChartCacheKey struct {
	Widget string
	Kind   ChartKind
	Theme  string
	Digest string
}

func (k ChartCacheKey) String() string {
	return k.Widget + ":" + string(k.Kind) + ":" + k.Theme + ":" + k.Digest
}

// RenderCache memoizes rendered chart HTML.
type RenderCache interface {
	GetOrRender(key ChartCacheKey, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered widget charts for ttl and holds at most capacity
// of them, dropping the least recently served first. Viewers looking at the
// same pipeline share one render while it is in flight.
type ChartCache struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time
	flight   singleflight.Group

	mu      sync.Mutex
	entries map[ChartCacheKey]*cachedChart
}

type cachedChart struct {
	html     string
	expires  time.Time
	lastUsed time.Time
}

// NewChartCache builds a cache. A ttl <= 0 disables caching; capacity <= 0
// uses the default.
func NewChartCache(ttl time.Duration, capacity int) *ChartCache {
	if capacity <= 0 {
		capacity = defaultChartCacheEntries
	}
	return &ChartCache{
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		entries:  make(map[ChartCacheKey]*cachedChart),
	}
}

// Len reports the number of unexpired charts.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for _, entry := range c.entries {
		if !now.After(entry.expires) {
			n++
		}
	}
	return n
}

// GetOrRender serves key from the cache or renders it once, however many
// callers ask concurrently.
func (c *ChartCache) GetOrRender(key ChartCacheKey, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	if html, ok := c.lookup(key); ok {
		return html, nil
	}
	v, err, _ := c.flight.Do(key.String(), func() (any, error) {
		if html, ok := c.lookup(key); ok {
			return html, nil
		}
		html, err := render()
		if err != nil {
			return "", err
		}
		c.store(key, html)
		return html, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *ChartCache) lookup(key ChartCacheKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	now := c.now()
	if now.After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	entry.lastUsed = now
	return entry.html, true
}

func (c *ChartCache) store(key ChartCacheKey, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key] = &cachedChart{html: html, expires: now.Add(c.ttl), lastUsed: now}
	if len(c.entries) <= c.capacity {
		return
	}
	// Expired charts go first, then the least recently served.
	for k, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, k)
		}
	}
	for len(c.entries) > c.capacity {
		var oldest ChartCacheKey
		var oldestAt time.Time
		first := true
		for k, entry := range c.entries {
			if k == key {
				continue
			}
			if first || entry.lastUsed.Before(oldestAt) {
				oldest, oldestAt, first = k, entry.lastUsed, false
			}
		}
		delete(c.entries, oldest)
	}
}

// chartDigest fingerprints the plotted data and labels of spec. Widget, kind
// and theme are part of ChartCacheKey already.
func chartDigest(spec ChartSpec) string {
	if len(spec.Series) == 0 {
		return "empty"
	}
	b, err := json.Marshal(struct {
		Title    string
		Subtitle string
		Series   []ChartSeries
	}{spec.Title, spec.Subtitle, spec.Series})
	if err != nil {
		return "invalid"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12])
}
