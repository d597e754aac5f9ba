package dashboard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineKey(digest string) ChartCacheKey {
	return ChartCacheKey{Widget: "lead_pipeline", Kind: ChartBar, Theme: "westeros", Digest: digest}
}

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute, 0)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender(pipelineKey("a"), render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender(pipelineKey("a"), render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheExpires(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute, 0)
	cache.now = func() time.Time { return now }
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender(pipelineKey("a"), render)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, cache.Len())
	_, err = cache.GetOrRender(pipelineKey("a"), render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCacheDisabledWithZeroTTL(t *testing.T) {
	cache := NewChartCache(0, 0)
	calls := 0
	render := func() (string, error) {
		calls++
		return "x", nil
	}
	_, _ = cache.GetOrRender(pipelineKey("a"), render)
	_, _ = cache.GetOrRender(pipelineKey("a"), render)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheEvictsLeastRecentlyServed(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Hour, 2)
	cache.now = func() time.Time { return now }
	calls := map[string]int{}
	render := func(digest string) func() (string, error) {
		return func() (string, error) {
			calls[digest]++
			return "chart-" + digest, nil
		}
	}

	_, _ = cache.GetOrRender(pipelineKey("a"), render("a"))
	now = now.Add(time.Second)
	_, _ = cache.GetOrRender(pipelineKey("b"), render("b"))
	now = now.Add(time.Second)
	// Serving a again makes b the oldest.
	_, _ = cache.GetOrRender(pipelineKey("a"), render("a"))
	now = now.Add(time.Second)
	_, _ = cache.GetOrRender(pipelineKey("c"), render("c"))

	assert.Equal(t, 2, cache.Len())
	_, _ = cache.GetOrRender(pipelineKey("a"), render("a"))
	assert.Equal(t, 1, calls["a"])
	_, _ = cache.GetOrRender(pipelineKey("b"), render("b"))
	assert.Equal(t, 2, calls["b"])
}

func TestChartCacheSharesConcurrentRender(t *testing.T) {
	cache := NewChartCache(time.Minute, 0)
	release := make(chan struct{})
	var calls atomic.Int32
	render := func() (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Go(func() {
			results[i], _ = cache.GetOrRender(pipelineKey("a"), render)
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, "shared", got)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestChartDigestTracksPlottedData(t *testing.T) {
	a := ChartSpec{ID: "lead_pipeline", Kind: ChartBar, Series: []ChartSeries{SeriesFromCounts("Leads", []GroupCount{{Name: "website", Value: 2}})}}
	b := ChartSpec{ID: "lead_pipeline", Kind: ChartBar, Series: []ChartSeries{SeriesFromCounts("Leads", []GroupCount{{Name: "website", Value: 3}})}}
	pie := a
	pie.Kind = ChartFunnel

	assert.Equal(t, chartDigest(a), chartDigest(a))
	assert.NotEqual(t, chartDigest(a), chartDigest(b))
	assert.Equal(t, chartDigest(a), chartDigest(pie))
	assert.Equal(t, "empty", chartDigest(ChartSpec{ID: "lead_pipeline"}))
}
