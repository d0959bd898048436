package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender(context.Background(), "key", render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender(context.Background(), "key", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheExpires(t *testing.T) {
	cache := NewChartCache(time.Minute)
	clock := frozenNow
	cache.now = func() time.Time { return clock }
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender(context.Background(), "key", render)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Minute)
	_, err = cache.GetOrRender(context.Background(), "key", render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewChartCache(time.Minute)
	_, err := cache.GetOrRender(context.Background(), "key", func() (string, error) {
		return "", errors.New("render failed")
	})
	require.Error(t, err)
	assert.Zero(t, cache.Len())
}

func TestChartFingerprintIsStable(t *testing.T) {
	a := CompareRevenue([]SalesRecord{{Date: daysAgo(1), Amount: 10}}, frozenNow)
	b := CompareRevenue([]SalesRecord{{Date: daysAgo(1), Amount: 10}}, frozenNow)
	c := CompareRevenue([]SalesRecord{{Date: daysAgo(1), Amount: 11}}, frozenNow)
	assert.Equal(t, chartFingerprint(a), chartFingerprint(b))
	assert.NotEqual(t, chartFingerprint(a), chartFingerprint(c))
}

func TestChartCacheSharesConcurrentRender(t *testing.T) {
	cache := NewChartCache(time.Minute)
	release := make(chan struct{})
	var calls atomic.Int32
	render := func() (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			html, err := cache.GetOrRender(context.Background(), "revenue", render)
			assert.NoError(t, err)
			results[i] = html
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, html := range results {
		assert.Equal(t, "shared", html)
	}
}

func TestChartCacheWithoutLifetimeAlwaysRenders(t *testing.T) {
	cache := NewChartCache(0)
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := cache.GetOrRender(context.Background(), "key", func() (string, error) {
			calls++
			return "html", nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Zero(t, cache.Len())
}

func TestChartCacheSweepsStaleEntriesOnStore(t *testing.T) {
	cache := NewChartCache(time.Minute)
	clock := frozenNow
	cache.now = func() time.Time { return clock }
	render := func() (string, error) { return "html", nil }

	_, err := cache.GetOrRender(context.Background(), "old", render)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Minute)
	_, err = cache.GetOrRender(context.Background(), "new", render)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len())
}
