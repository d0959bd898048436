package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueChartRendererRendersBothWindows(t *testing.T) {
	renderer := NewRevenueChartRenderer(WithChartCache(nil))
	cmp := CompareRevenue([]SalesRecord{
		{Date: daysAgo(0), Amount: 100},
		{Date: daysAgo(7), Amount: 50},
	}, frozenNow)

	html, err := renderer.Render(context.Background(), "Weekly sales", cmp)
	require.NoError(t, err)

	assert.Contains(t, html, "Weekly sales")
	assert.Contains(t, html, "Current Period")
	assert.Contains(t, html, "Previous Period")
	assert.Contains(t, html, "Mar 14")
	assert.Contains(t, html, "+100.0%")
}

func TestRevenueChartRendererUsesCache(t *testing.T) {
	cache := NewChartCache(time.Minute)
	renderer := NewRevenueChartRenderer(WithChartCache(cache), WithChartAssetsHost("https://cdn.example.com/echarts/"))
	cmp := CompareRevenue(nil, frozenNow)

	first, err := renderer.Render(context.Background(), "Sales", cmp)
	require.NoError(t, err)
	second, err := renderer.Render(context.Background(), "Sales", cmp)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
	assert.True(t, strings.Contains(first, "cdn.example.com"))
}

func TestRevenueChartRendererTrend(t *testing.T) {
	renderer := NewRevenueChartRenderer(WithChartCache(nil), WithChartHeight("240px"))
	series := DailySeries([]SalesRecord{{Date: daysAgo(2), Amount: 42}}, frozenNow, 30)

	html, err := renderer.RenderTrend(context.Background(), "net_profit", series)
	require.NoError(t, err)
	assert.Contains(t, html, "Net Profit")
	assert.Contains(t, html, "240px")

	_, err = renderer.RenderTrend(context.Background(), "empty", nil)
	assert.Error(t, err)
}

func TestSeriesTitle(t *testing.T) {
	assert.Equal(t, "Previous Period", seriesTitle(SeriesPreviousPeriod))
}
