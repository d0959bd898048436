package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ettle/strcase"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

// Series names used in revenue charts.
const (
	SeriesCurrentPeriod  = "current_period"
	SeriesPreviousPeriod = "previous_period"
)

// RevenueChartRenderer renders dashboard charts as embeddable go-echarts HTML.
type RevenueChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	height     string
}

// ChartOption customizes a RevenueChartRenderer.
type ChartOption func(*RevenueChartRenderer)

// WithChartCache injects a render cache. Nil disables caching.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *RevenueChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the echarts theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(r *RevenueChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost loads the echarts script from a CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *RevenueChartRenderer) {
		r.assetsHost = host
	}
}

// WithChartHeight overrides the chart height.
func WithChartHeight(height string) ChartOption {
	return func(r *RevenueChartRenderer) {
		if height != "" {
			r.height = height
		}
	}
}

// NewRevenueChartRenderer builds a renderer.
func NewRevenueChartRenderer(options ...ChartOption) *RevenueChartRenderer {
	r := &RevenueChartRenderer{
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render draws the current and previous windows as two lines on a shared axis.
func (r *RevenueChartRenderer) Render(ctx context.Context, title string, cmp RevenueComparison) (string, error) {
	if len(cmp.Current) == 0 {
		return "", fmt.Errorf("dashboard: revenue chart %q: empty series", title)
	}
	key := fmt.Sprintf("revenue:%s:%s:%s", title, r.theme, chartFingerprint(cmp))
	return r.cached(ctx, key, func() (string, error) {
		line := charts.NewLine()
		line.SetGlobalOptions(r.globalOptions(title, PercentBadge(cmp.PercentChange))...)
		line.SetXAxis(seriesLabels(cmp.Current))
		line.AddSeries(seriesTitle(SeriesCurrentPeriod), toLineData(cmp.Current))
		line.AddSeries(seriesTitle(SeriesPreviousPeriod), toLineData(cmp.Previous))
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	})
}

// RenderTrend draws a daily series as a bar chart.
func (r *RevenueChartRenderer) RenderTrend(ctx context.Context, title string, points []SeriesPoint) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("dashboard: trend chart %q: empty series", title)
	}
	key := fmt.Sprintf("trend:%s:%s:%s", title, r.theme, chartFingerprint(points))
	return r.cached(ctx, key, func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(title, "")...)
		bar.SetXAxis(seriesLabels(points))
		bar.AddSeries(seriesTitle(title), toBarData(points))
		return renderChart(bar)
	})
}

func (r *RevenueChartRenderer) cached(ctx context.Context, key string, render func() (string, error)) (string, error) {
	if r.cache == nil {
		return render()
	}
	return r.cache.GetOrRender(ctx, key, render)
}

func (r *RevenueChartRenderer) globalOptions(title, subtitle string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// seriesTitle turns identifiers like "current_period" into legend titles.
func seriesTitle(name string) string {
	return strcase.ToCase(name, strcase.TitleCase, ' ')
}

func seriesLabels(points []SeriesPoint) []string {
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.X
	}
	return labels
}

func toLineData(points []SeriesPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		data[i] = opts.LineData{Name: p.X, Value: p.Y}
	}
	return data
}

func toBarData(points []SeriesPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, p := range points {
		data[i] = opts.BarData{Name: p.X, Value: p.Y}
	}
	return data
}
