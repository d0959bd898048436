package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

const (
	day = 24 * time.Hour

	// ComparisonWindow is the number of days in each half of a revenue comparison.
	ComparisonWindow = 7

	defaultLabelLayout = "Jan 2"
)

// SeriesPoint is one labelled value on a chart axis.
type SeriesPoint struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// RevenueComparison overlays the last seven days on the seven days before them.
// Previous[i] carries the same label as Current[i] so both lines share an x axis.
type RevenueComparison struct {
	Current       []SeriesPoint `json:"current"`
	Previous      []SeriesPoint `json:"previous"`
	CurrentTotal  float64       `json:"currentTotal"`
	PreviousTotal float64       `json:"previousTotal"`
	// PercentChange is nil when the previous window has no revenue.
	PercentChange *float64 `json:"percentChange,omitempty"`
	Currency      Currency `json:"currency"`
}

// StatsRange selects the trend window requested from the stats endpoint.
type StatsRange string

const (
	Range7Days  StatsRange = "7days"
	Range30Days StatsRange = "30days"
	Range90Days StatsRange = "90days"
)

// ErrInvalidRange is returned by ParseRange.
var ErrInvalidRange = errors.New("dashboard: invalid stats range")

// ParseRange resolves the query-string form of a stats range. Empty input maps to 7 days.
func ParseRange(value string) (StatsRange, error) {
	switch StatsRange(strings.ToLower(strings.TrimSpace(value))) {
	case "", Range7Days:
		return Range7Days, nil
	case Range30Days:
		return Range30Days, nil
	case Range90Days:
		return Range90Days, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRange, value)
}

// Days returns the number of daily buckets in the range.
func (r StatsRange) Days() int {
	switch r {
	case Range30Days:
		return 30
	case Range90Days:
		return 90
	default:
		return 7
	}
}

// LabelFormatter renders the x label for the day that is offset days before now.
type LabelFormatter func(t time.Time) string

// RevenueOption customizes CompareRevenue and DailySeries.
type RevenueOption func(*revenueConfig)

type revenueConfig struct {
	label    LabelFormatter
	currency Currency
}

// WithLabelLocale formats labels as localized month/day strings.
func WithLabelLocale(locale monday.Locale) RevenueOption {
	return func(cfg *revenueConfig) {
		cfg.label = localeLabel(locale)
	}
}

// WithLabelFormatter replaces label formatting entirely.
func WithLabelFormatter(fn LabelFormatter) RevenueOption {
	return func(cfg *revenueConfig) {
		if fn != nil {
			cfg.label = fn
		}
	}
}

// WithCurrency converts every amount from JPY before it is summed into totals.
func WithCurrency(c Currency) RevenueOption {
	return func(cfg *revenueConfig) {
		if c != "" {
			cfg.currency = c
		}
	}
}

func localeLabel(locale monday.Locale) LabelFormatter {
	return func(t time.Time) string {
		return monday.Format(t, defaultLabelLayout, locale)
	}
}

func newRevenueConfig(opts []RevenueOption) revenueConfig {
	cfg := revenueConfig{
		label:    localeLabel(monday.LocaleEnUS),
		currency: CurrencyJPY,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// CompareRevenue buckets records by whole days before now and returns the current and
// previous seven-day windows, oldest first. Records dated after now are ignored.
func CompareRevenue(records []SalesRecord, now time.Time, opts ...RevenueOption) RevenueComparison {
	cfg := newRevenueConfig(opts)
	sums := bucketByOffset(records, now, 2*ComparisonWindow)

	out := RevenueComparison{
		Current:  make([]SeriesPoint, ComparisonWindow),
		Previous: make([]SeriesPoint, ComparisonWindow),
		Currency: cfg.currency,
	}
	for i := 0; i < ComparisonWindow; i++ {
		offset := ComparisonWindow - 1 - i
		label := cfg.label(now.Add(-time.Duration(offset) * day))
		current := ConvertToCurrency(sums[offset], cfg.currency)
		previous := ConvertToCurrency(sums[offset+ComparisonWindow], cfg.currency)
		out.Current[i] = SeriesPoint{X: label, Y: current}
		out.Previous[i] = SeriesPoint{X: label, Y: previous}
		out.CurrentTotal += current
		out.PreviousTotal += previous
	}
	out.PercentChange = PercentChange(out.CurrentTotal, out.PreviousTotal)
	return out
}

// PercentChange returns (current-previous)/previous*100, or nil when previous is zero.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	change := (current - previous) / previous * 100
	return &change
}

// DailySeries windows records into days daily points ending today, oldest first.
func DailySeries(records []SalesRecord, now time.Time, days int, opts ...RevenueOption) []SeriesPoint {
	if days <= 0 {
		return []SeriesPoint{}
	}
	cfg := newRevenueConfig(opts)
	sums := bucketByOffset(records, now, days)
	out := make([]SeriesPoint, days)
	for i := 0; i < days; i++ {
		offset := days - 1 - i
		out[i] = SeriesPoint{
			X: cfg.label(now.Add(-time.Duration(offset) * day)),
			Y: ConvertToCurrency(sums[offset], cfg.currency),
		}
	}
	return out
}

// SumSeries totals the y values of a series.
func SumSeries(points []SeriesPoint) float64 {
	var total float64
	for _, p := range points {
		total += p.Y
	}
	return total
}

// bucketByOffset sums amounts by floor((now-date)/24h) for offsets [0, n).
func bucketByOffset(records []SalesRecord, now time.Time, n int) []float64 {
	sums := make([]float64, n)
	for _, record := range records {
		elapsed := now.Sub(record.Date)
		if elapsed < 0 {
			continue
		}
		offset := int(elapsed / day)
		if offset >= n {
			continue
		}
		sums[offset] += record.Amount
	}
	return sums
}
