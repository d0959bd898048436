package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/goodsign/monday"
	"go.uber.org/zap"
)

// SummaryQuery selects the range, display currency and reference time of a summary.
type SummaryQuery struct {
	Range    StatsRange
	Currency Currency
	// Now defaults to the service clock.
	Now time.Time
}

// MetricCard is one headline figure on the dashboard.
type MetricCard struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Value   float64  `json:"value"`
	Display string   `json:"display"`
	Change  *float64 `json:"change,omitempty"`
	Badge   string   `json:"badge,omitempty"`
}

// DashboardSummary is the display-ready dashboard payload.
type DashboardSummary struct {
	Range         StatsRange        `json:"range"`
	Currency      Currency          `json:"currency"`
	GeneratedAt   time.Time         `json:"generatedAt"`
	Sales         RevenueComparison `json:"sales"`
	Purchases     RevenueComparison `json:"purchases"`
	NetProfit     []SeriesPoint     `json:"netProfit"`
	Videos        []SeriesPoint     `json:"videos"`
	Crowdfunding  []SeriesPoint     `json:"crowdfunding"`
	Cards         []MetricCard      `json:"cards"`
	Supporters    int               `json:"supporters"`
	SalesBadge    string            `json:"salesBadge,omitempty"`
	PurchaseBadge string            `json:"purchaseBadge,omitempty"`
}

// StatsOptions configures a StatsService.
type StatsOptions struct {
	Repository StatsRepository
	Locale     monday.Locale
	Currency   Currency
	Clock      func() time.Time
	Retry      RetryPolicy
	Logger     *zap.Logger
	Telemetry  Telemetry
}

// StatsService turns backend stats into dashboard summaries.
type StatsService struct {
	repo      StatsRepository
	locale    monday.Locale
	currency  Currency
	clock     func() time.Time
	retry     RetryPolicy
	logger    *zap.Logger
	telemetry Telemetry
}

// NewStatsService builds a service with safe defaults.
func NewStatsService(opts StatsOptions) (*StatsService, error) {
	if opts.Repository == nil {
		return nil, fmt.Errorf("dashboard: stats service: repository is required")
	}
	if opts.Locale == "" {
		opts.Locale = monday.LocaleEnUS
	}
	if opts.Currency == "" {
		opts.Currency = CurrencyJPY
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	return &StatsService{
		repo:      opts.Repository,
		locale:    opts.Locale,
		currency:  opts.Currency,
		clock:     opts.Clock,
		retry:     opts.Retry,
		logger:    normalizeLogger(opts.Logger),
		telemetry: normalizeTelemetry(opts.Telemetry),
	}, nil
}

// Summary fetches stats for the range and builds comparisons, trends and cards.
func (s *StatsService) Summary(ctx context.Context, query SummaryQuery) (DashboardSummary, error) {
	if query.Range == "" {
		query.Range = Range7Days
	}
	if query.Currency == "" {
		query.Currency = s.currency
	}
	if query.Now.IsZero() {
		query.Now = s.clock()
	}

	stats, err := Retry(ctx, s.retry, func(ctx context.Context) (DashboardStats, error) {
		return s.repo.FetchDashboardStats(ctx, query.Range)
	})
	if err != nil {
		s.logger.Warn("fetch dashboard stats failed", zap.String("range", string(query.Range)), zap.Error(err))
		return DashboardSummary{}, fmt.Errorf("dashboard: fetch stats: %w", err)
	}

	summary := BuildSummary(stats, query, s.locale)
	s.telemetry.Record(ctx, "dashboard.summary", map[string]any{
		"range":    string(query.Range),
		"currency": string(query.Currency),
	})
	return summary, nil
}

// BuildSummary is the pure part of Summary.
func BuildSummary(stats DashboardStats, query SummaryQuery, locale monday.Locale) DashboardSummary {
	opts := []RevenueOption{WithLabelLocale(locale), WithCurrency(query.Currency)}
	days := query.Range.Days()

	summary := DashboardSummary{
		Range:        query.Range,
		Currency:     query.Currency,
		GeneratedAt:  query.Now,
		Sales:        CompareRevenue(stats.SalesData, query.Now, opts...),
		Purchases:    CompareRevenue(stats.PurchaseData, query.Now, opts...),
		NetProfit:    DailySeries(stats.NetProfit, query.Now, days, opts...),
		Videos:       DailySeries(stats.VideoPurchases, query.Now, days, opts...),
		Crowdfunding: DailySeries(stats.CrowdfundingPurchases, query.Now, days, opts...),
		Supporters:   stats.TotalSupporters,
	}
	summary.SalesBadge = PercentBadge(summary.Sales.PercentChange)
	summary.PurchaseBadge = PercentBadge(summary.Purchases.PercentChange)

	money := func(key, label string, jpy float64) MetricCard {
		value := ConvertToCurrency(jpy, query.Currency)
		return MetricCard{Key: key, Label: label, Value: value, Display: FormatCurrency(value, query.Currency)}
	}
	sales := MetricCard{
		Key:     "weekly_sales",
		Label:   "週間売上",
		Value:   summary.Sales.CurrentTotal,
		Display: FormatCurrency(summary.Sales.CurrentTotal, query.Currency),
		Change:  summary.Sales.PercentChange,
		Badge:   summary.SalesBadge,
	}
	summary.Cards = []MetricCard{
		sales,
		money("net_profit", "純利益", stats.OverallNetProfit),
		money("sold_videos", "動画販売額", stats.SoldVideosAmount),
		money("crowdfunding", "クラウドファンディング", stats.CrowdfundingAmount),
		{
			Key:     "supporters",
			Label:   "支援者数",
			Value:   float64(stats.TotalSupporters),
			Display: fmt.Sprintf("%d", stats.TotalSupporters),
		},
	}
	return summary
}

// PercentBadge renders a signed one-decimal percentage, or "" when the change is
// omitted because the previous window was empty.
func PercentBadge(change *float64) string {
	if change == nil {
		return ""
	}
	if *change >= 0 {
		return fmt.Sprintf("+%.1f%%", *change)
	}
	return fmt.Sprintf("%.1f%%", *change)
}
