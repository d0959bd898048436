package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-fundboard/components/dashboard"
)

type statsCmd struct {
	Range    string `default:"7days" enum:"7days,30days,90days" help:"Stats range (7days, 30days, 90days)."`
	Currency string `help:"Display currency (jpy, usd). Defaults to the configured currency."`
	Chart    string `type:"path" help:"Write the sales comparison chart as HTML to this file."`
}

func (c *statsCmd) Run(rt *runtime) error {
	repos, err := rt.repositories()
	if err != nil {
		return err
	}
	currency, err := rt.currency()
	if err != nil {
		return err
	}
	if c.Currency != "" {
		if currency, err = dashboard.ParseCurrency(c.Currency); err != nil {
			return err
		}
	}
	rng, err := dashboard.ParseRange(c.Range)
	if err != nil {
		return err
	}
	service, err := dashboard.NewStatsService(dashboard.StatsOptions{
		Repository: repos,
		Locale:     rt.locale(),
		Currency:   currency,
		Logger:     rt.logger,
		Telemetry:  rt.telemetry(),
	})
	if err != nil {
		return err
	}
	summary, err := service.Summary(rt.ctx, dashboard.SummaryQuery{Range: rng, Currency: currency})
	if err != nil {
		return err
	}

	if c.Chart != "" {
		html, err := dashboard.NewRevenueChartRenderer().Render(rt.ctx, "Sales", summary.Sales)
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.Chart, []byte(html), 0o644); err != nil {
			return fmt.Errorf("fundctl: write chart: %w", err)
		}
	}

	return rt.print(summary, func() table {
		t := table{columns: []string{"metric", "value", "change"}}
		for _, card := range summary.Cards {
			t.add(card.Label, card.Display, orDash(card.Badge))
		}
		t.add("購入額", dashboard.FormatCurrency(summary.Purchases.CurrentTotal, currency), orDash(summary.PurchaseBadge))
		return t
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
