package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

type summaryService interface {
	Summary(ctx context.Context, query dashboard.SummaryQuery) (dashboard.DashboardSummary, error)
}

// DashboardSummaryQuery resolves the stats cards and revenue comparisons.
type DashboardSummaryQuery struct {
	service summaryService
}

// NewDashboardSummaryQuery builds the query.
func NewDashboardSummaryQuery(service summaryService) *DashboardSummaryQuery {
	return &DashboardSummaryQuery{service: service}
}

var _ gocommand.Querier[dashboard.SummaryQuery, dashboard.DashboardSummary] = (*DashboardSummaryQuery)(nil)

// Query fetches stats for the requested range and currency.
func (q *DashboardSummaryQuery) Query(ctx context.Context, query dashboard.SummaryQuery) (dashboard.DashboardSummary, error) {
	return q.service.Summary(ctx, query)
}
