package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// BannerStateInput controls whether the selector reloads from the server first.
// The first query always loads.
type BannerStateInput struct {
	Reload bool
}

type bannerStateService interface {
	Load(ctx context.Context) error
	Loaded() bool
	State() dashboard.BannerState
}

// BannerStateQuery returns the pending banner selection and the catalog.
type BannerStateQuery struct {
	service bannerStateService
}

// NewBannerStateQuery builds the query.
func NewBannerStateQuery(service bannerStateService) *BannerStateQuery {
	return &BannerStateQuery{service: service}
}

var _ gocommand.Querier[BannerStateInput, dashboard.BannerState] = (*BannerStateQuery)(nil)

func (q *BannerStateQuery) Query(ctx context.Context, input BannerStateInput) (dashboard.BannerState, error) {
	if input.Reload || !q.service.Loaded() {
		if err := q.service.Load(ctx); err != nil {
			return dashboard.BannerState{}, err
		}
	}
	return q.service.State(), nil
}
