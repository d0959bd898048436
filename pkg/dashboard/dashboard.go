// Package dashboard re-exports the back-office services for hosts that embed them
// without importing components/dashboard directly.
package dashboard

import (
	core "github.com/goliatone/go-fundboard/components/dashboard"
	"github.com/goliatone/go-fundboard/pkg/api"
)

type (
	Admin            = core.Admin
	AdminOptions     = core.AdminOptions
	BannerSelector   = core.BannerSelector
	BannerOptions    = core.BannerOptions
	StatsService     = core.StatsService
	StatsOptions     = core.StatsOptions
	CheckoutVerifier = core.CheckoutVerifier
)

// NewAdmin proxies to the internal constructor.
func NewAdmin(opts AdminOptions) (*Admin, error) {
	return core.NewAdmin(opts)
}

// NewBannerSelector proxies to the internal constructor.
func NewBannerSelector(opts BannerOptions) (*BannerSelector, error) {
	return core.NewBannerSelector(opts)
}

// NewStatsService proxies to the internal constructor.
func NewStatsService(opts StatsOptions) (*StatsService, error) {
	return core.NewStatsService(opts)
}

// Services bundles every service backed by one API client.
type Services struct {
	Admin    *Admin
	Banner   *BannerSelector
	Stats    *StatsService
	Checkout *CheckoutVerifier
}

// NewServices wires the services against client with default options.
func NewServices(client api.Client) (*Services, error) {
	repos := api.NewRepositories(client)
	admin, err := core.NewAdmin(core.AdminOptions{Backend: repos})
	if err != nil {
		return nil, err
	}
	banner, err := core.NewBannerSelector(core.BannerOptions{Repository: repos, Catalog: repos})
	if err != nil {
		admin.Close()
		return nil, err
	}
	stats, err := core.NewStatsService(core.StatsOptions{Repository: repos})
	if err != nil {
		admin.Close()
		return nil, err
	}
	return &Services{
		Admin:    admin,
		Banner:   banner,
		Stats:    stats,
		Checkout: core.NewCheckoutVerifier(repos, nil, nil),
	}, nil
}

// Close stops pending debounced searches.
func (s *Services) Close() {
	if s != nil && s.Admin != nil {
		s.Admin.Close()
	}
}
