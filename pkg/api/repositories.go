package api

import (
	"context"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// Repositories adapts a Client into the dashboard repository interfaces.
type Repositories struct {
	client Client
}

var (
	_ dashboard.AdminBackend       = (*Repositories)(nil)
	_ dashboard.BannerRepository   = (*Repositories)(nil)
	_ dashboard.StatsRepository    = (*Repositories)(nil)
	_ dashboard.CheckoutRepository = (*Repositories)(nil)
)

// NewRepositories wraps client.
func NewRepositories(client Client) *Repositories {
	return &Repositories{client: client}
}

// FetchDashboardStats implements dashboard.StatsRepository.
func (r *Repositories) FetchDashboardStats(ctx context.Context, rng dashboard.StatsRange) (dashboard.DashboardStats, error) {
	return r.client.FetchStats(ctx, rng)
}

// FetchBannerProjects implements dashboard.BannerRepository.
func (r *Repositories) FetchBannerProjects(ctx context.Context) ([]dashboard.Project, error) {
	return r.client.ListBannerProjects(ctx)
}

// SaveBannerProjects implements dashboard.BannerRepository.
func (r *Repositories) SaveBannerProjects(ctx context.Context, projectIDs []string) error {
	_, err := r.client.SetBannerProjects(ctx, projectIDs)
	return err
}

// ListProjects searches remotely and filters by status locally; the backend has
// no status filter.
func (r *Repositories) ListProjects(ctx context.Context, query dashboard.ProjectQuery) ([]dashboard.Project, error) {
	projects, err := r.client.ListProjects(ctx, query.Search)
	if err != nil {
		return nil, err
	}
	if query.Status == "" {
		return projects, nil
	}
	out := make([]dashboard.Project, 0, len(projects))
	for _, p := range projects {
		if p.Status == query.Status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repositories) ListVideos(ctx context.Context, search string) ([]dashboard.Video, error) {
	return r.client.ListVideos(ctx, search)
}

func (r *Repositories) ListPayments(ctx context.Context, search string) ([]dashboard.Payment, error) {
	return r.client.ListPayments(ctx, search)
}

func (r *Repositories) ListContacts(ctx context.Context, search string) ([]dashboard.Contact, error) {
	return r.client.ListContacts(ctx, search)
}

// UpdateProjectStatus patches only the status field.
func (r *Repositories) UpdateProjectStatus(ctx context.Context, id string, status dashboard.ProjectStatus) error {
	_, err := r.client.UpdateProject(ctx, id, ProjectUpdate{Status: &status})
	return err
}

func (r *Repositories) PublishProject(ctx context.Context, id string) error {
	_, err := r.client.PublishProject(ctx, id)
	return err
}

// SetVideoVisibility patches only the visibility flag.
func (r *Repositories) SetVideoVisibility(ctx context.Context, id string, visible bool) error {
	_, err := r.client.UpdateVideo(ctx, id, VideoUpdate{IsVisible: &visible})
	return err
}

func (r *Repositories) DeleteProject(ctx context.Context, id string) error {
	return r.client.DeleteProject(ctx, id)
}

func (r *Repositories) DeleteVideo(ctx context.Context, id string) error {
	return r.client.DeleteVideo(ctx, id)
}

// VerifyCheckoutSession implements dashboard.CheckoutRepository.
func (r *Repositories) VerifyCheckoutSession(ctx context.Context, sessionID string) (dashboard.CheckoutConfirmation, error) {
	return r.client.VerifyCheckout(ctx, sessionID)
}
