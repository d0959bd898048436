package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// SearchInput names the admin list and the free-text query.
type SearchInput struct {
	Kind  dashboard.EntityKind
	Query string
}

type searchService interface {
	Search(ctx context.Context, kind dashboard.EntityKind, query string) (dashboard.SearchResult, error)
}

// SearchQuery loads an admin list immediately, without debouncing.
type SearchQuery struct {
	service searchService
}

// NewSearchQuery builds the query.
func NewSearchQuery(service searchService) *SearchQuery {
	return &SearchQuery{service: service}
}

var _ gocommand.Querier[SearchInput, dashboard.SearchResult] = (*SearchQuery)(nil)

func (q *SearchQuery) Query(ctx context.Context, input SearchInput) (dashboard.SearchResult, error) {
	return q.service.Search(ctx, input.Kind, input.Query)
}
