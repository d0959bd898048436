package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

type stubSummaryService struct {
	calls int
	last  dashboard.SummaryQuery
}

func (s *stubSummaryService) Summary(_ context.Context, query dashboard.SummaryQuery) (dashboard.DashboardSummary, error) {
	s.calls++
	s.last = query
	return dashboard.DashboardSummary{Range: query.Range}, nil
}

type stubBannerState struct {
	loads   int
	loaded  bool
	loadErr error
}

func (s *stubBannerState) Load(context.Context) error {
	s.loads++
	if s.loadErr != nil {
		return s.loadErr
	}
	s.loaded = true
	return nil
}

func (s *stubBannerState) Loaded() bool { return s.loaded }

func (s *stubBannerState) State() dashboard.BannerState {
	return dashboard.BannerState{Selected: []string{"p-1"}, Limit: dashboard.MaxBannerProjects}
}

type stubSearchService struct {
	kind  dashboard.EntityKind
	query string
}

func (s *stubSearchService) Search(_ context.Context, kind dashboard.EntityKind, query string) (dashboard.SearchResult, error) {
	s.kind, s.query = kind, query
	return dashboard.SearchResult{Kind: kind, Query: query}, nil
}

type stubCheckout struct{}

func (stubCheckout) Verify(_ context.Context, sessionID string) (dashboard.CheckoutConfirmation, error) {
	return dashboard.CheckoutConfirmation{SessionID: sessionID, PaymentStatus: "paid"}, nil
}

func TestDashboardSummaryQuery(t *testing.T) {
	service := &stubSummaryService{}
	query := NewDashboardSummaryQuery(service)
	summary, err := query.Query(context.Background(), dashboard.SummaryQuery{Range: dashboard.Range30Days})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 {
		t.Fatalf("expected 1 call, got %d", service.calls)
	}
	assert.Equal(t, dashboard.Range30Days, summary.Range)
}

func TestBannerStateQueryLoadsOnce(t *testing.T) {
	service := &stubBannerState{}
	query := NewBannerStateQuery(service)

	state, err := query.Query(context.Background(), BannerStateInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1"}, state.Selected)
	_, err = query.Query(context.Background(), BannerStateInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, service.loads)

	_, err = query.Query(context.Background(), BannerStateInput{Reload: true})
	require.NoError(t, err)
	assert.Equal(t, 2, service.loads)
}

func TestBannerStateQueryPropagatesLoadError(t *testing.T) {
	service := &stubBannerState{loadErr: errors.New("offline")}
	_, err := NewBannerStateQuery(service).Query(context.Background(), BannerStateInput{})
	assert.EqualError(t, err, "offline")
}

func TestSearchQuery(t *testing.T) {
	service := &stubSearchService{}
	result, err := NewSearchQuery(service).Query(context.Background(), SearchInput{Kind: dashboard.EntityVideos, Query: "coffee"})
	require.NoError(t, err)
	assert.Equal(t, dashboard.EntityVideos, service.kind)
	assert.Equal(t, "coffee", result.Query)
}

func TestVerifyCheckoutQuery(t *testing.T) {
	confirmation, err := NewVerifyCheckoutQuery(stubCheckout{}).Query(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.True(t, confirmation.Paid())
}
