package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fundboard/components/dashboard"
	"github.com/goliatone/go-fundboard/components/dashboard/commands"
	"github.com/goliatone/go-fundboard/components/dashboard/queries"
	"github.com/goliatone/go-fundboard/pkg/api"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(_ context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier[T, R any] struct {
	last  T
	calls int
	resp  R
	err   error
}

func (s *stubQuerier[T, R]) Query(_ context.Context, msg T) (R, error) {
	s.last = msg
	s.calls++
	return s.resp, s.err
}

func newApp(t *testing.T, h Handlers) *fiber.App {
	t.Helper()
	app := fiber.New()
	if err := Register(Config{App: app, Handlers: h}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterRequiresApp(t *testing.T) {
	assert.Error(t, Register(Config{}))
}

func TestHealthz(t *testing.T) {
	resp := do(t, newApp(t, Handlers{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSummaryParsesRangeAndCurrency(t *testing.T) {
	summary := &stubQuerier[dashboard.SummaryQuery, dashboard.DashboardSummary]{
		resp: dashboard.DashboardSummary{Range: dashboard.Range30Days, Supporters: 7},
	}
	app := newApp(t, Handlers{Summary: summary})

	resp := do(t, app, http.MethodGet, "/admin/dashboard/summary?range=30days&currency=USD", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dashboard.DashboardSummary](t, resp)
	assert.Equal(t, 7, body.Supporters)
	assert.Equal(t, dashboard.Range30Days, summary.last.Range)
	assert.Equal(t, dashboard.CurrencyUSD, summary.last.Currency)

	resp = do(t, app, http.MethodGet, "/admin/dashboard/summary?range=1year", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, app, http.MethodGet, "/admin/dashboard/summary?currency=eur", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, summary.calls)
}

func TestToggleBannerLimitIsConflict(t *testing.T) {
	toggle := &stubCommander[commands.ToggleBannerInput]{err: dashboard.ErrBannerLimitReached}
	app := newApp(t, Handlers{ToggleBanner: toggle})

	resp := do(t, app, http.MethodPost, "/admin/banner/toggle", `{"projectId":"p-6"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "p-6", toggle.last.ProjectID)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, string(dashboard.KindClient), body["kind"])
	assert.NotEmpty(t, body["error"])
}

func TestUpdateStatusRoutesKind(t *testing.T) {
	update := &stubCommander[commands.UpdateStatusInput]{}
	app := newApp(t, Handlers{UpdateStatus: update})

	resp := do(t, app, http.MethodPatch, "/admin/videos/v-1/status", `{"value":"hidden"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, commands.UpdateStatusInput{Kind: dashboard.EntityVideos, ID: "v-1", Value: "hidden"}, update.last)

	resp = do(t, app, http.MethodPatch, "/admin/orders/o-1/status", `{"value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, app, http.MethodPatch, "/admin/videos/v-1/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, update.calls)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	del := &stubCommander[commands.DeleteEntityInput]{err: dashboard.ErrDeleteCancelled}
	app := newApp(t, Handlers{Delete: del})

	resp := do(t, app, http.MethodDelete, "/admin/projects/p-1", "")
	assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	assert.False(t, del.last.Confirmed)

	del.err = nil
	resp = do(t, app, http.MethodDelete, "/admin/projects/p-1?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, del.last.Confirmed)
}

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"validation": {&dashboard.ValidationError{Field: "x"}, http.StatusBadRequest},
		"not found":  {&dashboard.APIError{Status: 404}, http.StatusNotFound},
		"forbidden":  {&dashboard.APIError{Status: 403}, http.StatusForbidden},
		"upstream":   {&dashboard.APIError{Status: 500}, http.StatusBadGateway},
		"network":    {errors.New("dial tcp: refused"), http.StatusBadGateway},
		"busy":       {dashboard.ErrRowBusy, http.StatusConflict},
		"no status":  {dashboard.ErrNotConfigured, http.StatusNotImplemented},
		"timeout":    {context.DeadlineExceeded, http.StatusRequestTimeout},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func TestGuardRunsBeforeAdminRoutes(t *testing.T) {
	search := &stubQuerier[queries.SearchInput, dashboard.SearchResult]{}
	app := fiber.New()
	require.NoError(t, Register(Config{
		App:      app,
		Handlers: Handlers{Search: search},
		Guard: func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusUnauthorized)
		},
	}))

	resp := do(t, app, http.MethodGet, "/admin/projects", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, search.calls)
	resp = do(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndToEndOverMockBackend(t *testing.T) {
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	mock := api.NewMockClient(api.DemoData(now))
	repos := api.NewRepositories(mock)

	admin, err := dashboard.NewAdmin(dashboard.AdminOptions{Backend: repos, Retry: dashboard.NoRetry()})
	require.NoError(t, err)
	t.Cleanup(admin.Close)
	banner, err := dashboard.NewBannerSelector(dashboard.BannerOptions{Repository: repos, Catalog: repos, Retry: dashboard.NoRetry()})
	require.NoError(t, err)
	stats, err := dashboard.NewStatsService(dashboard.StatsOptions{Repository: repos, Clock: func() time.Time { return now }})
	require.NoError(t, err)

	app := newApp(t, Handlers{
		Summary:      queries.NewDashboardSummaryQuery(stats),
		BannerState:  queries.NewBannerStateQuery(banner),
		Search:       queries.NewSearchQuery(admin),
		ToggleBanner: commands.NewToggleBannerCommand(banner, nil),
		SaveBanner:   commands.NewSaveBannerCommand(banner, nil),
		UpdateStatus: commands.NewUpdateStatusCommand(admin, nil),
		Delete:       commands.NewDeleteEntityCommand(admin, nil),
		Publish:      commands.NewPublishProjectCommand(admin, nil),
		Charts:       dashboard.NewRevenueChartRenderer(),
	})

	state := decode[dashboard.BannerState](t, do(t, app, http.MethodGet, "/admin/banner", ""))
	assert.Equal(t, []string{"p-1", "p-4"}, state.Selected)

	state = decode[dashboard.BannerState](t, do(t, app, http.MethodPost, "/admin/banner/toggle", `{"projectId":"p-6"}`))
	assert.Equal(t, []string{"p-1", "p-4", "p-6"}, state.Selected)
	resp := do(t, app, http.MethodPost, "/admin/banner/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"p-1", "p-4", "p-6"}, mock.Snapshot().BannerIDs)

	result := decode[map[string]any](t, do(t, app, http.MethodGet, "/admin/contacts", ""))
	assert.EqualValues(t, 3, result["count"])

	resp = do(t, app, http.MethodPost, "/admin/projects/p-3/publish", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, app, http.MethodPost, "/admin/projects/p-3/publish", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/admin/dashboard/chart?series=purchases", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	html, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(html), "Purchases")
}

func newBannerApp(t *testing.T) (*fiber.App, *api.MockClient) {
	t.Helper()
	mock := api.NewMockClient(api.DemoData(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)))
	repos := api.NewRepositories(mock)
	banner, err := dashboard.NewBannerSelector(dashboard.BannerOptions{Repository: repos, Catalog: repos, Retry: dashboard.NoRetry()})
	require.NoError(t, err)
	return newApp(t, Handlers{
		BannerState:  queries.NewBannerStateQuery(banner),
		ToggleBanner: commands.NewToggleBannerCommand(banner, nil),
		SaveBanner:   commands.NewSaveBannerCommand(banner, nil),
	}), mock
}

func TestFirstBannerSaveKeepsServerBanner(t *testing.T) {
	app, mock := newBannerApp(t)

	resp := do(t, app, http.MethodPost, "/admin/banner/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, []string{"p-1", "p-4"}, mock.Snapshot().BannerIDs)
}

func TestFirstBannerToggleAppliesToServerBanner(t *testing.T) {
	app, mock := newBannerApp(t)

	resp := do(t, app, http.MethodPost, "/admin/banner/toggle", `{"projectId":"p-6"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[dashboard.BannerState](t, resp)
	assert.Equal(t, []string{"p-1", "p-4", "p-6"}, state.Selected)

	resp = do(t, app, http.MethodPost, "/admin/banner/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, []string{"p-1", "p-4", "p-6"}, mock.Snapshot().BannerIDs)
}
