// Package httpapi mounts the back-office endpoints on a fiber app.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	gocommand "github.com/goliatone/go-command"
	"go.uber.org/zap"

	"github.com/goliatone/go-fundboard/components/dashboard"
	"github.com/goliatone/go-fundboard/components/dashboard/commands"
	"github.com/goliatone/go-fundboard/components/dashboard/queries"
)

// ChartRenderer draws revenue comparisons as embeddable HTML.
type ChartRenderer interface {
	Render(ctx context.Context, title string, cmp dashboard.RevenueComparison) (string, error)
}

// Handlers are the commands and queries behind the routes. Nil members leave their
// routes unmounted.
type Handlers struct {
	Summary      gocommand.Querier[dashboard.SummaryQuery, dashboard.DashboardSummary]
	BannerState  gocommand.Querier[queries.BannerStateInput, dashboard.BannerState]
	Search       gocommand.Querier[queries.SearchInput, dashboard.SearchResult]
	Checkout     gocommand.Querier[string, dashboard.CheckoutConfirmation]
	ToggleBanner gocommand.Commander[commands.ToggleBannerInput]
	SaveBanner   gocommand.Commander[commands.SaveBannerInput]
	UpdateStatus gocommand.Commander[commands.UpdateStatusInput]
	Delete       gocommand.Commander[commands.DeleteEntityInput]
	Publish      gocommand.Commander[commands.PublishProjectInput]
	Charts       ChartRenderer
}

// Config wires Handlers onto a fiber app.
type Config struct {
	App      *fiber.App
	Handlers Handlers
	// BasePath prefixes the admin routes. Defaults to /admin.
	BasePath string
	// Guard runs before every admin route, e.g. to require an admin session.
	Guard  fiber.Handler
	Logger *zap.Logger
}

// Register mounts the routes. Static admin paths are registered before the
// /:kind catch-alls so they take precedence.
func Register(cfg Config) error {
	if cfg.App == nil {
		return errors.New("httpapi: app is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := cfg.Handlers
	r := &routes{h: h, logger: logger}

	cfg.App.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if h.Checkout != nil {
		cfg.App.Post("/checkout/verify", r.verifyCheckout)
	}

	group := cfg.App.Group(base)
	if cfg.Guard != nil {
		group.Use(cfg.Guard)
	}
	if h.Summary != nil {
		group.Get("/dashboard/summary", r.summary)
		if h.Charts != nil {
			group.Get("/dashboard/chart", r.chart)
		}
	}
	if h.BannerState != nil {
		group.Get("/banner", r.bannerState)
	}
	if h.ToggleBanner != nil {
		group.Post("/banner/toggle", r.toggleBanner)
	}
	if h.SaveBanner != nil {
		group.Post("/banner/save", r.saveBanner)
	}
	if h.Publish != nil {
		group.Post("/projects/:id/publish", r.publish)
	}
	if h.Search != nil {
		group.Get("/:kind", r.search)
	}
	if h.UpdateStatus != nil {
		group.Patch("/:kind/:id/status", r.updateStatus)
	}
	if h.Delete != nil {
		group.Delete("/:kind/:id", r.delete)
	}
	return nil
}

type routes struct {
	h      Handlers
	logger *zap.Logger
}

func (r *routes) summaryQuery(c *fiber.Ctx) (dashboard.SummaryQuery, error) {
	rng, err := dashboard.ParseRange(c.Query("range"))
	if err != nil {
		return dashboard.SummaryQuery{}, &dashboard.ValidationError{Field: "range", Message: err.Error()}
	}
	query := dashboard.SummaryQuery{Range: rng}
	if code := c.Query("currency"); code != "" {
		currency, err := dashboard.ParseCurrency(code)
		if err != nil {
			return dashboard.SummaryQuery{}, &dashboard.ValidationError{Field: "currency", Message: err.Error()}
		}
		query.Currency = currency
	}
	return query, nil
}

func (r *routes) summary(c *fiber.Ctx) error {
	query, err := r.summaryQuery(c)
	if err != nil {
		return r.fail(c, err)
	}
	summary, err := r.h.Summary.Query(c.UserContext(), query)
	if err != nil {
		return r.fail(c, err)
	}
	return c.JSON(summary)
}

// chart renders ?series=sales (default) or purchases.
func (r *routes) chart(c *fiber.Ctx) error {
	query, err := r.summaryQuery(c)
	if err != nil {
		return r.fail(c, err)
	}
	summary, err := r.h.Summary.Query(c.UserContext(), query)
	if err != nil {
		return r.fail(c, err)
	}
	title, cmp := "Sales", summary.Sales
	switch strings.ToLower(c.Query("series", "sales")) {
	case "sales":
	case "purchases":
		title, cmp = "Purchases", summary.Purchases
	default:
		return r.fail(c, &dashboard.ValidationError{Field: "series", Message: "series must be sales or purchases"})
	}
	html, err := r.h.Charts.Render(c.UserContext(), title, cmp)
	if err != nil {
		return r.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func (r *routes) bannerState(c *fiber.Ctx) error {
	reload, _ := strconv.ParseBool(c.Query("reload"))
	state, err := r.h.BannerState.Query(c.UserContext(), queries.BannerStateInput{Reload: reload})
	if err != nil {
		return r.fail(c, err)
	}
	return c.JSON(state)
}

func (r *routes) toggleBanner(c *fiber.Ctx) error {
	var payload struct {
		ProjectID string `json:"projectId"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return r.fail(c, &dashboard.ValidationError{Field: "body", Message: err.Error()})
	}
	if err := r.h.ToggleBanner.Execute(c.UserContext(), commands.ToggleBannerInput{ProjectID: payload.ProjectID}); err != nil {
		return r.fail(c, err)
	}
	return r.afterBannerChange(c)
}

func (r *routes) saveBanner(c *fiber.Ctx) error {
	if err := r.h.SaveBanner.Execute(c.UserContext(), commands.SaveBannerInput{}); err != nil {
		return r.fail(c, err)
	}
	return r.afterBannerChange(c)
}

func (r *routes) afterBannerChange(c *fiber.Ctx) error {
	if r.h.BannerState == nil {
		return c.SendStatus(http.StatusNoContent)
	}
	state, err := r.h.BannerState.Query(c.UserContext(), queries.BannerStateInput{})
	if err != nil {
		return r.fail(c, err)
	}
	return c.JSON(state)
}

func (r *routes) search(c *fiber.Ctx) error {
	kind, err := dashboard.ParseEntityKind(c.Params("kind"))
	if err != nil {
		return r.fail(c, err)
	}
	result, err := r.h.Search.Query(c.UserContext(), queries.SearchInput{Kind: kind, Query: c.Query("search")})
	if err != nil {
		return r.fail(c, err)
	}
	return c.JSON(result)
}

func (r *routes) updateStatus(c *fiber.Ctx) error {
	kind, err := dashboard.ParseEntityKind(c.Params("kind"))
	if err != nil {
		return r.fail(c, err)
	}
	var payload struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&payload); err != nil || strings.TrimSpace(payload.Value) == "" {
		return r.fail(c, &dashboard.ValidationError{Field: "value", Message: "value is required"})
	}
	input := commands.UpdateStatusInput{Kind: kind, ID: c.Params("id"), Value: payload.Value}
	if err := r.h.UpdateStatus.Execute(c.UserContext(), input); err != nil {
		return r.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// delete requires ?confirm=true; the prompt happens in the calling UI.
func (r *routes) delete(c *fiber.Ctx) error {
	kind, err := dashboard.ParseEntityKind(c.Params("kind"))
	if err != nil {
		return r.fail(c, err)
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	input := commands.DeleteEntityInput{Kind: kind, ID: c.Params("id"), Confirmed: confirmed}
	if err := r.h.Delete.Execute(c.UserContext(), input); err != nil {
		return r.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (r *routes) publish(c *fiber.Ctx) error {
	if err := r.h.Publish.Execute(c.UserContext(), commands.PublishProjectInput{ProjectID: c.Params("id")}); err != nil {
		return r.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (r *routes) verifyCheckout(c *fiber.Ctx) error {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return r.fail(c, &dashboard.ValidationError{Field: "body", Message: err.Error()})
	}
	confirmation, err := r.h.Checkout.Query(c.UserContext(), payload.SessionID)
	if err != nil {
		return r.fail(c, err)
	}
	return c.JSON(confirmation)
}

func (r *routes) fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	kind := dashboard.KindOf(err)
	if status >= http.StatusInternalServerError {
		r.logger.Warn("request failed",
			zap.String("method", c.Method()), zap.String("path", c.Path()),
			zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": dashboard.UserMessage(err),
		"kind":  string(kind),
	})
}

// StatusFor maps an error to the HTTP status returned to the caller.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrDeleteCancelled):
		return http.StatusPreconditionRequired
	case errors.Is(err, dashboard.ErrBannerLimitReached), errors.Is(err, dashboard.ErrRowBusy):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrNotConfigured):
		return http.StatusNotImplemented
	}
	switch dashboard.KindOf(err) {
	case dashboard.KindValidation:
		return http.StatusBadRequest
	case dashboard.KindNotFound:
		return http.StatusNotFound
	case dashboard.KindCancelled:
		return http.StatusRequestTimeout
	case dashboard.KindClient:
		var apiErr *dashboard.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Status
		}
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
