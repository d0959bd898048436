package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-fundboard/components/dashboard"
	"github.com/goliatone/go-fundboard/components/dashboard/commands"
	"github.com/goliatone/go-fundboard/components/dashboard/httpapi"
	"github.com/goliatone/go-fundboard/components/dashboard/queries"
	"github.com/goliatone/go-fundboard/pkg/api"
	"github.com/goliatone/go-fundboard/pkg/api/apitest"
	"github.com/goliatone/go-fundboard/pkg/cache"
)

const shutdownTimeout = 5 * time.Second

type serveCmd struct {
	Listen   string `help:"Listen address. Defaults to the configured server.listen."`
	Insecure bool   `help:"Serve admin routes without requiring an administrator session."`
}

func (c *serveCmd) Run(rt *runtime) error {
	handler, cleanup, err := newServerHandler(rt, !c.Insecure)
	if err != nil {
		return err
	}
	defer cleanup()
	addr := c.Listen
	if addr == "" {
		addr = rt.cfg.ListenAddr
	}
	return serveHTTP(rt.ctx, addr, handler, rt.logger)
}

// newServerHandler wires the back-office services behind the fiber API and mounts
// the notification streams next to it.
func newServerHandler(rt *runtime, requireAdmin bool) (http.Handler, func(), error) {
	repos, err := rt.repositories()
	if err != nil {
		return nil, nil, err
	}
	currency, err := rt.currency()
	if err != nil {
		return nil, nil, err
	}
	hub := dashboard.NewNotificationHub()
	notifier := dashboard.MultiNotifier{hub, rt.notifier()}
	telemetry := rt.telemetry()

	admin, err := dashboard.NewAdmin(dashboard.AdminOptions{
		Backend:   repos,
		Notifier:  notifier,
		Logger:    rt.logger,
		Telemetry: telemetry,
	})
	if err != nil {
		return nil, nil, err
	}
	selector, err := dashboard.NewBannerSelector(dashboard.BannerOptions{
		Repository: repos,
		Catalog:    repos,
		Notifier:   notifier,
		Logger:     rt.logger,
		Telemetry:  telemetry,
	})
	if err != nil {
		admin.Close()
		return nil, nil, err
	}
	stats, err := dashboard.NewStatsService(dashboard.StatsOptions{
		Repository: repos,
		Locale:     rt.locale(),
		Currency:   currency,
		Logger:     rt.logger,
		Telemetry:  telemetry,
	})
	if err != nil {
		admin.Close()
		return nil, nil, err
	}
	verifier := dashboard.NewCheckoutVerifier(repos, notifier, rt.logger)

	renderCache, closeCache := rt.renderCache()
	cleanup := func() {
		admin.Close()
		closeCache()
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	cfg := httpapi.Config{
		App: app,
		Handlers: httpapi.Handlers{
			Summary:      queries.NewDashboardSummaryQuery(stats),
			BannerState:  queries.NewBannerStateQuery(selector),
			Search:       queries.NewSearchQuery(admin),
			Checkout:     queries.NewVerifyCheckoutQuery(verifier),
			ToggleBanner: commands.NewToggleBannerCommand(selector, telemetry),
			SaveBanner:   commands.NewSaveBannerCommand(selector, telemetry),
			UpdateStatus: commands.NewUpdateStatusCommand(admin, telemetry),
			Delete:       commands.NewDeleteEntityCommand(admin, telemetry),
			Publish:      commands.NewPublishProjectCommand(admin, telemetry),
			Charts:       dashboard.NewRevenueChartRenderer(dashboard.WithChartCache(renderCache)),
		},
		Logger: rt.logger.Named("http"),
	}
	if requireAdmin {
		cfg.Guard = rt.adminGuard()
	}
	if err := httpapi.Register(cfg); err != nil {
		cleanup()
		return nil, nil, err
	}

	ws, sse := hub.ServeWebSocket, hub.ServeSSE
	if requireAdmin {
		ws, sse = rt.requireAdminHTTP(ws), rt.requireAdminHTTP(sse)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/notifications/ws", ws)
	mux.HandleFunc("/admin/notifications/stream", sse)
	mux.Handle("/", adaptor.FiberApp(app))
	return mux, cleanup, nil
}

// renderCache prefers a shared Redis cache and falls back to memory when Redis is
// not configured or unreachable.
func (rt *runtime) renderCache() (dashboard.RenderCache, func()) {
	if rt.cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(rt.ctx, 3*time.Second)
		defer cancel()
		client, err := cache.Connect(ctx, rt.cfg.RedisURL)
		if err == nil {
			return cache.NewRedisRenderCache(client, rt.cfg.ChartTTL, rt.logger.Named("cache")), func() { _ = client.Close() }
		}
		rt.logger.Warn("redis unavailable, using in-memory chart cache", zap.Error(err))
	}
	return dashboard.NewChartCache(rt.cfg.ChartTTL), func() {}
}

// checkAdmin passes when a static token is configured or the local session belongs
// to an administrator. A zero status means the request may proceed.
func (rt *runtime) checkAdmin() (int, fiber.Map) {
	if rt.cfg.Token != "" {
		return 0, nil
	}
	session, err := rt.Session()
	if err != nil {
		return http.StatusInternalServerError, fiber.Map{"error": "session unavailable"}
	}
	if err := session.RequireAdmin(); err != nil {
		status := http.StatusUnauthorized
		if session.IsAuthenticated(time.Now()) {
			status = http.StatusForbidden
		}
		return status, fiber.Map{"error": err.Error(), "kind": string(dashboard.KindClient)}
	}
	return 0, nil
}

// adminGuard applies checkAdmin to the fiber routes.
func (rt *runtime) adminGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if status, body := rt.checkAdmin(); status != 0 {
			return c.Status(status).JSON(body)
		}
		return c.Next()
	}
}

// requireAdminHTTP applies checkAdmin to handlers mounted outside fiber.
func (rt *runtime) requireAdminHTTP(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status, body := rt.checkAdmin(); status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
			return
		}
		next(w, r)
	}
}

type mockBackendCmd struct {
	Listen string `default:":4000" help:"Listen address."`
	Secure bool   `help:"Require bearer tokens on /admin and /files routes."`
}

func (c *mockBackendCmd) Run(rt *runtime) error {
	data := api.DemoData(time.Now())
	if rt.cfg.SigningKey != "" {
		data.SigningKey = []byte(rt.cfg.SigningKey)
	}
	client := api.NewMockClient(data)
	opts := apitest.Options{Client: client, Logger: rt.logger.Named("mock")}
	if c.Secure {
		opts.SigningKey = client.SigningKey()
	}
	server, err := apitest.New(opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "mock backend on %s (sign in as admin@example.com / %s)\n", c.Listen, api.DemoPassword)
	return serveHTTP(rt.ctx, c.Listen, server, rt.logger)
}

// serveHTTP runs handler until ctx is cancelled, then drains connections.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fundctl: serve %s: %w", addr, err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
