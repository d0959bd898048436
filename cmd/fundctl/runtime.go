package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/goodsign/monday"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-fundboard/components/dashboard"
	"github.com/goliatone/go-fundboard/pkg/api"
	"github.com/goliatone/go-fundboard/pkg/auth"
)

// runtime carries the resolved config and lazily opened collaborators into
// command Run methods.
type runtime struct {
	ctx    context.Context
	cfg    config
	format string
	in     io.Reader
	out    io.Writer
	logger *zap.Logger

	sessionMu sync.Mutex
	storage   *auth.SQLiteStorage
	session   *auth.Session
	clientMu  sync.Mutex
	client    api.Client
}

func newRuntime(ctx context.Context, root cli, in io.Reader, out io.Writer) (*runtime, error) {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return nil, err
	}
	if root.APIURL != "" {
		cfg.APIURL = root.APIURL
	}
	if root.Debug {
		cfg.Debug = true
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	return &runtime{
		ctx:    ctx,
		cfg:    cfg,
		format: root.Output,
		in:     in,
		out:    out,
		logger: logger,
	}, nil
}

// newLogger builds a production zap logger writing to stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("fundctl: initialize logger: %w", err)
	}
	return logger, nil
}

// Session opens the local session store and restores the saved session.
func (rt *runtime) Session() (*auth.Session, error) {
	rt.sessionMu.Lock()
	defer rt.sessionMu.Unlock()
	if rt.session != nil {
		return rt.session, nil
	}
	storage, err := auth.OpenSQLiteStorage(rt.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	rt.storage = storage
	session := auth.NewSession(auth.Options{
		Client:  rt.authClient(),
		Storage: storage,
		Logger:  rt.logger,
	})
	if err := session.Restore(rt.ctx); err != nil {
		return nil, err
	}
	rt.session = session
	return session, nil
}

type lazyAuthClient struct {
	rt *runtime
}

func (l lazyAuthClient) Login(ctx context.Context, email, password string) (api.LoginResponse, error) {
	client, err := l.rt.Client()
	if err != nil {
		return api.LoginResponse{}, err
	}
	return client.Login(ctx, email, password)
}

func (rt *runtime) authClient() api.AuthClient {
	return lazyAuthClient{rt: rt}
}

// Client returns the API client. A configured static token wins over the session.
func (rt *runtime) Client() (api.Client, error) {
	rt.clientMu.Lock()
	defer rt.clientMu.Unlock()
	if rt.client != nil {
		return rt.client, nil
	}
	cfg := api.HTTPConfig{BaseURL: rt.cfg.APIURL, Logger: rt.logger.Named("api")}
	if rt.cfg.Token != "" {
		cfg.Token = rt.cfg.Token
	} else {
		cfg.TokenSource = func(ctx context.Context) (string, error) {
			session, err := rt.Session()
			if err != nil {
				return "", err
			}
			return session.Token(ctx)
		}
	}
	client, err := api.NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	rt.client = client
	return client, nil
}

func (rt *runtime) repositories() (*api.Repositories, error) {
	client, err := rt.Client()
	if err != nil {
		return nil, err
	}
	return api.NewRepositories(client), nil
}

func (rt *runtime) currency() (dashboard.Currency, error) {
	return dashboard.ParseCurrency(rt.cfg.Currency)
}

func (rt *runtime) locale() monday.Locale {
	return monday.Locale(strings.TrimSpace(rt.cfg.Locale))
}

func (rt *runtime) notifier() dashboard.Notifier {
	return dashboard.LogNotifier{Logger: rt.logger.Named("notify")}
}

func (rt *runtime) telemetry() dashboard.Telemetry {
	return dashboard.ZapTelemetry{Logger: rt.logger.Named("telemetry")}
}

// Close releases the session store and flushes the logger.
func (rt *runtime) Close() {
	if rt == nil {
		return
	}
	if rt.storage != nil {
		_ = rt.storage.Close()
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}
