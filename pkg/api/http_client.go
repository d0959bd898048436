package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// HTTPConfig configures the marketplace API client.
type HTTPConfig struct {
	BaseURL string
	// Token is a static bearer token. TokenSource takes precedence when set.
	Token       string
	TokenSource TokenFunc
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// HTTPClient talks to the marketplace REST backend.
type HTTPClient struct {
	baseURL string
	token   TokenFunc
	client  *http.Client
	logger  *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the API rooted at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("api: invalid base url %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	token := cfg.TokenSource
	if token == nil {
		static := cfg.Token
		token = func(context.Context) (string, error) { return static, nil }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: base,
		token:   token,
		client:  httpClient,
		logger:  logger,
	}, nil
}

// BaseURL returns the API root.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// ListContacts calls GET /admin/contacts.
func (c *HTTPClient) ListContacts(ctx context.Context, search string) ([]dashboard.Contact, error) {
	var resp struct {
		Contacts []dashboard.Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, withSearch("/admin/contacts", search), nil, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Contacts), nil
}

// FetchStats calls GET /admin/dashboard/stats.
func (c *HTTPClient) FetchStats(ctx context.Context, rng dashboard.StatsRange) (dashboard.DashboardStats, error) {
	if rng == "" {
		rng = dashboard.Range7Days
	}
	var stats dashboard.DashboardStats
	path := "/admin/dashboard/stats?" + url.Values{"range": {string(rng)}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return dashboard.DashboardStats{}, err
	}
	return stats, nil
}

// ListBannerProjects calls GET /admin/banner-projects.
func (c *HTTPClient) ListBannerProjects(ctx context.Context) ([]dashboard.Project, error) {
	var projects []dashboard.Project
	if err := c.doList(ctx, http.MethodGet, "/admin/banner-projects", nil, "projects", &projects); err != nil {
		return nil, err
	}
	return nonNil(projects), nil
}

// SetBannerProjects replaces the banner with the ordered ids via POST /admin/banner-projects.
func (c *HTTPClient) SetBannerProjects(ctx context.Context, projectIDs []string) ([]dashboard.Project, error) {
	if projectIDs == nil {
		projectIDs = []string{}
	}
	payload := struct {
		ProjectIDs []string `json:"projectIds"`
	}{ProjectIDs: projectIDs}
	var projects []dashboard.Project
	if err := c.doList(ctx, http.MethodPost, "/admin/banner-projects", payload, "projects", &projects); err != nil {
		return nil, err
	}
	return nonNil(projects), nil
}

// ListProjects calls GET /admin/projects.
func (c *HTTPClient) ListProjects(ctx context.Context, search string) ([]dashboard.Project, error) {
	var projects []dashboard.Project
	if err := c.doList(ctx, http.MethodGet, withSearch("/admin/projects", search), nil, "projects", &projects); err != nil {
		return nil, err
	}
	return nonNil(projects), nil
}

// GetProject calls GET /admin/projects/:id.
func (c *HTTPClient) GetProject(ctx context.Context, id string) (dashboard.Project, error) {
	var project dashboard.Project
	err := c.do(ctx, http.MethodGet, "/admin/projects/"+url.PathEscape(id), nil, &project)
	return project, err
}

// UpdateProject calls PATCH /admin/projects/:id.
func (c *HTTPClient) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (dashboard.Project, error) {
	var project dashboard.Project
	err := c.do(ctx, http.MethodPatch, "/admin/projects/"+url.PathEscape(id), update, &project)
	return project, err
}

// PublishProject calls POST /admin/projects/:id/publish.
func (c *HTTPClient) PublishProject(ctx context.Context, id string) (dashboard.Project, error) {
	var project dashboard.Project
	err := c.do(ctx, http.MethodPost, "/admin/projects/"+url.PathEscape(id)+"/publish", nil, &project)
	return project, err
}

// DeleteProject calls DELETE /admin/projects/:id.
func (c *HTTPClient) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/projects/"+url.PathEscape(id), nil, nil)
}

// ListVideos calls GET /admin/videos.
func (c *HTTPClient) ListVideos(ctx context.Context, search string) ([]dashboard.Video, error) {
	var videos []dashboard.Video
	if err := c.doList(ctx, http.MethodGet, withSearch("/admin/videos", search), nil, "videos", &videos); err != nil {
		return nil, err
	}
	return nonNil(videos), nil
}

// UpdateVideo calls PATCH /admin/videos/:id.
func (c *HTTPClient) UpdateVideo(ctx context.Context, id string, update VideoUpdate) (dashboard.Video, error) {
	var video dashboard.Video
	err := c.do(ctx, http.MethodPatch, "/admin/videos/"+url.PathEscape(id), update, &video)
	return video, err
}

// DeleteVideo calls DELETE /admin/videos/:id.
func (c *HTTPClient) DeleteVideo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/videos/"+url.PathEscape(id), nil, nil)
}

// ListPayments calls GET /admin/payments.
func (c *HTTPClient) ListPayments(ctx context.Context, search string) ([]dashboard.Payment, error) {
	var payments []dashboard.Payment
	if err := c.doList(ctx, http.MethodGet, withSearch("/admin/payments", search), nil, "payments", &payments); err != nil {
		return nil, err
	}
	return nonNil(payments), nil
}

// VerifyCheckout calls POST /checkout/verify.
func (c *HTTPClient) VerifyCheckout(ctx context.Context, sessionID string) (dashboard.CheckoutConfirmation, error) {
	payload := struct {
		SessionID string `json:"session_id"`
	}{SessionID: sessionID}
	var confirmation dashboard.CheckoutConfirmation
	if err := c.do(ctx, http.MethodPost, "/checkout/verify", payload, &confirmation); err != nil {
		return dashboard.CheckoutConfirmation{}, err
	}
	return confirmation, nil
}

// Login calls POST /auth/login.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// UploadFiles posts files as multipart form data to POST /files.
func (c *HTTPClient) UploadFiles(ctx context.Context, files []UploadFile) ([]dashboard.Media, error) {
	if len(files) == 0 {
		return []dashboard.Media{}, nil
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, file.Name))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("api: create part %s: %w", file.Name, err)
		}
		if _, err := io.Copy(part, file.Body); err != nil {
			return nil, fmt.Errorf("api: copy %s: %w", file.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("api: close multipart: %w", err)
	}

	var resp struct {
		Files []dashboard.Media `json:"files"`
	}
	if err := c.send(ctx, http.MethodPost, "/files", &body, writer.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Files), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("api: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, body, contentType, target)
}

// doList decodes either a bare JSON array or an object wrapping it under key.
func (c *HTTPClient) doList(ctx context.Context, method, path string, payload any, key string, target any) error {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, payload, &raw); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '{' {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return fmt.Errorf("api: decode %s: %w", path, err)
		}
		inner, ok := wrapped[key]
		if !ok {
			return fmt.Errorf("api: decode %s: missing %q", path, key)
		}
		trimmed = inner
	}
	if err := json.Unmarshal(trimmed, target); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body io.Reader, contentType string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("api: resolve token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("api: http request: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("api request",
		zap.String("method", method), zap.String("path", path),
		zap.String("request_id", requestID), zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp, stripQuery(path))
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &dashboard.APIError{Status: resp.StatusCode, Path: path}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

func withSearch(path, search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return path
	}
	return path + "?" + url.Values{"search": {search}}.Encode()
}

func stripQuery(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		return path[:idx]
	}
	return path
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
