package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// MockData seeds deterministic marketplace data for tests and local demos.
type MockData struct {
	Projects  []dashboard.Project
	Videos    []dashboard.Video
	Payments  []dashboard.Payment
	Contacts  []dashboard.Contact
	BannerIDs []string
	Stats     dashboard.DashboardStats
	// Sessions maps checkout session ids to their payment status.
	Sessions map[string]stripe.CheckoutSessionPaymentStatus
	// Users maps login emails to accounts; every account uses Password.
	Users    map[string]User
	Password string
	// SigningKey signs issued session tokens.
	SigningKey []byte
	TokenTTL   time.Duration
}

// MockClient implements Client over in-memory fixtures. Mutations are applied to the
// fixtures so follow-up reads observe them.
type MockClient struct {
	mu   sync.RWMutex
	data MockData
	now  func() time.Time
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	if data.Sessions == nil {
		data.Sessions = map[string]stripe.CheckoutSessionPaymentStatus{}
	}
	if len(data.SigningKey) == 0 {
		data.SigningKey = []byte("fundboard-mock")
	}
	if data.TokenTTL <= 0 {
		data.TokenTTL = 24 * time.Hour
	}
	return &MockClient{data: data, now: time.Now}
}

// SigningKey is the HMAC key used for issued tokens.
func (c *MockClient) SigningKey() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]byte(nil), c.data.SigningKey...)
}

func notFound(path string) error {
	return &dashboard.APIError{Status: http.StatusNotFound, Message: "リソースが見つかりません", Path: path}
}

func matches(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// ListContacts filters contacts by name or email.
func (c *MockClient) ListContacts(_ context.Context, search string) ([]dashboard.Contact, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data.Contacts == nil {
		return nil, notFound("/admin/contacts")
	}
	out := []dashboard.Contact{}
	for _, contact := range c.data.Contacts {
		if matches(search, contact.Name, contact.Email) {
			out = append(out, contact)
		}
	}
	return out, nil
}

// FetchStats returns the configured stats regardless of range.
func (c *MockClient) FetchStats(context.Context, dashboard.StatsRange) (dashboard.DashboardStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.data.Stats
	stats.SalesData = slices.Clone(stats.SalesData)
	stats.PurchaseData = slices.Clone(stats.PurchaseData)
	stats.NetProfit = slices.Clone(stats.NetProfit)
	stats.VideoPurchases = slices.Clone(stats.VideoPurchases)
	stats.CrowdfundingPurchases = slices.Clone(stats.CrowdfundingPurchases)
	return stats, nil
}

// ListBannerProjects resolves the stored banner ids against the projects.
func (c *MockClient) ListBannerProjects(context.Context) ([]dashboard.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bannerLocked(), nil
}

func (c *MockClient) bannerLocked() []dashboard.Project {
	out := []dashboard.Project{}
	for _, id := range c.data.BannerIDs {
		if idx := c.projectIndex(id); idx >= 0 {
			out = append(out, c.data.Projects[idx])
		}
	}
	return out
}

// SetBannerProjects stores the ordered ids. Unknown ids and more than five ids are
// rejected like the real backend does.
func (c *MockClient) SetBannerProjects(_ context.Context, projectIDs []string) ([]dashboard.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(projectIDs) > dashboard.MaxBannerProjects {
		return nil, &dashboard.APIError{Status: http.StatusBadRequest, Message: "バナーは最大5件です", Path: "/admin/banner-projects"}
	}
	for _, id := range projectIDs {
		if c.projectIndex(id) < 0 {
			return nil, &dashboard.APIError{Status: http.StatusBadRequest, Message: fmt.Sprintf("project %s not found", id), Path: "/admin/banner-projects"}
		}
	}
	c.data.BannerIDs = slices.Clone(projectIDs)
	return c.bannerLocked(), nil
}

func (c *MockClient) projectIndex(id string) int {
	return slices.IndexFunc(c.data.Projects, func(p dashboard.Project) bool { return p.ID == id })
}

func (c *MockClient) videoIndex(id string) int {
	return slices.IndexFunc(c.data.Videos, func(v dashboard.Video) bool { return v.ID == id })
}

// ListProjects filters projects by title or description.
func (c *MockClient) ListProjects(_ context.Context, search string) ([]dashboard.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []dashboard.Project{}
	for _, p := range c.data.Projects {
		if matches(search, p.Title, p.Description) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProject returns a project by id.
func (c *MockClient) GetProject(_ context.Context, id string) (dashboard.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.projectIndex(id)
	if idx < 0 {
		return dashboard.Project{}, notFound("/admin/projects/" + id)
	}
	return c.data.Projects[idx], nil
}

// UpdateProject applies a partial update.
func (c *MockClient) UpdateProject(_ context.Context, id string, update ProjectUpdate) (dashboard.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.projectIndex(id)
	if idx < 0 {
		return dashboard.Project{}, notFound("/admin/projects/" + id)
	}
	p := &c.data.Projects[idx]
	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.GoalAmount != nil {
		p.GoalAmount = *update.GoalAmount
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return dashboard.Project{}, &dashboard.APIError{Status: http.StatusBadRequest, Message: "invalid status", Path: "/admin/projects/" + id}
		}
		p.Status = *update.Status
	}
	return *p, nil
}

// PublishProject moves a draft project to active.
func (c *MockClient) PublishProject(_ context.Context, id string) (dashboard.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.projectIndex(id)
	if idx < 0 {
		return dashboard.Project{}, notFound("/admin/projects/" + id + "/publish")
	}
	p := &c.data.Projects[idx]
	if p.Status != dashboard.ProjectDraft {
		return dashboard.Project{}, &dashboard.APIError{Status: http.StatusConflict, Message: "下書きのプロジェクトのみ公開できます", Path: "/admin/projects/" + id + "/publish"}
	}
	p.Status = dashboard.ProjectActive
	return *p, nil
}

// DeleteProject removes a project and drops it from the banner.
func (c *MockClient) DeleteProject(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.projectIndex(id)
	if idx < 0 {
		return notFound("/admin/projects/" + id)
	}
	c.data.Projects = slices.Delete(c.data.Projects, idx, idx+1)
	c.data.BannerIDs = slices.DeleteFunc(c.data.BannerIDs, func(b string) bool { return b == id })
	return nil
}

// ListVideos filters videos by title.
func (c *MockClient) ListVideos(_ context.Context, search string) ([]dashboard.Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []dashboard.Video{}
	for _, v := range c.data.Videos {
		if matches(search, v.Title) {
			out = append(out, v)
		}
	}
	return out, nil
}

// UpdateVideo applies a partial update.
func (c *MockClient) UpdateVideo(_ context.Context, id string, update VideoUpdate) (dashboard.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.videoIndex(id)
	if idx < 0 {
		return dashboard.Video{}, notFound("/admin/videos/" + id)
	}
	v := &c.data.Videos[idx]
	if update.Title != nil {
		v.Title = *update.Title
	}
	if update.Price != nil {
		v.Price = *update.Price
	}
	if update.IsVisible != nil {
		v.IsVisible = *update.IsVisible
	}
	return *v, nil
}

// DeleteVideo removes a video.
func (c *MockClient) DeleteVideo(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.videoIndex(id)
	if idx < 0 {
		return notFound("/admin/videos/" + id)
	}
	c.data.Videos = slices.Delete(c.data.Videos, idx, idx+1)
	return nil
}

// ListPayments filters payments by id, purchaser or Stripe id.
func (c *MockClient) ListPayments(_ context.Context, search string) ([]dashboard.Payment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []dashboard.Payment{}
	for _, p := range c.data.Payments {
		name := ""
		if p.User != nil {
			name = p.User.Name
		}
		if matches(search, p.ID, p.StripePaymentID, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// VerifyCheckout looks the session up in the configured sessions.
func (c *MockClient) VerifyCheckout(_ context.Context, sessionID string) (dashboard.CheckoutConfirmation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	status, ok := c.data.Sessions[sessionID]
	if !ok {
		return dashboard.CheckoutConfirmation{}, &dashboard.APIError{Status: http.StatusBadRequest, Message: "無効なセッションです", Path: "/checkout/verify"}
	}
	return dashboard.CheckoutConfirmation{
		SessionID:     sessionID,
		PaymentStatus: status,
		Currency:      string(stripe.CurrencyJPY),
	}, nil
}

// UploadFiles drains the files and returns local URLs for them.
func (c *MockClient) UploadFiles(_ context.Context, files []UploadFile) ([]dashboard.Media, error) {
	out := make([]dashboard.Media, 0, len(files))
	for _, f := range files {
		if f.Body != nil {
			if _, err := io.Copy(io.Discard, f.Body); err != nil {
				return nil, fmt.Errorf("api: read %s: %w", f.Name, err)
			}
		}
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		out = append(out, dashboard.Media{
			URL:      fmt.Sprintf("https://files.fundboard.local/%s/%s", uuid.NewString(), f.Name),
			MimeType: contentType,
		})
	}
	return out, nil
}

// Login checks the credentials and issues a signed HS256 token.
func (c *MockClient) Login(_ context.Context, email, password string) (LoginResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	user, ok := c.data.Users[strings.ToLower(email)]
	if !ok || password != c.data.Password {
		return LoginResponse{}, &dashboard.APIError{Status: http.StatusUnauthorized, Message: "メールアドレスまたはパスワードが正しくありません", Path: "/auth/login"}
	}
	now := c.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(c.data.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.data.SigningKey)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("api: sign token: %w", err)
	}
	return LoginResponse{Token: token, User: user}, nil
}

// Snapshot returns a copy of the current fixtures.
func (c *MockClient) Snapshot() MockData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.data
	out.Projects = slices.Clone(c.data.Projects)
	out.Videos = slices.Clone(c.data.Videos)
	out.Payments = slices.Clone(c.data.Payments)
	out.Contacts = slices.Clone(c.data.Contacts)
	out.BannerIDs = slices.Clone(c.data.BannerIDs)
	return out
}
