package api

import (
	"context"
	"io"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// ContactsClient lists marketplace accounts.
type ContactsClient interface {
	ListContacts(ctx context.Context, search string) ([]dashboard.Contact, error)
}

// StatsClient fetches backend-computed dashboard stats.
type StatsClient interface {
	FetchStats(ctx context.Context, rng dashboard.StatsRange) (dashboard.DashboardStats, error)
}

// BannerClient reads and replaces the featured banner projects.
type BannerClient interface {
	ListBannerProjects(ctx context.Context) ([]dashboard.Project, error)
	SetBannerProjects(ctx context.Context, projectIDs []string) ([]dashboard.Project, error)
}

// ProjectsClient manages crowdfunding projects.
type ProjectsClient interface {
	ListProjects(ctx context.Context, search string) ([]dashboard.Project, error)
	GetProject(ctx context.Context, id string) (dashboard.Project, error)
	UpdateProject(ctx context.Context, id string, update ProjectUpdate) (dashboard.Project, error)
	PublishProject(ctx context.Context, id string) (dashboard.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// VideosClient manages video listings.
type VideosClient interface {
	ListVideos(ctx context.Context, search string) ([]dashboard.Video, error)
	UpdateVideo(ctx context.Context, id string, update VideoUpdate) (dashboard.Video, error)
	DeleteVideo(ctx context.Context, id string) error
}

// PaymentsClient lists payments.
type PaymentsClient interface {
	ListPayments(ctx context.Context, search string) ([]dashboard.Payment, error)
}

// CheckoutClient confirms checkout sessions.
type CheckoutClient interface {
	VerifyCheckout(ctx context.Context, sessionID string) (dashboard.CheckoutConfirmation, error)
}

// FilesClient uploads media.
type FilesClient interface {
	UploadFiles(ctx context.Context, files []UploadFile) ([]dashboard.Media, error)
}

// AuthClient exchanges credentials for a session token.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
}

// Client is the full marketplace API surface.
type Client interface {
	ContactsClient
	StatsClient
	BannerClient
	ProjectsClient
	VideosClient
	PaymentsClient
	CheckoutClient
	FilesClient
	AuthClient
}

// ProjectUpdate is a partial project PATCH. Nil fields are left unchanged.
type ProjectUpdate struct {
	Title       *string                  `json:"title,omitempty"`
	Description *string                  `json:"description,omitempty"`
	GoalAmount  *float64                 `json:"goalAmount,omitempty"`
	Status      *dashboard.ProjectStatus `json:"status,omitempty"`
}

// VideoUpdate is a partial video PATCH. Nil fields are left unchanged.
type VideoUpdate struct {
	Title     *string  `json:"title,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	IsVisible *bool    `json:"isVisible,omitempty"`
}

// UploadFile is one part of a multipart upload.
type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// User is the signed-in account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// IsAdmin reports whether the account may use the back office.
func (u User) IsAdmin() bool {
	return u.Role == "ADMIN"
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// TokenFunc returns the bearer token for a request. An empty token sends no
// Authorization header.
type TokenFunc func(ctx context.Context) (string, error)
