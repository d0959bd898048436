package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Entity is implemented by every row type rendered in an admin list.
type Entity interface {
	EntityID() string
}

// ProjectStatus is the lifecycle state of a crowdfunding project. Transitions are
// enforced by the backend; clients only request them.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "DRAFT"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

// Valid reports whether the status is one the backend understands.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectActive, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Owner is the seller account attached to projects and videos.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Media is an uploaded asset attached to a project.
type Media struct {
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
}

// Project is a crowdfunding project as returned by the admin API.
type Project struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	GoalAmount     float64       `json:"goalAmount"`
	TotalAmount    float64       `json:"totalAmount"`
	EndDate        *time.Time    `json:"endDate,omitempty"`
	Status         ProjectStatus `json:"status"`
	SupporterCount int           `json:"supporterCount"`
	Medias         []Media       `json:"medias,omitempty"`
	Owner          *Owner        `json:"owner,omitempty"`
}

// EntityID implements Entity.
func (p Project) EntityID() string { return p.ID }

// AchievementRate is the percentage of the goal raised so far.
func (p Project) AchievementRate() float64 {
	if p.GoalAmount <= 0 {
		return 0
	}
	return p.TotalAmount / p.GoalAmount * 100
}

// Video is a paid video listing.
type Video struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	PurchaseCount   int     `json:"purchaseCount"`
	NetProfit       float64 `json:"netProfit"`
	ViewCount       int     `json:"viewCount"`
	IsVisible       bool    `json:"isVisible"`
	Owner           *Owner  `json:"owner,omitempty"`
	CommentsEnabled bool    `json:"commentsEnabled"`
}

// EntityID implements Entity.
func (v Video) EntityID() string { return v.ID }

// PaymentUser is the purchaser recorded on a payment.
type PaymentUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// PaymentSupport links a payment to the project it supported.
type PaymentSupport struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Payment is a settled or pending charge.
type Payment struct {
	ID              string          `json:"id"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	StripePaymentID string          `json:"stripePaymentId,omitempty"`
	User            *PaymentUser    `json:"user,omitempty"`
	Support         *PaymentSupport `json:"support,omitempty"`
}

// EntityID implements Entity.
func (p Payment) EntityID() string { return p.ID }

// Contact is a marketplace account shown in the admin contact list.
type Contact struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	PurchaseAmount  float64 `json:"purchaseAmount"`
	IsSeller        bool    `json:"isSeller"`
	IsPurchaser     bool    `json:"isPurchaser"`
	IsAdministrator bool    `json:"isAdministrator,omitempty"`
}

// EntityID implements Entity.
func (c Contact) EntityID() string { return c.ID }

// VisibleContacts drops administrator accounts, which are never listed.
func VisibleContacts(contacts []Contact) []Contact {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.IsAdministrator {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SalesRecord is one dated amount in a stats time series.
type SalesRecord struct {
	Date   time.Time
	Amount float64
}

type salesRecordJSON struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// UnmarshalJSON accepts RFC3339 timestamps and bare dates.
func (r *SalesRecord) UnmarshalJSON(data []byte) error {
	var raw salesRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := parseRecordDate(raw.Date)
	if err != nil {
		return err
	}
	r.Date = parsed
	r.Amount = raw.Amount
	return nil
}

// MarshalJSON writes the date as RFC3339.
func (r SalesRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(salesRecordJSON{Date: r.Date.Format(time.RFC3339), Amount: r.Amount})
}

func parseRecordDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dashboard: parse record date %q", value)
}

// DashboardStats is the raw stats payload computed by the backend.
type DashboardStats struct {
	NetProfit             []SalesRecord `json:"netProfit"`
	VideoPurchases        []SalesRecord `json:"videoPurchases"`
	CrowdfundingPurchases []SalesRecord `json:"crowdfundingPurchases"`
	PurchaseData          []SalesRecord `json:"purchaseData"`
	SalesData             []SalesRecord `json:"salesData"`
	OverallNetProfit      float64       `json:"overallNetProfit"`
	SoldVideosAmount      float64       `json:"soldVideosAmount"`
	CrowdfundingAmount    float64       `json:"crowdfundingAmount"`
	TotalSupporters       int           `json:"totalSupporters"`
}

// ProjectQuery filters project listings.
type ProjectQuery struct {
	Search string
	Status ProjectStatus
}

// StatsRepository fetches backend-computed dashboard stats.
type StatsRepository interface {
	FetchDashboardStats(ctx context.Context, rng StatsRange) (DashboardStats, error)
}

// ProjectCatalog lists projects available for curation.
type ProjectCatalog interface {
	ListProjects(ctx context.Context, query ProjectQuery) ([]Project, error)
}

// BannerRepository reads and replaces the featured banner projects.
type BannerRepository interface {
	FetchBannerProjects(ctx context.Context) ([]Project, error)
	SaveBannerProjects(ctx context.Context, projectIDs []string) error
}
