package api

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// DemoPassword is the password of every DemoData account.
const DemoPassword = "fundboard"

// DemoData returns a small marketplace with daily stats ending at now.
func DemoData(now time.Time) MockData {
	now = now.UTC()
	end := now.AddDate(0, 1, 0)
	seller := &dashboard.Owner{ID: "u-seller", Name: "山田 花子", Email: "hanako@example.com"}

	projects := []dashboard.Project{
		{ID: "p-1", Title: "Local Coffee Roastery", GoalAmount: 500000, TotalAmount: 320000, Status: dashboard.ProjectActive, SupporterCount: 41, EndDate: &end, Owner: seller},
		{ID: "p-2", Title: "Indie Film: Harbor Lights", GoalAmount: 1200000, TotalAmount: 1250000, Status: dashboard.ProjectCompleted, SupporterCount: 210, Owner: seller},
		{ID: "p-3", Title: "Community Garden Kit", GoalAmount: 80000, Status: dashboard.ProjectDraft, Owner: seller},
		{ID: "p-4", Title: "Retro Game Remaster", GoalAmount: 3000000, TotalAmount: 900000, Status: dashboard.ProjectActive, SupporterCount: 98, EndDate: &end},
		{ID: "p-5", Title: "Mountain Hut Rebuild", GoalAmount: 2000000, TotalAmount: 150000, Status: dashboard.ProjectCancelled},
		{ID: "p-6", Title: "Jazz Night Live Album", GoalAmount: 600000, TotalAmount: 480000, Status: dashboard.ProjectActive, SupporterCount: 64, EndDate: &end},
	}
	videos := []dashboard.Video{
		{ID: "v-1", Title: "Pour-over Basics", Price: 1200, PurchaseCount: 34, NetProfit: 36720, ViewCount: 1200, IsVisible: true, Owner: seller, CommentsEnabled: true},
		{ID: "v-2", Title: "Behind the Scenes", Price: 800, PurchaseCount: 12, NetProfit: 8640, ViewCount: 430, IsVisible: false, Owner: seller},
	}
	payments := []dashboard.Payment{
		{ID: "pay-1", Amount: 5000, Currency: "jpy", Status: dashboard.PaymentCompleted, StripePaymentID: "pi_demo_1",
			User: &dashboard.PaymentUser{ID: "u-1", Name: "佐藤 一郎"}, Support: &dashboard.PaymentSupport{ID: "s-1", ProjectID: "p-1", Title: "Local Coffee Roastery"}},
		{ID: "pay-2", Amount: 1200, Currency: "jpy", Status: dashboard.PaymentPending, StripePaymentID: "pi_demo_2",
			User: &dashboard.PaymentUser{ID: "u-2", Name: "John Smith"}},
	}
	contacts := []dashboard.Contact{
		{ID: "u-1", Name: "佐藤 一郎", Email: "ichiro@example.com", PurchaseAmount: 5000, IsPurchaser: true},
		{ID: "u-2", Name: "John Smith", Email: "john@example.com", PurchaseAmount: 1200, IsPurchaser: true},
		{ID: "u-seller", Name: "山田 花子", Email: "hanako@example.com", IsSeller: true},
		{ID: "u-admin", Name: "Admin", Email: "admin@example.com", IsAdministrator: true},
	}

	var stats dashboard.DashboardStats
	for offset := 13; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset)
		sales := float64(10000 + (offset%5)*2500)
		purchases := float64(4000 + (offset%3)*1000)
		stats.SalesData = append(stats.SalesData, dashboard.SalesRecord{Date: day, Amount: sales})
		stats.PurchaseData = append(stats.PurchaseData, dashboard.SalesRecord{Date: day, Amount: purchases})
		stats.NetProfit = append(stats.NetProfit, dashboard.SalesRecord{Date: day, Amount: sales - purchases})
		stats.VideoPurchases = append(stats.VideoPurchases, dashboard.SalesRecord{Date: day, Amount: purchases / 2})
		stats.CrowdfundingPurchases = append(stats.CrowdfundingPurchases, dashboard.SalesRecord{Date: day, Amount: purchases / 2})
		stats.OverallNetProfit += sales - purchases
	}
	stats.SoldVideosAmount = 45360
	stats.CrowdfundingAmount = 2970000
	stats.TotalSupporters = 413

	users := map[string]User{
		"admin@example.com":  {ID: "u-admin", Name: "Admin", Email: "admin@example.com", Role: "ADMIN"},
		"hanako@example.com": {ID: "u-seller", Name: "山田 花子", Email: "hanako@example.com", Role: "SELLER"},
	}
	sessions := map[string]stripe.CheckoutSessionPaymentStatus{}
	for i, status := range []stripe.CheckoutSessionPaymentStatus{
		stripe.CheckoutSessionPaymentStatusPaid,
		stripe.CheckoutSessionPaymentStatusUnpaid,
	} {
		sessions[fmt.Sprintf("cs_demo_%d", i+1)] = status
	}

	return MockData{
		Projects:  projects,
		Videos:    videos,
		Payments:  payments,
		Contacts:  contacts,
		BannerIDs: []string{"p-1", "p-4"},
		Stats:     stats,
		Sessions:  sessions,
		Users:     users,
		Password:  DemoPassword,
	}
}
