package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

type checkoutService interface {
	Verify(ctx context.Context, sessionID string) (dashboard.CheckoutConfirmation, error)
}

// VerifyCheckoutQuery confirms a checkout session id.
type VerifyCheckoutQuery struct {
	service checkoutService
}

// NewVerifyCheckoutQuery builds the query.
func NewVerifyCheckoutQuery(service checkoutService) *VerifyCheckoutQuery {
	return &VerifyCheckoutQuery{service: service}
}

var _ gocommand.Querier[string, dashboard.CheckoutConfirmation] = (*VerifyCheckoutQuery)(nil)

func (q *VerifyCheckoutQuery) Query(ctx context.Context, sessionID string) (dashboard.CheckoutConfirmation, error) {
	return q.service.Verify(ctx, sessionID)
}
