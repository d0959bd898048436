package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"go.uber.org/zap"
)

// CheckoutConfirmation is the backend's view of a completed checkout session.
type CheckoutConfirmation struct {
	SessionID     string                              `json:"sessionId"`
	PaymentStatus stripe.CheckoutSessionPaymentStatus `json:"paymentStatus"`
	Amount        float64                             `json:"amount"`
	Currency      string                              `json:"currency"`
	ProjectID     string                              `json:"projectId,omitempty"`
	PaymentID     string                              `json:"paymentId,omitempty"`
}

// Paid reports whether the session needs no further payment.
func (c CheckoutConfirmation) Paid() bool {
	return c.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		c.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

// CheckoutRepository confirms checkout sessions with the backend.
type CheckoutRepository interface {
	VerifyCheckoutSession(ctx context.Context, sessionID string) (CheckoutConfirmation, error)
}

// CheckoutVerifier confirms a checkout session after the payment redirect.
type CheckoutVerifier struct {
	repo     CheckoutRepository
	retry    RetryPolicy
	notifier Notifier
	logger   *zap.Logger
}

// NewCheckoutVerifier builds a verifier. The retry policy defaults to DefaultRetryPolicy.
func NewCheckoutVerifier(repo CheckoutRepository, notifier Notifier, logger *zap.Logger) *CheckoutVerifier {
	return &CheckoutVerifier{
		repo:     repo,
		retry:    DefaultRetryPolicy(),
		notifier: normalizeNotifier(notifier),
		logger:   normalizeLogger(logger),
	}
}

// WithRetry returns a copy of the verifier using p.
func (v *CheckoutVerifier) WithRetry(p RetryPolicy) *CheckoutVerifier {
	clone := *v
	clone.retry = p
	return &clone
}

// Verify checks the session with the backend. An empty id fails without a call.
func (v *CheckoutVerifier) Verify(ctx context.Context, sessionID string) (CheckoutConfirmation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CheckoutConfirmation{}, &ValidationError{Field: "session_id", Message: "セッションIDが見つかりません"}
	}
	if v.repo == nil {
		return CheckoutConfirmation{}, ErrNotConfigured
	}
	confirmation, err := Retry(ctx, v.retry, func(ctx context.Context) (CheckoutConfirmation, error) {
		return v.repo.VerifyCheckoutSession(ctx, sessionID)
	})
	if err != nil {
		v.logger.Warn("checkout verification failed", zap.String("session_id", sessionID), zap.Error(err))
		notifyError(ctx, v.notifier, "checkout", err)
		return CheckoutConfirmation{}, fmt.Errorf("dashboard: verify checkout: %w", err)
	}
	if confirmation.SessionID == "" {
		confirmation.SessionID = sessionID
	}
	if confirmation.Paid() {
		v.notifier.Notify(ctx, NewNotification(LevelSuccess, "checkout", "お支払いが完了しました"))
	}
	return confirmation, nil
}
