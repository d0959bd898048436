package main

import (
	"fmt"

	"github.com/goliatone/go-fundboard/components/dashboard"
)

type checkoutCmd struct {
	Verify checkoutVerifyCmd `cmd:"" help:"Confirm a checkout session after the payment redirect."`
}

type checkoutVerifyCmd struct {
	SessionID string `arg:"" name:"session-id" help:"Checkout session id from the success redirect."`
}

func (c *checkoutVerifyCmd) Run(rt *runtime) error {
	repos, err := rt.repositories()
	if err != nil {
		return err
	}
	confirmation, err := dashboard.NewCheckoutVerifier(repos, rt.notifier(), rt.logger).Verify(rt.ctx, c.SessionID)
	if err != nil {
		return err
	}
	return rt.print(confirmation, func() table {
		t := table{columns: []string{"sessionId", "paymentStatus", "amount", "paid"}}
		t.add(confirmation.SessionID, string(confirmation.PaymentStatus),
			fmt.Sprintf("%.0f %s", confirmation.Amount, confirmation.Currency), fmt.Sprint(confirmation.Paid()))
		return t
	})
}
