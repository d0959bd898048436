package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetryPolicyRetriesServerErrors(t *testing.T) {
	var delays []time.Duration
	policy := DefaultRetryPolicy()
	policy.Sleep = recordingSleep(&delays)

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &APIError{Status: 503}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, delays)
}

func TestRetryPolicyStopsOnClientErrors(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Sleep = func(context.Context, time.Duration) error {
		t.Fatalf("client errors must not back off")
		return nil
	}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return &APIError{Status: 422, Message: "invalid"}
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyReturnsLastError(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{Attempts: 4, InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 2, Sleep: recordingSleep(&delays)}

	transport := errors.New("connection reset")
	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return transport
	})

	assert.ErrorIs(t, err, transport)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, delays)
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	calls := 0
	err := policy.Do(ctx, func(context.Context) error {
		calls++
		return &APIError{Status: 500}
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, KindServer, KindOf(err))
}

func TestRetryReturnsValue(t *testing.T) {
	got, err := Retry(context.Background(), NoRetry(), func(context.Context) ([]string, error) {
		return []string{"a"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}
