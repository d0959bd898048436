package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassifiesErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"not found", &APIError{Status: 404}, KindNotFound},
		{"server", fmt.Errorf("wrap: %w", &APIError{Status: 502}), KindServer},
		{"rate limited", &APIError{Status: 429}, KindServer},
		{"client", &APIError{Status: 400, Message: "bad"}, KindClient},
		{"validation", &ValidationError{Field: "title", Message: "required"}, KindValidation},
		{"cancelled", context.Canceled, KindCancelled},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), KindCancelled},
		{"declined", ErrDeleteCancelled, KindCancelled},
		{"busy", ErrRowBusy, KindClient},
		{"transport", io.ErrUnexpectedEOF, KindNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestUserMessagePrefersAPIMessage(t *testing.T) {
	assert.Equal(t, "プロジェクトが見つかりません", UserMessage(&APIError{Status: 404, Message: "プロジェクトが見つかりません"}))
	assert.Equal(t, DefaultErrorMessage, UserMessage(&APIError{Status: 500}))
	assert.Equal(t, DefaultErrorMessage, UserMessage(errors.New("dial tcp: refused")))
	assert.Equal(t, "card number too short", UserMessage(&ValidationError{Field: "number", Message: "card number too short"}))
	assert.Equal(t, "", UserMessage(nil))
	assert.NotEqual(t, DefaultErrorMessage, UserMessage(ErrBannerLimitReached))
}

func TestIsNotImplemented(t *testing.T) {
	assert.True(t, IsNotImplemented(fmt.Errorf("contacts: %w", &APIError{Status: 404})))
	assert.False(t, IsNotImplemented(&APIError{Status: 500}))
	assert.False(t, IsNotImplemented(errors.New("boom")))
}

func TestAPIErrorString(t *testing.T) {
	err := &APIError{Status: 400, Message: "invalid", Path: "/admin/projects"}
	assert.Equal(t, "api: /admin/projects: status 400: invalid", err.Error())
}
