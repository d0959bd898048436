package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

type stubTelemetry struct {
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.events = append(s.events, event)
}

type stubBanner struct {
	selected   []string
	toggleErr  error
	saveCalls  int
	toggleArgs []string
}

func (s *stubBanner) Toggle(_ context.Context, id string) ([]string, error) {
	s.toggleArgs = append(s.toggleArgs, id)
	if s.toggleErr != nil {
		return nil, s.toggleErr
	}
	s.selected = append(s.selected, id)
	return s.selected, nil
}

func (s *stubBanner) Save(context.Context) error {
	s.saveCalls++
	return nil
}

func (s *stubBanner) Selected() []string { return s.selected }

type stubAdmin struct {
	statusCalls  int
	deleteCalls  int
	publishCalls int
	confirmer    dashboard.Confirmer
	err          error
}

func (s *stubAdmin) SetStatus(context.Context, dashboard.EntityKind, string, string) error {
	s.statusCalls++
	return s.err
}

func (s *stubAdmin) Delete(_ context.Context, _ dashboard.EntityKind, _ string, confirmer dashboard.Confirmer) error {
	s.deleteCalls++
	s.confirmer = confirmer
	return s.err
}

func (s *stubAdmin) Publish(context.Context, string) error {
	s.publishCalls++
	return s.err
}

func TestToggleBannerCommand(t *testing.T) {
	service := &stubBanner{}
	telemetry := &stubTelemetry{}
	cmd := NewToggleBannerCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), ToggleBannerInput{ProjectID: "p-1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	assert.Equal(t, []string{"p-1"}, service.toggleArgs)
	assert.Equal(t, []string{"fundboard.banner.toggle"}, telemetry.events)
}

func TestToggleBannerCommandSurfacesLimit(t *testing.T) {
	service := &stubBanner{toggleErr: dashboard.ErrBannerLimitReached}
	telemetry := &stubTelemetry{}
	cmd := NewToggleBannerCommand(service, telemetry)
	err := cmd.Execute(context.Background(), ToggleBannerInput{ProjectID: "p-6"})
	assert.ErrorIs(t, err, dashboard.ErrBannerLimitReached)
	assert.Empty(t, telemetry.events)
}

func TestSaveBannerCommand(t *testing.T) {
	service := &stubBanner{selected: []string{"p-2", "p-1"}}
	cmd := NewSaveBannerCommand(service, nil)
	require.NoError(t, cmd.Execute(context.Background(), SaveBannerInput{}))
	assert.Equal(t, 1, service.saveCalls)
}

func TestCommandsRequireService(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewToggleBannerCommand(nil, nil).Execute(ctx, ToggleBannerInput{}))
	assert.Error(t, NewSaveBannerCommand(nil, nil).Execute(ctx, SaveBannerInput{}))
	assert.Error(t, NewUpdateStatusCommand(nil, nil).Execute(ctx, UpdateStatusInput{}))
	assert.Error(t, NewDeleteEntityCommand(nil, nil).Execute(ctx, DeleteEntityInput{}))
	assert.Error(t, NewPublishProjectCommand(nil, nil).Execute(ctx, PublishProjectInput{}))
}

func TestUpdateStatusCommand(t *testing.T) {
	service := &stubAdmin{}
	telemetry := &stubTelemetry{}
	cmd := NewUpdateStatusCommand(service, telemetry)
	err := cmd.Execute(context.Background(), UpdateStatusInput{Kind: dashboard.EntityVideos, ID: "v-1", Value: "hidden"})
	require.NoError(t, err)
	assert.Equal(t, 1, service.statusCalls)
	assert.Equal(t, []string{"fundboard.entity.status"}, telemetry.events)
}

func TestDeleteEntityCommandConfirmedUsesAlwaysConfirm(t *testing.T) {
	service := &stubAdmin{}
	cmd := NewDeleteEntityCommand(service, nil)
	require.NoError(t, cmd.Execute(context.Background(), DeleteEntityInput{Kind: dashboard.EntityProjects, ID: "p-1", Confirmed: true}))
	require.NotNil(t, service.confirmer)
	ok, err := service.confirmer.Confirm(context.Background(), dashboard.DeletePrompt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteEntityCommandPassesConfirmer(t *testing.T) {
	service := &stubAdmin{err: dashboard.ErrDeleteCancelled}
	telemetry := &stubTelemetry{}
	cmd := NewDeleteEntityCommand(service, telemetry)
	err := cmd.Execute(context.Background(), DeleteEntityInput{Kind: dashboard.EntityVideos, ID: "v-1"})
	assert.True(t, errors.Is(err, dashboard.ErrDeleteCancelled))
	assert.Nil(t, service.confirmer)
	assert.Empty(t, telemetry.events)
}

func TestPublishProjectCommand(t *testing.T) {
	service := &stubAdmin{}
	cmd := NewPublishProjectCommand(service, nil)
	require.NoError(t, cmd.Execute(context.Background(), PublishProjectInput{ProjectID: "p-3"}))
	assert.Equal(t, 1, service.publishCalls)
}
