package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ToggleBannerInput adds or removes one project from the pending banner selection.
type ToggleBannerInput struct {
	ProjectID string
}

type bannerToggler interface {
	Toggle(ctx context.Context, id string) ([]string, error)
}

// ToggleBannerCommand wraps BannerSelector.Toggle.
type ToggleBannerCommand struct {
	service   bannerToggler
	telemetry Telemetry
}

// NewToggleBannerCommand builds the command.
func NewToggleBannerCommand(service bannerToggler, telemetry Telemetry) *ToggleBannerCommand {
	return &ToggleBannerCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleBannerInput] = (*ToggleBannerCommand)(nil)

// Execute toggles the project. A full banner rejects additions without changing it.
func (c *ToggleBannerCommand) Execute(ctx context.Context, msg ToggleBannerInput) error {
	if c.service == nil {
		return errors.New("toggle banner command requires service")
	}
	selected, err := c.service.Toggle(ctx, msg.ProjectID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "fundboard.banner.toggle", map[string]any{
		"project_id": msg.ProjectID,
		"count":      len(selected),
	})
	return nil
}

// SaveBannerInput persists the pending selection.
type SaveBannerInput struct{}

type bannerSaver interface {
	Save(ctx context.Context) error
	Selected() []string
}

// SaveBannerCommand wraps BannerSelector.Save.
type SaveBannerCommand struct {
	service   bannerSaver
	telemetry Telemetry
}

// NewSaveBannerCommand builds the command.
func NewSaveBannerCommand(service bannerSaver, telemetry Telemetry) *SaveBannerCommand {
	return &SaveBannerCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveBannerInput] = (*SaveBannerCommand)(nil)

// Execute sends the ordered selection and reloads from the server.
func (c *SaveBannerCommand) Execute(ctx context.Context, _ SaveBannerInput) error {
	if c.service == nil {
		return errors.New("save banner command requires service")
	}
	if err := c.service.Save(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "fundboard.banner.save", map[string]any{
		"project_ids": c.service.Selected(),
	})
	return nil
}
