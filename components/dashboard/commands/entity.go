package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
)

// UpdateStatusInput changes the status of one row. For videos Value is a visibility.
type UpdateStatusInput struct {
	Kind  dashboard.EntityKind
	ID    string
	Value string
}

type statusService interface {
	SetStatus(ctx context.Context, kind dashboard.EntityKind, id, value string) error
}

// UpdateStatusCommand wraps Admin.SetStatus.
type UpdateStatusCommand struct {
	service   statusService
	telemetry Telemetry
}

// NewUpdateStatusCommand builds the command.
func NewUpdateStatusCommand(service statusService, telemetry Telemetry) *UpdateStatusCommand {
	return &UpdateStatusCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateStatusInput] = (*UpdateStatusCommand)(nil)

// Execute applies the status change.
func (c *UpdateStatusCommand) Execute(ctx context.Context, msg UpdateStatusInput) error {
	if c.service == nil {
		return errors.New("update status command requires service")
	}
	if err := c.service.SetStatus(ctx, msg.Kind, msg.ID, msg.Value); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "fundboard.entity.status", map[string]any{
		"kind":  string(msg.Kind),
		"id":    msg.ID,
		"value": msg.Value,
	})
	return nil
}

// DeleteEntityInput removes one row. Confirmed skips the prompt when the caller
// already asked the user; otherwise Confirmer is consulted.
type DeleteEntityInput struct {
	Kind      dashboard.EntityKind
	ID        string
	Confirmed bool
	Confirmer dashboard.Confirmer
}

type deleteService interface {
	Delete(ctx context.Context, kind dashboard.EntityKind, id string, confirmer dashboard.Confirmer) error
}

// DeleteEntityCommand wraps Admin.Delete.
type DeleteEntityCommand struct {
	service   deleteService
	telemetry Telemetry
}

// NewDeleteEntityCommand builds the command.
func NewDeleteEntityCommand(service deleteService, telemetry Telemetry) *DeleteEntityCommand {
	return &DeleteEntityCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteEntityInput] = (*DeleteEntityCommand)(nil)

// Execute deletes the row.
func (c *DeleteEntityCommand) Execute(ctx context.Context, msg DeleteEntityInput) error {
	if c.service == nil {
		return errors.New("delete command requires service")
	}
	confirmer := msg.Confirmer
	if msg.Confirmed {
		confirmer = dashboard.AlwaysConfirm
	}
	if err := c.service.Delete(ctx, msg.Kind, msg.ID, confirmer); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "fundboard.entity.delete", map[string]any{
		"kind": string(msg.Kind),
		"id":   msg.ID,
	})
	return nil
}

// PublishProjectInput requests the draft to active transition.
type PublishProjectInput struct {
	ProjectID string
}

type publishService interface {
	Publish(ctx context.Context, id string) error
}

// PublishProjectCommand wraps Admin.Publish.
type PublishProjectCommand struct {
	service   publishService
	telemetry Telemetry
}

// NewPublishProjectCommand builds the command.
func NewPublishProjectCommand(service publishService, telemetry Telemetry) *PublishProjectCommand {
	return &PublishProjectCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PublishProjectInput] = (*PublishProjectCommand)(nil)

func (c *PublishProjectCommand) Execute(ctx context.Context, msg PublishProjectInput) error {
	if c.service == nil {
		return errors.New("publish command requires service")
	}
	if err := c.service.Publish(ctx, msg.ProjectID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "fundboard.project.publish", map[string]any{"id": msg.ProjectID})
	return nil
}
