package commands

import (
	"context"
	"errors"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

type settingsService interface {
	ApplySettings(ctx context.Context, viewer dashboard.ViewerContext, update dashboard.SettingsUpdate) (dashboard.Settings, error)
	ResetSettings(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Settings, error)
	SaveCustomOrder(ctx context.Context, viewer dashboard.ViewerContext, order []dashboard.WidgetKey) error
}

// UpdateSettingsInput applies one tagged leaf update for a viewer.
type UpdateSettingsInput struct {
	Viewer dashboard.ViewerContext  `json:"viewer"`
	Update dashboard.SettingsUpdate `json:"update"`
	Result *dashboard.Settings      `json:"-"`
}

// UpdateSettingsCommand wraps Service.ApplySettings.
type UpdateSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewUpdateSettingsCommand creates the command.
func NewUpdateSettingsCommand(service settingsService, telemetry Telemetry) *UpdateSettingsCommand {
	return &UpdateSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateSettingsInput] = (*UpdateSettingsCommand)(nil)

// Execute validates and applies the update.
func (c *UpdateSettingsCommand) Execute(ctx context.Context, msg UpdateSettingsInput) error {
	if c.service == nil {
		return errors.New("settings command requires service")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("settings command requires viewer user id")
	}
	settings, err := c.service.ApplySettings(ctx, msg.Viewer, msg.Update)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = settings
	}
	record(ctx, c.telemetry, "dashboard.settings.update", msg.Viewer, map[string]any{
		"group": string(msg.Update.Group),
		"key":   msg.Update.Key,
	})
	return nil
}

// ResetSettingsInput restores defaults for a viewer.
type ResetSettingsInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
}

// ResetSettingsCommand wraps Service.ResetSettings.
type ResetSettingsCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewResetSettingsCommand creates the command.
func NewResetSettingsCommand(service settingsService, telemetry Telemetry) *ResetSettingsCommand {
	return &ResetSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetSettingsInput] = (*ResetSettingsCommand)(nil)

// Execute resets the viewer's settings.
func (c *ResetSettingsCommand) Execute(ctx context.Context, msg ResetSettingsInput) error {
	if c.service == nil {
		return errors.New("reset settings command requires service")
	}
	if _, err := c.service.ResetSettings(ctx, msg.Viewer); err != nil {
		return err
	}
	record(ctx, c.telemetry, "dashboard.settings.reset", msg.Viewer, nil)
	return nil
}

// SaveCustomOrderInput stores the widget order used by the custom arrangement.
type SaveCustomOrderInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Order  []dashboard.WidgetKey   `json:"order"`
}

// SaveCustomOrderCommand wraps Service.SaveCustomOrder.
type SaveCustomOrderCommand struct {
	service   settingsService
	telemetry Telemetry
}

// NewSaveCustomOrderCommand creates the command.
func NewSaveCustomOrderCommand(service settingsService, telemetry Telemetry) *SaveCustomOrderCommand {
	return &SaveCustomOrderCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveCustomOrderInput] = (*SaveCustomOrderCommand)(nil)

// Execute saves the order.
func (c *SaveCustomOrderCommand) Execute(ctx context.Context, msg SaveCustomOrderInput) error {
	if c.service == nil {
		return errors.New("custom order command requires service")
	}
	if len(msg.Order) == 0 {
		return errors.New("custom order command requires at least one widget")
	}
	if err := c.service.SaveCustomOrder(ctx, msg.Viewer, msg.Order); err != nil {
		return err
	}
	record(ctx, c.telemetry, "dashboard.layout.custom_order", msg.Viewer, map[string]any{
		"count": len(msg.Order),
	})
	return nil
}
