package commands

import (
	"context"
	"errors"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

// SeedRecordsInput lists sample records inserted for a viewer.
type SeedRecordsInput struct {
	Viewer     dashboard.ViewerContext
	Leads      []dashboard.NewLead
	Properties []dashboard.NewProperty
	Tasks      []dashboard.NewTask
}

// SeedRecordsCommand inserts sample records through the service so they pass
// the same validation as user input.
type SeedRecordsCommand struct {
	service   recordService
	telemetry Telemetry
}

// NewSeedRecordsCommand wires dependencies.
func NewSeedRecordsCommand(service recordService, telemetry Telemetry) *SeedRecordsCommand {
	return &SeedRecordsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedRecordsInput] = (*SeedRecordsCommand)(nil)

// Execute inserts every record, stopping at the first failure.
func (c *SeedRecordsCommand) Execute(ctx context.Context, msg SeedRecordsInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	for _, lead := range msg.Leads {
		if _, err := c.service.AddLead(ctx, msg.Viewer, lead); err != nil {
			return err
		}
	}
	for _, property := range msg.Properties {
		if _, err := c.service.AddProperty(ctx, msg.Viewer, property); err != nil {
			return err
		}
	}
	for _, task := range msg.Tasks {
		if _, err := c.service.AddTask(ctx, msg.Viewer, task); err != nil {
			return err
		}
	}
	record(ctx, c.telemetry, "dashboard.seed", msg.Viewer, map[string]any{
		"leads":      len(msg.Leads),
		"properties": len(msg.Properties),
		"tasks":      len(msg.Tasks),
	})
	return nil
}
