package commands

import (
	"context"
	"errors"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

type recordService interface {
	AddLead(ctx context.Context, viewer dashboard.ViewerContext, input dashboard.NewLead) (dashboard.Lead, error)
	AddProperty(ctx context.Context, viewer dashboard.ViewerContext, input dashboard.NewProperty) (dashboard.Property, error)
	AddTask(ctx context.Context, viewer dashboard.ViewerContext, input dashboard.NewTask) (dashboard.Task, error)
}

// AddLeadInput carries a lead insert for a viewer. Created is filled on success.
type AddLeadInput struct {
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Lead    dashboard.NewLead       `json:"lead"`
	Created *dashboard.Lead         `json:"-"`
}

// AddLeadCommand inserts a lead through the dashboard service.
type AddLeadCommand struct {
	service   recordService
	telemetry Telemetry
}

// NewAddLeadCommand creates the command.
func NewAddLeadCommand(service recordService, telemetry Telemetry) *AddLeadCommand {
	return &AddLeadCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddLeadInput] = (*AddLeadCommand)(nil)

// Execute inserts the lead.
func (c *AddLeadCommand) Execute(ctx context.Context, msg AddLeadInput) error {
	if c.service == nil {
		return errors.New("add lead command requires service")
	}
	lead, err := c.service.AddLead(ctx, msg.Viewer, msg.Lead)
	if err != nil {
		return err
	}
	if msg.Created != nil {
		*msg.Created = lead
	}
	record(ctx, c.telemetry, "dashboard.lead.add", msg.Viewer, map[string]any{
		"source": lead.Source,
	})
	return nil
}

// AddPropertyInput carries a property insert for a viewer.
type AddPropertyInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	Property dashboard.NewProperty   `json:"property"`
	Created  *dashboard.Property     `json:"-"`
}

// AddPropertyCommand inserts a listing.
type AddPropertyCommand struct {
	service   recordService
	telemetry Telemetry
}

// NewAddPropertyCommand creates the command.
func NewAddPropertyCommand(service recordService, telemetry Telemetry) *AddPropertyCommand {
	return &AddPropertyCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddPropertyInput] = (*AddPropertyCommand)(nil)

// Execute inserts the property.
func (c *AddPropertyCommand) Execute(ctx context.Context, msg AddPropertyInput) error {
	if c.service == nil {
		return errors.New("add property command requires service")
	}
	property, err := c.service.AddProperty(ctx, msg.Viewer, msg.Property)
	if err != nil {
		return err
	}
	if msg.Created != nil {
		*msg.Created = property
	}
	record(ctx, c.telemetry, "dashboard.property.add", msg.Viewer, map[string]any{
		"property_type": property.PropertyType,
	})
	return nil
}

// AddTaskInput carries a task insert for a viewer.
type AddTaskInput struct {
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Task    dashboard.NewTask       `json:"task"`
	Created *dashboard.Task         `json:"-"`
}

// AddTaskCommand inserts a task assigned to the viewer.
type AddTaskCommand struct {
	service   recordService
	telemetry Telemetry
}

// NewAddTaskCommand creates the command.
func NewAddTaskCommand(service recordService, telemetry Telemetry) *AddTaskCommand {
	return &AddTaskCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddTaskInput] = (*AddTaskCommand)(nil)

// Execute inserts the task.
func (c *AddTaskCommand) Execute(ctx context.Context, msg AddTaskInput) error {
	if c.service == nil {
		return errors.New("add task command requires service")
	}
	task, err := c.service.AddTask(ctx, msg.Viewer, msg.Task)
	if err != nil {
		return err
	}
	if msg.Created != nil {
		*msg.Created = task
	}
	record(ctx, c.telemetry, "dashboard.task.add", msg.Viewer, map[string]any{
		"priority": task.Priority,
	})
	return nil
}
