package commands

import (
	"context"
	"errors"
	"strings"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

// UpdateTaskStatusInput moves a task to a new status. An empty status means
// completed.
type UpdateTaskStatusInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	TaskID string                  `json:"task_id"`
	Status string                  `json:"status"`
}

type taskService interface {
	UpdateTaskStatus(ctx context.Context, viewer dashboard.ViewerContext, taskID, status string) error
}

// UpdateTaskStatusCommand wraps Service.UpdateTaskStatus.
type UpdateTaskStatusCommand struct {
	service   taskService
	telemetry Telemetry
}

// NewUpdateTaskStatusCommand creates the command.
func NewUpdateTaskStatusCommand(service taskService, telemetry Telemetry) *UpdateTaskStatusCommand {
	return &UpdateTaskStatusCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateTaskStatusInput] = (*UpdateTaskStatusCommand)(nil)

// Execute updates the task status.
func (c *UpdateTaskStatusCommand) Execute(ctx context.Context, msg UpdateTaskStatusInput) error {
	if c.service == nil {
		return errors.New("task status command requires service")
	}
	if strings.TrimSpace(msg.TaskID) == "" {
		return errors.New("task status command requires task id")
	}
	status := strings.TrimSpace(msg.Status)
	if status == "" {
		status = dashboard.TaskStatusCompleted
	}
	if err := c.service.UpdateTaskStatus(ctx, msg.Viewer, msg.TaskID, status); err != nil {
		return err
	}
	record(ctx, c.telemetry, "dashboard.task.status", msg.Viewer, map[string]any{
		"task_id": msg.TaskID,
		"status":  status,
	})
	return nil
}
