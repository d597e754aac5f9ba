package commands

import (
	"context"
	"errors"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

// RefreshDashboardInput re-fetches every collection for a viewer. Report is
// filled with the per-collection outcome when set.
type RefreshDashboardInput struct {
	Viewer dashboard.ViewerContext
	Report *dashboard.RefreshReport
}

type refreshService interface {
	Refresh(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.RefreshReport, error)
}

// RefreshDashboardCommand triggers a session refresh. Collection failures are
// reported, not returned.
type RefreshDashboardCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshDashboardCommand creates the command.
func NewRefreshDashboardCommand(service refreshService, telemetry Telemetry) *RefreshDashboardCommand {
	return &RefreshDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshDashboardInput] = (*RefreshDashboardCommand)(nil)

// Execute refreshes the viewer's session.
func (c *RefreshDashboardCommand) Execute(ctx context.Context, msg RefreshDashboardInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	report, err := c.service.Refresh(ctx, msg.Viewer)
	if err != nil {
		return err
	}
	if msg.Report != nil {
		*msg.Report = report
	}
	record(ctx, c.telemetry, "dashboard.refresh", msg.Viewer, map[string]any{
		"failed": len(report.Failed),
	})
	return nil
}
