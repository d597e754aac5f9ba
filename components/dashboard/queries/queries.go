package queries

import (
	"context"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

type layoutService interface {
	ConfigureLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error)
}

// LayoutQuery resolves the visible widgets with their payloads.
type LayoutQuery struct {
	service layoutService
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(service layoutService) *LayoutQuery {
	return &LayoutQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.Layout] = (*LayoutQuery)(nil)

// Query resolves the layout for the viewer's current settings.
func (q *LayoutQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error) {
	return q.service.ConfigureLayout(ctx, viewer)
}

type snapshotService interface {
	Snapshot(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Snapshot, error)
}

// SnapshotQuery returns the viewer's records, stats and tallies.
type SnapshotQuery struct {
	service snapshotService
}

// NewSnapshotQuery builds the query.
func NewSnapshotQuery(service snapshotService) *SnapshotQuery {
	return &SnapshotQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.Snapshot] = (*SnapshotQuery)(nil)

// Query loads the snapshot, fetching records on first use.
func (q *SnapshotQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Snapshot, error) {
	return q.service.Snapshot(ctx, viewer)
}

type settingsService interface {
	Settings(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Settings, error)
}

// SettingsQuery returns the viewer's current settings.
type SettingsQuery struct {
	service settingsService
}

// NewSettingsQuery builds the query.
func NewSettingsQuery(service settingsService) *SettingsQuery {
	return &SettingsQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.Settings] = (*SettingsQuery)(nil)

// Query returns the settings value.
func (q *SettingsQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Settings, error) {
	return q.service.Settings(ctx, viewer)
}
