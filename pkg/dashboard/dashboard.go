// Package dashboard assembles the agency dashboard for host applications:
// service, controller, command and query handlers, and the broadcast hook.
package dashboard

import (
	"errors"
	"log/slog"
	"time"

	core "github.com/goliatone/go-agency-dashboard/components/dashboard"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/queries"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options configures New.
type Options struct {
	Records core.RecordStore
	// Profile, when set, supplies default settings, the custom widget order
	// and widget name translations.
	Profile *core.SettingsProfile
	// Renderer overrides the embedded go-template renderer.
	Renderer        core.Renderer
	Logger          *slog.Logger
	ChartAssetsHost string
	ChartHeight     string
	ChartCacheTTL   time.Duration
	// RecentLimit caps the follow-up and task list widgets.
	RecentLimit int

	RefetchAfterMutation bool
	ScopeProperties      bool
}

// Dashboard bundles the wired components.
type Dashboard struct {
	Service    *core.Service
	Controller *core.Controller
	Handlers   *httpapi.Handlers
	Broadcast  *core.BroadcastHook
	Seed       *commands.SeedRecordsCommand
}

// New wires a dashboard over opts.Records.
func New(opts Options) (*Dashboard, error) {
	if opts.Records == nil {
		return nil, errors.New("dashboard: record store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ttl := opts.ChartCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	chartOpts := []core.EChartsOption{core.WithChartCache(core.NewChartCache(ttl, 0))}
	if opts.ChartAssetsHost != "" {
		chartOpts = append(chartOpts, core.WithChartAssetsHost(opts.ChartAssetsHost))
	}
	if opts.ChartHeight != "" {
		chartOpts = append(chartOpts, core.WithChartHeight(opts.ChartHeight))
	}
	providerOpts := []core.ProviderOption{core.WithChartRenderer(core.NewEChartsRenderer(chartOpts...))}
	if opts.RecentLimit > 0 {
		providerOpts = append(providerOpts, core.WithRecentLimit(opts.RecentLimit))
	}
	registry := core.NewRegistry(providerOpts...)

	renderer := opts.Renderer
	if renderer == nil {
		var err error
		if renderer, err = core.NewTemplateRenderer(); err != nil {
			return nil, err
		}
	}

	broadcast := core.NewBroadcastHook()
	telemetry := core.NewSlogTelemetry(logger)
	service := core.NewService(core.Options{
		Records:              opts.Records,
		Settings:             core.NewProfileSettingsRepository(opts.Profile),
		Providers:            registry,
		EventHook:            broadcast,
		Notifier:             broadcast,
		Telemetry:            telemetry,
		Translator:           opts.Profile.TranslationService(),
		Logger:               logger,
		RefetchAfterMutation: opts.RefetchAfterMutation,
		ScopeProperties:      opts.ScopeProperties,
	})

	handlers := &httpapi.Handlers{
		Layout:         queries.NewLayoutQuery(service),
		Snapshot:       queries.NewSnapshotQuery(service),
		Settings:       queries.NewSettingsQuery(service),
		UpdateSettings: commands.NewUpdateSettingsCommand(service, telemetry),
		ResetSettings:  commands.NewResetSettingsCommand(service, telemetry),
		CustomOrder:    commands.NewSaveCustomOrderCommand(service, telemetry),
		Refresh:        commands.NewRefreshDashboardCommand(service, telemetry),
		AddLead:        commands.NewAddLeadCommand(service, telemetry),
		AddProperty:    commands.NewAddPropertyCommand(service, telemetry),
		AddTask:        commands.NewAddTaskCommand(service, telemetry),
		TaskStatus:     commands.NewUpdateTaskStatusCommand(service, telemetry),
		Events:         broadcast,
	}

	return &Dashboard{
		Service: service,
		Controller: core.NewController(core.ControllerOptions{
			Service:  service,
			Renderer: renderer,
		}),
		Handlers:  handlers,
		Broadcast: broadcast,
		Seed:      commands.NewSeedRecordsCommand(service, telemetry),
	}, nil
}
