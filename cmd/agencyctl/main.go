package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	core "github.com/goliatone/go-agency-dashboard/components/dashboard"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/gorouter"
	"github.com/goliatone/go-agency-dashboard/internal/config"
	agency "github.com/goliatone/go-agency-dashboard/pkg/dashboard"
	"github.com/goliatone/go-agency-dashboard/pkg/records"
	"github.com/goliatone/go-agency-dashboard/pkg/records/sqlite"
)

type cli struct {
	Store   string `help:"Record store backend (memory, rest, sqlite). Overrides AGENCY_DASHBOARD_STORE."`
	Profile string `type:"path" help:"Settings profile YAML. Overrides AGENCY_DASHBOARD_PROFILE."`

	Serve       serveCmd   `cmd:"" help:"Serve the dashboard over HTTP."`
	Stats       statsCmd   `cmd:"" help:"Print the dashboard snapshot for a user as JSON."`
	Seed        seedCmd    `cmd:"" help:"Insert sample leads, properties, tasks and deals for a user."`
	ProfileTool profileCmd `cmd:"" name:"profile" help:"Create or check settings profiles."`
}

// runtime carries what every command needs.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("agencyctl"),
		kong.Description("Agency dashboard server and tooling."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	ctx.FatalIfErrorf(err)
	if app.Store != "" {
		cfg.Store = app.Store
	}
	if app.Profile != "" {
		cfg.ProfilePath = app.Profile
	}
	ctx.FatalIfErrorf(cfg.Validate())
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.BindTo(runCtx, (*context.Context)(nil))
	err = ctx.Run(&runtime{cfg: cfg, logger: logger})
	ctx.FatalIfErrorf(err)
}

// openStore builds the configured record store. The returned closer is never nil.
func openStore(ctx context.Context, rt *runtime) (core.RecordStore, func() error, error) {
	noop := func() error { return nil }
	switch rt.cfg.Store {
	case config.StoreREST:
		client, err := records.NewRESTClient(records.RESTConfig{BaseURL: rt.cfg.RESTURL, APIKey: rt.cfg.RESTKey})
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, rt.cfg.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("agencyctl: %w", err)
		}
		return store, store.Close, nil
	default:
		return records.NewMemoryStore(core.Records{}), noop, nil
	}
}

func buildDashboard(rt *runtime, store core.RecordStore) (*agency.Dashboard, error) {
	var profile *core.SettingsProfile
	if rt.cfg.ProfilePath != "" {
		var err error
		if profile, err = core.ReadProfile(rt.cfg.ProfilePath); err != nil {
			return nil, err
		}
		rt.logger.Info("settings profile loaded", "path", profile.Source)
	}
	return agency.New(agency.Options{
		Records:              store,
		Profile:              profile,
		Logger:               rt.logger,
		ChartAssetsHost:      rt.cfg.ChartAssetsHost,
		RefetchAfterMutation: rt.cfg.RefetchAfterMutation,
		ScopeProperties:      rt.cfg.ScopeProperties,
	})
}

// seedSample inserts the sample dataset for userID through the dashboard so
// payloads are validated like form input.
func seedSample(ctx context.Context, dash *agency.Dashboard, store core.RecordStore, userID string) error {
	sample := records.SampleData(userID, time.Now())
	if inserter, ok := store.(records.DealInserter); ok {
		if _, err := records.SeedDeals(ctx, inserter, sample.Deals); err != nil {
			return err
		}
	}
	return dash.Seed.Execute(ctx, commands.SeedRecordsInput{
		Viewer:     core.ViewerContext{UserID: userID},
		Leads:      sample.Leads,
		Properties: sample.Properties,
		Tasks:      sample.Tasks,
	})
}

type serveCmd struct {
	Addr     string `help:"Listen address. Overrides AGENCY_DASHBOARD_ADDR."`
	DemoUser string `name:"demo-user" help:"Seed sample data for this user before serving and use it for requests without a user id."`
}

func (cmd *serveCmd) Run(ctx context.Context, rt *runtime) error {
	store, closeStore, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer closeStore()

	dash, err := buildDashboard(rt, store)
	if err != nil {
		return err
	}
	if cmd.DemoUser != "" {
		if err := seedSample(ctx, dash, store, cmd.DemoUser); err != nil {
			return fmt.Errorf("agencyctl: seed demo data: %w", err)
		}
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:         server.Router(),
		Controller:     dash.Controller,
		API:            dash.Handlers,
		Broadcast:      dash.Broadcast,
		ViewerResolver: gorouter.WithFallbackUser(cmd.DemoUser),
	}); err != nil {
		return fmt.Errorf("agencyctl: register routes: %w", err)
	}

	addr := cmd.Addr
	if addr == "" {
		addr = rt.cfg.Addr
	}
	rt.logger.Info("dashboard routes ready", "addr", addr, "store", rt.cfg.Store, "path", "/admin/dashboard")

	errs := make(chan error, 1)
	go func() { errs <- server.Serve(addr) }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		rt.logger.Info("shutting down")
		return nil
	}
}

type statsCmd struct {
	User string `required:"" help:"Viewer user id."`
}

func (cmd *statsCmd) Run(ctx context.Context, rt *runtime) error {
	store, closeStore, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer closeStore()
	dash, err := buildDashboard(rt, store)
	if err != nil {
		return err
	}
	snapshot, err := dash.Service.Snapshot(ctx, core.ViewerContext{UserID: cmd.User})
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, snapshot)
}

type seedCmd struct {
	User string `required:"" help:"Owner of the sample records."`
}

func (cmd *seedCmd) Run(ctx context.Context, rt *runtime) error {
	if rt.cfg.Store == config.StoreMemory {
		return fmt.Errorf("agencyctl: seeding the memory store has no lasting effect; use serve --demo-user")
	}
	store, closeStore, err := openStore(ctx, rt)
	if err != nil {
		return err
	}
	defer closeStore()
	dash, err := buildDashboard(rt, store)
	if err != nil {
		return err
	}
	if err := seedSample(ctx, dash, store, cmd.User); err != nil {
		return err
	}
	rt.logger.Info("sample records seeded", "user", cmd.User, "store", rt.cfg.Store)
	return nil
}

type profileCmd struct {
	Init  profileInitCmd  `cmd:"" help:"Write a profile holding the default settings."`
	Check profileCheckCmd `cmd:"" help:"Validate a profile."`
}

type profileInitCmd struct {
	Path      string `arg:"" type:"path" help:"Destination YAML file."`
	Overwrite bool   `help:"Replace an existing file."`
}

func (cmd *profileInitCmd) Run(rt *runtime) error {
	if _, err := os.Stat(cmd.Path); err == nil && !cmd.Overwrite {
		return fmt.Errorf("agencyctl: profile %s already exists (use --overwrite)", cmd.Path)
	}
	if err := os.MkdirAll(filepath.Dir(cmd.Path), 0o755); err != nil {
		return fmt.Errorf("agencyctl: mkdir %s: %w", filepath.Dir(cmd.Path), err)
	}
	file, err := os.Create(cmd.Path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("agencyctl: create profile %s: %w", cmd.Path, err)
	}
	defer file.Close()
	profile := &core.SettingsProfile{Version: core.ProfileVersion, Settings: core.DefaultSettings()}
	if err := core.EncodeProfile(file, profile); err != nil {
		return err
	}
	rt.logger.Info("profile written", "path", cmd.Path)
	return nil
}

type profileCheckCmd struct {
	Path string `arg:"" type:"existingfile" help:"Profile YAML to validate."`
}

func (cmd *profileCheckCmd) Run(rt *runtime) error {
	profile, err := core.ReadProfile(cmd.Path)
	if err != nil {
		return err
	}
	rt.logger.Info("profile ok", "path", profile.Source, "custom_order", len(profile.CustomOrder))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
