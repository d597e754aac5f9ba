package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var errMissingSettingsRepo = errors.New("dashboard: settings repository not configured")

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Records    RecordStore
	Settings   SettingsRepository
	Providers  ProviderRegistry
	Validator  PayloadValidator
	EventHook  EventHook
	Notifier   Notifier
	Telemetry  Telemetry
	Translator TranslationService
	Logger     *slog.Logger
	Clock      Clock
	// RefetchAfterMutation makes sessions run a full refresh after each
	// successful mutation.
	RefetchAfterMutation bool
	// ScopeProperties limits property reads to the viewer.
	ScopeProperties bool
}

// Service owns one Session and one SettingsStore per viewer and resolves
// dashboard layouts from them.
type Service struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
	stores   map[string]*SettingsStore
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Settings == nil {
		opts.Settings = NewInMemorySettingsRepository(DefaultSettings())
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.EventHook == nil {
		opts.EventHook = noopEventHook{}
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{
		opts:     opts,
		sessions: make(map[string]*Session),
		stores:   make(map[string]*SettingsStore),
	}
}

// Providers exposes the widget registry.
func (s *Service) Providers() ProviderRegistry {
	return s.opts.Providers
}

// Session returns the viewer's session, creating it on first use.
func (s *Service) Session(viewer ViewerContext) (*Session, error) {
	if viewer.UserID == "" {
		return nil, errMissingViewer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[viewer.UserID]; ok {
		return session, nil
	}
	session, err := NewSession(SessionOptions{
		Viewer:               viewer,
		Store:                s.opts.Records,
		Validator:            s.opts.Validator,
		Notifier:             s.opts.Notifier,
		Hook:                 s.opts.EventHook,
		Telemetry:            s.opts.Telemetry,
		Logger:               s.opts.Logger,
		Clock:                s.opts.Clock,
		RefetchAfterMutation: s.opts.RefetchAfterMutation,
		ScopeProperties:      s.opts.ScopeProperties,
	})
	if err != nil {
		return nil, err
	}
	s.sessions[viewer.UserID] = session
	return session, nil
}

// loadedSession returns the viewer's session after its first refresh.
func (s *Service) loadedSession(ctx context.Context, viewer ViewerContext) (*Session, error) {
	session, err := s.Session(viewer)
	if err != nil {
		return nil, err
	}
	if session.Loading() {
		session.Refresh(ctx)
	}
	return session, nil
}

// Refresh re-fetches all collections for the viewer.
func (s *Service) Refresh(ctx context.Context, viewer ViewerContext) (RefreshReport, error) {
	session, err := s.Session(viewer)
	if err != nil {
		return RefreshReport{}, err
	}
	return session.Refresh(ctx), nil
}

// Snapshot returns the viewer's records and stats, loading them if needed.
func (s *Service) Snapshot(ctx context.Context, viewer ViewerContext) (Snapshot, error) {
	session, err := s.loadedSession(ctx, viewer)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// AddLead inserts a lead for the viewer.
func (s *Service) AddLead(ctx context.Context, viewer ViewerContext, input NewLead) (Lead, error) {
	session, err := s.loadedSession(ctx, viewer)
	if err != nil {
		return Lead{}, err
	}
	return session.AddLead(ctx, input)
}

// AddProperty inserts a property for the viewer.
func (s *Service) AddProperty(ctx context.Context, viewer ViewerContext, input NewProperty) (Property, error) {
	session, err := s.loadedSession(ctx, viewer)
	if err != nil {
		return Property{}, err
	}
	return session.AddProperty(ctx, input)
}

// AddTask inserts a task for the viewer.
func (s *Service) AddTask(ctx context.Context, viewer ViewerContext, input NewTask) (Task, error) {
	session, err := s.loadedSession(ctx, viewer)
	if err != nil {
		return Task{}, err
	}
	return session.AddTask(ctx, input)
}

// UpdateTaskStatus changes a task status for the viewer.
func (s *Service) UpdateTaskStatus(ctx context.Context, viewer ViewerContext, taskID, status string) error {
	session, err := s.loadedSession(ctx, viewer)
	if err != nil {
		return err
	}
	return session.UpdateTaskStatus(ctx, taskID, status)
}

// SettingsStore returns the viewer's settings store, seeded from the
// repository. Every change is saved back and broadcast.
func (s *Service) SettingsStore(ctx context.Context, viewer ViewerContext) (*SettingsStore, error) {
	if viewer.UserID == "" {
		return nil, errMissingViewer
	}
	if s.opts.Settings == nil {
		return nil, errMissingSettingsRepo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.stores[viewer.UserID]; ok {
		return store, nil
	}
	initial, err := s.opts.Settings.Settings(ctx, viewer)
	if err != nil {
		return nil, err
	}
	store := NewSettingsStore(initial, s.settingsListener(viewer))
	s.stores[viewer.UserID] = store
	return store, nil
}

func (s *Service) settingsListener(viewer ViewerContext) SettingsListener {
	return func(ctx context.Context, previous, current Settings) {
		if err := s.opts.Settings.SaveSettings(ctx, viewer, current); err != nil {
			s.opts.Logger.Error("save dashboard settings", "user_id", viewer.UserID, "error", err)
		}
		event := DashboardEvent{UserID: viewer.UserID, Reason: "settings", Settings: &current}
		if err := s.opts.EventHook.DashboardUpdated(ctx, event); err != nil {
			s.opts.Logger.Warn("dashboard event hook failed", "reason", event.Reason, "error", err)
		}
		s.opts.Telemetry.Record(ctx, "dashboard.settings.change", map[string]any{
			"user_id": viewer.UserID,
			"changed": changedLeaves(previous, current),
		})
	}
}

// Settings returns the viewer's current settings.
func (s *Service) Settings(ctx context.Context, viewer ViewerContext) (Settings, error) {
	store, err := s.SettingsStore(ctx, viewer)
	if err != nil {
		return Settings{}, err
	}
	return store.Current(), nil
}

// ApplySettings validates and applies a tagged update for the viewer.
func (s *Service) ApplySettings(ctx context.Context, viewer ViewerContext, update SettingsUpdate) (Settings, error) {
	store, err := s.SettingsStore(ctx, viewer)
	if err != nil {
		return Settings{}, err
	}
	return store.Apply(ctx, update)
}

// ResetSettings restores the default settings for the viewer.
func (s *Service) ResetSettings(ctx context.Context, viewer ViewerContext) (Settings, error) {
	store, err := s.SettingsStore(ctx, viewer)
	if err != nil {
		return Settings{}, err
	}
	return store.Replace(ctx, DefaultSettings()), nil
}

// SaveCustomOrder stores the widget order used by the custom arrangement.
func (s *Service) SaveCustomOrder(ctx context.Context, viewer ViewerContext, order []WidgetKey) error {
	if viewer.UserID == "" {
		return errMissingViewer
	}
	if err := s.opts.Settings.SaveCustomOrder(ctx, viewer, order); err != nil {
		return err
	}
	s.opts.Telemetry.Record(ctx, "dashboard.layout.reorder", map[string]any{
		"user_id": viewer.UserID,
		"count":   len(order),
	})
	return nil
}

// ConfigureLayout resolves the visible widgets for the viewer in arrangement
// order and attaches provider data computed over the filtered records.
func (s *Service) ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error) {
	settings, err := s.Settings(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	session, err := s.loadedSession(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	order, err := s.opts.Settings.CustomOrder(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	snapshot := session.Snapshot()
	now := s.opts.Clock()

	defs := ArrangeDefinitions(s.opts.Providers.Definitions(), settings.Layout.Arrangement, order)
	defs = VisibleDefinitions(defs, settings.Widgets)

	filtered := ApplyFilters(snapshot.Records, settings.Filters, now)
	meta := WidgetContext{
		Viewer:     viewer,
		Settings:   settings,
		Records:    filtered,
		Stats:      ComputeRecordStats(filtered, now),
		Health:     snapshot.Health,
		Now:        now,
		Translator: s.opts.Translator,
	}

	layout := Layout{
		Viewer:        viewer,
		Loading:       snapshot.Loading,
		Settings:      settings,
		View:          NewViewPresentation(settings, ChartThemeFor(settings.View.Theme)),
		Stats:         snapshot.Stats,
		ActiveFilters: ActiveFilters(settings.Filters),
		Widgets:       s.attachProviderData(ctx, meta, defs),
	}
	s.opts.Telemetry.Record(ctx, "dashboard.layout.resolve", map[string]any{
		"viewer":  viewer.UserID,
		"widgets": len(layout.Widgets),
	})
	return layout, nil
}

func (s *Service) attachProviderData(ctx context.Context, meta WidgetContext, defs []WidgetDefinition) []WidgetInstance {
	widgets := make([]WidgetInstance, 0, len(defs))
	locale := meta.Viewer.Locale
	for i, def := range defs {
		prefix := "dashboard.widget." + string(def.Key)
		instance := WidgetInstance{
			ID:          def.Code,
			Key:         def.Key,
			Definition:  def,
			Name:        translateOrFallback(ctx, meta.Translator, prefix+".title", locale, def.NameForLocale(locale), nil),
			Description: translateOrFallback(ctx, meta.Translator, prefix+".description", locale, def.DescriptionForLocale(locale), nil),
			Position:    i,
		}
		provider, ok := s.opts.Providers.Provider(def.Key)
		if ok && provider != nil {
			widgetMeta := meta
			widgetMeta.Definition = def
			data, err := provider.Fetch(ctx, widgetMeta)
			if err != nil {
				instance.Error = err.Error()
				s.opts.Logger.Warn("dashboard widget provider failed", "widget", def.Code, "error", err)
				s.opts.Telemetry.Record(ctx, "dashboard.widget.provider_error", map[string]any{
					"widget": def.Code,
					"error":  err.Error(),
				})
			} else {
				instance.Data = data
			}
		}
		widgets = append(widgets, instance)
	}
	return widgets
}

func changedLeaves(previous, current Settings) []string {
	var changed []string
	for _, leaf := range SettingsLeaves() {
		before, _ := previous.Lookup(leaf.Group, leaf.Key)
		after, _ := current.Lookup(leaf.Group, leaf.Key)
		if before != after {
			changed = append(changed, string(leaf.Group)+"."+leaf.Key)
		}
	}
	return changed
}
