package dashboard

import (
	"context"
	"fmt"
	"sync"
)

// InMemorySettingsRepository keeps per-viewer settings for the process
// lifetime. Viewers without saved settings get the repository defaults.
type InMemorySettingsRepository struct {
	mu           sync.RWMutex
	defaults     Settings
	defaultOrder []WidgetKey
	settings     map[string]Settings
	order        map[string][]WidgetKey
}

// NewInMemorySettingsRepository creates an empty repository seeded with defaults.
func NewInMemorySettingsRepository(defaults Settings) *InMemorySettingsRepository {
	return &InMemorySettingsRepository{
		defaults: defaults,
		settings: make(map[string]Settings),
		order:    make(map[string][]WidgetKey),
	}
}

// NewProfileSettingsRepository seeds the defaults and the custom widget
// order from a settings profile. A nil profile yields the built-in defaults.
func NewProfileSettingsRepository(profile *SettingsProfile) *InMemorySettingsRepository {
	if profile == nil {
		return NewInMemorySettingsRepository(DefaultSettings())
	}
	repo := NewInMemorySettingsRepository(profile.Settings)
	repo.defaultOrder = cleanOrder(profile.CustomOrder)
	return repo
}

// Settings returns stored settings or the defaults.
func (s *InMemorySettingsRepository) Settings(_ context.Context, viewer ViewerContext) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if settings, ok := s.settings[viewer.UserID]; ok && viewer.UserID != "" {
		return settings, nil
	}
	return s.defaults, nil
}

// SaveSettings stores settings for a viewer.
func (s *InMemorySettingsRepository) SaveSettings(_ context.Context, viewer ViewerContext, settings Settings) error {
	if viewer.UserID == "" {
		return fmt.Errorf("settings repository requires viewer user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[viewer.UserID] = settings
	return nil
}

// CustomOrder returns the widget order used by the custom arrangement.
func (s *InMemorySettingsRepository) CustomOrder(_ context.Context, viewer ViewerContext) ([]WidgetKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if order, ok := s.order[viewer.UserID]; ok {
		return append([]WidgetKey(nil), order...), nil
	}
	return append([]WidgetKey(nil), s.defaultOrder...), nil
}

// SaveCustomOrder stores the custom widget order, dropping unknown and
// repeated keys.
func (s *InMemorySettingsRepository) SaveCustomOrder(_ context.Context, viewer ViewerContext, order []WidgetKey) error {
	if viewer.UserID == "" {
		return fmt.Errorf("settings repository requires viewer user id")
	}
	cleaned := cleanOrder(order)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order[viewer.UserID] = cleaned
	return nil
}

func cleanOrder(order []WidgetKey) []WidgetKey {
	cleaned := make([]WidgetKey, 0, len(order))
	seen := make(map[WidgetKey]struct{}, len(order))
	for _, key := range order {
		if (&WidgetSettings{}).field(key) == nil {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, key)
	}
	return cleaned
}
