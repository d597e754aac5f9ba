package dashboard

import (
	"context"
	"sync"
)

// SettingsListener receives the new settings after every change, with the
// context of the call that made it.
type SettingsListener func(ctx context.Context, previous, current Settings)

// SettingsStore holds the current Settings and notifies a single listener
// whenever a leaf is replaced.
type SettingsStore struct {
	mu       sync.RWMutex
	current  Settings
	listener SettingsListener
}

// NewSettingsStore builds a store seeded with the given settings.
func NewSettingsStore(initial Settings, listener SettingsListener) *SettingsStore {
	return &SettingsStore{current: initial, listener: listener}
}

// Current returns the current settings value.
func (s *SettingsStore) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetListener replaces the change listener.
func (s *SettingsStore) SetListener(listener SettingsListener) {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
}

// UpdateWidgetVisibility toggles a widget.
func (s *SettingsStore) UpdateWidgetVisibility(ctx context.Context, key WidgetKey, visible bool) Settings {
	return s.mutate(ctx, func(cur Settings) Settings { return cur.UpdateWidgetVisibility(key, visible) })
}

// UpdateFilter replaces a filter value.
func (s *SettingsStore) UpdateFilter(ctx context.Context, key FilterKey, value string) Settings {
	return s.mutate(ctx, func(cur Settings) Settings { return cur.UpdateFilter(key, value) })
}

// UpdateLayout replaces a layout option.
func (s *SettingsStore) UpdateLayout(ctx context.Context, key LayoutKey, value any) Settings {
	return s.mutate(ctx, func(cur Settings) Settings { return cur.UpdateLayout(key, value) })
}

// UpdateChart replaces a chart kind.
func (s *SettingsStore) UpdateChart(ctx context.Context, key ChartKey, kind ChartKind) Settings {
	return s.mutate(ctx, func(cur Settings) Settings { return cur.UpdateChart(key, kind) })
}

// UpdateView replaces a view preference.
func (s *SettingsStore) UpdateView(ctx context.Context, key ViewKey, value any) Settings {
	return s.mutate(ctx, func(cur Settings) Settings { return cur.UpdateView(key, value) })
}

// Apply validates and applies a tagged update.
func (s *SettingsStore) Apply(ctx context.Context, update SettingsUpdate) (Settings, error) {
	if err := update.Validate(); err != nil {
		return s.Current(), err
	}
	return s.mutate(ctx, func(cur Settings) Settings {
		next, _ := cur.Apply(update)
		return next
	}), nil
}

// Replace swaps the whole value, e.g. when loading a settings profile.
func (s *SettingsStore) Replace(ctx context.Context, next Settings) Settings {
	return s.mutate(ctx, func(Settings) Settings { return next })
}

func (s *SettingsStore) mutate(ctx context.Context, fn func(Settings) Settings) Settings {
	s.mu.Lock()
	previous := s.current
	s.current = fn(previous)
	current := s.current
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		listener(ctx, previous, current)
	}
	return current
}
