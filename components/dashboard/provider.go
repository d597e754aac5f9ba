package dashboard

import (
	"context"
	"time"
)

// Provider builds the payload for a widget from the viewer's data.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers. Records have
// already been narrowed by the viewer's filters; Stats are derived from them.
type WidgetContext struct {
	Definition WidgetDefinition
	Viewer     ViewerContext
	Settings   Settings
	Records    Records
	Stats      Stats
	Health     map[string]string
	Now        time.Time
	Translator TranslationService
}

// WidgetData is an opaque payload passed to templates.
type WidgetData map[string]any
