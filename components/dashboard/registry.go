package dashboard

import (
	"fmt"
	"sync"
)

// WidgetHook lets packages register providers during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// ProviderRegistry resolves widget definitions and their providers.
type ProviderRegistry interface {
	Definition(key WidgetKey) (WidgetDefinition, bool)
	Provider(key WidgetKey) (Provider, bool)
	Definitions() []WidgetDefinition
}

// Registry implements ProviderRegistry. Definitions keep their registration
// order, which is the default widget order.
type Registry struct {
	mu          sync.RWMutex
	order       []WidgetKey
	definitions map[WidgetKey]WidgetDefinition
	providers   map[WidgetKey]Provider
}

// NewRegistry builds a registry holding the built-in widgets and providers,
// then applies global hooks.
func NewRegistry(opts ...ProviderOption) *Registry {
	reg := &Registry{
		definitions: map[WidgetKey]WidgetDefinition{},
		providers:   map[WidgetKey]Provider{},
	}
	reg.registerDefaults(newProviderConfig(opts))
	_ = reg.ApplyHooks()
	return reg
}

func (r *Registry) registerDefaults(cfg providerConfig) {
	providers := defaultProviders(cfg)
	for _, def := range DefaultWidgetDefinitions() {
		_ = r.RegisterDefinition(def)
		if provider, ok := providers[def.Key]; ok {
			_ = r.RegisterProvider(def.Key, provider)
		}
	}
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores widget metadata. Re-registering a key replaces
// its definition and keeps its position.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Key == "" {
		return fmt.Errorf("widget definition key is required")
	}
	if (&WidgetSettings{}).field(def.Key) == nil {
		return fmt.Errorf("widget %s is not a known dashboard widget", def.Key)
	}
	if def.Code == "" {
		def.Code = WidgetCode(def.Key)
	}
	def.normalizeLocalizedFields()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Key]; !exists {
		r.order = append(r.order, def.Key)
	}
	r.definitions[def.Key] = def
	return nil
}

// RegisterProvider associates a provider implementation with a widget.
func (r *Registry) RegisterProvider(key WidgetKey, provider Provider) error {
	if key == "" {
		return fmt.Errorf("widget key is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[key]; !ok {
		return fmt.Errorf("widget definition %s not found", key)
	}
	r.providers[key] = provider
	return nil
}

// Definition fetches a widget definition by key.
func (r *Registry) Definition(key WidgetKey) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[key]
	return def, ok
}

// Provider fetches a widget provider by key.
func (r *Registry) Provider(key WidgetKey) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[key]
	return provider, ok
}

// Definitions returns all registered definitions in registration order.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WidgetDefinition, 0, len(r.order))
	for _, key := range r.order {
		defs = append(defs, r.definitions[key])
	}
	return defs
}
