package dashboard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsDefaultOrder(t *testing.T) {
	reg := NewRegistry()
	defs := reg.Definitions()
	builtin := DefaultWidgetDefinitions()
	require.Len(t, defs, len(builtin))
	for i, def := range builtin {
		assert.Equal(t, def.Key, defs[i].Key)
		assert.Equal(t, WidgetCode(def.Key), defs[i].Code)
	}
}

func TestRegistryReplacesProviderInPlace(t *testing.T) {
	reg := NewRegistry()
	custom := ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{"custom": true}, nil
	})
	require.NoError(t, reg.RegisterProvider(WidgetSystemHealth, custom))

	provider, ok := reg.Provider(WidgetSystemHealth)
	require.True(t, ok)
	data, err := provider.Fetch(t.Context(), WidgetContext{})
	require.NoError(t, err)
	assert.Equal(t, true, data["custom"])

	def, ok := reg.Definition(WidgetSystemHealth)
	require.True(t, ok)
	def.Name = "Service Health"
	before := definitionKeys(reg.Definitions())
	require.NoError(t, reg.RegisterDefinition(def))
	assert.Equal(t, before, definitionKeys(reg.Definitions()))
	updated, _ := reg.Definition(WidgetSystemHealth)
	assert.Equal(t, "Service Health", updated.Name)
}

func TestRegisterWidgetHookRunsOnNewRegistries(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[*Registry]bool{}
	)
	RegisterWidgetHook(func(reg *Registry) error {
		mu.Lock()
		defer mu.Unlock()
		seen[reg] = true
		return nil
	})
	reg := NewRegistry()
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen[reg])
}

func definitionKeys(defs []WidgetDefinition) []WidgetKey {
	keys := make([]WidgetKey, len(defs))
	for i, def := range defs {
		keys[i] = def.Key
	}
	return keys
}
