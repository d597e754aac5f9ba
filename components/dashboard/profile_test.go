package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProfileMergesOverDefaults(t *testing.T) {
	doc := `
version: "1"
name: night-shift
settings:
  filters:
    dateRange: 90d
  view:
    theme: dark
  widgets:
    systemHealth: false
custom_order: [adminTasks, leadPipeline]
translations:
  ES:
    dashboard.widget.adminTasks.title: Tareas del día
`
	profile, err := DecodeProfile(strings.NewReader(doc))
	require.NoError(t, err)

	want := DefaultSettings().
		UpdateFilter(FilterDateRange, "90d").
		UpdateView(ViewTheme, ThemeDark).
		UpdateWidgetVisibility(WidgetSystemHealth, false)
	assert.Equal(t, want, profile.Settings)
	assert.Equal(t, []WidgetKey{WidgetAdminTasks, WidgetLeadPipeline}, profile.CustomOrder)

	translator := profile.TranslationService()
	require.NotNil(t, translator)
	got, err := translator.Translate(t.Context(), "dashboard.widget.adminTasks.title", "es", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tareas del día", got)
}

func TestDecodeProfileRejectsUnknownFields(t *testing.T) {
	_, err := DecodeProfile(strings.NewReader("version: \"1\"\nsettings:\n  widgets:\n    weather: true\n"))
	require.Error(t, err)
}

func TestDecodeProfileRejectsInvalidValues(t *testing.T) {
	_, err := DecodeProfile(strings.NewReader("settings:\n  charts:\n    dealPipelineChart: radar\n"))
	require.ErrorIs(t, err, ErrInvalidSettingValue)
}

func TestDecodeProfileRejectsBadOrder(t *testing.T) {
	_, err := DecodeProfile(strings.NewReader("custom_order: [leadPipeline, leadPipeline]\n"))
	require.Error(t, err)
	_, err = DecodeProfile(strings.NewReader("version: \"2\"\n"))
	require.Error(t, err)
}

func TestDecodeProfileEmpty(t *testing.T) {
	_, err := DecodeProfile(strings.NewReader(""))
	require.Error(t, err)
}

func TestReadProfileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: {}\n"), 0o600))
	_, err := ReadProfile(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("settings:\n  layout:\n    gridSize: xl\n"), 0o600))
	profile, err := ReadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, GridXL, profile.Settings.Layout.GridSize)
	assert.Equal(t, 1, profile.Settings.Layout.GridSize.Columns())
	assert.Equal(t, path, profile.Source)
}

func TestEncodeProfileIsReadable(t *testing.T) {
	var buf strings.Builder
	profile := &SettingsProfile{Version: ProfileVersion, Settings: DefaultSettings(), CustomOrder: []WidgetKey{WidgetAdminTasks}}
	require.NoError(t, EncodeProfile(&buf, profile))
	assert.Contains(t, buf.String(), "dateRange: 30d")

	decoded, err := DecodeProfile(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), decoded.Settings)
	assert.Equal(t, []WidgetKey{WidgetAdminTasks}, decoded.CustomOrder)
}
