package dashboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
	assert.Len(t, SettingsLeaves(), 21)
}

func TestToggleSystemHealthLeavesEverythingElse(t *testing.T) {
	before := DefaultSettings()
	after := before.UpdateWidgetVisibility(WidgetSystemHealth, false)

	assert.True(t, before.Widgets.SystemHealth, "receiver must not change")
	assert.False(t, after.Widgets.SystemHealth)

	expected := before
	expected.Widgets.SystemHealth = false
	assert.Equal(t, expected, after)
	assert.Equal(t, before.Filters, after.Filters)
	assert.Equal(t, before.Layout, after.Layout)
	assert.Equal(t, before.Charts, after.Charts)
	assert.Equal(t, before.View, after.View)
}

func TestUpdateMethodsPanicOnUnknownKeys(t *testing.T) {
	s := DefaultSettings()
	assert.Panics(t, func() { s.UpdateWidgetVisibility("calendar", true) })
	assert.Panics(t, func() { s.UpdateFilter("region", "north") })
	assert.Panics(t, func() { s.UpdateLayout("sidebar", true) })
	assert.Panics(t, func() { s.UpdateChart("heatmap", ChartBar) })
	assert.Panics(t, func() { s.UpdateView("font", "serif") })
	assert.Panics(t, func() { s.UpdateLayout(LayoutCompactView, "yes") })
}

func TestApplyRejectsUnknownAndInvalid(t *testing.T) {
	s := DefaultSettings()
	cases := []struct {
		name   string
		update SettingsUpdate
		target error
	}{
		{"unknown group", SettingsUpdate{Group: "sidebar", Key: "open", Value: true}, ErrUnknownSettingKey},
		{"unknown widget", SettingsUpdate{Group: GroupWidgets, Key: "calendar", Value: true}, ErrUnknownSettingKey},
		{"non bool widget", SettingsUpdate{Group: GroupWidgets, Key: string(WidgetAdminTasks), Value: "yes"}, ErrInvalidSettingValue},
		{"bad date range", SettingsUpdate{Group: GroupFilters, Key: string(FilterDateRange), Value: "2w"}, ErrInvalidSettingValue},
		{"empty filter", SettingsUpdate{Group: GroupFilters, Key: string(FilterLeadSource), Value: " "}, ErrInvalidSettingValue},
		{"chart kind not allowed for slot", SettingsUpdate{Group: GroupCharts, Key: string(ChartLeadPipeline), Value: "funnel"}, ErrInvalidSettingValue},
		{"bad theme", SettingsUpdate{Group: GroupView, Key: string(ViewTheme), Value: "sepia"}, ErrInvalidSettingValue},
		{"unknown layout", SettingsUpdate{Group: GroupLayout, Key: "sidebar", Value: true}, ErrUnknownSettingKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Apply(tc.update)
			require.ErrorIs(t, err, tc.target)
			assert.Equal(t, s, got)
		})
	}
}

func TestApplyAcceptsTypedAndStringValues(t *testing.T) {
	s, err := DefaultSettings().Apply(SettingsUpdate{Group: GroupLayout, Key: string(LayoutGridSize), Value: GridXL})
	require.NoError(t, err)
	assert.Equal(t, GridXL, s.Layout.GridSize)
	assert.Equal(t, 1, s.Layout.GridSize.Columns())

	s, err = s.Apply(SettingsUpdate{Group: GroupCharts, Key: string(ChartDealPipeline), Value: "funnel"})
	require.NoError(t, err)
	assert.Equal(t, ChartFunnel, s.Charts.Kind(ChartDealPipeline))
}

func TestSettingsValidateReportsEveryBadLeaf(t *testing.T) {
	s := DefaultSettings()
	s.View.Theme = "sepia"
	s.Charts.PerformanceChart = ChartArea
	err := s.Validate()
	require.ErrorIs(t, err, ErrInvalidSettingValue)
	assert.Contains(t, err.Error(), "view.theme")
	assert.Contains(t, err.Error(), "charts.performanceChart")
}

func TestApplyChangesExactlyOneLeaf(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := DefaultSettings()
		for range rapid.IntRange(0, 5).Draw(t, "warmup") {
			next, err := base.Apply(drawSettingsUpdate(t))
			if err != nil {
				t.Fatalf("warmup update rejected: %v", err)
			}
			base = next
		}
		snapshot := base

		update := drawSettingsUpdate(t)
		next, err := base.Apply(update)
		if err != nil {
			t.Fatalf("valid update rejected: %v", err)
		}
		if base != snapshot {
			t.Fatalf("receiver modified")
		}
		for _, leaf := range SettingsLeaves() {
			got, _ := next.Lookup(leaf.Group, leaf.Key)
			if leaf.Group == update.Group && leaf.Key == update.Key {
				if fmt.Sprint(got) != fmt.Sprint(update.Value) {
					t.Fatalf("%s.%s = %v, want %v", leaf.Group, leaf.Key, got, update.Value)
				}
				continue
			}
			want, _ := base.Lookup(leaf.Group, leaf.Key)
			if got != want {
				t.Fatalf("untouched leaf %s.%s changed from %v to %v", leaf.Group, leaf.Key, want, got)
			}
		}
		if err := next.Validate(); err != nil {
			t.Fatalf("result invalid: %v", err)
		}
	})
}

func drawSettingsUpdate(t *rapid.T) SettingsUpdate {
	leaf := rapid.SampledFrom(SettingsLeaves()).Draw(t, "leaf")
	update := SettingsUpdate{Group: leaf.Group, Key: leaf.Key}
	switch leaf.Group {
	case GroupWidgets:
		update.Value = rapid.Bool().Draw(t, "visible")
	case GroupFilters:
		if FilterKey(leaf.Key) == FilterDateRange {
			update.Value = rapid.SampledFrom(dateRanges).Draw(t, "range")
		} else {
			update.Value = rapid.SampledFrom([]string{FilterAll, "agent-1", "condo", "website"}).Draw(t, "filter")
		}
	case GroupLayout:
		switch LayoutKey(leaf.Key) {
		case LayoutGridSize:
			update.Value = rapid.SampledFrom([]string{"small", "medium", "large", "xl"}).Draw(t, "grid")
		case LayoutArrangement:
			update.Value = rapid.SampledFrom([]string{"default", "analytics-first", "operations-first", "custom"}).Draw(t, "arrangement")
		default:
			update.Value = rapid.Bool().Draw(t, "compact")
		}
	case GroupCharts:
		update.Value = string(rapid.SampledFrom(AllowedChartKinds(ChartKey(leaf.Key))).Draw(t, "kind"))
	case GroupView:
		switch ViewKey(leaf.Key) {
		case ViewTheme:
			update.Value = rapid.SampledFrom([]string{"system", "light", "dark"}).Draw(t, "theme")
		case ViewDensity:
			update.Value = rapid.SampledFrom([]string{"compact", "comfortable", "spacious"}).Draw(t, "density")
		default:
			update.Value = rapid.Bool().Draw(t, "animations")
		}
	}
	return update
}

func TestChangedLeavesNamesOnlyDifferences(t *testing.T) {
	before := DefaultSettings()
	after := before.UpdateView(ViewTheme, ThemeDark).UpdateFilter(FilterLeadSource, "website")
	assert.Equal(t, []string{"filters.leadSource", "view.theme"}, changedLeaves(before, after))
	assert.Empty(t, changedLeaves(before, before))
}
