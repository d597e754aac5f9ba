package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownSettingKey is returned when a tagged update names a group/key pair that does not exist.
	ErrUnknownSettingKey = errors.New("dashboard: unknown setting key")
	// ErrInvalidSettingValue is returned when a tagged update carries a value of the wrong type or outside the enumeration.
	ErrInvalidSettingValue = errors.New("dashboard: invalid setting value")
)

// FilterAll is the sentinel filter value meaning "no filter applied".
const FilterAll = "all"

// SettingsGroup names one of the five independent configuration groups.
type SettingsGroup string

const (
	GroupWidgets SettingsGroup = "widgets"
	GroupFilters SettingsGroup = "filters"
	GroupLayout  SettingsGroup = "layout"
	GroupCharts  SettingsGroup = "charts"
	GroupView    SettingsGroup = "view"
)

// WidgetKey identifies one of the toggleable dashboard panels.
type WidgetKey string

const (
	WidgetLeadPipeline     WidgetKey = "leadPipeline"
	WidgetDealPipeline     WidgetKey = "dealPipeline"
	WidgetAgentPerformance WidgetKey = "agentPerformance"
	WidgetClientFollowup   WidgetKey = "clientFollowup"
	WidgetAdminTasks       WidgetKey = "adminTasks"
	WidgetSystemHealth     WidgetKey = "systemHealth"
	WidgetReportsInsights  WidgetKey = "reportsInsights"
	WidgetCriticalAlerts   WidgetKey = "criticalAlerts"
)

// WidgetKeys lists every known widget in canonical order.
func WidgetKeys() []WidgetKey {
	return []WidgetKey{
		WidgetLeadPipeline,
		WidgetDealPipeline,
		WidgetAgentPerformance,
		WidgetClientFollowup,
		WidgetAdminTasks,
		WidgetSystemHealth,
		WidgetReportsInsights,
		WidgetCriticalAlerts,
	}
}

// FilterKey identifies a record filter.
type FilterKey string

const (
	FilterDateRange     FilterKey = "dateRange"
	FilterSelectedAgent FilterKey = "selectedAgent"
	FilterPropertyType  FilterKey = "propertyType"
	FilterLeadSource    FilterKey = "leadSource"
)

// FilterKeys lists every known filter.
func FilterKeys() []FilterKey {
	return []FilterKey{FilterDateRange, FilterSelectedAgent, FilterPropertyType, FilterLeadSource}
}

var dateRanges = []string{"7d", "30d", "90d", "1y", "custom", FilterAll}

// LayoutKey identifies a layout option.
type LayoutKey string

const (
	LayoutGridSize    LayoutKey = "gridSize"
	LayoutArrangement LayoutKey = "arrangement"
	LayoutCompactView LayoutKey = "compactView"
)

// GridSize controls how many widget columns the dashboard renders.
type GridSize string

const (
	GridSmall  GridSize = "small"
	GridMedium GridSize = "medium"
	GridLarge  GridSize = "large"
	GridXL     GridSize = "xl"
)

// Columns returns the column count for the grid size.
func (g GridSize) Columns() int {
	switch g {
	case GridSmall:
		return 4
	case GridLarge:
		return 2
	case GridXL:
		return 1
	default:
		return 3
	}
}

// Arrangement selects the widget ordering strategy.
type Arrangement string

const (
	ArrangementDefault         Arrangement = "default"
	ArrangementAnalyticsFirst  Arrangement = "analytics-first"
	ArrangementOperationsFirst Arrangement = "operations-first"
	ArrangementCustom          Arrangement = "custom"
)

// ChartKey identifies a chart slot whose rendering kind is configurable.
type ChartKey string

const (
	ChartLeadPipeline ChartKey = "leadPipelineChart"
	ChartDealPipeline ChartKey = "dealPipelineChart"
	ChartPerformance  ChartKey = "performanceChart"
)

// ChartKind is the chart style used for a chart slot.
type ChartKind string

const (
	ChartArea       ChartKind = "area"
	ChartLine       ChartKind = "line"
	ChartBar        ChartKind = "bar"
	ChartFunnel     ChartKind = "funnel"
	ChartHorizontal ChartKind = "horizontal"
	ChartRadar      ChartKind = "radar"
	ChartScatter    ChartKind = "scatter"
)

var allowedChartKinds = map[ChartKey][]ChartKind{
	ChartLeadPipeline: {ChartArea, ChartLine, ChartBar},
	ChartDealPipeline: {ChartBar, ChartFunnel, ChartHorizontal},
	ChartPerformance:  {ChartRadar, ChartBar, ChartScatter},
}

// AllowedChartKinds returns the kinds selectable for a chart slot.
func AllowedChartKinds(key ChartKey) []ChartKind {
	return append([]ChartKind(nil), allowedChartKinds[key]...)
}

// ViewKey identifies a view preference.
type ViewKey string

const (
	ViewTheme      ViewKey = "theme"
	ViewDensity    ViewKey = "density"
	ViewAnimations ViewKey = "animations"
)

// Theme is the color scheme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Density controls spacing in the rendered dashboard.
type Density string

const (
	DensityCompact     Density = "compact"
	DensityComfortable Density = "comfortable"
	DensitySpacious    Density = "spacious"
)

// WidgetSettings holds visibility per widget.
type WidgetSettings struct {
	LeadPipeline     bool `json:"leadPipeline" yaml:"leadPipeline"`
	DealPipeline     bool `json:"dealPipeline" yaml:"dealPipeline"`
	AgentPerformance bool `json:"agentPerformance" yaml:"agentPerformance"`
	ClientFollowup   bool `json:"clientFollowup" yaml:"clientFollowup"`
	AdminTasks       bool `json:"adminTasks" yaml:"adminTasks"`
	SystemHealth     bool `json:"systemHealth" yaml:"systemHealth"`
	ReportsInsights  bool `json:"reportsInsights" yaml:"reportsInsights"`
	CriticalAlerts   bool `json:"criticalAlerts" yaml:"criticalAlerts"`
}

// Visible reports the visibility flag for a widget.
func (w WidgetSettings) Visible(key WidgetKey) bool {
	ptr := w.field(key)
	if ptr == nil {
		panic(fmt.Sprintf("dashboard: unknown widget %q", key))
	}
	return *ptr
}

func (w *WidgetSettings) field(key WidgetKey) *bool {
	switch key {
	case WidgetLeadPipeline:
		return &w.LeadPipeline
	case WidgetDealPipeline:
		return &w.DealPipeline
	case WidgetAgentPerformance:
		return &w.AgentPerformance
	case WidgetClientFollowup:
		return &w.ClientFollowup
	case WidgetAdminTasks:
		return &w.AdminTasks
	case WidgetSystemHealth:
		return &w.SystemHealth
	case WidgetReportsInsights:
		return &w.ReportsInsights
	case WidgetCriticalAlerts:
		return &w.CriticalAlerts
	}
	return nil
}

// FilterSettings holds the selected value per filter.
type FilterSettings struct {
	DateRange     string `json:"dateRange" yaml:"dateRange"`
	SelectedAgent string `json:"selectedAgent" yaml:"selectedAgent"`
	PropertyType  string `json:"propertyType" yaml:"propertyType"`
	LeadSource    string `json:"leadSource" yaml:"leadSource"`
}

// Value returns the selected value for a filter.
func (f FilterSettings) Value(key FilterKey) string {
	ptr := f.field(key)
	if ptr == nil {
		panic(fmt.Sprintf("dashboard: unknown filter %q", key))
	}
	return *ptr
}

func (f *FilterSettings) field(key FilterKey) *string {
	switch key {
	case FilterDateRange:
		return &f.DateRange
	case FilterSelectedAgent:
		return &f.SelectedAgent
	case FilterPropertyType:
		return &f.PropertyType
	case FilterLeadSource:
		return &f.LeadSource
	}
	return nil
}

// LayoutSettings holds grid and arrangement options.
type LayoutSettings struct {
	GridSize    GridSize    `json:"gridSize" yaml:"gridSize"`
	Arrangement Arrangement `json:"arrangement" yaml:"arrangement"`
	CompactView bool        `json:"compactView" yaml:"compactView"`
}

// ChartSettings holds the chart kind per chart slot.
type ChartSettings struct {
	LeadPipelineChart ChartKind `json:"leadPipelineChart" yaml:"leadPipelineChart"`
	DealPipelineChart ChartKind `json:"dealPipelineChart" yaml:"dealPipelineChart"`
	PerformanceChart  ChartKind `json:"performanceChart" yaml:"performanceChart"`
}

// Kind returns the configured kind for a chart slot.
func (c ChartSettings) Kind(key ChartKey) ChartKind {
	ptr := c.field(key)
	if ptr == nil {
		panic(fmt.Sprintf("dashboard: unknown chart %q", key))
	}
	return *ptr
}

func (c *ChartSettings) field(key ChartKey) *ChartKind {
	switch key {
	case ChartLeadPipeline:
		return &c.LeadPipelineChart
	case ChartDealPipeline:
		return &c.DealPipelineChart
	case ChartPerformance:
		return &c.PerformanceChart
	}
	return nil
}

// ViewSettings holds theme and density preferences.
type ViewSettings struct {
	Theme      Theme   `json:"theme" yaml:"theme"`
	Density    Density `json:"density" yaml:"density"`
	Animations bool    `json:"animations" yaml:"animations"`
}

// Settings is the dashboard customization state. It is a plain value: update
// methods return a modified copy and leave the receiver untouched.
type Settings struct {
	Widgets WidgetSettings `json:"widgets" yaml:"widgets"`
	Filters FilterSettings `json:"filters" yaml:"filters"`
	Layout  LayoutSettings `json:"layout" yaml:"layout"`
	Charts  ChartSettings  `json:"charts" yaml:"charts"`
	View    ViewSettings   `json:"view" yaml:"view"`
}

// DefaultSettings returns the fully populated settings used at mount.
func DefaultSettings() Settings {
	return Settings{
		Widgets: WidgetSettings{
			LeadPipeline:     true,
			DealPipeline:     true,
			AgentPerformance: true,
			ClientFollowup:   true,
			AdminTasks:       true,
			SystemHealth:     true,
			ReportsInsights:  true,
			CriticalAlerts:   true,
		},
		Filters: FilterSettings{
			DateRange:     "30d",
			SelectedAgent: FilterAll,
			PropertyType:  FilterAll,
			LeadSource:    FilterAll,
		},
		Layout: LayoutSettings{
			GridSize:    GridMedium,
			Arrangement: ArrangementDefault,
			CompactView: false,
		},
		Charts: ChartSettings{
			LeadPipelineChart: ChartArea,
			DealPipelineChart: ChartBar,
			PerformanceChart:  ChartRadar,
		},
		View: ViewSettings{
			Theme:      ThemeSystem,
			Density:    DensityComfortable,
			Animations: true,
		},
	}
}

// UpdateWidgetVisibility returns a copy with a single widget flag replaced.
func (s Settings) UpdateWidgetVisibility(key WidgetKey, visible bool) Settings {
	ptr := s.Widgets.field(key)
	if ptr == nil {
		panic(fmt.Sprintf("dashboard: unknown widget %q", key))
	}
	*ptr = visible
	return s
}

// UpdateFilter returns a copy with a single filter value replaced.
func (s Settings) UpdateFilter(key FilterKey, value string) Settings {
	ptr := s.Filters.field(key)
	if ptr == nil {
		panic(fmt.Sprintf("dashboard: unknown filter %q", key))
	}
	*ptr = value
	return s
}

// UpdateLayout returns a copy with a single layout option replaced. The value
// must be a GridSize, an Arrangement or a bool matching the key.
func (s Settings) UpdateLayout(key LayoutKey, value any) Settings {
	switch key {
	case LayoutGridSize:
		s.Layout.GridSize = GridSize(mustString(key, value))
	case LayoutArrangement:
		s.Layout.Arrangement = Arrangement(mustString(key, value))
	case LayoutCompactView:
		s.Layout.CompactView = mustBool(key, value)
	default:
		panic(fmt.Sprintf("dashboard: unknown layout option %q", key))
	}
	return s
}

// UpdateChart returns a copy with a single chart kind replaced.
func (s Settings) UpdateChart(key ChartKey, kind ChartKind) Settings {
	ptr := s.Charts.field(key)
	if ptr == nil {
		panic(fmt.Sprintf("dashboard: unknown chart %q", key))
	}
	*ptr = kind
	return s
}

// UpdateView returns a copy with a single view preference replaced. The value
// must be a Theme, a Density or a bool matching the key.
func (s Settings) UpdateView(key ViewKey, value any) Settings {
	switch key {
	case ViewTheme:
		s.View.Theme = Theme(mustString(key, value))
	case ViewDensity:
		s.View.Density = Density(mustString(key, value))
	case ViewAnimations:
		s.View.Animations = mustBool(key, value)
	default:
		panic(fmt.Sprintf("dashboard: unknown view option %q", key))
	}
	return s
}

// SettingsUpdate is a tagged leaf replacement request, the form transports
// decode from untrusted input.
type SettingsUpdate struct {
	Group SettingsGroup `json:"group"`
	Key   string        `json:"key"`
	Value any           `json:"value"`
}

// Validate checks the group/key pair and the value type and enumeration.
func (u SettingsUpdate) Validate() error {
	switch u.Group {
	case GroupWidgets:
		var w WidgetSettings
		if w.field(WidgetKey(u.Key)) == nil {
			return u.unknown()
		}
		return u.requireBool()
	case GroupFilters:
		var f FilterSettings
		if f.field(FilterKey(u.Key)) == nil {
			return u.unknown()
		}
		value, err := u.requireString()
		if err != nil {
			return err
		}
		if FilterKey(u.Key) == FilterDateRange {
			return u.requireOneOf(value, dateRanges)
		}
		return nil
	case GroupLayout:
		switch LayoutKey(u.Key) {
		case LayoutGridSize:
			return u.requireEnum([]string{string(GridSmall), string(GridMedium), string(GridLarge), string(GridXL)})
		case LayoutArrangement:
			return u.requireEnum([]string{
				string(ArrangementDefault),
				string(ArrangementAnalyticsFirst),
				string(ArrangementOperationsFirst),
				string(ArrangementCustom),
			})
		case LayoutCompactView:
			return u.requireBool()
		}
		return u.unknown()
	case GroupCharts:
		kinds, ok := allowedChartKinds[ChartKey(u.Key)]
		if !ok {
			return u.unknown()
		}
		options := make([]string, len(kinds))
		for i, kind := range kinds {
			options[i] = string(kind)
		}
		return u.requireEnum(options)
	case GroupView:
		switch ViewKey(u.Key) {
		case ViewTheme:
			return u.requireEnum([]string{string(ThemeSystem), string(ThemeLight), string(ThemeDark)})
		case ViewDensity:
			return u.requireEnum([]string{string(DensityCompact), string(DensityComfortable), string(DensitySpacious)})
		case ViewAnimations:
			return u.requireBool()
		}
		return u.unknown()
	}
	return u.unknown()
}

// Apply validates the update and returns the settings with the leaf replaced.
// The receiver is never modified.
func (s Settings) Apply(u SettingsUpdate) (Settings, error) {
	if err := u.Validate(); err != nil {
		return s, err
	}
	switch u.Group {
	case GroupWidgets:
		return s.UpdateWidgetVisibility(WidgetKey(u.Key), u.Value.(bool)), nil
	case GroupFilters:
		return s.UpdateFilter(FilterKey(u.Key), stringOf(u.Value)), nil
	case GroupLayout:
		return s.UpdateLayout(LayoutKey(u.Key), u.Value), nil
	case GroupCharts:
		return s.UpdateChart(ChartKey(u.Key), ChartKind(stringOf(u.Value))), nil
	default:
		return s.UpdateView(ViewKey(u.Key), u.Value), nil
	}
}

// Lookup returns the current value of a leaf.
func (s Settings) Lookup(group SettingsGroup, key string) (any, bool) {
	switch group {
	case GroupWidgets:
		if ptr := s.Widgets.field(WidgetKey(key)); ptr != nil {
			return *ptr, true
		}
	case GroupFilters:
		if ptr := s.Filters.field(FilterKey(key)); ptr != nil {
			return *ptr, true
		}
	case GroupLayout:
		switch LayoutKey(key) {
		case LayoutGridSize:
			return s.Layout.GridSize, true
		case LayoutArrangement:
			return s.Layout.Arrangement, true
		case LayoutCompactView:
			return s.Layout.CompactView, true
		}
	case GroupCharts:
		if ptr := s.Charts.field(ChartKey(key)); ptr != nil {
			return *ptr, true
		}
	case GroupView:
		switch ViewKey(key) {
		case ViewTheme:
			return s.View.Theme, true
		case ViewDensity:
			return s.View.Density, true
		case ViewAnimations:
			return s.View.Animations, true
		}
	}
	return nil, false
}

func (u SettingsUpdate) unknown() error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownSettingKey, u.Group, u.Key)
}

func (u SettingsUpdate) requireBool() error {
	if _, ok := u.Value.(bool); !ok {
		return fmt.Errorf("%w: %s.%s expects a boolean", ErrInvalidSettingValue, u.Group, u.Key)
	}
	return nil
}

func (u SettingsUpdate) requireString() (string, error) {
	value, ok := stringValueOf(u.Value)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s.%s expects a non-empty string", ErrInvalidSettingValue, u.Group, u.Key)
	}
	return value, nil
}

func (u SettingsUpdate) requireEnum(options []string) error {
	value, err := u.requireString()
	if err != nil {
		return err
	}
	return u.requireOneOf(value, options)
}

func (u SettingsUpdate) requireOneOf(value string, options []string) error {
	for _, option := range options {
		if value == option {
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s must be one of %s", ErrInvalidSettingValue, u.Group, u.Key, strings.Join(options, ", "))
}

func stringValueOf(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case GridSize:
		return string(val), true
	case Arrangement:
		return string(val), true
	case ChartKind:
		return string(val), true
	case Theme:
		return string(val), true
	case Density:
		return string(val), true
	}
	return "", false
}

func stringOf(v any) string {
	s, _ := stringValueOf(v)
	return s
}

func mustString(key any, v any) string {
	s, ok := stringValueOf(v)
	if !ok {
		panic(fmt.Sprintf("dashboard: option %v expects a string value, got %T", key, v))
	}
	return s
}

func mustBool(key any, v any) bool {
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("dashboard: option %v expects a bool value, got %T", key, v))
	}
	return b
}

// SettingsLeaf names one group/key pair.
type SettingsLeaf struct {
	Group SettingsGroup `json:"group"`
	Key   string        `json:"key"`
}

// SettingsLeaves lists every leaf in canonical order.
func SettingsLeaves() []SettingsLeaf {
	leaves := make([]SettingsLeaf, 0, 21)
	for _, key := range WidgetKeys() {
		leaves = append(leaves, SettingsLeaf{GroupWidgets, string(key)})
	}
	for _, key := range FilterKeys() {
		leaves = append(leaves, SettingsLeaf{GroupFilters, string(key)})
	}
	for _, key := range []LayoutKey{LayoutGridSize, LayoutArrangement, LayoutCompactView} {
		leaves = append(leaves, SettingsLeaf{GroupLayout, string(key)})
	}
	for _, key := range []ChartKey{ChartLeadPipeline, ChartDealPipeline, ChartPerformance} {
		leaves = append(leaves, SettingsLeaf{GroupCharts, string(key)})
	}
	for _, key := range []ViewKey{ViewTheme, ViewDensity, ViewAnimations} {
		leaves = append(leaves, SettingsLeaf{GroupView, string(key)})
	}
	return leaves
}

// Validate reports every leaf holding a value outside its enumeration, e.g.
// after decoding settings from a file.
func (s Settings) Validate() error {
	var errs error
	for _, leaf := range SettingsLeaves() {
		value, _ := s.Lookup(leaf.Group, leaf.Key)
		update := SettingsUpdate{Group: leaf.Group, Key: leaf.Key, Value: value}
		if err := update.Validate(); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
