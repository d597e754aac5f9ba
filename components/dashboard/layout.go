package dashboard

// Layout is the resolved dashboard for a viewer: the visible widgets in
// render order plus presentation and header data.
type Layout struct {
	Viewer        ViewerContext        `json:"viewer"`
	Loading       bool                 `json:"loading"`
	Settings      Settings             `json:"settings"`
	View          ViewPresentation     `json:"view"`
	Stats         Stats                `json:"stats"`
	ActiveFilters map[FilterKey]string `json:"activeFilters"`
	Widgets       []WidgetInstance     `json:"widgets"`
}

// Columns returns the grid column count.
func (l Layout) Columns() int {
	return l.Settings.Layout.GridSize.Columns()
}

// ArrangeDefinitions orders widget definitions for an arrangement. The
// default arrangement keeps the given order; analytics-first and
// operations-first move that category to the front keeping relative order;
// custom applies the saved order and appends widgets it does not mention.
func ArrangeDefinitions(defs []WidgetDefinition, arrangement Arrangement, customOrder []WidgetKey) []WidgetDefinition {
	switch arrangement {
	case ArrangementAnalyticsFirst:
		return categoryFirst(defs, CategoryAnalytics)
	case ArrangementOperationsFirst:
		return categoryFirst(defs, CategoryOperations)
	case ArrangementCustom:
		return applyOrderOverride(defs, customOrder)
	default:
		return append([]WidgetDefinition(nil), defs...)
	}
}

// VisibleDefinitions drops widgets hidden by the widget settings.
func VisibleDefinitions(defs []WidgetDefinition, widgets WidgetSettings) []WidgetDefinition {
	out := make([]WidgetDefinition, 0, len(defs))
	for _, def := range defs {
		if ptr := widgets.field(def.Key); ptr != nil && !*ptr {
			continue
		}
		out = append(out, def)
	}
	return out
}

func categoryFirst(defs []WidgetDefinition, category string) []WidgetDefinition {
	out := make([]WidgetDefinition, 0, len(defs))
	for _, def := range defs {
		if def.Category == category {
			out = append(out, def)
		}
	}
	for _, def := range defs {
		if def.Category != category {
			out = append(out, def)
		}
	}
	return out
}

func applyOrderOverride(defs []WidgetDefinition, order []WidgetKey) []WidgetDefinition {
	if len(order) == 0 {
		return append([]WidgetDefinition(nil), defs...)
	}
	index := make(map[WidgetKey]WidgetDefinition, len(defs))
	for _, def := range defs {
		index[def.Key] = def
	}
	result := make([]WidgetDefinition, 0, len(defs))
	seen := make(map[WidgetKey]struct{}, len(order))
	for _, key := range order {
		if def, ok := index[key]; ok {
			if _, dup := seen[key]; dup {
				continue
			}
			result = append(result, def)
			seen[key] = struct{}{}
		}
	}
	for _, def := range defs {
		if _, ok := seen[def.Key]; !ok {
			result = append(result, def)
		}
	}
	return result
}
