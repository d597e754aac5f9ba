package dashboard

import (
	"context"
	"fmt"
	"time"
)

const defaultRecentLimit = 5

// ProviderOption customizes the built-in providers.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	charts      *EChartsRenderer
	recentLimit int
}

// WithChartRenderer replaces the chart renderer used by chart widgets.
func WithChartRenderer(renderer *EChartsRenderer) ProviderOption {
	return func(cfg *providerConfig) {
		if renderer != nil {
			cfg.charts = renderer
		}
	}
}

// WithRecentLimit caps list widgets (recent leads, tasks).
func WithRecentLimit(limit int) ProviderOption {
	return func(cfg *providerConfig) {
		if limit > 0 {
			cfg.recentLimit = limit
		}
	}
}

func newProviderConfig(opts []ProviderOption) providerConfig {
	cfg := providerConfig{recentLimit: defaultRecentLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.charts == nil {
		cfg.charts = NewEChartsRenderer()
	}
	return cfg
}

func defaultProviders(cfg providerConfig) map[WidgetKey]Provider {
	return map[WidgetKey]Provider{
		WidgetLeadPipeline: NewBreakdownChartProvider(cfg.charts, "Leads", func(records Records) []GroupCount {
			return LeadSourceBreakdown(records.Leads)
		}),
		WidgetDealPipeline: NewBreakdownChartProvider(cfg.charts, "Deals", func(records Records) []GroupCount {
			return DealStageBreakdown(records.Deals)
		}),
		WidgetAgentPerformance: NewPerformanceProvider(cfg.charts),
		WidgetClientFollowup:   newClientFollowupProvider(cfg.recentLimit),
		WidgetAdminTasks:       newAdminTasksProvider(cfg.recentLimit),
		WidgetSystemHealth:     ProviderFunc(systemHealth),
		WidgetReportsInsights:  ProviderFunc(reportsInsights),
		WidgetCriticalAlerts:   ProviderFunc(criticalAlerts),
	}
}

// NewBreakdownChartProvider charts a tally of the filtered records using the
// chart kind configured for the widget.
func NewBreakdownChartProvider(renderer *EChartsRenderer, seriesName string, tally func(Records) []GroupCount) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		counts := tally(meta.Records)
		title := widgetTitle(ctx, meta)
		data := WidgetData{
			"title":  title,
			"counts": counts,
			"empty":  len(counts) == 0,
		}
		if len(counts) == 0 {
			return data, nil
		}
		kind := meta.Settings.Charts.Kind(meta.Definition.Chart)
		series := SeriesFromCounts(translateOrFallback(ctx, meta.Translator, "dashboard.series."+seriesName, meta.Viewer.Locale, seriesName, nil), counts)
		html, err := renderer.Render(ChartSpec{
			ID:     meta.Definition.Code,
			Kind:   kind,
			Title:  title,
			Series: []ChartSeries{series},
			Theme:  meta.Settings.View.Theme,
		})
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
		data["chart_kind"] = kind
		return data, nil
	})
}

// NewPerformanceProvider charts the viewer's activity figures.
func NewPerformanceProvider(renderer *EChartsRenderer) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		stats := meta.Stats
		points := []ChartPoint{
			{Label: "Leads", Value: float64(stats.TotalLeads)},
			{Label: "New Leads", Value: float64(stats.NewLeads)},
			{Label: "Properties", Value: float64(stats.TotalProperties)},
			{Label: "Active Deals", Value: float64(stats.ActiveDeals)},
			{Label: "Completed Tasks", Value: float64(stats.CompletedTasks)},
		}
		for i := range points {
			points[i].Label = translateOrFallback(ctx, meta.Translator, "dashboard.performance."+points[i].Label, meta.Viewer.Locale, points[i].Label, nil)
		}
		title := widgetTitle(ctx, meta)
		kind := meta.Settings.Charts.Kind(meta.Definition.Chart)
		html, err := renderer.Render(ChartSpec{
			ID:     meta.Definition.Code,
			Kind:   kind,
			Title:  title,
			Series: []ChartSeries{{Name: title, Points: points}},
			Theme:  meta.Settings.View.Theme,
		})
		if err != nil {
			return nil, err
		}
		return WidgetData{
			"title":      title,
			"chart_html": html,
			"chart_kind": kind,
			"revenue":    stats.TotalRevenue,
		}, nil
	})
}

func newClientFollowupProvider(limit int) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		leads := meta.Records.Leads
		items := make([]map[string]any, 0, min(limit, len(leads)))
		for _, lead := range leads {
			if len(items) == limit {
				break
			}
			items = append(items, map[string]any{
				"id":     lead.ID,
				"name":   lead.Name,
				"email":  lead.Email,
				"status": lead.Status,
				"is_new": lead.Status == LeadStatusNew,
			})
		}
		data := WidgetData{
			"title":     widgetTitle(ctx, meta),
			"items":     items,
			"new_leads": meta.Stats.NewLeads,
			"summary": translateOrFallback(ctx, meta.Translator, "dashboard.leads.summary", meta.Viewer.Locale,
				"{new} new of {total} leads", map[string]any{"new": meta.Stats.NewLeads, "total": meta.Stats.TotalLeads}),
		}
		if len(leads) == 0 {
			data["empty_message"] = translateOrFallback(ctx, meta.Translator, "dashboard.leads.empty", meta.Viewer.Locale, "No leads yet. Add your first lead!", nil)
		}
		return data, nil
	})
}

func newAdminTasksProvider(limit int) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		tasks := meta.Records.Tasks
		items := make([]map[string]any, 0, min(limit, len(tasks)))
		for _, task := range tasks {
			if len(items) == limit {
				break
			}
			item := map[string]any{
				"id":        task.ID,
				"title":     task.Title,
				"priority":  task.Priority,
				"status":    task.Status,
				"completed": task.Status == TaskStatusCompleted,
				"urgent":    task.Priority == TaskPriorityUrgent,
			}
			if task.Description != nil {
				item["description"] = *task.Description
			}
			items = append(items, item)
		}
		data := WidgetData{
			"title":      widgetTitle(ctx, meta),
			"items":      items,
			"pending":    meta.Stats.PendingTasks,
			"completed":  meta.Stats.CompletedTasks,
			"priorities": TaskPriorityBreakdown(tasks),
		}
		if len(tasks) == 0 {
			data["empty_message"] = translateOrFallback(ctx, meta.Translator, "dashboard.tasks.empty", meta.Viewer.Locale, "No tasks yet. Add your first task!", nil)
		}
		return data, nil
	})
}

func systemHealth(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	checks := make([]map[string]any, 0, 4)
	healthy := true
	for _, name := range []string{CollectionLeads, CollectionProperties, CollectionDeals, CollectionTasks} {
		status, ok := meta.Health[name]
		if !ok {
			status = healthPending
		}
		check := map[string]any{
			"name":   translateOrFallback(ctx, meta.Translator, "dashboard.collection."+name, meta.Viewer.Locale, name, nil),
			"status": "ok",
		}
		switch status {
		case healthOK:
		case healthPending:
			check["status"] = "pending"
		default:
			check["status"] = "error"
			check["detail"] = status
			healthy = false
		}
		checks = append(checks, check)
	}
	return WidgetData{
		"title":   widgetTitle(ctx, meta),
		"checks":  checks,
		"healthy": healthy,
	}, nil
}

func reportsInsights(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	var won, lost int
	var wonValue float64
	for _, deal := range meta.Records.Deals {
		switch deal.Stage {
		case DealStageWon:
			won++
			wonValue += deal.DealValue
		case DealStageLost:
			lost++
		}
	}
	data := WidgetData{
		"title":           widgetTitle(ctx, meta),
		"total_revenue":   meta.Stats.TotalRevenue,
		"monthly_revenue": meta.Stats.MonthlyRevenue,
		"won_deals":       won,
		"lost_deals":      lost,
		"win_rate":        ratio(won, won+lost),
		"lead_conversion": ratio(len(meta.Records.Deals), len(meta.Records.Leads)),
	}
	if won > 0 {
		data["average_deal_value"] = wonValue / float64(won)
	}
	return data, nil
}

func criticalAlerts(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	now := meta.Now
	if now.IsZero() {
		now = time.Now()
	}
	alerts := make([]map[string]any, 0)
	for _, task := range meta.Records.Tasks {
		if task.Status == TaskStatusCompleted {
			continue
		}
		switch {
		case task.DueDate != nil && task.DueDate.Before(now):
			alerts = append(alerts, map[string]any{
				"kind":     "overdue",
				"task_id":  task.ID,
				"message":  fmt.Sprintf("%s is overdue", task.Title),
				"due_date": task.DueDate.UTC().Format(time.DateOnly),
			})
		case task.Priority == TaskPriorityUrgent:
			alerts = append(alerts, map[string]any{
				"kind":    "urgent",
				"task_id": task.ID,
				"message": fmt.Sprintf("%s is marked urgent", task.Title),
			})
		}
	}
	return WidgetData{
		"title":  widgetTitle(ctx, meta),
		"alerts": alerts,
		"count":  len(alerts),
	}, nil
}

func widgetTitle(ctx context.Context, meta WidgetContext) string {
	fallback := meta.Definition.NameForLocale(meta.Viewer.Locale)
	key := fmt.Sprintf("dashboard.widget.%s.title", meta.Definition.Key)
	return translateOrFallback(ctx, meta.Translator, key, meta.Viewer.Locale, fallback, nil)
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
