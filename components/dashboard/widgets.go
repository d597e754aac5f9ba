package dashboard

import (
	"github.com/ettle/strcase"
)

const widgetCodePrefix = "agency.widget."

// Widget categories drive the analytics-first and operations-first arrangements.
const (
	CategoryAnalytics  = "analytics"
	CategoryOperations = "operations"
)

// WidgetDefinition describes one of the dashboard panels.
type WidgetDefinition struct {
	Code                 string            `json:"code" yaml:"code"`
	Key                  WidgetKey         `json:"key" yaml:"key"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Category             string            `json:"category" yaml:"category"`
	// Chart is set for widgets whose rendering kind comes from chart settings.
	Chart ChartKey `json:"chart,omitempty" yaml:"chart,omitempty"`
}

// WidgetInstance is a resolved widget ready for rendering.
type WidgetInstance struct {
	ID          string           `json:"id"`
	Key         WidgetKey        `json:"key"`
	Definition  WidgetDefinition `json:"definition"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Position    int              `json:"position"`
	Data        WidgetData       `json:"data,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// WidgetCode returns the registry code for a widget key, e.g.
// "agency.widget.lead_pipeline".
func WidgetCode(key WidgetKey) string {
	return widgetCodePrefix + strcase.ToSnake(string(key))
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Key:         WidgetCriticalAlerts,
		Name:        "Critical Alerts",
		Description: "Overdue and urgent work that needs attention",
		NameLocalized: map[string]string{
			"es": "Alertas críticas",
		},
		Category: CategoryOperations,
	},
	{
		Key:         WidgetLeadPipeline,
		Name:        "Lead Pipeline",
		Description: "Leads by source",
		NameLocalized: map[string]string{
			"es": "Embudo de prospectos",
		},
		DescriptionLocalized: map[string]string{
			"es": "Prospectos por origen",
		},
		Category: CategoryAnalytics,
		Chart:    ChartLeadPipeline,
	},
	{
		Key:         WidgetDealPipeline,
		Name:        "Deal Pipeline",
		Description: "Deals by stage",
		NameLocalized: map[string]string{
			"es": "Embudo de operaciones",
		},
		Category: CategoryAnalytics,
		Chart:    ChartDealPipeline,
	},
	{
		Key:         WidgetAgentPerformance,
		Name:        "Agent Performance",
		Description: "Activity and revenue summary",
		NameLocalized: map[string]string{
			"es": "Rendimiento del agente",
		},
		Category: CategoryAnalytics,
		Chart:    ChartPerformance,
	},
	{
		Key:         WidgetClientFollowup,
		Name:        "Client Follow-up",
		Description: "Most recent leads",
		NameLocalized: map[string]string{
			"es": "Seguimiento de clientes",
		},
		Category: CategoryOperations,
	},
	{
		Key:         WidgetAdminTasks,
		Name:        "Tasks",
		Description: "Pending and completed tasks",
		NameLocalized: map[string]string{
			"es": "Tareas",
		},
		Category: CategoryOperations,
	},
	{
		Key:         WidgetSystemHealth,
		Name:        "System Health",
		Description: "Record service status per collection",
		NameLocalized: map[string]string{
			"es": "Estado del sistema",
		},
		Category: CategoryOperations,
	},
	{
		Key:         WidgetReportsInsights,
		Name:        "Reports & Insights",
		Description: "Revenue and conversion figures",
		NameLocalized: map[string]string{
			"es": "Informes y análisis",
		},
		Category: CategoryAnalytics,
	},
}

// DefaultWidgetDefinitions returns the built-in widgets in default order.
func DefaultWidgetDefinitions() []WidgetDefinition {
	defs := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	for i, def := range defaultWidgetDefinitions {
		def.Code = WidgetCode(def.Key)
		def.normalizeLocalizedFields()
		defs[i] = def
	}
	return defs
}
