package dashboard

import (
	"context"
	"time"
)

// RecordStore is the remote data service holding the four agency
// collections. List calls are scoped by owner; an empty owner id means
// unscoped.
type RecordStore interface {
	ListLeads(ctx context.Context, agentID string) ([]Lead, error)
	ListProperties(ctx context.Context, agentID string) ([]Property, error)
	ListDeals(ctx context.Context, agentID string) ([]Deal, error)
	ListTasks(ctx context.Context, assigneeID string) ([]Task, error)
	InsertLead(ctx context.Context, input NewLead) (Lead, error)
	InsertProperty(ctx context.Context, input NewProperty) (Property, error)
	InsertTask(ctx context.Context, input NewTask) (Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string) error
}

// SettingsRepository keeps per-viewer settings for the lifetime of the process.
type SettingsRepository interface {
	Settings(ctx context.Context, viewer ViewerContext) (Settings, error)
	SaveSettings(ctx context.Context, viewer ViewerContext, settings Settings) error
	CustomOrder(ctx context.Context, viewer ViewerContext) ([]WidgetKey, error)
	SaveCustomOrder(ctx context.Context, viewer ViewerContext, order []WidgetKey) error
}

// EventHook notifies transports (REST/WebSocket) about dashboard changes.
type EventHook interface {
	DashboardUpdated(ctx context.Context, event DashboardEvent) error
}

// Notifier surfaces user-facing messages such as failed mutations.
type Notifier interface {
	Notify(ctx context.Context, note Notification)
}

// Clock returns the current time; injected so monthly revenue is testable.
type Clock func() time.Time

// ViewerContext captures the active user/locale information needed to render dashboards.
type ViewerContext struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	Locale string   `json:"locale,omitempty"`
}

// NotificationLevel grades a notification.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a toast-style message for a viewer.
type Notification struct {
	UserID  string            `json:"user_id"`
	Level   NotificationLevel `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
}

// DashboardEvent describes changes that transports might care about.
type DashboardEvent struct {
	UserID       string        `json:"user_id"`
	Reason       string        `json:"reason"`
	Stats        *Stats        `json:"stats,omitempty"`
	Settings     *Settings     `json:"settings,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}
