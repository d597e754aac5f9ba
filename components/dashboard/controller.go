package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const defaultTemplate = "dashboard.html"

// Renderer describes the template renderer contract needed by the controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// LayoutResolver is the subset of Service the controller needs.
type LayoutResolver interface {
	ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error)
}

// ControllerOptions wires the controller collaborators.
type ControllerOptions struct {
	Service  LayoutResolver
	Renderer Renderer
	Template string
	Title    string
}

// Controller renders the dashboard page for a viewer.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = defaultTemplate
	}
	if opts.Title == "" {
		opts.Title = "Agency Dashboard"
	}
	return &Controller{opts: opts}
}

// Render resolves the layout for a viewer and returns it to the caller.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext) (Layout, error) {
	if c.opts.Service == nil {
		return Layout{}, errors.New("dashboard: controller has no service")
	}
	return c.opts.Service.ConfigureLayout(ctx, viewer)
}

// RenderTemplate renders the dashboard HTML page into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: controller has no renderer")
	}
	layout, err := c.Render(ctx, viewer)
	if err != nil {
		return err
	}
	if _, err := c.opts.Renderer.Render(c.opts.Template, c.templatePayload(layout), out); err != nil {
		return fmt.Errorf("dashboard: render %s: %w", c.opts.Template, err)
	}
	return nil
}

func (c *Controller) templatePayload(layout Layout) map[string]any {
	widgets := make([]map[string]any, 0, len(layout.Widgets))
	for _, w := range layout.Widgets {
		widgets = append(widgets, map[string]any{
			"id":          w.ID,
			"key":         string(w.Key),
			"name":        w.Name,
			"description": w.Description,
			"category":    w.Definition.Category,
			"position":    w.Position,
			"data":        map[string]any(w.Data),
			"error":       w.Error,
		})
	}
	filters := make(map[string]string, len(layout.ActiveFilters))
	for key, value := range layout.ActiveFilters {
		filters[string(key)] = value
	}
	return map[string]any{
		"title":    c.opts.Title,
		"user_id":  layout.Viewer.UserID,
		"loading":  layout.Loading,
		"columns":  layout.View.Columns,
		"theme":    string(layout.View.Theme),
		"density":  string(layout.View.Density),
		"compact":  layout.View.Compact,
		"animate":  layout.View.Animations,
		"css_vars": layout.View.CSSVariablesInline(),
		"stats":    statsPayload(layout.Stats),
		"filters":  filters,
		"widgets":  widgets,
	}
}

func statsPayload(stats Stats) map[string]any {
	return map[string]any{
		"total_leads":      stats.TotalLeads,
		"new_leads":        stats.NewLeads,
		"total_properties": stats.TotalProperties,
		"active_deals":     stats.ActiveDeals,
		"total_revenue":    stats.TotalRevenue,
		"monthly_revenue":  stats.MonthlyRevenue,
		"pending_tasks":    stats.PendingTasks,
		"completed_tasks":  stats.CompletedTasks,
	}
}
