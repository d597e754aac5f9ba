package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"
	"github.com/gorilla/websocket"

	"github.com/goliatone/go-agency-dashboard/components/dashboard"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/httpapi"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard controller, API handlers and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            *httpapi.Handlers
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML          string
	Layout        string
	Stats         string
	Settings      string
	SettingsReset string
	SettingsOrder string
	Refresh       string
	Leads         string
	Properties    string
	Tasks         string
	TaskStatus    string
	WebSocket     string
}

var errMissingViewer = errors.New("viewer user id is required")

// Register mounts dashboard routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if viewer.UserID == "" {
			return respondError(ctx, http.StatusUnauthorized, errMissingViewer)
		}
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if viewer.UserID == "" {
			return respondError(ctx, http.StatusUnauthorized, errMissingViewer)
		}
		layout, err := cfg.Controller.Render(ctx.Context(), viewer)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, layout)
	}))

	if cfg.API != nil {
		registerAPI(group, cfg.API, resolver, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, resolver, routes.WebSocket)
	}

	return nil
}

// handle resolves the viewer before invoking fn and maps any error to a
// JSON response.
func handle(resolver ViewerResolver, fn func(router.Context, dashboard.ViewerContext) error) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if viewer.UserID == "" {
			return respondError(ctx, http.StatusUnauthorized, errMissingViewer)
		}
		if err := fn(ctx, viewer); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return nil
	})
}

type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }

func decodeBody(ctx router.Context, dst any) error {
	body := ctx.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest{err: err}
	}
	return nil
}

func registerAPI[T any](r router.Router[T], api *httpapi.Handlers, resolver ViewerResolver, routes RouteConfig) {
	wrap := func(fn func(router.Context, dashboard.ViewerContext) error) router.HandlerFunc {
		return handle(resolver, func(ctx router.Context, viewer dashboard.ViewerContext) error {
			err := fn(ctx, viewer)
			var bad badRequest
			if errors.As(err, &bad) {
				return respondError(ctx, http.StatusBadRequest, bad.err)
			}
			return err
		})
	}

	if api.Snapshot != nil {
		r.Get(routes.Stats, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			snapshot, err := api.Snapshot.Query(ctx.Context(), viewer)
			if err != nil {
				return err
			}
			return ctx.JSON(http.StatusOK, snapshot)
		}))
	}

	if api.Settings != nil {
		r.Get(routes.Settings, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			settings, err := api.Settings.Query(ctx.Context(), viewer)
			if err != nil {
				return err
			}
			return ctx.JSON(http.StatusOK, settings)
		}))
	}

	if api.UpdateSettings != nil {
		r.Post(routes.Settings, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var update dashboard.SettingsUpdate
			if err := decodeBody(ctx, &update); err != nil {
				return err
			}
			var settings dashboard.Settings
			input := commands.UpdateSettingsInput{Viewer: viewer, Update: update, Result: &settings}
			if err := api.UpdateSettings.Execute(ctx.Context(), input); err != nil {
				return err
			}
			return ctx.JSON(http.StatusOK, settings)
		}))
	}

	if api.ResetSettings != nil {
		r.Post(routes.SettingsReset, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			if err := api.ResetSettings.Execute(ctx.Context(), commands.ResetSettingsInput{Viewer: viewer}); err != nil {
				return err
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "reset"})
		}))
	}

	if api.CustomOrder != nil {
		r.Post(routes.SettingsOrder, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var payload struct {
				Order []dashboard.WidgetKey `json:"order"`
			}
			if err := decodeBody(ctx, &payload); err != nil {
				return err
			}
			input := commands.SaveCustomOrderInput{Viewer: viewer, Order: payload.Order}
			if err := api.CustomOrder.Execute(ctx.Context(), input); err != nil {
				return err
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
		}))
	}

	if api.Refresh != nil {
		r.Post(routes.Refresh, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var report dashboard.RefreshReport
			if err := api.Refresh.Execute(ctx.Context(), commands.RefreshDashboardInput{Viewer: viewer, Report: &report}); err != nil {
				return err
			}
			failed := make(map[string]string, len(report.Failed))
			for name, err := range report.Failed {
				failed[name] = err.Error()
			}
			return ctx.JSON(http.StatusAccepted, map[string]any{
				"sequence": report.Sequence,
				"failed":   failed,
			})
		}))
	}

	if api.AddLead != nil {
		r.Post(routes.Leads, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var payload dashboard.NewLead
			if err := decodeBody(ctx, &payload); err != nil {
				return err
			}
			var created dashboard.Lead
			if err := api.AddLead.Execute(ctx.Context(), commands.AddLeadInput{Viewer: viewer, Lead: payload, Created: &created}); err != nil {
				return err
			}
			return ctx.JSON(http.StatusCreated, created)
		}))
	}

	if api.AddProperty != nil {
		r.Post(routes.Properties, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var payload dashboard.NewProperty
			if err := decodeBody(ctx, &payload); err != nil {
				return err
			}
			var created dashboard.Property
			if err := api.AddProperty.Execute(ctx.Context(), commands.AddPropertyInput{Viewer: viewer, Property: payload, Created: &created}); err != nil {
				return err
			}
			return ctx.JSON(http.StatusCreated, created)
		}))
	}

	if api.AddTask != nil {
		r.Post(routes.Tasks, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var payload dashboard.NewTask
			if err := decodeBody(ctx, &payload); err != nil {
				return err
			}
			var created dashboard.Task
			if err := api.AddTask.Execute(ctx.Context(), commands.AddTaskInput{Viewer: viewer, Task: payload, Created: &created}); err != nil {
				return err
			}
			return ctx.JSON(http.StatusCreated, created)
		}))
	}

	if api.TaskStatus != nil {
		r.Post(routes.TaskStatus, wrap(func(ctx router.Context, viewer dashboard.ViewerContext) error {
			var payload struct {
				Status string `json:"status"`
			}
			if err := decodeBody(ctx, &payload); err != nil {
				return err
			}
			input := commands.UpdateTaskStatusInput{Viewer: viewer, TaskID: ctx.Param("id"), Status: payload.Status}
			if err := api.TaskStatus.Execute(ctx.Context(), input); err != nil {
				return err
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
		}))
	}
}

// registerWebSocket streams the resolved viewer's events. The handler runs
// after the upgrade, so a missing viewer closes with a policy violation.
func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, resolver ViewerResolver, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		viewer := resolver(ws)
		if viewer.UserID == "" {
			_ = ws.CloseWithStatus(websocket.ClosePolicyViolation, errMissingViewer.Error())
			return errMissingViewer
		}
		events, cancel := hook.Subscribe(viewer.UserID)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if viewer.UserID == "" {
		viewer.UserID = strings.TrimSpace(ctx.Header(httpapi.ViewerHeader))
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

// WithFallbackUser resolves viewers like the default resolver and uses
// userID when the request carries no identity.
func WithFallbackUser(userID string) ViewerResolver {
	return func(ctx router.Context) dashboard.ViewerContext {
		viewer := defaultViewerResolver(ctx)
		if viewer.UserID == "" {
			viewer.UserID = userID
		}
		return viewer
	}
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		return parseAcceptLanguage(header)
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for token := range strings.SplitSeq(header, ",") {
		token, _, _ = strings.Cut(strings.TrimSpace(token), ";")
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	defaults := RouteConfig{
		HTML:          "/dashboard",
		Layout:        "/dashboard/_layout",
		Stats:         "/dashboard/stats",
		Settings:      "/dashboard/settings",
		SettingsReset: "/dashboard/settings/reset",
		SettingsOrder: "/dashboard/settings/order",
		Refresh:       "/dashboard/refresh",
		Leads:         "/dashboard/leads",
		Properties:    "/dashboard/properties",
		Tasks:         "/dashboard/tasks",
		TaskStatus:    "/dashboard/tasks/:id/status",
		WebSocket:     "/dashboard/ws",
	}
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&routes.HTML, defaults.HTML)
	fill(&routes.Layout, defaults.Layout)
	fill(&routes.Stats, defaults.Stats)
	fill(&routes.Settings, defaults.Settings)
	fill(&routes.SettingsReset, defaults.SettingsReset)
	fill(&routes.SettingsOrder, defaults.SettingsOrder)
	fill(&routes.Refresh, defaults.Refresh)
	fill(&routes.Leads, defaults.Leads)
	fill(&routes.Properties, defaults.Properties)
	fill(&routes.Tasks, defaults.Tasks)
	fill(&routes.TaskStatus, defaults.TaskStatus)
	fill(&routes.WebSocket, defaults.WebSocket)
	return routes
}
