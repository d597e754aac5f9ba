package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-agency-dashboard/components/dashboard"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/commands"
	gocommand "github.com/goliatone/go-command"
	"github.com/gorilla/websocket"
)

// ViewerHeader carries the viewer id when no resolver is configured.
const ViewerHeader = "X-User-ID"

// ViewerResolver extracts the viewer from a request. Authentication happens
// upstream; the resolver only reads what the auth layer attached.
type ViewerResolver func(r *http.Request) dashboard.ViewerContext

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Viewer ViewerResolver

	Layout   gocommand.Querier[dashboard.ViewerContext, dashboard.Layout]
	Snapshot gocommand.Querier[dashboard.ViewerContext, dashboard.Snapshot]
	Settings gocommand.Querier[dashboard.ViewerContext, dashboard.Settings]

	UpdateSettings gocommand.Commander[commands.UpdateSettingsInput]
	ResetSettings  gocommand.Commander[commands.ResetSettingsInput]
	CustomOrder    gocommand.Commander[commands.SaveCustomOrderInput]
	Refresh        gocommand.Commander[commands.RefreshDashboardInput]
	AddLead        gocommand.Commander[commands.AddLeadInput]
	AddProperty    gocommand.Commander[commands.AddPropertyInput]
	AddTask        gocommand.Commander[commands.AddTaskInput]
	TaskStatus     gocommand.Commander[commands.UpdateTaskStatusInput]

	Events *dashboard.BroadcastHook
}

// ViewerFromRequest reads the viewer id from the X-User-ID header, falling
// back to the user_id query parameter, and the locale from Accept-Language.
func ViewerFromRequest(r *http.Request) dashboard.ViewerContext {
	id := strings.TrimSpace(r.Header.Get(ViewerHeader))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	locale, _, _ := strings.Cut(r.Header.Get("Accept-Language"), ",")
	return dashboard.ViewerContext{UserID: id, Locale: strings.TrimSpace(locale)}
}

func (h *Handlers) viewer(w http.ResponseWriter, r *http.Request) (dashboard.ViewerContext, bool) {
	resolve := h.Viewer
	if resolve == nil {
		resolve = ViewerFromRequest
	}
	viewer := resolve(r)
	if viewer.UserID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "viewer user id is required"})
		return viewer, false
	}
	return viewer, true
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	layout, err := h.Layout.Query(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	snapshot, err := h.Snapshot.Query(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	settings, err := h.Settings.Query(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// HandleApplySettings decodes a tagged update {"group","key","value"}.
func (h *Handlers) HandleApplySettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var update dashboard.SettingsUpdate
	if !decode(w, r, &update) {
		return
	}
	var settings dashboard.Settings
	input := commands.UpdateSettingsInput{Viewer: viewer, Update: update, Result: &settings}
	if err := h.UpdateSettings.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handlers) HandleResetSettings(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if err := h.ResetSettings.Execute(r.Context(), commands.ResetSettingsInput{Viewer: viewer}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleCustomOrder(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload struct {
		Order []dashboard.WidgetKey `json:"order"`
	}
	if !decode(w, r, &payload) {
		return
	}
	if err := h.CustomOrder.Execute(r.Context(), commands.SaveCustomOrderInput{Viewer: viewer, Order: payload.Order}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh answers 202 with the collections that failed to load.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var report dashboard.RefreshReport
	if err := h.Refresh.Execute(r.Context(), commands.RefreshDashboardInput{Viewer: viewer, Report: &report}); err != nil {
		writeError(w, err)
		return
	}
	failed := make(map[string]string, len(report.Failed))
	for name, err := range report.Failed {
		failed[name] = err.Error()
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"sequence": report.Sequence,
		"failed":   failed,
	})
}

func (h *Handlers) HandleAddLead(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload dashboard.NewLead
	if !decode(w, r, &payload) {
		return
	}
	var created dashboard.Lead
	if err := h.AddLead.Execute(r.Context(), commands.AddLeadInput{Viewer: viewer, Lead: payload, Created: &created}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleAddProperty(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload dashboard.NewProperty
	if !decode(w, r, &payload) {
		return
	}
	var created dashboard.Property
	if err := h.AddProperty.Execute(r.Context(), commands.AddPropertyInput{Viewer: viewer, Property: payload, Created: &created}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleAddTask(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload dashboard.NewTask
	if !decode(w, r, &payload) {
		return
	}
	var created dashboard.Task
	if err := h.AddTask.Execute(r.Context(), commands.AddTaskInput{Viewer: viewer, Task: payload, Created: &created}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleTaskStatus accepts an optional {"status": "..."} body; an empty body
// completes the task.
func (h *Handlers) HandleTaskStatus(w http.ResponseWriter, r *http.Request, taskID string) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if r.ContentLength != 0 && !decode(w, r, &payload) {
		return
	}
	input := commands.UpdateTaskStatusInput{Viewer: viewer, TaskID: taskID, Status: payload.Status}
	if err := h.TaskStatus.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

// HandleEvents streams dashboard events over a WebSocket when the client asks
// for an upgrade and as Server-Sent Events otherwise. Only the resolved
// viewer's events are sent.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "event stream not configured"})
		return
	}
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if websocket.IsWebSocketUpgrade(r) {
		h.Events.ServeWebSocket(w, r, viewer.UserID)
		return
	}
	h.Events.ServeSSE(w, r, viewer.UserID)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return false
	}
	return true
}

// StatusFor maps dashboard errors to HTTP status codes.
func StatusFor(err error) int {
	var validation *dashboard.ValidationError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, dashboard.ErrUnknownSettingKey),
		errors.Is(err, dashboard.ErrInvalidSettingValue),
		errors.Is(err, dashboard.ErrInvalidTaskStatus):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
