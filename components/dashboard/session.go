package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	errMissingRecordStore = errors.New("dashboard: record store not configured")
	errMissingViewer      = errors.New("dashboard: viewer context missing user id")
	// ErrInvalidTaskStatus is returned when a task status update carries an empty status.
	ErrInvalidTaskStatus = errors.New("dashboard: task status is required")
	// ErrTaskNotFound is returned by record stores when a status update names an unknown task.
	ErrTaskNotFound = errors.New("dashboard: task not found")
)

const (
	healthOK      = "ok"
	healthPending = "pending"
)

// Collection names used in logs, telemetry and refresh reports.
const (
	CollectionLeads      = "leads"
	CollectionProperties = "properties"
	CollectionDeals      = "deals"
	CollectionTasks      = "tasks"
)

// SessionOptions configures a Session. Only Store and Viewer are required.
type SessionOptions struct {
	Viewer    ViewerContext
	Store     RecordStore
	Validator PayloadValidator
	Notifier  Notifier
	Hook      EventHook
	Telemetry Telemetry
	Logger    *slog.Logger
	Clock     Clock
	// RefetchAfterMutation runs a full Refresh after every successful
	// mutation instead of relying on the local merge alone.
	RefetchAfterMutation bool
	// ScopeProperties restricts property reads to the viewer; by default all
	// properties are listed.
	ScopeProperties bool
}

// Session owns a viewer's read-through copies of the agency records and the
// statistics derived from them.
type Session struct {
	opts SessionOptions

	mu          sync.RWMutex
	records     Records
	stats       Stats
	loading     bool
	refreshedAt time.Time
	committed   map[string]uint64
	health      map[string]string

	seq atomic.Uint64
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	Viewer      ViewerContext `json:"viewer"`
	Loading     bool          `json:"loading"`
	Records     Records       `json:"records"`
	Stats       Stats         `json:"stats"`
	LeadSources []GroupCount  `json:"leadSources"`
	DealStages  []GroupCount  `json:"dealStages"`
	RefreshedAt time.Time     `json:"refreshedAt"`
	// Health maps each collection to "ok", "pending" or the last fetch error.
	Health map[string]string `json:"health"`
}

// RefreshReport lists the collections that failed during a refresh.
type RefreshReport struct {
	Sequence uint64
	Failed   map[string]error
}

// Err joins the per-collection failures, or returns nil.
func (r RefreshReport) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	var joined error
	for _, name := range []string{CollectionLeads, CollectionProperties, CollectionDeals, CollectionTasks} {
		if err, ok := r.Failed[name]; ok {
			joined = errors.Join(joined, fmt.Errorf("%s: %w", name, err))
		}
	}
	return joined
}

// NewSession builds a session in the loading state.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Store == nil {
		return nil, errMissingRecordStore
	}
	if opts.Viewer.UserID == "" {
		return nil, errMissingViewer
	}
	if opts.Validator == nil {
		opts.Validator = noopPayloadValidator{}
	}
	if opts.Hook == nil {
		opts.Hook = noopEventHook{}
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Logger = opts.Logger.With("user_id", opts.Viewer.UserID)
	return &Session{
		opts:      opts,
		loading:   true,
		committed: make(map[string]uint64, 4),
		health: map[string]string{
			CollectionLeads:      healthPending,
			CollectionProperties: healthPending,
			CollectionDeals:      healthPending,
			CollectionTasks:      healthPending,
		},
	}, nil
}

// Viewer returns the viewer the session belongs to.
func (s *Session) Viewer() ViewerContext {
	return s.opts.Viewer
}

// Loading reports whether the first refresh is still outstanding.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Stats returns the current derived statistics.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	records := s.records.clone()
	snap := Snapshot{
		Viewer:      s.opts.Viewer,
		Loading:     s.loading,
		Stats:       s.stats,
		RefreshedAt: s.refreshedAt,
		Health:      make(map[string]string, len(s.health)),
	}
	for name, status := range s.health {
		snap.Health[name] = status
	}
	s.mu.RUnlock()
	snap.Records = nonNilRecords(records)
	snap.LeadSources = LeadSourceBreakdown(records.Leads)
	snap.DealStages = DealStageBreakdown(records.Deals)
	return snap
}

// Refresh fetches the four collections in parallel. A collection that fails
// keeps its previous contents; failures are logged and reported, never fatal.
// Results from a refresh that started before an already committed one are
// discarded per collection.
func (s *Session) Refresh(ctx context.Context) RefreshReport {
	seq := s.seq.Add(1)
	agent := s.opts.Viewer.UserID
	propertyOwner := ""
	if s.opts.ScopeProperties {
		propertyOwner = agent
	}

	var (
		leads      []Lead
		properties []Property
		deals      []Deal
		tasks      []Task
		errs       [4]error
	)
	var g errgroup.Group
	g.Go(func() error {
		leads, errs[0] = s.opts.Store.ListLeads(ctx, agent)
		return nil
	})
	g.Go(func() error {
		properties, errs[1] = s.opts.Store.ListProperties(ctx, propertyOwner)
		return nil
	})
	g.Go(func() error {
		deals, errs[2] = s.opts.Store.ListDeals(ctx, agent)
		return nil
	})
	g.Go(func() error {
		tasks, errs[3] = s.opts.Store.ListTasks(ctx, agent)
		return nil
	})
	_ = g.Wait()

	report := RefreshReport{Sequence: seq, Failed: map[string]error{}}
	names := [4]string{CollectionLeads, CollectionProperties, CollectionDeals, CollectionTasks}
	for i, err := range errs {
		if err != nil {
			report.Failed[names[i]] = err
			s.opts.Logger.Error("dashboard fetch failed", "collection", names[i], "sequence", seq, "error", err)
		}
	}

	s.mu.Lock()
	for i, err := range errs {
		if s.committed[names[i]] > seq {
			continue
		}
		if err != nil {
			s.health[names[i]] = err.Error()
		} else {
			s.health[names[i]] = healthOK
		}
	}
	if errs[0] == nil && s.claim(CollectionLeads, seq) {
		s.records.Leads = leads
	}
	if errs[1] == nil && s.claim(CollectionProperties, seq) {
		s.records.Properties = properties
	}
	if errs[2] == nil && s.claim(CollectionDeals, seq) {
		s.records.Deals = deals
	}
	if errs[3] == nil && s.claim(CollectionTasks, seq) {
		s.records.Tasks = tasks
	}
	s.loading = false
	s.refreshedAt = s.opts.Clock()
	s.recomputeLocked()
	stats := s.stats
	s.mu.Unlock()

	s.emit(ctx, "refresh", &stats)
	s.opts.Telemetry.Record(ctx, "dashboard.session.refresh", map[string]any{
		"user_id":  agent,
		"sequence": seq,
		"failed":   len(report.Failed),
	})
	return report
}

// AddLead inserts a lead owned by the viewer.
func (s *Session) AddLead(ctx context.Context, input NewLead) (Lead, error) {
	input.AgentID = s.opts.Viewer.UserID
	input.applyDefaults()
	if err := s.opts.Validator.ValidatePayload(PayloadLead, input); err != nil {
		return Lead{}, s.fail(ctx, "lead.add", err)
	}
	lead, err := s.opts.Store.InsertLead(ctx, input)
	if err != nil {
		return Lead{}, s.fail(ctx, "lead.add", err)
	}
	s.mu.Lock()
	s.commitLocked(CollectionLeads)
	s.records.Leads = append(s.records.Leads, lead)
	s.recomputeLocked()
	s.mu.Unlock()
	s.succeed(ctx, "lead.add", "Lead added successfully!")
	return lead, nil
}

// AddProperty inserts a property owned by the viewer.
func (s *Session) AddProperty(ctx context.Context, input NewProperty) (Property, error) {
	input.AgentID = s.opts.Viewer.UserID
	input.applyDefaults()
	if err := s.opts.Validator.ValidatePayload(PayloadProperty, input); err != nil {
		return Property{}, s.fail(ctx, "property.add", err)
	}
	property, err := s.opts.Store.InsertProperty(ctx, input)
	if err != nil {
		return Property{}, s.fail(ctx, "property.add", err)
	}
	s.mu.Lock()
	s.commitLocked(CollectionProperties)
	s.records.Properties = append(s.records.Properties, property)
	s.recomputeLocked()
	s.mu.Unlock()
	s.succeed(ctx, "property.add", "Property added successfully!")
	return property, nil
}

// AddTask inserts a task assigned to the viewer.
func (s *Session) AddTask(ctx context.Context, input NewTask) (Task, error) {
	input.AssignedTo = s.opts.Viewer.UserID
	input.applyDefaults()
	if err := s.opts.Validator.ValidatePayload(PayloadTask, input); err != nil {
		return Task{}, s.fail(ctx, "task.add", err)
	}
	task, err := s.opts.Store.InsertTask(ctx, input)
	if err != nil {
		return Task{}, s.fail(ctx, "task.add", err)
	}
	s.mu.Lock()
	s.commitLocked(CollectionTasks)
	s.records.Tasks = append(s.records.Tasks, task)
	s.recomputeLocked()
	s.mu.Unlock()
	s.succeed(ctx, "task.add", "Task added successfully!")
	return task, nil
}

// UpdateTaskStatus changes a task's status remotely, then locally.
func (s *Session) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	taskID = strings.TrimSpace(taskID)
	status = strings.TrimSpace(status)
	if taskID == "" {
		return s.fail(ctx, "task.status", errors.New("dashboard: task id is required"))
	}
	if status == "" {
		return s.fail(ctx, "task.status", ErrInvalidTaskStatus)
	}
	if err := s.opts.Store.UpdateTaskStatus(ctx, taskID, status); err != nil {
		return s.fail(ctx, "task.status", err)
	}
	now := s.opts.Clock()
	s.mu.Lock()
	s.commitLocked(CollectionTasks)
	for i := range s.records.Tasks {
		if s.records.Tasks[i].ID == taskID {
			s.records.Tasks[i].Status = status
			s.records.Tasks[i].UpdatedAt = now
		}
	}
	s.recomputeLocked()
	s.mu.Unlock()
	message := "Task updated!"
	if status == TaskStatusCompleted {
		message = "Task completed!"
	}
	s.succeed(ctx, "task.status", message)
	return nil
}

// CompleteTask marks a task completed.
func (s *Session) CompleteTask(ctx context.Context, taskID string) error {
	return s.UpdateTaskStatus(ctx, taskID, TaskStatusCompleted)
}

// claim reports whether seq may overwrite the named collection and records it.
// Callers hold s.mu.
func (s *Session) claim(collection string, seq uint64) bool {
	if seq < s.committed[collection] {
		return false
	}
	s.committed[collection] = seq
	return true
}

// commitLocked marks a local merge into collection as newer than any refresh
// already in flight, so those results are dropped. Callers hold s.mu.
func (s *Session) commitLocked(collection string) {
	s.committed[collection] = s.seq.Add(1)
}

func (s *Session) recomputeLocked() {
	s.stats = ComputeRecordStats(s.records, s.opts.Clock())
}

func (s *Session) succeed(ctx context.Context, action, message string) {
	s.opts.Notifier.Notify(ctx, Notification{
		UserID:  s.opts.Viewer.UserID,
		Level:   NotificationSuccess,
		Title:   "Success",
		Message: message,
	})
	s.opts.Telemetry.Record(ctx, "dashboard.session."+action, map[string]any{
		"user_id": s.opts.Viewer.UserID,
	})
	if s.opts.RefetchAfterMutation {
		s.Refresh(ctx)
		return
	}
	stats := s.Stats()
	s.emit(ctx, action, &stats)
}

func (s *Session) fail(ctx context.Context, action string, err error) error {
	s.opts.Logger.Warn("dashboard mutation failed", "action", action, "error", err)
	s.opts.Notifier.Notify(ctx, Notification{
		UserID:  s.opts.Viewer.UserID,
		Level:   NotificationError,
		Title:   "Error",
		Message: err.Error(),
	})
	s.opts.Telemetry.Record(ctx, "dashboard.session.error", map[string]any{
		"user_id": s.opts.Viewer.UserID,
		"action":  action,
		"error":   err.Error(),
	})
	return err
}

func (s *Session) emit(ctx context.Context, reason string, stats *Stats) {
	event := DashboardEvent{UserID: s.opts.Viewer.UserID, Reason: reason, Stats: stats}
	if err := s.opts.Hook.DashboardUpdated(ctx, event); err != nil {
		s.opts.Logger.Warn("dashboard event hook failed", "reason", reason, "error", err)
	}
}

func nonNilRecords(r Records) Records {
	if r.Leads == nil {
		r.Leads = []Lead{}
	}
	if r.Properties == nil {
		r.Properties = []Property{}
	}
	if r.Deals == nil {
		r.Deals = []Deal{}
	}
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	return r
}

type noopEventHook struct{}

func (noopEventHook) DashboardUpdated(context.Context, DashboardEvent) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) {}
