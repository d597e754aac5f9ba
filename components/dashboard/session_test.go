package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, store *fakeStore, mutate ...func(*SessionOptions)) (*Session, *recordingNotifier, *recordingHook) {
	t.Helper()
	notifier := &recordingNotifier{}
	hook := &recordingHook{}
	opts := SessionOptions{
		Viewer:    ViewerContext{UserID: "agent-1"},
		Store:     store,
		Validator: NewJSONSchemaValidator(),
		Notifier:  notifier,
		Hook:      hook,
		Clock:     fixedClock(sessionNow),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	session, err := NewSession(opts)
	require.NoError(t, err)
	return session, notifier, hook
}

func TestNewSessionRequiresStoreAndViewer(t *testing.T) {
	_, err := NewSession(SessionOptions{Viewer: ViewerContext{UserID: "agent-1"}})
	require.ErrorIs(t, err, errMissingRecordStore)

	_, err = NewSession(SessionOptions{Store: newFakeStore()})
	require.ErrorIs(t, err, errMissingViewer)
}

func TestSessionLoadingClearsAfterFirstRefresh(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, hook := newTestSession(t, store)

	assert.True(t, session.Loading())
	snap := session.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, healthPending, snap.Health[CollectionLeads])
	assert.NotNil(t, snap.Records.Leads)

	report := session.Refresh(t.Context())
	require.NoError(t, report.Err())
	assert.False(t, session.Loading())

	stats := session.Stats()
	assert.Equal(t, 3, stats.TotalLeads)
	assert.Equal(t, 2, stats.TotalProperties, "properties are listed unscoped")
	assert.Equal(t, 1500.0, stats.TotalRevenue)
	assert.Equal(t, 1000.0, stats.MonthlyRevenue)
	assert.Equal(t, []string{"refresh"}, hook.reasons())

	session.Refresh(t.Context())
	assert.False(t, session.Loading())
}

func TestSessionLoadingClearsWhenEveryFetchFails(t *testing.T) {
	store := newFakeStore()
	boom := errors.New("network down")
	for _, name := range []string{CollectionLeads, CollectionProperties, CollectionDeals, CollectionTasks} {
		store.failList(name, boom)
	}
	session, notifier, _ := newTestSession(t, store)

	report := session.Refresh(t.Context())
	require.Error(t, report.Err())
	assert.Len(t, report.Failed, 4)
	assert.False(t, session.Loading())
	assert.Equal(t, Stats{}, session.Stats())
	_, notified := notifier.last()
	assert.False(t, notified, "fetch failures are not surfaced as notifications")
}

func TestSessionPartialFailureKeepsPreviousCollection(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	store.failList(CollectionDeals, errors.New("deals unavailable"))
	store.mu.Lock()
	store.leads = append(store.leads, Lead{ID: "l5", AgentID: ptr("agent-1"), Source: "walk-in", Status: LeadStatusNew})
	store.deals = nil
	store.mu.Unlock()

	report := session.Refresh(t.Context())
	require.Contains(t, report.Failed, CollectionDeals)
	assert.Len(t, report.Failed, 1)
	assert.ErrorContains(t, report.Err(), "deals: deals unavailable")

	snap := session.Snapshot()
	assert.Len(t, snap.Records.Deals, 3, "failed collection keeps its previous value")
	assert.Len(t, snap.Records.Leads, 4, "other collections still update")
	assert.Equal(t, "deals unavailable", snap.Health[CollectionDeals])
	assert.Equal(t, healthOK, snap.Health[CollectionLeads])
}

func TestSessionDropsStaleRefresh(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, _ := newTestSession(t, store)

	gate := make(chan struct{})
	entered := make(chan struct{})
	store.mu.Lock()
	store.leadGate, store.leadEntered = gate, entered
	store.mu.Unlock()

	done := make(chan RefreshReport)
	go func() { done <- session.Refresh(context.Background()) }()
	<-entered

	store.mu.Lock()
	store.leads = append(store.leads, Lead{ID: "l5", AgentID: ptr("agent-1"), Source: "walk-in", Status: LeadStatusNew})
	store.mu.Unlock()
	later := session.Refresh(t.Context())

	close(gate)
	earlier := <-done
	assert.Less(t, earlier.Sequence, later.Sequence)
	assert.Len(t, session.Snapshot().Records.Leads, 4, "later refresh wins")
}

func TestSessionInsertSurvivesInFlightRefresh(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	gate := make(chan struct{})
	entered := make(chan struct{})
	store.mu.Lock()
	store.leadGate, store.leadEntered = gate, entered
	store.mu.Unlock()

	done := make(chan RefreshReport)
	go func() { done <- session.Refresh(context.Background()) }()
	<-entered

	lead, err := session.AddLead(t.Context(), NewLead{Name: "Eve", Email: "eve@example.com"})
	require.NoError(t, err)
	require.Len(t, session.Snapshot().Records.Leads, 4)

	close(gate)
	report := <-done
	require.NoError(t, report.Err())

	snap := session.Snapshot()
	require.Len(t, snap.Records.Leads, 4, "refresh started before the insert must not drop it")
	assert.Equal(t, lead.ID, snap.Records.Leads[3].ID)
	assert.Equal(t, 4, snap.Stats.TotalLeads)

	session.Refresh(t.Context())
	assert.Len(t, session.Snapshot().Records.Leads, 4, "a later refresh reads the inserted lead back")
}

func TestSessionStaleFailureKeepsNewerHealth(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	store.failList(CollectionLeads, errors.New("timeout"))
	gate := make(chan struct{})
	entered := make(chan struct{})
	store.mu.Lock()
	store.leadGate, store.leadEntered = gate, entered
	store.mu.Unlock()

	done := make(chan RefreshReport)
	go func() { done <- session.Refresh(context.Background()) }()
	<-entered

	store.failList(CollectionLeads, nil)
	require.NoError(t, session.Refresh(t.Context()).Err())

	close(gate)
	stale := <-done
	require.Contains(t, stale.Failed, CollectionLeads)
	assert.Equal(t, healthOK, session.Snapshot().Health[CollectionLeads])
}

func TestSessionAddLeadStampsOwnerAndDefaults(t *testing.T) {
	store := seededStore(sessionNow)
	session, notifier, hook := newTestSession(t, store)
	session.Refresh(t.Context())

	lead, err := session.AddLead(t.Context(), NewLead{Name: "Eve", Email: "eve@example.com"})
	require.NoError(t, err)
	require.NotNil(t, lead.AgentID)
	assert.Equal(t, "agent-1", *lead.AgentID)
	assert.Equal(t, DefaultLeadSource, lead.Source)
	assert.Equal(t, LeadStatusNew, lead.Status)

	assert.Equal(t, 4, session.Stats().TotalLeads)
	assert.Equal(t, 3, session.Stats().NewLeads)
	note, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, NotificationSuccess, note.Level)
	assert.Equal(t, "Lead added successfully!", note.Message)
	assert.Equal(t, []string{"refresh", "lead.add"}, hook.reasons())
}

func TestSessionRejectsInvalidPayloadBeforeInsert(t *testing.T) {
	store := seededStore(sessionNow)
	session, notifier, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	_, err := session.AddLead(t.Context(), NewLead{Name: "No Mail"})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, PayloadLead, validation.Kind)
	assert.Zero(t, store.inserted)

	note, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, NotificationError, note.Level)
}

func TestSessionInsertTaskFailureLeavesStateUnchanged(t *testing.T) {
	store := seededStore(sessionNow)
	session, notifier, _ := newTestSession(t, store)
	session.Refresh(t.Context())
	before := session.Snapshot()

	store.insertErr = errors.New("permission denied for table tasks")
	_, err := session.AddTask(t.Context(), NewTask{Title: "Stage the loft"})
	require.Error(t, err)

	after := session.Snapshot()
	assert.Len(t, after.Records.Tasks, len(before.Records.Tasks))
	for _, task := range after.Records.Tasks {
		if task.ID == "t1" {
			assert.Equal(t, TaskStatusPending, task.Status)
		}
	}
	assert.Equal(t, before.Stats, after.Stats)

	note, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, NotificationError, note.Level)
	assert.Equal(t, "permission denied for table tasks", note.Message)
}

func TestSessionTaskStatusFailureDoesNotComplete(t *testing.T) {
	store := seededStore(sessionNow)
	session, notifier, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	store.updateErr = errors.New("row level security")
	require.Error(t, session.CompleteTask(t.Context(), "t1"))

	stats := session.Stats()
	assert.Equal(t, 1, stats.PendingTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	note, _ := notifier.last()
	assert.Equal(t, "row level security", note.Message)
}

func TestSessionCompleteTask(t *testing.T) {
	store := seededStore(sessionNow)
	session, notifier, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	require.NoError(t, session.CompleteTask(t.Context(), " t1 "))
	stats := session.Stats()
	assert.Zero(t, stats.PendingTasks)
	assert.Equal(t, 2, stats.CompletedTasks)
	note, _ := notifier.last()
	assert.Equal(t, "Task completed!", note.Message)

	require.ErrorIs(t, session.UpdateTaskStatus(t.Context(), "t1", " "), ErrInvalidTaskStatus)
}

func TestSessionAddTaskAndPropertyMergeLocally(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, _ := newTestSession(t, store)
	session.Refresh(t.Context())

	task, err := session.AddTask(t.Context(), NewTask{Title: "Order photos"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTaskPriority, task.Priority)
	assert.Equal(t, TaskStatusPending, task.Status)

	property, err := session.AddProperty(t.Context(), NewProperty{
		Title: "Cottage", Price: 250000, Address: "1 Elm St", City: "Austin", State: "TX", ZipCode: "73301",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultPropertyType, property.PropertyType)

	stats := session.Stats()
	assert.Equal(t, 2, stats.PendingTasks)
	assert.Equal(t, 3, stats.TotalProperties)
	assert.Equal(t, 1, store.calls(CollectionLeads), "no refetch without the option")
}

func TestSessionRefetchAfterMutation(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, hook := newTestSession(t, store, func(o *SessionOptions) {
		o.RefetchAfterMutation = true
	})
	session.Refresh(t.Context())

	_, err := session.AddLead(t.Context(), NewLead{Name: "Eve", Email: "eve@example.com", Source: "referral"})
	require.NoError(t, err)

	assert.Equal(t, 2, store.calls(CollectionLeads))
	assert.Equal(t, 4, session.Stats().TotalLeads, "refetch agrees with the local merge")
	assert.Equal(t, []string{"refresh", "refresh"}, hook.reasons())
}

func TestSessionScopeProperties(t *testing.T) {
	store := seededStore(sessionNow)
	session, _, _ := newTestSession(t, store, func(o *SessionOptions) {
		o.ScopeProperties = true
	})
	session.Refresh(t.Context())
	assert.Equal(t, 1, session.Stats().TotalProperties)
	assert.Equal(t, []string{"agent-1"}, store.propertyOwner)
}
