package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeStore is an in-memory RecordStore with switchable failures.
type fakeStore struct {
	mu         sync.Mutex
	leads      []Lead
	properties []Property
	deals      []Deal
	tasks      []Task

	listErr   map[string]error
	insertErr error
	updateErr error

	// leadGate, when set, blocks the first ListLeads call after it has
	// copied its result (or picked up its failure) until the channel is
	// closed.
	leadGate    chan struct{}
	leadEntered chan struct{}

	listCalls     map[string]int
	propertyOwner []string
	inserted      int
	next          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listErr:   map[string]error{},
		listCalls: map[string]int{},
	}
}

func (f *fakeStore) failList(collection string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr[collection] = err
}

func (f *fakeStore) calls(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[collection]
}

func (f *fakeStore) begin(collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[collection]++
	return f.listErr[collection]
}

func (f *fakeStore) ListLeads(_ context.Context, agentID string) ([]Lead, error) {
	err := f.begin(CollectionLeads)
	f.mu.Lock()
	var out []Lead
	for _, lead := range f.leads {
		if agentID == "" || (lead.AgentID != nil && *lead.AgentID == agentID) {
			out = append(out, lead)
		}
	}
	gate, entered := f.leadGate, f.leadEntered
	f.leadGate, f.leadEntered = nil, nil
	f.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) ListProperties(_ context.Context, agentID string) ([]Property, error) {
	if err := f.begin(CollectionProperties); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.propertyOwner = append(f.propertyOwner, agentID)
	var out []Property
	for _, property := range f.properties {
		if agentID == "" || (property.AgentID != nil && *property.AgentID == agentID) {
			out = append(out, property)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDeals(_ context.Context, agentID string) ([]Deal, error) {
	if err := f.begin(CollectionDeals); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Deal
	for _, deal := range f.deals {
		if agentID == "" || (deal.AgentID != nil && *deal.AgentID == agentID) {
			out = append(out, deal)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTasks(_ context.Context, assigneeID string) ([]Task, error) {
	if err := f.begin(CollectionTasks); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Task
	for _, task := range f.tasks {
		if assigneeID == "" || (task.AssignedTo != nil && *task.AssignedTo == assigneeID) {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeStore) id(prefix string) string {
	f.next++
	return fmt.Sprintf("%s-%d", prefix, f.next)
}

func (f *fakeStore) InsertLead(_ context.Context, input NewLead) (Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Lead{}, f.insertErr
	}
	f.inserted++
	lead := Lead{
		ID:      f.id("lead"),
		AgentID: ptr(input.AgentID),
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Source:  input.Source,
		Status:  input.Status,
	}
	f.leads = append(f.leads, lead)
	return lead, nil
}

func (f *fakeStore) InsertProperty(_ context.Context, input NewProperty) (Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Property{}, f.insertErr
	}
	f.inserted++
	property := Property{
		ID:           f.id("property"),
		AgentID:      ptr(input.AgentID),
		Title:        input.Title,
		Price:        input.Price,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		PropertyType: input.PropertyType,
		Status:       input.Status,
	}
	f.properties = append(f.properties, property)
	return property, nil
}

func (f *fakeStore) InsertTask(_ context.Context, input NewTask) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Task{}, f.insertErr
	}
	f.inserted++
	task := Task{
		ID:          f.id("task"),
		AssignedTo:  ptr(input.AssignedTo),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		DueDate:     input.DueDate,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeStore) UpdateTaskStatus(_ context.Context, taskID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID {
			f.tasks[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, note Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
}

func (r *recordingNotifier) last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

type recordingHook struct {
	mu     sync.Mutex
	events []DashboardEvent
}

func (r *recordingHook) DashboardUpdated(_ context.Context, event DashboardEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingHook) reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, event := range r.events {
		out[i] = event.Reason
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// seededStore returns a store with a small mixed dataset owned by agent-1.
func seededStore(now time.Time) *fakeStore {
	store := newFakeStore()
	agent := ptr("agent-1")
	other := ptr("agent-2")
	lastMonth := now.AddDate(0, -1, 0)
	store.leads = []Lead{
		{ID: "l1", AgentID: agent, Name: "Ana", Email: "ana@example.com", Source: "website", Status: LeadStatusNew, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: "l2", AgentID: agent, Name: "Ben", Email: "ben@example.com", Source: "website", Status: "contacted", CreatedAt: now.AddDate(0, 0, -20)},
		{ID: "l3", AgentID: agent, Name: "Cy", Email: "cy@example.com", Source: "referral", Status: LeadStatusNew, CreatedAt: now.AddDate(0, 0, -60)},
		{ID: "l4", AgentID: other, Name: "Dee", Email: "dee@example.com", Source: "zillow", Status: LeadStatusNew, CreatedAt: now},
	}
	store.properties = []Property{
		{ID: "p1", AgentID: agent, Title: "Loft", Price: 350000, PropertyType: "condo", Status: "active", CreatedAt: now.AddDate(0, 0, -3)},
		{ID: "p2", AgentID: other, Title: "Farm", Price: 900000, PropertyType: "land", Status: "active", CreatedAt: now.AddDate(0, 0, -40)},
	}
	store.deals = []Deal{
		{ID: "d1", AgentID: agent, Stage: DealStageWon, CommissionAmount: ptr(1000.0), ActualCloseDate: &now, CreatedAt: now.AddDate(0, 0, -5)},
		{ID: "d2", AgentID: agent, Stage: DealStageWon, CommissionAmount: ptr(500.0), ActualCloseDate: &lastMonth, CreatedAt: now.AddDate(0, 0, -50)},
		{ID: "d3", AgentID: agent, Stage: "offer", CreatedAt: now.AddDate(0, 0, -1)},
	}
	store.tasks = []Task{
		{ID: "t1", AssignedTo: agent, Title: "Call Ana", Priority: "high", Status: TaskStatusPending, CreatedAt: now},
		{ID: "t2", AssignedTo: agent, Title: "Send contract", Priority: "medium", Status: TaskStatusCompleted, CreatedAt: now},
	}
	return store
}
