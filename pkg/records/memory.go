package records

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
)

// MemoryStore implements dashboard.RecordStore using in-memory fixtures. It
// backs local demos and the CLI when no remote service is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data dashboard.Records
	now  func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the timestamp source for inserted records.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore builds a store seeded with data. The fixtures are copied.
func NewMemoryStore(data dashboard.Records, opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		data: dashboard.Records{
			Leads:      slices.Clone(data.Leads),
			Properties: slices.Clone(data.Properties),
			Deals:      slices.Clone(data.Deals),
			Tasks:      slices.Clone(data.Tasks),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func owned(owner *string, id string) bool {
	return id == "" || (owner != nil && *owner == id)
}

func filterOwned[T any](items []T, owner func(T) *string, id string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if owned(owner(item), id) {
			out = append(out, item)
		}
	}
	return out
}

// ListLeads returns leads owned by agentID, or every lead when agentID is empty.
func (s *MemoryStore) ListLeads(ctx context.Context, agentID string) ([]dashboard.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOwned(s.data.Leads, func(l dashboard.Lead) *string { return l.AgentID }, agentID), nil
}

func (s *MemoryStore) ListProperties(ctx context.Context, agentID string) ([]dashboard.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOwned(s.data.Properties, func(p dashboard.Property) *string { return p.AgentID }, agentID), nil
}

func (s *MemoryStore) ListDeals(ctx context.Context, agentID string) ([]dashboard.Deal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOwned(s.data.Deals, func(d dashboard.Deal) *string { return d.AgentID }, agentID), nil
}

func (s *MemoryStore) ListTasks(ctx context.Context, assigneeID string) ([]dashboard.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOwned(s.data.Tasks, func(t dashboard.Task) *string { return t.AssignedTo }, assigneeID), nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *MemoryStore) InsertLead(ctx context.Context, input dashboard.NewLead) (dashboard.Lead, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.Lead{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	lead := dashboard.Lead{
		ID:        uuid.NewString(),
		AgentID:   optional(input.AgentID),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Source:    input.Source,
		Status:    input.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.data.Leads = append(s.data.Leads, lead)
	return lead, nil
}

func (s *MemoryStore) InsertProperty(ctx context.Context, input dashboard.NewProperty) (dashboard.Property, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.Property{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	property := dashboard.Property{
		ID:           uuid.NewString(),
		AgentID:      optional(input.AgentID),
		Title:        input.Title,
		Price:        input.Price,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		PropertyType: input.PropertyType,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		SquareFeet:   input.SquareFeet,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.data.Properties = append(s.data.Properties, property)
	return property, nil
}

func (s *MemoryStore) InsertTask(ctx context.Context, input dashboard.NewTask) (dashboard.Task, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	task := dashboard.Task{
		ID:          uuid.NewString(),
		AssignedTo:  optional(input.AssignedTo),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      input.Status,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.data.Tasks = append(s.data.Tasks, task)
	return task, nil
}

// InsertDeal appends a deal. Deals have no dashboard form, so only seeding
// and tests create them.
func (s *MemoryStore) InsertDeal(ctx context.Context, deal dashboard.Deal) (dashboard.Deal, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.Deal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = s.now().UTC()
	}
	if deal.UpdatedAt.IsZero() {
		deal.UpdatedAt = deal.CreatedAt
	}
	s.data.Deals = append(s.data.Deals, deal)
	return deal, nil
}

func (s *MemoryStore) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Tasks {
		if s.data.Tasks[i].ID == taskID {
			s.data.Tasks[i].Status = status
			s.data.Tasks[i].UpdatedAt = s.now().UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", dashboard.ErrTaskNotFound, taskID)
}

var _ dashboard.RecordStore = (*MemoryStore)(nil)
