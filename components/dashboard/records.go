package dashboard

import "time"

// Record values the aggregator and widgets understand.
const (
	LeadStatusNew = "new"

	DealStageWon  = "won"
	DealStageLost = "lost"

	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"

	TaskPriorityUrgent = "urgent"
)

// Lead is a prospective client.
type Lead struct {
	ID           string    `json:"id"`
	AgentID      *string   `json:"agent_id,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	InterestType *string   `json:"interest_type,omitempty"`
	BudgetMin    *float64  `json:"budget_min,omitempty"`
	BudgetMax    *float64  `json:"budget_max,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Property is a listing.
type Property struct {
	ID           string    `json:"id"`
	AgentID      *string   `json:"agent_id,omitempty"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zip_code"`
	PropertyType string    `json:"property_type"`
	Bedrooms     *int      `json:"bedrooms,omitempty"`
	Bathrooms    *int      `json:"bathrooms,omitempty"`
	SquareFeet   *int      `json:"square_feet,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Deal is a transaction moving through pipeline stages.
type Deal struct {
	ID                string     `json:"id"`
	AgentID           *string    `json:"agent_id,omitempty"`
	LeadID            *string    `json:"lead_id,omitempty"`
	PropertyID        *string    `json:"property_id,omitempty"`
	DealValue         float64    `json:"deal_value"`
	Stage             string     `json:"stage"`
	CommissionAmount  *float64   `json:"commission_amount,omitempty"`
	CommissionRate    *float64   `json:"commission_rate,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	ActualCloseDate   *time.Time `json:"actual_close_date,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Commission returns the commission amount, treating nil as zero.
func (d Deal) Commission() float64 {
	if d.CommissionAmount == nil {
		return 0
	}
	return *d.CommissionAmount
}

// Task is a to-do item assigned to an agent.
type Task struct {
	ID          string     `json:"id"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	LeadID      *string    `json:"lead_id,omitempty"`
	DealID      *string    `json:"deal_id,omitempty"`
	PropertyID  *string    `json:"property_id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewLead is the insert payload for a lead. The owner is stamped by the session.
type NewLead struct {
	AgentID string  `json:"agent_id,omitempty"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Source  string  `json:"source"`
	Status  string  `json:"status"`
}

// NewProperty is the insert payload for a property.
type NewProperty struct {
	AgentID      string  `json:"agent_id,omitempty"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zip_code"`
	PropertyType string  `json:"property_type"`
	Bedrooms     *int    `json:"bedrooms,omitempty"`
	Bathrooms    *int    `json:"bathrooms,omitempty"`
	SquareFeet   *int    `json:"square_feet,omitempty"`
	Status       string  `json:"status"`
}

// NewTask is the insert payload for a task.
type NewTask struct {
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Form defaults applied to insert payloads that leave a field empty.
const (
	DefaultLeadSource     = "website"
	DefaultPropertyStatus = "active"
	DefaultPropertyType   = "house"
	DefaultTaskPriority   = "medium"
)

func (in *NewLead) applyDefaults() {
	if in.Source == "" {
		in.Source = DefaultLeadSource
	}
	if in.Status == "" {
		in.Status = LeadStatusNew
	}
}

func (in *NewProperty) applyDefaults() {
	if in.PropertyType == "" {
		in.PropertyType = DefaultPropertyType
	}
	if in.Status == "" {
		in.Status = DefaultPropertyStatus
	}
}

func (in *NewTask) applyDefaults() {
	if in.Priority == "" {
		in.Priority = DefaultTaskPriority
	}
	if in.Status == "" {
		in.Status = TaskStatusPending
	}
}

// Records bundles the four collections a session holds.
type Records struct {
	Leads      []Lead     `json:"leads"`
	Properties []Property `json:"properties"`
	Deals      []Deal     `json:"deals"`
	Tasks      []Task     `json:"tasks"`
}

func (r Records) clone() Records {
	return Records{
		Leads:      append([]Lead(nil), r.Leads...),
		Properties: append([]Property(nil), r.Properties...),
		Deals:      append([]Deal(nil), r.Deals...),
		Tasks:      append([]Task(nil), r.Tasks...),
	}
}
