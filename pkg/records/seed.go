package records

import (
	"context"
	"fmt"
	"time"

	dashboard "github.com/goliatone/go-agency-dashboard/components/dashboard"
)

// Sample is a demo dataset. Leads, properties and tasks go through the
// regular insert path; deals have no form and are written directly.
type Sample struct {
	Leads      []dashboard.NewLead
	Properties []dashboard.NewProperty
	Tasks      []dashboard.NewTask
	Deals      []dashboard.Deal
}

// DealInserter is implemented by stores that accept deals outside the
// dashboard forms.
type DealInserter interface {
	InsertDeal(ctx context.Context, deal dashboard.Deal) (dashboard.Deal, error)
}

// SampleData builds a small agency dataset owned by agentID, with deal dates
// relative to now.
func SampleData(agentID string, now time.Time) Sample {
	phone := "+1 555 0100"
	due := now.AddDate(0, 0, 2)
	overdue := now.AddDate(0, 0, -1)
	thisMonth := now.AddDate(0, 0, -3)
	lastMonth := now.AddDate(0, -1, 0)
	expected := now.AddDate(0, 0, 21)
	owner := &agentID
	commission := func(v float64) *float64 { return &v }
	rate := commission(0.03)
	bedrooms, bathrooms, sqft := 3, 2, 1850

	return Sample{
		Leads: []dashboard.NewLead{
			{Name: "Maria Lopez", Email: "maria.lopez@example.com", Phone: &phone, Source: "website", Status: dashboard.LeadStatusNew},
			{Name: "James Carter", Email: "james.carter@example.com", Source: "referral", Status: "contacted"},
			{Name: "Priya Shah", Email: "priya.shah@example.com", Source: "zillow", Status: "qualified"},
			{Name: "Tom Becker", Email: "tom.becker@example.com", Source: "website", Status: dashboard.LeadStatusNew},
			{Name: "Ana Costa", Email: "ana.costa@example.com", Source: "open_house", Status: "nurturing"},
		},
		Properties: []dashboard.NewProperty{
			{Title: "Maple Street Family Home", Price: 485000, Address: "12 Maple St", City: "Austin", State: "TX", ZipCode: "78701", PropertyType: "house", Bedrooms: &bedrooms, Bathrooms: &bathrooms, SquareFeet: &sqft, Status: "active"},
			{Title: "Downtown Loft", Price: 362000, Address: "400 Congress Ave #1204", City: "Austin", State: "TX", ZipCode: "78701", PropertyType: "condo", Status: "pending"},
			{Title: "Hill Country Lot", Price: 150000, Address: "RR 12", City: "Dripping Springs", State: "TX", ZipCode: "78620", PropertyType: "land", Status: "active"},
		},
		Tasks: []dashboard.NewTask{
			{Title: "Call Maria about financing", Priority: "high", Status: dashboard.TaskStatusPending, DueDate: &due},
			{Title: "Schedule loft photos", Priority: dashboard.TaskPriorityUrgent, Status: dashboard.TaskStatusPending, DueDate: &overdue},
			{Title: "Send CMA to James", Priority: dashboard.DefaultTaskPriority, Status: "in_progress"},
			{Title: "File closing documents", Priority: "low", Status: dashboard.TaskStatusCompleted},
		},
		Deals: []dashboard.Deal{
			{AgentID: owner, DealValue: 410000, Stage: dashboard.DealStageWon, CommissionAmount: commission(12300), CommissionRate: rate, ActualCloseDate: &thisMonth, CreatedAt: now.AddDate(0, 0, -40)},
			{AgentID: owner, DealValue: 295000, Stage: dashboard.DealStageWon, CommissionAmount: commission(8850), CommissionRate: rate, ActualCloseDate: &lastMonth, CreatedAt: now.AddDate(0, -2, 0)},
			{AgentID: owner, DealValue: 362000, Stage: "negotiation", CommissionRate: rate, ExpectedCloseDate: &expected, CreatedAt: now.AddDate(0, 0, -10)},
			{AgentID: owner, DealValue: 520000, Stage: "offer", CreatedAt: now.AddDate(0, 0, -4)},
			{AgentID: owner, DealValue: 180000, Stage: dashboard.DealStageLost, CreatedAt: now.AddDate(0, 0, -25)},
		},
	}
}

// SeedDeals writes deals through store, stopping at the first failure.
func SeedDeals(ctx context.Context, store DealInserter, deals []dashboard.Deal) (int, error) {
	for i, deal := range deals {
		if _, err := store.InsertDeal(ctx, deal); err != nil {
			return i, fmt.Errorf("records: seed deal %d: %w", i, err)
		}
	}
	return len(deals), nil
}
