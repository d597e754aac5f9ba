package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyFiltersAllIsIdentity(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	store := seededStore(now)
	records := Records{Leads: store.leads, Properties: store.properties, Deals: store.deals, Tasks: store.tasks}

	filters := DefaultSettings().Filters
	filters.DateRange = FilterAll
	got := ApplyFilters(records, filters, now)
	assert.Equal(t, records, got)
	assert.Empty(t, ActiveFilters(filters))
}

func TestApplyFiltersDateWindow(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	store := seededStore(now)
	records := Records{Leads: store.leads, Deals: store.deals}

	filters := DefaultSettings().Filters
	filters.DateRange = "7d"
	got := ApplyFilters(records, filters, now)

	ids := make([]string, 0, len(got.Leads))
	for _, lead := range got.Leads {
		ids = append(ids, lead.ID)
	}
	assert.Equal(t, []string{"l1", "l4"}, ids)
	assert.Len(t, got.Deals, 2)
	assert.Equal(t, map[FilterKey]string{FilterDateRange: "7d"}, ActiveFilters(filters))
}

func TestApplyFiltersAgentSourceAndType(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	store := seededStore(now)
	records := Records{Leads: store.leads, Properties: store.properties}

	filters := FilterSettings{DateRange: "1y", SelectedAgent: "agent-1", LeadSource: "website", PropertyType: "condo"}
	got := ApplyFilters(records, filters, now)

	assert.Len(t, got.Leads, 2)
	for _, lead := range got.Leads {
		assert.Equal(t, "website", lead.Source)
	}
	if assert.Len(t, got.Properties, 1) {
		assert.Equal(t, "p1", got.Properties[0].ID)
	}
	assert.Len(t, ActiveFilters(filters), 4)
}

func TestApplyFiltersCustomRangeIsUnbounded(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	old := Lead{ID: "ancient", CreatedAt: now.AddDate(-5, 0, 0)}
	filters := DefaultSettings().Filters
	filters.DateRange = "custom"
	got := ApplyFilters(Records{Leads: []Lead{old}}, filters, now)
	assert.Len(t, got.Leads, 1)
	assert.NotContains(t, ActiveFilters(filters), FilterDateRange)
}
