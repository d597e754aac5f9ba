package dashboard

import "time"

var dateRangeWindows = map[string]func(time.Time) time.Time{
	"7d":  func(now time.Time) time.Time { return now.AddDate(0, 0, -7) },
	"30d": func(now time.Time) time.Time { return now.AddDate(0, 0, -30) },
	"90d": func(now time.Time) time.Time { return now.AddDate(0, 0, -90) },
	"1y":  func(now time.Time) time.Time { return now.AddDate(-1, 0, 0) },
}

// ApplyFilters narrows the records to what the filter settings select.
// "all" leaves a dimension untouched; "custom" date ranges carry no bounds
// here and are treated like "all".
func ApplyFilters(records Records, filters FilterSettings, now time.Time) Records {
	since, bounded := time.Time{}, false
	if window, ok := dateRangeWindows[filters.DateRange]; ok {
		since, bounded = window(now.UTC()), true
	}
	inRange := func(created time.Time) bool {
		return !bounded || !created.UTC().Before(since)
	}
	agent := filters.SelectedAgent
	matchAgent := func(id *string) bool {
		if isUnfiltered(agent) {
			return true
		}
		return id != nil && *id == agent
	}

	out := Records{
		Leads:      make([]Lead, 0, len(records.Leads)),
		Properties: make([]Property, 0, len(records.Properties)),
		Deals:      make([]Deal, 0, len(records.Deals)),
		Tasks:      make([]Task, 0, len(records.Tasks)),
	}
	for _, lead := range records.Leads {
		if !inRange(lead.CreatedAt) || !matchAgent(lead.AgentID) {
			continue
		}
		if !isUnfiltered(filters.LeadSource) && lead.Source != filters.LeadSource {
			continue
		}
		out.Leads = append(out.Leads, lead)
	}
	for _, property := range records.Properties {
		if !inRange(property.CreatedAt) || !matchAgent(property.AgentID) {
			continue
		}
		if !isUnfiltered(filters.PropertyType) && property.PropertyType != filters.PropertyType {
			continue
		}
		out.Properties = append(out.Properties, property)
	}
	for _, deal := range records.Deals {
		if inRange(deal.CreatedAt) && matchAgent(deal.AgentID) {
			out.Deals = append(out.Deals, deal)
		}
	}
	for _, task := range records.Tasks {
		if inRange(task.CreatedAt) && matchAgent(task.AssignedTo) {
			out.Tasks = append(out.Tasks, task)
		}
	}
	return out
}

// ActiveFilters returns the filters that currently narrow the data.
func ActiveFilters(filters FilterSettings) map[FilterKey]string {
	active := map[FilterKey]string{}
	for _, key := range FilterKeys() {
		value := filters.Value(key)
		if key == FilterDateRange {
			if _, ok := dateRangeWindows[value]; !ok {
				continue
			}
		} else if isUnfiltered(value) {
			continue
		}
		active[key] = value
	}
	return active
}

func isUnfiltered(value string) bool {
	return value == "" || value == FilterAll
}
