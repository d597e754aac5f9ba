package dashboard

import "time"

// Stats are the scalar summaries shown in the dashboard header cards.
type Stats struct {
	TotalLeads      int     `json:"totalLeads"`
	NewLeads        int     `json:"newLeads"`
	TotalProperties int     `json:"totalProperties"`
	ActiveDeals     int     `json:"activeDeals"`
	TotalRevenue    float64 `json:"totalRevenue"`
	MonthlyRevenue  float64 `json:"monthlyRevenue"`
	PendingTasks    int     `json:"pendingTasks"`
	CompletedTasks  int     `json:"completedTasks"`
}

// GroupCount is a single tally bucket, shaped for chart series.
type GroupCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ComputeStats derives Stats from the record slices. Monthly revenue counts
// won deals whose actual close date falls in the UTC calendar month of now.
func ComputeStats(leads []Lead, properties []Property, deals []Deal, tasks []Task, now time.Time) Stats {
	stats := Stats{
		TotalLeads:      len(leads),
		TotalProperties: len(properties),
	}
	for _, lead := range leads {
		if lead.Status == LeadStatusNew {
			stats.NewLeads++
		}
	}
	for _, deal := range deals {
		if deal.Stage != DealStageWon && deal.Stage != DealStageLost {
			stats.ActiveDeals++
		}
	}
	stats.TotalRevenue = TotalRevenue(deals)
	stats.MonthlyRevenue = MonthlyRevenue(deals, now)
	for _, task := range tasks {
		switch task.Status {
		case TaskStatusPending:
			stats.PendingTasks++
		case TaskStatusCompleted:
			stats.CompletedTasks++
		}
	}
	return stats
}

// ComputeRecordStats is ComputeStats over a Records bundle.
func ComputeRecordStats(records Records, now time.Time) Stats {
	return ComputeStats(records.Leads, records.Properties, records.Deals, records.Tasks, now)
}

// TotalRevenue sums commission over won deals.
func TotalRevenue(deals []Deal) float64 {
	var total float64
	for _, deal := range deals {
		if deal.Stage == DealStageWon {
			total += deal.Commission()
		}
	}
	return total
}

// MonthlyRevenue sums commission over won deals closed in the month of now.
func MonthlyRevenue(deals []Deal, now time.Time) float64 {
	ref := now.UTC()
	var total float64
	for _, deal := range deals {
		if deal.Stage != DealStageWon || deal.ActualCloseDate == nil {
			continue
		}
		closed := deal.ActualCloseDate.UTC()
		if closed.Year() == ref.Year() && closed.Month() == ref.Month() {
			total += deal.Commission()
		}
	}
	return total
}

// GroupCounts tallies values in order of first appearance. Values that never
// occur are absent from the result.
func GroupCounts(values []string) []GroupCount {
	out := make([]GroupCount, 0)
	index := make(map[string]int, len(values))
	for _, value := range values {
		if pos, ok := index[value]; ok {
			out[pos].Value++
			continue
		}
		index[value] = len(out)
		out = append(out, GroupCount{Name: value, Value: 1})
	}
	return out
}

// LeadSourceBreakdown tallies leads per source.
func LeadSourceBreakdown(leads []Lead) []GroupCount {
	values := make([]string, len(leads))
	for i, lead := range leads {
		values[i] = lead.Source
	}
	return GroupCounts(values)
}

// DealStageBreakdown tallies deals per stage.
func DealStageBreakdown(deals []Deal) []GroupCount {
	values := make([]string, len(deals))
	for i, deal := range deals {
		values[i] = deal.Stage
	}
	return GroupCounts(values)
}

// TaskPriorityBreakdown tallies open tasks per priority.
func TaskPriorityBreakdown(tasks []Task) []GroupCount {
	values := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == TaskStatusCompleted {
			continue
		}
		values = append(values, task.Priority)
	}
	return GroupCounts(values)
}
