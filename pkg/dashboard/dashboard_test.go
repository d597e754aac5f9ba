package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/goliatone/go-agency-dashboard/components/dashboard"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-agency-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-agency-dashboard/pkg/records"
)

func TestNewRequiresRecords(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNewWiresHandlers(t *testing.T) {
	store := records.NewMemoryStore(core.Records{})
	dash, err := New(Options{Records: store})
	require.NoError(t, err)

	viewer := core.ViewerContext{UserID: "agent-1"}
	sample := records.SampleData(viewer.UserID, time.Now())
	_, err = records.SeedDeals(t.Context(), store, sample.Deals)
	require.NoError(t, err)
	require.NoError(t, dash.Seed.Execute(t.Context(), commands.SeedRecordsInput{
		Viewer:     viewer,
		Leads:      sample.Leads,
		Properties: sample.Properties,
		Tasks:      sample.Tasks,
	}))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set(httpapi.ViewerHeader, viewer.UserID)
	rec := httptest.NewRecorder()
	dash.Handlers.HandleStats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot core.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Equal(t, len(sample.Leads), snapshot.Stats.TotalLeads)
	assert.Equal(t, len(sample.Properties), snapshot.Stats.TotalProperties)
	assert.Equal(t, 2, snapshot.Stats.ActiveDeals)
}

func TestNewAppliesProfile(t *testing.T) {
	profile, err := core.DecodeProfile(strings.NewReader("version: \"1\"\nsettings:\n  layout:\n    gridSize: large\n"))
	require.NoError(t, err)
	dash, err := New(Options{Records: records.NewMemoryStore(core.Records{}), Profile: profile})
	require.NoError(t, err)

	settings, err := dash.Service.Settings(context.Background(), core.ViewerContext{UserID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, core.GridLarge, settings.Layout.GridSize)
}

func TestNewAppliesRecentLimit(t *testing.T) {
	store := records.NewMemoryStore(core.Records{})
	dash, err := New(Options{Records: store, RecentLimit: 2, ChartHeight: "240px"})
	require.NoError(t, err)

	viewer := core.ViewerContext{UserID: "agent-1"}
	sample := records.SampleData(viewer.UserID, time.Now())
	require.NoError(t, dash.Seed.Execute(t.Context(), commands.SeedRecordsInput{Viewer: viewer, Leads: sample.Leads}))

	layout, err := dash.Service.ConfigureLayout(t.Context(), viewer)
	require.NoError(t, err)
	for _, w := range layout.Widgets {
		if w.Key == core.WidgetClientFollowup {
			items, ok := w.Data["items"].([]map[string]any)
			require.True(t, ok)
			assert.Len(t, items, 2)
			return
		}
	}
	t.Fatal("client follow-up widget not in layout")
}
