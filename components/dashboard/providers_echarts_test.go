package dashboard

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEChartsRendererKinds(t *testing.T) {
	t.Parallel()
	renderer := NewEChartsRenderer(WithChartCache(nil))
	kinds := []ChartKind{ChartBar, ChartHorizontal, ChartLine, ChartArea, ChartFunnel, ChartRadar, ChartScatter}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			markup, err := renderer.Render(sampleChartSpec(kind))
			require.NoError(t, err)
			assert.Contains(t, strings.ToLower(markup), "echarts")
		})
	}
}

func TestEChartsRendererUnsupportedKind(t *testing.T) {
	t.Parallel()
	renderer := NewEChartsRenderer(WithChartCache(nil))
	_, err := renderer.Render(sampleChartSpec("bubble"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestEChartsRendererRequiresSeries(t *testing.T) {
	t.Parallel()
	renderer := NewEChartsRenderer(WithChartCache(nil))
	_, err := renderer.Render(ChartSpec{ID: "empty", Kind: ChartBar})
	require.Error(t, err)
}

func TestEChartsRendererUsesCache(t *testing.T) {
	t.Parallel()
	cache := &countingCache{}
	renderer := NewEChartsRenderer(WithChartCache(cache))
	spec := sampleChartSpec(ChartBar)

	first, err := renderer.Render(spec)
	require.NoError(t, err)
	second, err := renderer.Render(spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), cache.calls.Load())
}

func TestEChartsRendererNewDataMissesTTLCache(t *testing.T) {
	t.Parallel()
	cache := NewChartCache(time.Minute, 0)
	renderer := NewEChartsRenderer(WithChartCache(cache))

	spec := sampleChartSpec(ChartBar)
	_, err := renderer.Render(spec)
	require.NoError(t, err)

	spec.Series[0].Points[0].Value = 99
	_, err = renderer.Render(spec)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
}

func TestEChartsRendererThemeSelection(t *testing.T) {
	t.Parallel()
	renderer := NewEChartsRenderer()
	assert.Equal(t, types.ThemeChalk, renderer.ChartTheme(ThemeDark))
	assert.Equal(t, types.ThemeWesteros, renderer.ChartTheme(ThemeLight))
	assert.Equal(t, types.ThemeWesteros, renderer.ChartTheme("sepia"))

	override := NewEChartsRenderer(WithChartThemeResolver(func(Theme) string {
		return types.ThemeWalden
	}))
	assert.Equal(t, types.ThemeWalden, override.ChartTheme(ThemeDark))
}

func TestEChartsRendererSanitizesLabels(t *testing.T) {
	t.Parallel()
	renderer := NewEChartsRenderer(WithChartCache(nil))
	markup, err := renderer.Render(ChartSpec{
		ID:    "xss",
		Kind:  ChartBar,
		Title: `<script>alert("xss")</script>`,
		Series: []ChartSeries{{
			Name:   `<b onclick="hack">Leads</b>`,
			Points: []ChartPoint{{Label: `<img src=x onerror=alert(1)>`, Value: 1}},
		}},
	})
	require.NoError(t, err)

	lower := strings.ToLower(markup)
	assert.NotContains(t, lower, "<img src")
	assert.NotContains(t, lower, "<b onclick")
	assert.NotContains(t, lower, `<script>alert("xss")`)
}

func TestSeriesFromCountsKeepsOrder(t *testing.T) {
	series := SeriesFromCounts("Leads", []GroupCount{{Name: "website", Value: 2}, {Name: "referral", Value: 1}})
	require.Len(t, series.Points, 2)
	assert.Equal(t, ChartPoint{Label: "website", Value: 2}, series.Points[0])
	assert.Equal(t, ChartPoint{Label: "referral", Value: 1}, series.Points[1])
}

func TestBreakdownChartProviderRendersSelectedKind(t *testing.T) {
	t.Parallel()
	leadSources := func(r Records) []GroupCount { return LeadSourceBreakdown(r.Leads) }
	provider := NewBreakdownChartProvider(NewEChartsRenderer(WithChartCache(nil)), "Leads", leadSources)
	settings := DefaultSettings()
	settings = settings.UpdateChart(ChartLeadPipeline, ChartBar)

	data, err := provider.Fetch(context.Background(), WidgetContext{
		Definition: WidgetDefinition{Key: WidgetLeadPipeline, Chart: ChartLeadPipeline},
		Viewer:     ViewerContext{UserID: "agent-1"},
		Settings:   settings,
		Records: Records{Leads: []Lead{
			{ID: "l1", Source: "website"},
			{ID: "l2", Source: "website"},
			{ID: "l3", Source: "referral"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, ChartBar, data["chart_kind"])
	assert.Equal(t, false, data["empty"])
	assert.Equal(t, []GroupCount{{Name: "website", Value: 2}, {Name: "referral", Value: 1}}, data["counts"])
	assert.Contains(t, strings.ToLower(data["chart_html"].(string)), "echarts")
}

func TestBreakdownChartProviderEmpty(t *testing.T) {
	t.Parallel()
	leadSources := func(r Records) []GroupCount { return LeadSourceBreakdown(r.Leads) }
	provider := NewBreakdownChartProvider(NewEChartsRenderer(WithChartCache(nil)), "Leads", leadSources)

	data, err := provider.Fetch(context.Background(), WidgetContext{
		Definition: WidgetDefinition{Key: WidgetLeadPipeline, Chart: ChartLeadPipeline},
		Settings:   DefaultSettings(),
	})
	require.NoError(t, err)
	assert.Equal(t, true, data["empty"])
	assert.NotContains(t, data, "chart_html")
}

func sampleChartSpec(kind ChartKind) ChartSpec {
	return ChartSpec{
		ID:    "sample-" + string(kind),
		Kind:  kind,
		Title: "Lead Sources",
		Series: []ChartSeries{{
			Name: "Leads",
			Points: []ChartPoint{
				{Label: "website", Value: 2},
				{Label: "referral", Value: 1},
			},
		}},
	}
}

type countingCache struct {
	calls atomic.Int32
	value string
}

func (c *countingCache) GetOrRender(_ ChartCacheKey, render func() (string, error)) (string, error) {
	if c.value != "" {
		return c.value, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.calls.Add(1)
	c.value = html
	return html, nil
}

func BenchmarkEChartsBarChart(b *testing.B) {
	renderer := NewEChartsRenderer(WithChartCache(nil))
	spec := sampleChartSpec(ChartBar)
	for b.Loop() {
		if _, err := renderer.Render(spec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEChartsBarChartCached(b *testing.B) {
	renderer := NewEChartsRenderer(WithChartCache(NewChartCache(5*time.Minute, 0)))
	spec := sampleChartSpec(ChartBar)
	for b.Loop() {
		if _, err := renderer.Render(spec); err != nil {
			b.Fatal(err)
		}
	}
}
