package dashboard

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

var sharedChartCache = NewChartCache(5*time.Minute, 0)

// ThemeResolver selects an echarts theme for a view theme.
type ThemeResolver func(Theme) string

// EChartsRenderer renders server-side chart HTML for a chart kind.
type EChartsRenderer struct {
	cache         RenderCache
	themeResolver ThemeResolver
	assetsHost    string
	height        string
}

// EChartsOption customizes renderer behavior.
type EChartsOption func(*EChartsRenderer)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache RenderCache) EChartsOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartThemeResolver maps view themes to echarts themes.
func WithChartThemeResolver(resolver ThemeResolver) EChartsOption {
	return func(r *EChartsRenderer) {
		r.themeResolver = resolver
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.assetsHost = host
	}
}

// WithChartHeight overrides the rendered chart height.
func WithChartHeight(height string) EChartsOption {
	return func(r *EChartsRenderer) {
		r.height = height
	}
}

// NewEChartsRenderer builds a renderer with the shared TTL cache.
func NewEChartsRenderer(opts ...EChartsOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache:  sharedChartCache,
		height: defaultChartHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ChartSpec is everything needed to draw one chart.
type ChartSpec struct {
	ID       string
	Kind     ChartKind
	Title    string
	Subtitle string
	Series   []ChartSeries
	Theme    Theme
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string
	Points []ChartPoint
}

// ChartPoint represents an individual labeled value.
type ChartPoint struct {
	Label string
	Value float64
}

// SeriesFromCounts converts grouped tallies into a single chart series.
func SeriesFromCounts(name string, counts []GroupCount) ChartSeries {
	points := make([]ChartPoint, len(counts))
	for i, c := range counts {
		points[i] = ChartPoint{Label: c.Name, Value: float64(c.Value)}
	}
	return ChartSeries{Name: name, Points: points}
}

// Render returns the chart HTML, using the cache when configured.
func (r *EChartsRenderer) Render(spec ChartSpec) (string, error) {
	theme := r.resolveTheme(spec.Theme)
	renderFn := func() (string, error) {
		return r.render(spec, theme)
	}
	if r.cache == nil {
		return renderFn()
	}
	key := ChartCacheKey{Widget: spec.ID, Kind: spec.Kind, Theme: theme, Digest: chartDigest(spec)}
	return r.cache.GetOrRender(key, renderFn)
}

// ChartTheme returns the echarts theme used for a view theme.
func (r *EChartsRenderer) ChartTheme(theme Theme) string {
	return r.resolveTheme(theme)
}

func (r *EChartsRenderer) render(spec ChartSpec, theme string) (string, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("chart series is required")
	}
	spec = sanitizeSpec(spec)
	global := r.globalChartOptions(spec.Title, spec.Subtitle, theme)
	xAxis := axisLabels(spec.Series)
	switch spec.Kind {
	case ChartBar:
		return r.renderBarChart(global, xAxis, spec.Series, false)
	case ChartHorizontal:
		return r.renderBarChart(global, xAxis, spec.Series, true)
	case ChartLine:
		return r.renderLineChart(global, xAxis, spec.Series, false)
	case ChartArea:
		return r.renderLineChart(global, xAxis, spec.Series, true)
	case ChartFunnel:
		return r.renderFunnelChart(global, spec.Series)
	case ChartRadar:
		return r.renderRadarChart(global, xAxis, spec.Series)
	case ChartScatter:
		return r.renderScatterChart(global, xAxis, spec.Series)
	default:
		return "", fmt.Errorf("unsupported chart kind: %s", spec.Kind)
	}
}

func (r *EChartsRenderer) renderBarChart(global []charts.GlobalOpts, xAxis []string, series []ChartSeries, horizontal bool) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(global...)
	bar.SetXAxis(xAxis)
	for _, s := range series {
		bar.AddSeries(s.Name, toBarData(s.Points))
	}
	if horizontal {
		bar.XYReversal()
	}
	return renderChart(bar)
}

func (r *EChartsRenderer) renderLineChart(global []charts.GlobalOpts, xAxis []string, series []ChartSeries, area bool) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(global...)
	line.SetXAxis(xAxis)
	for _, s := range series {
		line.AddSeries(s.Name, toLineData(s.Points))
	}
	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	}
	if area {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{}))
	}
	line.SetSeriesOptions(seriesOpts...)
	return renderChart(line)
}

func (r *EChartsRenderer) renderFunnelChart(global []charts.GlobalOpts, series []ChartSeries) (string, error) {
	funnel := charts.NewFunnel()
	funnel.SetGlobalOptions(global...)
	for _, s := range series {
		funnel.AddSeries(s.Name, toFunnelData(s.Points))
	}
	return renderChart(funnel)
}

func (r *EChartsRenderer) renderRadarChart(global []charts.GlobalOpts, indicators []string, series []ChartSeries) (string, error) {
	radar := charts.NewRadar()
	components := make([]*opts.Indicator, len(indicators))
	for i, name := range indicators {
		components[i] = &opts.Indicator{Name: name}
	}
	global = append(global, charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: components}))
	radar.SetGlobalOptions(global...)
	for _, s := range series {
		values := make([]float64, len(s.Points))
		for i, point := range s.Points {
			values[i] = point.Value
		}
		radar.AddSeries(s.Name, []opts.RadarData{{Name: s.Name, Value: values}})
	}
	return renderChart(radar)
}

func (r *EChartsRenderer) renderScatterChart(global []charts.GlobalOpts, xAxis []string, series []ChartSeries) (string, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(global...)
	scatter.SetXAxis(xAxis)
	for _, s := range series {
		scatter.AddSeries(s.Name, toScatterData(s.Points))
	}
	return renderChart(scatter)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *EChartsRenderer) globalChartOptions(title, subtitle, theme string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func (r *EChartsRenderer) resolveTheme(theme Theme) string {
	if r.themeResolver != nil {
		if resolved := r.themeResolver(theme); resolved != "" {
			return resolved
		}
	}
	if resolved := ChartThemeFor(theme); resolved != "" {
		return resolved
	}
	return types.ThemeWesteros
}

// sanitizeSpec escapes user-provided text (lead sources, stages, titles)
// before it is embedded in the chart script.
func sanitizeSpec(spec ChartSpec) ChartSpec {
	spec.Title = html.EscapeString(spec.Title)
	spec.Subtitle = html.EscapeString(spec.Subtitle)
	series := make([]ChartSeries, len(spec.Series))
	for i, s := range spec.Series {
		points := make([]ChartPoint, len(s.Points))
		for j, point := range s.Points {
			points[j] = ChartPoint{Label: html.EscapeString(point.Label), Value: point.Value}
		}
		series[i] = ChartSeries{Name: html.EscapeString(s.Name), Points: points}
	}
	spec.Series = series
	return spec
}

func axisLabels(series []ChartSeries) []string {
	var labels []string
	for _, s := range series {
		if len(s.Points) <= len(labels) {
			continue
		}
		labels = make([]string, len(s.Points))
		for i, point := range s.Points {
			if point.Label != "" {
				labels[i] = point.Label
			} else {
				labels[i] = fmt.Sprintf("Item %d", i+1)
			}
		}
	}
	return labels
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{Name: point.Label, Value: point.Value}
	}
	return data
}

func toLineData(points []ChartPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, point := range points {
		data[i] = opts.LineData{Name: point.Label, Value: point.Value}
	}
	return data
}

func toFunnelData(points []ChartPoint) []opts.FunnelData {
	data := make([]opts.FunnelData, len(points))
	for i, point := range points {
		data[i] = opts.FunnelData{Name: point.Label, Value: point.Value}
	}
	return data
}

func toScatterData(points []ChartPoint) []opts.ScatterData {
	data := make([]opts.ScatterData, len(points))
	for i, point := range points {
		data[i] = opts.ScatterData{Name: point.Label, Value: point.Value}
	}
	return data
}
