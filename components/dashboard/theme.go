package dashboard

import (
	"slices"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/types"
)

var chartThemes = map[Theme]string{
	ThemeSystem: types.ThemeWesteros,
	ThemeLight:  types.ThemeWesteros,
	ThemeDark:   types.ThemeChalk,
}

// ChartThemeFor returns the echarts theme for a view theme, or "" when the
// theme is unknown.
func ChartThemeFor(theme Theme) string {
	return chartThemes[theme]
}

// ViewPresentation carries the view settings in the shape templates use.
type ViewPresentation struct {
	Theme      Theme   `json:"theme"`
	ChartTheme string  `json:"chartTheme"`
	Density    Density `json:"density"`
	Animations bool    `json:"animations"`
	Compact    bool    `json:"compact"`
	Columns    int     `json:"columns"`
	// Tokens become CSS variables on the dashboard root element.
	Tokens map[string]string `json:"tokens,omitempty"`
}

var densitySpacing = map[Density]string{
	DensityCompact:     "0.5rem",
	DensityComfortable: "1rem",
	DensitySpacious:    "1.5rem",
}

// NewViewPresentation derives template-facing presentation from settings.
func NewViewPresentation(settings Settings, chartTheme string) ViewPresentation {
	spacing := densitySpacing[settings.View.Density]
	if spacing == "" {
		spacing = densitySpacing[DensityComfortable]
	}
	if settings.Layout.CompactView {
		spacing = densitySpacing[DensityCompact]
	}
	return ViewPresentation{
		Theme:      settings.View.Theme,
		ChartTheme: chartTheme,
		Density:    settings.View.Density,
		Animations: settings.View.Animations,
		Compact:    settings.Layout.CompactView,
		Columns:    settings.Layout.GridSize.Columns(),
		Tokens: map[string]string{
			"dashboard-gap":     spacing,
			"dashboard-columns": strconv.Itoa(settings.Layout.GridSize.Columns()),
		},
	}
}

// CSSVariables normalizes token keys into CSS variable names.
func (p ViewPresentation) CSSVariables() map[string]string {
	if len(p.Tokens) == 0 {
		return nil
	}
	vars := make(map[string]string, len(p.Tokens))
	for key, value := range p.Tokens {
		name := normalizeCSSVariable(key)
		if name == "" {
			continue
		}
		vars[name] = value
	}
	return vars
}

// CSSVariablesInline renders the CSS variable map as a style string with
// keys in sorted order.
func (p ViewPresentation) CSSVariablesInline() string {
	vars := p.CSSVariables()
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	var builder strings.Builder
	for _, key := range keys {
		value := vars[key]
		if value == "" {
			continue
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

func normalizeCSSVariable(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}
