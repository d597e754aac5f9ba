package dashboard

import (
	"context"
	"fmt"
	"strings"
)

// TranslationService translates widget titles, chart labels and empty-state
// messages for the viewer's locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ResolveLocalizedValue picks the entry for locale, then its base language
// (`es-MX` and `es_MX` both fall back to `es`), then "default", then fallback.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	for _, candidate := range localeCandidates(locale) {
		if value := values[candidate]; value != "" {
			return value
		}
	}
	return fallback
}

// normalizeLocalizedFields rekeys the widget's name and description maps so
// lookups can match candidates directly.
func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// NameForLocale returns the widget name for locale.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ResolveLocalizedValue(def.NameLocalized, locale, def.Name)
}

// DescriptionForLocale returns the widget description for locale.
func (def WidgetDefinition) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, locale, def.Description)
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		if key = normalizeLocale(key); key != "" && value != "" {
			normalized[key] = value
		}
	}
	return normalized
}

// localeCandidates lists the lookup order for locale, ending in "default".
func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
		return []string{locale, base, "default"}
	}
	return []string{locale, "default"}
}

// normalizeLocale lowercases locale and turns POSIX separators into BCP 47
// ones, so "es_MX" and "es-mx" name the same catalog.
func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}

// translateOrFallback asks svc for key and falls back to fallback, then to
// the key itself. Placeholders like {count} are filled from params either way.
func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback == "" {
		return key
	}
	return interpolate(fallback, params)
}

func interpolate(message string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(message, "{") {
		return message
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// MapTranslations is a TranslationService over an in-memory catalog keyed by
// locale then message key, as loaded from a settings profile. Missing keys
// fall back to the base language and then the "default" catalog.
type MapTranslations map[string]map[string]string

// Translate implements TranslationService.
func (m MapTranslations) Translate(_ context.Context, key, locale string, params map[string]any) (string, error) {
	for _, candidate := range localeCandidates(locale) {
		if value := m[candidate][key]; value != "" {
			return interpolate(value, params), nil
		}
	}
	return "", fmt.Errorf("dashboard: no translation for %q in %q", key, locale)
}
