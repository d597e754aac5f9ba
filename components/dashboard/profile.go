package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	profileVersionV1 = "1"
	// ProfileVersion exposes the current profile format version for tooling.
	ProfileVersion = profileVersionV1
)

// SettingsProfile is a YAML document that overrides the built-in default
// settings, the custom widget order, and widget names.
//
//	version: "1"
//	settings:
//	  filters:
//	    dateRange: 90d
//	  view:
//	    theme: dark
//	custom_order: [adminTasks, leadPipeline]
type SettingsProfile struct {
	Version      string                       `yaml:"version"`
	Name         string                       `yaml:"name,omitempty"`
	Settings     Settings                     `yaml:"settings"`
	CustomOrder  []WidgetKey                  `yaml:"custom_order,omitempty"`
	Translations map[string]map[string]string `yaml:"translations,omitempty"`
	Source       string                       `yaml:"-"`
}

// ReadProfile loads a settings profile from disk.
func ReadProfile(path string) (*SettingsProfile, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open profile %s: %w", path, err)
	}
	defer f.Close()
	profile, err := DecodeProfile(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode profile %s: %w", path, err)
	}
	profile.Source = path
	return profile, nil
}

// DecodeProfile reads a profile from any reader. Keys left out of the
// document keep their default values; unknown keys are rejected.
func DecodeProfile(r io.Reader) (*SettingsProfile, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	profile := SettingsProfile{Settings: DefaultSettings()}
	if err := decoder.Decode(&profile); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dashboard: profile is empty")
		}
		return nil, fmt.Errorf("dashboard: parse profile: %w", err)
	}
	profile.applyDefaults()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// EncodeProfile writes p as YAML.
func EncodeProfile(w io.Writer, p *SettingsProfile) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("dashboard: encode profile: %w", err)
	}
	return encoder.Close()
}

// Validate ensures the profile holds only known values.
func (p *SettingsProfile) Validate() error {
	if p.Version != profileVersionV1 {
		return fmt.Errorf("dashboard: unsupported profile version %q", p.Version)
	}
	if err := p.Settings.Validate(); err != nil {
		return fmt.Errorf("dashboard: profile settings: %w", err)
	}
	seen := make(map[WidgetKey]struct{}, len(p.CustomOrder))
	for idx, key := range p.CustomOrder {
		if (&WidgetSettings{}).field(key) == nil {
			return fmt.Errorf("dashboard: profile custom_order[%d] names unknown widget %q", idx, key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("dashboard: profile custom_order repeats widget %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// TranslationService returns the profile translations, or nil when there are none.
func (p *SettingsProfile) TranslationService() TranslationService {
	if p == nil || len(p.Translations) == 0 {
		return nil
	}
	catalog := make(MapTranslations, len(p.Translations))
	for locale, messages := range p.Translations {
		catalog[normalizeLocale(locale)] = messages
	}
	return catalog
}

func (p *SettingsProfile) applyDefaults() {
	if p.Version == "" {
		p.Version = profileVersionV1
	}
}
