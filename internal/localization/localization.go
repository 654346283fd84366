// Package localization maps notification keys to human-readable text per
// language. Catalogs are JSON files compiled into the binary, one per
// language code.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// Localizer resolves translation keys against the embedded catalogs.
type Localizer struct {
	translations map[string]map[string]string
}

// NewLocalizer loads every embedded catalog. A malformed catalog fails
// startup rather than falling back silently.
func NewLocalizer() (*Localizer, error) {
	l := &Localizer{translations: make(map[string]map[string]string)}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".json")
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", entry.Name(), err)
		}
		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", entry.Name(), err)
		}
		l.translations[lang] = translations
	}
	return l, nil
}

// GetString returns the text for key in lang, falling back to English and
// finally to the key itself so a missing entry is visible, not silent.
func (l *Localizer) GetString(lang, key string) string {
	if catalog, ok := l.translations[lang]; ok {
		if value, ok := catalog[key]; ok {
			return value
		}
	}
	if lang != "en" {
		if catalog, ok := l.translations["en"]; ok {
			if value, ok := catalog[key]; ok {
				return value
			}
		}
	}
	return key
}

// GetStringf resolves key in lang and applies fmt arguments to it.
func (l *Localizer) GetStringf(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}
