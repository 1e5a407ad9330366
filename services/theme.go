package services

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"climate-dashboard/models"
)

//go:embed theme.yaml
var defaultTheme []byte

// Theme holds the page colours and the style of every widget.
type Theme struct {
	Background string                        `yaml:"background"`
	Card       string                        `yaml:"card"`
	Text       string                        `yaml:"text"`
	Widgets    map[string]models.WidgetStyle `yaml:"widgets"`
}

// Style returns the style for a widget id, or a zero style.
func (t *Theme) Style(id string) models.WidgetStyle {
	return t.Widgets[id]
}

// DefaultTheme returns the built-in dark theme.
func DefaultTheme() *Theme {
	t, err := ParseTheme(defaultTheme)
	if err != nil {
		panic(fmt.Sprintf("services: embedded theme is invalid: %v", err))
	}
	return t
}

// ParseTheme decodes a YAML theme.
func ParseTheme(data []byte) (*Theme, error) {
	var t Theme
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("theme: decode: %w", err)
	}
	for id, s := range t.Widgets {
		if s.Height < 0 {
			return nil, fmt.Errorf("theme: widget %q: negative height %d", id, s.Height)
		}
	}
	return &t, nil
}

// LoadTheme reads a YAML theme from path and fills every widget or page
// colour it leaves unset from the default theme. An empty path returns the
// default theme.
func LoadTheme(path string) (*Theme, error) {
	base := DefaultTheme()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("theme: read %q: %w", path, err)
	}
	override, err := ParseTheme(data)
	if err != nil {
		return nil, err
	}

	if override.Background != "" {
		base.Background = override.Background
	}
	if override.Card != "" {
		base.Card = override.Card
	}
	if override.Text != "" {
		base.Text = override.Text
	}
	for id, s := range override.Widgets {
		base.Widgets[id] = s
	}
	return base, nil
}
