package store

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"TickerBoard/internal/model"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template is a predefined set of widgets.
type Template struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Category    string           `yaml:"category" json:"category"`
	Widgets     []TemplateWidget `yaml:"widgets" json:"widgets"`
}

type TemplateWidget struct {
	Type   model.WidgetType   `yaml:"type" json:"type"`
	Title  string             `yaml:"title" json:"title"`
	Config model.WidgetConfig `yaml:"config" json:"config"`
}

var (
	templatesOnce sync.Once
	templates     []Template
	templatesErr  error
)

// Templates returns the built-in templates in declaration order.
func Templates() ([]Template, error) {
	templatesOnce.Do(func() {
		if err := yaml.Unmarshal(templatesYAML, &templates); err != nil {
			templatesErr = fmt.Errorf("parse templates: %w", err)
		}
	})
	return templates, templatesErr
}

// FindTemplate looks a template up by id.
func FindTemplate(id string) (Template, bool) {
	all, err := Templates()
	if err != nil {
		return Template{}, false
	}
	for _, t := range all {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
