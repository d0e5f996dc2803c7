package reports

import (
	"embed"
	"fmt"
)

//go:embed templates/page.html templates/styles.css
var templateFS embed.FS

// TemplateLoader handles loading the page template and CSS styles
type TemplateLoader struct{}

// NewTemplateLoader creates a new template loader
func NewTemplateLoader() *TemplateLoader {
	return &TemplateLoader{}
}

// LoadHTMLTemplate returns the page template
func (t *TemplateLoader) LoadHTMLTemplate() (string, error) {
	return t.load("templates/page.html")
}

// LoadCSSStyles returns the page stylesheet
func (t *TemplateLoader) LoadCSSStyles() (string, error) {
	return t.load("templates/styles.css")
}

func (t *TemplateLoader) load(name string) (string, error) {
	content, err := templateFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", name, err)
	}
	return string(content), nil
}
