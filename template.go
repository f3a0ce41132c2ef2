package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/goccy/go-yaml"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Templates holds BIRD configuration templates for each layer. Empty Agg
// and Edge templates fall back to Core.
type Templates struct {
	Core string `yaml:"core"`
	Agg  string `yaml:"agg"`
	Edge string `yaml:"edge"`
	Host string `yaml:"host"`
}

// TemplateData holds data for template rendering.
type TemplateData struct {
	Name      string
	RouterID  string
	ASN       int
	Neighbors []Neighbor
}

// LoadTemplates loads templates from a YAML file. An empty path selects
// the built-in templates.
func LoadTemplates(path string) (*Templates, error) {
	data := defaultTemplates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// Render renders the template of a layer with the given data.
func (t *Templates) Render(layer Layer, data TemplateData) (string, error) {
	var tmplStr string
	switch layer {
	case LayerCore:
		tmplStr = t.Core
	case LayerAggregation:
		tmplStr = firstNonEmpty(t.Agg, t.Core)
	case LayerEdge:
		tmplStr = firstNonEmpty(t.Edge, t.Core)
	case LayerHost:
		tmplStr = t.Host
	}
	if tmplStr == "" {
		return "", fmt.Errorf("no template for %s layer", layer)
	}

	tmpl, err := template.New(layer.String()).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
