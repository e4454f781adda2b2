package catalog

import (
	_ "embed"
	"fmt"

	"github.com/dimitrije/bolt-api/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtinTemplatesYAML []byte

type templateEntry struct {
	Slug          string   `yaml:"slug"`
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Category      string   `yaml:"category"`
	Icon          string   `yaml:"icon"`
	Prompt        string   `yaml:"prompt"`
	Tags          []string `yaml:"tags"`
	Difficulty    string   `yaml:"difficulty"`
	EstimatedTime string   `yaml:"estimated_time"`
}

// ParseTemplates reads starter project templates from YAML. Slugs must be
// unique and every template needs a prompt.
func ParseTemplates(data []byte) ([]models.ProjectTemplate, error) {
	var doc struct {
		Templates []templateEntry `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	seen := make(map[string]bool, len(doc.Templates))
	out := make([]models.ProjectTemplate, 0, len(doc.Templates))
	for _, e := range doc.Templates {
		if e.Slug == "" || e.Prompt == "" {
			return nil, fmt.Errorf("template %q is missing a slug or prompt", e.Name)
		}
		if seen[e.Slug] {
			return nil, fmt.Errorf("duplicate template slug %q", e.Slug)
		}
		seen[e.Slug] = true

		switch e.Difficulty {
		case models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced:
		default:
			return nil, fmt.Errorf("template %q has unknown difficulty %q", e.Slug, e.Difficulty)
		}

		out = append(out, models.ProjectTemplate{
			Slug:          e.Slug,
			Name:          e.Name,
			Description:   e.Description,
			Category:      e.Category,
			Icon:          e.Icon,
			Prompt:        e.Prompt,
			Tags:          e.Tags,
			Difficulty:    e.Difficulty,
			EstimatedTime: e.EstimatedTime,
		})
	}
	return out, nil
}

// BuiltinTemplates returns the starter templates compiled into the binary.
func BuiltinTemplates() []models.ProjectTemplate {
	t, err := ParseTemplates(builtinTemplatesYAML)
	if err != nil {
		panic("invalid embedded templates: " + err.Error())
	}
	return t
}
