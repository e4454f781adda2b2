// Package catalog holds the table of selectable completion models.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dimitrije/bolt-api/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var builtinYAML []byte

var (
	ErrEmptyCatalog   = errors.New("catalog has no models")
	ErrUnknownDefault = errors.New("default model is not in the catalog")
)

type Pricing struct {
	Input  float64 `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
}

type ModelDescriptor struct {
	ID                  string  `json:"id" yaml:"id"`
	Name                string  `json:"name" yaml:"name"`
	Description         string  `json:"description" yaml:"description"`
	MaxTokens           int     `json:"maxTokens" yaml:"max_tokens"`
	ContextWindowTokens int     `json:"contextWindow" yaml:"context_window"`
	SupportsStreaming   bool    `json:"supportsStreaming" yaml:"supports_streaming"`
	SupportsJSON        bool    `json:"supportsJSON" yaml:"supports_json"`
	Pricing             Pricing `json:"pricing" yaml:"pricing"`
}

type Catalog struct {
	models       []ModelDescriptor
	byID         map[string]int
	defaultModel string
	codeDefault  string
}

// code_default is optional and falls back to default.
type document struct {
	Default     string            `yaml:"default"`
	CodeDefault string            `yaml:"code_default"`
	Models      []ModelDescriptor `yaml:"models"`
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		models:       doc.Models,
		byID:         make(map[string]int, len(doc.Models)),
		defaultModel: doc.Default,
		codeDefault:  doc.CodeDefault,
	}
	if c.codeDefault == "" {
		c.codeDefault = c.defaultModel
	}
	for i, m := range doc.Models {
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		c.byID[m.ID] = i
	}
	for _, id := range []string{c.defaultModel, c.codeDefault} {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDefault, id)
		}
	}
	return c, nil
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := Parse(builtinYAML)
		if err != nil {
			panic("invalid embedded model catalog: " + err.Error())
		}
		builtin = c
	})
	return builtin
}

func (c *Catalog) All() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

func (c *Catalog) Lookup(id string) (ModelDescriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ModelDescriptor{}, false
	}
	return c.models[i], true
}

// Default is the model used for chat when the caller names none.
func (c *Catalog) Default() string {
	return c.defaultModel
}

func (c *Catalog) DefaultFor(purpose models.Purpose) string {
	if purpose == models.PurposeCode {
		return c.codeDefault
	}
	return c.defaultModel
}

// ResolveFor maps an empty id to the default model of purpose.
func (c *Catalog) ResolveFor(purpose models.Purpose, id string) string {
	if id == "" {
		return c.DefaultFor(purpose)
	}
	return id
}

// recommendedForCode lists the model families suggested for structured output.
var recommendedForCode = []string{"gpt", "gemini", "llama"}

// ForPurpose returns the models worth offering for a purpose. Code generation
// needs JSON output, so only JSON-capable models of the recommended families
// are returned for it.
func (c *Catalog) ForPurpose(purpose models.Purpose) []ModelDescriptor {
	if purpose != models.PurposeCode {
		return c.All()
	}

	var out []ModelDescriptor
	for _, m := range c.models {
		if !m.SupportsJSON {
			continue
		}
		for _, family := range recommendedForCode {
			if strings.Contains(m.ID, family) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
