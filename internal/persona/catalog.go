// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persona holds the immutable catalog of character voices. A Catalog
// is built once at startup and shared read-only by every pipeline run.
package persona

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/explainor/pkg/types"
)

// DefaultName is the fallback persona of the built-in catalog.
const DefaultName = "5-Year-Old"

//go:embed personas.yaml
var builtinYAML []byte

// catalogFile is the on-disk layout of a persona catalog.
type catalogFile struct {
	Default  string          `yaml:"default"`
	Personas []types.Persona `yaml:"personas"`
}

// Catalog maps persona names to their definitions. It has no mutating
// methods; lookups never fail.
type Catalog struct {
	order    []string
	byName   map[string]types.Persona
	fallback string
}

// New validates personas and returns a catalog that resolves empty or
// unknown names to fallback.
func New(personas []types.Persona, fallback string) (*Catalog, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("persona catalog is empty")
	}

	c := &Catalog{
		byName:   make(map[string]types.Persona, len(personas)),
		fallback: fallback,
	}
	for i, p := range personas {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("persona %d (%q): %w", i, p.Name, err)
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate persona %q", p.Name)
		}
		c.byName[p.Name] = clone(p)
		c.order = append(c.order, p.Name)
	}
	if _, ok := c.byName[fallback]; !ok {
		return nil, fmt.Errorf("fallback persona %q is not in the catalog", fallback)
	}
	return c, nil
}

var builtin = sync.OnceValues(func() (*Catalog, error) {
	return Parse(builtinYAML)
})

// Default returns the built-in catalog. It panics if the embedded
// definitions are invalid, which only a broken build can cause.
func Default() *Catalog {
	c, err := builtin()
	if err != nil {
		panic(fmt.Sprintf("persona: built-in catalog: %v", err))
	}
	return c
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("persona catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. A missing default key selects the first
// persona as fallback.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	fallback := f.Default
	if fallback == "" && len(f.Personas) > 0 {
		fallback = f.Personas[0].Name
	}
	return New(f.Personas, fallback)
}

// WithFallback returns a copy of c whose fallback persona is name.
func (c *Catalog) WithFallback(name string) (*Catalog, error) {
	if _, ok := c.byName[name]; !ok {
		return nil, fmt.Errorf("fallback persona %q is not in the catalog", name)
	}
	out := *c
	out.fallback = name
	return &out, nil
}

// Get returns the persona called name. Empty, blank and unknown names yield
// the fallback persona. A picker label such as "🏴‍☠️ Pirate" resolves only
// when its prefix is that persona's emoji.
func (c *Catalog) Get(name string) types.Persona {
	if p, ok := c.lookup(name); ok {
		return p
	}
	return clone(c.byName[c.fallback])
}

// Has reports whether name resolves to a persona other than by fallback.
func (c *Catalog) Has(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

func (c *Catalog) lookup(name string) (types.Persona, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Persona{}, false
	}
	if p, ok := c.byName[name]; ok {
		return clone(p), true
	}
	// A picker label resolves only when its prefix is the persona's own emoji.
	if head, rest, found := strings.Cut(name, " "); found {
		if p, ok := c.byName[strings.TrimSpace(rest)]; ok && p.Emoji != "" && head == p.Emoji {
			return clone(p), true
		}
	}
	return types.Persona{}, false
}

// Fallback returns the name of the fallback persona.
func (c *Catalog) Fallback() string { return c.fallback }

// Names lists persona names in definition order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Choices lists "emoji name" labels in definition order.
func (c *Catalog) Choices() []string {
	out := make([]string, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name].Label())
	}
	return out
}

// All returns every persona in definition order.
func (c *Catalog) All() []types.Persona {
	out := make([]types.Persona, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, clone(c.byName[name]))
	}
	return out
}

func validate(p types.Persona) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("name is required")
	case strings.TrimSpace(p.SystemPrompt) == "":
		return fmt.Errorf("system_prompt is required")
	case strings.TrimSpace(p.VoiceID) == "":
		return fmt.Errorf("voice_id is required")
	}
	if vs := p.VoiceSettings; vs != nil {
		checks := []struct {
			field    string
			v        float64
			min, max float64
		}{
			{"stability", vs.Stability, 0, 1},
			{"similarity_boost", vs.SimilarityBoost, 0, 1},
			{"style", vs.Style, 0, 1},
			{"speed", vs.Speed, 0.5, 2.0},
		}
		for _, ck := range checks {
			if ck.v < ck.min || ck.v > ck.max {
				return fmt.Errorf("voice_settings.%s %.2f outside [%.1f, %.1f]", ck.field, ck.v, ck.min, ck.max)
			}
		}
	}
	return nil
}

// clone copies p so callers cannot mutate catalog state through VoiceSettings.
func clone(p types.Persona) types.Persona {
	if p.VoiceSettings != nil {
		vs := *p.VoiceSettings
		p.VoiceSettings = &vs
	}
	return p
}
