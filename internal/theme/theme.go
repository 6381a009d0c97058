// Package theme resolves colour tokens for the console from a registry
// compiled into the binary.
package theme

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var registryYAML []byte

// Mode selects the light or dark token set.
type Mode string

// Modes.
const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// ParseMode maps a query value to a Mode. Anything but "dark" is Light.
func ParseMode(s string) Mode {
	if Mode(s) == Dark {
		return Dark
	}
	return Light
}

// Theme is one registry entry.
type Theme struct {
	ID       string            `yaml:"id" json:"id"`
	Name     string            `yaml:"name" json:"name"`
	Colors   map[string]string `yaml:"colors" json:"colors"`
	DarkMode struct {
		Colors map[string]string `yaml:"colors" json:"colors"`
	} `yaml:"dark_mode" json:"dark_mode"`
}

// Palette is a resolved token set.
type Palette struct {
	ThemeID string            `json:"theme_id"`
	Mode    Mode              `json:"mode"`
	Colors  map[string]string `json:"colors"`
}

// Color returns the value of token, or "" when the theme does not define it.
func (p Palette) Color(token string) string {
	return p.Colors[token]
}

// Registry holds themes keyed by id. Resolved palettes are memoised; they are
// shared and must not be modified by callers.
type Registry struct {
	defaultID string
	order     []string
	themes    map[string]Theme

	mu       sync.Mutex
	resolved map[string]Palette
}

type registryFile struct {
	Default string  `yaml:"default"`
	Themes  []Theme `yaml:"themes"`
}

// Parse builds a registry from YAML. Every colour must be a valid hex value.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("theme: parse registry: %w", err)
	}
	if len(file.Themes) == 0 {
		return nil, fmt.Errorf("theme: registry has no themes")
	}
	r := &Registry{
		defaultID: file.Default,
		themes:    make(map[string]Theme, len(file.Themes)),
		resolved:  map[string]Palette{},
	}
	for _, t := range file.Themes {
		if t.ID == "" {
			return nil, fmt.Errorf("theme: entry without id")
		}
		if _, dup := r.themes[t.ID]; dup {
			return nil, fmt.Errorf("theme: duplicate id %q", t.ID)
		}
		if err := normaliseColors(t.ID, t.Colors); err != nil {
			return nil, err
		}
		if err := normaliseColors(t.ID+" dark", t.DarkMode.Colors); err != nil {
			return nil, err
		}
		r.themes[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	if _, ok := r.themes[r.defaultID]; !ok {
		r.defaultID = r.order[0]
	}
	return r, nil
}

func normaliseColors(owner string, colors map[string]string) error {
	for token, hex := range colors {
		c, err := colorful.Hex(hex)
		if err != nil {
			return fmt.Errorf("theme: %s token %s: %w", owner, token, err)
		}
		colors[token] = c.Hex()
	}
	return nil
}

var (
	builtinOnce sync.Once
	builtin     *Registry
	builtinErr  error
)

// Builtin returns the registry compiled into the binary.
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = Parse(registryYAML)
	})
	return builtin, builtinErr
}

// DefaultID returns the fallback theme id.
func (r *Registry) DefaultID() string { return r.defaultID }

// Themes lists the registry in declaration order.
func (r *Registry) Themes() []Theme {
	out := make([]Theme, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.themes[id])
	}
	return out
}

// Lookup returns the theme with id.
func (r *Registry) Lookup(id string) (Theme, bool) {
	t, ok := r.themes[id]
	return t, ok
}

// Resolve returns the palette for id in mode. Unknown ids resolve to the
// default theme; dark tokens the theme does not override keep their light
// value.
func (r *Registry) Resolve(id string, mode Mode) Palette {
	t, ok := r.themes[id]
	if !ok {
		t = r.themes[r.defaultID]
	}
	if mode != Dark {
		mode = Light
	}
	key := t.ID + ":" + string(mode)

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.resolved[key]; ok {
		return p.clone()
	}
	colors := make(map[string]string, len(t.Colors))
	for token, v := range t.Colors {
		colors[token] = v
	}
	if mode == Dark {
		for token, v := range t.DarkMode.Colors {
			colors[token] = v
		}
	}
	p := Palette{ThemeID: t.ID, Mode: mode, Colors: colors}
	r.resolved[key] = p
	return p.clone()
}

func (p Palette) clone() Palette {
	colors := make(map[string]string, len(p.Colors))
	for token, v := range p.Colors {
		colors[token] = v
	}
	p.Colors = colors
	return p
}

// Tokens returns the sorted token names of a palette.
func (p Palette) Tokens() []string {
	names := make([]string, 0, len(p.Colors))
	for name := range p.Colors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContrastText picks black or white text for a background token, whichever
// is further from it in perceived lightness.
func (p Palette) ContrastText(token string) string {
	c, err := colorful.Hex(p.Colors[token])
	if err != nil {
		return "#000000"
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return "#000000"
	}
	return "#ffffff"
}
