package weights

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultPreset is the preset used when no industry is given or the
// industry has no preset of its own.
const DefaultPreset = "default"

// Preset is a named weight map for an industry vertical.
type Preset struct {
	Name        string             `yaml:"name" json:"name"`
	Industry    string             `yaml:"industry" json:"industry"`
	Description string             `yaml:"description" json:"description"`
	Weights     map[string]float64 `yaml:"weights" json:"weights"`
}

// Map returns the preset weights as a Map.
func (p *Preset) Map() Map {
	return Map(p.Weights).Clone()
}

// LoadPreset loads a built-in preset by name.
func LoadPreset(name string) (*Preset, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("weights.LoadPreset: unknown preset %q: %w", name, err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("weights.LoadPreset: parse %q: %w", name, err)
	}
	if err := Map(p.Weights).Validate(); err != nil {
		return nil, fmt.Errorf("weights.LoadPreset: %q: %w", name, err)
	}
	return &p, nil
}

// ForIndustry returns the preset for an industry, matched case-insensitively
// against preset names and industry labels. An empty or unknown industry
// yields the default preset.
func ForIndustry(industry string) (*Preset, error) {
	want := strings.ToLower(strings.TrimSpace(industry))
	if want != "" {
		names, err := List()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if name == DefaultPreset {
				continue
			}
			p, err := LoadPreset(name)
			if err != nil {
				return nil, err
			}
			if want == name || want == strings.ToLower(p.Industry) {
				return p, nil
			}
		}
	}
	return LoadPreset(DefaultPreset)
}

// List returns the names of all built-in presets in lexical order.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}
