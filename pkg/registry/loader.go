package registry

import (
	"fmt"
	"maps"
	"slices"
)

// LoaderConfig holds configuration for loading toolkits.
type LoaderConfig struct {
	Toolkits map[string]ToolkitKindConfig `yaml:"toolkits"`
}

// ToolkitKindConfig holds configuration for a toolkit kind.
type ToolkitKindConfig struct {
	Enabled   bool                      `yaml:"enabled"`
	Instances map[string]map[string]any `yaml:"instances"`
	Default   string                    `yaml:"default"`
	Config    map[string]any            `yaml:"config"`
}

// Loader loads toolkits from configuration.
type Loader struct {
	registry *Registry
}

// NewLoader creates a new toolkit loader.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// Load creates every instance of every enabled kind. Kinds and instances
// are loaded in name order. An enabled kind without instances gets a
// single instance named after its default, or "default".
func (l *Loader) Load(cfg LoaderConfig) error {
	for _, kind := range slices.Sorted(maps.Keys(cfg.Toolkits)) {
		kindCfg := cfg.Toolkits[kind]
		if !kindCfg.Enabled {
			continue
		}

		instances := kindCfg.Instances
		if len(instances) == 0 {
			name := kindCfg.Default
			if name == "" {
				name = "default"
			}
			instances = map[string]map[string]any{name: nil}
		}

		for _, name := range slices.Sorted(maps.Keys(instances)) {
			// Merge kind-level config with instance config
			mergedCfg := make(map[string]any, len(kindCfg.Config)+len(instances[name]))
			maps.Copy(mergedCfg, kindCfg.Config)
			maps.Copy(mergedCfg, instances[name])

			toolkitCfg := ToolkitConfig{
				Kind:    kind,
				Name:    name,
				Enabled: true,
				Config:  mergedCfg,
				Default: name == kindCfg.Default,
			}

			if err := l.registry.CreateAndRegister(toolkitCfg); err != nil {
				return fmt.Errorf("loading toolkit %s/%s: %w", kind, name, err)
			}
		}
	}

	return nil
}
