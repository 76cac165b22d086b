package registry

import (
	"testing"
)

func TestNewLoader(t *testing.T) {
	registry := NewRegistry()
	loader := NewLoader(registry)

	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.registry != registry {
		t.Error("registry not set correctly")
	}
}

// recordingFactory registers a factory for kind that keeps the config each
// instance was created with.
func recordingFactory(registry *Registry, kind string) map[string]map[string]any {
	seen := make(map[string]map[string]any)
	registry.RegisterFactory(kind, func(name string, config map[string]any) (Toolkit, error) {
		seen[name] = config
		return &mockToolkit{kind: kind, name: name}, nil
	})
	return seen
}

func TestLoader_Load(t *testing.T) {
	t.Run("empty config", func(t *testing.T) {
		loader := NewLoader(NewRegistry())
		if err := loader.Load(LoaderConfig{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("disabled toolkit", func(t *testing.T) {
		registry := NewRegistry()
		loader := NewLoader(registry)

		cfg := LoaderConfig{
			Toolkits: map[string]ToolkitKindConfig{
				"test": {
					Enabled: false,
					Instances: map[string]map[string]any{
						"instance1": {"key": "value"},
					},
				},
			},
		}

		if err := loader.Load(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(registry.All()) != 0 {
			t.Error("expected no toolkits for disabled config")
		}
	})

	t.Run("instance config overrides kind config", func(t *testing.T) {
		registry := NewRegistry()
		seen := recordingFactory(registry, "test")
		loader := NewLoader(registry)

		cfg := LoaderConfig{
			Toolkits: map[string]ToolkitKindConfig{
				"test": {
					Enabled: true,
					Config: map[string]any{
						"shared":   "value",
						"read_only": false,
					},
					Instances: map[string]map[string]any{
						"instance1": {"read_only": true},
						"instance2": {},
					},
					Default: "instance1",
				},
			},
		}

		if err := loader.Load(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(registry.All()) != 2 {
			t.Fatalf("expected 2 toolkits, got %d", len(registry.All()))
		}
		if seen["instance1"]["read_only"] != true || seen["instance1"]["shared"] != "value" {
			t.Errorf("instance1 config = %v", seen["instance1"])
		}
		if seen["instance2"]["read_only"] != false {
			t.Errorf("instance2 config = %v", seen["instance2"])
		}
		if registry.All()[0].Name() != "instance1" {
			t.Error("instances must load in name order")
		}
	})

	t.Run("enabled kind without instances", func(t *testing.T) {
		registry := NewRegistry()
		seen := recordingFactory(registry, "test")
		loader := NewLoader(registry)

		cfg := LoaderConfig{Toolkits: map[string]ToolkitKindConfig{"test": {Enabled: true}}}
		if err := loader.Load(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := seen["default"]; !ok {
			t.Errorf("expected a single instance named default, got %v", seen)
		}

		registry = NewRegistry()
		seen = recordingFactory(registry, "test")
		cfg = LoaderConfig{Toolkits: map[string]ToolkitKindConfig{"test": {Enabled: true, Default: "shop"}}}
		if err := NewLoader(registry).Load(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := seen["shop"]; !ok {
			t.Errorf("expected the instance to take the default name, got %v", seen)
		}
	})

	t.Run("missing factory", func(t *testing.T) {
		loader := NewLoader(NewRegistry())

		cfg := LoaderConfig{
			Toolkits: map[string]ToolkitKindConfig{
				"unknown": {
					Enabled: true,
					Instances: map[string]map[string]any{
						"instance1": {},
					},
				},
			},
		}

		if err := loader.Load(cfg); err == nil {
			t.Error("expected error for missing factory")
		}
	})
}
