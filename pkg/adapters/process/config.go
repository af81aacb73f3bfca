package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TopicPlaceholder is replaced with the channel topic in command arguments.
const TopicPlaceholder = "{topic}"

// WindowConfig describes the command that opens an audience window.
type WindowConfig struct {
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Dir         string            `yaml:"dir" json:"dir"`
}

// ConfigFile is the structure of windows.yaml: named launchers plus the default one.
type ConfigFile struct {
	Default string                  `yaml:"default" json:"default"`
	Windows map[string]WindowConfig `yaml:"windows" json:"windows"`
}

// LoadWindows reads a launcher file (YAML or JSON, both parsed as YAML).
// A missing file yields an empty configuration.
func LoadWindows(path string) (ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ConfigFile{}, nil
		}
		return ConfigFile{}, fmt.Errorf("failed to read window config: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ConfigFile{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Select returns the launcher called name, or the default one when name is empty.
func (c ConfigFile) Select(name string) (WindowConfig, error) {
	if name == "" {
		name = c.Default
	}
	w, ok := c.Windows[name]
	if !ok || strings.TrimSpace(w.Command) == "" {
		return WindowConfig{}, fmt.Errorf("window launcher not configured: %q", name)
	}
	return w, nil
}
