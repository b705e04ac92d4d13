// Package mapping loads the channel-mapping configuration and assembles
// trials from raw-format readers. The configuration decides which channels
// form the analysis category and which markers fill named anatomical roles,
// so none of that is hard-coded in the feature calculators.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Marker role names resolved through the configuration.
const (
	RoleLeftHeel  = "left_heel"
	RoleRightHeel = "right_heel"
)

// Config is the channel-mapping configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Markers  MarkerConfig   `yaml:"markers"`
	Axes     AxesConfig     `yaml:"axes"`
}

// AnalysisConfig names the channels that form the analysis category.
type AnalysisConfig struct {
	Markers []string `yaml:"markers"`
	Analogs []string `yaml:"analogs"`
}

// MarkerConfig maps anatomical roles to marker channel names, e.g.
// left_heel: LHEE.
type MarkerConfig struct {
	Roles map[string]string `yaml:"roles"`
}

// AxesConfig names the laboratory axes. Defaults follow the common gait-lab
// convention: y anteroposterior, x mediolateral, z vertical.
type AxesConfig struct {
	Anteroposterior string `yaml:"anteroposterior"`
	Mediolateral    string `yaml:"mediolateral"`
	Vertical        string `yaml:"vertical"`
}

// Load reads a mapping configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mapping config %s: %w", path, err)
	}
	return &cfg, nil
}

// MarkersForAnalysis returns the marker channels configured for the analysis
// category. An empty list is a configuration error.
func (c *Config) MarkersForAnalysis() ([]string, error) {
	if len(c.Analysis.Markers) == 0 {
		return nil, fmt.Errorf("mapping config does not define analysis markers")
	}
	return c.Analysis.Markers, nil
}

// AnalogsForAnalysis returns the analog channels configured for the analysis
// category. An empty list is a configuration error.
func (c *Config) AnalogsForAnalysis() ([]string, error) {
	if len(c.Analysis.Analogs) == 0 {
		return nil, fmt.Errorf("mapping config does not define analysis analogs")
	}
	return c.Analysis.Analogs, nil
}

// MarkerForRole resolves an anatomical role to a marker channel name.
func (c *Config) MarkerForRole(role string) (string, error) {
	name, ok := c.Markers.Roles[role]
	if !ok || name == "" {
		return "", fmt.Errorf("mapping config does not define a marker for role %q", role)
	}
	return name, nil
}

// HeelMarker resolves the heel marker for a context ("Left"/"Right").
func (c *Config) HeelMarker(context string) (string, error) {
	switch strings.ToLower(context) {
	case "left":
		return c.MarkerForRole(RoleLeftHeel)
	case "right":
		return c.MarkerForRole(RoleRightHeel)
	}
	return "", fmt.Errorf("unknown context %q for heel marker lookup", context)
}

// AnteroposteriorAxis returns the configured walking-direction axis name.
func (c *Config) AnteroposteriorAxis() string {
	if c.Axes.Anteroposterior != "" {
		return c.Axes.Anteroposterior
	}
	return "y"
}

// MediolateralAxis returns the configured side-to-side axis name.
func (c *Config) MediolateralAxis() string {
	if c.Axes.Mediolateral != "" {
		return c.Axes.Mediolateral
	}
	return "x"
}

// VerticalAxis returns the configured vertical axis name.
func (c *Config) VerticalAxis() string {
	if c.Axes.Vertical != "" {
		return c.Axes.Vertical
	}
	return "z"
}
