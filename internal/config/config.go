// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Attribution string    `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	Basemaps    []Basemap `yaml:"basemaps" json:"basemaps"`
	Search      Search    `yaml:"search,omitempty" json:"-"`
	Style       Style     `yaml:"style,omitempty" json:"style"`

	// HistoryLimit bounds the undo log; snapshots beyond it are discarded.
	HistoryLimit int `yaml:"history_limit,omitempty" json:"-"`
	ZoomLimit    int `yaml:"zoom,omitempty" json:"zoom"`
}

// Basemap represents a single tile source rendered under the sketch layers.
type Basemap struct {
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url,omitempty" json:"url,omitempty"` // remote {z}/{x}/{y} template, used by the client directly
	TilesDir    string `yaml:"tiles_dir,omitempty" json:"-"`       // local tile cache served under /tiles/
	Attribution string `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	ZoomLimit   int    `yaml:"zoom,omitempty" json:"zoom"`
	Local       bool   `yaml:"-" json:"local"`
}

// Search configures the place-search collaborator.
type Search struct {
	Endpoint       string `yaml:"endpoint,omitempty"`
	Limit          int    `yaml:"limit,omitempty"`
	TimeoutSeconds int    `yaml:"timeout,omitempty"`
}

// Style holds the default presentation attributes for new sketch layers.
type Style struct {
	Color          string  `yaml:"color,omitempty" json:"color"`
	Weight         float64 `yaml:"weight,omitempty" json:"weight"`
	SelectedWeight float64 `yaml:"selected_weight,omitempty" json:"selected_weight"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()

	return &cfg, nil
}

// Normalize fills in defaults for everything the file left unset.
func (c *Config) Normalize() {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
	if c.ZoomLimit <= 0 {
		c.ZoomLimit = 18
	}
	if c.Style.Color == "" {
		c.Style.Color = "#3388ff"
	}
	if c.Style.Weight <= 0 {
		c.Style.Weight = 3
	}
	if c.Style.SelectedWeight <= 0 {
		c.Style.SelectedWeight = 5
	}
	if c.Search.Endpoint == "" {
		c.Search.Endpoint = "https://nominatim.openstreetmap.org/search"
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 5
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = 10
	}

	for i := range c.Basemaps {
		b := &c.Basemaps[i]
		if b.ZoomLimit <= 0 {
			b.ZoomLimit = c.ZoomLimit
		}
		if b.Attribution == "" {
			b.Attribution = c.Attribution
		}
		b.Local = b.TilesDir != ""
	}
}
