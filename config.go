package citynet

import (
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	// DefaultUnit is the distance unit a city uses if it doesn't say
	DefaultUnit = "kilometer"
)

// Config outlines settings that are hopefully relevant to every city an
// Engine works on. Nothing here changes the shape of a synthesized graph
// except Strict & MinCellArea; the rest is scale & housekeeping.
type Config struct {
	// Units is the number of each distance unit per kilometre.
	// City coordinates are in the city's unit, these factors let callers
	// turn them into real world distances.
	Units map[string]float64 `toml:"units"`

	// MinCellArea is the smallest area a cell may have. Any piece of a
	// partition at or below this (in square city units) is considered a
	// sliver left over from floating point noise & dropped.
	MinCellArea float64 `toml:"min_cell_area"`

	// Strict, if set, causes a POLYPOINT node region to fail outright on the
	// first point that isn't inside a cell. If not set the point is reported
	// in the result warnings & the rest of the region is still synthesized.
	Strict bool `toml:"strict"`

	// Workers bounds the number of goroutines used when working out which
	// cells neighbour which. Values below 1 mean runtime.NumCPU().
	Workers int `toml:"workers"`

	// BaseLayer is the layer that always has cells. Regions on layers that
	// have no cell regions of their own are laid over this layer's cells.
	BaseLayer Layer `toml:"base_layer"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Units: map[string]float64{
			"foot":      3280.8399,
			"mile":      0.621371192,
			"meter":     1000.0,
			"kilometer": 1.0,
		},
		MinCellArea: 1e-9,
		Strict:      false,
		Workers:     runtime.NumCPU(),
		BaseLayer:   Layer{Name: "surface", Height: 0},
	}
}

// LoadConfig reads a TOML config file. Anything the file doesn't set keeps
// its DefaultConfig value; units given in the file are added to (or replace)
// the default units.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := DefaultConfig()
	units := cfg.Units
	cfg.Units = nil

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}

	for k, v := range cfg.Units {
		units[k] = v
	}
	cfg.Units = units

	return cfg, cfg.validate()
}

// validate checks settings we cannot work without.
func (c *Config) validate() error {
	for k, v := range c.Units {
		if v <= 0 {
			return errors.Errorf("unit %s must have a positive factor, got %v", k, v)
		}
	}
	if c.MinCellArea < 0 {
		return errors.Errorf("min_cell_area must not be negative, got %v", c.MinCellArea)
	}
	if c.BaseLayer.Name == "" {
		return errors.New("base_layer requires a name")
	}
	return nil
}

// workers returns the number of workers to actually use.
func (c *Config) workers() int {
	if c.Workers < 1 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// ToKilometres converts a distance in the given unit to kilometres.
func (c *Config) ToKilometres(v float64, unit string) (float64, error) {
	f, err := c.unit(unit)
	if err != nil {
		return 0, err
	}
	return v / f, nil
}

// FromKilometres converts a distance in kilometres to the given unit.
func (c *Config) FromKilometres(v float64, unit string) (float64, error) {
	f, err := c.unit(unit)
	if err != nil {
		return 0, err
	}
	return v * f, nil
}

// unit returns units per kilometre. Plurals ("miles", "feet") fall back to
// the singular key.
func (c *Config) unit(name string) (float64, error) {
	if f, ok := c.Units[name]; ok {
		return f, nil
	}
	singular := strings.TrimSuffix(name, "s")
	if name == "feet" {
		singular = "foot"
	}
	if f, ok := c.Units[singular]; ok && singular != name {
		return f, nil
	}
	return 0, errors.Errorf("unknown distance unit %q", name)
}
