package ipsr

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MaxDepth is the largest accepted reconstruction depth.
const MaxDepth = 20

// Config contains every parameter of a refinement run.
type Config struct {
	// MaxIters caps the number of refinement iterations.
	MaxIters int `yaml:"iters"`

	// PointWeight is the screening weight passed to the Oracle.
	PointWeight float64 `yaml:"point_weight"`

	// Depth is the reconstruction depth passed to the Oracle. It also sets
	// the resolution of GridSample.
	Depth int `yaml:"depth"`

	// Neighbors is the number of samples each triangle votes for.
	Neighbors int `yaml:"neighbors"`

	// Threshold is the convergence metric below which iteration stops.
	Threshold float64 `yaml:"threshold"`

	// Seed seeds the random normal initialization.
	Seed int64 `yaml:"seed"`

	Boundary BoundaryMode `yaml:"boundary"`

	// Concurrency is the maximum number of Goroutines used for data-parallel
	// work. If zero, GOMAXPROCS is used.
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() Config {
	return Config{
		MaxIters:    30,
		PointWeight: 10,
		Depth:       10,
		Neighbors:   DefaultNeighbors,
		Threshold:   DefaultConvergenceThreshold,
		Seed:        0,
		Boundary:    BoundaryDirichlet,
	}
}

// ReadConfig decodes a YAML file on top of DefaultConfig without validating
// it, so that callers may apply further overrides first.
func ReadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	return cfg, nil
}

// LoadConfig reads a YAML file on top of DefaultConfig.
//
// The resulting configuration is validated.
func LoadConfig(path string) (Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return cfg, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "load config")
	}
	return cfg, nil
}

// Validate checks that every parameter is usable, returning an error
// wrapping ErrInvalidConfig otherwise.
func (c *Config) Validate() error {
	if c.MaxIters <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "iters must be positive, got %d", c.MaxIters)
	}
	if c.PointWeight < 0 || math.IsInf(c.PointWeight, 0) || math.IsNaN(c.PointWeight) {
		return errors.Wrapf(ErrInvalidConfig, "point weight must be non-negative and finite, got %f",
			c.PointWeight)
	}
	if c.Depth <= 0 || c.Depth > MaxDepth {
		return errors.Wrapf(ErrInvalidConfig, "depth must be in [1, %d], got %d", MaxDepth,
			c.Depth)
	}
	if c.Neighbors <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "neighbors must be positive, got %d", c.Neighbors)
	}
	if !(c.Threshold > 0) || math.IsInf(c.Threshold, 0) {
		return errors.Wrapf(ErrInvalidConfig, "threshold must be positive and finite, got %f",
			c.Threshold)
	}
	if c.Boundary < BoundaryFree || c.Boundary > BoundaryNeumann {
		return errors.Wrapf(ErrInvalidConfig, "unknown boundary mode %v", c.Boundary)
	}
	if c.Concurrency < 0 {
		return errors.Wrapf(ErrInvalidConfig, "concurrency must be non-negative, got %d",
			c.Concurrency)
	}
	return nil
}

// ReconstructionParams returns the Oracle parameters for the run.
func (c *Config) ReconstructionParams() ReconstructionParams {
	return ReconstructionParams{
		Depth:       c.Depth,
		PointWeight: c.PointWeight,
		Boundary:    c.Boundary,
	}
}
