package ipsr

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyInput is returned when a point cloud has no points.
	ErrEmptyInput = errors.New("empty point cloud")

	// ErrDegenerateInput may be returned by an Oracle which cannot produce a
	// surface for its input. The Refiner treats it as an empty mesh.
	ErrDegenerateInput = errors.New("degenerate reconstruction input")
)
