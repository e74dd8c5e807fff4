package ipsr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// An Oracle reconstructs a surface from oriented, weighted samples.
//
// Implementations must be deterministic: identical samples and parameters
// must always produce the same mesh.
//
// An Oracle may return a nil or empty mesh, or an error wrapping
// ErrDegenerateInput, when no surface can be produced. Any other error is
// fatal to a refinement run.
type Oracle interface {
	Reconstruct(samples []Sample, params ReconstructionParams) (*Mesh, error)
}

// An OracleFunc is an Oracle implemented by a function.
type OracleFunc func(samples []Sample, params ReconstructionParams) (*Mesh, error)

func (o OracleFunc) Reconstruct(samples []Sample, params ReconstructionParams) (*Mesh, error) {
	return o(samples, params)
}

// ReconstructionParams are passed unchanged to every Oracle call of a run.
type ReconstructionParams struct {
	// Depth is the maximum octree depth (or grid resolution exponent).
	Depth int

	// PointWeight is the screening weight of the interpolation term.
	PointWeight float64

	Boundary BoundaryMode
}

// BoundaryMode selects the boundary condition of the reconstruction.
type BoundaryMode int

const (
	BoundaryFree BoundaryMode = iota
	BoundaryDirichlet
	BoundaryNeumann
)

var boundaryNames = []string{"free", "dirichlet", "neumann"}

// ParseBoundaryMode parses a boundary name, case-insensitively.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	for i, name := range boundaryNames {
		if strings.EqualFold(s, name) {
			return BoundaryMode(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown boundary mode %q", s)
}

func (b BoundaryMode) String() string {
	if b < 0 || int(b) >= len(boundaryNames) {
		return fmt.Sprintf("BoundaryMode(%d)", int(b))
	}
	return boundaryNames[b]
}

// BType returns the value of PoissonRecon's --bType flag for b.
func (b BoundaryMode) BType() int {
	return int(b) + 1
}

// Set implements pflag.Value.
func (b *BoundaryMode) Set(s string) error {
	mode, err := ParseBoundaryMode(s)
	if err != nil {
		return err
	}
	*b = mode
	return nil
}

// Type implements pflag.Value.
func (b *BoundaryMode) Type() string {
	return "boundary"
}

func (b BoundaryMode) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b *BoundaryMode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	return b.Set(name)
}
