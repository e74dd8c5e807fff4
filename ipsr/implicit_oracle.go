package ipsr

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

const (
	DefaultImplicitNeighbors   = 8
	DefaultImplicitGridDepth   = 7
	DefaultImplicitSearchIters = 8
)

// An ImplicitOracle reconstructs surfaces in-process by running marching
// cubes over a signed distance estimate built from the oriented samples.
//
// The signed distance at a point is a blend of the local tangent planes of
// its nearest samples. Each plane is weighted by its sample's Weight and by
// a Gaussian falloff whose sharpness is the PointWeight parameter, so larger
// point weights fit the samples more tightly.
type ImplicitOracle struct {
	// Neighbors is the number of samples blended at each point.
	// If zero, DefaultImplicitNeighbors is used.
	Neighbors int

	// MaxGridDepth caps the grid at 2^MaxGridDepth cells along the longest
	// side, regardless of the requested depth.
	// If zero, DefaultImplicitGridDepth is used.
	MaxGridDepth int

	// SearchIters is the number of bisection steps used to place vertices.
	// If zero, DefaultImplicitSearchIters is used.
	SearchIters int
}

// Reconstruct creates a mesh from the samples.
//
// For BoundaryDirichlet, the surface is closed off at the edge of the
// padded bounding box. Other boundary modes drop the faces which lie on the
// box, leaving open surfaces open.
func (i *ImplicitOracle) Reconstruct(samples []Sample, params ReconstructionParams) (*Mesh, error) {
	if len(samples) == 0 {
		return nil, errors.Wrap(ErrDegenerateInput, "implicit reconstruction: no samples")
	}
	index, err := NewSpatialIndex(SamplePositions(samples))
	if err != nil {
		return nil, errors.Wrap(err, "implicit reconstruction")
	}

	min, max := samples[0].Position, samples[0].Position
	for _, s := range samples[1:] {
		min = min.Min(s.Position)
		max = max.Max(s.Position)
	}
	extent := max.Sub(min).MaxCoord()
	if extent == 0 {
		return nil, errors.Wrap(ErrDegenerateInput, "implicit reconstruction: zero extent")
	}
	depth := essentials.MinInt(params.Depth, i.gridDepth())
	delta := extent / float64(int(1)<<uint(depth))
	pad := model3d.XYZ(1, 1, 1).Scale(2 * delta)
	min, max = min.Sub(pad), max.Add(pad)

	field := &tangentPlaneField{
		Samples:   samples,
		Index:     index,
		Neighbors: i.neighbors(),
		Sharpness: params.PointWeight,
	}
	solid := model3d.CheckedFuncSolid(min, max, func(c model3d.Coord3D) bool {
		return field.Eval(c) < 0
	})
	mesh := model3d.MarchingCubesSearch(solid, delta, i.searchIters())
	if params.Boundary != BoundaryDirichlet {
		mesh = removeBoxFaces(mesh, min, max, delta)
	}
	return MeshFromModel(mesh), nil
}

func (i *ImplicitOracle) neighbors() int {
	if i.Neighbors == 0 {
		return DefaultImplicitNeighbors
	}
	return i.Neighbors
}

func (i *ImplicitOracle) gridDepth() int {
	if i.MaxGridDepth == 0 {
		return DefaultImplicitGridDepth
	}
	return i.MaxGridDepth
}

func (i *ImplicitOracle) searchIters() int {
	if i.SearchIters == 0 {
		return DefaultImplicitSearchIters
	}
	return i.SearchIters
}

type tangentPlaneField struct {
	Samples   []Sample
	Index     *SpatialIndex
	Neighbors int
	Sharpness float64
}

// Eval estimates the signed distance to the surface, negative inside.
func (t *tangentPlaneField) Eval(c model3d.Coord3D) float64 {
	neighbors := t.Index.KNearest(c, t.Neighbors)
	var maxDist float64
	for _, j := range neighbors {
		maxDist = math.Max(maxDist, t.Samples[j].Position.SquaredDist(c))
	}
	if maxDist == 0 {
		maxDist = 1
	}

	var value, totalWeight float64
	for _, j := range neighbors {
		s := t.Samples[j]
		offset := c.Sub(s.Position)
		w := s.Weight * math.Exp(-t.Sharpness*offset.Dot(offset)/maxDist)
		value += w * s.Normal.Dot(offset)
		totalWeight += w
	}
	if totalWeight <= 0 {
		// Without usable samples, treat the point as outside.
		return 1
	}
	return value / totalWeight
}

// removeBoxFaces drops the triangles which cap the surface where it leaves
// the bounding box.
func removeBoxFaces(m *model3d.Mesh, min, max model3d.Coord3D, tol float64) *model3d.Mesh {
	onBox := func(c model3d.Coord3D) bool {
		lo := c.Sub(min).Array()
		hi := max.Sub(c).Array()
		for axis := 0; axis < 3; axis++ {
			if lo[axis] < tol || hi[axis] < tol {
				return true
			}
		}
		return false
	}
	var kept []*model3d.Triangle
	for _, t := range m.TriangleSlice() {
		if onBox(t[0]) && onBox(t[1]) && onBox(t[2]) {
			continue
		}
		kept = append(kept, t)
	}
	return model3d.NewMeshTriangles(kept)
}
