package ipsr

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// A SurfaceSampler draws points uniformly from the surface of a triangle
// mesh, choosing each triangle with probability proportional to its area.
type SurfaceSampler struct {
	triangles  []*model3d.Triangle
	cumulative []float64
}

// NewSurfaceSampler creates a sampler for the mesh, which must have positive
// surface area.
func NewSurfaceSampler(mesh *model3d.Mesh) (*SurfaceSampler, error) {
	res := &SurfaceSampler{}
	var total float64
	for _, t := range sortedTriangles(mesh) {
		area := t.Area()
		if area == 0 {
			continue
		}
		total += area
		res.triangles = append(res.triangles, t)
		res.cumulative = append(res.cumulative, total)
	}
	if len(res.triangles) == 0 {
		return nil, errors.Wrap(ErrEmptyInput, "surface sampler: mesh has no area")
	}
	return res, nil
}

// Sample draws one point and the normal of the triangle it lies on.
func (s *SurfaceSampler) Sample(r *rand.Rand) (point, normal model3d.Coord3D) {
	total := s.cumulative[len(s.cumulative)-1]
	idx, _ := slices.BinarySearch(s.cumulative, r.Float64()*total)
	if idx == len(s.triangles) {
		idx--
	}
	t := s.triangles[idx]

	u, v := r.Float64(), r.Float64()
	if u+v > 1 {
		u, v = 1-u, 1-v
	}
	point = t[0].Add(t[1].Sub(t[0]).Scale(u)).Add(t[2].Sub(t[0]).Scale(v))
	return point, t.Normal()
}

// SampleN draws n points with their normals.
func (s *SurfaceSampler) SampleN(r *rand.Rand, n int) *PointCloud {
	res := &PointCloud{
		Points:  make([]model3d.Coord3D, n),
		Normals: make([]model3d.Coord3D, n),
	}
	for i := 0; i < n; i++ {
		res.Points[i], res.Normals[i] = s.Sample(r)
	}
	return res
}
