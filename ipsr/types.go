package ipsr

import (
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// ZeroNormal is the sentinel normal meaning "no normal assigned" or "no vote
// received". It can never be confused with a unit vector.
var ZeroNormal = model3d.Coord3D{}

// A Sample is one point of the (sampled) point cloud.
//
// Samples are identified by their index in a []Sample, which never changes
// during a run. Only Normal is mutated by the refinement loop.
type Sample struct {
	Position model3d.Coord3D
	Normal   model3d.Coord3D

	// Weight is only consumed by the Oracle.
	Weight float64
}

// NewSamples creates unit-weight samples with placeholder +X normals.
func NewSamples(positions []model3d.Coord3D) []Sample {
	res := make([]Sample, len(positions))
	for i, p := range positions {
		res[i] = Sample{Position: p, Normal: model3d.X(1), Weight: 1}
	}
	return res
}

// SamplePositions extracts the positions of the samples.
func SamplePositions(samples []Sample) []model3d.Coord3D {
	res := make([]model3d.Coord3D, len(samples))
	for i, s := range samples {
		res[i] = s.Position
	}
	return res
}

// SampleNormals extracts the current normals of the samples.
func SampleNormals(samples []Sample) []model3d.Coord3D {
	res := make([]model3d.Coord3D, len(samples))
	for i, s := range samples {
		res[i] = s.Normal
	}
	return res
}

// A Mesh is a polygon soup produced by an Oracle.
//
// Each face is an ordered list of indices into Vertices. Faces may have any
// arity, but only triangles take part in normal voting.
type Mesh struct {
	Vertices []model3d.Coord3D
	Faces    [][]int
}

// NumTriangles counts the faces with exactly three vertices.
func (m *Mesh) NumTriangles() int {
	if m == nil {
		return 0
	}
	var count int
	for _, f := range m.Faces {
		if len(f) == 3 {
			count++
		}
	}
	return count
}

// Transform maps every vertex through f, returning a new mesh which shares
// face lists with m.
func (m *Mesh) Transform(f func(model3d.Coord3D) model3d.Coord3D) *Mesh {
	res := &Mesh{
		Vertices: make([]model3d.Coord3D, len(m.Vertices)),
		Faces:    m.Faces,
	}
	for i, v := range m.Vertices {
		res.Vertices[i] = f(v)
	}
	return res
}

// MeshFromModel converts a triangle mesh into a polygon soup, merging
// identical vertices.
//
// Triangles are emitted in a canonical order so that the result does not
// depend on the mesh's internal iteration order.
func MeshFromModel(m *model3d.Mesh) *Mesh {
	tris := sortedTriangles(m)
	res := &Mesh{}
	indices := map[model3d.Coord3D]int{}
	for _, t := range tris {
		face := make([]int, 3)
		for i, c := range t {
			idx, ok := indices[c]
			if !ok {
				idx = len(res.Vertices)
				indices[c] = idx
				res.Vertices = append(res.Vertices, c)
			}
			face[i] = idx
		}
		res.Faces = append(res.Faces, face)
	}
	return res
}

// sortedTriangles lists the triangles of m ordered by their vertices.
func sortedTriangles(m *model3d.Mesh) []*model3d.Triangle {
	tris := m.TriangleSlice()
	slices.SortFunc(tris, func(t1, t2 *model3d.Triangle) bool {
		for i := 0; i < 3; i++ {
			a1, a2 := t1[i].Array(), t2[i].Array()
			for j := 0; j < 3; j++ {
				if a1[j] != a2[j] {
					return a1[j] < a2[j]
				}
			}
		}
		return false
	})
	return tris
}
