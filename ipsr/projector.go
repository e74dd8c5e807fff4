package ipsr

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// DefaultNeighbors is the default number of samples each face votes for.
const DefaultNeighbors = 10

// A Projector converts the faces of a reconstructed mesh into per-sample
// normal estimates.
type Projector struct {
	// Index must be built over the sample positions, in the same frame as
	// the meshes passed to the projector.
	Index *SpatialIndex

	// Neighbors is the number of nearest samples each triangle votes for.
	// If zero, DefaultNeighbors is used.
	Neighbors int

	// Concurrency is the maximum number of Goroutines used for per-face and
	// per-sample work. If zero, GOMAXPROCS is used.
	Concurrency int
}

// ProjectionStats summarizes a single projection step.
type ProjectionStats struct {
	// Triangles is the number of faces which voted.
	Triangles int

	// SkippedFaces is the number of non-triangular faces, which never vote.
	SkippedFaces int

	// Voted is the number of samples which received a non-zero vote.
	Voted int
}

// Votes computes, for every sample, the normalized sum of the unit normals of
// all triangles whose centroid has that sample among its nearest neighbors.
//
// Samples without any votes (or whose votes cancel exactly) have ZeroNormal.
func (p *Projector) Votes(mesh *Mesh) ([]model3d.Coord3D, ProjectionStats, error) {
	var stats ProjectionStats
	votes := make([]model3d.Coord3D, p.Index.Len())
	if mesh == nil {
		return votes, stats, nil
	}
	for _, f := range mesh.Faces {
		if len(f) != 3 {
			stats.SkippedFaces++
			continue
		}
		for _, idx := range f {
			if idx < 0 || idx >= len(mesh.Vertices) {
				return nil, stats, errors.Errorf("face references vertex %d of %d", idx,
					len(mesh.Vertices))
			}
		}
		stats.Triangles++
	}

	neighbors := make([][]int, len(mesh.Faces))
	normals := make([]model3d.Coord3D, len(mesh.Faces))
	essentials.ConcurrentMap(p.Concurrency, len(mesh.Faces), func(i int) {
		f := mesh.Faces[i]
		if len(f) != 3 {
			return
		}
		v0, v1, v2 := mesh.Vertices[f[0]], mesh.Vertices[f[1]], mesh.Vertices[f[2]]
		centroid := v0.Add(v1).Add(v2).Scale(1.0 / 3)
		neighbors[i] = p.Index.KNearest(centroid, p.neighbors())
		// Faces vote with unit normals regardless of area. Zero-area faces
		// have no direction and do not vote.
		if n := v1.Sub(v0).Cross(v2.Sub(v0)); n != ZeroNormal {
			normals[i] = n.Normalize()
		}
	})

	// Many faces may vote for the same sample, so accumulation is sequential.
	for i, ns := range neighbors {
		for _, j := range ns {
			votes[j] = votes[j].Add(normals[i])
		}
	}

	essentials.ConcurrentMap(p.Concurrency, len(votes), func(i int) {
		if votes[i] != ZeroNormal {
			votes[i] = votes[i].Normalize()
		}
	})

	for _, v := range votes {
		if v != ZeroNormal {
			stats.Voted++
		}
	}

	return votes, stats, nil
}

// Project updates the normals of the samples from the mesh.
//
// Samples which receive no votes keep their previous normal. Every change is
// reported to monitor (if it is non-nil) before the normal is overwritten.
func (p *Projector) Project(mesh *Mesh, samples []Sample,
	monitor *ConvergenceMonitor) (ProjectionStats, error) {
	if len(samples) != p.Index.Len() {
		return ProjectionStats{}, errors.Errorf("projector indexes %d samples but got %d",
			p.Index.Len(), len(samples))
	}
	votes, stats, err := p.Votes(mesh)
	if err != nil {
		return stats, errors.Wrap(err, "project normals")
	}
	for i, v := range votes {
		if v == ZeroNormal {
			continue
		}
		if monitor != nil {
			monitor.Observe(samples[i].Normal, v)
		}
		samples[i].Normal = v
	}
	return stats, nil
}

func (p *Projector) neighbors() int {
	if p.Neighbors == 0 {
		return DefaultNeighbors
	}
	return p.Neighbors
}
