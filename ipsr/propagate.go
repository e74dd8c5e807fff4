package ipsr

import (
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// PropagateNormals assigns every point the normal of its nearest sample.
//
// The points must be in the same frame as the index, which must have been
// built over the samples' positions.
func PropagateNormals(index *SpatialIndex, samples []Sample, points []model3d.Coord3D,
	concurrency int) []model3d.Coord3D {
	res := make([]model3d.Coord3D, len(points))
	essentials.ConcurrentMap(concurrency, len(points), func(i int) {
		res[i] = samples[index.Nearest(points[i])].Normal
	})
	return res
}
