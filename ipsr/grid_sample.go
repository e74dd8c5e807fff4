package ipsr

import (
	"math"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// GridSample merges points which fall in the same cell of a regular grid
// with 2^depth cells along each side of the unit cube.
//
// Each occupied cell produces one sample at the mean of its points, with a
// weight equal to the number of points it absorbed. Samples are ordered by
// the first point to land in their cell, so the result is deterministic.
//
// The points should already be in the unit frame. Depths above MaxDepth are
// treated as MaxDepth.
func GridSample(points []model3d.Coord3D, depth int) []Sample {
	type cellAccum struct {
		sum   model3d.Coord3D
		count int
	}
	res := math.Ldexp(1, essentials.MinInt(depth, MaxDepth))
	cells := map[[3]int64]int{}
	var accums []cellAccum
	for _, p := range points {
		key := [3]int64{
			int64(math.Floor(p.X * res)),
			int64(math.Floor(p.Y * res)),
			int64(math.Floor(p.Z * res)),
		}
		idx, ok := cells[key]
		if !ok {
			idx = len(accums)
			cells[key] = idx
			accums = append(accums, cellAccum{})
		}
		accums[idx].sum = accums[idx].sum.Add(p)
		accums[idx].count++
	}

	samples := make([]Sample, len(accums))
	for i, acc := range accums {
		samples[i] = Sample{
			Position: acc.sum.Scale(1 / float64(acc.count)),
			Normal:   model3d.X(1),
			Weight:   float64(acc.count),
		}
	}
	return samples
}
