package ipsr

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var (
	_ kdtree.Interface  = indexedPoints{}
	_ kdtree.Comparable = indexedPoint{}
)

// A SpatialIndex answers nearest-neighbor queries over a fixed set of points,
// returning indices into the slice it was built from.
//
// The index is immutable after construction and may be queried from many
// Goroutines at once.
type SpatialIndex struct {
	tree      *kdtree.Tree
	numPoints int
}

// NewSpatialIndex builds an index over the points.
func NewSpatialIndex(points []model3d.Coord3D) (*SpatialIndex, error) {
	if len(points) == 0 {
		return nil, errors.Wrap(ErrEmptyInput, "build spatial index")
	}
	items := make(indexedPoints, len(points))
	for i, p := range points {
		items[i] = indexedPoint{Coord: p, Index: i}
	}
	return &SpatialIndex{
		tree:      kdtree.New(items, false),
		numPoints: len(points),
	}, nil
}

// Len returns the number of indexed points.
func (s *SpatialIndex) Len() int {
	return s.numPoints
}

// KNearest returns the indices of the k points closest to c.
//
// If there are fewer than k points, all indices are returned. The result is
// sorted by index rather than by distance.
func (s *SpatialIndex) KNearest(c model3d.Coord3D, k int) []int {
	if k <= 0 {
		return nil
	}
	if k >= s.numPoints {
		res := make([]int, s.numPoints)
		for i := range res {
			res[i] = i
		}
		return res
	}
	keeper := kdtree.NewNKeeper(k)
	s.tree.NearestSet(keeper, indexedPoint{Coord: c})
	res := make([]int, 0, k)
	for _, item := range keeper.Heap {
		// The keeper is seeded with a sentinel that has no Comparable.
		if item.Comparable == nil {
			continue
		}
		res = append(res, item.Comparable.(indexedPoint).Index)
	}
	slices.Sort(res)
	return res
}

// Nearest returns the index of the point closest to c.
func (s *SpatialIndex) Nearest(c model3d.Coord3D) int {
	nearest, _ := s.tree.Nearest(indexedPoint{Coord: c})
	return nearest.(indexedPoint).Index
}

type indexedPoint struct {
	Coord model3d.Coord3D
	Index int
}

// Compare returns the signed distance of p from the plane passing through c
// and perpendicular to the dimension d.
func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.Coord.X - q.Coord.X
	case 1:
		return p.Coord.Y - q.Coord.Y
	case 2:
		return p.Coord.Z - q.Coord.Z
	}
	panic("unreachable")
}

func (p indexedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between p and c.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	return p.Coord.SquaredDist(c.(indexedPoint).Coord)
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }

func (p indexedPoints) Len() int { return len(p) }

func (p indexedPoints) Pivot(d kdtree.Dim) int {
	plane := indexedPlane{dim: d, points: p}
	return kdtree.Partition(plane, kdtree.MedianOfMedians(plane))
}

func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// indexedPlane sorts points along a single dimension for pivot selection.
type indexedPlane struct {
	dim    kdtree.Dim
	points indexedPoints
}

func (p indexedPlane) Len() int { return len(p.points) }

func (p indexedPlane) Less(i, j int) bool {
	return p.points[i].Compare(p.points[j], p.dim) < 0
}

func (p indexedPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

func (p indexedPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
