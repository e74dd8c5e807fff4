package ipsr

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// DefaultFrameScale is the ratio between the unit cube and the bounding box
// of a point cloud mapped into it.
const DefaultFrameScale = 1.1

// A Frame maps between input coordinates and the unit cube in which samples
// are indexed and reconstructed.
type Frame struct {
	// Origin is the input coordinate mapped to the unit cube's origin.
	Origin model3d.Coord3D

	// Size is the side length, in input units, of the unit cube.
	Size float64
}

// NewFrame creates a frame which centers the bounding box of the points in
// the unit cube, leaving a margin so that the box's longest side spans
// 1/scale of the cube.
func NewFrame(points []model3d.Coord3D, scale float64) (*Frame, error) {
	if len(points) == 0 {
		return nil, errors.Wrap(ErrEmptyInput, "create frame")
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min = min.Min(p)
		max = max.Max(p)
	}
	size := max.Sub(min).MaxCoord() * scale
	if size == 0 {
		size = 1
	}
	center := min.Add(max).Scale(0.5)
	return &Frame{
		Origin: center.Sub(model3d.XYZ(1, 1, 1).Scale(size / 2)),
		Size:   size,
	}, nil
}

// ToUnit maps an input coordinate into the unit cube.
func (f *Frame) ToUnit(c model3d.Coord3D) model3d.Coord3D {
	return c.Sub(f.Origin).Scale(1 / f.Size)
}

// FromUnit maps a unit cube coordinate back to input coordinates.
func (f *Frame) FromUnit(c model3d.Coord3D) model3d.Coord3D {
	return c.Scale(f.Size).Add(f.Origin)
}

// ToUnitAll maps every coordinate into the unit cube.
func (f *Frame) ToUnitAll(cs []model3d.Coord3D) []model3d.Coord3D {
	res := make([]model3d.Coord3D, len(cs))
	for i, c := range cs {
		res[i] = f.ToUnit(c)
	}
	return res
}
