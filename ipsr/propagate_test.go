package ipsr

import (
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestPropagateNormals(t *testing.T) {
	samples := []Sample{
		{Position: model3d.XYZ(0, 0, 0), Normal: model3d.X(1)},
		{Position: model3d.XYZ(1, 0, 0), Normal: model3d.Y(1)},
		{Position: model3d.XYZ(0, 1, 0), Normal: model3d.Z(1)},
	}
	index, err := NewSpatialIndex(SamplePositions(samples))
	if err != nil {
		t.Fatal(err)
	}
	points := []model3d.Coord3D{
		model3d.XYZ(0.1, 0.1, 0),
		model3d.XYZ(0.9, -0.2, 0.3),
		model3d.XYZ(-0.1, 2, 0),
		model3d.XYZ(0.8, 0, 0),
	}
	normals := PropagateNormals(index, samples, points, 0)
	expected := []model3d.Coord3D{model3d.X(1), model3d.Y(1), model3d.Z(1), model3d.Y(1)}
	for i, n := range normals {
		if n != expected[i] {
			t.Errorf("point %d: expected %v but got %v", i, expected[i], n)
		}
	}
}
