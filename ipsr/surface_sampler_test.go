package ipsr

import (
	"math"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

func TestSurfaceSamplerSphere(t *testing.T) {
	mesh := model3d.NewMeshIcosphere(model3d.Origin, 1, 3)
	sampler, err := NewSurfaceSampler(mesh)
	if err != nil {
		t.Fatal(err)
	}
	cloud := sampler.SampleN(newTestRand(), 2000)
	for i, p := range cloud.Points {
		if r := p.Norm(); r > 1+1e-8 || r < 0.95 {
			t.Fatalf("point %d has radius %f", i, r)
		}
		n := cloud.Normals[i]
		if math.Abs(n.Norm()-1) > 1e-8 {
			t.Fatalf("point %d has non-unit normal %v", i, n)
		}
		if n.Dot(p.Normalize()) < 0.95 {
			t.Fatalf("point %d normal %v is not radial", i, n)
		}
	}
	if c := meanPoint(cloud.Points); c.Norm() > 0.1 {
		t.Errorf("samples are not spread evenly: mean %v", c)
	}
}

func TestSurfaceSamplerArea(t *testing.T) {
	// The large triangle has 99 times the area of the small one.
	mesh := model3d.NewMeshTriangles([]*model3d.Triangle{
		{model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0)},
		{model3d.XYZ(0, 0, 5), model3d.XYZ(0, 9.9498743710662, 5), model3d.XYZ(9.9498743710662, 0, 5)},
	})
	sampler, err := NewSurfaceSampler(mesh)
	if err != nil {
		t.Fatal(err)
	}
	cloud := sampler.SampleN(newTestRand(), 10000)
	var small int
	for i, p := range cloud.Points {
		if p.Z == 0 {
			small++
			if cloud.Normals[i] != model3d.Z(1) {
				t.Fatalf("unexpected normal %v", cloud.Normals[i])
			}
		} else if cloud.Normals[i] != model3d.Z(-1) {
			t.Fatalf("unexpected normal %v", cloud.Normals[i])
		}
	}
	if small < 50 || small > 170 {
		t.Errorf("expected about 100 samples on the small triangle but got %d", small)
	}
}

func TestSurfaceSamplerDeterministic(t *testing.T) {
	mesh := model3d.NewMeshIcosphere(model3d.Origin, 1, 2)
	s1, err := NewSurfaceSampler(mesh)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewSurfaceSampler(mesh)
	if err != nil {
		t.Fatal(err)
	}
	c1 := s1.SampleN(newTestRand(), 100)
	c2 := s2.SampleN(newTestRand(), 100)
	if !reflect.DeepEqual(c1, c2) {
		t.Fatal("samples differ for the same seed")
	}
}

func TestSurfaceSamplerEmpty(t *testing.T) {
	_, err := NewSurfaceSampler(model3d.NewMesh())
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput but got %v", err)
	}
}
