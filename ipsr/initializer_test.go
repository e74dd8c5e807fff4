package ipsr

import (
	"math"
	"math/rand"
	"testing"
)

func TestRandomNormalsUnit(t *testing.T) {
	normals := RandomNormals(rand.New(rand.NewSource(0)), 5000)
	if len(normals) != 5000 {
		t.Fatalf("expected 5000 normals but got %d", len(normals))
	}
	for i, n := range normals {
		if math.Abs(n.Norm()-1) > 1e-8 {
			t.Fatalf("normal %d has norm %f", i, n.Norm())
		}
	}
}

func TestRandomNormalsDeterministic(t *testing.T) {
	n1 := RandomNormals(rand.New(rand.NewSource(0)), 100)
	n2 := RandomNormals(rand.New(rand.NewSource(0)), 100)
	n3 := RandomNormals(rand.New(rand.NewSource(1)), 100)
	differs := false
	for i := range n1 {
		if n1[i] != n2[i] {
			t.Fatalf("normal %d differs between identical seeds: %v %v", i, n1[i], n2[i])
		}
		if n1[i] != n3[i] {
			differs = true
		}
	}
	if !differs {
		t.Error("different seeds should produce different normals")
	}
}

func TestRandomNormalsSpread(t *testing.T) {
	normals := RandomNormals(rand.New(rand.NewSource(1337)), 20000)
	if m := meanPoint(normals); m.Norm() > 0.05 {
		t.Errorf("mean normal should be near zero but got %v", m)
	}
}

func TestInitializeNormals(t *testing.T) {
	samples := NewSamples(testSpherePoints(50, 1))
	InitializeNormals(rand.New(rand.NewSource(0)), samples)
	expected := RandomNormals(rand.New(rand.NewSource(0)), 50)
	for i, s := range samples {
		if s.Normal != expected[i] {
			t.Fatalf("sample %d should have normal %v but got %v", i, expected[i], s.Normal)
		}
		if s.Weight != 1 {
			t.Fatalf("weight should be untouched but got %f", s.Weight)
		}
	}
}
