package ipsr

import (
	"math"
	"math/rand"

	"github.com/unixpickle/model3d/model3d"
)

// testSpherePoints creates n points evenly spread over a sphere centered at
// the origin using a Fibonacci lattice.
func testSpherePoints(n int, radius float64) []model3d.Coord3D {
	res := make([]model3d.Coord3D, n)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := range res {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - y*y)
		theta := golden * float64(i)
		res[i] = model3d.XYZ(r*math.Cos(theta), y, r*math.Sin(theta)).Scale(radius)
	}
	return res
}

func meanPoint(ps []model3d.Coord3D) model3d.Coord3D {
	var res model3d.Coord3D
	for _, p := range ps {
		res = res.Add(p)
	}
	return res.Scale(1 / float64(len(ps)))
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(1337))
}
