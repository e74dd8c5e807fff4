package ipsr

import (
	"math/rand"

	"github.com/unixpickle/model3d/model3d"
)

// RandomNormalRange bounds the integer components drawn by RandomNormals.
// Components are sampled uniformly from [-RandomNormalRange, RandomNormalRange].
const RandomNormalRange = 500

// RandomNormals deterministically produces n random unit vectors from r.
//
// Each vector is created from three integer draws, redrawing whenever all
// three are zero, so the result never contains ZeroNormal.
func RandomNormals(r *rand.Rand, n int) []model3d.Coord3D {
	res := make([]model3d.Coord3D, n)
	for i := range res {
		var c model3d.Coord3D
		for c == ZeroNormal {
			c = model3d.XYZ(
				float64(r.Intn(2*RandomNormalRange+1)-RandomNormalRange),
				float64(r.Intn(2*RandomNormalRange+1)-RandomNormalRange),
				float64(r.Intn(2*RandomNormalRange+1)-RandomNormalRange),
			)
		}
		res[i] = c.Normalize()
	}
	return res
}

// InitializeNormals overwrites every sample's normal with RandomNormals.
func InitializeNormals(r *rand.Rand, samples []Sample) {
	for i, n := range RandomNormals(r, len(samples)) {
		samples[i].Normal = n
	}
}
