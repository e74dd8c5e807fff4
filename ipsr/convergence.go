package ipsr

import (
	"container/heap"
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// DefaultConvergenceThreshold is the metric below which normals are
// considered stable.
const DefaultConvergenceThreshold = 0.175

// ConvergenceFraction is the fraction of samples (rounded up) whose changes
// contribute to the convergence metric.
const ConvergenceFraction = 1.0 / 1000

// A ConvergenceMonitor tracks the largest per-sample normal changes of an
// iteration.
//
// The metric is the mean magnitude of the ceil(n/1000) largest changes,
// which makes it sensitive to a small set of unstable normals while ignoring
// the bulk of the cloud.
type ConvergenceMonitor struct {
	capacity int
	observed int
	largest  float64Heap
}

// NewConvergenceMonitor creates a monitor for a run over numSamples samples.
func NewConvergenceMonitor(numSamples int) *ConvergenceMonitor {
	capacity := int(math.Ceil(float64(numSamples) * ConvergenceFraction))
	if capacity < 1 {
		capacity = 1
	}
	return &ConvergenceMonitor{
		capacity: capacity,
		largest:  make(float64Heap, 0, capacity),
	}
}

// Capacity is the number of changes retained for the metric.
func (c *ConvergenceMonitor) Capacity() int {
	return c.capacity
}

// Reset clears all observations, starting a new iteration.
func (c *ConvergenceMonitor) Reset() {
	c.observed = 0
	c.largest = c.largest[:0]
}

// Observe records the change of a sample's normal from oldNormal to
// newNormal.
func (c *ConvergenceMonitor) Observe(oldNormal, newNormal model3d.Coord3D) {
	diff := newNormal.SquaredDist(oldNormal)
	c.observed++
	if len(c.largest) < c.capacity {
		heap.Push(&c.largest, diff)
	} else if diff > c.largest[0] {
		c.largest[0] = diff
		heap.Fix(&c.largest, 0)
	}
}

// Observed returns the number of changes recorded since the last Reset.
func (c *ConvergenceMonitor) Observed() int {
	return c.observed
}

// Metric computes the mean of the square roots of the retained squared
// changes.
//
// If nothing was observed, ok is false and the metric is 0.
func (c *ConvergenceMonitor) Metric() (metric float64, ok bool) {
	if len(c.largest) == 0 {
		return 0, false
	}
	var sum float64
	for _, x := range c.largest {
		sum += math.Sqrt(x)
	}
	return sum / float64(len(c.largest)), true
}

// Converged reports whether the current metric is below threshold.
//
// An iteration without any observations never counts as converged, since it
// carries no information about the normals.
func (c *ConvergenceMonitor) Converged(threshold float64) bool {
	metric, ok := c.Metric()
	return ok && metric < threshold
}

// float64Heap is a min-heap of float64 values.
type float64Heap []float64

func (h float64Heap) Len() int           { return len(h) }
func (h float64Heap) Less(i, j int) bool { return h[i] < h[j] }
func (h float64Heap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *float64Heap) Push(x interface{}) {
	*h = append(*h, x.(float64))
}

func (h *float64Heap) Pop() interface{} {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
