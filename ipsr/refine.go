package ipsr

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// State is a step of the refinement state machine.
type State int

const (
	StateLoaded State = iota
	StateIndexed
	StateInitialized
	StateReconstructing
	StateProjecting
	StateConvergenceCheck
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateIndexed:
		return "indexed"
	case StateInitialized:
		return "initialized"
	case StateReconstructing:
		return "reconstructing"
	case StateProjecting:
		return "projecting"
	case StateConvergenceCheck:
		return "convergence_check"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IterationStats describes one pass of the refinement loop.
type IterationStats struct {
	// Iteration is 1-based.
	Iteration int

	// Metric is the convergence metric. It is only meaningful if Voted is
	// non-zero.
	Metric float64

	ProjectionStats
}

// Result is the outcome of Refiner.Refine.
type Result struct {
	// Mesh is the reconstruction from the final normals. It is nil if the
	// final Oracle call was degenerate.
	Mesh *Mesh

	Iterations []IterationStats

	// Converged is true if the loop stopped because the metric dropped
	// below the threshold rather than because of the iteration cap.
	Converged bool

	State State
}

// A Refiner alternates between surface reconstruction and normal projection
// until the normals of a point cloud stabilize.
type Refiner struct {
	Oracle Oracle
	Config Config

	// Logger, if non-nil, receives progress information.
	Logger *zerolog.Logger

	// Metrics, if non-nil, is updated after every Oracle call and iteration.
	Metrics *Metrics
}

// Refine estimates normals for the samples in place and returns the final
// reconstruction.
//
// Sample positions must already be in the Oracle's frame. Their existing
// normals are discarded in favor of a random initialization.
func (r *Refiner) Refine(samples []Sample) (*Result, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, errors.Wrap(err, "refine")
	}
	if r.Oracle == nil {
		return nil, errors.New("refine: no oracle")
	}
	logger := r.logger()
	res := &Result{State: StateLoaded}
	transition := func(s State) {
		res.State = s
		logger.Debug().Stringer("state", s).Msg("refinement state")
	}

	index, err := NewSpatialIndex(SamplePositions(samples))
	if err != nil {
		return nil, errors.Wrap(err, "refine")
	}
	transition(StateIndexed)

	InitializeNormals(rand.New(rand.NewSource(r.Config.Seed)), samples)
	transition(StateInitialized)

	projector := &Projector{
		Index:       index,
		Neighbors:   r.Config.Neighbors,
		Concurrency: r.Config.Concurrency,
	}
	monitor := NewConvergenceMonitor(len(samples))
	params := r.Config.ReconstructionParams()

	for epoch := 1; epoch <= r.Config.MaxIters; epoch++ {
		transition(StateReconstructing)
		mesh, err := r.reconstruct(samples, params, "iterate")
		if err != nil {
			return nil, errors.Wrapf(err, "refine: iteration %d", epoch)
		}

		transition(StateProjecting)
		monitor.Reset()
		projStats, err := projector.Project(mesh, samples, monitor)
		if err != nil {
			return nil, errors.Wrapf(err, "refine: iteration %d", epoch)
		}

		transition(StateConvergenceCheck)
		stats := IterationStats{Iteration: epoch, ProjectionStats: projStats}
		stats.Metric, _ = monitor.Metric()
		res.Iterations = append(res.Iterations, stats)
		r.Metrics.ObserveIteration(stats)

		if stats.Voted == 0 {
			logger.Debug().
				Int("iter", epoch).
				Int("triangles", stats.Triangles).
				Msg("no sample received a vote")
		} else {
			logger.Info().
				Int("iter", epoch).
				Float64("variation", stats.Metric).
				Int("voted", stats.Voted).
				Int("triangles", stats.Triangles).
				Msg("normals variation")
		}
		if stats.SkippedFaces > 0 {
			logger.Debug().
				Int("iter", epoch).
				Int("faces", stats.SkippedFaces).
				Msg("skipped non-triangular faces")
		}

		if monitor.Converged(r.Config.Threshold) {
			res.Converged = true
			break
		}
	}

	transition(StateFinalizing)
	mesh, err := r.reconstruct(samples, params, "final")
	if err != nil {
		return nil, errors.Wrap(err, "refine: final reconstruction")
	}
	res.Mesh = mesh
	transition(StateDone)

	logger.Info().
		Int("iters", len(res.Iterations)).
		Bool("converged", res.Converged).
		Int("triangles", mesh.NumTriangles()).
		Msg("refinement finished")

	return res, nil
}

func (r *Refiner) reconstruct(samples []Sample, params ReconstructionParams,
	phase string) (*Mesh, error) {
	start := time.Now()
	mesh, err := r.Oracle.Reconstruct(samples, params)
	r.Metrics.ObserveOracle(phase, time.Since(start))
	if errors.Is(err, ErrDegenerateInput) {
		r.logger().Debug().Err(err).Str("phase", phase).Msg("degenerate reconstruction")
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reconstruct")
	}
	return mesh, nil
}

func (r *Refiner) logger() *zerolog.Logger {
	if r.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return r.Logger
}
