package ipsr

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// PipelineResult is the output of Pipeline.Run, in input coordinates.
type PipelineResult struct {
	*Result

	// Samples are the grid samples with their refined normals.
	Samples *PointCloud

	// AllNormals, if requested, assigns every input point the normal of its
	// nearest sample.
	AllNormals *PointCloud
}

// A Pipeline runs refinement on a raw point cloud.
//
// Points are mapped into a unit frame, grid sampled at the configured depth,
// refined, and mapped back.
type Pipeline struct {
	Refiner *Refiner

	// FrameScale is the ratio of the frame size to the bounding box size.
	// If zero, DefaultFrameScale is used.
	FrameScale float64

	// PropagateNormals enables PipelineResult.AllNormals.
	PropagateNormals bool
}

func (p *Pipeline) Run(points []model3d.Coord3D) (*PipelineResult, error) {
	if err := p.Refiner.Config.Validate(); err != nil {
		return nil, errors.Wrap(err, "run pipeline")
	}
	scale := p.FrameScale
	if scale == 0 {
		scale = DefaultFrameScale
	}
	frame, err := NewFrame(points, scale)
	if err != nil {
		return nil, errors.Wrap(err, "run pipeline")
	}
	unitPoints := frame.ToUnitAll(points)
	samples := GridSample(unitPoints, p.Refiner.Config.Depth)

	logger := p.Refiner.logger()
	logger.Info().
		Int("points", len(points)).
		Int("samples", len(samples)).
		Msg("sampled point cloud")

	result, err := p.Refiner.Refine(samples)
	if err != nil {
		return nil, errors.Wrap(err, "run pipeline")
	}

	res := &PipelineResult{
		Result: result,
		Samples: &PointCloud{
			Points:  make([]model3d.Coord3D, len(samples)),
			Normals: SampleNormals(samples),
		},
	}
	for i, s := range samples {
		res.Samples.Points[i] = frame.FromUnit(s.Position)
	}
	if result.Mesh != nil {
		res.Mesh = result.Mesh.Transform(frame.FromUnit)
	}

	if p.PropagateNormals {
		index, err := NewSpatialIndex(SamplePositions(samples))
		if err != nil {
			return nil, errors.Wrap(err, "run pipeline")
		}
		res.AllNormals = &PointCloud{
			Points:  points,
			Normals: PropagateNormals(index, samples, unitPoints, p.Refiner.Config.Concurrency),
		}
	}

	return res, nil
}
