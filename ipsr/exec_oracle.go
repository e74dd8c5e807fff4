package ipsr

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/unixpickle/model3d/model3d"
)

// DefaultPoissonCommand is the executable used by ExecOracle when no command
// is configured.
const DefaultPoissonCommand = "PoissonRecon"

// An ExecOracle reconstructs surfaces by running an external screened
// Poisson solver which follows the PoissonRecon command-line interface.
//
// Samples are exchanged through PLY files in a temporary directory.
type ExecOracle struct {
	// Command is the solver executable. Defaults to DefaultPoissonCommand.
	Command string

	// ExtraArgs are appended to every invocation.
	ExtraArgs []string

	// TempDir is the parent of the per-call scratch directories. If empty,
	// the system default is used.
	TempDir string

	// Format is the encoding of the sample file passed to the solver.
	Format PLYFormat

	Logger *zerolog.Logger
}

func (e *ExecOracle) Reconstruct(samples []Sample, params ReconstructionParams) (*Mesh, error) {
	if len(samples) == 0 {
		return nil, errors.Wrap(ErrDegenerateInput, "exec oracle: no samples")
	}
	dir, err := os.MkdirTemp(e.TempDir, "ipsr-")
	if err != nil {
		return nil, errors.Wrap(err, "exec oracle")
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "in.ply")
	outPath := filepath.Join(dir, "out.ply")
	cloud, weighted := encodeWeightedSamples(samples)
	if err := SavePoints(inPath, cloud, e.Format); err != nil {
		return nil, errors.Wrap(err, "exec oracle")
	}

	args := e.Args(inPath, outPath, params, weighted)
	command := e.command()
	e.logger().Debug().Str("command", command).Strs("args", args).Msg("running solver")

	var output bytes.Buffer
	cmd := exec.Command(command, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "exec oracle: run %s: %s", command,
			tailString(output.String(), 1024))
	}

	mesh, err := LoadMesh(outPath)
	if err != nil {
		return nil, errors.Wrap(err, "exec oracle")
	}
	if len(mesh.Vertices) == 0 {
		return nil, nil
	}
	return mesh, nil
}

// Args builds the solver arguments for one reconstruction.
//
// If weighted is true, the solver is told to read sample confidence from the
// normal magnitudes.
func (e *ExecOracle) Args(inPath, outPath string, params ReconstructionParams,
	weighted bool) []string {
	args := []string{
		"--in", inPath,
		"--out", outPath,
		"--bType", strconv.Itoa(params.Boundary.BType()),
		"--depth", strconv.Itoa(params.Depth),
		"--pointWeight", strconv.FormatFloat(params.PointWeight, 'g', -1, 64),
	}
	if weighted {
		args = append(args, "--confidence", "1")
	}
	return append(args, e.ExtraArgs...)
}

func (e *ExecOracle) command() string {
	if e.Command == "" {
		return DefaultPoissonCommand
	}
	return e.Command
}

func (e *ExecOracle) logger() *zerolog.Logger {
	if e.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return e.Logger
}

// encodeWeightedSamples converts samples into an oriented point cloud.
//
// Unless every weight is 1, each normal is scaled by its sample's weight.
func encodeWeightedSamples(samples []Sample) (*PointCloud, bool) {
	weighted := false
	for _, s := range samples {
		if s.Weight != 1 {
			weighted = true
			break
		}
	}
	cloud := &PointCloud{
		Points:  make([]model3d.Coord3D, len(samples)),
		Normals: make([]model3d.Coord3D, len(samples)),
	}
	for i, s := range samples {
		cloud.Points[i] = s.Position
		if weighted {
			cloud.Normals[i] = s.Normal.Scale(s.Weight)
		} else {
			cloud.Normals[i] = s.Normal
		}
	}
	return cloud, weighted
}

func tailString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
