package main

import (
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/unixpickle/ipsr/ipsr"
	"github.com/unixpickle/model3d/model3d"
)

func newSampleCmd(verbose *bool) *cobra.Command {
	var numPoints int
	var seed int64
	var withNormals bool
	var binary bool
	cmd := &cobra.Command{
		Use:   "sample <input.stl> <output.ply>",
		Short: "Sample a point cloud from the surface of a mesh",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), *verbose)
			inputPath, outputPath := args[0], args[1]
			if numPoints <= 0 {
				return errors.Wrapf(ipsr.ErrInvalidConfig, "points must be positive, got %d", numPoints)
			}

			logger.Info().Str("path", inputPath).Msg("loading mesh")
			f, err := os.Open(inputPath)
			if err != nil {
				return errors.Wrap(err, "load mesh")
			}
			tris, err := model3d.ReadSTL(f)
			f.Close()
			if err != nil {
				return errors.Wrap(err, "load mesh")
			}
			sampler, err := ipsr.NewSurfaceSampler(model3d.NewMeshTriangles(tris))
			if err != nil {
				return err
			}

			cloud := sampler.SampleN(rand.New(rand.NewSource(seed)), numPoints)
			if !withNormals {
				cloud.Normals = nil
			}
			format := ipsr.PLYASCII
			if binary {
				format = ipsr.PLYBinaryLittleEndian
			}
			logger.Info().Int("points", numPoints).Str("path", outputPath).Msg("saving point cloud")
			return ipsr.SavePoints(outputPath, cloud, format)
		},
	}
	cmd.Flags().IntVar(&numPoints, "points", 100000, "Number of points to sample")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().BoolVar(&withNormals, "normals", false, "Include the true surface normals")
	cmd.Flags().BoolVar(&binary, "binary", false, "Write a binary little-endian PLY file")
	return cmd
}
