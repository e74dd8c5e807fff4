package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/ipsr/ipsr"
)

type reconstructOptions struct {
	InputPath     string
	OutputPath    string
	ConfigPath    string
	Solver        string
	PoissonBin    string
	MetricsFile   string
	SamplesOut    string
	AllNormalsOut string
	Binary        bool

	// FlagConfig receives the run parameters passed as flags.
	FlagConfig ipsr.Config
}

func newReconstructCmd(verbose *bool) *cobra.Command {
	opts := &reconstructOptions{FlagConfig: ipsr.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "reconstruct",
		Short: "Orient a point cloud and reconstruct its surface",
		Long: `Orient a point cloud and reconstruct its surface.

Settings are read from --config first, and explicitly passed flags take
precedence over the file.

Example usage:
  ipsr reconstruct --in horse.ply --out horse_mesh.ply
  ipsr reconstruct --in horse.ply --out horse_mesh.ply --iters 20 --depth 9
  ipsr reconstruct --in horse.ply --out mesh.ply --solver exec --poisson-bin ./PoissonRecon`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), *verbose)
			return runReconstruct(opts, cmd.Flags(), &logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.InputPath, "in", "", "Input point cloud (PLY)")
	f.StringVar(&opts.OutputPath, "out", "", "Output mesh (PLY)")
	f.StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	f.StringVar(&opts.Solver, "solver", "implicit", "Surface reconstruction backend: implicit or exec")
	f.StringVar(&opts.PoissonBin, "poisson-bin", ipsr.DefaultPoissonCommand,
		"PoissonRecon executable for --solver exec")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	f.StringVar(&opts.SamplesOut, "samples-out", "", "Write the oriented samples to this PLY file")
	f.StringVar(&opts.AllNormalsOut, "all-normals-out", "",
		"Write every input point with its propagated normal to this PLY file")
	f.BoolVar(&opts.Binary, "binary", false, "Write binary little-endian PLY files")

	cfg := &opts.FlagConfig
	f.IntVar(&cfg.MaxIters, "iters", cfg.MaxIters, "Maximum number of iterations")
	f.Float64Var(&cfg.PointWeight, "pointWeight", cfg.PointWeight, "Screened Poisson point weight")
	f.IntVar(&cfg.Depth, "depth", cfg.Depth, "Reconstruction depth")
	f.IntVar(&cfg.Neighbors, "neighbors", cfg.Neighbors, "Number of samples each face votes for")
	f.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "Convergence threshold")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for the random initial normals")
	f.Var(&cfg.Boundary, "boundary", "Boundary condition: free, dirichlet or neumann")
	f.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency,
		"Maximum number of Goroutines (0 means GOMAXPROCS)")

	essentials.Must(cmd.MarkFlagRequired("in"))
	essentials.Must(cmd.MarkFlagRequired("out"))
	return cmd
}

func runReconstruct(opts *reconstructOptions, flags *pflag.FlagSet, logger *zerolog.Logger) error {
	cfg, err := resolveConfig(opts.ConfigPath, flags, &opts.FlagConfig)
	if err != nil {
		return err
	}
	oracle, err := opts.oracle(logger)
	if err != nil {
		return err
	}

	logger.Info().Str("path", opts.InputPath).Msg("loading point cloud")
	cloud, err := ipsr.LoadPoints(opts.InputPath)
	if err != nil {
		return err
	}
	if len(cloud.Points) == 0 {
		return errors.Wrap(ipsr.ErrEmptyInput, opts.InputPath)
	}

	var metrics *ipsr.Metrics
	if opts.MetricsFile != "" {
		metrics = ipsr.NewMetrics()
	}
	pipeline := &ipsr.Pipeline{
		Refiner: &ipsr.Refiner{
			Oracle:  oracle,
			Config:  cfg,
			Logger:  logger,
			Metrics: metrics,
		},
		PropagateNormals: opts.AllNormalsOut != "",
	}
	result, err := pipeline.Run(cloud.Points)
	if err != nil {
		return err
	}

	format := ipsr.PLYASCII
	if opts.Binary {
		format = ipsr.PLYBinaryLittleEndian
	}
	mesh := result.Mesh
	if mesh == nil {
		logger.Warn().Msg("final reconstruction is empty")
		mesh = &ipsr.Mesh{}
	}
	logger.Info().Str("path", opts.OutputPath).Msg("saving mesh")
	if err := ipsr.SaveMesh(opts.OutputPath, mesh, format); err != nil {
		return err
	}
	if opts.SamplesOut != "" {
		if err := ipsr.SavePoints(opts.SamplesOut, result.Samples, format); err != nil {
			return err
		}
	}
	if opts.AllNormalsOut != "" {
		if err := ipsr.SavePoints(opts.AllNormalsOut, result.AllNormals, format); err != nil {
			return err
		}
	}
	if metrics != nil {
		if err := metrics.WriteFile(opts.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

// resolveConfig overlays explicitly set flags on the configuration file, or
// on the defaults if there is no file.
func resolveConfig(path string, flags *pflag.FlagSet, flagCfg *ipsr.Config) (ipsr.Config, error) {
	cfg := ipsr.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = ipsr.ReadConfig(path)
		if err != nil {
			return cfg, err
		}
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "iters":
			cfg.MaxIters = flagCfg.MaxIters
		case "pointWeight":
			cfg.PointWeight = flagCfg.PointWeight
		case "depth":
			cfg.Depth = flagCfg.Depth
		case "neighbors":
			cfg.Neighbors = flagCfg.Neighbors
		case "threshold":
			cfg.Threshold = flagCfg.Threshold
		case "seed":
			cfg.Seed = flagCfg.Seed
		case "boundary":
			cfg.Boundary = flagCfg.Boundary
		case "concurrency":
			cfg.Concurrency = flagCfg.Concurrency
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (r *reconstructOptions) oracle(logger *zerolog.Logger) (ipsr.Oracle, error) {
	switch r.Solver {
	case "implicit":
		return &ipsr.ImplicitOracle{}, nil
	case "exec":
		return &ipsr.ExecOracle{
			Command: r.PoissonBin,
			Format:  ipsr.PLYBinaryLittleEndian,
			Logger:  logger,
		}, nil
	}
	return nil, errors.Wrapf(ipsr.ErrInvalidConfig, "unknown solver %q", r.Solver)
}
