package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unixpickle/ipsr/ipsr"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <input.ply>",
		Short: "Print the size and bounds of a point cloud",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cloud, err := ipsr.LoadPoints(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "points: %d\n", len(cloud.Points))
			fmt.Fprintf(w, "normals: %v\n", cloud.Normals != nil)
			if len(cloud.Points) == 0 {
				return nil
			}
			min, max := cloud.Points[0], cloud.Points[0]
			for _, p := range cloud.Points[1:] {
				min = min.Min(p)
				max = max.Max(p)
			}
			fmt.Fprintf(w, "min: %f %f %f\n", min.X, min.Y, min.Z)
			fmt.Fprintf(w, "max: %f %f %f\n", max.X, max.Y, max.Z)
			return nil
		},
	}
}
