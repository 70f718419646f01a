/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/simread/geometry2D"
)

// GridCmd represents the grid command
var GridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Read the coordinate file and report the grid",
	Long: `
Builds the (r, z) grid from the coordinate file named in the run parameters and
reports its size, decomposition and extent.

simread grid -I run.yaml`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			g *geometry2D.Grid
		)
		sp, err := loadParameters()
		if err != nil {
			return
		}
		if viper.GetBool("verbose") {
			sp.Print()
		}
		if g, err = geometry2D.NewGrid(sp.Decomposition(), sp.GridPath()); err != nil {
			return
		}
		nr, nz := g.BlockShape()
		rMin, rMax, zMin, zMax := g.Extent()
		fmt.Fprintf(cmd.OutOrStdout(), "grid %d x %d, %d x %d blocks of %d x %d\n",
			g.NRTot, g.NZTot, g.NLayersR, g.NLayersZ, nr, nz)
		fmt.Fprintf(cmd.OutOrStdout(), "r [%g, %g]\nz [%g, %g]\n", rMin, rMax, zMin, zMax)
		logger.Debug("grid built", "file", sp.GridPath())
		return
	},
}

func init() {
	rootCmd.AddCommand(GridCmd)
}
