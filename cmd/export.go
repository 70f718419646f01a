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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notargets/simread/export"
	"github.com/notargets/simread/snapshot"
)

// ExportCmd represents the export command
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one decoded snapshot to a netCDF file",
	Long: `
Decodes a single snapshot and writes the grid coordinates, every array field and
the snapshot scalars to a classic netCDF file.

simread export -I run.yaml --index 12 --out 0012.nc`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			sd *snapshot.SimData
		)
		index, _ := cmd.Flags().GetInt("index")
		out, _ := cmd.Flags().GetString("out")
		sp, err := loadParameters()
		if err != nil {
			return
		}
		dec, err := sp.NewDecoder()
		if err != nil {
			return
		}
		opts := sp.ScanOptions()
		fileName := filepath.Join(opts.Dir, snapshot.FileName(index, opts.Suffix, opts.Digits))
		if sd, err = dec.ReadFile(fileName); err != nil {
			return
		}
		sd.Index = index
		if len(out) == 0 {
			out = filepath.Join(opts.Dir, snapshot.FileName(index, ".nc", opts.Digits))
		}
		if err = export.WriteNetCDF(out, sd); err != nil {
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		logger.Debug("exported snapshot", "source", fileName, "fields", len(sd.Data))
		return
	},
}

func init() {
	rootCmd.AddCommand(ExportCmd)
	ExportCmd.Flags().IntP("index", "n", 0, "snapshot index to export")
	ExportCmd.Flags().StringP("out", "o", "", "output file (default <dir>/NNNN.nc)")
}
