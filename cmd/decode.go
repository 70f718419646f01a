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
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/simread/snapshot"
	"github.com/notargets/simread/types"
)

type DecodeRun struct {
	Start, Max int
	Workers    int
	Profile    string
}

// DecodeCmd represents the decode command
var DecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode every snapshot of a run and summarize each one",
	Long: `
Walks the snapshot sequence 0000dat, 0001dat, ... until the first missing index
and prints the scalars and the range of every array field of each snapshot.

simread decode -I run.yaml --workers 8`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		dr := &DecodeRun{}
		flags := cmd.Flags()
		dr.Start, _ = flags.GetInt("start")
		dr.Max, _ = flags.GetInt("max")
		dr.Workers, _ = flags.GetInt("workers")
		dr.Profile, _ = flags.GetString("profile")
		sp, err := loadParameters()
		if err != nil {
			return
		}
		opts := sp.ScanOptions()
		if flags.Changed("start") {
			opts.Start = dr.Start
		}
		if flags.Changed("max") {
			opts.MaxIndex = dr.Max
		}
		stop, err := startProfile(dr.Profile, opts.Dir)
		if err != nil {
			return
		}
		defer stop()
		dec, err := sp.NewDecoder()
		if err != nil {
			return
		}
		return RunDecode(cmd, dec, opts, dr.Workers)
	},
}

func init() {
	rootCmd.AddCommand(DecodeCmd)
	DecodeCmd.Flags().IntP("start", "s", 0, "first snapshot index")
	DecodeCmd.Flags().IntP("max", "m", -1, "last snapshot index, negative for all")
	DecodeCmd.Flags().IntP("workers", "w", 1, "number of snapshots decoded in parallel")
	DecodeCmd.Flags().StringP("profile", "p", "", "write a \"cpu\" or \"mem\" profile to the data directory")
}

// RunDecode decodes the sequence one snapshot at a time, or all at once on
// several goroutines when workers > 1.
func RunDecode(cmd *cobra.Command, dec *snapshot.Decoder, opts snapshot.ScanOptions, workers int) (err error) {
	var (
		w  = cmd.OutOrStdout()
		sc = snapshot.NewScanner(dec, opts)
		n  int
	)
	if workers <= 1 {
		for sc.Scan() {
			Summarize(w, sc.Snapshot())
			n++
		}
		if err = sc.Err(); err != nil {
			return
		}
	} else {
		var (
			paths []string
			snaps []*snapshot.SimData
		)
		if paths, err = sc.Paths(); err != nil {
			return
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if snaps, err = snapshot.DecodeAll(ctx, dec, paths, workers); err != nil {
			return
		}
		for _, sd := range snaps {
			Summarize(w, sd)
		}
		n = len(snaps)
	}
	logger.Info("decode complete", "dir", opts.Dir, "snapshots", n)
	return
}

// Summarize prints the scalars of sd on one line, then one line per array
// field with its minimum and maximum.
func Summarize(w io.Writer, sd *snapshot.SimData) {
	fmt.Fprintf(w, "%04d %s", sd.Index, filepath.Base(sd.Path))
	for _, name := range sd.Keys() {
		if v, ok := sd.Meta(name); ok {
			fmt.Fprintf(w, " %s=%g", name, v)
		}
	}
	fmt.Fprintln(w)
	for _, name := range sd.Keys() {
		if G := sd.Field(name); G != nil {
			fmt.Fprintf(w, "    %-8s min=%-14g max=%g\n", name, mat.Min(G), mat.Max(G))
		}
	}
}

func startProfile(kind, dir string) (stop func(), err error) {
	var mode func(*profile.Profile)
	switch kind {
	case "":
		return func() {}, nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	default:
		return nil, fmt.Errorf("%w: unknown profile %q, want cpu or mem", types.ErrConfig, kind)
	}
	return profile.Start(mode, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook).Stop, nil
}
