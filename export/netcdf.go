// Package export writes decoded snapshots to self-describing files for
// tools that cannot read the raw simulation records.
package export

import (
	"fmt"
	"os"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/simread/snapshot"
	"github.com/notargets/simread/types"
)

// Dimension names of every exported field
const (
	DimR = "r"
	DimZ = "z"
)

// Coordinate variables written ahead of the fields
const (
	VarDR = "dr"
	VarDZ = "dz"
)

type cdfWriter interface {
	AddVar(name string, v api.Variable) error
	AddGlobalAttrs(attrs api.AttributeMap) error
	Close() error
}

var openWriter = func(fileName string) (cdfWriter, error) { return cdf.OpenWriter(fileName) }

// AttrSource is the global attribute holding the path of the decoded file
const AttrSource = "simread_source"

// WriteNetCDF writes sd to fileName as a classic netCDF file: the cell
// centers and widths on dims (r, z), every array field on (r, z), and the
// scalar metadata as global attributes. A failed write leaves no file behind.
func WriteNetCDF(fileName string, sd *snapshot.SimData) (err error) {
	if sd == nil || sd.Grid == nil {
		return fmt.Errorf("%w: nothing to export", types.ErrConfig)
	}
	for _, name := range []string{DimR, DimZ, VarDR, VarDZ} {
		if _, ok := sd.Data[name]; ok {
			return fmt.Errorf("%w: field %q collides with a coordinate variable",
				types.ErrConfig, name)
		}
	}
	attrs, err := globalAttrs(sd)
	if err != nil {
		return
	}
	cw, err := openWriter(fileName)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrIO, fileName, err)
	}
	defer func() {
		if cerr := cw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %s: %w", types.ErrIO, fileName, cerr)
		}
		if err != nil {
			os.Remove(fileName)
		}
	}()

	g := sd.Grid
	coords := []struct {
		name string
		vals []float64
		dim  string
	}{
		{DimR, g.R, DimR},
		{DimZ, g.Z, DimZ},
		{VarDR, g.DR, DimR},
		{VarDZ, g.DZ, DimZ},
	}
	for _, c := range coords {
		if err = cw.AddVar(c.name, api.Variable{
			Values:     append([]float64{}, c.vals...),
			Dimensions: []string{c.dim},
		}); err != nil {
			return fmt.Errorf("%w: variable %s: %w", types.ErrIO, c.name, err)
		}
	}

	for _, name := range sd.Keys() {
		G, ok := sd.Data[name]
		if !ok {
			continue
		}
		if err = cw.AddVar(name, api.Variable{
			Values:     rows(G),
			Dimensions: []string{DimR, DimZ},
		}); err != nil {
			return fmt.Errorf("%w: variable %s: %w", types.ErrIO, name, err)
		}
	}

	if err = cw.AddGlobalAttrs(attrs); err != nil {
		return fmt.Errorf("%w: global attributes: %w", types.ErrIO, err)
	}
	return
}

func globalAttrs(sd *snapshot.SimData) (*util.OrderedMap, error) {
	var (
		keys []string
		vals = make(map[string]interface{})
	)
	for _, name := range sd.Keys() {
		if v, ok := sd.Meta(name); ok {
			keys = append(keys, name)
			vals[name] = v
		}
	}
	if sd.Path != "" {
		if _, ok := vals[AttrSource]; ok {
			return nil, fmt.Errorf("%w: scalar %q collides with the source attribute",
				types.ErrConfig, AttrSource)
		}
		keys = append(keys, AttrSource)
		vals[AttrSource] = sd.Path
	}
	attrs, err := util.NewOrderedMap(keys, vals)
	if err != nil {
		return nil, fmt.Errorf("%w: global attributes: %w", types.ErrConfig, err)
	}
	return attrs, nil
}

// rows copies G into the row slices the CDF writer expects.
func rows(G *mat.Dense) [][]float64 {
	nr, _ := G.Dims()
	out := make([][]float64, nr)
	for i := range out {
		out[i] = mat.Row(nil, i, G)
	}
	return out
}
