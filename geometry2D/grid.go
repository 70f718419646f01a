package geometry2D

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/simread/types"
)

const (
	// Each axis of the coordinate file carries this many edges beyond the
	// cell count; padLow of them sit before the first interior edge.
	edgePad = 5
	padLow  = 2
	padHigh = edgePad - padLow
	// BlockMargin is the number of ghost cells on every side of a stored block
	BlockMargin = 2
)

// Decomposition is the global cell count along each axis and the number of
// sub-domains the simulation split each axis into.
type Decomposition struct {
	NRTot, NZTot       int // Radial, vertical cell count
	NLayersR, NLayersZ int // Radial, vertical sub-domain count
}

func (d Decomposition) Validate() error {
	if d.NRTot <= 0 || d.NZTot <= 0 {
		return fmt.Errorf("%w: grid dimensions must be positive, have %d x %d",
			types.ErrConfig, d.NRTot, d.NZTot)
	}
	if d.NLayersR <= 0 || d.NLayersZ <= 0 {
		return fmt.Errorf("%w: decomposition factors must be positive, have %d x %d",
			types.ErrConfig, d.NLayersR, d.NLayersZ)
	}
	if d.NRTot%d.NLayersR != 0 {
		return fmt.Errorf("%w: radial decomposition %d does not divide %d cells",
			types.ErrConfig, d.NLayersR, d.NRTot)
	}
	if d.NZTot%d.NLayersZ != 0 {
		return fmt.Errorf("%w: vertical decomposition %d does not divide %d cells",
			types.ErrConfig, d.NLayersZ, d.NZTot)
	}
	return nil
}

func (d Decomposition) NBlocks() int { return d.NLayersR * d.NLayersZ }

// BlockShape returns the interior cell count of one block along the radial
// and vertical axes, ghost cells excluded.
func (d Decomposition) BlockShape() (nr, nz int) {
	return d.NRTot / d.NLayersR, d.NZTot / d.NLayersZ
}

// RawBlockShape is the stored (rows, cols) of one block: vertical rows by
// radial columns, ghost margin included.
func (d Decomposition) RawBlockShape() (rows, cols int) {
	nr, nz := d.BlockShape()
	return nz + 2*BlockMargin, nr + 2*BlockMargin
}

// Grid is the cylindrical (r, z) grid shared by every snapshot of a run. It
// is built once and never modified.
type Grid struct {
	Decomposition
	REdge, ZEdge []float64 // Raw edge coordinates, padding included
	R, Z         []float64 // Cell centers
	DR, DZ       []float64 // Cell widths
	// Broadcasts of the 1D arrays over the other axis, each NRTot x NZTot
	R2D, Z2D   *mat.Dense
	DR2D, DZ2D *mat.Dense
}

// NewGrid reads the coordinate file and derives cell centers, widths and
// their 2D broadcasts.
func NewGrid(d Decomposition, fileName string) (g *Grid, err error) {
	var (
		rEdge, zEdge []float64
	)
	if err = d.Validate(); err != nil {
		return
	}
	if rEdge, zEdge, err = ReadGridFile(fileName, d.NRTot, d.NZTot); err != nil {
		return
	}
	return NewGridFromEdges(d, rEdge, zEdge)
}

// NewGridFromEdges builds a grid from edge arrays already in memory. Each
// edge array must hold the axis cell count plus the five padding edges. The
// grid keeps its own copies.
func NewGridFromEdges(d Decomposition, rEdge, zEdge []float64) (*Grid, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if len(rEdge) != d.NRTot+edgePad || len(zEdge) != d.NZTot+edgePad {
		return nil, fmt.Errorf("%w: have %d radial and %d vertical edges, need %d and %d",
			types.ErrDecode, len(rEdge), len(zEdge), d.NRTot+edgePad, d.NZTot+edgePad)
	}
	g := &Grid{
		Decomposition: d,
		REdge:         append([]float64{}, rEdge...),
		ZEdge:         append([]float64{}, zEdge...),
		R:             cellCenters(rEdge),
		Z:             cellCenters(zEdge),
		DR:            cellWidths(rEdge),
		DZ:            cellWidths(zEdge),
	}
	g.R2D, g.Z2D = g.twoD(g.R, g.Z)
	g.DR2D, g.DZ2D = g.twoD(g.DR, g.DZ)
	return g, nil
}

// ReadGridFile decodes the little endian float64 edge coordinates: nr+5
// radial edges immediately followed by nz+5 vertical edges.
func ReadGridFile(fileName string, nr, nz int) (rEdge, zEdge []float64, err error) {
	var (
		raw    []byte
		nR, nZ = nr + edgePad, nz + edgePad
		need   = 8 * (nR + nZ)
	)
	if raw, err = os.ReadFile(fileName); err != nil {
		err = fmt.Errorf("%w: unable to read grid file %s: %w", types.ErrIO, fileName, err)
		return
	}
	if len(raw) < need {
		err = fmt.Errorf("%w: grid file %s has %d bytes, %d x %d grid needs %d",
			types.ErrDecode, fileName, len(raw), nr, nz, need)
		return
	}
	edges := make([]float64, nR+nZ)
	if err = binary.Read(bytes.NewReader(raw[:need]), binary.LittleEndian, edges); err != nil {
		err = fmt.Errorf("%w: grid file %s: %w", types.ErrDecode, fileName, err)
		return
	}
	rEdge, zEdge = edges[:nR], edges[nR:]
	return
}

func (g *Grid) Shape() (nr, nz int) { return g.NRTot, g.NZTot }

// Extent returns the first and last cell center along each axis.
func (g *Grid) Extent() (rMin, rMax, zMin, zMax float64) {
	return g.R[0], g.R[len(g.R)-1], g.Z[0], g.Z[len(g.Z)-1]
}

func (g *Grid) twoD(r, z []float64) (r2D, z2D *mat.Dense) {
	r2D = mat.NewDense(g.NRTot, g.NZTot, nil)
	z2D = mat.NewDense(g.NRTot, g.NZTot, nil)
	for i := 0; i < g.NRTot; i++ {
		for j := 0; j < g.NZTot; j++ {
			r2D.Set(i, j, r[i])
			z2D.Set(i, j, z[j])
		}
	}
	return
}

// Broadcast returns the outer product z ⊗ r, shaped len(z) x len(r), or nil
// if either is empty.
func Broadcast(r, z []float64) *mat.Dense {
	if len(r) == 0 || len(z) == 0 {
		return nil
	}
	var m mat.Dense
	m.Outer(1, mat.NewVecDense(len(z), z), mat.NewVecDense(len(r), r))
	return &m
}

func cellCenters(edge []float64) (c []float64) {
	sum := make([]float64, len(edge))
	floats.AddTo(sum, rollLeft(edge), edge)
	c = trimPad(sum)
	floats.Scale(0.5, c)
	return
}

func cellWidths(edge []float64) []float64 {
	diff := make([]float64, len(edge))
	floats.SubTo(diff, rollLeft(edge), edge)
	return trimPad(diff)
}

// rollLeft shifts x one place toward the front, wrapping the first element
// to the back. The wrapped entry lands in the trimmed padding.
func rollLeft(x []float64) (s []float64) {
	s = make([]float64, len(x))
	copy(s, x[1:])
	s[len(x)-1] = x[0]
	return
}

func trimPad(x []float64) (t []float64) {
	t = make([]float64, len(x)-edgePad)
	copy(t, x[padLow:len(x)-padHigh])
	return
}
