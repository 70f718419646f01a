package snapshot

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/simread/geometry2D"
	"github.com/notargets/simread/types"
)

// blockLayer returns the radial and vertical sub-domain of block l. The
// radial layer varies fastest.
func (s *Schema) blockLayer(l int) (li, lj int) {
	return l % s.NLayersR, l / s.NLayersR
}

// reassemble places the interior of every stored block into one global
// NRTot x NZTot array. vals holds the blocks back to back, each stored as
// BlockRows (vertical) by BlockCols (radial), row major.
func (s *Schema) reassemble(vals []float64) (G *mat.Dense, err error) {
	var (
		nr, nz   = s.BlockShape()
		m        = geometry2D.BlockMargin
		blockLen = s.BlockRows * s.BlockCols
	)
	if len(vals) != s.NBlocks()*blockLen {
		err = fmt.Errorf("%w: %d values do not fill %d blocks of %d x %d",
			types.ErrDecode, len(vals), s.NBlocks(), s.BlockRows, s.BlockCols)
		return
	}
	G = mat.NewDense(s.NRTot, s.NZTot, nil)
	var (
		gm     = G.RawMatrix()
		gD     = gm.Data
		stride = gm.Stride
	)
	for l := 0; l < s.NBlocks(); l++ {
		li, lj := s.blockLayer(l)
		block := vals[l*blockLen : (l+1)*blockLen]
		for j := 0; j < nz; j++ {
			start := (j+m)*s.BlockCols + m
			row := block[start : start+nr]
			// Transpose: the block row runs along r, the global row along z
			gj := lj*nz + j
			for i, v := range row {
				gD[(li*nr+i)*stride+gj] = v
			}
		}
	}
	return
}
