package snapshot

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notargets/simread/geometry2D"
)

// blockValue gives the stored value of field name at (row, col) of block l,
// ghost cells included.
type blockValue func(name string, l, row, col int) float64

func putElement(t *testing.T, buf *bytes.Buffer, e ElementType, v float64) {
	t.Helper()
	var x interface{}
	switch e {
	case Float64:
		x = v
	case Float32:
		x = float32(v)
	case Int32, Long32:
		x = int32(v)
	case Uint8:
		x = uint8(v)
	case Bool:
		x = v != 0
	default:
		t.Fatalf("no encoder for %s", e)
	}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, x))
}

// encodeRecord lays out one snapshot record the way the simulation writes
// it. Skipped fields are filled with 0xff bytes.
func encodeRecord(t *testing.T, s *Schema, arr blockValue, scalars map[string]float64) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	for _, f := range s.Fields {
		require.Equal(t, f.Offset, int64(buf.Len()), "field %q", f.Name)
		switch {
		case f.Skip():
			buf.Write(bytes.Repeat([]byte{0xff}, int(f.Length)))
		case f.IsArray:
			for l := 0; l < s.NBlocks(); l++ {
				for row := 0; row < s.BlockRows; row++ {
					for col := 0; col < s.BlockCols; col++ {
						putElement(t, buf, f.Type, arr(f.Name, l, row, col))
					}
				}
			}
		default:
			putElement(t, buf, f.Type, scalars[f.Name])
		}
	}
	require.Equal(t, s.RecordSize, int64(buf.Len()))
	return buf.Bytes()
}

func writeFile(t *testing.T, fileName string, raw []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(fileName, raw, 0o644))
	return fileName
}

func uniformEdges(n int) (e []float64) {
	e = make([]float64, n)
	for k := range e {
		e[k] = float64(k)
	}
	return
}

func newTestGrid(t *testing.T, d geometry2D.Decomposition) *geometry2D.Grid {
	t.Helper()
	g, err := geometry2D.NewGridFromEdges(d, uniformEdges(d.NRTot+5), uniformEdges(d.NZTot+5))
	require.NoError(t, err)
	return g
}

func newTestDecoder(t *testing.T, typeCodes, names []string, d geometry2D.Decomposition) *Decoder {
	t.Helper()
	s, err := NewSchema(typeCodes, names, d)
	require.NoError(t, err)
	dec, err := NewDecoder(s, newTestGrid(t, d))
	require.NoError(t, err)
	return dec
}

// blockConstant fills every cell of block l, ghosts included, with l.
func blockConstant(_ string, l, _, _ int) float64 { return float64(l) }

// ghostAware stores a code unique to (block, row, col) in the interior and
// -1 in the ghost margin.
func ghostAware(s *Schema) blockValue {
	nr, nz := s.BlockShape()
	m := geometry2D.BlockMargin
	return func(_ string, l, row, col int) float64 {
		if row < m || row >= nz+m || col < m || col >= nr+m {
			return -1
		}
		return cellCode(l, row, col)
	}
}

func cellCode(l, row, col int) float64 {
	return float64(1_000_000*(l+1) + 1000*row + col)
}

func snapshotPath(t *testing.T, dir string, n int) string {
	t.Helper()
	return filepath.Join(dir, FileName(n, "dat", 4))
}
