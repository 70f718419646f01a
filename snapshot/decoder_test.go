package snapshot

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/simread/geometry2D"
	"github.com/notargets/simread/types"
)

func TestDecodeQuadrantScenario(t *testing.T) {
	dec := newTestDecoder(t, []string{"darr"}, []string{"rho"}, quad)
	raw := encodeRecord(t, dec.Schema(), blockConstant, nil)
	fileName := writeFile(t, snapshotPath(t, t.TempDir(), 0), raw)

	sd, err := dec.ReadFile(fileName)
	require.NoError(t, err)
	assert.Equal(t, fileName, sd.Path)
	assert.Equal(t, -1, sd.Index)
	assert.Empty(t, sd.Metadata)
	rho := sd.Rho()
	require.NotNil(t, rho)
	rows, cols := rho.Dims()
	require.Equal(t, [2]int{8, 8}, [2]int{rows, cols})
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			assert.Equal(t, float64(i/4+2*(j/4)), rho.At(i, j))
		}
	}
}

func TestDecodeDefaultLayout(t *testing.T) {
	d := geometry2D.Decomposition{NRTot: 12, NZTot: 8, NLayersR: 3, NLayersZ: 2}
	dec := newTestDecoder(t, DefaultFormats, DefaultVariables, d)
	scalars := map[string]float64{
		"time": 12.5, "ko": 3, "it": -7, "tau": 0.25, "zdisk": 1e-3,
	}
	// Each variable gets its own offset so a field read from the wrong
	// place shows up
	fieldBase := make(map[string]float64)
	for i, name := range DefaultVariables {
		fieldBase[name] = float64(100 * (i + 1))
	}
	fill := func(name string, l, row, col int) float64 {
		return fieldBase[name] + float64(l)
	}
	raw := encodeRecord(t, dec.Schema(), fill, scalars)
	sd, err := dec.Decode(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	assert.Equal(t, scalars, sd.Metadata)
	require.Len(t, sd.Data, 11)
	nr, nz := d.BlockShape()
	for name, G := range sd.Data {
		rows, cols := G.Dims()
		require.Equal(t, [2]int{12, 8}, [2]int{rows, cols}, name)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				l := (j/nz)*d.NLayersR + i/nr
				assert.Equal(t, fieldBase[name]+float64(l), G.At(i, j), "%s (%d, %d)", name, i, j)
			}
		}
	}
	for _, G := range []interface{ At(int, int) float64 }{
		sd.Rho(), sd.P(), sd.S(), sd.Hr(), sd.Hf(), sd.Hz(), sd.Vr(), sd.Vphi(), sd.Vz(), sd.Psi(),
	} {
		assert.NotNil(t, G)
	}
	assert.Equal(t, fieldBase["w"], sd.Vz().At(0, 0))
}

func TestDecodeClassification(t *testing.T) {
	codes := []string{"d", "darr", "f", "farr", "i", "iarr", "l", "larr", "c", "carr", "?", "?arr"}
	names := make([]string, len(codes))
	scalars := make(map[string]float64)
	for i, code := range codes {
		names[i] = "v_" + code
		scalars[names[i]] = 1
	}
	d := geometry2D.Decomposition{NRTot: 4, NZTot: 6, NLayersR: 2, NLayersZ: 3}
	dec := newTestDecoder(t, codes, names, d)
	raw := encodeRecord(t, dec.Schema(), blockConstant, scalars)
	sd, err := dec.Decode(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	for i, code := range codes {
		_, isArray, _ := ParseTypeCode(code)
		if isArray {
			G := sd.Field(names[i])
			require.NotNil(t, G, code)
			rows, cols := G.Dims()
			assert.Equal(t, [2]int{4, 6}, [2]int{rows, cols}, code)
			_, inMeta := sd.Metadata[names[i]]
			assert.False(t, inMeta, code)
		} else {
			v, ok := sd.Meta(names[i])
			assert.True(t, ok, code)
			assert.Equal(t, 1., v, code)
			assert.Nil(t, sd.Field(names[i]), code)
		}
	}
	// Boolean blocks hold l != 0
	assert.Equal(t, 0., sd.Field("v_?arr").At(0, 0))
	assert.Equal(t, 1., sd.Field("v_?arr").At(3, 5))
}

func TestDecodeSkippedFields(t *testing.T) {
	dec := newTestDecoder(t,
		[]string{"darr", "iarr", "d", "farr"},
		[]string{"rho", "_", "", "bz"}, quad)
	fill := func(name string, l, _, _ int) float64 {
		if name == "bz" {
			return 10 + float64(l)
		}
		return float64(l)
	}
	raw := encodeRecord(t, dec.Schema(), fill, nil)
	sd, err := dec.Decode(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	assert.Equal(t, []string{"bz", "rho"}, sd.Keys())
	assert.Empty(t, sd.Metadata)
	assert.Equal(t, 13., sd.Field("bz").At(7, 7))
	assert.Equal(t, 10., sd.Field("bz").At(0, 0))
}

func TestDecodeTruncated(t *testing.T) {
	dec := newTestDecoder(t, []string{"darr", "d"}, []string{"rho", "time"}, quad)
	raw := encodeRecord(t, dec.Schema(), blockConstant, map[string]float64{"time": 1})
	dir := t.TempDir()
	for _, n := range []int{0, 100, 2048, len(raw) - 1} {
		fileName := writeFile(t, filepath.Join(dir, "short"), raw[:n])
		sd, err := dec.ReadFile(fileName)
		assert.Nil(t, sd, "length %d", n)
		assert.ErrorIs(t, err, types.ErrDecode, "length %d", n)
	}
	{ // Trailing bytes are ignored
		long := append(append([]byte{}, raw...), 1, 2, 3)
		sd, err := dec.Decode(bytes.NewReader(long), int64(len(long)))
		require.NoError(t, err)
		assert.Equal(t, 1., sd.Metadata["time"])
	}
}

func TestDecodeMissingFile(t *testing.T) {
	dec := newTestDecoder(t, []string{"darr"}, []string{"rho"}, quad)
	for _, name := range []string{"0000dat", "0000dat" + CompressedSuffix} {
		sd, err := dec.ReadFile(filepath.Join(t.TempDir(), name))
		assert.Nil(t, sd)
		assert.ErrorIs(t, err, types.ErrIO)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	}
}

func TestDecodeCompressed(t *testing.T) {
	dec := newTestDecoder(t, []string{"darr", "i"}, []string{"rho", "it"}, quad)
	raw := encodeRecord(t, dec.Schema(), blockConstant, map[string]float64{"it": 42})

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	packed := enc.EncodeAll(raw, nil)
	require.NoError(t, enc.Close())

	dir := t.TempDir()
	plain, err := dec.ReadFile(writeFile(t, filepath.Join(dir, "0000dat"), raw))
	require.NoError(t, err)
	zipped, err := dec.ReadFile(writeFile(t, filepath.Join(dir, "0000dat.zst"), packed))
	require.NoError(t, err)
	assert.Equal(t, plain.Metadata, zipped.Metadata)
	assert.Equal(t, plain.Rho().RawMatrix().Data, zipped.Rho().RawMatrix().Data)

	{ // Not zstd at all
		_, err := dec.ReadFile(writeFile(t, filepath.Join(dir, "0001dat.zst"), raw))
		assert.ErrorIs(t, err, types.ErrDecode)
	}
}

func TestDecodeCompressedBounded(t *testing.T) {
	dec := newTestDecoder(t, []string{"darr", "d"}, []string{"rho", "time"}, quad)
	raw := encodeRecord(t, dec.Schema(), blockConstant, map[string]float64{"time": 3})
	// A long run of zeros compresses to almost nothing
	padded := append(append([]byte{}, raw...), make([]byte, 32<<20)...)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	packed := enc.EncodeAll(padded, nil)
	require.NoError(t, enc.Close())
	fileName := writeFile(t, filepath.Join(t.TempDir(), "0000dat.zst"), packed)
	require.Less(t, len(packed), len(raw)+(1<<20))

	got, err := readCompressed(fileName, dec.Schema().RecordSize+1)
	require.NoError(t, err)
	assert.Len(t, got, len(raw)+1)
	assert.Equal(t, raw, got[:len(raw)])

	sd, err := dec.ReadFile(fileName)
	require.NoError(t, err)
	assert.Equal(t, 3., sd.Metadata["time"])
}

func TestNewDecoderMismatch(t *testing.T) {
	s, err := NewSchema([]string{"darr"}, []string{"rho"}, quad)
	require.NoError(t, err)
	other := geometry2D.Decomposition{NRTot: 8, NZTot: 8, NLayersR: 4, NLayersZ: 2}
	_, err = NewDecoder(s, newTestGrid(t, other))
	assert.ErrorIs(t, err, types.ErrConfig)
	_, err = NewDecoder(nil, newTestGrid(t, quad))
	assert.ErrorIs(t, err, types.ErrConfig)
}
