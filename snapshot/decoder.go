package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/simread/geometry2D"
	"github.com/notargets/simread/types"
)

// CompressedSuffix marks snapshot files stored zstd compressed
const CompressedSuffix = ".zst"

// Decoder turns snapshot records into SimData. It holds no per-file state
// and may be shared by concurrent callers.
type Decoder struct {
	schema *Schema
	grid   *geometry2D.Grid
}

func NewDecoder(s *Schema, g *geometry2D.Grid) (*Decoder, error) {
	if s == nil || g == nil {
		return nil, fmt.Errorf("%w: decoder needs both a schema and a grid", types.ErrConfig)
	}
	if s.Decomposition != g.Decomposition {
		return nil, fmt.Errorf("%w: schema decomposition %+v does not match grid %+v",
			types.ErrConfig, s.Decomposition, g.Decomposition)
	}
	return &Decoder{schema: s, grid: g}, nil
}

func (d *Decoder) Schema() *Schema         { return d.schema }
func (d *Decoder) Grid() *geometry2D.Grid { return d.grid }

// ReadFile decodes one snapshot file. Files ending in CompressedSuffix are
// decompressed in memory first.
func (d *Decoder) ReadFile(fileName string) (sd *SimData, err error) {
	if strings.HasSuffix(fileName, CompressedSuffix) {
		var raw []byte
		if raw, err = readCompressed(fileName, d.schema.RecordSize+1); err != nil {
			return
		}
		sd, err = d.Decode(bytes.NewReader(raw), int64(len(raw)))
	} else {
		var (
			file *os.File
			info os.FileInfo
		)
		if file, err = os.Open(fileName); err != nil {
			return nil, fmt.Errorf("%w: unable to open snapshot %s: %w", types.ErrIO, fileName, err)
		}
		defer file.Close()
		if info, err = file.Stat(); err != nil {
			return nil, fmt.Errorf("%w: unable to stat snapshot %s: %w", types.ErrIO, fileName, err)
		}
		sd, err = d.Decode(file, info.Size())
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", fileName, err)
	}
	sd.Path = fileName
	return
}

// readCompressed decompresses at most limit bytes of fileName. One byte past
// the record is enough to see that a record has trailing bytes.
func readCompressed(fileName string, limit int64) (raw []byte, err error) {
	var (
		file *os.File
		zr   *zstd.Decoder
	)
	if file, err = os.Open(fileName); err != nil {
		return nil, fmt.Errorf("%w: unable to open snapshot %s: %w", types.ErrIO, fileName, err)
	}
	defer file.Close()
	if zr, err = zstd.NewReader(file, zstd.WithDecoderConcurrency(1)); err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %w", types.ErrDecode, fileName, err)
	}
	defer zr.Close()
	if raw, err = io.ReadAll(io.LimitReader(zr, limit)); err != nil {
		return nil, fmt.Errorf("%w: decompressing snapshot %s: %w", types.ErrDecode, fileName, err)
	}
	return
}

// Decode reads every kept field of a record of the given size. Each field is
// read at its absolute offset, so r is never read sequentially.
func (d *Decoder) Decode(r io.ReaderAt, size int64) (*SimData, error) {
	s := d.schema
	if size > s.RecordSize {
		logger.Debug("snapshot has trailing bytes",
			"size", size, "record", s.RecordSize)
	}
	sd := newSimData(d.grid, len(s.Kept))
	for _, f := range s.Kept {
		if f.Offset+f.Length > size {
			return nil, fmt.Errorf("%w: truncated record, field %q needs bytes [%d, %d) of %d",
				types.ErrDecode, f.Name, f.Offset, f.Offset+f.Length, size)
		}
		raw := make([]byte, f.Length)
		if n, err := r.ReadAt(raw, f.Offset); n < len(raw) {
			return nil, fmt.Errorf("%w: field %q read %d of %d bytes: %w",
				types.ErrDecode, f.Name, n, len(raw), err)
		}
		vals, err := f.Type.unpack(raw, f.Count)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if !f.IsArray {
			sd.Metadata[f.Name] = vals[0]
			continue
		}
		var G *mat.Dense
		if G, err = s.reassemble(vals); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if rows, cols := G.Dims(); rows != d.grid.NRTot || cols != d.grid.NZTot {
			return nil, fmt.Errorf("%w: field %q decoded to %d x %d, grid is %d x %d",
				types.ErrDecode, f.Name, rows, cols, d.grid.NRTot, d.grid.NZTot)
		}
		sd.Data[f.Name] = G
	}
	logger.Debug("decoded snapshot", "fields", len(sd.Data), "scalars", len(sd.Metadata))
	return sd, nil
}
