package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/notargets/simread/types"
)

// ElementType is the one character code the simulation uses to describe a
// stored value.
type ElementType byte

const (
	Float64 ElementType = 'd'
	Float32 ElementType = 'f'
	Int32   ElementType = 'i'
	Long32  ElementType = 'l' // Same layout as Int32
	Uint8   ElementType = 'c'
	Bool    ElementType = '?'
)

// arraySuffix follows the element code of fields stored as blocks
const arraySuffix = "arr"

var elementSize = map[ElementType]int{
	Float64: 8,
	Float32: 4,
	Int32:   4,
	Long32:  4,
	Uint8:   1,
	Bool:    1,
}

func (e ElementType) Size() int { return elementSize[e] }

func (e ElementType) Valid() bool {
	_, ok := elementSize[e]
	return ok
}

func (e ElementType) String() string {
	switch e {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int32, Long32:
		return "int32"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("ElementType(%q)", byte(e))
}

// ParseTypeCode splits a code like "darr" or "i" into its element type and
// whether the field is stored as blocks.
func ParseTypeCode(code string) (e ElementType, isArray bool, err error) {
	if len(code) == 0 {
		err = fmt.Errorf("%w: empty type code", types.ErrConfig)
		return
	}
	if e = ElementType(code[0]); !e.Valid() {
		err = fmt.Errorf("%w: unrecognized element type %q in type code %q",
			types.ErrConfig, code[0], code)
		return
	}
	switch code[1:] {
	case "":
	case arraySuffix:
		isArray = true
	default:
		err = fmt.Errorf("%w: type code %q has unknown suffix %q, only %q is allowed",
			types.ErrConfig, code, code[1:], arraySuffix)
	}
	return
}

// unpack converts n little endian elements of type e to float64.
func (e ElementType) unpack(raw []byte, n int) (v []float64, err error) {
	if len(raw) != n*e.Size() {
		err = fmt.Errorf("%w: %d bytes cannot hold %d %s values",
			types.ErrDecode, len(raw), n, e)
		return
	}
	v = make([]float64, n)
	le := binary.LittleEndian
	switch e {
	case Float64:
		for k := range v {
			v[k] = math.Float64frombits(le.Uint64(raw[8*k:]))
		}
	case Float32:
		for k := range v {
			v[k] = float64(math.Float32frombits(le.Uint32(raw[4*k:])))
		}
	case Int32, Long32:
		for k := range v {
			v[k] = float64(int32(le.Uint32(raw[4*k:])))
		}
	case Uint8:
		for k := range v {
			v[k] = float64(raw[k])
		}
	case Bool:
		for k := range v {
			if raw[k] != 0 {
				v[k] = 1
			}
		}
	default:
		err = fmt.Errorf("%w: no decoder for %s", types.ErrConfig, e)
	}
	return
}
