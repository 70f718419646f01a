package snapshot

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/simread/geometry2D"
)

// Names of the fluid variables written by the 2D MRI runs
const (
	VarRho  = "rho"
	VarP    = "p"
	VarS    = "s"
	VarHr   = "hr"
	VarHf   = "hf"
	VarHz   = "hz"
	VarVr   = "u"
	VarVphi = "v"
	VarVz   = "w"
	VarPsi  = "psi"
)

// Default record layout of the 2D MRI runs, in file order
var (
	DefaultVariables = []string{
		VarRho, VarP, VarS,
		VarHr, VarHf, VarHz,
		VarVr, VarVphi, VarVz,
		VarPsi, "rhoadd",
		"time", "ko", "it", "tau", "zdisk",
	}
	DefaultFormats = []string{
		"darr", "darr", "darr",
		"darr", "darr", "darr",
		"darr", "darr", "darr",
		"darr", "darr",
		"d", "i", "i", "d", "d",
	}
)

// SimData is one decoded snapshot. Arrays are NRTot x NZTot, indexed
// (radial, vertical). It is built fresh per file and not modified afterwards.
type SimData struct {
	Grid     *geometry2D.Grid
	Data     map[string]*mat.Dense
	Metadata map[string]float64
	Index    int // Sequence number, -1 when not read through a Scanner
	Path     string
}

func newSimData(g *geometry2D.Grid, n int) *SimData {
	return &SimData{
		Grid:     g,
		Data:     make(map[string]*mat.Dense, n),
		Metadata: make(map[string]float64),
		Index:    -1,
	}
}

// Field returns the named array, or nil if the snapshot has none.
func (sd *SimData) Field(name string) *mat.Dense { return sd.Data[name] }

func (sd *SimData) Rho() *mat.Dense  { return sd.Data[VarRho] }
func (sd *SimData) P() *mat.Dense    { return sd.Data[VarP] }
func (sd *SimData) S() *mat.Dense    { return sd.Data[VarS] }
func (sd *SimData) Hr() *mat.Dense   { return sd.Data[VarHr] }
func (sd *SimData) Hf() *mat.Dense   { return sd.Data[VarHf] }
func (sd *SimData) Hz() *mat.Dense   { return sd.Data[VarHz] }
func (sd *SimData) Vr() *mat.Dense   { return sd.Data[VarVr] }
func (sd *SimData) Vphi() *mat.Dense { return sd.Data[VarVphi] }
func (sd *SimData) Vz() *mat.Dense   { return sd.Data[VarVz] }
func (sd *SimData) Psi() *mat.Dense  { return sd.Data[VarPsi] }

// Temperature returns p / rho, or nil unless both were decoded.
func (sd *SimData) Temperature() *mat.Dense {
	p, rho := sd.P(), sd.Rho()
	if p == nil || rho == nil {
		return nil
	}
	var T mat.Dense
	T.DivElem(p, rho)
	return &T
}

// Meta returns a decoded scalar.
func (sd *SimData) Meta(name string) (v float64, ok bool) {
	v, ok = sd.Metadata[name]
	return
}

// Keys lists the array names followed by the scalar names, each sorted.
func (sd *SimData) Keys() (keys []string) {
	keys = make([]string, 0, len(sd.Data)+len(sd.Metadata))
	for k := range sd.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	n := len(keys)
	for k := range sd.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys[n:])
	return
}
