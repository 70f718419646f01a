package InputParameters

import (
	"fmt"
	"path/filepath"

	"github.com/ghodss/yaml"

	"github.com/notargets/simread/geometry2D"
	"github.com/notargets/simread/snapshot"
	"github.com/notargets/simread/types"
)

// Parameters obtained from the YAML run description. Key names follow the
// simulation's own parameter file.
type SimParameters struct {
	Title     string   `json:"Title"`
	NRTot     int      `json:"nxtot"`          // Radial cell count
	NZTot     int      `json:"nytot"`          // Vertical cell count
	NLayersR  int      `json:"nlayers_radius"` // Radial sub-domains
	NLayersZ  int      `json:"nlayers_angle"`  // Vertical sub-domains
	GridFile  string   `json:"GridFile"`       // Relative to DataDir unless absolute
	DataDir   string   `json:"DataDir"`
	Suffix    string   `json:"Suffix"`
	Digits    int      `json:"Digits"`
	Start     int      `json:"Start"`
	MaxIndex  int      `json:"MaxIndex"` // Inclusive, negative for no limit
	Formats   []string `json:"Formats"`
	Variables []string `json:"Variables"`
}

// NewSimParameters returns the defaults applied before a YAML file is parsed.
func NewSimParameters() *SimParameters {
	return &SimParameters{
		GridFile: "grid",
		DataDir:  ".",
		Suffix:   "dat",
		Digits:   4,
		MaxIndex: -1,
	}
}

// Parse overlays data onto sp, then fills the record layout with the 2D MRI
// default when the file names none.
func (sp *SimParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, sp); err != nil {
		return fmt.Errorf("%w: run parameters: %w", types.ErrConfig, err)
	}
	if len(sp.Formats) == 0 && len(sp.Variables) == 0 {
		sp.Formats = append([]string{}, snapshot.DefaultFormats...)
		sp.Variables = append([]string{}, snapshot.DefaultVariables...)
	}
	return
}

func (sp *SimParameters) Validate() error {
	if err := sp.Decomposition().Validate(); err != nil {
		return err
	}
	if len(sp.Formats) != len(sp.Variables) {
		return fmt.Errorf("%w: %d formats for %d variables",
			types.ErrConfig, len(sp.Formats), len(sp.Variables))
	}
	if sp.Digits <= 0 || sp.Digits > 9 {
		return fmt.Errorf("%w: file index digits must be in [1, 9], have %d",
			types.ErrConfig, sp.Digits)
	}
	if sp.Start < 0 {
		return fmt.Errorf("%w: negative start index %d", types.ErrConfig, sp.Start)
	}
	return nil
}

func (sp *SimParameters) Decomposition() geometry2D.Decomposition {
	return geometry2D.Decomposition{
		NRTot:    sp.NRTot,
		NZTot:    sp.NZTot,
		NLayersR: sp.NLayersR,
		NLayersZ: sp.NLayersZ,
	}
}

func (sp *SimParameters) GridPath() string {
	if filepath.IsAbs(sp.GridFile) {
		return sp.GridFile
	}
	return filepath.Join(sp.DataDir, sp.GridFile)
}

func (sp *SimParameters) ScanOptions() snapshot.ScanOptions {
	return snapshot.ScanOptions{
		Dir:      sp.DataDir,
		Suffix:   sp.Suffix,
		Digits:   sp.Digits,
		Start:    sp.Start,
		MaxIndex: sp.MaxIndex,
	}
}

// NewDecoder builds the grid and schema the parameters describe.
func (sp *SimParameters) NewDecoder() (dec *snapshot.Decoder, err error) {
	var (
		g *geometry2D.Grid
		s *snapshot.Schema
	)
	if err = sp.Validate(); err != nil {
		return
	}
	if g, err = geometry2D.NewGrid(sp.Decomposition(), sp.GridPath()); err != nil {
		return
	}
	if s, err = snapshot.NewSchema(sp.Formats, sp.Variables, sp.Decomposition()); err != nil {
		return
	}
	return snapshot.NewDecoder(s, g)
}

func (sp *SimParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%d x %d]\t\t= Grid (radial x vertical)\n", sp.NRTot, sp.NZTot)
	fmt.Printf("[%d x %d]\t\t\t= Decomposition\n", sp.NLayersR, sp.NLayersZ)
	fmt.Printf("[%s]\t\t= Grid File\n", sp.GridPath())
	fmt.Printf("[%s]\t\t\t= Data Directory\n", sp.DataDir)
	fmt.Printf("[%s]\t\t\t= Snapshot Pattern\n", snapshot.FileName(sp.Start, sp.Suffix, sp.Digits))
	for i, name := range sp.Variables {
		if i >= len(sp.Formats) {
			break
		}
		if name == "" {
			name = "_"
		}
		fmt.Printf("%-8s %s\n", sp.Formats[i], name)
	}
}
