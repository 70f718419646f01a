package snapshot

import (
	"fmt"

	"github.com/notargets/simread/geometry2D"
	"github.com/notargets/simread/types"
)

// Field is one entry of a snapshot record. Skipped fields keep their place
// in the record but are never decoded.
type Field struct {
	Name    string
	Type    ElementType
	IsArray bool
	Count   int   // Number of elements
	Offset  int64 // Byte offset from the start of the record
	Length  int64 // Count * Type.Size()
}

// Skip reports whether the field occupies space but is excluded from output
func (f Field) Skip() bool { return isSkipName(f.Name) }

func isSkipName(name string) bool { return name == "" || name == "_" }

// Schema is the byte layout of every snapshot record of a run.
type Schema struct {
	geometry2D.Decomposition
	Fields               []Field // Every declared field, in file order
	Kept                 []Field // Fields that are decoded, in file order
	RecordSize           int64
	BlockRows, BlockCols int // Stored shape of one block, ghost margin included
}

// NewSchema resolves the byte offset and length of every field. typeCodes
// and names are parallel lists in file order.
func NewSchema(typeCodes, names []string, d geometry2D.Decomposition) (s *Schema, err error) {
	if len(typeCodes) != len(names) {
		return nil, fmt.Errorf("%w: %d type codes given for %d field names",
			types.ErrConfig, len(typeCodes), len(names))
	}
	if err = d.Validate(); err != nil {
		return nil, err
	}
	s = &Schema{
		Decomposition: d,
		Fields:        make([]Field, 0, len(names)),
	}
	s.BlockRows, s.BlockCols = d.RawBlockShape()
	var (
		offset  int64
		arrayN  = d.NBlocks() * s.BlockRows * s.BlockCols
		seen    = make(map[string]int, len(names))
		e       ElementType
		isArray bool
	)
	for i, code := range typeCodes {
		if e, isArray, err = ParseTypeCode(code); err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i, names[i], err)
		}
		f := Field{
			Name:    names[i],
			Type:    e,
			IsArray: isArray,
			Count:   1,
			Offset:  offset,
		}
		if isArray {
			f.Count = arrayN
		}
		f.Length = int64(f.Count) * int64(e.Size())
		offset += f.Length
		s.Fields = append(s.Fields, f)
		if f.Skip() {
			continue
		}
		if j, ok := seen[f.Name]; ok {
			return nil, fmt.Errorf("%w: field name %q used by fields %d and %d",
				types.ErrConfig, f.Name, j, i)
		}
		seen[f.Name] = i
		s.Kept = append(s.Kept, f)
	}
	s.RecordSize = offset
	return s, nil
}

// Field returns the kept field with the given name.
func (s *Schema) Field(name string) (f Field, ok bool) {
	for _, f = range s.Kept {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names lists the kept field names in file order.
func (s *Schema) Names() (names []string) {
	names = make([]string, len(s.Kept))
	for i, f := range s.Kept {
		names[i] = f.Name
	}
	return
}
