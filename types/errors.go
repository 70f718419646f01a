package types

import "errors"

// Error classes shared by the grid, schema and snapshot readers. Callers test
// with errors.Is; the concrete cause is wrapped alongside the class.
var (
	// ErrConfig marks a malformed run description: mismatched schema lists,
	// unknown type codes or a decomposition that does not tile the grid.
	ErrConfig = errors.New("configuration error")
	// ErrIO marks a file that is missing or cannot be read.
	ErrIO = errors.New("io error")
	// ErrDecode marks a file whose bytes do not match the layout implied by
	// the grid and schema.
	ErrDecode = errors.New("decode error")
)
