package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/notargets/simread/types"
)

// ScanOptions locates a run's snapshot files: Dir/<Start padded to Digits><Suffix>,
// then Start+1 and so on.
type ScanOptions struct {
	Dir      string
	Suffix   string
	Digits   int
	Start    int
	MaxIndex int // Last index to read, inclusive. Negative means no limit
}

func DefaultScanOptions(dir string) ScanOptions {
	return ScanOptions{
		Dir:      dir,
		Suffix:   "dat",
		Digits:   4,
		MaxIndex: -1,
	}
}

// FileName formats a snapshot index, e.g. FileName(7, "dat", 4) is "0007dat".
func FileName(n int, suffix string, digits int) string {
	return fmt.Sprintf("%0*d%s", digits, n, suffix)
}

// FileIndex recovers the sequence index from the leading digits of a
// snapshot file name, or -1 when the name does not start with one.
func FileIndex(fileName string) int {
	base := filepath.Base(fileName)
	end := 0
	for end < len(base) && end < 18 && base[end] >= '0' && base[end] <= '9' {
		end++
	}
	if end == 0 {
		return -1
	}
	n, err := strconv.Atoi(base[:end])
	if err != nil {
		return -1
	}
	return n
}

// Scanner decodes a run's snapshots one at a time, in index order. It stops
// at the first missing index, past MaxIndex, or at the largest index the
// digit width can express. A file that fails to decode ends the scan and is
// reported by Err.
type Scanner struct {
	dec  *Decoder
	opts ScanOptions
	next int
	snap *SimData
	err  error
}

func NewScanner(dec *Decoder, opts ScanOptions) *Scanner {
	if opts.Digits <= 0 {
		opts.Digits = 4
	}
	return &Scanner{dec: dec, opts: opts, next: opts.Start}
}

// Reset rewinds the scanner to ScanOptions.Start.
func (s *Scanner) Reset() {
	s.next, s.snap, s.err = s.opts.Start, nil, nil
}

// Scan decodes the next snapshot, returning false when the sequence ends or
// a decode fails.
func (s *Scanner) Scan() bool {
	s.snap = nil
	if s.err != nil || !s.inRange(s.next) {
		return false
	}
	fileName := s.path(s.next)
	var ok bool
	if ok, s.err = isFile(fileName); !ok {
		if s.err == nil {
			logger.Debug("end of snapshot sequence", "missing", fileName)
		}
		return false
	}
	sd, err := s.dec.ReadFile(fileName)
	if err != nil {
		s.err = fmt.Errorf("snapshot index %d: %w", s.next, err)
		return false
	}
	sd.Index = s.next
	s.snap = sd
	s.next++
	return true
}

// Snapshot returns the snapshot decoded by the last successful Scan.
func (s *Scanner) Snapshot() *SimData { return s.snap }

func (s *Scanner) Err() error { return s.err }

// Paths lists the files Scan would visit from Start, without decoding them.
func (s *Scanner) Paths() (paths []string, err error) {
	var ok bool
	for n := s.opts.Start; s.inRange(n); n++ {
		fileName := s.path(n)
		if ok, err = isFile(fileName); !ok {
			return
		}
		paths = append(paths, fileName)
	}
	return
}

func (s *Scanner) path(n int) string {
	return filepath.Join(s.opts.Dir, FileName(n, s.opts.Suffix, s.opts.Digits))
}

func (s *Scanner) inRange(n int) bool {
	if s.opts.MaxIndex >= 0 && n > s.opts.MaxIndex {
		return false
	}
	if s.opts.Digits < 10 && float64(n) > math.Pow10(s.opts.Digits)-1 {
		return false
	}
	return true
}

// isFile is false with a nil error when the name does not exist or is a
// directory; any other stat failure is an IO error.
func isFile(fileName string) (bool, error) {
	info, err := os.Stat(fileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	return info.Mode().IsRegular(), nil
}
