package journal

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
)

// lockFile is the name of the file used to hold exclusive ownership of a
// journal directory.
const lockFile = "LOCK"

// segment is a single file containing a contiguous run of records.
type segment struct {
	Path  string
	First uint64

	// Offsets holds the offset of each durable record in the segment, such
	// that the record with sequence number First+i is at Offsets[i]. It is
	// guarded by Journal.index, and only modified by the committer.
	Offsets []int64

	// Size and File are only used for the active segment, and only by the
	// committer.
	Size int64
	File *os.File
}

// end returns the sequence number after the last durable record in the
// segment. The caller must hold Journal.index, unless it is the committer.
func (s *segment) end() uint64 {
	return s.First + uint64(len(s.Offsets))
}

// createSegment creates a new, empty segment file that begins with the record
// at the given sequence number.
//
// The header, and the directory entry, are durable before it returns.
func createSegment(
	dir string,
	h header,
	sync func(*os.File) error,
) (_ *segment, err error) {
	path := filepath.Join(dir, segmentName(h.First))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			err = errors.Join(
				err,
				f.Close(),
				os.Remove(path),
			)
		}
	}()

	if _, err := f.WriteAt(appendHeader(nil, h), 0); err != nil {
		return nil, err
	}

	if err := sync(f); err != nil {
		return nil, err
	}

	if err := syncDir(dir, sync); err != nil {
		return nil, err
	}

	return &segment{
		Path:  path,
		First: h.First,
		Size:  headerSize,
		File:  f,
	}, nil
}

// syncDir makes changes to the directory entries of dir durable.
func syncDir(dir string, sync func(*os.File) error) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}

	return errors.Join(
		sync(d),
		d.Close(),
	)
}

// findSegment returns the index of the segment that contains the record with
// the given sequence number. The caller must hold Journal.index.
func findSegment(segments []*segment, seq uint64) int {
	return sort.Search(
		len(segments),
		func(i int) bool {
			return segments[i].First > seq
		},
	) - 1
}
