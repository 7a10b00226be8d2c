package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dogmatiq/crowdcontrol/internal/filelock"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// scan is the persistent state of a journal, as found by scanning its segment
// files.
type scan struct {
	Journal  uuid.UUID
	Segments []*segment

	// End is the sequence number after the last valid record.
	End uint64

	// TornBytes is the number of bytes of incomplete writes found at the end
	// of the final segment.
	TornBytes int64
}

// scanDir scans the segments in dir.
//
// If repair is true, incomplete writes at the end of the final segment are
// discarded from disk; otherwise the files are not modified.
func scanDir(
	ctx context.Context,
	dir string,
	repair bool,
	sync func(*os.File) error,
) (*scan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var firsts []uint64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if first, ok := parseSegmentName(e.Name()); ok {
			firsts = append(firsts, first)
		}
	}

	slices.Sort(firsts)

	s := &scan{}

	for i, first := range firsts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		last := i == len(firsts)-1
		path := filepath.Join(dir, segmentName(first))

		if err := s.scanSegment(path, first, last, repair, sync); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *scan) scanSegment(
	path string,
	first uint64,
	last, repair bool,
	sync func(*os.File) error,
) error {
	flag := os.O_RDONLY
	if last && repair {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	h, err := readHeader(f)
	if err != nil {
		torn := errors.Is(err, errTorn) || errors.Is(err, errChecksum)
		if torn && last && size <= headerSize {
			// The segment was being created when the journal stopped. Its
			// header is never synced after records are written, so it holds
			// nothing of value.
			s.TornBytes += size
			if !repair {
				return nil
			}
			return errors.Join(
				f.Close(),
				os.Remove(path),
				syncDir(filepath.Dir(path), sync),
			)
		}
		return s.corruption(path, 0, "invalid segment header", err)
	}

	switch {
	case len(s.Segments) == 0 && h.First != 0:
		return s.corruption(path, 0, "first segment does not begin at the origin", nil)
	case len(s.Segments) == 0:
		s.Journal = h.Journal
	case h.Journal != s.Journal:
		return s.corruption(path, 0, "segment belongs to a different journal", nil)
	}

	if h.First != first {
		return s.corruption(path, 0, "segment header does not match its file name", nil)
	}

	if h.First != s.End {
		return s.corruption(
			path,
			0,
			fmt.Sprintf("segment begins at record %d, expected record %d", h.First, s.End),
			nil,
		)
	}

	seg := &segment{
		Path:  path,
		First: first,
		Size:  headerSize,
	}

	fr := newFrameReader(f, headerSize, size)

	for {
		offset := fr.offset

		seq, _, err := fr.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			if !isFormatError(err) {
				return err
			}

			if last {
				torn, terr := isTornTail(f, fr, offset, size, err)
				if terr != nil {
					return terr
				}

				if torn {
					s.TornBytes += size - offset
					if repair {
						if err := f.Truncate(offset); err != nil {
							return err
						}
						if err := sync(f); err != nil {
							return err
						}
					}
					break
				}
			}

			return s.corruption(path, offset, "invalid record", err)
		}

		if seq != s.End {
			return s.corruption(
				path,
				offset,
				fmt.Sprintf("found record %d, expected record %d", seq, s.End),
				nil,
			)
		}

		seg.Offsets = append(seg.Offsets, offset)
		seg.Size = fr.offset
		s.End++
	}

	s.Segments = append(s.Segments, seg)

	return nil
}

func (s *scan) corruption(path string, offset int64, reason string, cause error) error {
	if cause != nil {
		reason += ": " + cause.Error()
	}

	return &CorruptionError{
		Segment: filepath.Base(path),
		Offset:  offset,
		Reason:  reason,
	}
}

// isTornTail returns true if the invalid frame at the given offset is the
// result of an incomplete write, rather than corruption of data that was once
// durable.
func isTornTail(
	f *os.File,
	fr *frameReader,
	offset, size int64,
	err error,
) (bool, error) {
	if errors.Is(err, errTorn) {
		return true, nil
	}

	if errors.Is(err, errChecksum) && fr.failedEnd == size {
		return true, nil
	}

	// Some file systems extend the file before the data itself is written,
	// leaving a run of zeroes at the end.
	return isZero(f, offset, size)
}

func isZero(f *os.File, offset, size int64) (bool, error) {
	buf := make([]byte, 32*1024)

	for offset < size {
		n, err := f.ReadAt(buf[:min(int64(len(buf)), size-offset)], offset)
		for _, b := range buf[:n] {
			if b != 0 {
				return false, nil
			}
		}

		offset += int64(n)

		if err == io.EOF {
			break
		} else if err != nil {
			return false, err
		}
	}

	return true, nil
}

func isFormatError(err error) bool {
	if errors.Is(err, errTorn) || errors.Is(err, errChecksum) || errors.Is(err, errHeaderChecksum) {
		return true
	}

	// Any other error that is not from the file system itself describes a
	// malformed header or frame.
	var pathErr *os.PathError
	return !errors.As(err, &pathErr)
}

// Summary describes the persistent state of a journal.
type Summary struct {
	// Segments is the number of segment files.
	Segments int

	// Records is the number of valid records.
	Records uint64

	// TornBytes is the number of bytes at the end of the journal that belong
	// to incomplete writes, and would be discarded when the journal is next
	// opened.
	TornBytes int64
}

// Verify checks the integrity of the journal in dir without modifying it.
//
// It returns a [*CorruptionError] if the journal can not be recovered. It
// holds the journal's lock while scanning, so it fails with
// [filelock.ErrLocked] if the journal is open.
func Verify(ctx context.Context, dir string) (_ Summary, err error) {
	lock, err := filelock.Acquire(filepath.Join(dir, lockFile))
	if err != nil {
		return Summary{}, fmt.Errorf("unable to acquire exclusive access to %s: %w", dir, err)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	s, err := scanDir(ctx, dir, false, (*os.File).Sync)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Segments:  len(s.Segments),
		Records:   s.End,
		TornBytes: s.TornBytes,
	}, nil
}
