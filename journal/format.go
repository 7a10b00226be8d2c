package journal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// A segment file begins with a fixed-size header:
//
//	magic    [4]byte  "CCJL"
//	version  uint16   little-endian
//	reserved [2]byte
//	journal  [16]byte UUID shared by all segments of the journal
//	first    uint64   little-endian sequence number of the first record
//	checksum uint64   little-endian xxhash64 of the preceding bytes
//
// It is followed by zero or more record frames:
//
//	size     varint   length of the payload
//	seq      varint   sequence number of the record
//	hsum     uint32   little-endian low 32 bits of the xxhash64 of size and seq
//	payload  [size]byte
//	checksum uint64   little-endian xxhash64 of size, seq, hsum and payload
const (
	headerSize    = 40
	formatVersion = 1

	segmentExt = ".seg"

	maxFrameHeaderSize = 2*binary.MaxVarintLen64 + frameHeaderSumSize
	frameHeaderSumSize = 4
	frameChecksumSize  = 8
)

var magic = [4]byte{'C', 'C', 'J', 'L'}

var (
	// errTorn indicates that a frame or header ends before it is complete.
	errTorn = errors.New("incomplete write")

	// errChecksum indicates that a complete frame or header has an invalid
	// checksum.
	errChecksum = errors.New("checksum mismatch")

	// errHeaderChecksum indicates that the size and sequence number of a frame
	// do not match the checksum that follows them.
	errHeaderChecksum = errors.New("frame header checksum mismatch")
)

type header struct {
	Journal uuid.UUID
	First   uint64
}

func appendHeader(b []byte, h header) []byte {
	start := len(b)
	b = append(b, magic[:]...)
	b = binary.LittleEndian.AppendUint16(b, formatVersion)
	b = append(b, 0, 0)
	b = append(b, h.Journal[:]...)
	b = binary.LittleEndian.AppendUint64(b, h.First)
	return binary.LittleEndian.AppendUint64(b, xxhash.Sum64(b[start:]))
}

func readHeader(r io.Reader) (header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return header{}, errTorn
		}
		return header{}, err
	}

	sum := binary.LittleEndian.Uint64(buf[headerSize-8:])
	if xxhash.Sum64(buf[:headerSize-8]) != sum {
		return header{}, errChecksum
	}

	if !bytes.Equal(buf[:4], magic[:]) {
		return header{}, errors.New("not a journal segment")
	}

	if v := binary.LittleEndian.Uint16(buf[4:]); v != formatVersion {
		return header{}, fmt.Errorf("unsupported format version (%d)", v)
	}

	var h header
	copy(h.Journal[:], buf[8:24])
	h.First = binary.LittleEndian.Uint64(buf[24:])

	return h, nil
}

// frameSize returns the encoded size of a frame.
func frameSize(seq uint64, payload []byte) int {
	return protowire.SizeVarint(uint64(len(payload))) +
		protowire.SizeVarint(seq) +
		frameHeaderSumSize +
		len(payload) +
		frameChecksumSize
}

func appendFrame(b []byte, seq uint64, payload []byte) []byte {
	start := len(b)
	b = protowire.AppendVarint(b, uint64(len(payload)))
	b = protowire.AppendVarint(b, seq)
	b = binary.LittleEndian.AppendUint32(b, headerSum(b[start:]))
	b = append(b, payload...)
	return binary.LittleEndian.AppendUint64(b, xxhash.Sum64(b[start:]))
}

// frameReader reads frames sequentially from a segment.
type frameReader struct {
	r      *bufio.Reader
	offset int64 // offset of the next frame within the segment
	limit  int64 // size of the segment

	// failedEnd is the offset at which the most recent complete frame with an
	// invalid checksum ends.
	failedEnd int64
}

func newFrameReader(r io.Reader, offset, limit int64) *frameReader {
	return &frameReader{
		r:      bufio.NewReader(r),
		offset: offset,
		limit:  limit,
	}
}

// Next returns the next frame. It returns [io.EOF] if the reader is positioned
// exactly at the end of the segment.
func (fr *frameReader) Next() (seq uint64, payload []byte, err error) {
	if fr.offset >= fr.limit {
		return 0, nil, io.EOF
	}

	remaining := fr.limit - fr.offset

	peek, err := fr.r.Peek(int(min(remaining, maxFrameHeaderSize)))
	if err != nil && err != io.EOF {
		return 0, nil, err
	}

	size, n := protowire.ConsumeVarint(peek)
	if n < 0 {
		return 0, nil, fr.headerErr(peek, n)
	}

	seq, m := protowire.ConsumeVarint(peek[n:])
	if m < 0 {
		return 0, nil, fr.headerErr(peek, m)
	}

	hsize := int64(n + m + frameHeaderSumSize)
	if int64(len(peek)) < hsize {
		return 0, nil, errTorn
	}

	if headerSum(peek[:n+m]) != binary.LittleEndian.Uint32(peek[n+m:]) {
		return 0, nil, errHeaderChecksum
	}

	// The size is known to be intact, so a frame that extends beyond the end
	// of the segment was never completely written.
	if size > uint64(remaining-hsize) || remaining-hsize-int64(size) < frameChecksumSize {
		return 0, nil, errTorn
	}

	buf := make([]byte, hsize+int64(size)+frameChecksumSize)
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, nil, errTorn
		}
		return 0, nil, err
	}

	end := len(buf) - frameChecksumSize
	if xxhash.Sum64(buf[:end]) != binary.LittleEndian.Uint64(buf[end:]) {
		fr.failedEnd = fr.offset + int64(len(buf))
		return 0, nil, errChecksum
	}

	fr.offset += int64(len(buf))

	return seq, buf[hsize:end], nil
}

func headerSum(b []byte) uint32 {
	return uint32(xxhash.Sum64(b))
}

func (fr *frameReader) headerErr(peek []byte, code int) error {
	// A varint that runs off the end of the segment is a torn write; one that
	// is too long to be valid within the available bytes is corruption.
	if len(peek) < maxFrameHeaderSize {
		return errTorn
	}
	return protowire.ParseError(code)
}

func segmentName(first uint64) string {
	return fmt.Sprintf("%020d%s", first, segmentExt)
}

func parseSegmentName(name string) (uint64, bool) {
	s, ok := strings.CutSuffix(name, segmentExt)
	if !ok || len(s) != 20 {
		return 0, false
	}

	first, err := strconv.ParseUint(s, 10, 64)
	return first, err == nil
}
