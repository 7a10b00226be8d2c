package journal

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/dogmatiq/crowdcontrol/internal/test"
	"github.com/google/uuid"
)

func TestFrameReader(t *testing.T) {
	t.Parallel()

	var data []byte
	data = appendFrame(data, 0, []byte("<record-0>"))
	data = appendFrame(data, 1, []byte("<record-1>"))
	data = appendFrame(data, 2, nil)

	t.Run("it reads each frame in order", func(t *testing.T) {
		t.Parallel()

		fr := newFrameReader(bytes.NewReader(data), 0, int64(len(data)))

		for i, want := range []string{"<record-0>", "<record-1>", ""} {
			seq, payload, err := fr.Next()
			if err != nil {
				t.Fatal(err)
			}

			test.Expect(t, "unexpected sequence number", seq, uint64(i))
			test.Expect(t, "unexpected payload", string(payload), want)
		}

		if _, _, err := fr.Next(); err != io.EOF {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	})

	t.Run("it reports an incomplete frame as torn", func(t *testing.T) {
		t.Parallel()

		for n := 1; n < frameSize(0, []byte("<record-0>")); n++ {
			fr := newFrameReader(bytes.NewReader(data[:n]), 0, int64(n))

			if _, _, err := fr.Next(); !errors.Is(err, errTorn) {
				t.Fatalf("expected errTorn after %d bytes, got %v", n, err)
			}
		}
	})

	t.Run("it reports a corrupt size as a header checksum failure", func(t *testing.T) {
		t.Parallel()

		corrupt := bytes.Clone(data)
		corrupt[0] = 0x7f

		fr := newFrameReader(bytes.NewReader(corrupt), 0, int64(len(corrupt)))

		if _, _, err := fr.Next(); !errors.Is(err, errHeaderChecksum) {
			t.Fatalf("expected errHeaderChecksum, got %v", err)
		}
	})

	t.Run("it reports an intact size that extends beyond the data as torn", func(t *testing.T) {
		t.Parallel()

		frame := appendFrame(nil, 0, make([]byte, 100))
		n := len(frame) - 50

		fr := newFrameReader(bytes.NewReader(frame[:n]), 0, int64(n))

		if _, _, err := fr.Next(); !errors.Is(err, errTorn) {
			t.Fatalf("expected errTorn, got %v", err)
		}
	})

	t.Run("it reports a complete frame with an invalid checksum", func(t *testing.T) {
		t.Parallel()

		corrupt := bytes.Clone(data)
		corrupt[8] ^= 0xff

		fr := newFrameReader(bytes.NewReader(corrupt), 0, int64(len(corrupt)))

		if _, _, err := fr.Next(); !errors.Is(err, errChecksum) {
			t.Fatalf("expected errChecksum, got %v", err)
		}

		test.Expect(
			t,
			"unexpected failure offset",
			fr.failedEnd,
			int64(frameSize(0, []byte("<record-0>"))),
		)
	})
}

func TestHeader(t *testing.T) {
	t.Parallel()

	t.Run("it round-trips the journal identity and first sequence number", func(t *testing.T) {
		t.Parallel()

		want := header{uuid.New(), 123}
		data := appendHeader(nil, want)

		test.Expect(t, "unexpected header size", len(data), headerSize)

		got, err := readHeader(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}

		test.Expect(t, "unexpected header", got, want)
	})

	t.Run("it reports an incomplete header as torn", func(t *testing.T) {
		t.Parallel()

		data := appendHeader(nil, header{uuid.New(), 0})

		if _, err := readHeader(bytes.NewReader(data[:10])); !errors.Is(err, errTorn) {
			t.Fatalf("expected errTorn, got %v", err)
		}
	})
}

func TestSegmentName(t *testing.T) {
	t.Parallel()

	name := segmentName(42)
	test.Expect(t, "unexpected segment name", name, "00000000000000000042.seg")

	first, ok := parseSegmentName(name)
	if !ok {
		t.Fatal("expected name to parse")
	}
	test.Expect(t, "unexpected first sequence number", first, uint64(42))

	if _, ok := parseSegmentName("LOCK"); ok {
		t.Fatal("did not expect a non-segment name to parse")
	}
}
