package pna

import (
	"encoding/binary"
	"io"

	"github.com/bpfs/pna/chunk"
	"github.com/bpfs/pna/entry"
	"github.com/bpfs/pna/internal/logging"
	"github.com/pkg/errors"
)

// archiveMajor/archiveMinor are the archive-framing format version this
// module writes into every AHED chunk.
const (
	archiveMajor uint8 = 0
	archiveMinor uint8 = 0
)

func encodeAHED(part uint32) []byte {
	buf := make([]byte, 6)
	buf[0] = archiveMajor
	buf[1] = archiveMinor
	binary.BigEndian.PutUint32(buf[2:], part)
	return buf
}

func decodeAHED(data []byte) (major, minor uint8, part uint32, err error) {
	if len(data) != 6 {
		return 0, 0, 0, errors.New("pna: malformed AHED payload")
	}
	return data[0], data[1], binary.BigEndian.Uint32(data[2:]), nil
}

// Writer builds one archive part: PNA_MAGIC, AHED, a sequence of
// pre-built entries (and solid entries), and finally either ANXT+AEND
// (non-final part) or just AEND (final part).
//
// A Writer is single-threaded per instance (§5): callers may build many
// entries concurrently on their own, but must feed AddEntry calls to one
// Writer in the order those entries should appear.
type Writer struct {
	w         io.Writer
	part      uint32
	size      int64
	finalized bool
}

// NewWriter opens part 1 of a new archive, writing the magic and the
// first AHED chunk immediately.
func NewWriter(w io.Writer) (*Writer, error) {
	aw := &Writer{w: w, part: 1}
	n, err := w.Write(Magic[:])
	aw.size += int64(n)
	if err != nil {
		return nil, errors.Wrap(err, "pna: write magic")
	}
	if err := aw.writeChunk(chunk.TypeAHED, encodeAHED(1)); err != nil {
		return nil, err
	}
	return aw, nil
}

func (aw *Writer) writeChunk(t chunk.Type, data []byte) error {
	var buf countingWriter
	buf.w = aw.w
	if err := chunk.Write(&buf, t, data); err != nil {
		return err
	}
	aw.size += buf.n
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// AddEntry appends a pre-built entry or solid entry -- the finalized byte
// vector an entry.Writer or SolidWriter produced -- to the current part.
// Entries are written verbatim; the writer does no parsing of them.
func (aw *Writer) AddEntry(data []byte) error {
	n, err := aw.w.Write(data)
	aw.size += int64(n)
	if err != nil {
		return errors.Wrap(err, "pna: write entry")
	}
	return nil
}

// Size reports the number of bytes written to the current part so far,
// for callers deciding when to call SplitTo.
func (aw *Writer) Size() int64 { return aw.size }

// SplitTo closes the current part with ANXT (marking it non-final) then
// AEND, and opens next as part N+1: PNA_MAGIC followed by a fresh AHED.
// Splitting is only valid between entries -- never in the middle of one;
// it is the caller's responsibility to call SplitTo only when no entry
// build is in progress.
func (aw *Writer) SplitTo(next io.Writer) error {
	if err := aw.writeChunk(chunk.TypeANXT, nil); err != nil {
		return err
	}
	if err := aw.writeChunk(chunk.TypeAEND, nil); err != nil {
		return err
	}

	aw.w = next
	aw.part++
	aw.size = 0
	logging.Infof("archive split: opening part %d", aw.part)
	n, err := next.Write(Magic[:])
	aw.size += int64(n)
	if err != nil {
		return errors.Wrap(err, "pna: write magic for next part")
	}
	return aw.writeChunk(chunk.TypeAHED, encodeAHED(aw.part))
}

// Finalize emits AEND on the current (final) part. It must be the last
// call made to this Writer.
func (aw *Writer) Finalize() error {
	if aw.finalized {
		return errors.New("pna: already finalized")
	}
	aw.finalized = true
	return aw.writeChunk(chunk.TypeAEND, nil)
}

// ItemKind distinguishes the two things an archive body can yield.
type ItemKind int

const (
	ItemEntry ItemKind = iota
	ItemSolid
)

// Item is one element of an archive body: either a plain entry or a
// solid container. Exactly one of Entry/Solid is non-nil, matching Kind.
type Item struct {
	Kind  ItemKind
	Entry *entry.Reader
	Solid *SolidReader
}

// Reader walks one archive part's body: PNA_MAGIC, AHED, then a sequence
// of entries/solid-entries, terminated by AEND (optionally preceded by
// ANXT marking a split continuation).
type Reader struct {
	r    io.Reader
	opt  ReadOption
	part uint32

	// NextArchive is set once ANXT has been observed, signalling the
	// caller should supply the next part's byte source to ReadNextArchive.
	NextArchive bool

	done bool
}

// NewReader verifies PNA_MAGIC and reads the AHED chunk (expected to be
// part 1) from r.
func NewReader(r io.Reader, opt ReadOption) (*Reader, error) {
	ar := &Reader{r: r, opt: opt}
	if err := ar.readHeader(1); err != nil {
		return nil, err
	}
	return ar, nil
}

func (ar *Reader) readHeader(expectPart uint32) error {
	var magic [8]byte
	if _, err := io.ReadFull(ar.r, magic[:]); err != nil {
		return errors.Wrap(err, "pna: read magic")
	}
	if magic != Magic {
		return ErrBadMagic
	}

	t, data, err := chunk.Read(ar.r)
	if err != nil {
		return errors.Wrap(err, "pna: read AHED")
	}
	if t != chunk.TypeAHED {
		return errors.Wrapf(ErrUnexpectedChunk, "expected AHED, got %s", t)
	}
	_, _, part, err := decodeAHED(data)
	if err != nil {
		return err
	}
	if expectPart != 0 && part != expectPart {
		logging.Errorf("split order violation: got part %d, want %d", part, expectPart)
		return errors.Wrapf(ErrSplitOrderViolation, "got part %d, want %d", part, expectPart)
	}
	ar.part = part
	return nil
}

// ReadNextArchive continues reading a split archive's next part from r.
// It must only be called when NextArchive is true, and the part number
// recorded in r's AHED must equal the previous part's number plus one.
func (ar *Reader) ReadNextArchive(r io.Reader) error {
	expect := ar.part + 1
	ar.r = r
	ar.NextArchive = false
	ar.done = false
	return ar.readHeader(expect)
}

// Next returns the next item (entry or solid container) in the archive
// body, or io.EOF once AEND has been consumed. Each returned item has
// already had all of its chunks (through FEND or SEND) read from the
// underlying source, so Next can be called again without first reading
// the previous item's data stream.
func (ar *Reader) Next() (*Item, error) {
	if ar.done {
		return nil, io.EOF
	}

	t, data, err := chunk.Read(ar.r)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(ErrTruncatedArchive, err.Error())
		}
		return nil, errors.Wrap(err, "pna: read chunk")
	}

	switch t {
	case chunk.TypeANXT:
		ar.NextArchive = true
		t, data, err = chunk.Read(ar.r)
		if err != nil {
			return nil, errors.Wrap(err, "pna: read chunk after ANXT")
		}
		if t != chunk.TypeAEND {
			return nil, errors.Wrapf(ErrUnexpectedChunk, "expected AEND after ANXT, got %s", t)
		}
		ar.done = true
		return nil, io.EOF
	case chunk.TypeAEND:
		ar.done = true
		return nil, io.EOF
	case chunk.TypeFHED:
		header, err := entry.DecodeHeader(data)
		if err != nil {
			return nil, err
		}
		er, err := entry.NewReaderFromHeader(header, ar.r, ar.opt)
		if err != nil {
			return nil, err
		}
		return &Item{Kind: ItemEntry, Entry: er}, nil
	case chunk.TypeSHED:
		header, err := entry.DecodeSolidHeader(data)
		if err != nil {
			return nil, err
		}
		sr, err := newSolidReaderFromHeader(header, ar.r, ar.opt)
		if err != nil {
			return nil, err
		}
		return &Item{Kind: ItemSolid, Solid: sr}, nil
	default:
		return nil, errors.Wrapf(ErrUnexpectedChunk, "%s", t)
	}
}
