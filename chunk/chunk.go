package chunk

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// ErrTooLarge is returned when a caller asks to write a chunk whose data
// exceeds MaxDataLen. Callers that need to frame larger payloads (entry
// FDAT/solid SDAT bodies) must split across several chunks themselves.
var ErrTooLarge = errors.New("chunk: data exceeds maximum chunk length")

// ErrBadType is returned when a chunk's type bytes are not all ASCII
// letters.
var ErrBadType = errors.New("chunk: type is not ASCII alphabetic")

// ErrCRCMismatch is returned when the trailing CRC-32 does not match the
// recomputed checksum of type||data.
var ErrCRCMismatch = errors.New("chunk: CRC-32 mismatch")

var crcTable = crc32.MakeTable(crc32.IEEE)

// Checksum computes the CRC-32/IEEE checksum of a chunk's type concatenated
// with its data, exactly as stored on the wire.
func Checksum(t Type, data []byte) uint32 {
	c := crc32.New(crcTable)
	c.Write(t[:])
	c.Write(data)
	return c.Sum32()
}

// Write frames (t, data) as len_be_u32(data) || t || data || crc32_be_u32
// and writes it to w.
func Write(w io.Writer, t Type, data []byte) error {
	if len(data) > MaxDataLen {
		return errors.Wrapf(ErrTooLarge, "chunk %s: %d bytes", t, len(data))
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "chunk: write length")
	}
	if _, err := w.Write(t[:]); err != nil {
		return errors.Wrap(err, "chunk: write type")
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "chunk: write data")
		}
	}

	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], Checksum(t, data))
	if _, err := w.Write(crcBuf[:]); err != nil {
		return errors.Wrap(err, "chunk: write crc")
	}
	return nil
}

// Read parses one chunk from r: a big-endian u32 length, a 4-byte type, the
// data, and a trailing big-endian u32 CRC. It validates the type is ASCII
// alphabetic and that the CRC matches before returning.
func Read(r io.Reader) (Type, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Type{}, nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxDataLen {
		return Type{}, nil, errors.Wrapf(ErrTooLarge, "%d bytes", length)
	}

	var t Type
	if _, err := io.ReadFull(r, t[:]); err != nil {
		return Type{}, nil, errors.Wrap(err, "chunk: read type")
	}
	for _, b := range t {
		if !isASCIILetter(b) {
			return Type{}, nil, errors.Wrapf(ErrBadType, "%q", t[:])
		}
	}

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return Type{}, nil, errors.Wrap(err, "chunk: read data")
		}
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return Type{}, nil, errors.Wrap(err, "chunk: read crc")
	}
	stored := binary.BigEndian.Uint32(crcBuf[:])
	if got := Checksum(t, data); got != stored {
		return Type{}, nil, errors.Wrapf(ErrCRCMismatch, "chunk %s: stored %08x, computed %08x", t, stored, got)
	}

	return t, data, nil
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
