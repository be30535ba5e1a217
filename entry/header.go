// Package entry implements one archive entry: its FHED/SHED header, its
// metadata chunks, and the writer/reader that turn a byte stream plus
// options into a framed, compressed, optionally encrypted chunk sequence --
// and back. The write path generalizes bpfs-defs/formats.go's
// WriteChunk(compress-then-encrypt-then-frame) to a 3-stage streaming
// pipeline instead of one-shot []byte transforms.
package entry

import (
	"github.com/bpfs/pna/cipher"
	"github.com/bpfs/pna/compress"
	"github.com/pkg/errors"
)

// DataKind identifies what an entry represents. Values match the FHED wire
// encoding.
type DataKind uint8

const (
	File DataKind = iota
	Directory
	SymbolicLink
	HardLink
)

func (k DataKind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	case SymbolicLink:
		return "symlink"
	case HardLink:
		return "hardlink"
	default:
		return "unknown"
	}
}

// ErrUnsupportedVersion is returned when a header names a major/minor
// version this reader does not understand.
var ErrUnsupportedVersion = errors.New("entry: unsupported version")

// CurrentMajor/CurrentMinor are the format version this module writes.
const (
	CurrentMajor uint8 = 0
	CurrentMinor uint8 = 0
)

// Header is the decoded FHED payload: everything needed to set up the
// entry's compression and cipher pipelines before a single byte of data is
// read.
type Header struct {
	Major       uint8
	Minor       uint8
	DataKind    DataKind
	Compression compress.Method
	Encryption  cipher.Algorithm
	CipherMode  cipher.Mode
	Name        string
}

// Encode serializes h as the FHED chunk body:
// major, minor, data_kind, compression, encryption, cipher_mode, name bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, 6, 6+len(h.Name))
	buf[0] = h.Major
	buf[1] = h.Minor
	buf[2] = byte(h.DataKind)
	buf[3] = byte(h.Compression)
	buf[4] = byte(h.Encryption)
	buf[5] = byte(h.CipherMode)
	buf = append(buf, h.Name...)
	return buf
}

// DecodeHeader parses an FHED chunk body back into a Header.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < 6 {
		return Header{}, errors.New("entry: truncated FHED payload")
	}
	h := Header{
		Major:       data[0],
		Minor:       data[1],
		DataKind:    DataKind(data[2]),
		Compression: compress.Method(data[3]),
		Encryption:  cipher.Algorithm(data[4]),
		CipherMode:  cipher.Mode(data[5]),
		Name:        string(data[6:]),
	}
	if h.Major > CurrentMajor {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "%d.%d", h.Major, h.Minor)
	}
	return h, nil
}

// SolidHeader is the decoded SHED payload: no name, since the solid
// container has no path of its own.
type SolidHeader struct {
	Major       uint8
	Minor       uint8
	Compression compress.Method
	Encryption  cipher.Algorithm
	CipherMode  cipher.Mode
}

func (h SolidHeader) Encode() []byte {
	return []byte{h.Major, h.Minor, byte(h.Compression), byte(h.Encryption), byte(h.CipherMode)}
}

func DecodeSolidHeader(data []byte) (SolidHeader, error) {
	if len(data) != 5 {
		return SolidHeader{}, errors.New("entry: malformed SHED payload")
	}
	h := SolidHeader{
		Major:       data[0],
		Minor:       data[1],
		Compression: compress.Method(data[2]),
		Encryption:  cipher.Algorithm(data[3]),
		CipherMode:  cipher.Mode(data[4]),
	}
	if h.Major > CurrentMajor {
		return SolidHeader{}, errors.Wrapf(ErrUnsupportedVersion, "%d.%d", h.Major, h.Minor)
	}
	return h, nil
}
