// Package chunk implements the length-type-data-CRC framing used by every
// PNA archive, modeled on PNG's own chunking discipline.
package chunk

// Type is a 4-byte chunk type code. The first letter's case marks whether a
// reader that does not recognize the type may skip it (ancillary, lowercase
// first letter) or must abort (critical, uppercase first letter) -- the same
// convention PNG uses for IHDR/tEXt and friends.
type Type [4]byte

func (t Type) String() string { return string(t[:]) }

// IsCritical reports whether a reader must understand this chunk to make
// sense of the archive.
func (t Type) IsCritical() bool {
	return t[0] >= 'A' && t[0] <= 'Z'
}

// IsAncillary reports whether a reader may ignore this chunk if it does not
// recognize the type, preserving it verbatim on rewrite.
func (t Type) IsAncillary() bool {
	return !t.IsCritical()
}

func typeOf(s string) Type {
	var t Type
	copy(t[:], s)
	return t
}

// Critical archive- and entry-framing chunk types.
var (
	TypeAHED = typeOf("AHED") // archive header: major, minor, part number
	TypeANXT = typeOf("ANXT") // marks a non-final split part, empty body
	TypeAEND = typeOf("AEND") // archive terminator, empty body

	TypeFHED = typeOf("FHED") // entry header: kind/compression/encryption/name
	TypePHSF = typeOf("PHSF") // PHC-format password hash string
	TypeFDAT = typeOf("FDAT") // entry data slice
	TypeFEND = typeOf("FEND") // entry terminator, empty body

	TypeSHED = typeOf("SHED") // solid container header
	TypeSDAT = typeOf("SDAT") // solid container data slice
	TypeSEND = typeOf("SEND") // solid container terminator, empty body
)

// Ancillary metadata chunk types.
var (
	TypeFSIZ = typeOf("fSIZ") // raw (uncompressed) file size
	TypeCTIM = typeOf("cTIM") // creation time, seconds
	TypeMTIM = typeOf("mTIM") // modification time, seconds
	TypeATIM = typeOf("aTIM") // access time, seconds
	TypeCTNS = typeOf("cTNS") // creation time, nanoseconds
	TypeMTNS = typeOf("mTNS") // modification time, nanoseconds
	TypeATNS = typeOf("aTNS") // access time, nanoseconds
	TypeFPRM = typeOf("fPRM") // unix-style permission
	TypeXATR = typeOf("xATR") // one extended attribute
)

// MaxDataLen is the largest chunk data payload the wire format can express:
// the length prefix is an unsigned 31-bit quantity (spec reserves the high
// bit), so 2^31-1 is the hard ceiling regardless of caller intent.
const MaxDataLen = 1<<31 - 1
