package pna

import "github.com/pkg/errors"

// Sentinel errors for the archive/solid framing layer. Per-component
// errors (bad chunk type, CRC mismatch, password mismatch, and so on)
// live in their owning package (chunk, cipher, passwordhash, entry) and
// are not re-declared here.
var (
	// ErrBadMagic is returned when an archive (or a split part) does not
	// begin with Magic.
	ErrBadMagic = errors.New("pna: bad archive magic")

	// ErrTruncatedArchive is returned when the entry stream ends without
	// an AEND chunk.
	ErrTruncatedArchive = errors.New("pna: truncated archive, missing AEND")

	// ErrUnexpectedChunk is returned when the archive walker encounters a
	// critical chunk it did not expect in the current state (e.g. a
	// second AHED).
	ErrUnexpectedChunk = errors.New("pna: unexpected chunk")

	// ErrSplitOrderViolation is returned when a continuation part's AHED
	// part number is not exactly one more than the previous part's.
	ErrSplitOrderViolation = errors.New("pna: split part number is not predecessor+1")

	// ErrNestedSolid is returned when a solid entry is added to, or found
	// inside, another solid entry's body; only one level of nesting is
	// permitted.
	ErrNestedSolid = errors.New("pna: solid entries cannot nest")
)
