package entry

import (
	"bytes"
	"io"

	"github.com/bpfs/pna/chunk"
	"github.com/bpfs/pna/cipher"
	"github.com/bpfs/pna/compress"
	"github.com/bpfs/pna/internal/logging"
	"github.com/bpfs/pna/passwordhash"
	"github.com/pkg/errors"
)

// ErrPasswordMismatch is returned when a PHSF chunk is present, a password
// was supplied, but it does not verify against PHSF.
var ErrPasswordMismatch = errors.New("entry: password does not verify")

// ErrUnknownCriticalChunk is returned when an entry body contains a
// critical chunk (upper-case first byte, §2) this reader does not
// recognize -- a reader may not silently skip these.
var ErrUnknownCriticalChunk = errors.New("entry: unknown critical chunk")

// ErrDecryptionOrDecompression is returned when PHSF verification
// succeeded (or the entry isn't encrypted at all) but the data stream
// still fails somewhere in the cipher/decompression pipeline -- corrupt
// ciphertext, a bad compressed-frame checksum, and the like. The pipeline
// gives no way to tell which stage actually failed, so the two are
// reported as one kind rather than guessing (§4.3, §4.7 step 4).
var ErrDecryptionOrDecompression = errors.New("entry: decryption or decompression failed")

// ErrTruncatedStream is returned when the entry's data stream ends before
// its cipher or compression framing says it should -- a cut-short
// transfer or truncated archive, distinguished from ordinary corruption
// so callers can tell "incomplete" from "wrong" (§4.7 step 4).
var ErrTruncatedStream = errors.New("entry: data stream truncated")

// UnknownChunk is an ancillary chunk this reader didn't interpret but must
// still preserve for round-tripping (§4.7).
type UnknownChunk struct {
	Type chunk.Type
	Data []byte
}

// Reader decodes one entry of any DataKind: its header, metadata, and a
// decompressed, decrypted view of its data.
type Reader struct {
	Header   Header
	Metadata Metadata
	Unknown  []UnknownChunk

	body io.Reader // decompression stage, what Read delegates to
}

// NewReader reads one entry (FHED ... FEND) from r. If the entry is
// encrypted and opt.Password is non-empty, it must verify against the PHSF
// chunk or ErrPasswordMismatch is returned; if opt.Password is empty, the
// returned Reader fails on its first Read with ErrPasswordRequired.
func NewReader(r io.Reader, opt ReadOption) (*Reader, error) {
	t, data, err := chunk.Read(r)
	if err != nil {
		return nil, errors.Wrap(err, "entry: read FHED")
	}
	if t != chunk.TypeFHED {
		return nil, errors.Errorf("entry: expected FHED, got %s", t)
	}
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	return NewReaderFromHeader(header, r, opt)
}

// NewReaderFromHeader continues parsing an entry whose FHED chunk has
// already been read and decoded by a caller walking the outer archive
// body (the archive reader peeks FHED/SHED/AEND/ANXT to decide what kind
// of item follows, so by the time it knows an entry follows, the FHED
// bytes are already consumed).
func NewReaderFromHeader(header Header, r io.Reader, opt ReadOption) (*Reader, error) {
	rd := &Reader{Header: header}

	var phc string
	bodyBuf := &bytes.Buffer{}

loop:
	for {
		t, data, err := chunk.Read(r)
		if err != nil {
			return nil, errors.Wrap(err, "entry: read chunk")
		}
		switch t {
		case chunk.TypeFEND:
			break loop
		case chunk.TypePHSF:
			if header.Encryption == cipher.AlgorithmNone {
				return nil, errors.New("entry: PHSF present on unencrypted entry")
			}
			phc = string(data)
		case chunk.TypeFDAT:
			bodyBuf.Write(data)
		case chunk.TypeFSIZ, chunk.TypeCTIM, chunk.TypeMTIM, chunk.TypeATIM,
			chunk.TypeCTNS, chunk.TypeMTNS, chunk.TypeATNS, chunk.TypeFPRM, chunk.TypeXATR:
			if err := rd.Metadata.applyChunk(t, data); err != nil {
				return nil, err
			}
		default:
			if t.IsCritical() {
				return nil, errors.Wrapf(ErrUnknownCriticalChunk, "%s", t)
			}
			rd.Unknown = append(rd.Unknown, UnknownChunk{Type: t, Data: append([]byte(nil), data...)})
		}
	}

	if header.Encryption != cipher.AlgorithmNone && phc == "" {
		return nil, errors.New("entry: encrypted entry missing PHSF")
	}
	rd.Metadata.CompressedSize = uint64(bodyBuf.Len())

	// §4.7 step 2: an encrypted entry opened without a password is not a
	// wrong-password condition -- it's a distinct, lazily-reported
	// failure. Build nothing; Read reports ErrPasswordRequired on first
	// call instead of failing here at construction.
	if header.Encryption != cipher.AlgorithmNone && opt.Password == "" {
		logging.Errorf("entry %q: encrypted, no password supplied", header.Name)
		rd.body = errReader{ErrPasswordRequired}
		return rd, nil
	}

	var key []byte
	if header.Encryption != cipher.AlgorithmNone {
		k, ok, verr := passwordhash.Verify(phc, []byte(opt.Password))
		if verr != nil {
			return nil, errors.Wrap(verr, "entry: verify password")
		}
		if !ok {
			logging.Errorf("entry %q: password did not verify against PHSF", header.Name)
			return nil, ErrPasswordMismatch
		}
		key = k
	}

	var src io.Reader = bodyBuf
	if header.Encryption != cipher.AlgorithmNone {
		cr, err := cipher.NewReader(bodyBuf, header.Encryption, header.CipherMode, key)
		if err != nil {
			return nil, err
		}
		src = cr
	}

	dr, err := compress.NewReader(src, header.Compression)
	if err != nil {
		return nil, err
	}
	rd.body = dr

	return rd, nil
}

// errReader is a body stage that fails every Read with a fixed error --
// used for the lazy "encrypted, no password" case (§4.7 step 2).
type errReader struct{ err error }

func (e errReader) Read(p []byte) (int, error) { return 0, e.err }

// Read returns the entry's decompressed, decrypted plaintext. Any
// cipher/decompression-stage error other than io.EOF is reported as
// ErrTruncatedStream (stream ended early) or ErrDecryptionOrDecompression
// (anything else), per §4.3 and §4.7 step 4; ErrPasswordRequired passes
// through unchanged from the lazy no-password reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if err == nil || err == io.EOF || err == ErrPasswordRequired {
		return n, err
	}
	if err == io.ErrUnexpectedEOF || err == cipher.ErrTruncatedCiphertext {
		return n, errors.Wrap(ErrTruncatedStream, err.Error())
	}
	return n, errors.Wrap(ErrDecryptionOrDecompression, err.Error())
}
