package pna

import (
	"bytes"
	"io"

	"github.com/bpfs/pna/chunk"
	"github.com/bpfs/pna/cipher"
	"github.com/bpfs/pna/compress"
	"github.com/bpfs/pna/entry"
	"github.com/bpfs/pna/internal/logging"
	"github.com/bpfs/pna/passwordhash"
	"github.com/pkg/errors"
)

// SolidWriter groups many pre-built entries under one compression+cipher
// pair, emitting them as a single SHED/[PHSF]/SDAT+/SEND unit (§4.8).
// AddEntry refuses bytes that begin with a SHED chunk, so the
// one-level-of-nesting rule is enforced at write time; SolidReader.Next
// enforces it again on read.
type SolidWriter struct {
	opt       WriteOption
	body      bytes.Buffer // inner archive body: entries, terminated by AEND at Finalize
	finalized bool
}

// NewSolidWriter opens a solid container under opt. opt.Password must be
// non-empty when opt.Encryption is non-None.
func NewSolidWriter(opt WriteOption) (*SolidWriter, error) {
	if opt.Encryption != cipher.AlgorithmNone && opt.Password == "" {
		return nil, entry.ErrPasswordRequired
	}
	return &SolidWriter{opt: opt}, nil
}

// AddEntry appends a finalized plain entry (the output of entry.Writer's
// Finalize) to the solid body, in FIFO order. Bytes that begin with a SHED
// chunk (a finalized solid entry) are rejected with ErrNestedSolid.
func (sw *SolidWriter) AddEntry(data []byte) error {
	if sw.finalized {
		return errors.New("pna: solid writer already finalized")
	}
	if len(data) >= 8 && bytes.Equal(data[4:8], chunk.TypeSHED[:]) {
		logging.Error("refusing to nest a solid entry inside another solid entry")
		return ErrNestedSolid
	}
	_, err := sw.body.Write(data)
	return err
}

// Finalize closes the inner archive body with AEND, compresses and
// encrypts it as one stream, frames it into SDAT chunks, and returns the
// complete SHED/[PHSF]/SDAT+/SEND byte vector.
func (sw *SolidWriter) Finalize() ([]byte, error) {
	if sw.finalized {
		return nil, errors.New("pna: solid writer already finalized")
	}
	sw.finalized = true

	if err := chunk.Write(&sw.body, chunk.TypeAEND, nil); err != nil {
		return nil, err
	}

	var out bytes.Buffer

	header := entry.SolidHeader{
		Major:       entry.CurrentMajor,
		Minor:       entry.CurrentMinor,
		Compression: sw.opt.Compression,
		Encryption:  sw.opt.Encryption,
		CipherMode:  sw.opt.CipherMode,
	}
	if err := chunk.Write(&out, chunk.TypeSHED, header.Encode()); err != nil {
		return nil, err
	}

	var key []byte
	if sw.opt.Encryption != cipher.AlgorithmNone {
		k, phc, err := passwordhash.Derive(sw.opt.HashAlgorithm, []byte(sw.opt.Password), cipher.KeySize)
		if err != nil {
			return nil, errors.Wrap(err, "pna: derive solid key")
		}
		key = k
		if err := chunk.Write(&out, chunk.TypePHSF, []byte(phc)); err != nil {
			return nil, err
		}
	}

	splitter := chunk.NewSplitter(&out, chunk.TypeSDAT, chunk.DefaultMaxDataLen)

	var sink io.Writer = splitter
	var cipherW io.WriteCloser
	if sw.opt.Encryption != cipher.AlgorithmNone {
		cw, err := cipher.NewWriter(splitter, sw.opt.Encryption, sw.opt.CipherMode, key)
		if err != nil {
			return nil, err
		}
		cipherW = cw
		sink = cw
	}

	comp, err := compress.NewWriter(sink, sw.opt.Compression, sw.opt.CompressionLevel)
	if err != nil {
		return nil, err
	}
	if _, err := comp.Write(sw.body.Bytes()); err != nil {
		return nil, errors.Wrap(err, "pna: compress solid body")
	}
	if err := comp.Close(); err != nil {
		return nil, errors.Wrap(err, "pna: finalize solid compression")
	}
	if cipherW != nil {
		if err := cipherW.Close(); err != nil {
			return nil, errors.Wrap(err, "pna: finalize solid cipher")
		}
	}
	if err := splitter.Close(); err != nil {
		return nil, errors.Wrap(err, "pna: finalize solid splitter")
	}
	if err := chunk.Write(&out, chunk.TypeSEND, nil); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// SolidReader decodes a solid container's decrypted, decompressed inner
// archive body into a sequence of plain entries.
type SolidReader struct {
	Header entry.SolidHeader

	inner   *bytes.Reader
	opt     ReadOption
	done    bool
	pending error // sticky error reported by Next, e.g. ErrPasswordRequired
}

// newSolidReaderFromHeader continues parsing a solid entry whose SHED
// chunk has already been read and decoded by the enclosing archive (or
// solid) body walker. Structural framing (reading every SDAT/PHSF chunk
// up to SEND) always happens eagerly here, since the caller's stream
// position must advance past the whole solid container regardless of
// whether a password was supplied; only the decrypt+decompress step is
// deferred, so a missing password fails lazily on first Next rather than
// at construction (mirrors entry.Reader's §4.7 step 2 treatment).
func newSolidReaderFromHeader(header entry.SolidHeader, r io.Reader, opt ReadOption) (*SolidReader, error) {
	var phc string
	body := &bytes.Buffer{}

loop:
	for {
		t, data, err := chunk.Read(r)
		if err != nil {
			return nil, errors.Wrap(err, "pna: read solid chunk")
		}
		switch t {
		case chunk.TypeSEND:
			break loop
		case chunk.TypePHSF:
			if header.Encryption == cipher.AlgorithmNone {
				return nil, errors.New("pna: PHSF present on unencrypted solid")
			}
			phc = string(data)
		case chunk.TypeSDAT:
			body.Write(data)
		default:
			if t.IsCritical() {
				return nil, errors.Wrapf(ErrUnexpectedChunk, "%s", t)
			}
			// unknown ancillary chunk inside solid framing: no registry
			// entry defines one today, but nothing requires it be fatal.
		}
	}

	if header.Encryption != cipher.AlgorithmNone && phc == "" {
		return nil, errors.New("pna: encrypted solid missing PHSF")
	}

	if header.Encryption != cipher.AlgorithmNone && opt.Password == "" {
		logging.Error("solid container: encrypted, no password supplied")
		return &SolidReader{Header: header, opt: opt, pending: entry.ErrPasswordRequired}, nil
	}

	var key []byte
	if header.Encryption != cipher.AlgorithmNone {
		k, ok, verr := passwordhash.Verify(phc, []byte(opt.Password))
		if verr != nil {
			return nil, errors.Wrap(verr, "pna: verify solid password")
		}
		if !ok {
			return nil, entry.ErrPasswordMismatch
		}
		key = k
	}

	var src io.Reader = body
	if header.Encryption != cipher.AlgorithmNone {
		cr, err := cipher.NewReader(body, header.Encryption, header.CipherMode, key)
		if err != nil {
			return nil, err
		}
		src = cr
	}
	dr, err := compress.NewReader(src, header.Compression)
	if err != nil {
		return nil, err
	}
	plain, err := io.ReadAll(dr)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == cipher.ErrTruncatedCiphertext {
			return nil, errors.Wrap(entry.ErrTruncatedStream, err.Error())
		}
		return nil, errors.Wrap(entry.ErrDecryptionOrDecompression, err.Error())
	}

	return &SolidReader{Header: header, inner: bytes.NewReader(plain), opt: opt}, nil
}

// Next returns the next plain entry inside the solid container, or
// io.EOF once the inner AEND has been consumed. A SHED encountered here
// means the archive that produced this solid was itself malformed (a
// solid nested inside a solid) and ErrNestedSolid is returned. If the
// container was opened without a required password, every call reports
// ErrPasswordRequired.
func (sr *SolidReader) Next() (*entry.Reader, error) {
	if sr.pending != nil {
		return nil, sr.pending
	}
	if sr.done {
		return nil, io.EOF
	}
	t, data, err := chunk.Read(sr.inner)
	if err != nil {
		return nil, errors.Wrap(err, "pna: read solid inner chunk")
	}
	switch t {
	case chunk.TypeAEND:
		sr.done = true
		return nil, io.EOF
	case chunk.TypeFHED:
		header, err := entry.DecodeHeader(data)
		if err != nil {
			return nil, err
		}
		return entry.NewReaderFromHeader(header, sr.inner, sr.opt)
	case chunk.TypeSHED:
		logging.Error("refusing to nest a solid entry inside another solid entry")
		return nil, ErrNestedSolid
	default:
		return nil, errors.Wrapf(ErrUnexpectedChunk, "%s", t)
	}
}
