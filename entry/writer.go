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

// ErrPasswordRequired is returned when WriteOption.Encryption is non-None
// but WriteOption.Password is empty -- §3's invariant that encryption flag,
// PHSF presence, and password non-emptiness stay jointly consistent. It is
// also what Reader.Read reports for an encrypted entry opened with an
// empty ReadOption.Password.
var ErrPasswordRequired = errors.New("entry: password required for encrypted entry")

// Writer builds one entry as a sequence of chunks in an in-memory buffer.
// Only on a successful Finalize are the accumulated bytes handed back to the
// caller (§4.6 "Atomicity"); a Writer abandoned before Finalize discards
// everything it buffered. A Writer builds exactly one entry and must not be
// reused afterward.
type Writer struct {
	buf         bytes.Buffer
	opt         WriteOption
	splitter    *chunk.Splitter
	compressor  compress.WriteCloser
	cipherW     io.WriteCloser // nil when opt.Encryption == cipher.AlgorithmNone
	metaWritten bool
	finalized   bool
	sizeCount   uint64
}

// NewWriter starts building an entry of the given kind named name with the
// given options and metadata. Metadata chunks are emitted immediately (§4.6 step 4); data
// written afterward via Write flows through compression, then encryption,
// then chunk framing (§4.6 step 5).
func NewWriter(name string, kind DataKind, opt WriteOption, meta Metadata) (*Writer, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if opt.Encryption != cipher.AlgorithmNone && opt.Password == "" {
		logging.Errorf("entry %q requires a password: encryption=%v", name, opt.Encryption)
		return nil, ErrPasswordRequired
	}

	w := &Writer{opt: opt}

	header := Header{
		Major:       CurrentMajor,
		Minor:       CurrentMinor,
		DataKind:    kind,
		Compression: opt.Compression,
		Encryption:  opt.Encryption,
		CipherMode:  opt.CipherMode,
		Name:        name,
	}
	if err := chunk.Write(&w.buf, chunk.TypeFHED, header.Encode()); err != nil {
		return nil, err
	}

	var key []byte
	if opt.Encryption != cipher.AlgorithmNone {
		derivedKey, phc, err := passwordhash.Derive(opt.HashAlgorithm, []byte(opt.Password), cipher.KeySize)
		if err != nil {
			return nil, errors.Wrap(err, "entry: derive key")
		}
		key = derivedKey
		if err := chunk.Write(&w.buf, chunk.TypePHSF, []byte(phc)); err != nil {
			return nil, err
		}
	}

	for _, c := range meta.chunks() {
		if err := chunk.Write(&w.buf, c.Type, c.Data); err != nil {
			return nil, err
		}
	}

	w.splitter = chunk.NewSplitter(&w.buf, chunk.TypeFDAT, chunk.DefaultMaxDataLen)

	var sink io.Writer = w.splitter
	if opt.Encryption != cipher.AlgorithmNone {
		cw, err := cipher.NewWriter(w.splitter, opt.Encryption, opt.CipherMode, key)
		if err != nil {
			return nil, err
		}
		w.cipherW = cw
		sink = cw
	}

	comp, err := compress.NewWriter(sink, opt.Compression, opt.CompressionLevel)
	if err != nil {
		return nil, err
	}
	w.compressor = comp

	return w, nil
}

// Write streams more of the entry's plaintext body through the
// compression/cipher/chunking pipeline.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.compressor.Write(p)
	w.sizeCount += uint64(n)
	return n, err
}

// Finalize flushes compression, then the cipher (CBC padding happens
// here), then the chunk splitter, then emits FEND, and returns the
// complete entry as a standalone byte slice ready to hand to an archive
// writer's AddEntry. Finalize may only be called once.
func (w *Writer) Finalize() ([]byte, error) {
	if w.finalized {
		return nil, errors.New("entry: already finalized")
	}
	w.finalized = true

	if err := w.compressor.Close(); err != nil {
		return nil, errors.Wrap(err, "entry: finalize compression")
	}
	if w.cipherW != nil {
		if err := w.cipherW.Close(); err != nil {
			return nil, errors.Wrap(err, "entry: finalize cipher")
		}
	}
	if err := w.splitter.Close(); err != nil {
		return nil, errors.Wrap(err, "entry: finalize chunk splitter")
	}
	if err := chunk.Write(&w.buf, chunk.TypeFEND, nil); err != nil {
		return nil, err
	}

	logging.Debugf("entry finalized: %d raw bytes, %d framed bytes", w.sizeCount, w.buf.Len())
	return w.buf.Bytes(), nil
}

// RawSize reports how many plaintext bytes have been written so far. The
// count is not written into the entry: NewWriter has already emitted the
// metadata chunks, fSIZ included, so a caller that wants fSIZ must know the
// size and set Metadata.RawSize before calling NewWriter.
func (w *Writer) RawSize() uint64 { return w.sizeCount }
